package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub()

	a := hub.Subscribe()
	b := hub.Subscribe()
	defer hub.Unsubscribe(a)
	defer hub.Unsubscribe(b)

	hub.Publish(Event{Type: TypePreferencesUpdated, UserID: 7})

	for _, ch := range []chan Event{a, b} {
		select {
		case event := <-ch:
			assert.Equal(t, TypePreferencesUpdated, event.Type)
			assert.Equal(t, uint(7), event.UserID)
			assert.False(t, event.At.IsZero(), "publish stamps the event")
		case <-time.After(time.Second):
			t.Fatal("expected event was not delivered")
		}
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()

	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	// Fill the buffer and one more; Publish must not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < cap(ch)+5; i++ {
			hub.Publish(Event{Type: TypeTradesChanged})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	assert.Len(t, ch, cap(ch))
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()

	ch := hub.Subscribe()
	require.Equal(t, 1, hub.SubscriberCount())

	hub.Unsubscribe(ch)
	assert.Equal(t, 0, hub.SubscriberCount())

	_, open := <-ch
	assert.False(t, open)

	// Double unsubscribe is harmless.
	hub.Unsubscribe(ch)
}
