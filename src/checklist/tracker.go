package checklist

import "sync"

type trackerKey struct {
	userID     uint
	strategyID uint
}

// Tracker holds every user's checked sets, guarded by a single mutex. The
// maps are small (one bool per rule) and mutations are rare, so contention
// is not a concern.
type Tracker struct {
	mu    sync.Mutex
	state map[trackerKey]map[string]bool
}

func NewTracker() *Tracker {
	return &Tracker{
		state: make(map[trackerKey]map[string]bool),
	}
}

// Toggle flips a rule key's membership and returns its new checked state.
func (t *Tracker) Toggle(userID, strategyID uint, key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := trackerKey{userID: userID, strategyID: strategyID}

	set, ok := t.state[k]
	if !ok {
		set = make(map[string]bool)
		t.state[k] = set
	}

	if set[key] {
		delete(set, key)
		return false
	}

	set[key] = true
	return true
}

// Reset clears the checked set for one user and strategy.
func (t *Tracker) Reset(userID, strategyID uint) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.state, trackerKey{userID: userID, strategyID: strategyID})
}

// Checked returns a copy of the current set so callers can read it without
// holding the lock.
func (t *Tracker) Checked(userID, strategyID uint) map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set := t.state[trackerKey{userID: userID, strategyID: strategyID}]

	out := make(map[string]bool, len(set))
	for k, v := range set {
		if v {
			out[k] = true
		}
	}

	return out
}
