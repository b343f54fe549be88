package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestChecker(url string, retries int) *Checker {
	return NewChecker(Config{
		UpstreamStatusURL: url,
		RequestTimeout:    2 * time.Second,
		RetryCount:        retries,
	})
}

func TestCheckNowOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checker := newTestChecker(srv.URL, 0)

	assert.Equal(t, StatusOnline, checker.CheckNow(context.Background()))

	status, checkedAt := checker.Status()
	assert.Equal(t, StatusOnline, status)
	assert.False(t, checkedAt.IsZero())
}

func TestCheckNowServerErrorDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	checker := newTestChecker(srv.URL, 0)

	assert.Equal(t, StatusDegraded, checker.CheckNow(context.Background()))
}

func TestCheckNowNetworkErrorGoesOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	checker := newTestChecker(srv.URL, 0)

	assert.Equal(t, StatusOffline, checker.CheckNow(context.Background()))
}

func TestAuthFailureIsNotRetried(t *testing.T) {
	var hits int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	checker := newTestChecker(srv.URL, 3)

	assert.Equal(t, StatusDegraded, checker.CheckNow(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "401 must not trigger retries")
}

func TestServerErrorIsRetried(t *testing.T) {
	var hits int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	checker := newTestChecker(srv.URL, 2)

	assert.Equal(t, StatusDegraded, checker.CheckNow(context.Background()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits), "expected initial attempt plus two retries")
}

func TestUnconfiguredCheckerReportsUnknown(t *testing.T) {
	checker := newTestChecker("", 0)

	assert.Equal(t, StatusUnknown, checker.CheckNow(context.Background()))
}
