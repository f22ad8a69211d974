package ratelimiter

import (
	"testing"
	"time"

	"toolcount/internal/testutil"
)

// withDeadline runs fn and fails the test when it outlives d.
func withDeadline(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		fn()
	}()
	select {
	case <-finished:
	case <-testutil.Context(t, d).Done():
		t.Fatalf("test did not finish within %s", d)
	}
}

// awaitSignals receives n values from ch, or fails after d. A closed
// channel satisfies any n.
func awaitSignals(t *testing.T, ch <-chan struct{}, n int, d time.Duration) {
	t.Helper()
	ctx := testutil.Context(t, d)
	for got := 0; got < n; got++ {
		select {
		case <-ch:
		case <-ctx.Done():
			t.Fatalf("received %d of %d signals within %s", got, n, d)
		}
	}
}
