// Package testutil holds helpers shared by package tests: deadline-bound
// contexts, a controllable clock, and a scripted chat-completions server.
package testutil

import (
	"context"
	"testing"
	"time"
)

// Context returns a context canceled after timeout or when the test ends.
// The timeout is shortened to leave a second before the test binary's own
// deadline so failures report from the test instead of a panic dump.
func Context(t testing.TB, timeout time.Duration) context.Context {
	t.Helper()
	if bounded, ok := t.(interface{ Deadline() (time.Time, bool) }); ok {
		if deadline, ok := bounded.Deadline(); ok {
			if left := time.Until(deadline) - time.Second; left > 0 && left < timeout {
				timeout = left
			}
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
