package testutil

import (
	"sync/atomic"
	"time"
)

// FakeClock only moves when Advance is called.
type FakeClock struct {
	now atomic.Pointer[time.Time]
}

// NewFakeClock starts a clock at start.
func NewFakeClock(start time.Time) *FakeClock {
	c := &FakeClock{}
	c.now.Store(&start)
	return c
}

// Now has the signature of time.Now so it can be injected in its place.
func (c *FakeClock) Now() time.Time { return *c.now.Load() }

// Advance moves the clock forward by d and returns the new time.
func (c *FakeClock) Advance(d time.Duration) time.Time {
	for {
		current := c.now.Load()
		next := current.Add(d)
		if c.now.CompareAndSwap(current, &next) {
			return next
		}
	}
}
