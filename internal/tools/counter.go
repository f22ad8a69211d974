package tools

import (
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// DefaultToolName is the name the counter tool is registered under.
const DefaultToolName = "foo"

// acknowledgments are returned from Invoke; the content is never scored.
var acknowledgments = []string{"fish", "dog", "mouse", "snake"}

// Counter counts invocations of the counter tool during a single trial.
// The zero value is ready to use and starts at zero.
type Counter struct {
	count atomic.Int64
	pick  func(n int) int
	clock func() time.Time
}

// NewCounter returns a counter starting at zero.
func NewCounter() *Counter {
	return &Counter{}
}

// Invoke records one tool invocation and returns an acknowledgment.
func (c *Counter) Invoke() string {
	c.count.Add(1)
	pick := c.pick
	if pick == nil {
		pick = rand.IntN
	}
	return acknowledgments[pick(len(acknowledgments))]
}

// Count reports how many times Invoke has been called.
func (c *Counter) Count() int {
	return int(c.count.Load())
}

// Call invokes the counter and wraps the acknowledgment in a CallResult.
func (c *Counter) Call(tool string) CallResult {
	now := c.now()
	output := c.Invoke()
	end := c.now()
	return CallResult{
		Tool:        tool,
		Output:      output,
		OutputBytes: len(output),
		StartedAt:   now,
		FinishedAt:  end,
		Duration:    end.Sub(now),
	}
}

func (c *Counter) now() time.Time {
	if c.clock != nil {
		return c.clock()
	}
	return time.Now()
}
