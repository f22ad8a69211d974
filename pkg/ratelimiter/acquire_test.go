package ratelimiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"toolcount/internal/testutil"
)

func TestAcquireRetriesUntilAllowed(t *testing.T) {
	lim := &fakeLimiter{}
	calls := 0
	lim.reserveFn = func(Reservation) (Decision, error) {
		calls++
		if calls < 3 {
			return Denied(time.Millisecond, ""), nil
		}
		return Decision{Allowed: true}, nil
	}
	denials := 0
	err := Acquire(testutil.Context(t, time.Second), lim, Reservation{JobID: "j"}, func(Decision) { denials++ })
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if calls != 3 || denials != 2 {
		t.Fatalf("expected 3 attempts and 2 denials, got %d/%d", calls, denials)
	}
	if lim.reserveCalls[0].LeaseID == "" {
		t.Fatalf("expected a generated lease id")
	}
}

func TestAcquireStopsOnContext(t *testing.T) {
	lim := &fakeLimiter{}
	lim.reserveFn = func(Reservation) (Decision, error) {
		return Denied(time.Minute, ""), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := Acquire(ctx, lim, Reservation{}, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestAcquireReturnsLimiterErrors(t *testing.T) {
	lim := &fakeLimiter{}
	boom := errors.New("boom")
	lim.reserveFn = func(Reservation) (Decision, error) { return Decision{}, boom }
	if err := Acquire(context.Background(), lim, Reservation{}, nil); !errors.Is(err, boom) {
		t.Fatalf("expected limiter error, got %v", err)
	}
}

func TestModelLimitsExpand(t *testing.T) {
	defs := ModelLimits{RequestsPerMinute: 10, Concurrency: 2}.Limits("p", "m")
	if len(defs) != 2 {
		t.Fatalf("expected 2 limits, got %+v", defs)
	}
	if defs[0].Key != RPMKey("p", "m") || defs[0].Kind != Rolling || defs[0].Window != time.Minute {
		t.Fatalf("unexpected rpm definition: %+v", defs[0])
	}
	if defs[1].Key != ConcurrencyKey("p", "m") || defs[1].Capacity != 2 {
		t.Fatalf("unexpected concurrency definition: %+v", defs[1])
	}
	if len((ModelLimits{}).Limits("p", "m")) != 0 {
		t.Fatalf("expected no limits when all are zero")
	}
}
