// Package local enforces rate limits in process with token buckets.
package local

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"toolcount/pkg/ratelimiter"
)

// concurrencyRetry is how long callers wait before retrying a full concurrency limit.
const concurrencyRetry = 50 * time.Millisecond

// Limiter implements ratelimiter.Limiter for a single process. Rolling limits
// refill evenly across their window; concurrency limits are held per lease until
// Complete. Keys without a definition are unlimited.
type Limiter struct {
	mu       sync.Mutex
	defs     map[ratelimiter.LimitKey]ratelimiter.Limit
	buckets  map[ratelimiter.LimitKey]*rate.Limiter
	inFlight map[ratelimiter.LimitKey]uint64
	leases   map[string][]ratelimiter.Requirement
	now      func() time.Time
}

// New builds a limiter from definitions.
func New(defs []ratelimiter.Limit) (*Limiter, error) {
	return newLimiter(defs, time.Now)
}

func newLimiter(defs []ratelimiter.Limit, now func() time.Time) (*Limiter, error) {
	l := &Limiter{
		defs:     map[ratelimiter.LimitKey]ratelimiter.Limit{},
		buckets:  map[ratelimiter.LimitKey]*rate.Limiter{},
		inFlight: map[ratelimiter.LimitKey]uint64{},
		leases:   map[string][]ratelimiter.Requirement{},
		now:      now,
	}
	for _, def := range defs {
		if err := l.add(def); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Limiter) add(def ratelimiter.Limit) error {
	if def.Key == "" {
		return fmt.Errorf("limit key is required")
	}
	if _, ok := l.defs[def.Key]; ok {
		return fmt.Errorf("duplicate limit %q", def.Key)
	}
	if def.Capacity == 0 {
		return fmt.Errorf("limit %q: capacity must be positive", def.Key)
	}
	switch def.Kind {
	case ratelimiter.Rolling:
		if def.Window <= 0 {
			return fmt.Errorf("limit %q: window must be positive", def.Key)
		}
		every := def.Window / time.Duration(def.Capacity)
		l.buckets[def.Key] = rate.NewLimiter(rate.Every(every), burstFor(def.Capacity))
	case ratelimiter.Concurrent:
	default:
		return fmt.Errorf("limit %q: unknown kind %q", def.Key, def.Kind)
	}
	l.defs[def.Key] = def
	return nil
}

// Reserve admits all requirements or none. Denials carry the wait before a retry can succeed.
func (l *Limiter) Reserve(_ context.Context, req ratelimiter.Reservation) (ratelimiter.Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()

	if _, held := l.leases[req.LeaseID]; held && req.LeaseID != "" {
		return ratelimiter.Decision{}, fmt.Errorf("lease %q is already reserved", req.LeaseID)
	}
	for _, item := range req.Requirements {
		def, ok := l.defs[item.Key]
		if !ok || def.Kind != ratelimiter.Concurrent {
			continue
		}
		if l.inFlight[item.Key]+item.Amount > def.Capacity {
			return ratelimiter.Denied(concurrencyRetry, "concurrency_limit"), nil
		}
	}

	reservations := make([]*rate.Reservation, 0, len(req.Requirements))
	cancelAll := func() {
		for _, r := range reservations {
			r.CancelAt(now)
		}
	}
	var wait time.Duration
	for _, item := range req.Requirements {
		bucket, ok := l.buckets[item.Key]
		if !ok || item.Amount == 0 {
			continue
		}
		amount := int(min(item.Amount, uint64(bucket.Burst())))
		r := bucket.ReserveN(now, amount)
		if !r.OK() {
			cancelAll()
			return ratelimiter.Decision{}, fmt.Errorf("limit %q cannot admit %d", item.Key, amount)
		}
		reservations = append(reservations, r)
		if delay := r.DelayFrom(now); delay > wait {
			wait = delay
		}
	}
	if wait > 0 {
		cancelAll()
		return ratelimiter.Denied(wait, "rate_limited"), nil
	}

	held := make([]ratelimiter.Requirement, 0, len(req.Requirements))
	for _, item := range req.Requirements {
		if def, ok := l.defs[item.Key]; ok && def.Kind == ratelimiter.Concurrent {
			l.inFlight[item.Key] += item.Amount
			held = append(held, item)
		}
	}
	if len(held) > 0 {
		l.leases[req.LeaseID] = held
	}
	return ratelimiter.Decision{Allowed: true}, nil
}

// Complete releases any concurrency held by the lease. Completing an unknown lease is a no-op.
func (l *Limiter) Complete(_ context.Context, leaseID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, item := range l.leases[leaseID] {
		if l.inFlight[item.Key] >= item.Amount {
			l.inFlight[item.Key] -= item.Amount
		} else {
			l.inFlight[item.Key] = 0
		}
	}
	delete(l.leases, leaseID)
	return nil
}

// InFlight reports the held amount for a concurrency key.
func (l *Limiter) InFlight(key ratelimiter.LimitKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight[key]
}

func burstFor(capacity uint64) int {
	if capacity > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(capacity)
}
