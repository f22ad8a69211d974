package ratelimiter

import (
	"context"
	"time"
)

// Acquire reserves req, sleeping through denials until it is admitted or ctx ends.
// onDenied, when set, sees every denial before the wait.
func Acquire(ctx context.Context, limiter Limiter, req Reservation, onDenied func(Decision)) error {
	if req.LeaseID == "" {
		req.LeaseID = NewLeaseID()
	}
	for {
		res, err := limiter.Reserve(ctx, req)
		if err != nil {
			return err
		}
		if res.Allowed {
			return nil
		}
		if onDenied != nil {
			onDenied(res)
		}
		delay := max(res.RetryAfter, time.Millisecond)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
