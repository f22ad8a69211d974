// Package ratelimiter admits model work against per-model limits. A Limiter
// reserves capacity for a lease and releases it on Complete; the Scheduler
// runs trial jobs on a worker pool once their reservation is granted.
package ratelimiter

import (
	"context"

	"github.com/google/uuid"
)

// Limiter reserves and releases capacity. Reserve either admits every
// requirement of a request or none of them.
type Limiter interface {
	Reserve(ctx context.Context, req Reservation) (Decision, error)
	Complete(ctx context.Context, leaseID string) error
}

// Unlimited admits everything.
var Unlimited Limiter = unlimited{}

type unlimited struct{}

func (unlimited) Reserve(context.Context, Reservation) (Decision, error) {
	return Decision{Allowed: true}, nil
}

func (unlimited) Complete(context.Context, string) error { return nil }

// NewLeaseID returns a time-ordered lease id.
func NewLeaseID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
