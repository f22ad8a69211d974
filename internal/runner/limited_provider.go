package runner

import (
	"context"
	"fmt"

	"toolcount/internal/agent"
	"toolcount/pkg/ratelimiter"
)

// limitedProvider admits every model request through a Limiter before
// streaming, charging one request and the prompt's approximate tokens.
type limitedProvider struct {
	inner    agent.Provider
	limiter  ratelimiter.Limiter
	provider string
	model    string
	jobID    string
	onDenied func(ratelimiter.Decision)
}

func newLimitedProvider(inner agent.Provider, limiter ratelimiter.Limiter, ref agent.ModelRef, jobID string, onDenied func(ratelimiter.Decision)) agent.Provider {
	if limiter == nil || limiter == ratelimiter.Unlimited {
		return inner
	}
	return limitedProvider{
		inner:    inner,
		limiter:  limiter,
		provider: ref.Provider,
		model:    ref.Name,
		jobID:    jobID,
		onDenied: onDenied,
	}
}

func (p limitedProvider) Stream(ctx context.Context, prompt agent.Prompt) (agent.Stream, error) {
	tokens := agent.ApproxPromptTokens(prompt)
	req := ratelimiter.Reservation{
		LeaseID:      ratelimiter.NewLeaseID(),
		JobID:        p.jobID,
		Requirements: ratelimiter.RequestRequirements(p.provider, p.model, uint64(max(tokens, 0))),
	}
	if err := ratelimiter.Acquire(ctx, p.limiter, req, p.onDenied); err != nil {
		return nil, fmt.Errorf("acquire request capacity: %w", err)
	}
	defer func() { _ = p.limiter.Complete(context.Background(), req.LeaseID) }()
	return p.inner.Stream(ctx, prompt)
}
