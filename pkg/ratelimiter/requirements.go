package ratelimiter

import (
	"fmt"
	"time"
)

// RPMKey is the requests-per-minute key for a provider/model pair.
func RPMKey(provider, model string) LimitKey {
	return LimitKey(fmt.Sprintf("llm:%s:%s:rpm", provider, model))
}

// TPMKey is the prompt-tokens-per-minute key for a provider/model pair.
func TPMKey(provider, model string) LimitKey {
	return LimitKey(fmt.Sprintf("llm:%s:%s:tpm", provider, model))
}

// ConcurrencyKey is the in-flight trial key for a provider/model pair.
func ConcurrencyKey(provider, model string) LimitKey {
	return LimitKey(fmt.Sprintf("llm:%s:%s:concurrency", provider, model))
}

// RequestRequirements builds the requirements for a single model request.
func RequestRequirements(provider, model string, promptTokens uint64) []Requirement {
	return []Requirement{
		{Key: RPMKey(provider, model), Amount: 1},
		{Key: TPMKey(provider, model), Amount: promptTokens},
	}
}

// TrialRequirements builds the requirements for running one trial.
func TrialRequirements(provider, model string) []Requirement {
	return []Requirement{{Key: ConcurrencyKey(provider, model), Amount: 1}}
}

// ModelLimits describes per-model limits; zero values disable a limit.
type ModelLimits struct {
	RequestsPerMinute int
	TokensPerMinute   int
	Concurrency       int
}

// Limits expands ModelLimits into the limits for one model.
func (l ModelLimits) Limits(provider, model string) []Limit {
	defs := make([]Limit, 0, 3)
	if l.RequestsPerMinute > 0 {
		defs = append(defs, Limit{Key: RPMKey(provider, model), Kind: Rolling, Capacity: uint64(l.RequestsPerMinute), Window: time.Minute})
	}
	if l.TokensPerMinute > 0 {
		defs = append(defs, Limit{Key: TPMKey(provider, model), Kind: Rolling, Capacity: uint64(l.TokensPerMinute), Window: time.Minute})
	}
	if l.Concurrency > 0 {
		defs = append(defs, Limit{Key: ConcurrencyKey(provider, model), Kind: Concurrent, Capacity: uint64(l.Concurrency)})
	}
	return defs
}
