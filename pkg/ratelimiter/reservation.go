package ratelimiter

import "time"

// LimitKey names one limited resource, such as llm:openai:gpt-4o:rpm.
type LimitKey string

// LimitKind selects how a Limit is enforced.
type LimitKind string

const (
	// Rolling limits refill evenly over their window.
	Rolling LimitKind = "rolling"
	// Concurrent limits hold capacity from Reserve until Complete.
	Concurrent LimitKind = "concurrent"
)

// Limit is one enforced capacity. Window applies to Rolling limits only.
type Limit struct {
	Key      LimitKey
	Kind     LimitKind
	Capacity uint64
	Window   time.Duration
}

// Requirement is the amount a reservation needs from one limit.
type Requirement struct {
	Key    LimitKey
	Amount uint64
}

// Reservation asks for every requirement under a single lease.
type Reservation struct {
	LeaseID      string
	JobID        string
	Requirements []Requirement
}

// Decision answers a Reservation.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string
}

// Denied refuses a reservation until retryAfter has passed.
func Denied(retryAfter time.Duration, reason string) Decision {
	return Decision{RetryAfter: retryAfter, Reason: reason}
}
