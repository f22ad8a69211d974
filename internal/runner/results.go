package runner

import "time"

// Model run statuses recorded in ModelResult.Status.
const (
	StatusCompleted = "completed"
	StatusAborted   = "aborted"
	StatusFailed    = "failed"
)

// Results is the full record of one run, serialized to results.json.
type Results struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Settings   RunSettings   `json:"settings"`
	Models     []ModelResult `json:"models"`
}

// RunSettings echoes the effective configuration of a run.
type RunSettings struct {
	Experiments       int    `json:"experiments"`
	ToolName          string `json:"tool_name"`
	MaxSteps          int    `json:"max_steps"`
	Concurrency       int    `json:"concurrency"`
	OnError           string `json:"on_error"`
	RequestsPerMinute int    `json:"requests_per_minute"`
}

// ModelResult holds the trials and aggregate of one model.
type ModelResult struct {
	Model         string          `json:"model"`
	Status        string          `json:"status"`
	FailureReason *string         `json:"failure_reason"`
	Requested     int             `json:"requested"`
	Completed     int             `json:"completed"`
	Aggregate     AggregateResult `json:"aggregate"`
	Trials        []Trial         `json:"trials"`
}

// Aggregates returns the aggregate of every model in run order.
func (r Results) Aggregates() []AggregateResult {
	out := make([]AggregateResult, 0, len(r.Models))
	for _, model := range r.Models {
		out = append(out, model.Aggregate)
	}
	return out
}
