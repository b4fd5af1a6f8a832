package models

import "time"

// Decision is the three-valued outcome of a review.
type Decision string

const (
	DecisionProceed            Decision = "proceed"
	DecisionProceedWithChanges Decision = "proceed_with_changes"
	DecisionBlock              Decision = "block"
)

// Valid reports whether d is one of the three known decisions.
func (d Decision) Valid() bool {
	switch d {
	case DecisionProceed, DecisionProceedWithChanges, DecisionBlock:
		return true
	}
	return false
}

// ExecStatus records how a backend invocation ended.
type ExecStatus string

const (
	StatusCompleted ExecStatus = "completed"
	StatusTimedOut  ExecStatus = "timed_out"
	StatusErrored   ExecStatus = "errored"
)

// Verdict is the normalized outcome of one role's review. Exactly one
// Verdict exists per external assignment per cycle: failed and timed-out
// invocations still yield a Verdict rather than being omitted. Verdicts
// are never mutated after creation.
type Verdict struct {
	Role       ReviewerRole   `json:"role"`
	BackendID  string         `json:"backend_id"`
	Decision   Decision       `json:"decision"`
	Confidence float64        `json:"confidence"`
	Findings   map[string]any `json:"findings,omitempty"`
	Status     ExecStatus     `json:"status"`
	Error      string         `json:"error,omitempty"`
	Duration   time.Duration  `json:"duration"`
}

// PendingInstruction describes a delegated role execution: a Verdict not
// yet produced. The core never runs or polls it; the host executes the
// prompt and pushes the resulting Verdict back for recomputation.
type PendingInstruction struct {
	Role         ReviewerRole `json:"role"`
	BackendID    string       `json:"backend_id"`
	Prompt       string       `json:"prompt"`
	AllowedTools []string     `json:"allowed_tools"`
}
