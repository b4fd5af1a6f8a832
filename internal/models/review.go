package models

import "time"

// Severity tags how consequential the proposed change is. The panel
// treats it as opaque text to embed in prompts.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ExecutionMode tags how the caller intends to use the consensus.
type ExecutionMode string

const (
	ExecAdvisory ExecutionMode = "advisory"
	ExecBlocking ExecutionMode = "blocking"
)

// ReviewInput describes the change under review. All string fields are
// opaque text embedded into prompts; no validation beyond shape.
type ReviewInput struct {
	Task         string        `json:"task"`
	Changes      string        `json:"changes"`
	Files        []string      `json:"files,omitempty"`
	Severity     Severity      `json:"severity"`
	ContextFiles []string      `json:"context_files,omitempty"`
	Mode         ExecutionMode `json:"mode"`
}

// Consensus is the single merged decision computed from the completed
// verdicts of one cycle. Issues and recommendations are deduplicated,
// first-seen order preserved.
type Consensus struct {
	Decision        Decision `json:"decision"`
	Confidence      float64  `json:"confidence"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// ReviewCycle is the persisted envelope for one panel run. A consensus
// computed while delegated verdicts are outstanding is provisional and
// must be recomputed once those verdicts are submitted.
type ReviewCycle struct {
	ID          string               `json:"id"`
	Input       ReviewInput          `json:"input"`
	Assignments []Assignment         `json:"assignments"`
	Verdicts    []Verdict            `json:"verdicts"`
	Pending     []PendingInstruction `json:"pending,omitempty"`
	Consensus   *Consensus           `json:"consensus,omitempty"`
	Provisional bool                 `json:"provisional"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}
