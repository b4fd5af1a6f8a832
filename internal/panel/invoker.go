package panel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/davharte/tribunal/internal/models"
)

// Backend executes one review prompt and returns the raw textual output.
// Implementations wrap an agent CLI subprocess or a direct API call.
type Backend interface {
	ID() string
	Review(ctx context.Context, prompt string) (string, error)
}

// PromptBuilder constructs role prompts from the review input. Prompt
// wording is owned by the collaborator, not the panel.
type PromptBuilder interface {
	// RolePrompt returns the full role prompt for delegated execution.
	RolePrompt(role models.ReviewerRole, in models.ReviewInput) string

	// StructuredRolePrompt returns the role prompt with the JSON-only
	// output instruction appended, for direct backend invocation.
	StructuredRolePrompt(role models.ReviewerRole, in models.ReviewInput) string
}

// Invoker runs external assignments concurrently with per-call timeout
// and failure containment. Every external assignment yields exactly one
// verdict; delegated assignments bypass the invoker entirely.
type Invoker struct {
	cfg      Config
	prompts  PromptBuilder
	backends map[string]Backend
}

// NewInvoker creates an invoker over the given backends.
func NewInvoker(cfg Config, prompts PromptBuilder, backends ...Backend) *Invoker {
	m := make(map[string]Backend, len(backends))
	for _, b := range backends {
		m[b.ID()] = b
	}
	return &Invoker{cfg: cfg, prompts: prompts, backends: m}
}

// InvokeAll executes every external assignment concurrently and waits for
// all of them to settle. No invocation blocks or aborts another: a panic,
// error, or timeout in one produces a synthesized verdict for that role
// while its siblings run to completion. Verdicts come back in assignment
// order regardless of completion order.
func (inv *Invoker) InvokeAll(ctx context.Context, assignments []models.Assignment, input models.ReviewInput) []models.Verdict {
	var external []models.Assignment
	for _, a := range assignments {
		if a.Kind == models.BackendExternal {
			external = append(external, a)
		}
	}
	if len(external) == 0 {
		return nil
	}

	verdicts := make([]models.Verdict, len(external))
	var wg sync.WaitGroup
	for i, a := range external {
		wg.Add(1)
		go func(i int, a models.Assignment) {
			defer wg.Done()
			verdicts[i] = inv.invokeOne(ctx, a, input)
		}(i, a)
	}
	wg.Wait()

	return verdicts
}

// invokeOne runs a single assignment and always returns a verdict.
func (inv *Invoker) invokeOne(ctx context.Context, a models.Assignment, input models.ReviewInput) (v models.Verdict) {
	start := time.Now()

	// A panicking backend must not take down its siblings.
	defer func() {
		if r := recover(); r != nil {
			v = failedVerdict(a, models.StatusErrored, fmt.Sprintf("panic during invocation: %v", r), time.Since(start))
		}
	}()

	backend, ok := inv.backends[a.BackendID]
	if !ok {
		return failedVerdict(a, models.StatusErrored, fmt.Sprintf("backend %q not registered", a.BackendID), time.Since(start))
	}

	prompt := inv.prompts.StructuredRolePrompt(a.Role, input)

	callCtx, cancel := context.WithTimeout(ctx, inv.cfg.Timeout)
	defer cancel()

	raw, err := backend.Review(callCtx, prompt)
	elapsed := time.Since(start)

	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return failedVerdict(a, models.StatusTimedOut,
				fmt.Sprintf("review timed out after %s", inv.cfg.Timeout), elapsed)
		}
		return failedVerdict(a, models.StatusErrored, err.Error(), elapsed)
	}

	payload := Normalize(raw)
	return models.Verdict{
		Role:       a.Role,
		BackendID:  a.BackendID,
		Decision:   payload.Decision,
		Confidence: payload.Confidence,
		Findings:   payload.Fields,
		Status:     models.StatusCompleted,
		Duration:   elapsed,
	}
}

// failedVerdict synthesizes the verdict for a timed-out or errored
// invocation: a low-confidence changes-required default with the failure
// reason preserved.
func failedVerdict(a models.Assignment, status models.ExecStatus, errText string, elapsed time.Duration) models.Verdict {
	return models.Verdict{
		Role:       a.Role,
		BackendID:  a.BackendID,
		Decision:   models.DecisionProceedWithChanges,
		Confidence: FallbackConfidence,
		Status:     status,
		Error:      errText,
		Duration:   elapsed,
	}
}
