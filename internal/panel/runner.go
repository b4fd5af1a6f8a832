package panel

import (
	"context"

	"github.com/davharte/tribunal/internal/models"
)

// Runner executes one full review cycle: resolve, invoke, build pending
// instructions, compute consensus. Cycles are independent; a Runner holds
// no mutable state across runs.
type Runner struct {
	cfg     Config
	prompts PromptBuilder
	invoker *Invoker
}

// NewRunner creates a runner over the given backends.
func NewRunner(cfg Config, prompts PromptBuilder, backends ...Backend) *Runner {
	return &Runner{
		cfg:     cfg,
		prompts: prompts,
		invoker: NewInvoker(cfg, prompts, backends...),
	}
}

// Run executes a cycle to completion: all external assignments settle
// before consensus is computed. The returned cycle carries a verdict for
// every external assignment, a pending instruction for every delegated
// one, and a consensus that is provisional when delegated verdicts are
// still outstanding.
func (r *Runner) Run(ctx context.Context, input models.ReviewInput) *models.ReviewCycle {
	assignments := Resolve(r.cfg.Backends)
	verdicts := r.invoker.InvokeAll(ctx, assignments, input)
	pending := BuildPendingInstructions(assignments, input, r.prompts, r.cfg.AllowedTools)
	consensus := ComputeConsensus(verdicts)

	return &models.ReviewCycle{
		Input:       input,
		Assignments: assignments,
		Verdicts:    verdicts,
		Pending:     pending,
		Consensus:   &consensus,
		Provisional: len(pending) > 0,
	}
}

// Recompute merges newly submitted verdicts into a cycle's consensus.
// This is the explicit re-entrant call for delegated verdicts arriving
// after the original run; it never happens automatically.
func Recompute(c *models.ReviewCycle) models.Consensus {
	consensus := ComputeConsensus(c.Verdicts)
	c.Consensus = &consensus
	c.Provisional = len(c.Pending) > 0
	return consensus
}
