package store

import (
	"context"

	"github.com/davharte/tribunal/internal/models"
)

// Store defines the persistence interface for review cycles. Cycles are
// written once per panel run; delegated verdicts arrive later via
// SubmitVerdict and trigger an explicit consensus recomputation by the
// caller.
type Store interface {
	CreateCycle(ctx context.Context, c *models.ReviewCycle) error
	GetCycle(ctx context.Context, id string) (*models.ReviewCycle, error)
	ListCycles(ctx context.Context, limit int) ([]*models.ReviewCycle, error)

	// SubmitVerdict records a verdict for a cycle and resolves the
	// matching pending instruction, if any. A role may carry at most one
	// verdict per cycle.
	SubmitVerdict(ctx context.Context, cycleID string, v models.Verdict) error

	// UpdateConsensus replaces the stored consensus for a cycle.
	UpdateConsensus(ctx context.Context, cycleID string, c models.Consensus, provisional bool) error

	Migrate(ctx context.Context) error
	Close() error
}
