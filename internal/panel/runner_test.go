package panel

import (
	"context"
	"testing"

	"github.com/davharte/tribunal/internal/models"
)

func TestRunner_Run_MixedPanel(t *testing.T) {
	cfg := testConfig()
	cfg.Backends = []string{"claude", "codex"}
	runner := NewRunner(cfg, fakePrompts{},
		jsonBackend("claude", "block", 0.9),
		jsonBackend("codex", "proceed", 0.8),
	)

	cycle := runner.Run(context.Background(), models.ReviewInput{Task: "add retry logic", Changes: "diff"})

	if len(cycle.Assignments) != 3 {
		t.Fatalf("expected 3 assignments, got %d", len(cycle.Assignments))
	}
	if len(cycle.Verdicts) != 2 {
		t.Fatalf("expected 2 verdicts, got %d", len(cycle.Verdicts))
	}
	if len(cycle.Pending) != 1 {
		t.Fatalf("expected 1 pending instruction, got %d", len(cycle.Pending))
	}
	if cycle.Pending[0].Role != models.RoleCostCritic {
		t.Errorf("pending role = %s, want cost_critic", cycle.Pending[0].Role)
	}
	if !cycle.Provisional {
		t.Error("cycle with pending delegated roles must be provisional")
	}
	if cycle.Consensus == nil {
		t.Fatal("consensus missing")
	}
	// Lone block among the settled verdicts.
	if cycle.Consensus.Decision != models.DecisionProceedWithChanges {
		t.Errorf("consensus decision = %s, want proceed_with_changes", cycle.Consensus.Decision)
	}
}

func TestRunner_Run_NoBackends(t *testing.T) {
	runner := NewRunner(testConfig(), fakePrompts{})
	cycle := runner.Run(context.Background(), models.ReviewInput{Task: "t", Changes: "c"})

	if len(cycle.Verdicts) != 0 {
		t.Errorf("expected no verdicts, got %d", len(cycle.Verdicts))
	}
	if len(cycle.Pending) != 3 {
		t.Errorf("expected 3 pending instructions, got %d", len(cycle.Pending))
	}
	if !cycle.Provisional {
		t.Error("fully delegated cycle must be provisional")
	}
	// Consensus over zero verdicts degrades rather than claiming confidence.
	if cycle.Consensus.Confidence != DegradedConfidence {
		t.Errorf("consensus confidence = %v, want %v", cycle.Consensus.Confidence, DegradedConfidence)
	}
}

func TestRecompute_ClearsProvisionalWhenPendingResolved(t *testing.T) {
	cycle := &models.ReviewCycle{
		Verdicts: []models.Verdict{
			completedVerdict(models.RoleFailureFinder, models.DecisionBlock, 0.9),
			completedVerdict(models.RoleStructureCritic, models.DecisionBlock, 0.8),
			completedVerdict(models.RoleCostCritic, models.DecisionProceed, 0.7),
		},
		Pending:     nil,
		Provisional: true,
	}

	consensus := Recompute(cycle)
	if consensus.Decision != models.DecisionBlock {
		t.Errorf("decision = %s, want block", consensus.Decision)
	}
	if cycle.Provisional {
		t.Error("cycle with no outstanding pending instructions must not stay provisional")
	}
	if cycle.Consensus == nil || cycle.Consensus.Decision != consensus.Decision {
		t.Error("recompute must store the consensus on the cycle")
	}
}

func TestRecompute_StaysProvisionalWithOutstandingPending(t *testing.T) {
	cycle := &models.ReviewCycle{
		Verdicts: []models.Verdict{
			completedVerdict(models.RoleFailureFinder, models.DecisionProceed, 0.8),
		},
		Pending: []models.PendingInstruction{
			{Role: models.RoleStructureCritic, BackendID: models.DelegatedBackendID},
		},
	}

	Recompute(cycle)
	if !cycle.Provisional {
		t.Error("cycle with outstanding pending instructions must stay provisional")
	}
}
