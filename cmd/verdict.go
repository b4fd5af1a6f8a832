package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/davharte/tribunal/internal/models"
	"github.com/davharte/tribunal/internal/panel"
)

var (
	verdictRole       string
	verdictDecision   string
	verdictConfidence float64
	verdictFindings   string
)

var verdictCmd = &cobra.Command{
	Use:   "verdict <cycle-id>",
	Short: "Submit a delegated verdict and recompute consensus",
	Long: `Submit the verdict for a delegated reviewer role. The cycle's
consensus is recomputed from the full verdict set; once no delegated
roles remain outstanding the consensus is no longer provisional.

Findings are passed as a JSON object via --findings, or piped on stdin
with --findings -.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return verdictRun(cmd, args[0])
	},
}

func init() {
	verdictCmd.Flags().StringVar(&verdictRole, "role", "", "Reviewer role: failure_finder, structure_critic, cost_critic (required)")
	verdictCmd.Flags().StringVar(&verdictDecision, "decision", "", "Decision: proceed, proceed_with_changes, block (required)")
	verdictCmd.Flags().Float64Var(&verdictConfidence, "confidence", panel.DefaultFieldConfidence, "Confidence between 0 and 1")
	verdictCmd.Flags().StringVar(&verdictFindings, "findings", "", "Findings as a JSON object ('-' reads stdin)")
	_ = verdictCmd.MarkFlagRequired("role")
	_ = verdictCmd.MarkFlagRequired("decision")

	rootCmd.AddCommand(verdictCmd)
}

func verdictRun(cmd *cobra.Command, cycleID string) error {
	role := models.ReviewerRole(verdictRole)
	if !role.Valid() {
		return fmt.Errorf("invalid role: %s (want failure_finder, structure_critic, or cost_critic)", verdictRole)
	}
	decision := models.Decision(verdictDecision)
	if !decision.Valid() {
		return fmt.Errorf("invalid decision: %s (want proceed, proceed_with_changes, or block)", verdictDecision)
	}
	if verdictConfidence < 0 || verdictConfidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1, got %g", verdictConfidence)
	}

	var findings map[string]any
	if verdictFindings != "" {
		raw := verdictFindings
		if raw == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read findings from stdin: %w", err)
			}
			raw = string(data)
		}
		if err := json.Unmarshal([]byte(raw), &findings); err != nil {
			return fmt.Errorf("findings is not a JSON object: %w", err)
		}
	}

	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would submit %s verdict %s for cycle %s", role, decision, cycleID)
		return nil
	}

	v := models.Verdict{
		Role:       role,
		BackendID:  models.DelegatedBackendID,
		Decision:   decision,
		Confidence: verdictConfidence,
		Findings:   findings,
		Status:     models.StatusCompleted,
	}
	if err := s.SubmitVerdict(cmd.Context(), cycleID, v); err != nil {
		return fmt.Errorf("submit verdict: %w", err)
	}

	cycle, err := s.GetCycle(cmd.Context(), cycleID)
	if err != nil {
		return fmt.Errorf("reload cycle: %w", err)
	}

	consensus := panel.Recompute(cycle)
	if err := s.UpdateConsensus(cmd.Context(), cycleID, consensus, cycle.Provisional); err != nil {
		return fmt.Errorf("update consensus: %w", err)
	}

	ui.Success("Verdict recorded for %s", role.DisplayName())
	ui.RenderConsensus(consensus, cycle.Provisional)
	return nil
}
