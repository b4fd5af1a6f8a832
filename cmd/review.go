package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/davharte/tribunal/internal/backend"
	"github.com/davharte/tribunal/internal/models"
	"github.com/davharte/tribunal/internal/output"
	"github.com/davharte/tribunal/internal/panel"
	"github.com/davharte/tribunal/internal/prompt"
)

var (
	reviewTask     string
	reviewChanges  string
	reviewFiles    []string
	reviewContext  []string
	reviewSeverity string
	reviewMode     string
	reviewTimeout  time.Duration
	reviewBackends []string
	reviewJSON     bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run a review cycle over a proposed change",
	Long: `Run one review cycle: detect available agent backends, assign the
three reviewer roles, invoke every external backend concurrently, and
merge the verdicts into a consensus decision.

Roles with no available backend are delegated: the command prints their
prompts and the cycle stays provisional until their verdicts are
submitted with 'tribunal verdict'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewRun(cmd)
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewTask, "task", "", "What the change is trying to accomplish (required)")
	reviewCmd.Flags().StringVar(&reviewChanges, "changes", "", "Description of the proposed changes (required)")
	reviewCmd.Flags().StringArrayVar(&reviewFiles, "file", nil, "Affected file path (repeatable)")
	reviewCmd.Flags().StringArrayVar(&reviewContext, "context", nil, "Additional context file path (repeatable)")
	reviewCmd.Flags().StringVar(&reviewSeverity, "severity", string(models.SeverityMedium), "Change severity: low, medium, high, critical")
	reviewCmd.Flags().StringVar(&reviewMode, "mode", string(models.ExecAdvisory), "Execution mode: advisory or blocking")
	reviewCmd.Flags().DurationVar(&reviewTimeout, "timeout", 0, "Per-backend timeout (default from config, 2m)")
	reviewCmd.Flags().StringSliceVar(&reviewBackends, "backends", nil, "Override backend detection (e.g. claude,codex)")
	reviewCmd.Flags().BoolVar(&reviewJSON, "json", false, "Emit the cycle as JSON instead of tables")
	_ = reviewCmd.MarkFlagRequired("task")
	_ = reviewCmd.MarkFlagRequired("changes")

	rootCmd.AddCommand(reviewCmd)
}

func reviewRun(cmd *cobra.Command) error {
	input := models.ReviewInput{
		Task:         reviewTask,
		Changes:      reviewChanges,
		Files:        reviewFiles,
		ContextFiles: reviewContext,
		Severity:     models.Severity(reviewSeverity),
		Mode:         models.ExecutionMode(reviewMode),
	}
	if !input.Severity.Valid() {
		return fmt.Errorf("invalid severity: %s (want low, medium, high, or critical)", reviewSeverity)
	}

	detected := backend.Detect()
	cfg := panel.LoadConfig(panel.Overrides{
		Timeout:  reviewTimeout,
		Backends: reviewBackends,
	}, detected)

	ui.VerboseLog("detected backends: %v", detected)
	ui.VerboseLog("using backends: %v, timeout %s", cfg.Backends, cfg.Timeout)

	if dryRun {
		ui.DryRunMsg("Would run review cycle with backends %v", cfg.Backends)
		ui.RenderAssignments(panel.Resolve(cfg.Backends))
		return nil
	}

	runner := panel.NewRunner(cfg, prompt.NewBuilder(), cmdBackends(cfg)...)
	cycle := runner.Run(cmd.Context(), input)

	s, err := getStore()
	if err != nil {
		return err
	}
	if err := s.CreateCycle(cmd.Context(), cycle); err != nil {
		return fmt.Errorf("persist cycle: %w", err)
	}

	// Report writing is best-effort: the consensus stands even if the
	// report file cannot be written.
	if path, err := output.WriteReport(viper.GetString("report_dir"), cycle); err != nil {
		ui.Warning("could not write report: %v", err)
	} else {
		ui.VerboseLog("report written: %s", path)
	}

	if reviewJSON {
		data, err := json.MarshalIndent(cycle, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal cycle: %w", err)
		}
		fmt.Fprintln(ui.Out, string(data))
		return nil
	}

	ui.Success("Cycle %s", cycle.ID)
	ui.RenderCycle(cycle)
	return nil
}

// cmdBackends builds panel backends for the configured identifiers.
func cmdBackends(cfg panel.Config) []panel.Backend {
	bs := backend.ForIDs(cfg.Backends, cfg.AllowedTools)
	out := make([]panel.Backend, len(bs))
	for i, b := range bs {
		out[i] = b
	}
	return out
}
