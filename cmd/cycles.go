package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davharte/tribunal/internal/output"
)

var (
	cyclesLimit int
	cyclesJSON  bool
)

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "List stored review cycles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cyclesListRun(cmd)
	},
}

var cyclesShowCmd = &cobra.Command{
	Use:   "show <cycle-id>",
	Short: "Show one cycle with verdicts and consensus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cyclesShowRun(cmd, args[0])
	},
}

func init() {
	cyclesCmd.Flags().IntVar(&cyclesLimit, "limit", 20, "Maximum number of cycles to list")
	cyclesShowCmd.Flags().BoolVar(&cyclesJSON, "json", false, "Emit the cycle as JSON")
	cyclesCmd.AddCommand(cyclesShowCmd)
	rootCmd.AddCommand(cyclesCmd)
}

func cyclesListRun(cmd *cobra.Command) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	cycles, err := s.ListCycles(cmd.Context(), cyclesLimit)
	if err != nil {
		return fmt.Errorf("list cycles: %w", err)
	}
	if len(cycles) == 0 {
		ui.Info("No review cycles recorded yet")
		return nil
	}

	table := ui.Table([]string{"ID", "TASK", "DECISION", "CONFIDENCE", "PROVISIONAL", "CREATED"})
	for _, c := range cycles {
		decision, confidence := "-", "-"
		if c.Consensus != nil {
			decision = output.DecisionColor(string(c.Consensus.Decision))
			confidence = fmt.Sprintf("%.2f", c.Consensus.Confidence)
		}
		provisional := ""
		if c.Provisional {
			provisional = output.Yellow("yes")
		}
		task := c.Input.Task
		if len(task) > 48 {
			task = task[:45] + "..."
		}
		_ = table.Append([]string{c.ID, task, decision, confidence, provisional, c.CreatedAt.Format("2006-01-02 15:04")})
	}
	_ = table.Render()
	return nil
}

func cyclesShowRun(cmd *cobra.Command, id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	cycle, err := s.GetCycle(cmd.Context(), id)
	if err != nil {
		return err
	}

	if cyclesJSON {
		data, err := json.MarshalIndent(cycle, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal cycle: %w", err)
		}
		fmt.Fprintln(ui.Out, string(data))
		return nil
	}

	ui.Info("Cycle %s (%s)", cycle.ID, cycle.CreatedAt.Format("2006-01-02 15:04"))
	ui.Info("Task: %s", cycle.Input.Task)
	fmt.Fprintln(ui.Out)
	ui.RenderAssignments(cycle.Assignments)
	fmt.Fprintln(ui.Out)
	ui.RenderCycle(cycle)
	return nil
}
