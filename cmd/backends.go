package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davharte/tribunal/internal/backend"
	"github.com/davharte/tribunal/internal/panel"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Show detected backends and role assignments",
	Long: `Show which external agent backends are available on this machine
and how the three reviewer roles would be assigned to them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return backendsRun()
	},
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}

func backendsRun() error {
	detected := backend.Detect()
	if len(detected) == 0 {
		ui.Warning("No external backends detected; all roles would be delegated")
	} else {
		ui.Info("Detected backends: %v", detected)
	}

	cfg := panel.LoadConfig(panel.Overrides{}, detected)
	fmt.Fprintln(ui.Out)
	ui.RenderAssignments(panel.Resolve(cfg.Backends))
	return nil
}
