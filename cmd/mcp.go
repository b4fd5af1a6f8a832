package cmd

import (
	"github.com/spf13/cobra"

	"github.com/davharte/tribunal/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets an agent host convene the review panel natively. Configure in
Claude Code with:

  {
    "mcpServers": {
      "tribunal": { "command": "tribunal", "args": ["mcp"] }
    }
  }

Available tools: tribunal_review, tribunal_submit_verdict,
tribunal_get_cycle`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		srv := mcp.NewServer(s)
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
