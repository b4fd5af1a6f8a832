package backend

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Claude runs reviews through the Claude Code CLI in non-interactive
// print mode.
type Claude struct {
	Model        string
	AllowedTools []string
}

// NewClaude creates a Claude CLI backend. An empty model uses the CLI's
// configured default.
func NewClaude(model string, allowedTools []string) *Claude {
	return &Claude{Model: model, AllowedTools: allowedTools}
}

// ID returns the backend identifier.
func (c *Claude) ID() string { return "claude" }

// buildArgs returns the CLI arguments for a single review call.
func (c *Claude) buildArgs(prompt string) []string {
	args := []string{"-p", "--output-format", "text"}
	if c.Model != "" {
		args = append(args, "--model", c.Model)
	}
	for _, tool := range c.AllowedTools {
		args = append(args, "--allowedTools", tool)
	}
	args = append(args, prompt)
	return args
}

// Review invokes the claude CLI and returns its stdout. The context
// deadline kills the subprocess; the caller distinguishes timeout from
// other failures via the context.
func (c *Claude) Review(ctx context.Context, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, "claude", c.buildArgs(prompt)...)

	// No controlling terminal: suppresses the CLI's interactive TTY hints
	// so stdout stays parseable.
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("claude execution failed: %w (stderr: %s)", err, stderr.String())
	}
	return stdout.String(), nil
}
