package backend

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Codex runs reviews through the Codex CLI in non-interactive exec mode
// with a read-only sandbox.
type Codex struct {
	Model string
}

// NewCodex creates a Codex CLI backend.
func NewCodex(model string) *Codex {
	return &Codex{Model: model}
}

// ID returns the backend identifier.
func (c *Codex) ID() string { return "codex" }

// buildArgs returns the CLI arguments for a single review call.
func (c *Codex) buildArgs(prompt string) []string {
	args := []string{"exec", "--sandbox", "read-only", "--skip-git-repo-check"}
	if c.Model != "" {
		args = append(args, "--model", c.Model)
	}
	args = append(args, prompt)
	return args
}

// Review invokes the codex CLI and returns its stdout.
func (c *Codex) Review(ctx context.Context, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, "codex", c.buildArgs(prompt)...)
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("codex execution failed: %w (stderr: %s)", err, stderr.String())
	}
	return stdout.String(), nil
}
