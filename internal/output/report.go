package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davharte/tribunal/internal/models"
)

// WriteReport renders a cycle as a markdown report under dir and returns
// the file path. Written once, after all invocations have settled; the
// panel core does not depend on its success.
func WriteReport(dir string, c *models.ReviewCycle) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("review-%s.md", c.ID))
	if err := os.WriteFile(path, []byte(renderMarkdown(c)), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func renderMarkdown(c *models.ReviewCycle) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Review %s\n\n", c.ID)
	fmt.Fprintf(&b, "- Task: %s\n", c.Input.Task)
	fmt.Fprintf(&b, "- Severity: %s\n", c.Input.Severity)
	fmt.Fprintf(&b, "- Mode: %s\n", c.Input.Mode)
	fmt.Fprintf(&b, "- Created: %s\n\n", c.CreatedAt.Format("2006-01-02 15:04:05 MST"))

	if c.Consensus != nil {
		heading := "Consensus"
		if c.Provisional {
			heading = "Provisional Consensus"
		}
		fmt.Fprintf(&b, "## %s\n\n", heading)
		fmt.Fprintf(&b, "**%s** (confidence %.2f)\n\n", c.Consensus.Decision, c.Consensus.Confidence)

		if len(c.Consensus.Issues) > 0 {
			b.WriteString("### Issues\n\n")
			for _, issue := range c.Consensus.Issues {
				fmt.Fprintf(&b, "- %s\n", issue)
			}
			b.WriteString("\n")
		}
		if len(c.Consensus.Recommendations) > 0 {
			b.WriteString("### Recommendations\n\n")
			for _, rec := range c.Consensus.Recommendations {
				fmt.Fprintf(&b, "- %s\n", rec)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Verdicts\n\n")
	b.WriteString("| Role | Backend | Decision | Confidence | Status |\n")
	b.WriteString("|------|---------|----------|------------|--------|\n")
	for _, v := range c.Verdicts {
		fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %s |\n",
			v.Role.DisplayName(), v.BackendID, v.Decision, v.Confidence, v.Status)
	}
	b.WriteString("\n")

	for _, v := range c.Verdicts {
		if v.Error != "" {
			fmt.Fprintf(&b, "> %s: %s\n", v.Role.DisplayName(), v.Error)
		}
	}

	if len(c.Pending) > 0 {
		b.WriteString("## Pending Delegated Roles\n\n")
		for _, p := range c.Pending {
			fmt.Fprintf(&b, "- %s (%s)\n", p.Role.DisplayName(), p.BackendID)
		}
	}

	return b.String()
}
