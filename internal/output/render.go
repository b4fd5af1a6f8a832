package output

import (
	"fmt"
	"time"

	"github.com/davharte/tribunal/internal/models"
)

// RenderCycle prints the verdict table, consensus, and any pending
// instructions for a review cycle.
func (u *UI) RenderCycle(c *models.ReviewCycle) {
	u.RenderVerdicts(c.Verdicts)

	if c.Consensus != nil {
		fmt.Fprintln(u.Out)
		u.RenderConsensus(*c.Consensus, c.Provisional)
	}

	if len(c.Pending) > 0 {
		fmt.Fprintln(u.Out)
		u.Warning("%d delegated role(s) outstanding, submit their verdicts with 'tribunal verdict %s'", len(c.Pending), c.ID)
		for _, p := range c.Pending {
			u.VerboseLog("pending: %s (%s)", p.Role.DisplayName(), p.BackendID)
		}
	}
}

// RenderVerdicts prints one row per verdict.
func (u *UI) RenderVerdicts(verdicts []models.Verdict) {
	if len(verdicts) == 0 {
		u.Info("No verdicts recorded")
		return
	}

	table := u.Table([]string{"ROLE", "BACKEND", "DECISION", "CONFIDENCE", "STATUS", "DURATION"})
	for _, v := range verdicts {
		_ = table.Append([]string{
			v.Role.DisplayName(),
			v.BackendID,
			DecisionColor(string(v.Decision)),
			fmt.Sprintf("%.2f", v.Confidence),
			StatusColor(string(v.Status)),
			v.Duration.Round(100 * time.Millisecond).String(),
		})
	}
	_ = table.Render()

	for _, v := range verdicts {
		if v.Error != "" {
			u.Warning("%s: %s", v.Role.DisplayName(), v.Error)
		}
	}
}

// RenderConsensus prints the merged decision with its issue and
// recommendation lists.
func (u *UI) RenderConsensus(c models.Consensus, provisional bool) {
	label := "Consensus"
	if provisional {
		label = "Provisional consensus"
	}
	fmt.Fprintf(u.Out, "%s: %s (confidence %.2f)\n", label, DecisionColor(string(c.Decision)), c.Confidence)

	if len(c.Issues) > 0 {
		fmt.Fprintln(u.Out)
		fmt.Fprintln(u.Out, "Issues:")
		for _, issue := range c.Issues {
			fmt.Fprintf(u.Out, "  - %s\n", issue)
		}
	}
	if len(c.Recommendations) > 0 {
		fmt.Fprintln(u.Out)
		fmt.Fprintln(u.Out, "Recommendations:")
		for _, rec := range c.Recommendations {
			fmt.Fprintf(u.Out, "  - %s\n", rec)
		}
	}
}

// RenderAssignments prints the role/backend table for a resolved
// assignment set.
func (u *UI) RenderAssignments(assignments []models.Assignment) {
	table := u.Table([]string{"ROLE", "KIND", "BACKEND", "MODE"})
	for _, a := range assignments {
		kind := string(a.Kind)
		if a.Kind == models.BackendDelegated {
			kind = Yellow(kind)
		} else {
			kind = Green(kind)
		}
		_ = table.Append([]string{a.Role.DisplayName(), kind, a.BackendID, string(a.Mode)})
	}
	_ = table.Render()
}
