package panel

import "github.com/davharte/tribunal/internal/models"

// BuildPendingInstructions maps the delegated assignments to
// self-contained instruction packages for out-of-process execution by the
// host. Pure: no I/O, no failure mode. The prompt omits the JSON-only
// suffix: the delegated executor already emits structured output under
// its own system instructions. The capability set is read-only
// inspection only.
func BuildPendingInstructions(assignments []models.Assignment, input models.ReviewInput, prompts PromptBuilder, tools []string) []models.PendingInstruction {
	var pending []models.PendingInstruction
	for _, a := range assignments {
		if a.Kind != models.BackendDelegated {
			continue
		}
		pending = append(pending, models.PendingInstruction{
			Role:         a.Role,
			BackendID:    a.BackendID,
			Prompt:       prompts.RolePrompt(a.Role, input),
			AllowedTools: append([]string(nil), tools...),
		})
	}
	return pending
}
