package prompt

import (
	"fmt"
	"strings"

	"github.com/davharte/tribunal/internal/models"
	"github.com/davharte/tribunal/internal/panel"
)

// Builder constructs role prompts. It owns the wording; the panel only
// cares that the task, changes, files, and context substitution points
// all appear in the result.
type Builder struct{}

// NewBuilder creates a prompt builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// roleFraming is the adversarial stance each reviewer takes.
var roleFraming = map[models.ReviewerRole]string{
	models.RoleFailureFinder: "You are the Failure Finder on an adversarial code review panel. " +
		"Your single job is to find how this change breaks: failure modes, unhandled edge cases, " +
		"race conditions, regressions, and security holes. Assume the author was optimistic. " +
		"Do not praise the change.",
	models.RoleStructureCritic: "You are the Structure Critic on an adversarial code review panel. " +
		"Your single job is to challenge the design of this change: wrong abstractions, misplaced " +
		"responsibilities, coupling, naming, and deviations from the surrounding architecture. " +
		"Do not comment on whether the change works.",
	models.RoleCostCritic: "You are the Cost Critic on an adversarial code review panel. " +
		"Your single job is to question whether this change is worth it: unnecessary complexity, " +
		"scope creep, maintenance burden, and simpler alternatives that achieve the same goal.",
}

// RolePrompt returns the full prompt for a role: the adversarial framing
// followed by the review input. This is the variant handed to delegated
// executors, which emit structured output under their own system
// instructions.
func (b *Builder) RolePrompt(role models.ReviewerRole, in models.ReviewInput) string {
	var sb strings.Builder

	sb.WriteString(roleFraming[role])
	sb.WriteString("\n\n")

	sb.WriteString("## Task\n")
	sb.WriteString(in.Task)
	sb.WriteString("\n\n")

	sb.WriteString("## Proposed Changes\n")
	sb.WriteString(in.Changes)
	sb.WriteString("\n\n")

	if len(in.Files) > 0 {
		sb.WriteString("## Affected Files\n")
		for _, f := range in.Files {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
		sb.WriteString("\n")
	}

	if len(in.ContextFiles) > 0 {
		sb.WriteString("## Context Files\n")
		for _, f := range in.ContextFiles {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "## Review Parameters\n- Severity: %s\n- Mode: %s\n", in.Severity, in.Mode)

	return sb.String()
}

// StructuredRolePrompt returns the role prompt with the JSON-only output
// contract appended, for direct backend invocation.
func (b *Builder) StructuredRolePrompt(role models.ReviewerRole, in models.ReviewInput) string {
	return b.RolePrompt(role, in) + "\n\n" + jsonInstruction(role)
}

// jsonInstruction spells out the wire contract: a single JSON object with
// decision, confidence, and the role's own findings lists.
func jsonInstruction(role models.ReviewerRole) string {
	shape := panel.ShapeFor(role)

	var sb strings.Builder
	sb.WriteString("## Output Format\n")
	sb.WriteString("Respond with ONLY a single JSON object, no markdown fencing, no prose. Fields:\n")
	sb.WriteString(`- "decision": one of "proceed", "proceed_with_changes", "block"` + "\n")
	sb.WriteString(`- "confidence": a number between 0 and 1` + "\n")
	for _, f := range shape.IssueFields {
		fmt.Fprintf(&sb, "- %q: array of findings, each a string or an object with \"title\" and \"description\"\n", f)
	}
	for _, f := range shape.RecommendationFields {
		fmt.Fprintf(&sb, "- %q: array of recommendations, each a string or an object with \"title\" and \"description\"\n", f)
	}
	return sb.String()
}
