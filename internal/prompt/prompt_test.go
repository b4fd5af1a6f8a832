package prompt

import (
	"strings"
	"testing"

	"github.com/davharte/tribunal/internal/models"
	"github.com/davharte/tribunal/internal/panel"
)

func sampleInput() models.ReviewInput {
	return models.ReviewInput{
		Task:         "add retry logic to the uploader",
		Changes:      "wrap the PUT call in a backoff loop",
		Files:        []string{"internal/upload/client.go"},
		ContextFiles: []string{"docs/retries.md"},
		Severity:     models.SeverityHigh,
		Mode:         models.ExecBlocking,
	}
}

func TestRolePrompt_ContainsInput(t *testing.T) {
	b := NewBuilder()
	in := sampleInput()

	for _, role := range models.Roles() {
		p := b.RolePrompt(role, in)
		for _, want := range []string{
			in.Task,
			in.Changes,
			"internal/upload/client.go",
			"docs/retries.md",
			"Severity: high",
			"Mode: blocking",
		} {
			if !strings.Contains(p, want) {
				t.Errorf("role %s: prompt missing %q", role, want)
			}
		}
	}
}

func TestRolePrompt_DistinctFramingPerRole(t *testing.T) {
	b := NewBuilder()
	in := sampleInput()

	seen := make(map[string]models.ReviewerRole)
	for _, role := range models.Roles() {
		framing := strings.SplitN(b.RolePrompt(role, in), "\n", 2)[0]
		if prev, dup := seen[framing]; dup {
			t.Errorf("roles %s and %s share framing", prev, role)
		}
		seen[framing] = role
	}
}

func TestRolePrompt_OmitsEmptySections(t *testing.T) {
	b := NewBuilder()
	in := models.ReviewInput{Task: "t", Changes: "c", Severity: models.SeverityLow, Mode: models.ExecAdvisory}

	p := b.RolePrompt(models.RoleFailureFinder, in)
	if strings.Contains(p, "## Affected Files") {
		t.Error("prompt should omit the files section when no files are given")
	}
	if strings.Contains(p, "## Context Files") {
		t.Error("prompt should omit the context section when no context files are given")
	}
}

func TestStructuredRolePrompt_NamesRoleFields(t *testing.T) {
	b := NewBuilder()
	in := sampleInput()

	for _, role := range models.Roles() {
		p := b.StructuredRolePrompt(role, in)
		if !strings.Contains(p, "## Output Format") {
			t.Fatalf("role %s: structured prompt missing output contract", role)
		}
		shape := panel.ShapeFor(role)
		for _, f := range append(shape.IssueFields, shape.RecommendationFields...) {
			if !strings.Contains(p, `"`+f+`"`) {
				t.Errorf("role %s: structured prompt does not name field %q", role, f)
			}
		}
	}
}

func TestRolePrompt_NoOutputContract(t *testing.T) {
	b := NewBuilder()
	p := b.RolePrompt(models.RoleCostCritic, sampleInput())
	// The delegated variant leaves output formatting to the executor.
	if strings.Contains(p, "## Output Format") {
		t.Error("plain role prompt must not carry the JSON output contract")
	}
}
