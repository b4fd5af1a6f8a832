package panel

import (
	"fmt"
	"strings"

	"github.com/davharte/tribunal/internal/models"
)

// FindingsShape names the list-shaped fields a role's structured output
// carries. Each role emits differently named findings lists; the shape
// table makes the mapping exhaustive instead of probing payloads with ad
// hoc string keys.
type FindingsShape struct {
	IssueFields          []string
	RecommendationFields []string
}

var findingsShapes = map[models.ReviewerRole]FindingsShape{
	models.RoleFailureFinder: {
		IssueFields:          []string{"failure_modes", "risks"},
		RecommendationFields: []string{"mitigations"},
	},
	models.RoleStructureCritic: {
		IssueFields:          []string{"design_issues"},
		RecommendationFields: []string{"suggestions"},
	},
	models.RoleCostCritic: {
		IssueFields:          []string{"cost_concerns"},
		RecommendationFields: []string{"simplifications"},
	},
}

// ShapeFor returns the findings shape for a role. Unknown roles get an
// empty shape: their payloads contribute nothing, silently.
func ShapeFor(role models.ReviewerRole) FindingsShape {
	return findingsShapes[role]
}

// extractList flattens the values under the given fields of a payload
// into human-readable strings. Items may be plain strings or objects
// carrying a title and/or description; anything else is skipped.
func extractList(fields map[string]any, keys []string) []string {
	var out []string
	for _, key := range keys {
		list, ok := fields[key].([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			if s := flattenItem(item); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// flattenItem renders one findings entry as a string, or "" if the entry
// has no usable shape.
func flattenItem(item any) string {
	switch v := item.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		title, _ := v["title"].(string)
		desc, _ := v["description"].(string)
		title = strings.TrimSpace(title)
		desc = strings.TrimSpace(desc)
		switch {
		case title != "" && desc != "":
			return fmt.Sprintf("%s: %s", title, desc)
		case title != "":
			return title
		case desc != "":
			return desc
		}
	}
	return ""
}

// dedupe removes exact duplicates while preserving first-seen order.
func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
