package panel

import (
	"encoding/json"
	"strings"

	"github.com/davharte/tribunal/internal/models"
)

// Payload is the structured result of normalizing a backend's raw output.
// Decision and Confidence are always populated; Fields holds whatever
// else the backend emitted (role-specific findings lists, notes).
type Payload struct {
	Decision   models.Decision
	Confidence float64
	Fields     map[string]any
}

// Normalize parses raw backend output into a Payload with best-effort
// recovery. It tries, in order: the whole trimmed text as JSON (after
// stripping a single markdown code fence), the first balanced
// brace-delimited substring, and finally a synthesized fallback that
// keeps the raw text as a truncated note. It never fails.
func Normalize(raw string) Payload {
	text := stripFence(strings.TrimSpace(raw))

	if fields, ok := parseObject(text); ok {
		return extract(fields)
	}

	if sub := firstBalancedObject(text); sub != "" {
		if fields, ok := parseObject(sub); ok {
			return extract(fields)
		}
	}

	note := raw
	if len(note) > rawNoteLimit {
		note = note[:rawNoteLimit]
	}
	return Payload{
		Decision:   models.DecisionProceedWithChanges,
		Confidence: ProseFallbackConfidence,
		Fields: map[string]any{
			"decision":   string(models.DecisionProceedWithChanges),
			"confidence": ProseFallbackConfidence,
			"note":       note,
		},
	}
}

// parseObject unmarshals text into a JSON object. Arrays and scalars are
// rejected: the backend contract is a single object.
func parseObject(text string) (map[string]any, bool) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, false
	}
	if fields == nil {
		return nil, false
	}
	return fields, true
}

// extract pulls decision and confidence out of a parsed payload,
// substituting defaults for missing or wrong-typed fields.
func extract(fields map[string]any) Payload {
	p := Payload{
		Decision:   models.DecisionProceedWithChanges,
		Confidence: DefaultFieldConfidence,
		Fields:     fields,
	}

	if s, ok := fields["decision"].(string); ok {
		d := models.Decision(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
		if d.Valid() {
			p.Decision = d
		}
	}

	if f, ok := fields["confidence"].(float64); ok {
		p.Confidence = clamp01(f)
	}

	return p
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// stripFence removes a single leading/trailing markdown code fence, the
// way agent CLIs tend to wrap JSON even when told not to.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.SplitN(text, "\n", 2)
	if len(lines) < 2 {
		return text
	}
	text = lines[1]
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// firstBalancedObject returns the first balanced {...} substring of text,
// or "" if none exists. Braces inside JSON strings are not counted.
func firstBalancedObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}
