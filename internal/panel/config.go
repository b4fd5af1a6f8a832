package panel

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Fixed confidence constants used across the panel. These are part of the
// audit contract: a caller can always tell a real confidence from a
// synthesized one.
const (
	// FallbackConfidence is assigned to verdicts synthesized for timed-out
	// or errored invocations.
	FallbackConfidence = 0.3

	// ProseFallbackConfidence is assigned when a backend's output could not
	// be parsed as JSON at all and the raw text is kept as a note.
	ProseFallbackConfidence = 0.4

	// DefaultFieldConfidence substitutes for a missing or mistyped
	// confidence field in an otherwise parseable payload.
	DefaultFieldConfidence = 0.5

	// DegradedConfidence is the consensus confidence when zero verdicts
	// completed.
	DegradedConfidence = 0.2
)

// Weights for the consensus confidence mean.
const (
	completedWeight = 1.0
	failedWeight    = 0.3
)

// rawNoteLimit caps how much raw backend output is embedded in a
// prose-fallback payload.
const rawNoteLimit = 500

// DefaultTimeout is the per-invocation wall-clock budget.
const DefaultTimeout = 120 * time.Second

// DefaultAllowedTools is the read-only capability set granted to delegated
// review tasks. Delegated reviewers inspect, never mutate.
var DefaultAllowedTools = []string{"Read", "Glob", "Grep"}

// Config is the explicit configuration value passed into the resolver,
// invoker, and consensus engine. It is constructed once per cycle; there
// is no lazily built global state.
type Config struct {
	Timeout      time.Duration
	Backends     []string // external backend identifiers, priority order
	AllowedTools []string
}

// Overrides carries call-time configuration that takes precedence over
// persisted and default values.
type Overrides struct {
	Timeout  time.Duration
	Backends []string
}

// LoadConfig merges configuration in fixed precedence order: call-time
// overrides > persisted viper values > defaults > detected environment.
// The detected list is the availability set supplied by backend detection.
func LoadConfig(ov Overrides, detected []string) Config {
	cfg := Config{
		Timeout:      DefaultTimeout,
		Backends:     detected,
		AllowedTools: DefaultAllowedTools,
	}

	if t := viper.GetDuration("panel.timeout"); t > 0 {
		cfg.Timeout = t
	}
	if raw := viper.GetString("panel.backends"); raw != "" {
		cfg.Backends = splitList(raw)
	}
	if raw := viper.GetString("panel.allowed_tools"); raw != "" {
		cfg.AllowedTools = splitList(raw)
	}

	if ov.Timeout > 0 {
		cfg.Timeout = ov.Timeout
	}
	if ov.Backends != nil {
		cfg.Backends = ov.Backends
	}

	return cfg
}

// splitList splits a space-separated config value, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, " ") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
