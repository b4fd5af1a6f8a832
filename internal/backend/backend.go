package backend

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
)

// Backend executes one review prompt and returns raw textual output.
type Backend interface {
	ID() string
	Review(ctx context.Context, prompt string) (string, error)
}

// New returns the backend implementation for an identifier. The allowed
// tools are passed to CLI backends that support capability restriction.
func New(id string, allowedTools []string) (Backend, error) {
	switch id {
	case "claude":
		return NewClaude(viper.GetString("backend.claude.model"), allowedTools), nil
	case "codex":
		return NewCodex(viper.GetString("backend.codex.model")), nil
	case "anthropic":
		return NewAnthropic(viper.GetString("anthropic.api_key"), viper.GetString("anthropic.model")), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", id)
	}
}

// ForIDs builds backends for every identifier, skipping unknown ones.
func ForIDs(ids []string, allowedTools []string) []Backend {
	var out []Backend
	for _, id := range ids {
		b, err := New(id, allowedTools)
		if err != nil {
			continue
		}
		out = append(out, b)
	}
	return out
}
