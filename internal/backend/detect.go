package backend

import (
	"os"
	"os/exec"

	"github.com/spf13/viper"
)

// lookPath is replaceable in tests.
var lookPath = exec.LookPath

// Detect returns the available external backend identifiers in priority
// order: agent CLIs found on PATH first, then the direct API backend when
// a key is configured.
func Detect() []string {
	var out []string
	if _, err := lookPath("claude"); err == nil {
		out = append(out, "claude")
	}
	if _, err := lookPath("codex"); err == nil {
		out = append(out, "codex")
	}
	if viper.GetString("anthropic.api_key") != "" || os.Getenv("ANTHROPIC_API_KEY") != "" {
		out = append(out, "anthropic")
	}
	return out
}
