package panel

import "github.com/davharte/tribunal/internal/models"

// externalPriority is the fixed preference order among external backend
// kinds. The direct API backend ranks last: the CLIs bring their own tool
// access, which the failure-finder role benefits from most.
var externalPriority = []string{"claude", "codex", "anthropic"}

// Resolve assigns each reviewer role to a backend, deterministically.
// Given the set of available external backend identifiers it applies a
// fixed cascade:
//
//   - two or more distinct external kinds: the two highest-priority roles
//     each get one external backend, the remaining role is delegated
//   - exactly one: only the failure-finder gets it, the rest are delegated
//   - none: every role is delegated
//
// Same availability set always yields the same assignment set.
func Resolve(available []string) []models.Assignment {
	ranked := rankBackends(available)
	if len(ranked) > 2 {
		ranked = ranked[:2]
	}

	roles := models.Roles()
	assignments := make([]models.Assignment, 0, len(roles))
	for i, role := range roles {
		if i < len(ranked) {
			assignments = append(assignments, models.Assignment{
				Role:      role,
				Kind:      models.BackendExternal,
				BackendID: ranked[i],
				Mode:      modeFor(ranked[i]),
			})
			continue
		}
		assignments = append(assignments, models.Assignment{
			Role:      role,
			Kind:      models.BackendDelegated,
			BackendID: models.DelegatedBackendID,
			Mode:      models.ModeTask,
		})
	}
	return assignments
}

// rankBackends orders the availability set by external priority,
// deduplicated. Identifiers outside the known priority list keep their
// input order after the known ones, so resolution stays deterministic
// even for backends this build does not know about.
func rankBackends(available []string) []string {
	seen := make(map[string]bool, len(available))
	avail := make(map[string]bool, len(available))
	for _, id := range available {
		avail[id] = true
	}

	var ranked []string
	for _, id := range externalPriority {
		if avail[id] && !seen[id] {
			ranked = append(ranked, id)
			seen[id] = true
		}
	}
	for _, id := range available {
		if !seen[id] {
			ranked = append(ranked, id)
			seen[id] = true
		}
	}
	return ranked
}

// modeFor maps a backend identifier to its invocation mode.
func modeFor(id string) models.InvocationMode {
	if id == "anthropic" {
		return models.ModeAPI
	}
	return models.ModeExec
}
