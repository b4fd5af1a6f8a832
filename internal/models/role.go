package models

// ReviewerRole is one of the fixed adversarial review perspectives.
// Roles are identities, not runtime objects: they are never created or
// destroyed, only referenced by assignments and verdicts.
type ReviewerRole string

const (
	// RoleFailureFinder hunts for failure modes, edge cases, and regressions.
	RoleFailureFinder ReviewerRole = "failure_finder"

	// RoleStructureCritic challenges the design and structure of the change.
	RoleStructureCritic ReviewerRole = "structure_critic"

	// RoleCostCritic questions complexity, scope, and maintenance cost.
	RoleCostCritic ReviewerRole = "cost_critic"
)

// Roles returns all reviewer roles in fixed priority order. The
// failure-finder comes first: it benefits most from independent tool
// access and always receives an external backend when one is available.
func Roles() []ReviewerRole {
	return []ReviewerRole{RoleFailureFinder, RoleStructureCritic, RoleCostCritic}
}

// DisplayName returns a human-readable name for the role.
func (r ReviewerRole) DisplayName() string {
	switch r {
	case RoleFailureFinder:
		return "Failure Finder"
	case RoleStructureCritic:
		return "Structure Critic"
	case RoleCostCritic:
		return "Cost Critic"
	default:
		return string(r)
	}
}

// Valid reports whether r is one of the fixed roles.
func (r ReviewerRole) Valid() bool {
	switch r {
	case RoleFailureFinder, RoleStructureCritic, RoleCostCritic:
		return true
	}
	return false
}
