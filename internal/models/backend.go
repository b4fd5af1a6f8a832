package models

// BackendKind distinguishes backends the invoker runs itself from the
// delegated backend executed by the host out of process.
type BackendKind string

const (
	BackendExternal  BackendKind = "external"
	BackendDelegated BackendKind = "delegated"
)

// InvocationMode describes how an external backend is driven.
type InvocationMode string

const (
	ModeExec InvocationMode = "exec" // subprocess CLI call
	ModeAPI  InvocationMode = "api"  // direct HTTP API call
	ModeTask InvocationMode = "task" // delegated host task
)

// Assignment binds one reviewer role to one backend for a single review
// cycle. Created once by the resolver and read-only thereafter.
type Assignment struct {
	Role      ReviewerRole   `json:"role"`
	Kind      BackendKind    `json:"kind"`
	BackendID string         `json:"backend_id"`
	Mode      InvocationMode `json:"mode"`
}

// DelegatedBackendID is the identifier used for assignments the host
// executes itself.
const DelegatedBackendID = "delegated"
