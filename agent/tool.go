package agent

import "context"

// Backend is a generic pluggable call-out seam for an agent that talks to an
// external system. None of the bundled agents uses it: the web-search agent
// has its own websearch.Backend with a Search method.
//
// Implementations should validate their own input, respect ctx
// cancellation, and return a descriptive error rather than panic.
type Backend interface {
	// Name identifies the backend, surfaced in NodeResult metadata for
	// diagnostics.
	Name() string
	// Call executes one request against the backend.
	Call(ctx context.Context, input map[string]any) (map[string]any, error)
}
