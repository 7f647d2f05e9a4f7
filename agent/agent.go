// Package agent defines the uniform contract every workflow node dispatches
// through, plus the shared Result and Context types the execution driver
// exchanges with the six agent kinds.
package agent

import "context"

// Context is the mapping of upstream outputs presented to a node: the
// reserved key "input" (see the assemble package) plus one entry per
// upstream edge, keyed by the source node's id.
type Context map[string]any

// Result is what an agent reports back to the driver after Run returns.
// It never carries a Go error — every failure mode an agent can hit is
// folded into Success/Output so the driver has one uniform path for
// recording a NodeResult.
type Result struct {
	// Success drives the completed/failed status the driver assigns.
	Success bool
	// Output is agent-specific: a string, a mapping, or any other
	// structured value the agent produces.
	Output any
	// TokensUsed is non-zero only for agents that consume a token budget.
	TokensUsed int
	// CostUSD is non-zero only for agents that consume metered resources.
	CostUSD float64
	// Metadata carries diagnostics: status codes, model names, stdout, the
	// branch a conditional took, and so on.
	Metadata map[string]any
}

// Failure builds a Result reporting failure with msg as the human-readable
// output, the shape every agent implementation should return for an
// internal error instead of propagating a Go error.
func Failure(msg string) Result {
	return Result{Success: false, Output: msg}
}

// Agent is the uniform contract every node dispatches to: build output from
// a free-text objective and the context assembled from upstream nodes.
//
// Implementations must not panic or return outside this call — any internal
// failure (a transport error, a malformed config value, a panic recovered
// internally) must surface as Result{Success: false}. The driver recovers a
// panic escaping Run as a last resort, but well-behaved agents never rely on
// that backstop.
type Agent interface {
	Run(ctx context.Context, objective string, agentCtx Context) Result
}

// Constructor builds an Agent from a node's merged configuration.
type Constructor func(config map[string]any) (Agent, error)
