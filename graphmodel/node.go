// Package graphmodel provides the typed representation of a workflow graph:
// nodes, edges, and the validation that guarantees a graph is safe to
// schedule.
package graphmodel

// AgentKind tags which of the six agent implementations a node dispatches
// to.
type AgentKind string

// The six agent kinds the engine knows how to dispatch.
const (
	KindLLM         AgentKind = "llm"
	KindWebSearch   AgentKind = "web_search"
	KindHTTP        AgentKind = "http"
	KindCodeExec    AgentKind = "code_exec"
	KindTransform   AgentKind = "transform"
	KindConditional AgentKind = "conditional"
)

// Valid reports whether k is one of the six known agent kinds.
func (k AgentKind) Valid() bool {
	switch k {
	case KindLLM, KindWebSearch, KindHTTP, KindCodeExec, KindTransform, KindConditional:
		return true
	}
	return false
}

// DefaultAgentKind is the agent kind assumed when neither the node nor its
// external definition names one.
const DefaultAgentKind = KindLLM

// Node represents one computation in the workflow graph.
//
// AgentKind may be left empty when AgentDefID is set: the engine resolves
// the agent kind from the external definition store if the node itself
// doesn't pin one down (see DefaultAgentKind and the execution driver).
type Node struct {
	// ID uniquely identifies the node within its graph.
	ID string

	// AgentKind selects which agent implementation runs this node. May be
	// empty if AgentDefID supplies it instead.
	AgentKind AgentKind

	// Objective is the free-text instruction passed to the agent's Run.
	Objective string

	// Config holds agent-specific options. Node-level entries win over any
	// same-named entry inherited from an external agent definition.
	Config map[string]any

	// AgentDefID optionally points into an external agent-definition store.
	// The definition's config merges under this node's own Config, and its
	// agent kind is used when AgentKind is empty.
	AgentDefID string

	// StopOnFailure, when true, halts the run the first time this node
	// finishes with a non-completed status. Use NewNode for the spec's
	// default of true; the zero value is false.
	StopOnFailure bool
}

// NodeOption customizes a Node built with NewNode.
type NodeOption func(*Node)

// WithObjective sets the node's free-text objective.
func WithObjective(objective string) NodeOption {
	return func(n *Node) { n.Objective = objective }
}

// WithConfig sets the node's agent configuration mapping.
func WithConfig(config map[string]any) NodeOption {
	return func(n *Node) { n.Config = config }
}

// WithAgentDefID points the node at an external agent definition.
func WithAgentDefID(id string) NodeOption {
	return func(n *Node) { n.AgentDefID = id }
}

// ContinueOnFailure overrides the default stop-the-run-on-failure behavior,
// letting the execution driver proceed past this node's failure.
func ContinueOnFailure() NodeOption {
	return func(n *Node) { n.StopOnFailure = false }
}

// NewNode builds a Node with StopOnFailure defaulted to true, matching the
// spec's default.
func NewNode(id string, kind AgentKind, opts ...NodeOption) Node {
	n := Node{ID: id, AgentKind: kind, StopOnFailure: true}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}
