package agentgraph

import (
	"errors"
	"fmt"

	"github.com/flowkit/agentgraph/graphmodel"
)

// ErrCancelled marks a run that ended because its cancellation channel (see
// WithCancel) was closed between two nodes.
var ErrCancelled = errors.New("agentgraph: run cancelled")

// NodeError wraps an agent panic or other internal fault that escaped a
// node's Run call, the "error" status case distinct from an agent-reported
// failure. Execute recovers these at the single call site around each
// agent's Run; they never propagate out of Execute itself.
type NodeError struct {
	NodeID    string
	AgentKind graphmodel.AgentKind
	Cause     error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q (%s): %v", e.NodeID, e.AgentKind, e.Cause)
}

func (e *NodeError) Unwrap() error { return e.Cause }
