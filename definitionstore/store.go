// Package definitionstore provides read-only lookup of externally managed
// agent definitions, resolved by a node's agent_def_id.
package definitionstore

import (
	"context"
	"errors"

	"github.com/flowkit/agentgraph/graphmodel"
)

// ErrNotFound is available to implementations that want an error value for
// absence; none of the bundled stores returns it. Lookup itself never
// returns ErrNotFound — a missing id is reported via the ok=false return,
// matching spec.md's "missing ids are treated as absent, not as errors."
var ErrNotFound = errors.New("definitionstore: not found")

// Definition is the external agent definition a node's agent_def_id can
// point to. Its AgentKind and Config participate in the node's effective
// configuration: the node's own agent_kind and config override them.
type Definition struct {
	AgentKind graphmodel.AgentKind
	Config    map[string]any
}

// Lookup resolves an agent_def_id to a Definition. A missing id is reported
// by returning ok=false with a nil error — it is never an error condition.
// Store implementations only return a non-nil error for genuine access
// failures (a dropped database connection, a malformed row).
type Lookup interface {
	Lookup(ctx context.Context, id string) (def Definition, ok bool, err error)
}
