package graphmodel

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying the kind of structural problem Validate found.
// Callers should use errors.Is against these, not string-match ValidationError.Error().
var (
	// ErrCycle indicates the edges induce a directed cycle.
	ErrCycle = errors.New("graph contains a cycle")
	// ErrDanglingEdge indicates an edge's source or target id does not name a node.
	ErrDanglingEdge = errors.New("edge references an unknown node id")
	// ErrDuplicateEdge indicates two edges share the same (source, target, condition) triple.
	ErrDuplicateEdge = errors.New("duplicate edge")
	// ErrDuplicateNode indicates two nodes share the same id.
	ErrDuplicateNode = errors.New("duplicate node id")
	// ErrSelfLoop indicates an edge's source and target are the same node.
	ErrSelfLoop = errors.New("edge forms a self-loop")
	// ErrConditionMisuse indicates a condition was set on a non-conditional
	// node's outgoing edge, or left unset on a conditional node's.
	ErrConditionMisuse = errors.New("edge condition does not match source node kind")
)

// ValidationError reports a single structural problem found by Validate,
// identifying the offending node or edge alongside the sentinel it wraps.
type ValidationError struct {
	Err    error
	NodeID string
	Edge   *Edge
}

func (e *ValidationError) Error() string {
	switch {
	case e.Edge != nil:
		return fmt.Sprintf("%v: %s -> %s (condition=%q)", e.Err, e.Edge.SourceID, e.Edge.TargetID, e.Edge.Condition)
	case e.NodeID != "":
		return fmt.Sprintf("%v: node %q", e.Err, e.NodeID)
	default:
		return e.Err.Error()
	}
}

func (e *ValidationError) Unwrap() error { return e.Err }
