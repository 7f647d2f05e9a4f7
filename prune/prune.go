// Package prune computes which nodes a workflow run must skip because a
// conditional node's result didn't take their branch.
package prune

import "github.com/flowkit/agentgraph/graphmodel"

// SkipSet tracks the node ids a run has decided not to execute. It records
// no reason for a skip.
type SkipSet struct {
	skipped map[string]struct{}
}

// NewSkipSet returns an empty SkipSet.
func NewSkipSet() *SkipSet {
	return &SkipSet{skipped: make(map[string]struct{})}
}

// Skipped reports whether id has been marked skipped.
func (s *SkipSet) Skipped(id string) bool {
	_, ok := s.skipped[id]
	return ok
}

// Mark adds id to the skip set.
func (s *SkipSet) Mark(id string) {
	s.skipped[id] = struct{}{}
}

// Branch marks the transitive closure of nodes reachable from the branch of
// cond that was NOT taken, starting from a conditional node's outgoing
// edges.
//
// This is deliberately conservative: a descendant is marked skipped as soon
// as it is reachable via any pruned edge, even if it is also reachable via
// a path that was not pruned. A node with two parents — one on the taken
// branch and one on the skipped branch — still loses, because the engine
// processes nodes in topological order and a node already marked skipped by
// an earlier conditional never gets un-skipped by a later one reaching it
// through the live branch. Workflow authors needing a node to run whenever
// any upstream path allows it should avoid feeding it from two branches of
// the same conditional.
func Branch(g *graphmodel.Graph, condNodeID string, taken graphmodel.Condition, skip *SkipSet) {
	queue := make([]string, 0)
	for _, e := range g.OutEdges(condNodeID) {
		if e.Condition != taken {
			queue = append(queue, e.TargetID)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if skip.Skipped(id) {
			continue
		}
		skip.Mark(id)
		for _, e := range g.OutEdges(id) {
			queue = append(queue, e.TargetID)
		}
	}
}
