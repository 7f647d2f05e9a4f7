// Package schedule computes a single-threaded execution order for a
// validated workflow graph.
package schedule

import "github.com/flowkit/agentgraph/graphmodel"

// Order returns a topological ordering of g's nodes using Kahn's algorithm.
// Ties between simultaneously-ready nodes are broken by the order the nodes
// were declared in g.Nodes, not by node id — a workflow author's declaration
// order is the tie-break the engine honors.
//
// g must already be acyclic; Order does not re-validate it. Callers that
// haven't already run graphmodel.Graph.Validate should do so first.
func Order(g *graphmodel.Graph) []string {
	declOrder := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		declOrder[n.ID] = i
	}

	inDegree := make(map[string]int, len(g.Nodes))
	adjacency := make(map[string][]string, len(g.Nodes))
	for _, n := range g.Nodes {
		inDegree[n.ID] = 0
	}
	for _, e := range g.Edges {
		adjacency[e.SourceID] = append(adjacency[e.SourceID], e.TargetID)
		inDegree[e.TargetID]++
	}

	ready := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if inDegree[n.ID] == 0 {
			ready = append(ready, n.ID)
		}
	}

	order := make([]string, 0, len(g.Nodes))
	for len(ready) > 0 {
		next, rest := popLowest(ready, declOrder)
		ready = rest
		order = append(order, next)

		for _, target := range adjacency[next] {
			inDegree[target]--
			if inDegree[target] == 0 {
				ready = append(ready, target)
			}
		}
	}

	return order
}

// popLowest removes and returns the entry of ready with the smallest
// declaration index, preserving the relative order of what remains.
func popLowest(ready []string, declOrder map[string]int) (string, []string) {
	lowestIdx := 0
	for i := 1; i < len(ready); i++ {
		if declOrder[ready[i]] < declOrder[ready[lowestIdx]] {
			lowestIdx = i
		}
	}
	chosen := ready[lowestIdx]
	rest := make([]string, 0, len(ready)-1)
	rest = append(rest, ready[:lowestIdx]...)
	rest = append(rest, ready[lowestIdx+1:]...)
	return chosen, rest
}
