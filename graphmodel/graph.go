package graphmodel

// Graph is the validated, static description of a workflow: a set of nodes
// and the directed edges connecting them. Nodes and Edges preserve
// declaration order, which the scheduler uses to break topological-sort
// ties.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// New builds a Graph from nodes and edges in the order given and validates
// it. It returns a *ValidationError (see errors.go) on the first structural
// problem found.
func New(nodes []Node, edges []Edge) (*Graph, error) {
	g := &Graph{Nodes: nodes, Edges: edges}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the invariants a graph must satisfy before it can be
// scheduled:
//
//   - no duplicate node ids
//   - no self-loops
//   - no duplicate (source, target, condition) edge triples
//   - every edge's source and target id resolves to a node
//   - edges leaving a conditional node carry ConditionTrue or
//     ConditionFalse; edges leaving any other node carry ConditionNone
//   - the induced directed graph is acyclic
func (g *Graph) Validate() error {
	byID := make(map[string]*Node, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if _, dup := byID[n.ID]; dup {
			return &ValidationError{Err: ErrDuplicateNode, NodeID: n.ID}
		}
		byID[n.ID] = n
	}

	seenEdges := make(map[[3]string]struct{}, len(g.Edges))
	adjacency := make(map[string][]string, len(g.Nodes))

	for i := range g.Edges {
		e := &g.Edges[i]

		if e.SourceID == e.TargetID {
			return &ValidationError{Err: ErrSelfLoop, Edge: e}
		}

		source, ok := byID[e.SourceID]
		if !ok {
			return &ValidationError{Err: ErrDanglingEdge, Edge: e}
		}
		if _, ok := byID[e.TargetID]; !ok {
			return &ValidationError{Err: ErrDanglingEdge, Edge: e}
		}

		validCondition := e.Condition == ConditionNone
		if source.AgentKind == KindConditional {
			validCondition = e.Condition == ConditionTrue || e.Condition == ConditionFalse
		}
		if !validCondition {
			return &ValidationError{Err: ErrConditionMisuse, Edge: e}
		}

		key := [3]string{e.SourceID, e.TargetID, string(e.Condition)}
		if _, dup := seenEdges[key]; dup {
			return &ValidationError{Err: ErrDuplicateEdge, Edge: e}
		}
		seenEdges[key] = struct{}{}

		adjacency[e.SourceID] = append(adjacency[e.SourceID], e.TargetID)
	}

	return detectCycle(g.Nodes, adjacency)
}

// detectCycle runs a Kahn's-algorithm pass purely to decide acyclicity; the
// scheduler package owns producing the actual execution order.
func detectCycle(nodes []Node, adjacency map[string][]string) error {
	inDegree := make(map[string]int, len(nodes))
	for i := range nodes {
		inDegree[nodes[i].ID] = 0
	}
	for _, targets := range adjacency {
		for _, t := range targets {
			inDegree[t]++
		}
	}

	queue := make([]string, 0, len(nodes))
	for i := range nodes {
		if inDegree[nodes[i].ID] == 0 {
			queue = append(queue, nodes[i].ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range adjacency[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited != len(nodes) {
		return &ValidationError{Err: ErrCycle}
	}
	return nil
}

// Node returns the node with the given id, or nil if none exists.
func (g *Graph) Node(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// OutEdges returns edges leaving the given node, in declaration order.
func (g *Graph) OutEdges(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.SourceID == id {
			out = append(out, e)
		}
	}
	return out
}

// InEdges returns edges entering the given node, in declaration order.
func (g *Graph) InEdges(id string) []Edge {
	var in []Edge
	for _, e := range g.Edges {
		if e.TargetID == id {
			in = append(in, e)
		}
	}
	return in
}
