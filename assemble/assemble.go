// Package assemble builds the per-node context mapping the execution driver
// hands to each agent: the input payload plus whatever upstream nodes feed
// this node along its incoming edges.
package assemble

import "github.com/flowkit/agentgraph/graphmodel"

// InputKey is the reserved context key holding the run's input payload.
const InputKey = "input"

// Context builds the mapping passed to an agent's Run: InputKey -> the
// run's input payload (omitted when payload is nil), plus, for every edge
// whose target is id, sourceID -> contextStore[sourceID] when that source
// has a recorded output.
func Context(g *graphmodel.Graph, id string, inputPayload any, contextStore map[string]any) map[string]any {
	ctx := make(map[string]any)
	if inputPayload != nil {
		ctx[InputKey] = inputPayload
	}
	for _, e := range g.InEdges(id) {
		if out, ok := contextStore[e.SourceID]; ok {
			ctx[e.SourceID] = out
		}
	}
	return ctx
}

// Normalize converts an agent's raw output into the mapping form stored in
// contextStore: output itself if it is already a mapping, else
// {"output": output}.
func Normalize(output any) map[string]any {
	if m, ok := output.(map[string]any); ok {
		return m
	}
	return map[string]any{"output": output}
}
