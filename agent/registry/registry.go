// Package registry maps graphmodel.AgentKind values to the constructors
// that build the corresponding agent.Agent implementation for a node.
package registry

import (
	"fmt"
	"sync"

	"github.com/flowkit/agentgraph/agent"
	"github.com/flowkit/agentgraph/agent/codeexec"
	"github.com/flowkit/agentgraph/agent/conditional"
	"github.com/flowkit/agentgraph/agent/httpcall"
	"github.com/flowkit/agentgraph/agent/llm"
	"github.com/flowkit/agentgraph/agent/transform"
	"github.com/flowkit/agentgraph/agent/websearch"
	"github.com/flowkit/agentgraph/cost"
	"github.com/flowkit/agentgraph/credential"
	"github.com/flowkit/agentgraph/graphmodel"
)

// Factory builds the Agent that will run nodeID, given the node's merged
// configuration.
type Factory func(config map[string]any, nodeID string) (agent.Agent, error)

// Registry holds one Factory per known AgentKind.
type Registry struct {
	mu        sync.RWMutex
	factories map[graphmodel.AgentKind]Factory
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{factories: make(map[graphmodel.AgentKind]Factory)}
}

// Register installs factory for kind, replacing any existing entry.
func (r *Registry) Register(kind graphmodel.AgentKind, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

// Build constructs the agent for kind using the node's merged config.
func (r *Registry) Build(kind graphmodel.AgentKind, config map[string]any, nodeID string) (agent.Agent, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("registry: no agent registered for kind %q", kind)
	}
	return factory(config, nodeID)
}

// Default returns a Registry with all six built-in agent kinds registered,
// using creds for the LLM agent's provider selection, a DuckDuckGo-backed
// default for the web-search agent, and tracker for LLM cost accounting.
func Default(creds credential.Provider, tracker *cost.Tracker) *Registry {
	r := New()

	r.Register(graphmodel.KindLLM, func(config map[string]any, nodeID string) (agent.Agent, error) {
		return llm.New(config, creds, tracker, nodeID)
	})
	r.Register(graphmodel.KindWebSearch, func(config map[string]any, _ string) (agent.Agent, error) {
		return websearch.New(config, websearch.NewDuckDuckGoBackend())
	})
	r.Register(graphmodel.KindHTTP, func(config map[string]any, _ string) (agent.Agent, error) {
		return httpcall.New(config)
	})
	r.Register(graphmodel.KindCodeExec, func(config map[string]any, _ string) (agent.Agent, error) {
		return codeexec.New(config)
	})
	r.Register(graphmodel.KindTransform, func(config map[string]any, _ string) (agent.Agent, error) {
		return transform.New(config)
	})
	r.Register(graphmodel.KindConditional, func(config map[string]any, _ string) (agent.Agent, error) {
		return conditional.New(config)
	})

	return r
}
