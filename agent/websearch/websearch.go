// Package websearch implements the web-search agent: it queries a search
// backend and returns a bounded sequence of result records.
package websearch

import (
	"context"
	"fmt"
	"time"

	"github.com/flowkit/agentgraph/agent"
)

const defaultMaxResults = 5

// Backend performs the actual search and returns raw result records, each a
// {title, url, snippet} map.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]map[string]any, error)
}

// Agent dispatches a node's objective as a search query against a Backend.
//
// A Backend failure is advisory, not fatal: Run still returns success=true
// with a single descriptive result record, so a downstream LLM node still
// receives usable context instead of stalling the run.
type Agent struct {
	backend    Backend
	maxResults int
}

// New builds the web-search agent from a node's merged configuration.
func New(config map[string]any, backend Backend) (agent.Agent, error) {
	a := &Agent{backend: backend, maxResults: defaultMaxResults}
	if v, ok := asInt(config["max_results"]); ok && v > 0 {
		a.maxResults = v
	}
	return a, nil
}

// Run implements agent.Agent.
func (a *Agent) Run(ctx context.Context, objective string, _ agent.Context) agent.Result {
	start := time.Now()

	results, err := a.backend.Search(ctx, objective, a.maxResults)
	if err != nil {
		results = []map[string]any{{
			"title":   "search backend unavailable",
			"url":     "",
			"snippet": fmt.Sprintf("%s: %v", a.backend.Name(), err),
		}}
	}
	if len(results) > a.maxResults {
		results = results[:a.maxResults]
	}

	return agent.Result{
		Success: true,
		Output:  results,
		Metadata: map[string]any{
			"engine":       a.backend.Name(),
			"result_count": len(results),
			"duration_ms":  time.Since(start).Milliseconds(),
		},
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	default:
		return 0, false
	}
}
