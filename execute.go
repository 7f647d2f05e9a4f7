package agentgraph

import (
	"context"
	"fmt"
	"time"

	"github.com/flowkit/agentgraph/agent"
	"github.com/flowkit/agentgraph/agent/registry"
	"github.com/flowkit/agentgraph/assemble"
	"github.com/flowkit/agentgraph/cost"
	"github.com/flowkit/agentgraph/definitionstore"
	"github.com/flowkit/agentgraph/graphmodel"
	"github.com/flowkit/agentgraph/prune"
	"github.com/flowkit/agentgraph/schedule"
	"github.com/flowkit/agentgraph/telemetry/emit"
)

// Execute runs every reachable node of graph in topological order, dispatching
// each to the agent its resolved kind and configuration select, and returns
// the accumulated ExecutionRecord.
//
// Execute returns a non-nil error only when graph fails validation; once
// execution begins, every failure mode (a node reporting failure, an agent
// panicking, a run cancellation, a node timing out) is folded into the
// returned ExecutionRecord instead of propagating as an error.
func Execute(ctx context.Context, g *graphmodel.Graph, input map[string]any, opts ...Option) (*ExecutionRecord, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("agentgraph: invalid graph: %w", err)
	}

	cfg := newConfig(opts)

	runID := newRunID()
	tracker := cost.NewTracker(runID)
	reg := cfg.registry
	if reg == nil {
		reg = registry.Default(cfg.creds, tracker)
	}

	start := time.Now()
	cfg.emitter.Emit(emit.Event{RunID: runID, Msg: "run_start"})

	order := schedule.Order(g)
	skip := prune.NewSkipSet()
	contextStore := make(map[string]any, len(order))
	results := make(map[string]NodeResult, len(order))

	rec := &ExecutionRecord{Status: RunCompleted, NodeResults: results}

	var inputPayload any
	if input != nil {
		inputPayload = input
	}

	for step, nodeID := range order {
		if isCancelled(cfg.cancel) {
			rec.Status = RunFailed
			rec.FailedNode = nodeID
			results[nodeID] = NodeResult{Status: StatusSkipped, Output: ErrCancelled.Error()}
			cfg.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: nodeID, Msg: "run_cancelled"})
			break
		}

		node := g.Node(nodeID)

		if skip.Skipped(nodeID) {
			results[nodeID] = NodeResult{Status: StatusSkipped}
			cfg.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: nodeID, Msg: "node_skip"})
			if cfg.metrics != nil {
				cfg.metrics.RecordNodesSkipped(runID, 1)
			}
			continue
		}

		cfg.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: nodeID, Msg: "node_start"})

		kind, mergedConfig, err := resolveAgentKindAndConfig(ctx, node, cfg.defStore)
		nodeStart := time.Now()
		var result NodeResult
		if err != nil {
			result = NodeResult{
				Status:     StatusError,
				Output:     err.Error(),
				DurationMs: time.Since(nodeStart).Milliseconds(),
			}
		} else {
			a, buildErr := reg.Build(kind, mergedConfig, node.ID)
			if buildErr != nil {
				result = NodeResult{
					Status:     StatusError,
					Output:     buildErr.Error(),
					DurationMs: time.Since(nodeStart).Milliseconds(),
				}
			} else {
				agentCtx := assemble.Context(g, node.ID, inputPayload, contextStore)
				runCtx := ctx
				var cancel context.CancelFunc
				if cfg.defaultTimeout > 0 {
					runCtx, cancel = context.WithTimeout(ctx, cfg.defaultTimeout)
				}
				out, runErr := runAgentSafely(runCtx, a, node.Objective, agentCtx)
				if cancel != nil {
					cancel()
				}
				result = toNodeResult(out, runErr, nodeStart, kind, node.ID)
			}
		}

		results[nodeID] = result

		if result.Status == StatusCompleted {
			contextStore[nodeID] = assemble.Normalize(result.Output)
		}

		if cfg.metrics != nil {
			cfg.metrics.RecordNodeDuration(runID, nodeID, string(kind), string(result.Status), time.Duration(result.DurationMs)*time.Millisecond)
			if kind == graphmodel.KindLLM && result.Status == StatusCompleted && result.TokensUsed > 0 {
				model, _ := result.Metadata["model"].(string)
				cfg.metrics.RecordLLMUsage(runID, model, result.TokensUsed, result.CostUSD)
			}
		}
		cfg.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: nodeID, Msg: "node_end", Meta: map[string]any{"status": string(result.Status)}})

		if kind == graphmodel.KindConditional && result.Status == StatusCompleted {
			if taken, ok := conditionalBranch(result.Output); ok {
				prune.Branch(g, nodeID, taken, skip)
			}
		}

		if result.Status != StatusCompleted && node.StopOnFailure {
			rec.Status = RunFailed
			rec.FailedNode = nodeID
			break
		}
	}

	rec.OutputData = aggregateOutput(order, results)
	// tracker accumulates every LLM call's cost as it happens; it is the
	// run's only source of token/cost totals since the other five agent
	// kinds never report nonzero TokensUsed or CostUSD.
	rec.TotalTokens = tracker.TotalTokens()
	rec.TotalCostUSD = tracker.TotalCostUSD()
	rec.DurationMs = time.Since(start).Milliseconds()

	if cfg.metrics != nil {
		cfg.metrics.RecordRunStatus(string(rec.Status))
	}
	cfg.emitter.Emit(emit.Event{RunID: runID, Msg: "run_end", Meta: map[string]any{"status": string(rec.Status)}})
	_ = cfg.emitter.Flush(ctx)

	return rec, nil
}

// resolveAgentKindAndConfig implements the node/definition resolution order:
// the node's own agent_kind wins, then the external definition's kind, else
// graphmodel.DefaultAgentKind; config is the definition's config with the
// node's own entries applied on top.
func resolveAgentKindAndConfig(ctx context.Context, node *graphmodel.Node, store definitionstore.Lookup) (graphmodel.AgentKind, map[string]any, error) {
	merged := make(map[string]any)

	kind := node.AgentKind
	if node.AgentDefID != "" {
		def, ok, err := store.Lookup(ctx, node.AgentDefID)
		if err != nil {
			return "", nil, fmt.Errorf("agentgraph: looking up agent definition %q: %w", node.AgentDefID, err)
		}
		if ok {
			for k, v := range def.Config {
				merged[k] = v
			}
			if kind == "" {
				kind = def.AgentKind
			}
		}
	}
	if kind == "" {
		kind = graphmodel.DefaultAgentKind
	}
	for k, v := range node.Config {
		merged[k] = v
	}

	return kind, merged, nil
}

// runAgentSafely calls a.Run, converting a panic into an error instead of
// letting it escape Execute.
func runAgentSafely(ctx context.Context, a agent.Agent, objective string, agentCtx agent.Context) (result agent.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent panicked: %v", r)
		}
	}()
	return a.Run(ctx, objective, agentCtx), nil
}

func toNodeResult(out agent.Result, runErr error, start time.Time, kind graphmodel.AgentKind, nodeID string) NodeResult {
	duration := time.Since(start).Milliseconds()
	if runErr != nil {
		return NodeResult{
			Status:     StatusError,
			Output:     (&NodeError{NodeID: nodeID, AgentKind: kind, Cause: runErr}).Error(),
			DurationMs: duration,
		}
	}
	status := StatusFailed
	if out.Success {
		status = StatusCompleted
	}
	return NodeResult{
		Status:     status,
		Output:     out.Output,
		TokensUsed: out.TokensUsed,
		CostUSD:    out.CostUSD,
		DurationMs: duration,
		Metadata:   out.Metadata,
	}
}

// conditionalBranch reads the branch a conditional agent's Result.Output
// selected, matching the {"branch": "true"|"false"} shape the conditional
// agent produces.
func conditionalBranch(output any) (graphmodel.Condition, bool) {
	m, ok := output.(map[string]any)
	if !ok {
		return "", false
	}
	branch, ok := m["branch"].(string)
	if !ok {
		return "", false
	}
	switch branch {
	case string(graphmodel.ConditionTrue):
		return graphmodel.ConditionTrue, true
	case string(graphmodel.ConditionFalse):
		return graphmodel.ConditionFalse, true
	default:
		return "", false
	}
}

// aggregateOutput returns the output of the last node in order that
// completed, searched in reverse so the final productive node — not
// necessarily the last one attempted — determines the run's output.
func aggregateOutput(order []string, results map[string]NodeResult) any {
	for i := len(order) - 1; i >= 0; i-- {
		if r, ok := results[order[i]]; ok && r.Status == StatusCompleted {
			return r.Output
		}
	}
	return nil
}

func isCancelled(cancel <-chan struct{}) bool {
	if cancel == nil {
		return false
	}
	select {
	case <-cancel:
		return true
	default:
		return false
	}
}
