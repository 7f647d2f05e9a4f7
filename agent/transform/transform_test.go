package transform

import (
	"context"
	"testing"

	"github.com/flowkit/agentgraph/agent"
)

func newAgent(t *testing.T, config map[string]any) *Agent {
	t.Helper()
	a, err := New(config)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a.(*Agent)
}

func TestAgent_Run_Passthrough(t *testing.T) {
	a := newAgent(t, map[string]any{"operation": "passthrough"})
	result := a.Run(context.Background(), "", agent.Context{"x": 1})
	out := result.Output.(map[string]any)
	if out["x"] != 1 {
		t.Errorf("Output = %v, want passthrough of context", result.Output)
	}
}

func TestAgent_Run_ExtractField_DottedPathWithIndex(t *testing.T) {
	a := newAgent(t, map[string]any{"operation": "extract_field", "field": "users.1.name"})
	ctx := agent.Context{"users": []any{
		map[string]any{"name": "alice"},
		map[string]any{"name": "bob"},
	}}
	result := a.Run(context.Background(), "", ctx)
	if result.Output != "bob" {
		t.Errorf("Output = %v, want bob", result.Output)
	}
}

func TestAgent_Run_ExtractField_MissingYieldsNil(t *testing.T) {
	a := newAgent(t, map[string]any{"operation": "extract_field", "field": "a.b.c"})
	result := a.Run(context.Background(), "", agent.Context{})
	if result.Output != nil {
		t.Errorf("Output = %v, want nil", result.Output)
	}
}

func TestAgent_Run_Filter(t *testing.T) {
	a := newAgent(t, map[string]any{
		"operation":       "filter",
		"input_key":       "items",
		"condition_field": "status",
		"condition_value": "active",
	})
	ctx := agent.Context{"items": []any{
		map[string]any{"status": "active", "id": 1},
		map[string]any{"status": "inactive", "id": 2},
		map[string]any{"status": "active", "id": 3},
	}}
	result := a.Run(context.Background(), "", ctx)
	kept := result.Output.([]any)
	if len(kept) != 2 {
		t.Fatalf("len(kept) = %d, want 2", len(kept))
	}
}

func TestAgent_Run_Map(t *testing.T) {
	a := newAgent(t, map[string]any{"operation": "map", "input_key": "nums", "template": "n={item}"})
	result := a.Run(context.Background(), "", agent.Context{"nums": []any{1, 2}})
	mapped := result.Output.([]any)
	if mapped[0] != "n=1" || mapped[1] != "n=2" {
		t.Errorf("Output = %v, want [n=1 n=2]", mapped)
	}
}

func TestAgent_Run_Aggregate_Count(t *testing.T) {
	a := newAgent(t, map[string]any{"operation": "aggregate", "input_key": "items", "agg_type": "count"})
	result := a.Run(context.Background(), "", agent.Context{"items": []any{1, 2, 3}})
	out := result.Output.(map[string]any)
	if out["count"] != 3 {
		t.Errorf("count = %v, want 3", out["count"])
	}
}

func TestAgent_Run_Aggregate_FirstOnEmptyIsNil(t *testing.T) {
	a := newAgent(t, map[string]any{"operation": "aggregate", "input_key": "items", "agg_type": "first"})
	result := a.Run(context.Background(), "", agent.Context{"items": []any{}})
	if result.Output != nil {
		t.Errorf("Output = %v, want nil", result.Output)
	}
}

func TestAgent_Run_Merge(t *testing.T) {
	a := newAgent(t, map[string]any{"operation": "merge"})
	ctx := agent.Context{
		"a": map[string]any{"x": 1},
		"b": map[string]any{"y": 2},
	}
	result := a.Run(context.Background(), "", ctx)
	out := result.Output.(map[string]any)
	if out["x"] != 1 || out["y"] != 2 {
		t.Errorf("Output = %v, want merged union", out)
	}
}

func TestAgent_Run_JSONParse(t *testing.T) {
	a := newAgent(t, map[string]any{"operation": "json_parse", "input_key": "raw"})
	result := a.Run(context.Background(), "", agent.Context{"raw": `{"k": "v"}`})
	out, ok := result.Output.(map[string]any)
	if !ok || out["k"] != "v" {
		t.Errorf("Output = %v, want decoded JSON", result.Output)
	}
}

func TestAgent_Run_OutputKeyWrapsResult(t *testing.T) {
	a := newAgent(t, map[string]any{"operation": "passthrough", "input_key": "x", "output_key": "wrapped"})
	result := a.Run(context.Background(), "", agent.Context{"x": 5})
	out := result.Output.(map[string]any)
	if out["wrapped"] != 5 {
		t.Errorf("Output = %v, want {wrapped: 5}", out)
	}
}

func TestNew_RequiresOperation(t *testing.T) {
	if _, err := New(map[string]any{}); err == nil {
		t.Error("New() error = nil, want error for missing operation")
	}
}

var _ agent.Agent = (*Agent)(nil)
