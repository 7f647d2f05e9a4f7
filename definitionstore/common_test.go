package definitionstore_test

import (
	"context"
	"testing"

	"github.com/flowkit/agentgraph/definitionstore"
	"github.com/flowkit/agentgraph/definitionstore/memory"
	"github.com/flowkit/agentgraph/definitionstore/sqlite"
	"github.com/flowkit/agentgraph/graphmodel"
)

// TestLookupConsistencyAcrossBackends verifies that the memory and SQLite
// backends resolve the same Definition for the same id, and agree that a
// missing id is absent rather than an error. Both backends must satisfy
// definitionstore.Lookup identically from the engine's point of view.
func TestLookupConsistencyAcrossBackends(t *testing.T) {
	ctx := context.Background()

	mem := memory.New()
	sq, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	defer sq.Close()

	def := definitionstore.Definition{
		AgentKind: graphmodel.KindWebSearch,
		Config:    map[string]any{"provider": "duckduckgo"},
	}
	mem.Put("shared-id", def)
	if err := sq.Put(ctx, "shared-id", def); err != nil {
		t.Fatalf("sqlite Put: %v", err)
	}

	backends := map[string]definitionstore.Lookup{
		"memory": mem,
		"sqlite": sq,
	}

	for name, backend := range backends {
		got, ok, err := backend.Lookup(ctx, "shared-id")
		if err != nil {
			t.Fatalf("%s: Lookup: %v", name, err)
		}
		if !ok {
			t.Fatalf("%s: expected ok = true", name)
		}
		if got.AgentKind != def.AgentKind {
			t.Errorf("%s: AgentKind = %q, want %q", name, got.AgentKind, def.AgentKind)
		}
		if got.Config["provider"] != def.Config["provider"] {
			t.Errorf("%s: config provider = %v, want %v", name, got.Config["provider"], def.Config["provider"])
		}
	}

	for name, backend := range backends {
		_, ok, err := backend.Lookup(ctx, "no-such-id")
		if err != nil {
			t.Errorf("%s: expected nil error for missing id, got %v", name, err)
		}
		if ok {
			t.Errorf("%s: expected ok = false for missing id", name)
		}
	}
}
