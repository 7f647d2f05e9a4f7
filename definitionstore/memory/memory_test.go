package memory

import (
	"context"
	"testing"

	"github.com/flowkit/agentgraph/definitionstore"
	"github.com/flowkit/agentgraph/graphmodel"
)

func TestStore_LookupMissingReturnsNotOK(t *testing.T) {
	s := New()
	_, ok, err := s.Lookup(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if ok {
		t.Error("expected ok = false for missing id")
	}
}

func TestStore_PutThenLookup(t *testing.T) {
	s := New()
	def := definitionstore.Definition{
		AgentKind: graphmodel.KindLLM,
		Config:    map[string]any{"model": "gpt-4o"},
	}
	s.Put("summarizer", def)

	got, ok, err := s.Lookup(context.Background(), "summarizer")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !ok {
		t.Fatal("expected ok = true after Put")
	}
	if got.AgentKind != graphmodel.KindLLM {
		t.Errorf("expected AgentKind = llm, got %q", got.AgentKind)
	}
	if got.Config["model"] != "gpt-4o" {
		t.Errorf("expected config model = gpt-4o, got %v", got.Config["model"])
	}
}

func TestStore_PutOverwrites(t *testing.T) {
	s := New()
	s.Put("x", definitionstore.Definition{AgentKind: graphmodel.KindHTTP})
	s.Put("x", definitionstore.Definition{AgentKind: graphmodel.KindTransform})

	got, ok, _ := s.Lookup(context.Background(), "x")
	if !ok || got.AgentKind != graphmodel.KindTransform {
		t.Errorf("expected overwritten AgentKind = transform, got %q (ok=%v)", got.AgentKind, ok)
	}
}

func TestStore_Delete(t *testing.T) {
	s := New()
	s.Put("x", definitionstore.Definition{AgentKind: graphmodel.KindHTTP})
	s.Delete("x")

	_, ok, _ := s.Lookup(context.Background(), "x")
	if ok {
		t.Error("expected ok = false after Delete")
	}
}

var _ definitionstore.Lookup = (*Store)(nil)
