// Package memory provides an in-memory definitionstore.Lookup backend.
package memory

import (
	"context"
	"sync"

	"github.com/flowkit/agentgraph/definitionstore"
)

// Store is an in-memory implementation of definitionstore.Lookup, backed by
// a plain map. It is the engine's default when no other store is
// configured, and is the natural choice for tests and single-process
// deployments where definitions are registered at startup.
type Store struct {
	mu   sync.RWMutex
	defs map[string]definitionstore.Definition
}

// New creates an empty in-memory definition store.
func New() *Store {
	return &Store{defs: make(map[string]definitionstore.Definition)}
}

// Put registers or replaces the definition for id.
func (s *Store) Put(id string, def definitionstore.Definition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs[id] = def
}

// Delete removes the definition for id, if present.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.defs, id)
}

// Lookup implements definitionstore.Lookup.
func (s *Store) Lookup(_ context.Context, id string) (definitionstore.Definition, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.defs[id]
	return def, ok, nil
}
