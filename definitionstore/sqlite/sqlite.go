// Package sqlite provides a SQLite-backed definitionstore.Lookup.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/flowkit/agentgraph/definitionstore"
	"github.com/flowkit/agentgraph/graphmodel"
	_ "modernc.org/sqlite"
)

// Store is a SQLite implementation of definitionstore.Lookup.
//
// It reads a single agent_definitions table:
//
//	CREATE TABLE agent_definitions (
//	    id         TEXT PRIMARY KEY,
//	    agent_kind TEXT NOT NULL,
//	    config     TEXT NOT NULL -- JSON object
//	)
//
// The engine only reads through Lookup; definitions are written out of band
// (migration, seed script, the caller's own tooling) or with Put.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// New opens (and, if needed, creates) a SQLite-backed definition store at
// path. ":memory:" is accepted for tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("definitionstore/sqlite: open: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("definitionstore/sqlite: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("definitionstore/sqlite: set busy_timeout: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) createTable(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS agent_definitions (
			id         TEXT PRIMARY KEY,
			agent_kind TEXT NOT NULL,
			config     TEXT NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("definitionstore/sqlite: create table: %w", err)
	}
	return nil
}

// Put upserts the definition for id. Intended for tests and seed scripts.
func (s *Store) Put(ctx context.Context, id string, def definitionstore.Definition) error {
	cfgJSON, err := json.Marshal(def.Config)
	if err != nil {
		return fmt.Errorf("definitionstore/sqlite: marshal config: %w", err)
	}

	const query = `
		INSERT INTO agent_definitions (id, agent_kind, config)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			agent_kind = excluded.agent_kind,
			config = excluded.config
	`
	if _, err := s.db.ExecContext(ctx, query, id, string(def.AgentKind), string(cfgJSON)); err != nil {
		return fmt.Errorf("definitionstore/sqlite: put: %w", err)
	}
	return nil
}

// Lookup implements definitionstore.Lookup.
func (s *Store) Lookup(ctx context.Context, id string) (definitionstore.Definition, bool, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return definitionstore.Definition{}, false, fmt.Errorf("definitionstore/sqlite: store is closed")
	}
	s.mu.RUnlock()

	const query = `SELECT agent_kind, config FROM agent_definitions WHERE id = ?`

	var kind, cfgJSON string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&kind, &cfgJSON)
	if err == sql.ErrNoRows {
		return definitionstore.Definition{}, false, nil
	}
	if err != nil {
		return definitionstore.Definition{}, false, fmt.Errorf("definitionstore/sqlite: lookup: %w", err)
	}

	var cfg map[string]any
	if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
		return definitionstore.Definition{}, false, fmt.Errorf("definitionstore/sqlite: unmarshal config: %w", err)
	}

	return definitionstore.Definition{AgentKind: graphmodel.AgentKind(kind), Config: cfg}, true, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}
