// Package mysql provides a MySQL/MariaDB-backed definitionstore.Lookup.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/flowkit/agentgraph/definitionstore"
	"github.com/flowkit/agentgraph/graphmodel"
	_ "github.com/go-sql-driver/mysql"
)

// Store is a MySQL/MariaDB implementation of definitionstore.Lookup.
//
// It reads a single agent_definitions table:
//
//	CREATE TABLE agent_definitions (
//	    id         VARCHAR(255) PRIMARY KEY,
//	    agent_kind VARCHAR(64) NOT NULL,
//	    config     JSON NOT NULL
//	)
//
// Intended for deployments that already run MySQL for other application
// state and would rather not add a second storage engine just to resolve
// agent definitions.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// New opens a MySQL-backed definition store. The DSN format follows
// github.com/go-sql-driver/mysql, e.g.
// "user:password@tcp(127.0.0.1:3306)/agentgraph?parseTime=true".
func New(dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("definitionstore/mysql: open: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("definitionstore/mysql: ping: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) createTable(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS agent_definitions (
			id         VARCHAR(255) PRIMARY KEY,
			agent_kind VARCHAR(64) NOT NULL,
			config     JSON NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("definitionstore/mysql: create table: %w", err)
	}
	return nil
}

// Put upserts the definition for id. Intended for tests and seed scripts.
func (s *Store) Put(ctx context.Context, id string, def definitionstore.Definition) error {
	cfgJSON, err := json.Marshal(def.Config)
	if err != nil {
		return fmt.Errorf("definitionstore/mysql: marshal config: %w", err)
	}

	const query = `
		INSERT INTO agent_definitions (id, agent_kind, config)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			agent_kind = VALUES(agent_kind),
			config = VALUES(config)
	`
	if _, err := s.db.ExecContext(ctx, query, id, string(def.AgentKind), string(cfgJSON)); err != nil {
		return fmt.Errorf("definitionstore/mysql: put: %w", err)
	}
	return nil
}

// Lookup implements definitionstore.Lookup.
func (s *Store) Lookup(ctx context.Context, id string) (definitionstore.Definition, bool, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return definitionstore.Definition{}, false, fmt.Errorf("definitionstore/mysql: store is closed")
	}
	s.mu.RUnlock()

	const query = `SELECT agent_kind, config FROM agent_definitions WHERE id = ?`

	var kind, cfgJSON string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&kind, &cfgJSON)
	if err == sql.ErrNoRows {
		return definitionstore.Definition{}, false, nil
	}
	if err != nil {
		return definitionstore.Definition{}, false, fmt.Errorf("definitionstore/mysql: lookup: %w", err)
	}

	var cfg map[string]any
	if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
		return definitionstore.Definition{}, false, fmt.Errorf("definitionstore/mysql: unmarshal config: %w", err)
	}

	return definitionstore.Definition{AgentKind: graphmodel.AgentKind(kind), Config: cfg}, true, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
