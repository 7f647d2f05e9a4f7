package websearch

import (
	"context"
	"sync"
)

// MockBackend is a test implementation of Backend.
type MockBackend struct {
	BackendName string
	Results     []map[string]any
	Err         error

	mu    sync.Mutex
	Calls []MockBackendCall
}

// MockBackendCall records a single invocation of Search.
type MockBackendCall struct {
	Query      string
	MaxResults int
}

// Name implements Backend.
func (m *MockBackend) Name() string { return m.BackendName }

// Search implements Backend.
func (m *MockBackend) Search(ctx context.Context, query string, maxResults int) ([]map[string]any, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockBackendCall{Query: query, MaxResults: maxResults})
	m.mu.Unlock()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Results, nil
}
