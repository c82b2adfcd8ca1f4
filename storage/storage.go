package storage

import (
	"context"
	"sync"
)

// Backend defines a public type used by issueguard APIs.
//
// Get reports presence explicitly so an empty stored value is
// distinguishable from a missing entry. Set and Delete are last-writer-wins;
// writes are user-driven, so no cross-writer coordination is attempted.
type Backend interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Memory is a process-local Backend. Safe for concurrent use.
//
// Memory instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemory describes the newmemory operation and its observable behavior.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

// Get describes the get operation and its observable behavior.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

// Set describes the set operation and its observable behavior.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

// Delete describes the delete operation and its observable behavior.
//
// Delete is idempotent: removing an absent key is not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
