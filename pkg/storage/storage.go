// Package storage provides an in-memory registry of active analysis
// sessions, keyed by session id, so the HTTP server can look one up across
// independent requests (start, select workflow, process, generate).
package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/harloom/harloom/pkg/session"
)

// Entry pairs a live Session with the bookkeeping timestamps the registry
// exposes for listing and eviction.
type Entry struct {
	Session   *session.Session
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary is a lightweight registry listing row, without the Session itself.
type Summary struct {
	ID        string         `json:"id"`
	State     session.State  `json:"state"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Registry defines the operations the server needs against the active
// session set.
type Registry interface {
	Put(s *session.Session) error
	Get(id string) (*session.Session, error)
	Touch(id string) error
	Delete(id string) error
	List() []Summary
	Exists(id string) bool
}

// InMemoryRegistry implements Registry with a guarded map. Sessions are
// never persisted to disk: a process restart loses in-flight analyses, the
// same tradeoff spec.md's orchestrator already makes by holding the
// Dependency Graph only in memory.
type InMemoryRegistry struct {
	entries map[string]*Entry
	mu      sync.RWMutex
}

// NewInMemoryRegistry creates an empty registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{entries: make(map[string]*Entry)}
}

// Put registers a newly constructed session under its own id.
func (r *InMemoryRegistry) Put(s *session.Session) error {
	if s == nil {
		return fmt.Errorf("storage: session is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[s.ID()]; exists {
		return fmt.Errorf("storage: session %s already registered", s.ID())
	}

	now := time.Now()
	r.entries[s.ID()] = &Entry{Session: s, CreatedAt: now, UpdatedAt: now}
	return nil
}

// Get retrieves a session by id.
func (r *InMemoryRegistry) Get(id string) (*session.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("storage: session id is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[id]
	if !exists {
		return nil, fmt.Errorf("storage: session %s not found", id)
	}
	return entry.Session, nil
}

// Touch refreshes id's UpdatedAt timestamp after a mutating operation.
func (r *InMemoryRegistry) Touch(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[id]
	if !exists {
		return fmt.Errorf("storage: session %s not found", id)
	}
	entry.UpdatedAt = time.Now()
	return nil
}

// Delete removes a session from the registry.
func (r *InMemoryRegistry) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("storage: session id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; !exists {
		return fmt.Errorf("storage: session %s not found", id)
	}
	delete(r.entries, id)
	return nil
}

// List returns a summary of every registered session.
func (r *InMemoryRegistry) List() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0, len(r.entries))
	for id, entry := range r.entries {
		out = append(out, Summary{
			ID:        id,
			State:     entry.Session.State(),
			CreatedAt: entry.CreatedAt,
			UpdatedAt: entry.UpdatedAt,
		})
	}
	return out
}

// Exists reports whether id is currently registered.
func (r *InMemoryRegistry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.entries[id]
	return exists
}
