// Package registry tracks live connections and the identity each one has
// authenticated as.
package registry

import (
	"sync"

	"github.com/marcussviniciusa/recantoverdev5-2-sub001/domain"
)

type entry struct {
	conn     domain.Connection
	identity *domain.Identity
}

type Registry struct {
	entries map[string]*entry
	mu      sync.RWMutex
}

func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

func (r *Registry) Register(conn domain.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[conn.ID()]; exists {
		return
	}
	r.entries[conn.ID()] = &entry{conn: conn}
}

// Authenticate stores identity for the connection, replacing any previous
// one. It returns the replaced identity, if any, and false when the
// connection is not registered.
func (r *Registry) Authenticate(connID string, identity domain.Identity) (*domain.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[connID]
	if !exists {
		return nil, false
	}
	prev := e.identity
	e.identity = &identity
	return prev, true
}

// Unregister is safe to call with an unknown id.
func (r *Registry) Unregister(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[connID]; !exists {
		return false
	}
	delete(r.entries, connID)
	return true
}

func (r *Registry) Identity(connID string) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[connID]
	if !exists || e.identity == nil {
		return domain.Identity{}, false
	}
	return *e.identity, true
}

func (r *Registry) Connection(connID string) (domain.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[connID]
	if !exists {
		return nil, false
	}
	return e.conn, true
}

func (r *Registry) Connections() []domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]domain.Connection, 0, len(r.entries))
	for _, e := range r.entries {
		conns = append(conns, e.conn)
	}
	return conns
}

func (r *Registry) Stats() (connections, authenticated int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		connections++
		if e.identity != nil {
			authenticated++
		}
	}
	return connections, authenticated
}
