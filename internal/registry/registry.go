// Package registry is the in-memory directory of registered clients. It is
// the single source of truth for identity and admin status and is shared
// across all connection goroutines.
package registry

import (
	"sort"
	"sync"

	"github.com/Androix777/kanjilab-server/pkg/protocol"
)

// Registry guards the client map with a single RWMutex; no method holds the
// lock across a blocking call.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]protocol.ClientInfo
}

func New() *Registry {
	return &Registry{clients: make(map[string]protocol.ClientInfo)}
}

// Add registers a client under its connection id. It reports false when the
// id is already registered.
func (r *Registry) Add(id, name, key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; ok {
		return false
	}
	r.clients[id] = protocol.ClientInfo{ID: id, Key: key, Name: name}
	return true
}

// MakeAdmin grants admin to the given client and demotes any previous admin,
// keeping the at-most-one-admin invariant. It reports false when the id is
// unknown.
func (r *Registry) MakeAdmin(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.clients[id]
	if !ok {
		return false
	}
	for otherID, other := range r.clients {
		if other.IsAdmin {
			other.IsAdmin = false
			r.clients[otherID] = other
		}
	}
	target.IsAdmin = true
	r.clients[id] = target
	return true
}

// Remove deletes the client and returns its last known info so the caller can
// decide whether a disconnect notification is due.
func (r *Registry) Remove(id string) (protocol.ClientInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.clients[id]
	if ok {
		delete(r.clients, id)
	}
	return client, ok
}

func (r *Registry) Get(id string) (protocol.ClientInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[id]
	return client, ok
}

// List returns a snapshot of all registered clients sorted by id, so
// broadcast order is stable.
func (r *Registry) List() []protocol.ClientInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.ClientInfo, 0, len(r.clients))
	for _, client := range r.clients {
		out = append(out, client)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AdminID scans for the single admin; at most one exists by invariant.
func (r *Registry) AdminID() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, client := range r.clients {
		if client.IsAdmin {
			return id, true
		}
	}
	return "", false
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
