package realtime

import (
	"sync"

	"socialdeck/internal/core/domain"
)

type ConnID string

// connState is one admitted connection: its principal, its current scope
// memberships and its outbound buffer.
type connState struct {
	id        ConnID
	principal *domain.Principal
	scopes    map[string]domain.ChannelScope
	send      chan []byte
}

// Registry is the live connection registry shared by the admission gateway
// and the dispatcher. Reads (dispatch) take the read lock; every write
// (admit, join, leave, close) is atomic with respect to the registry's
// consistency, so a dispatch never observes a half-updated scope set.
type Registry struct {
	mu      sync.RWMutex
	conns   map[ConnID]*connState
	members map[string]map[ConnID]struct{} // scope key -> connection ids
}

func NewRegistry() *Registry {
	return &Registry{
		conns:   make(map[ConnID]*connState),
		members: make(map[string]map[ConnID]struct{}),
	}
}

// Admit registers a connection and grants its initial scope set in one
// step. There is no partially admitted state.
func (r *Registry) Admit(id ConnID, principal *domain.Principal, send chan []byte, scopes ...domain.ChannelScope) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := &connState{
		id:        id,
		principal: principal,
		scopes:    make(map[string]domain.ChannelScope, len(scopes)),
		send:      send,
	}
	r.conns[id] = state
	for _, scope := range scopes {
		r.index(state, scope)
	}
}

// Join adds one scope membership. Returns false when the connection is not
// admitted (already closed).
func (r *Registry) Join(id ConnID, scope domain.ChannelScope) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.conns[id]
	if !ok {
		return false
	}
	r.index(state, scope)
	return true
}

// Leave removes one scope membership. Unknown connections and scopes the
// connection never held are no-ops.
func (r *Registry) Leave(id ConnID, scope domain.ChannelScope) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.conns[id]
	if !ok {
		return
	}
	r.unindex(state, scope)
}

// Close removes the connection and all of its memberships atomically; no
// membership outlives the connection.
func (r *Registry) Close(id ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.conns[id]
	if !ok {
		return
	}
	for _, scope := range state.scopes {
		r.unindex(state, scope)
	}
	delete(r.conns, id)
}

// Principal returns the principal a connection was admitted with.
func (r *Registry) Principal(id ConnID) (*domain.Principal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return state.principal, true
}

// Scopes returns a snapshot of a connection's current scope set.
func (r *Registry) Scopes(id ConnID) []domain.ChannelScope {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.conns[id]
	if !ok {
		return nil
	}
	scopes := make([]domain.ChannelScope, 0, len(state.scopes))
	for _, scope := range state.scopes {
		scopes = append(scopes, scope)
	}
	return scopes
}

// ConnectionCount reports the number of admitted connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// sendChannels snapshots the outbound channels of every connection admitted
// to the scope. Broadcast targets every connection.
func (r *Registry) sendChannels(scope domain.ChannelScope) []chan []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if scope.Kind == domain.ScopeBroadcast {
		channels := make([]chan []byte, 0, len(r.conns))
		for _, state := range r.conns {
			channels = append(channels, state.send)
		}
		return channels
	}

	ids, ok := r.members[scope.Key()]
	if !ok {
		return nil
	}
	channels := make([]chan []byte, 0, len(ids))
	for id := range ids {
		if state, ok := r.conns[id]; ok {
			channels = append(channels, state.send)
		}
	}
	return channels
}

// index and unindex assume the write lock is held.

func (r *Registry) index(state *connState, scope domain.ChannelScope) {
	key := scope.Key()
	state.scopes[key] = scope
	set, ok := r.members[key]
	if !ok {
		set = make(map[ConnID]struct{})
		r.members[key] = set
	}
	set[state.id] = struct{}{}
}

func (r *Registry) unindex(state *connState, scope domain.ChannelScope) {
	key := scope.Key()
	delete(state.scopes, key)
	if set, ok := r.members[key]; ok {
		delete(set, state.id)
		if len(set) == 0 {
			delete(r.members, key)
		}
	}
}
