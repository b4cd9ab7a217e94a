package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/satriahrh/juru/server/domain/entities"
	"github.com/satriahrh/juru/server/domain/repositories"
)

// Registry is the process-wide map of live call legs.
// The lock only guards the map; per-connection audio state has its own lock
// inside entities.Connection, so appends on different legs never contend here.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]*entities.Connection
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		connections: make(map[string]*entities.Connection),
	}
}

// Register inserts a new connection.
// It fails with ErrDuplicateConnection if the id is already present.
func (r *Registry) Register(conn *entities.Connection) error {
	if err := conn.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connections[conn.ID]; exists {
		return fmt.Errorf("%w: %s", repositories.ErrDuplicateConnection, conn.ID)
	}
	r.connections[conn.ID] = conn
	return nil
}

// Get returns the connection registered under id
func (r *Registry) Get(id string) (*entities.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, exists := r.connections[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", repositories.ErrNotFound, id)
	}
	return conn, nil
}

// Remove deletes the connection registered under id. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.connections, id)
}

// RemoveIfSame deletes id only while it still maps to conn.
// It reports whether anything was removed.
func (r *Registry) RemoveIfSame(conn *entities.Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, exists := r.connections[conn.ID]; exists && current == conn {
		delete(r.connections, conn.ID)
		return true
	}
	return false
}

// FindOther returns another connection that shares the pair id of excludeID.
//
// Connections without a pair id all share the empty pair, which reproduces
// the two-party assumption: with exactly two legs each one finds the other.
// With more than two candidates the earliest connected one wins (ties broken
// by id); callers must not rely on this beyond two-party calls.
func (r *Registry) FindOther(excludeID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pairID := ""
	if speaker, exists := r.connections[excludeID]; exists {
		pairID = speaker.PairID
	}
	return r.findOtherLocked(excludeID, pairID)
}

// FindOtherInPair is FindOther with the pair id supplied by the caller.
// It keeps routing scoped after the speaker itself has left the registry.
func (r *Registry) FindOtherInPair(excludeID, pairID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findOtherLocked(excludeID, pairID)
}

func (r *Registry) findOtherLocked(excludeID, pairID string) (string, bool) {
	var best *entities.Connection
	for id, conn := range r.connections {
		if id == excludeID || conn.PairID != pairID {
			continue
		}
		if best == nil || earlier(conn, best) {
			best = conn
		}
	}
	if best == nil {
		return "", false
	}
	return best.ID, true
}

// Len returns the number of registered connections
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// List returns snapshots of all registered connections ordered by connect time
func (r *Registry) List() []entities.ConnectionInfo {
	r.mu.RLock()
	conns := make([]*entities.Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	sort.Slice(conns, func(i, j int) bool { return earlier(conns[i], conns[j]) })

	infos := make([]entities.ConnectionInfo, 0, len(conns))
	for _, conn := range conns {
		infos = append(infos, conn.Snapshot())
	}
	return infos
}

func earlier(a, b *entities.Connection) bool {
	if !a.ConnectedAt.Equal(b.ConnectedAt) {
		return a.ConnectedAt.Before(b.ConnectedAt)
	}
	return a.ID < b.ID
}
