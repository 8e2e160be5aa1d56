package registry

import (
	"errors"
	"sync"
	"time"
)

// ErrCapacityExceeded is returned when a user already holds the maximum
// number of concurrent connections. Policy is reject-new: existing
// connections are never evicted to make room.
var ErrCapacityExceeded = errors.New("connection capacity exceeded")

// Sender pushes payloads to one live transport session.
type Sender interface {
	Push(payload []byte) error
	Close() error
}

// Connection is one live session owned by the registry. The identity fields
// are fixed at registration and never change for the connection's life.
type Connection struct {
	ID          string
	UserID      int
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
	Sender      Sender
}

// Registry tracks active connections grouped per user and enforces the
// per-user concurrent-client limit.
type Registry struct {
	mu     sync.RWMutex
	max    int
	byUser map[int]map[string]*Connection
	byID   map[string]*Connection
}

// New creates a registry admitting at most maxClientsPerUser connections per
// user.
func New(maxClientsPerUser int) *Registry {
	return &Registry{
		max:    maxClientsPerUser,
		byUser: make(map[int]map[string]*Connection),
		byID:   make(map[string]*Connection),
	}
}

// Register admits the connection or rejects it with ErrCapacityExceeded.
// Admission and the group-size check are a single critical section, so two
// concurrent attempts for the same user cannot both slip past the limit.
func (r *Registry) Register(conn *Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.byUser[conn.UserID]
	if ok && len(group) >= r.max {
		return ErrCapacityExceeded
	}
	if !ok {
		group = make(map[string]*Connection)
		r.byUser[conn.UserID] = group
	}
	group[conn.ID] = conn
	r.byID[conn.ID] = conn
	return nil
}

// Unregister removes a connection. Unknown or already-removed ids are a
// no-op.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.byID[connID]
	if !ok {
		return
	}
	delete(r.byID, connID)
	if group, ok := r.byUser[conn.UserID]; ok {
		delete(group, connID)
		if len(group) == 0 {
			delete(r.byUser, conn.UserID)
		}
	}
}

// Connections returns a snapshot of the user's session group.
func (r *Registry) Connections(userID int) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	group := r.byUser[userID]
	conns := make([]*Connection, 0, len(group))
	for _, conn := range group {
		conns = append(conns, conn)
	}
	return conns
}

// ActiveCount reports the size of the user's session group.
func (r *Registry) ActiveCount(userID int) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID])
}
