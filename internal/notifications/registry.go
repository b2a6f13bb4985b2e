package notifications

import (
	"sync"

	"thoughtforum/internal/observability"
)

// Conn is a live connection that frames can be pushed to.
type Conn interface {
	ID() string
	// Send queues msg without blocking and reports whether it was accepted.
	Send(msg []byte) bool
}

// Registry maps authenticated users to their current connection. A user has at
// most one entry; identifying again from a new connection replaces the old one.
type Registry struct {
	mu     sync.RWMutex
	byUser map[uint]Conn
	byConn map[string]uint
}

// NewRegistry returns an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[uint]Conn),
		byConn: make(map[string]uint),
	}
}

// Identify binds userID to conn and returns the connection it superseded, if any.
func (r *Registry) Identify(conn Conn, userID uint) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	// The connection was identified as someone else before.
	if prevUser, ok := r.byConn[conn.ID()]; ok && prevUser != userID {
		if cur, ok := r.byUser[prevUser]; ok && cur.ID() == conn.ID() {
			delete(r.byUser, prevUser)
		}
	}

	var superseded Conn
	if prev, ok := r.byUser[userID]; ok && prev.ID() != conn.ID() {
		delete(r.byConn, prev.ID())
		superseded = prev
	}

	r.byUser[userID] = conn
	r.byConn[conn.ID()] = userID
	observability.PresenceUsers.Set(float64(len(r.byUser)))
	return superseded
}

// Forget removes the entry for userID.
func (r *Registry) Forget(userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.byUser[userID]; ok {
		delete(r.byConn, conn.ID())
		delete(r.byUser, userID)
	}
	observability.PresenceUsers.Set(float64(len(r.byUser)))
}

// ForgetByConnection removes the entry owned by conn. An entry that has since
// moved to a newer connection is left alone.
func (r *Registry) ForgetByConnection(conn Conn) (uint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[conn.ID()]
	if !ok {
		return 0, false
	}
	delete(r.byConn, conn.ID())

	if cur, ok := r.byUser[userID]; ok && cur.ID() == conn.ID() {
		delete(r.byUser, userID)
	}
	observability.PresenceUsers.Set(float64(len(r.byUser)))
	return userID, true
}

// Lookup returns the current connection of userID.
func (r *Registry) Lookup(userID uint) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byUser[userID]
	return conn, ok
}

// UserOf returns the user a connection is identified as.
func (r *Registry) UserOf(conn Conn) (uint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.byConn[conn.ID()]
	return userID, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Connections returns a snapshot of the user to connection map.
func (r *Registry) Connections() map[uint]Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uint]Conn, len(r.byUser))
	for userID, conn := range r.byUser {
		out[userID] = conn
	}
	return out
}
