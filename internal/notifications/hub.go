// Package notifications tracks live websocket connections and routes realtime
// events to them.
package notifications

import (
	"context"
	"errors"
	"sync"

	"thoughtforum/internal/observability"
)

const maxTotalConns = 10000

var (
	ErrHubClosed      = errors.New("notification hub is shut down")
	ErrTooManyClients = errors.New("server connection limit reached")
)

// Hub holds every attached connection, identified or not, for broadcast
// delivery. Identity lives in the Registry.
type Hub struct {
	mu       sync.RWMutex
	conns    map[string]Conn
	closed   bool
	registry *Registry
	log      *observability.WSLogger
}

// NewHub creates a hub backed by registry.
func NewHub(registry *Registry) *Hub {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Hub{
		conns:    make(map[string]Conn),
		registry: registry,
		log:      observability.NewWSLogger("notifications"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notifications" }

func (h *Hub) Registry() *Registry { return h.registry }

// Attach adds conn to the broadcast set.
func (h *Hub) Attach(conn Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	if len(h.conns) >= maxTotalConns {
		return ErrTooManyClients
	}
	h.conns[conn.ID()] = conn
	observability.WebSocketConnectionsTotal.Set(float64(len(h.conns)))
	h.log.LogConnect(context.Background(), conn.ID())
	return nil
}

// Detach removes conn and its presence entry. It returns the user the
// connection was identified as, if any.
func (h *Hub) Detach(conn Conn) (uint, bool) {
	h.mu.Lock()
	_, attached := h.conns[conn.ID()]
	delete(h.conns, conn.ID())
	observability.WebSocketConnectionsTotal.Set(float64(len(h.conns)))
	h.mu.Unlock()

	userID, identified := h.registry.ForgetByConnection(conn)
	if attached {
		h.log.LogDisconnect(context.Background(), conn.ID(), userID, "detached")
	}
	return userID, identified
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast sends msg to every attached connection except exceptID and
// returns how many accepted it.
func (h *Hub) Broadcast(msg []byte, exceptID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for id, conn := range h.conns {
		if id == exceptID {
			continue
		}
		if conn.Send(msg) {
			delivered++
		}
	}
	return delivered
}

// Shutdown closes every connection and refuses new ones.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	h.closed = true
	conns := h.conns
	h.conns = make(map[string]Conn)
	observability.WebSocketConnectionsTotal.Set(0)
	h.mu.Unlock()

	for _, conn := range conns {
		h.registry.ForgetByConnection(conn)
		if closer, ok := conn.(interface{ Close() }); ok {
			closer.Close()
		}
	}
	return nil
}
