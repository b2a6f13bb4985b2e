package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtforum_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// WebSocketConnectionsTotal is the gauge of attached WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "thoughtforum_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// PresenceUsers is the gauge of identified users in the presence registry.
	PresenceUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "thoughtforum_presence_users",
		Help: "Number of users with an identified live connection",
	})

	// WebSocketEventsTotal counts inbound WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtforum_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtforum_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// NotificationsRouted counts routed notifications by kind and outcome
	// (delivered, offline, dropped, published).
	NotificationsRouted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtforum_notifications_routed_total",
		Help: "Total notifications handled by the router",
	}, []string{"kind", "outcome"})

	// AuthEvents counts auth flow operations by operation and result.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtforum_auth_events_total",
		Help: "Total auth flow operations",
	}, []string{"operation", "result"})
)
