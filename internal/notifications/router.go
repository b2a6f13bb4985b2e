package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"thoughtforum/internal/observability"
)

// broadcastFrame is the Redis payload on the broadcast channel. Except holds
// the origin connection id so the sender's own socket is skipped.
type broadcastFrame struct {
	Except  string          `json:"except,omitempty"`
	Message json.RawMessage `json:"message"`
}

// Router delivers targeted events through the presence registry and fans out
// broadcast events to every connection. Delivery is fire-and-forget: callers
// never see an error.
type Router struct {
	hub      *Hub
	notifier *Notifier

	mu     sync.Mutex
	cancel context.CancelFunc
	// subscribed is set while this process's Redis subscriber runs. Frames
	// only go through Redis in that state.
	subscribed bool
}

// NewRouter creates a router for hub. Once Start has subscribed an enabled
// notifier, every frame goes through Redis and is delivered by each process's
// subscriber. Until then delivery is local.
func NewRouter(hub *Hub, notifier *Notifier) *Router {
	return &Router{hub: hub, notifier: notifier}
}

func (r *Router) Hub() *Hub { return r.hub }

// Start subscribes to Redis when cross-process fan-out is enabled.
func (r *Router) Start(ctx context.Context) error {
	if !r.notifier.Enabled() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return nil
	}

	subCtx, cancel := context.WithCancel(ctx)
	if err := r.notifier.StartPatternSubscriber(subCtx, r.handleRemote); err != nil {
		cancel()
		return err
	}
	r.cancel = cancel
	r.subscribed = true
	return nil
}

func (r *Router) fanout() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subscribed
}

// Route sends kind/payload to userID's live connection, or drops it when the
// user is not connected.
func (r *Router) Route(ctx context.Context, userID uint, kind EventKind, payload any) {
	msg, err := Encode(kind, payload)
	if err != nil {
		observability.NotificationsRouted.WithLabelValues(string(kind), "error").Inc()
		observability.GlobalLogger.ErrorContext(ctx, "encode notification", slog.String("error", err.Error()))
		return
	}

	if r.fanout() && r.publish(ctx, kind, func(ctx context.Context) error {
		return r.notifier.PublishUser(ctx, userID, string(msg))
	}) {
		return
	}
	r.deliver(userID, kind, msg)
}

// Broadcast sends kind/payload to every attached connection except exceptConnID.
func (r *Router) Broadcast(ctx context.Context, kind EventKind, payload any, exceptConnID string) {
	msg, err := Encode(kind, payload)
	if err != nil {
		observability.NotificationsRouted.WithLabelValues(string(kind), "error").Inc()
		observability.GlobalLogger.ErrorContext(ctx, "encode broadcast", slog.String("error", err.Error()))
		return
	}

	if r.fanout() {
		frame, err := json.Marshal(broadcastFrame{Except: exceptConnID, Message: msg})
		if err != nil {
			observability.NotificationsRouted.WithLabelValues(string(kind), "error").Inc()
			return
		}
		if r.publish(ctx, kind, func(ctx context.Context) error {
			return r.notifier.PublishBroadcast(ctx, string(frame))
		}) {
			return
		}
	}

	r.hub.Broadcast(msg, exceptConnID)
	observability.NotificationsRouted.WithLabelValues(string(kind), "broadcast").Inc()
}

// Shutdown stops the Redis subscriber and closes every connection.
func (r *Router) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.subscribed = false
	r.mu.Unlock()
	return r.hub.Shutdown(ctx)
}

// publish reports whether fn handed the frame to Redis. On failure the caller
// falls back to local delivery.
func (r *Router) publish(ctx context.Context, kind EventKind, fn func(context.Context) error) bool {
	// Detached from request cancellation so a finished request still publishes.
	pubCtx, span := observability.GetTraceLayer().TraceRedisOperation(context.WithoutCancel(ctx), "publish")
	defer span.End()

	if err := fn(pubCtx); err != nil {
		observability.NotificationsRouted.WithLabelValues(string(kind), "publish_failed").Inc()
		observability.GlobalLogger.WarnContext(ctx, "publish notification failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
		return false
	}
	observability.NotificationsRouted.WithLabelValues(string(kind), "published").Inc()
	return true
}

func (r *Router) deliver(userID uint, kind EventKind, msg []byte) {
	conn, ok := r.hub.Registry().Lookup(userID)
	if !ok {
		observability.NotificationsRouted.WithLabelValues(string(kind), "offline").Inc()
		return
	}
	if !conn.Send(msg) {
		observability.NotificationsRouted.WithLabelValues(string(kind), "dropped").Inc()
		return
	}
	observability.NotificationsRouted.WithLabelValues(string(kind), "delivered").Inc()
}

// handleRemote performs local delivery of a frame received from Redis.
func (r *Router) handleRemote(channel, payload string) {
	if channel == BroadcastChannel {
		var frame broadcastFrame
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			observability.GlobalLogger.Warn("invalid broadcast frame", slog.String("error", err.Error()))
			return
		}
		r.hub.Broadcast(frame.Message, frame.Except)
		return
	}

	userID, ok := parseUserChannel(channel)
	if !ok {
		observability.GlobalLogger.Warn("invalid notification channel", slog.String("channel", channel))
		return
	}
	kind := EventKind("unknown")
	if env, err := Decode([]byte(payload)); err == nil {
		kind = env.Type
	}
	r.deliver(userID, kind, []byte(payload))
}
