package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"thoughtforum/internal/middleware"
	"thoughtforum/internal/notifications"
	"thoughtforum/internal/observability"
)

const (
	relayLimit  = 30
	relayWindow = time.Minute
)

var (
	errUnknownEvent   = errors.New("unknown event type")
	errNotIdentified  = errors.New("login required")
	errRelayThrottled = errors.New("too many events, slow down")
)

// wsHandler processes one inbound frame kind for a client.
type wsHandler func(ctx context.Context, client *notifications.Client, payload json.RawMessage) error

func (s *Server) realtimeHandlers() map[notifications.EventKind]wsHandler {
	return map[notifications.EventKind]wsHandler{
		notifications.EventLogin:           s.handleLogin,
		notifications.EventLogout:          s.handleLogout,
		notifications.EventQuestionCreated: s.relay(notifications.EventQuestionCreated),
		notifications.EventAnswerCreated:   s.relay(notifications.EventAnswerCreated),
	}
}

// wsContext is the base context for frame handling. It outlives any single
// request and is cancelled on shutdown.
func (s *Server) wsContext() context.Context {
	if s.shutdownCtx != nil {
		return s.shutdownCtx
	}
	return context.Background()
}

// handleFrame decodes a frame and dispatches it. Rejected frames are answered
// with an error frame; the connection stays open.
func (s *Server) handleFrame(client *notifications.Client, raw []byte) {
	env, err := notifications.Decode(raw)
	if err != nil {
		observability.WebSocketEventsTotal.WithLabelValues("invalid").Inc()
		s.rejectFrame(client, "", err)
		return
	}

	handler, ok := s.wsHandlers[env.Type]
	if !ok {
		observability.WebSocketEventsTotal.WithLabelValues("unknown").Inc()
		s.rejectFrame(client, env.Type, errUnknownEvent)
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(string(env.Type)).Inc()

	ctx, span := observability.GetTraceLayer().TraceWebSocket(s.wsContext(), s.hub.Name(), string(env.Type))
	defer span.End()

	if err := handler(ctx, client, env.Payload); err != nil {
		span.RecordError(err)
		s.rejectFrame(client, env.Type, err)
	}
}

func (s *Server) rejectFrame(client *notifications.Client, kind notifications.EventKind, err error) {
	wsLog.LogError(s.wsContext(), client.ID(), err, string(kind))
	msg, encErr := notifications.Encode(notifications.EventError, notifications.ErrorPayload{
		Event:   kind,
		Message: err.Error(),
	})
	if encErr != nil {
		return
	}
	client.Send(msg)
}

func (s *Server) handleLogin(ctx context.Context, client *notifications.Client, payload json.RawMessage) error {
	var login notifications.LoginPayload
	if len(payload) == 0 || json.Unmarshal(payload, &login) != nil || login.Token == "" {
		return errors.New("token is required")
	}

	userID, err := s.authService.VerifyAccess(ctx, login.Token)
	if err != nil {
		return err
	}
	s.identify(client, userID)
	return nil
}

func (s *Server) handleLogout(_ context.Context, client *notifications.Client, _ json.RawMessage) error {
	if userID, ok := s.hub.Registry().ForgetByConnection(client); ok {
		wsLog.LogDisconnect(s.wsContext(), client.ID(), userID, "logout")
	}
	return nil
}

// relay rebroadcasts a client-originated event to every other connection.
// The payload is forwarded as-is.
func (s *Server) relay(kind notifications.EventKind) wsHandler {
	return func(ctx context.Context, client *notifications.Client, payload json.RawMessage) error {
		userID, ok := s.hub.Registry().UserOf(client)
		if !ok {
			return errNotIdentified
		}

		if s.redis != nil {
			allowed, err := middleware.CheckRateLimit(ctx, s.redis, "ws_relay", fmt.Sprintf("user:%d", userID), relayLimit, relayWindow)
			if err != nil {
				middleware.Logger.WarnContext(ctx, "relay rate limit check failed", "error", err)
			} else if !allowed {
				return errRelayThrottled
			}
		}

		s.router.Broadcast(ctx, kind, payload, client.ID())
		return nil
	}
}
