package server

import (
	"errors"
	"strings"

	"thoughtforum/internal/middleware"
	"thoughtforum/internal/notifications"
	"thoughtforum/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

var wsLog = observability.NewWSLogger("notifications")

// WebsocketUpgrade rejects plain HTTP requests on the websocket route. A valid
// access token in ?token= or the Authorization header identifies the
// connection straight away; a missing or invalid one leaves it anonymous until
// it sends a login frame.
func (s *Server) WebsocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		token = middleware.BearerToken(c)
	}
	if token != "" {
		if userID, err := s.authService.VerifyAccess(c.UserContext(), token); err == nil {
			c.Locals(middleware.LocalUserID, userID)
		}
	}
	return c.Next()
}

// WebsocketHandler attaches each connection to the notification hub and
// dispatches its frames through the realtime handler table.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client := notifications.NewClient(s.hub, conn)
		if err := s.hub.Attach(client); err != nil {
			if errors.Is(err, notifications.ErrTooManyClients) {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
			}
			_ = conn.Close()
			return
		}

		if userID, ok := conn.Locals(middleware.LocalUserID).(uint); ok && userID != 0 {
			s.identify(client, userID)
		}

		client.IncomingHandler = s.handleFrame

		go client.WritePump()
		client.ReadPump()
	})
}

func (s *Server) identify(client *notifications.Client, userID uint) {
	// The superseded connection stays attached and keeps receiving broadcasts.
	s.hub.Registry().Identify(client, userID)
	observability.WebSocketEventsTotal.WithLabelValues("identify").Inc()
	wsLog.LogIdentify(s.wsContext(), client.ID(), userID)
}
