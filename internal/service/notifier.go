// Package service holds the forum's domain logic between the HTTP handlers and
// the repositories.
package service

import (
	"context"

	"thoughtforum/internal/notifications"
)

// Notifier delivers realtime events. Both methods are fire-and-forget.
type Notifier interface {
	Route(ctx context.Context, userID uint, kind notifications.EventKind, payload any)
	Broadcast(ctx context.Context, kind notifications.EventKind, payload any, exceptConnID string)
}

type noopNotifier struct{}

func (noopNotifier) Route(context.Context, uint, notifications.EventKind, any) {}

func (noopNotifier) Broadcast(context.Context, notifications.EventKind, any, string) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
