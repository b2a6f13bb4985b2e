package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"thoughtforum/internal/auth"
	"thoughtforum/internal/config"
	"thoughtforum/internal/models"
	"thoughtforum/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routed struct {
	UserID  uint
	Kind    notifications.EventKind
	Payload any
}

// recordingNotifier captures every Route and Broadcast call.
type recordingNotifier struct {
	mu         sync.Mutex
	routes     []routed
	broadcasts []routed
}

func (n *recordingNotifier) Route(_ context.Context, userID uint, kind notifications.EventKind, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, routed{UserID: userID, Kind: kind, Payload: payload})
}

func (n *recordingNotifier) Broadcast(_ context.Context, kind notifications.EventKind, payload any, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts = append(n.broadcasts, routed{Kind: kind, Payload: payload})
}

func (n *recordingNotifier) Routes() []routed {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]routed(nil), n.routes...)
}

func (n *recordingNotifier) Broadcasts() []routed {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]routed(nil), n.broadcasts...)
}

func testTokenManager() *auth.Manager {
	return auth.NewManager(&config.Config{
		JWTSecret:       "service-test-secret-0123456789abcdef0123",
		JWTIssuer:       "thoughtforum-api",
		JWTAudience:     "thoughtforum-client",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 168 * time.Hour,
	})
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}

func assertAuthError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeAuth)
}
