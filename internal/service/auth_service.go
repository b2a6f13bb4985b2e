package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"thoughtforum/internal/auth"
	"thoughtforum/internal/models"
	"thoughtforum/internal/observability"
	"thoughtforum/internal/repository"
	"thoughtforum/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 10

	msgInvalidCredentials = "Invalid email or password"
	msgInvalidRefresh     = "Invalid or expired refresh token"
)

type AuthService struct {
	users   repository.UserRepository
	refresh repository.RefreshTokenRepository
	tokens  *auth.Manager
	revoked auth.RevocationStore
	now     func() time.Time
}

type SignupInput struct {
	Name     string `json:"name" validate:"notblank,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,strongpassword"`
	Gender   string `json:"gender" validate:"notblank,max=32"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by signup, login and refresh.
type AuthResult struct {
	UserID       uint   `json:"_id"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// NewAuthService wires the auth flow. revoked may be nil when Redis is not
// available.
func NewAuthService(
	users repository.UserRepository,
	refresh repository.RefreshTokenRepository,
	tokens *auth.Manager,
	revoked auth.RevocationStore,
) *AuthService {
	return &AuthService{
		users:   users,
		refresh: refresh,
		tokens:  tokens,
		revoked: revoked,
		now:     time.Now,
	}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		observability.AuthEvents.WithLabelValues("signup", "invalid").Inc()
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		observability.AuthEvents.WithLabelValues("signup", "conflict").Inc()
		return nil, models.NewConflictError("User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Gender:   strings.TrimSpace(in.Gender),
		Password: string(hash),
	}
	var res *AuthResult
	err = s.users.Register(ctx, user, func(userID uint) (*models.RefreshToken, error) {
		access, refresh, err := s.pair(userID)
		if err != nil {
			return nil, err
		}
		res = &AuthResult{UserID: userID, AccessToken: access.Value, RefreshToken: refresh.Value}
		return &models.RefreshToken{UserID: userID, Token: refresh.Value, ExpiresAt: refresh.Claims.ExpiresAt.Time}, nil
	})
	if err != nil {
		return nil, err
	}
	observability.AuthEvents.WithLabelValues("signup", "success").Inc()
	return res, nil
}

// Login verifies credentials and replaces the user's refresh token. Unknown
// emails and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		observability.AuthEvents.WithLabelValues("login", "failure").Inc()
		return nil, models.NewAuthError(msgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		observability.AuthEvents.WithLabelValues("login", "failure").Inc()
		return nil, models.NewAuthError(msgInvalidCredentials)
	}

	res, err := s.issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	observability.AuthEvents.WithLabelValues("login", "success").Inc()
	return res, nil
}

// Refresh exchanges a live refresh token for a new pair. The stored token is
// swapped only if it still equals the presented one, so of several concurrent
// refreshes with the same token exactly one succeeds.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.Parse(refreshToken, auth.RefreshToken)
	if err != nil {
		observability.AuthEvents.WithLabelValues("refresh", "invalid").Inc()
		return nil, models.NewAuthError(msgInvalidRefresh)
	}
	userID, _ := claims.UserID()

	access, next, err := s.pair(userID)
	if err != nil {
		return nil, err
	}

	rotated, err := s.refresh.Rotate(ctx, userID, refreshToken, next.Value, next.Claims.ExpiresAt.Time)
	if err != nil {
		return nil, err
	}
	if !rotated {
		observability.AuthEvents.WithLabelValues("refresh", "stale").Inc()
		return nil, models.NewAuthError(msgInvalidRefresh)
	}

	observability.AuthEvents.WithLabelValues("refresh", "success").Inc()
	return &AuthResult{UserID: userID, AccessToken: access.Value, RefreshToken: next.Value}, nil
}

// Logout deletes the caller's refresh token and revokes the access token the
// request was made with.
func (s *AuthService) Logout(ctx context.Context, callerID uint, refreshToken string, access *auth.Claims) error {
	claims, err := s.tokens.Parse(refreshToken, auth.RefreshToken)
	if err != nil {
		return models.NewAuthError(msgInvalidRefresh)
	}
	userID, _ := claims.UserID()
	if userID != callerID {
		return models.NewAuthError("Refresh token does not belong to this user")
	}

	deleted, err := s.refresh.Delete(ctx, userID, refreshToken)
	if err != nil {
		return err
	}
	if !deleted {
		observability.AuthEvents.WithLabelValues("logout", "stale").Inc()
		return models.NewAuthError(msgInvalidRefresh)
	}

	if access != nil && s.revoked != nil {
		if err := s.revoked.Revoke(ctx, access.ID, access.Remaining(s.now())); err != nil {
			observability.GlobalLogger.WarnContext(ctx, "revoke access token failed",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("error", err.Error()))
		}
	}

	observability.AuthEvents.WithLabelValues("logout", "success").Inc()
	return nil
}

// VerifyAccess parses an access token and reports its user, honoring
// revocation. Used by the websocket login frame.
func (s *AuthService) VerifyAccess(ctx context.Context, token string) (uint, error) {
	claims, err := s.tokens.Parse(token, auth.AccessToken)
	if err != nil {
		return 0, models.NewAuthError("Invalid or expired token")
	}
	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err == nil && revoked {
			return 0, models.NewAuthError("Token has been revoked")
		}
	}
	return claims.UserID()
}

func (s *AuthService) issue(ctx context.Context, userID uint) (*AuthResult, error) {
	access, refresh, err := s.pair(userID)
	if err != nil {
		return nil, err
	}
	if err := s.refresh.Replace(ctx, userID, refresh.Value, refresh.Claims.ExpiresAt.Time); err != nil {
		return nil, err
	}
	return &AuthResult{UserID: userID, AccessToken: access.Value, RefreshToken: refresh.Value}, nil
}

func (s *AuthService) pair(userID uint) (*auth.IssuedToken, *auth.IssuedToken, error) {
	access, err := s.tokens.Issue(userID, auth.AccessToken)
	if err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	refresh, err := s.tokens.Issue(userID, auth.RefreshToken)
	if err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	return access, refresh, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
