// Package middleware provides authentication, logging, metrics and rate limiting middleware.
package middleware

import (
	"context"
	"strings"

	"thoughtforum/internal/auth"
	"thoughtforum/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by VerifyAccessToken.
const (
	LocalUserID      = "userID"
	LocalTokenClaims = "tokenClaims"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// VerifyAccessToken rejects requests without a valid, unrevoked access token
// and attaches the caller's user ID to the request.
func VerifyAccessToken(tokens *auth.Manager, revoked auth.RevocationStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := BearerToken(c)
		if raw == "" {
			return models.RespondWithError(c, models.NewAuthError("Authorization required"))
		}

		claims, err := tokens.Parse(raw, auth.AccessToken)
		if err != nil {
			return models.RespondWithError(c, models.NewAuthError("Invalid or expired token"))
		}

		if revoked != nil {
			isRevoked, rerr := revoked.IsRevoked(c.UserContext(), claims.ID)
			if rerr != nil {
				// Revocation lookups fail open; the token is still signed and unexpired.
				Logger.WarnContext(c.UserContext(), "token revocation check failed", "error", rerr)
			} else if isRevoked {
				return models.RespondWithError(c, models.NewAuthError("Token has been revoked"))
			}
		}

		userID, _ := claims.UserID()
		c.Locals(LocalUserID, userID)
		c.Locals(LocalTokenClaims, claims)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))

		return c.Next()
	}
}

// UserID returns the authenticated user ID stored by VerifyAccessToken.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok && id != 0
}

// TokenClaims returns the access token claims stored by VerifyAccessToken.
func TokenClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals(LocalTokenClaims).(*auth.Claims)
	return claims, ok
}
