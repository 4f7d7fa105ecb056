package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sandoghapp/sandogh-backend/internal/service"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// UserIDKey is the context key for the authenticated user ID (subject)
	UserIDKey contextKey = "user_id"
)

// TokenParser validates a bearer token and returns its claims
type TokenParser interface {
	ParseToken(tokenString string) (*service.Claims, error)
}

// AuthMiddleware provides JWT validation middleware
type AuthMiddleware struct {
	parser TokenParser
}

// NewAuthMiddleware creates a new AuthMiddleware backed by the given parser
func NewAuthMiddleware(parser TokenParser) *AuthMiddleware {
	return &AuthMiddleware{parser: parser}
}

// Authenticate returns an Echo middleware that validates JWT tokens
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorizedError(c, "missing authorization header")
			}

			// Check Bearer prefix
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return unauthorizedError(c, "invalid authorization header format")
			}

			claims, err := m.parser.ParseToken(parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				return unauthorizedError(c, "invalid token")
			}

			// Store claims in context
			ctx := context.WithValue(c.Request().Context(), ClaimsKey, claims)
			ctx = context.WithValue(ctx, UserIDKey, claims.Subject)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// GetUserID extracts the authenticated user ID from the context
func GetUserID(c echo.Context) string {
	if id, ok := c.Request().Context().Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetClaims extracts the validated claims from the context
func GetClaims(c echo.Context) *service.Claims {
	if claims, ok := c.Request().Context().Value(ClaimsKey).(*service.Claims); ok {
		return claims
	}
	return nil
}
