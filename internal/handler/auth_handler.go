package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/middleware"
	"github.com/sandoghapp/sandogh-backend/internal/service"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// UserResponse represents an admin user in API responses
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if req.Username == "" || req.Password == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "username", Message: "Username and password are required"},
		})
	}

	result, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return NewUnauthorizedError(c, "Invalid username or password")
		}
		log.Error().Err(err).Str("username", req.Username).Msg("Login failed")
		return NewInternalError(c, "Login failed")
	}

	log.Info().Str("username", result.User.Username).Msg("User logged in")

	return c.JSON(http.StatusOK, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.Format(time.RFC3339),
		User:      toUserResponse(result.User),
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	user, err := h.authService.GetUser(claims)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return NewUnauthorizedError(c, "User no longer exists")
		}
		log.Error().Err(err).Str("subject", claims.Subject).Msg("Failed to load user")
		return NewInternalError(c, "Failed to load user")
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		FullName: user.FullName,
	}
}
