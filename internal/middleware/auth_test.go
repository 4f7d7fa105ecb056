package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/service"
)

// stubParser accepts a single known token
type stubParser struct {
	token  string
	claims *service.Claims
}

func (p *stubParser) ParseToken(tokenString string) (*service.Claims, error) {
	if tokenString == p.token {
		return p.claims, nil
	}
	return nil, domain.ErrUnauthorized
}

func newTestParser() *stubParser {
	return &stubParser{
		token: "valid-token",
		claims: &service.Claims{
			Username: "admin",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: "8a9f7e8e-0000-0000-0000-000000000001",
			},
		},
	}
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	e := echo.New()
	m := NewAuthMiddleware(newTestParser())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := m.Authenticate()(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	if err := handler(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestAuthenticate_BadScheme(t *testing.T) {
	e := echo.New()
	m := NewAuthMiddleware(newTestParser())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := m.Authenticate()(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	if err := handler(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	e := echo.New()
	m := NewAuthMiddleware(newTestParser())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := m.Authenticate()(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	if err := handler(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	e := echo.New()
	parser := newTestParser()
	m := NewAuthMiddleware(parser)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handlerCalled := false
	handler := m.Authenticate()(func(c echo.Context) error {
		handlerCalled = true

		if got := GetUserID(c); got != parser.claims.Subject {
			t.Errorf("Expected user ID %s, got %s", parser.claims.Subject, got)
		}
		if claims := GetClaims(c); claims == nil || claims.Username != "admin" {
			t.Error("Expected claims in context")
		}

		return c.String(http.StatusOK, "OK")
	})

	if err := handler(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !handlerCalled {
		t.Error("Expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
}

func TestGetUserID_NoAuth(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if got := GetUserID(c); got != "" {
		t.Errorf("Expected empty user ID, got %s", got)
	}
	if claims := GetClaims(c); claims != nil {
		t.Error("Expected nil claims")
	}
}
