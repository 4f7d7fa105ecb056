package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
)

// AuthService handles admin authentication. Accounts are local; tokens are
// HS256 JWTs checked by the auth middleware.
type AuthService struct {
	userRepo domain.UserRepository
	secret   []byte
	expiry   time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, secret []byte, expiry time.Duration) *AuthService {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &AuthService{
		userRepo: userRepo,
		secret:   secret,
		expiry:   expiry,
	}
}

// AuthResult is a successful login: the user and their issued token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Claims are the JWT claims issued at login.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Login checks the credentials and issues a token. Password comparison is
// constant-time; the same error is returned for an unknown username and a
// wrong password.
func (s *AuthService) Login(username, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	want := sha256.Sum256([]byte(user.Password))
	got := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare(want[:], got[:]) != 1 {
		return nil, domain.ErrUnauthorized
	}

	expiresAt := time.Now().Add(s.expiry)
	claims := Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// ParseToken validates a token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, domain.ErrUnauthorized
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthorized
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// GetUser resolves the user a token's subject refers to.
func (s *AuthService) GetUser(claims *Claims) (*domain.User, error) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	return s.userRepo.GetByID(id)
}
