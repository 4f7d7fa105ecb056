package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/testutil"
)

func newAuthFixture(t *testing.T) (*AuthService, *domain.User) {
	t.Helper()

	userRepo := testutil.NewMockUserRepository()
	user := &domain.User{
		ID:       uuid.New(),
		Username: "admin",
		Password: "s3cret",
		FullName: "مدیر صندوق",
	}
	userRepo.Users[user.ID] = user

	return NewAuthService(userRepo, []byte("test-signing-key"), time.Hour), user
}

func TestLogin_Success(t *testing.T) {
	authService, user := newAuthFixture(t)

	result, err := authService.Login("admin", "s3cret")

	assert.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))
}

func TestLogin_WrongPassword(t *testing.T) {
	authService, _ := newAuthFixture(t)

	_, err := authService.Login("admin", "wrong")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UnknownUserSameError(t *testing.T) {
	authService, _ := newAuthFixture(t)

	_, wrongPass := authService.Login("admin", "wrong")
	_, unknownUser := authService.Login("nobody", "wrong")

	assert.Equal(t, wrongPass, unknownUser)
}

func TestParseToken_RoundTrip(t *testing.T) {
	authService, user := newAuthFixture(t)

	result, err := authService.Login("admin", "s3cret")
	assert.NoError(t, err)

	claims, err := authService.ParseToken(result.Token)
	assert.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, user.ID.String(), claims.Subject)

	resolved, err := authService.GetUser(claims)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestParseToken_RejectsEmptyToken(t *testing.T) {
	authService, _ := newAuthFixture(t)

	_, err := authService.ParseToken("")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestParseToken_RejectsWrongKey(t *testing.T) {
	authService, _ := newAuthFixture(t)

	result, err := authService.Login("admin", "s3cret")
	assert.NoError(t, err)

	other := NewAuthService(testutil.NewMockUserRepository(), []byte("different-key"), time.Hour)
	_, err = other.ParseToken(result.Token)

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestParseToken_RejectsTampered(t *testing.T) {
	authService, _ := newAuthFixture(t)

	result, err := authService.Login("admin", "s3cret")
	assert.NoError(t, err)

	_, err = authService.ParseToken(result.Token + "x")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
