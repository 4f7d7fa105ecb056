package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an admin-panel account. The fund runs with a handful of local
// admin users; there is no external identity provider.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserRepository interface {
	GetByID(id uuid.UUID) (*User, error)
	GetByUsername(username string) (*User, error)
}
