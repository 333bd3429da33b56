// internal/user/service.go
package user

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the user service.
type Service interface {
	ListUsers(ctx context.Context) ([]*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	RegisterUser(ctx context.Context, username, email, password string) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// Store persists users. Insert reports ErrEmailTaken or ErrUsernameTaken
// when a unique constraint is hit.
type Store interface {
	List(ctx context.Context) ([]*User, error)
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Insert(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}
