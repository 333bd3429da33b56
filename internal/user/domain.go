// internal/user/domain.go
package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already in use")
	ErrUsernameTaken = errors.New("username already in use")
	ErrRateLimited   = errors.New("rate limit exceeded")
)

// User is a registered reviewer. Credentials never leave this package.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Salt         string
	CreatedAt    time.Time
}

// Response is the public representation of a user.
type Response struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

func toResponse(u *User) Response {
	return Response{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

func toResponses(users []*User) []Response {
	out := make([]Response, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u))
	}
	return out
}
