// internal/clients/outcome.go
package clients

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Status classifies the result of a remote existence check.
type Status int

const (
	StatusFound Status = iota + 1
	StatusNotFound
	StatusUnreachable
	StatusRemoteError
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusUnreachable:
		return "unreachable"
	case StatusRemoteError:
		return "remote_error"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of one existence check.
//
// Entity is set only for StatusFound. HTTPStatus and Message describe a
// StatusRemoteError. Err carries the transport failure behind StatusUnreachable.
type Outcome[T any] struct {
	Status     Status
	Entity     *T
	HTTPStatus int
	Message    string
	Err        error
}

func Found[T any](entity T) Outcome[T] {
	return Outcome[T]{Status: StatusFound, Entity: &entity}
}

func NotFound[T any]() Outcome[T] {
	return Outcome[T]{Status: StatusNotFound}
}

func Unreachable[T any](err error) Outcome[T] {
	return Outcome[T]{Status: StatusUnreachable, Err: err}
}

func RemoteError[T any](status int, message string) Outcome[T] {
	return Outcome[T]{Status: StatusRemoteError, HTTPStatus: status, Message: message}
}

func (o Outcome[T]) String() string {
	switch o.Status {
	case StatusRemoteError:
		return fmt.Sprintf("remote_error(%d, %q)", o.HTTPStatus, o.Message)
	case StatusUnreachable:
		return fmt.Sprintf("unreachable(%v)", o.Err)
	default:
		return o.Status.String()
	}
}

// ExistenceChecker confirms that an entity exists in a remote service.
type ExistenceChecker[T any] interface {
	Check(ctx context.Context, id uuid.UUID) Outcome[T]
}

// Book is the part of a remote book the review service relies on.
type Book struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Author string    `json:"author"`
}

// User is the part of a remote user the review service relies on.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}
