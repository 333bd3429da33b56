// internal/review/errors.go
package review

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("review not found")

// Kind names the referenced entity a check was made for.
type Kind string

const (
	KindBook Kind = "book"
	KindUser Kind = "user"
)

// ValidationError reports bad input. It is returned before any remote call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// ReferenceNotFoundError reports that the owning service confirmed the
// referenced entity does not exist.
type ReferenceNotFoundError struct {
	Kind Kind
	ID   uuid.UUID
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id: %s", e.Kind, e.ID)
}

// Cause distinguishes the two ways a dependency can fail.
type Cause int

const (
	CauseUnreachable Cause = iota + 1
	CauseRemoteError
)

func (c Cause) String() string {
	switch c {
	case CauseUnreachable:
		return "unreachable"
	case CauseRemoteError:
		return "remote_error"
	default:
		return "unknown"
	}
}

// DependencyError reports that a referenced entity could not be confirmed
// because its owning service failed. Status and Message are set for
// CauseRemoteError; Err is set for CauseUnreachable.
type DependencyError struct {
	Kind    Kind
	Cause   Cause
	Status  int
	Message string
	Err     error
}

func (e *DependencyError) Error() string {
	switch e.Cause {
	case CauseRemoteError:
		return fmt.Sprintf("%s service error (%d): %s", e.Kind, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s service unreachable: %v", e.Kind, e.Err)
	}
}

func (e *DependencyError) Unwrap() error { return e.Err }
