// internal/user/implementation.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var errInvalidCredentials = errors.New("invalid credentials")

// service implements the Service interface.
type service struct {
	store       Store
	rateLimiter *rate.Limiter
	logger      zerolog.Logger
}

// NewService creates a new user service. limiter throttles registration
// and authentication attempts; nil disables throttling.
func NewService(store Store, limiter *rate.Limiter, logger zerolog.Logger) Service {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &service{
		store:       store,
		rateLimiter: limiter,
		logger:      logger.With().Str("component", "user_service").Logger(),
	}
}

// ListUsers returns every user.
func (s *service) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser retrieves a user by ID.
func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.store.Get(ctx, id)
}

// GetUserByEmail retrieves a user by email address.
func (s *service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.store.GetByEmail(ctx, normalizeEmail(email))
}

// RegisterUser creates a user after checking the email is free.
func (s *service) RegisterUser(ctx context.Context, username, email, password string) (*User, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	email = normalizeEmail(email)
	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		s.logger.Warn().Str("email", email).Msg("email already in use")
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, salt, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    time.Now().UTC(),
	}
	// The pre-check above races with concurrent registrations; the store's
	// unique constraint is authoritative.
	if err := s.store.Insert(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	s.logger.Info().Str("user_id", u.ID.String()).Msg("user registered")
	return u, nil
}

// Authenticate verifies credentials and returns the matching user.
func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	u, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	ok, err := verifyPassword(password, u.Salt, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if !ok {
		return nil, errInvalidCredentials
	}
	return u, nil
}

// DeleteUser removes a user. Reviews referencing the user are left in place.
func (s *service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", id.String()).Msg("user deleted")
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
