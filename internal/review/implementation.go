// internal/review/implementation.go
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"bookreview/internal/clients"
	"bookreview/internal/journal"
)

const defaultWriteTimeout = 5 * time.Second

// service implements the Service interface.
type service struct {
	store        Store
	books        clients.ExistenceChecker[clients.Book]
	users        clients.ExistenceChecker[clients.User]
	journal      *journal.Journal
	writeTimeout time.Duration
	logger       zerolog.Logger
}

type Option func(*service)

// WithJournal records every successful write in j.
func WithJournal(j *journal.Journal) Option {
	return func(s *service) { s.journal = j }
}

// WithWriteTimeout bounds a store write once it has started.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// NewService creates a review service that confirms book and user
// references with the given checkers before writing.
func NewService(store Store, books clients.ExistenceChecker[clients.Book], users clients.ExistenceChecker[clients.User], logger zerolog.Logger, opts ...Option) Service {
	s := &service{
		store:        store,
		books:        books,
		users:        users,
		writeTimeout: defaultWriteTimeout,
		logger:       logger.With().Str("component", "review_service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) ListReviews(ctx context.Context) ([]*Review, error) {
	reviews, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

func (s *service) GetReview(ctx context.Context, id uuid.UUID) (*Review, error) {
	return s.store.Get(ctx, id)
}

func (s *service) ListByBook(ctx context.Context, bookID uuid.UUID) ([]*Review, error) {
	reviews, err := s.store.ListByBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("list reviews for book %s: %w", bookID, err)
	}
	return reviews, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Review, error) {
	reviews, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reviews for user %s: %w", userID, err)
	}
	return reviews, nil
}

// SaveReview validates the rating, confirms both references exist and then
// stores a new review.
func (s *service) SaveReview(ctx context.Context, rating int, bookID, userID uuid.UUID) (*Review, error) {
	if err := validateInput(rating, bookID, userID); err != nil {
		return nil, err
	}

	refs, err := s.checkReferences(ctx, &bookID, &userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r := &Review{
		ID:        uuid.New(),
		Rating:    rating,
		BookID:    bookID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.write(ctx, func(ctx context.Context) error { return s.store.Insert(ctx, r) }); err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}

	s.logger.Info().
		Str("review_id", r.ID.String()).
		Str("book_title", refs.book.Title).
		Str("username", refs.user.Username).
		Int("rating", r.Rating).
		Msg("review created")
	s.record(ctx, r.ID, journal.ReviewCreated, toResponse(r))
	return r, nil
}

// UpdateReview re-checks only the references that changed.
func (s *service) UpdateReview(ctx context.Context, id uuid.UUID, rating int, bookID, userID uuid.UUID) (*Review, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(rating, bookID, userID); err != nil {
		return nil, err
	}

	var checkBook, checkUser *uuid.UUID
	if bookID != r.BookID {
		checkBook = &bookID
	}
	if userID != r.UserID {
		checkUser = &userID
	}
	if _, err := s.checkReferences(ctx, checkBook, checkUser); err != nil {
		return nil, err
	}

	r.Rating = rating
	r.BookID = bookID
	r.UserID = userID
	r.UpdatedAt = time.Now().UTC()
	if err := s.write(ctx, func(ctx context.Context) error { return s.store.Update(ctx, r) }); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.logger.Info().
		Str("review_id", r.ID.String()).
		Bool("book_changed", checkBook != nil).
		Bool("user_changed", checkUser != nil).
		Msg("review updated")
	s.record(ctx, r.ID, journal.ReviewUpdated, toResponse(r))
	return r, nil
}

// DeleteReview removes a review without consulting other services.
func (s *service) DeleteReview(ctx context.Context, id uuid.UUID) error {
	if err := s.write(ctx, func(ctx context.Context) error { return s.store.Delete(ctx, id) }); err != nil {
		return err
	}

	s.logger.Info().Str("review_id", id.String()).Msg("review deleted")
	s.record(ctx, id, journal.ReviewDeleted, nil)
	return nil
}

// History returns the journal of a review. Deleted reviews keep their history.
func (s *service) History(ctx context.Context, id uuid.UUID) ([]journal.Entry, error) {
	if s.journal == nil {
		if _, err := s.store.Get(ctx, id); err != nil {
			return nil, err
		}
		return []journal.Entry{}, nil
	}
	entries, err := s.journal.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(entries) == 0 {
		if _, err := s.store.Get(ctx, id); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func validateInput(rating int, bookID, userID uuid.UUID) error {
	if rating < MinRating || rating > MaxRating {
		return &ValidationError{
			Field:  "rating",
			Reason: fmt.Sprintf("must be between %d and %d", MinRating, MaxRating),
		}
	}
	if bookID == uuid.Nil {
		return &ValidationError{Field: "book_id", Reason: "must be provided"}
	}
	if userID == uuid.Nil {
		return &ValidationError{Field: "user_id", Reason: "must be provided"}
	}
	return nil
}

type references struct {
	book *clients.Book
	user *clients.User
}

// checkReferences runs the requested checks concurrently and waits for both.
// A nil id skips that check. When both fail the book failure is returned.
func (s *service) checkReferences(ctx context.Context, bookID, userID *uuid.UUID) (references, error) {
	var (
		refs    references
		g       errgroup.Group
		bookOut clients.Outcome[clients.Book]
		userOut clients.Outcome[clients.User]
	)
	if bookID != nil {
		g.Go(func() error {
			bookOut = s.books.Check(ctx, *bookID)
			return nil
		})
	}
	if userID != nil {
		g.Go(func() error {
			userOut = s.users.Check(ctx, *userID)
			return nil
		})
	}
	_ = g.Wait()

	if bookID != nil {
		if err := classify(KindBook, *bookID, bookOut); err != nil {
			return refs, err
		}
		refs.book = bookOut.Entity
	}
	if userID != nil {
		if err := classify(KindUser, *userID, userOut); err != nil {
			return refs, err
		}
		refs.user = userOut.Entity
	}
	if refs.book == nil {
		refs.book = &clients.Book{}
	}
	if refs.user == nil {
		refs.user = &clients.User{}
	}
	return refs, nil
}

func classify[T any](kind Kind, id uuid.UUID, out clients.Outcome[T]) error {
	switch out.Status {
	case clients.StatusFound:
		return nil
	case clients.StatusNotFound:
		return &ReferenceNotFoundError{Kind: kind, ID: id}
	case clients.StatusRemoteError:
		return &DependencyError{Kind: kind, Cause: CauseRemoteError, Status: out.HTTPStatus, Message: out.Message}
	case clients.StatusUnreachable:
		return &DependencyError{Kind: kind, Cause: CauseUnreachable, Err: out.Err}
	default:
		return fmt.Errorf("%s check returned unknown outcome %d", kind, out.Status)
	}
}

// write runs fn detached from the caller's cancellation so a started write
// is never abandoned halfway. It is still bounded by the write timeout.
func (s *service) write(ctx context.Context, fn func(context.Context) error) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()
	return fn(wctx)
}

// record appends to the journal. Failures are logged; the write already happened.
func (s *service) record(ctx context.Context, id uuid.UUID, entryType string, payload any) {
	if s.journal == nil {
		return
	}
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()
	if err := s.journal.Record(jctx, id, entryType, payload); err != nil {
		s.logger.Error().Err(err).
			Str("review_id", id.String()).
			Str("entry_type", entryType).
			Msg("failed to record journal entry")
	}
}
