package review

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookreview/internal/book"
	"bookreview/internal/clients"
	"bookreview/internal/discovery"
	"bookreview/internal/envelope"
	"bookreview/internal/journal"
	"bookreview/internal/user"
)

// platform runs real book and user services and a review router wired to
// them through HTTP existence checks.
type platform struct {
	reviews  http.Handler
	booksSrv *httptest.Server
	usersSrv *httptest.Server
	bookID   uuid.UUID
	userID   uuid.UUID
}

func newPlatform(t *testing.T) *platform {
	t.Helper()
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	bookSvc := book.NewService(book.NewMemoryStore(), logger)
	booksRouter := chi.NewRouter()
	book.NewHandler(bookSvc, logger).Routes(booksRouter)
	booksSrv := httptest.NewServer(booksRouter)
	t.Cleanup(booksSrv.Close)

	userSvc := user.NewService(user.NewMemoryStore(), nil, logger)
	usersRouter := chi.NewRouter()
	user.NewHandler(userSvc, logger).Routes(usersRouter)
	usersSrv := httptest.NewServer(usersRouter)
	t.Cleanup(usersSrv.Close)

	b, err := bookSvc.AddBook(ctx, "Dune", "Frank Herbert")
	require.NoError(t, err)
	u, err := userSvc.RegisterUser(ctx, "ada", "ada@example.com", "correcthorse")
	require.NoError(t, err)

	resolver := discovery.NewStaticResolver(map[string][]string{
		"books": {booksSrv.URL},
		"users": {usersSrv.URL},
	})
	j, err := journal.New(journal.NewMemoryStore())
	require.NoError(t, err)

	svc := NewService(NewMemoryStore(),
		clients.NewBookChecker(resolver, clients.WithTimeout(time.Second)),
		clients.NewUserChecker(resolver, clients.WithTimeout(time.Second)),
		logger, WithJournal(j))
	r := chi.NewRouter()
	NewHandler(svc, logger).Routes(r)

	return &platform{reviews: r, booksSrv: booksSrv, usersSrv: usersSrv, bookID: b.ID, userID: u.ID}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func reviewBody(rating int, bookID, userID uuid.UUID) string {
	return fmt.Sprintf(`{"rating":%d,"book_id":%q,"user_id":%q}`, rating, bookID, userID)
}

func TestReviewEndToEnd(t *testing.T) {
	p := newPlatform(t)

	rec := do(t, p.reviews, http.MethodPost, "/api/v1/reviews", reviewBody(5, p.bookID, p.userID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created, err := envelope.Decode[Response](rec.Body)
	require.NoError(t, err)
	require.True(t, created.Success)
	require.True(t, created.HasData())
	assert.Empty(t, created.Error)
	assert.NotEqual(t, uuid.Nil, created.Data.ID)
	assert.Equal(t, 5, created.Data.Rating)
	assert.Equal(t, p.bookID, created.Data.BookID)
	assert.Equal(t, p.userID, created.Data.UserID)

	rec = do(t, p.reviews, http.MethodGet, "/api/v1/reviews/"+created.Data.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	fetched, err := envelope.Decode[Response](rec.Body)
	require.NoError(t, err)
	assert.Equal(t, *created.Data, *fetched.Data)

	rec = do(t, p.reviews, http.MethodGet, "/api/v1/reviews/book/"+p.bookID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	byBook, err := envelope.Decode[[]Response](rec.Body)
	require.NoError(t, err)
	assert.Len(t, *byBook.Data, 1)

	rec = do(t, p.reviews, http.MethodPut, "/api/v1/reviews/"+created.Data.ID.String(), reviewBody(3, p.bookID, p.userID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, p.reviews, http.MethodGet, "/api/v1/reviews/"+created.Data.ID.String()+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	history, err := envelope.Decode[[]HistoryEntry](rec.Body)
	require.NoError(t, err)
	require.Len(t, *history.Data, 2)
	assert.Equal(t, 3, (*history.Data)[1].Review.Rating)
}

func TestReviewMissingReferences(t *testing.T) {
	p := newPlatform(t)

	rec := do(t, p.reviews, http.MethodPost, "/api/v1/reviews", reviewBody(4, uuid.New(), p.userID))
	require.Equal(t, http.StatusNotFound, rec.Code)
	resp, err := envelope.Decode[struct{}](rec.Body)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.False(t, resp.HasData())
	assert.Equal(t, "Book not found", resp.Message)

	rec = do(t, p.reviews, http.MethodPost, "/api/v1/reviews", reviewBody(4, p.bookID, uuid.New()))
	require.Equal(t, http.StatusNotFound, rec.Code)
	resp, err = envelope.Decode[struct{}](rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "User not found", resp.Message)

	rec = do(t, p.reviews, http.MethodGet, "/api/v1/reviews", "")
	list, err := envelope.Decode[[]Response](rec.Body)
	require.NoError(t, err)
	assert.Empty(t, *list.Data)
}

func TestReviewDependencyDown(t *testing.T) {
	p := newPlatform(t)
	p.booksSrv.Close()

	rec := do(t, p.reviews, http.MethodPost, "/api/v1/reviews", reviewBody(4, p.bookID, p.userID))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	resp, err := envelope.Decode[struct{}](rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "Could not validate book", resp.Message)
	assert.Equal(t, "dependency unavailable", resp.Error)
}

func TestReviewValidation(t *testing.T) {
	p := newPlatform(t)

	tests := []struct {
		name string
		body string
	}{
		{"rating too high", reviewBody(6, p.bookID, p.userID)},
		{"rating missing", fmt.Sprintf(`{"book_id":%q,"user_id":%q}`, p.bookID, p.userID)},
		{"book id missing", fmt.Sprintf(`{"rating":3,"user_id":%q}`, p.userID)},
		{"malformed id", `{"rating":3,"book_id":"nope","user_id":"nope"}`},
		{"not json", `rating=3`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, p.reviews, http.MethodPost, "/api/v1/reviews", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestReviewDeleteTwice(t *testing.T) {
	p := newPlatform(t)

	rec := do(t, p.reviews, http.MethodPost, "/api/v1/reviews", reviewBody(2, p.bookID, p.userID))
	require.Equal(t, http.StatusCreated, rec.Code)
	created, err := envelope.Decode[Response](rec.Body)
	require.NoError(t, err)
	path := "/api/v1/reviews/" + created.Data.ID.String()

	// Deleting never consults the other services.
	p.booksSrv.Close()
	p.usersSrv.Close()

	rec = do(t, p.reviews, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, p.reviews, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, p.reviews, http.MethodDelete, "/api/v1/reviews/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, p.reviews, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewInvalidPathID(t *testing.T) {
	p := newPlatform(t)

	rec := do(t, p.reviews, http.MethodGet, "/api/v1/reviews/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, p.reviews, http.MethodGet, "/api/v1/reviews/user/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
