package clients

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookreview/internal/chaos"
	"bookreview/internal/envelope"
)

type staticResolver string

func (s staticResolver) Resolve(context.Context, string) (string, error) {
	return string(s), nil
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, string) (string, error) {
	return "", errors.New("no instances registered")
}

// fakeBooks serves GET /api/v1/books/{id} with the given handler behind an injector.
func fakeBooks(t *testing.T, inj *chaos.Injector, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Use(inj.Middleware)
	r.Get("/api/v1/books/{id}", h)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newInjector() *chaos.Injector {
	return chaos.NewInjector(zerolog.New(io.Discard))
}

func writeRaw(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestCheckClassification(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		want       Status
		wantStatus int
		wantMsg    string
	}{
		{
			name: "found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				envelope.OK(w, Book{ID: id, Title: "Dune", Author: "Frank Herbert"})
			},
			want: StatusFound,
		},
		{
			name:    "success with null data",
			handler: writeRaw(http.StatusOK, `{"success":true,"data":null,"timestamp":"2024-01-01T00:00:00Z"}`),
			want:    StatusNotFound,
		},
		{
			name:    "404",
			handler: writeRaw(http.StatusNotFound, `{"success":false,"error":"not found"}`),
			want:    StatusNotFound,
		},
		{
			name:    "404 without body",
			handler: writeRaw(http.StatusNotFound, ``),
			want:    StatusNotFound,
		},
		{
			name:    "200 failure envelope saying not found",
			handler: writeRaw(http.StatusOK, `{"success":false,"message":"User not found","error":"User not found with id"}`),
			want:    StatusNotFound,
		},
		{
			name:       "200 failure envelope other error",
			handler:    writeRaw(http.StatusOK, `{"success":false,"message":"Failed to retrieve user","error":"db down"}`),
			want:       StatusRemoteError,
			wantStatus: http.StatusOK,
			wantMsg:    "Failed to retrieve user",
		},
		{
			name:       "500 envelope",
			handler:    writeRaw(http.StatusInternalServerError, `{"success":false,"error":"an internal error occurred"}`),
			want:       StatusRemoteError,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "an internal error occurred",
		},
		{
			name:       "502 html body",
			handler:    writeRaw(http.StatusBadGateway, `<html>bad gateway</html>`),
			want:       StatusRemoteError,
			wantStatus: http.StatusBadGateway,
			wantMsg:    "Bad Gateway",
		},
		{
			name:       "200 undecodable body",
			handler:    writeRaw(http.StatusOK, `not json`),
			want:       StatusRemoteError,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeBooks(t, newInjector(), tt.handler)
			c := NewBookChecker(staticResolver(srv.URL))

			out := c.Check(context.Background(), id)

			assert.Equal(t, tt.want, out.Status, out.String())
			if tt.want == StatusFound {
				require.NotNil(t, out.Entity)
				assert.Equal(t, Book{ID: id, Title: "Dune", Author: "Frank Herbert"}, *out.Entity)
			} else {
				assert.Nil(t, out.Entity)
			}
			if tt.wantStatus != 0 {
				assert.Equal(t, tt.wantStatus, out.HTTPStatus)
			}
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, out.Message)
			}
		})
	}
}

func TestCheckInjectedServerError(t *testing.T) {
	inj := newInjector()
	inj.Inject(chaos.Fault{Type: chaos.Failure, StatusCode: http.StatusInternalServerError})
	srv := fakeBooks(t, inj, writeRaw(http.StatusOK, `{}`))

	out := NewBookChecker(staticResolver(srv.URL)).Check(context.Background(), uuid.New())

	assert.Equal(t, StatusRemoteError, out.Status)
	assert.Equal(t, http.StatusInternalServerError, out.HTTPStatus)
}

func TestCheckUnreachable(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		out := NewBookChecker(staticResolver(url)).Check(context.Background(), uuid.New())
		assert.Equal(t, StatusUnreachable, out.Status)
		assert.Error(t, out.Err)
	})

	t.Run("resolution failure", func(t *testing.T) {
		out := NewUserChecker(failingResolver{}).Check(context.Background(), uuid.New())
		assert.Equal(t, StatusUnreachable, out.Status)
	})

	t.Run("timeout", func(t *testing.T) {
		inj := newInjector()
		inj.Inject(chaos.Fault{Type: chaos.Latency, Delay: time.Second})
		srv := fakeBooks(t, inj, writeRaw(http.StatusOK, `{"success":true,"data":{}}`))

		start := time.Now()
		out := NewBookChecker(staticResolver(srv.URL), WithTimeout(50*time.Millisecond)).
			Check(context.Background(), uuid.New())

		assert.Equal(t, StatusUnreachable, out.Status)
		assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 900*time.Millisecond)
	})

	t.Run("connection dropped", func(t *testing.T) {
		inj := newInjector()
		inj.Inject(chaos.Fault{Type: chaos.Abort})
		srv := fakeBooks(t, inj, writeRaw(http.StatusOK, `{}`))

		out := NewBookChecker(staticResolver(srv.URL)).Check(context.Background(), uuid.New())
		assert.Equal(t, StatusUnreachable, out.Status)
	})

	t.Run("caller cancelled", func(t *testing.T) {
		srv := fakeBooks(t, newInjector(), writeRaw(http.StatusOK, `{"success":true,"data":{}}`))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		out := NewBookChecker(staticResolver(srv.URL)).Check(ctx, uuid.New())
		assert.Equal(t, StatusUnreachable, out.Status)
		assert.ErrorIs(t, out.Err, context.Canceled)
	})
}

func TestCheckForwardsRequestID(t *testing.T) {
	id := uuid.New()
	var gotPath, gotReqID atomic.Value
	srv := fakeBooks(t, newInjector(), func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		gotReqID.Store(r.Header.Get(middleware.RequestIDHeader))
		envelope.OK(w, Book{ID: id})
	})

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-123")
	out := NewBookChecker(staticResolver(srv.URL+"/")).Check(ctx, id)

	require.Equal(t, StatusFound, out.Status)
	assert.Equal(t, "/api/v1/books/"+id.String(), gotPath.Load())
	assert.Equal(t, "req-123", gotReqID.Load())
}

func TestCheckBreakerOpensAfterFailures(t *testing.T) {
	var hits atomic.Int32
	srv := fakeBooks(t, newInjector(), func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeRaw(http.StatusInternalServerError, `{"success":false,"error":"boom"}`)(w, r)
	})

	cfg := DefaultBreakerConfig("books-test")
	cfg.MinRequests = 2
	cfg.Timeout = time.Minute
	c := NewBookChecker(staticResolver(srv.URL), WithBreaker(cfg))

	for i := 0; i < 2; i++ {
		out := c.Check(context.Background(), uuid.New())
		require.Equal(t, StatusRemoteError, out.Status)
	}

	out := c.Check(context.Background(), uuid.New())
	assert.Equal(t, StatusUnreachable, out.Status)
	assert.EqualValues(t, 2, hits.Load())
}

func TestCheckBreakerIgnoresCallerCancellation(t *testing.T) {
	var hits atomic.Int32
	srv := fakeBooks(t, newInjector(), func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		envelope.OK(w, Book{Title: "Dune"})
	})

	cfg := DefaultBreakerConfig("books-cancel-test")
	cfg.MinRequests = 5
	cfg.Timeout = time.Minute
	c := NewBookChecker(staticResolver(srv.URL), WithBreaker(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		assert.Equal(t, StatusUnreachable, c.Check(ctx, uuid.New()).Status)
	}

	out := c.Check(context.Background(), uuid.New())
	assert.Equal(t, StatusFound, out.Status, out.String())
	assert.EqualValues(t, 1, hits.Load())
}

func TestCheckBreakerCountsCheckTimeout(t *testing.T) {
	inj := newInjector()
	inj.Inject(chaos.Fault{Type: chaos.Latency, Delay: 200 * time.Millisecond})
	srv := fakeBooks(t, inj, func(w http.ResponseWriter, r *http.Request) {
		envelope.OK(w, Book{Title: "Dune"})
	})

	cfg := DefaultBreakerConfig("books-timeout-test")
	cfg.MinRequests = 2
	cfg.Timeout = time.Minute
	c := NewBookChecker(staticResolver(srv.URL), WithBreaker(cfg), WithTimeout(20*time.Millisecond))

	for i := 0; i < 2; i++ {
		require.Equal(t, StatusUnreachable, c.Check(context.Background(), uuid.New()).Status)
	}

	out := c.Check(context.Background(), uuid.New())
	require.Equal(t, StatusUnreachable, out.Status)
	assert.ErrorIs(t, out.Err, gobreaker.ErrOpenState)
}

func TestCheckBreakerIgnoresNotFound(t *testing.T) {
	srv := fakeBooks(t, newInjector(), writeRaw(http.StatusNotFound, ``))

	cfg := DefaultBreakerConfig("books-notfound-test")
	cfg.MinRequests = 1
	c := NewBookChecker(staticResolver(srv.URL), WithBreaker(cfg))

	for i := 0; i < 5; i++ {
		assert.Equal(t, StatusNotFound, c.Check(context.Background(), uuid.New()).Status)
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "found", Found(Book{}).String())
	assert.Equal(t, `remote_error(500, "boom")`, RemoteError[Book](500, "boom").String())
	assert.Equal(t, "unreachable(refused)", Unreachable[User](errors.New("refused")).String())
}
