package discovery

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistryServer(t *testing.T, reg Registry) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(reg, zerolog.New(io.Discard)).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRoundTrip(t *testing.T) {
	srv := newRegistryServer(t, NewMemoryRegistry(time.Minute))
	c := NewClient(srv.URL+"/", srv.Client())
	ctx := context.Background()

	inst, err := c.Register(ctx, Instance{Service: "books", ID: "i-1", URL: "http://books:8081"})
	require.NoError(t, err)
	assert.Equal(t, "books", inst.Service)
	assert.Equal(t, "i-1", inst.ID)
	assert.False(t, inst.ExpiresAt.IsZero())

	got, err := c.Instances(ctx, "books")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "http://books:8081", got[0].URL)

	require.NoError(t, c.Deregister(ctx, "books", "i-1"))
	got, err = c.Instances(ctx, "books")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHandlerRejectsInvalidRegistration(t *testing.T) {
	srv := newRegistryServer(t, NewMemoryRegistry(time.Minute))

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/registry/books/instances/i-1",
		strings.NewReader(`{"url":"not a url"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClientReportsRegistryFailure(t *testing.T) {
	reg, mr := setupTestRedis(t, time.Minute)
	srv := newRegistryServer(t, reg)
	mr.Close()

	_, err := NewClient(srv.URL, nil).Instances(context.Background(), "books")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestAnnouncerLifecycle(t *testing.T) {
	reg := NewMemoryRegistry(time.Minute)
	a := NewAnnouncer(reg, "reviews", "http://reviews:8083", 10*time.Millisecond, zerolog.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		got, _ := reg.Instances(context.Background(), "reviews")
		return len(got) == 1 && got[0].ID == a.Instance().ID
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("announcer did not stop")
	}

	got, err := reg.Instances(context.Background(), "reviews")
	require.NoError(t, err)
	assert.Empty(t, got)
}
