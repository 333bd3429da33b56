package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver(map[string][]string{
		"books": {"http://b1", "http://b2"},
		"users": {"http://u1"},
		"empty": {},
	})
	ctx := context.Background()

	var got []string
	for i := 0; i < 4; i++ {
		u, err := r.Resolve(ctx, "books")
		require.NoError(t, err)
		got = append(got, u)
	}
	assert.Equal(t, []string{"http://b1", "http://b2", "http://b1", "http://b2"}, got)

	u, err := r.Resolve(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, "http://u1", u)

	_, err = r.Resolve(ctx, "empty")
	assert.ErrorIs(t, err, ErrNoInstances)
	_, err = r.Resolve(ctx, "reviews")
	assert.ErrorIs(t, err, ErrNoInstances)
}

type countingLister struct {
	calls     int
	instances []Instance
	err       error
}

func (c *countingLister) Instances(context.Context, string) ([]Instance, error) {
	c.calls++
	return c.instances, c.err
}

func TestRegistryResolver(t *testing.T) {
	src := &countingLister{instances: []Instance{
		{Service: "books", ID: "a", URL: "http://b1"},
		{Service: "books", ID: "b", URL: "http://b2"},
	}}
	r := NewRegistryResolver(src, time.Minute)
	clock := time.Now()
	r.now = func() time.Time { return clock }
	ctx := context.Background()

	first, err := r.Resolve(ctx, "books")
	require.NoError(t, err)
	second, err := r.Resolve(ctx, "books")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, src.calls, "instance list should be cached")

	clock = clock.Add(2 * time.Minute)
	_, err = r.Resolve(ctx, "books")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestRegistryResolverErrors(t *testing.T) {
	ctx := context.Background()

	empty := NewRegistryResolver(&countingLister{}, time.Minute)
	_, err := empty.Resolve(ctx, "books")
	assert.ErrorIs(t, err, ErrNoInstances)

	boom := errors.New("registry down")
	failing := NewRegistryResolver(&countingLister{err: boom}, time.Minute)
	_, err = failing.Resolve(ctx, "books")
	assert.ErrorIs(t, err, boom)
}
