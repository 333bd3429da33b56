package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReviewsDefaults(t *testing.T) {
	var cfg Reviews
	require.NoError(t, Load(&cfg, 8083))

	assert.Equal(t, 8083, cfg.Port)
	assert.Equal(t, ":8083", cfg.Addr())
	assert.Equal(t, 3*time.Second, cfg.CheckTimeout)
	assert.Equal(t, []string{"http://localhost:8081"}, cfg.BooksURLs)
	assert.Equal(t, "postgres", cfg.Driver)
	assert.False(t, cfg.BreakerEnabled)
}

func TestLoadReviewsFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CHECK_TIMEOUT", "750ms")
	t.Setenv("BOOKS_URLS", "http://b1:8081,http://b2:8081")
	t.Setenv("STORE_DRIVER", "memory")

	var cfg Reviews
	require.NoError(t, Load(&cfg, 8083))

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.CheckTimeout)
	assert.Equal(t, []string{"http://b1:8081", "http://b2:8081"}, cfg.BooksURLs)
	assert.Equal(t, "memory", cfg.Driver)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		load func() error
	}{
		{
			name: "zero check timeout",
			env:  map[string]string{"CHECK_TIMEOUT": "0s"},
			load: func() error { var c Reviews; return Load(&c, 8083) },
		},
		{
			name: "port out of range",
			env:  map[string]string{"PORT": "70000"},
			load: func() error { var c Books; return Load(&c, 8081) },
		},
		{
			name: "chaos rate above one",
			env:  map[string]string{"CHAOS_FAILURE_RATE": "1.5"},
			load: func() error { var c Users; return Load(&c, 8082) },
		},
		{
			name: "unknown registry backend",
			env:  map[string]string{"REGISTRY_BACKEND": "etcd"},
			load: func() error { var c Registry; return Load(&c, 8500) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Error(t, tt.load())
		})
	}
}
