// internal/app/app.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"bookreview/internal/chaos"
	"bookreview/internal/config"
	"bookreview/internal/database"
	"bookreview/internal/discovery"
	"bookreview/internal/logging"
	"bookreview/internal/server"
	"bookreview/internal/tracing"
)

// resolverCacheTTL is how long a registry lookup is reused.
const resolverCacheTTL = 2 * time.Second

// Resolver maps a logical service name to a base URL.
type Resolver interface {
	Resolve(ctx context.Context, service string) (string, error)
}

// Runtime carries what every binary sets up before serving.
type Runtime struct {
	Service string
	Common  config.Common
	Logger  zerolog.Logger
	Server  *server.Server

	shutdownTracing func(context.Context) error
}

// Start builds the logger, tracing and HTTP server for a service.
func Start(ctx context.Context, service string, c config.Common) (*Runtime, error) {
	logger := logging.New(service, c.LogLevel, c.Environment)

	shutdown, err := tracing.Init(ctx, tracing.Config{
		ServiceName:  service,
		Environment:  c.Environment,
		OTLPEndpoint: c.OTLPEndpoint,
		SampleRate:   c.SampleRate,
		Enabled:      c.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	return &Runtime{
		Service:         service,
		Common:          c,
		Logger:          logger,
		Server:          server.New(service, logger),
		shutdownTracing: shutdown,
	}, nil
}

// OpenDB connects to Postgres and applies schema. It returns a nil DB when
// the memory driver is selected.
func (rt *Runtime) OpenDB(ctx context.Context, s config.Store, schema ...string) (*sql.DB, error) {
	switch s.Driver {
	case "memory":
		rt.Logger.Warn().Msg("using in-memory store; data is lost on restart")
		return nil, nil
	case "postgres":
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", s.Driver)
	}

	db, err := database.Open(ctx, s.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, schema...); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	rt.Server.Health().Register("database", db.PingContext)
	return db, nil
}

// Chaos returns fault injection middleware when enabled.
func (rt *Runtime) Chaos(c config.Chaos) []func(http.Handler) http.Handler {
	if !c.Enabled {
		return nil
	}

	var faults []chaos.Fault
	if c.Latency > 0 {
		faults = append(faults, chaos.Fault{Type: chaos.Latency, Delay: c.Latency})
	}
	if c.FailureRate > 0 {
		faults = append(faults, chaos.Fault{Type: chaos.Failure, Probability: c.FailureRate, StatusCode: c.FailureCode})
	}
	rt.Logger.Warn().
		Dur("latency", c.Latency).
		Float64("failure_rate", c.FailureRate).
		Int("failure_code", c.FailureCode).
		Msg("fault injection enabled")
	return []func(http.Handler) http.Handler{chaos.NewInjector(rt.Logger, faults...).Middleware}
}

// Resolver uses the registry when REGISTRY_URL is set and the static URLs otherwise.
func (rt *Runtime) Resolver(static map[string][]string) Resolver {
	if rt.Common.RegistryURL == "" {
		return discovery.NewStaticResolver(static)
	}
	rt.Logger.Info().Str("registry", rt.Common.RegistryURL).Msg("resolving services through registry")
	client := discovery.NewClient(rt.Common.RegistryURL, &http.Client{Timeout: 2 * time.Second})
	return discovery.NewRegistryResolver(client, resolverCacheTTL)
}

// Run announces the service when configured, serves until ctx is done and
// flushes traces.
func (rt *Runtime) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	announced := make(chan struct{})
	if rt.Common.RegistryURL != "" && rt.Common.AdvertiseURL != "" {
		client := discovery.NewClient(rt.Common.RegistryURL, &http.Client{Timeout: 2 * time.Second})
		a := discovery.NewAnnouncer(client, rt.Service, rt.Common.AdvertiseURL, rt.Common.Heartbeat, rt.Logger)
		go func() {
			a.Run(ctx)
			close(announced)
		}()
	} else {
		close(announced)
	}

	err := rt.Server.Run(ctx, rt.Common.Addr(), rt.Common.ShutdownTimeout)
	cancel()
	<-announced

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if terr := rt.shutdownTracing(flushCtx); terr != nil {
		rt.Logger.Error().Err(terr).Msg("failed to flush traces")
	}
	return err
}
