// internal/discovery/announcer.go
package discovery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// registrar is the write side of a registry.
type registrar interface {
	Register(ctx context.Context, inst Instance) (Instance, error)
	Deregister(ctx context.Context, service, id string) error
}

// Announcer keeps one instance registered until its context ends.
type Announcer struct {
	registry registrar
	instance Instance
	interval time.Duration
	logger   zerolog.Logger
}

func NewAnnouncer(registry registrar, service, url string, interval time.Duration, logger zerolog.Logger) *Announcer {
	return &Announcer{
		registry: registry,
		instance: Instance{Service: service, ID: uuid.NewString(), URL: url},
		interval: interval,
		logger:   logger.With().Str("component", "announcer").Logger(),
	}
}

// Instance returns the instance being announced.
func (a *Announcer) Instance() Instance { return a.instance }

// Run registers the instance, renews the lease every interval and
// deregisters once ctx is done. Registration failures are logged and
// retried on the next tick.
func (a *Announcer) Run(ctx context.Context) {
	log := a.logger.With().Str("service", a.instance.Service).Str("instance_id", a.instance.ID).Logger()

	a.register(ctx, log)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			if err := a.registry.Deregister(dctx, a.instance.Service, a.instance.ID); err != nil {
				log.Warn().Err(err).Msg("deregister failed")
			} else {
				log.Info().Msg("deregistered")
			}
			cancel()
			return
		case <-ticker.C:
			a.register(ctx, log)
		}
	}
}

func (a *Announcer) register(ctx context.Context, log zerolog.Logger) {
	rctx, cancel := context.WithTimeout(ctx, a.interval)
	defer cancel()

	inst, err := a.registry.Register(rctx, a.instance)
	if err != nil {
		log.Warn().Err(err).Msg("registration failed")
		return
	}
	log.Debug().Time("expires_at", inst.ExpiresAt).Msg("registered")
}
