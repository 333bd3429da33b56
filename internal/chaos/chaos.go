// internal/chaos/chaos.go
package chaos

import (
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookreview/internal/envelope"
)

// FaultType names a kind of injected failure.
type FaultType string

const (
	// Latency delays the request before it reaches the handler.
	Latency FaultType = "latency"
	// Failure answers with an error status instead of calling the handler.
	Failure FaultType = "failure"
	// Abort drops the connection without a response.
	Abort FaultType = "abort"
)

// Fault is one fault injection rule. Probability is in [0, 1]; zero means always.
type Fault struct {
	Type        FaultType
	Probability float64
	Delay       time.Duration
	StatusCode  int
}

// Injector applies faults to inbound HTTP requests.
type Injector struct {
	mu     sync.RWMutex
	faults []Fault
	roll   func() float64
	logger zerolog.Logger
}

func NewInjector(logger zerolog.Logger, faults ...Fault) *Injector {
	return &Injector{
		faults: faults,
		roll:   rand.Float64,
		logger: logger.With().Str("component", "chaos").Logger(),
	}
}

// Inject adds a fault rule.
func (i *Injector) Inject(f Fault) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.faults = append(i.faults, f)
}

// Clear removes every fault rule.
func (i *Injector) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.faults = nil
}

func (i *Injector) active() []Fault {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]Fault, 0, len(i.faults))
	for _, f := range i.faults {
		if f.Probability <= 0 || i.roll() < f.Probability {
			out = append(out, f)
		}
	}
	return out
}

// Middleware applies the active faults before calling next.
func (i *Injector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span := trace.SpanFromContext(r.Context())

		for _, f := range i.active() {
			span.AddEvent("chaos.fault", trace.WithAttributes(
				attribute.String("fault.type", string(f.Type)),
			))
			i.logger.Debug().Str("fault", string(f.Type)).Str("path", r.URL.Path).Msg("injecting fault")

			switch f.Type {
			case Latency:
				select {
				case <-time.After(f.Delay):
				case <-r.Context().Done():
					return
				}
			case Failure:
				code := f.StatusCode
				if code == 0 {
					code = http.StatusInternalServerError
				}
				envelope.Fail(w, code, "Injected failure", http.StatusText(code))
				return
			case Abort:
				panic(http.ErrAbortHandler)
			}
		}

		next.ServeHTTP(w, r)
	})
}
