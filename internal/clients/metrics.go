// internal/clients/metrics.go
package clients

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

var (
	dependencyChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dependency_checks_total",
			Help: "Remote existence checks by target service and outcome",
		},
		[]string{"service", "outcome"},
	)

	dependencyCheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dependency_check_duration_seconds",
			Help:    "Latency of remote existence checks",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"service", "outcome"},
	)

	circuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

func observeCheck(service string, status Status, d time.Duration) {
	dependencyChecksTotal.WithLabelValues(service, status.String()).Inc()
	dependencyCheckDuration.WithLabelValues(service, status.String()).Observe(d.Seconds())
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
