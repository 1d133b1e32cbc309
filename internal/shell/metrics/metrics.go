// Package metrics holds the Prometheus collectors of the portal service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// =============================================================================
// Collectors
// =============================================================================

var (
	// deploymentsTotal counts deployment computations.
	// Labels: outcome (ok, error)
	deploymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Name:      "deployments_total",
		Help:      "Total deployment computations by outcome",
	}, []string{"outcome"})

	// deploymentDuration measures deployment computation time.
	deploymentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "portal",
		Name:      "deployment_duration_seconds",
		Help:      "Deployment computation latency in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	// registryModules is the number of manifests in the current registry snapshot.
	registryModules = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "portal",
		Subsystem: "registry",
		Name:      "modules",
		Help:      "Manifests in the current registry snapshot",
	})

	// registryLoads counts registry loads.
	// Labels: outcome (ok, error)
	registryLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "registry",
		Name:      "load_total",
		Help:      "Total registry loads by outcome",
	}, []string{"outcome"})

	// registrySkipped counts module records skipped for invalid configuration.
	registrySkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "registry",
		Name:      "skipped_modules_total",
		Help:      "Module records skipped because their configuration did not parse",
	})
)

// =============================================================================
// Recording Functions
// =============================================================================

// ObserveDeployment records one deployment computation.
func ObserveDeployment(elapsed time.Duration, err error) {
	deploymentDuration.Observe(elapsed.Seconds())
	deploymentsTotal.WithLabelValues(outcome(err)).Inc()
}

// ObserveRegistryLoad records one registry load. modules and skipped are
// ignored when err is non-nil.
func ObserveRegistryLoad(modules, skipped int, err error) {
	registryLoads.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return
	}
	registryModules.Set(float64(modules))
	registrySkipped.Add(float64(skipped))
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
