// Package metrics counts bench activity in a private Prometheus registry.
//
// The registry is written out in the node_exporter textfile format after a
// run; nothing is served over HTTP. A nil *Recorder is valid and records
// nothing, so library code never has to check whether metrics are enabled.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "madgwhat"

// Invocation outcome label values.
const (
	OutcomePresent = "present"
	OutcomeAbsent  = "absent"
)

// Setter label values.
const (
	SetterBeta   = "beta"
	SetterDeltat = "deltat"
)

// Recorder holds the bench metrics.
type Recorder struct {
	registry *prometheus.Registry

	discovered   prometheus.Gauge
	loadFailures prometheus.Counter
	invocations  *prometheus.CounterVec
	setterCalls  *prometheus.CounterVec
	divergent    prometheus.Gauge
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		// discovered is the size of the last catalog result.
		discovered: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "modules_discovered",
			Help:      "Candidate modules returned by discovery",
		}),

		loadFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "module_load_failures_total",
			Help:      "Modules excluded from the bench because they failed to open",
		}),

		// invocations counts filter calls.
		// Labels: outcome (present, absent)
		invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Filter invocations by outcome",
		}, []string{"outcome"}),

		// setterCalls counts tuning attempts.
		// Labels: setter (beta, deltat), applied (true, false)
		setterCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "setter_calls_total",
			Help:      "Tuning setter calls by setter and whether the module exported it",
		}, []string{"setter", "applied"}),

		divergent: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "divergent_modules",
			Help:      "Modules whose result disagreed with the reference in the last run",
		}),
	}
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ModulesDiscovered(n int) {
	if r == nil {
		return
	}
	r.discovered.Set(float64(n))
}

func (r *Recorder) LoadFailed() {
	if r == nil {
		return
	}
	r.loadFailures.Inc()
}

// Invoked records one filter call; present is false when the result is absent.
func (r *Recorder) Invoked(present bool) {
	if r == nil {
		return
	}
	outcome := OutcomeAbsent
	if present {
		outcome = OutcomePresent
	}
	r.invocations.WithLabelValues(outcome).Inc()
}

func (r *Recorder) SetterCalled(setter string, applied bool) {
	if r == nil {
		return
	}
	r.setterCalls.WithLabelValues(setter, strconv.FormatBool(applied)).Inc()
}

func (r *Recorder) DivergentModules(n int) {
	if r == nil {
		return
	}
	r.divergent.Set(float64(n))
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
