// SPDX-License-Identifier: MPL-2.0

// Package metrics exposes Prometheus instrumentation for engine invocations and waits.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements container.Observer on top of Prometheus collectors.
type Recorder struct {
	registry *prometheus.Registry

	InvocationsTotal   *prometheus.CounterVec
	InvocationDuration *prometheus.HistogramVec
	WaitsTotal         *prometheus.CounterVec
	WaitSamples        *prometheus.HistogramVec
}

// New creates a Recorder with its collectors registered on a private registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		InvocationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dockhand_engine_invocations_total",
			Help: "Engine CLI invocations by engine, subcommand and outcome",
		}, []string{"engine", "verb", "outcome"}),

		InvocationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dockhand_engine_invocation_duration_seconds",
			Help:    "Wall time of engine CLI invocations",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"engine", "verb"}),

		WaitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dockhand_waits_total",
			Help: "Wait primitive results by condition and whether it was met",
		}, []string{"condition", "met"}),

		WaitSamples: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dockhand_wait_samples",
			Help:    "Number of predicate samples taken per wait",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"condition"}),
	}

	r.registry.MustRegister(
		r.InvocationsTotal,
		r.InvocationDuration,
		r.WaitsTotal,
		r.WaitSamples,
	)
	return r
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveInvocation counts an engine invocation and records its duration.
func (r *Recorder) ObserveInvocation(engine, verb, outcome string, elapsed time.Duration) {
	r.InvocationsTotal.WithLabelValues(engine, verb, outcome).Inc()
	r.InvocationDuration.WithLabelValues(engine, verb).Observe(elapsed.Seconds())
}

// ObserveWait counts a finished wait and records how many samples it took.
func (r *Recorder) ObserveWait(condition string, met bool, samples int, _ time.Duration) {
	r.WaitsTotal.WithLabelValues(condition, strconv.FormatBool(met)).Inc()
	r.WaitSamples.WithLabelValues(condition).Observe(float64(samples))
}

// WriteTextfile writes the current metrics in the Prometheus text format, for
// pickup by the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
