// Package metrics exposes node run metrics through Prometheus.
package metrics

import (
	"github.com/calyptra/flume/pkg/graph"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects per-node run counters and durations. Wire it into a
// workflow with Hooks().
type Recorder struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRecorder builds a recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flume_node_runs_total",
				Help: "Total number of completed node runs",
			},
			[]string{"node"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flume_node_failures_total",
				Help: "Total number of failed node runs",
			},
			[]string{"node"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "flume_node_run_duration_seconds",
				Help: "Duration of node computations",
			},
			[]string{"node"},
		),
	}
	reg.MustRegister(r.runs, r.failures, r.duration)
	return r
}

// Runs returns the per-node run counter vector.
func (r *Recorder) Runs() *prometheus.CounterVec { return r.runs }

// Failures returns the per-node failure counter vector.
func (r *Recorder) Failures() *prometheus.CounterVec { return r.failures }

// Hooks returns lifecycle hooks that feed this recorder.
func (r *Recorder) Hooks() *graph.Hooks {
	return &graph.Hooks{
		OnRunDone: func(e graph.NodeEvent) {
			r.runs.WithLabelValues(e.Path).Inc()
			r.duration.WithLabelValues(e.Path).Observe(e.Duration.Seconds())
		},
		OnRunFail: func(e graph.NodeEvent) {
			r.failures.WithLabelValues(e.Path).Inc()
		},
	}
}
