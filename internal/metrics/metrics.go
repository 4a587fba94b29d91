// Package metrics defines the Prometheus collectors exported while a
// benchmark runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cgbench"

// Collectors groups the benchmark metrics.
type Collectors struct {
	// Stage is 1 for the stage currently running and 0 for the others.
	Stage *prometheus.GaugeVec
	// TimedRuns counts completed timed runs.
	TimedRuns prometheus.Counter
	// PlannedRuns is the repeat count chosen by the scheduler.
	PlannedRuns prometheus.Gauge
	// ScaledResidual is the scaled residual of the most recent run.
	ScaledResidual prometheus.Gauge
	// RunDuration observes the wall time of each timed run.
	RunDuration prometheus.Histogram
	// KernelErrors counts kernel errors by stage.
	KernelErrors *prometheus.CounterVec
	// GlobalFailure is 1 once the run is known to have failed.
	GlobalFailure prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Collectors {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Collectors{
		Stage: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_active",
			Help:      "Benchmark stage currently running (1) or not (0)",
		}, []string{"stage"}),
		TimedRuns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timed_runs_total",
			Help:      "Number of completed timed solver runs",
		}),
		PlannedRuns: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "planned_runs",
			Help:      "Number of timed runs scheduled for the budget",
		}),
		ScaledResidual: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scaled_residual",
			Help:      "Scaled residual of the most recent solver run",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of each timed solver run",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 20),
		}),
		KernelErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kernel_errors_total",
			Help:      "Kernel calls that returned an error",
		}, []string{"stage"}),
		GlobalFailure: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "global_failure",
			Help:      "1 once a tolerance failure or statistical rejection was recorded",
		}),
	}
}

// EnterStage marks stage as the only active stage.
func (c *Collectors) EnterStage(stage string) {
	c.Stage.Reset()
	c.Stage.WithLabelValues(stage).Set(1)
}
