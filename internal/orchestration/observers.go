package orchestration

import (
	"github.com/rs/zerolog"

	"github.com/agbru/cgbench/internal/metrics"
)

// ─────────────────────────────────────────────────────────────────────────────
// Channel Observer
// ─────────────────────────────────────────────────────────────────────────────

// ChannelObserver forwards events to a channel, typically consumed by the
// terminal progress display.
type ChannelObserver struct {
	channel chan<- Event
}

// NewChannelObserver creates an observer that sends events to ch. A nil
// channel discards events.
func NewChannelObserver(ch chan<- Event) *ChannelObserver {
	return &ChannelObserver{channel: ch}
}

// Update implements Observer. The send never blocks: any event, stage
// boundaries included, is dropped when the channel is full, so a stalled
// consumer cannot stall the benchmark.
func (o *ChannelObserver) Update(e Event) {
	if o.channel == nil {
		return
	}
	select {
	case o.channel <- e:
	default:
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Logging Observer
// ─────────────────────────────────────────────────────────────────────────────

// LoggingObserver logs stage boundaries and the scaled residual of every
// successful timed run. Failing runs are logged by the Executor, which owns
// the kernel error.
type LoggingObserver struct {
	logger zerolog.Logger
}

// NewLoggingObserver creates an observer that logs to logger.
func NewLoggingObserver(logger zerolog.Logger) *LoggingObserver {
	return &LoggingObserver{logger: logger}
}

// Update implements Observer.
func (o *LoggingObserver) Update(e Event) {
	switch {
	case e.Run > 0:
		if e.Err != nil {
			return
		}
		o.logger.Info().
			Int("call", e.Run-1).
			Float64("scaled_residual", e.ScaledResidual).
			Dur("elapsed", e.Elapsed).
			Msg("scaled residual")
	case e.Done:
		o.logger.Debug().Str("stage", e.Stage.String()).Msg("stage finished")
	default:
		o.logger.Debug().Str("stage", e.Stage.String()).Msg("stage started")
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Metrics Observer (Prometheus)
// ─────────────────────────────────────────────────────────────────────────────

// MetricsObserver exports progress to Prometheus.
type MetricsObserver struct {
	c *metrics.Collectors
}

// NewMetricsObserver creates an observer that updates c.
func NewMetricsObserver(c *metrics.Collectors) *MetricsObserver {
	return &MetricsObserver{c: c}
}

// Update implements Observer.
func (o *MetricsObserver) Update(e Event) {
	if e.Run == 0 {
		if !e.Done {
			o.c.EnterStage(e.Stage.String())
		}
		if e.Stage == StageTimed && e.Runs > 0 {
			o.c.PlannedRuns.Set(float64(e.Runs))
		}
		if e.Errors > 0 {
			o.c.KernelErrors.WithLabelValues(e.Stage.String()).Add(float64(e.Errors))
		}
		if e.Done && e.Stage == StageValidation && e.Failed {
			o.c.GlobalFailure.Set(1)
		}
		return
	}
	o.c.TimedRuns.Inc()
	o.c.ScaledResidual.Set(e.ScaledResidual)
	o.c.RunDuration.Observe(e.Elapsed.Seconds())
	if e.Err != nil {
		o.c.KernelErrors.WithLabelValues(e.Stage.String()).Inc()
	}
}
