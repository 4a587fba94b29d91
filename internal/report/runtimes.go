package report

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	histogramMin     = int64(time.Microsecond)
	histogramMax     = int64(24 * time.Hour)
	histogramSigFigs = 3
)

// RunTimes summarizes the wall time of the timed runs.
type RunTimes struct {
	Count       int64   `json:"count" yaml:"count"`
	MinSeconds  float64 `json:"min_seconds" yaml:"min_seconds"`
	MeanSeconds float64 `json:"mean_seconds" yaml:"mean_seconds"`
	P50Seconds  float64 `json:"p50_seconds" yaml:"p50_seconds"`
	P90Seconds  float64 `json:"p90_seconds" yaml:"p90_seconds"`
	P99Seconds  float64 `json:"p99_seconds" yaml:"p99_seconds"`
	MaxSeconds  float64 `json:"max_seconds" yaml:"max_seconds"`
}

// RunTimeRecorder accumulates run durations in an HDR histogram.
type RunTimeRecorder struct {
	h *hdrhistogram.Histogram
}

// NewRunTimeRecorder returns an empty recorder covering 1µs to 24h with three
// significant digits.
func NewRunTimeRecorder() *RunTimeRecorder {
	return &RunTimeRecorder{h: hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs)}
}

// Record adds d, clamped into the trackable range.
func (r *RunTimeRecorder) Record(d time.Duration) {
	v := int64(d)
	if v < histogramMin {
		v = histogramMin
	}
	if v > histogramMax {
		v = histogramMax
	}
	_ = r.h.RecordValue(v)
}

// Summary returns the recorded distribution in seconds.
func (r *RunTimeRecorder) Summary() RunTimes {
	if r.h.TotalCount() == 0 {
		return RunTimes{}
	}
	sec := func(ns int64) float64 { return time.Duration(ns).Seconds() }
	return RunTimes{
		Count:       r.h.TotalCount(),
		MinSeconds:  sec(r.h.Min()),
		MeanSeconds: r.h.Mean() / float64(time.Second),
		P50Seconds:  sec(r.h.ValueAtQuantile(50)),
		P90Seconds:  sec(r.h.ValueAtQuantile(90)),
		P99Seconds:  sec(r.h.ValueAtQuantile(99)),
		MaxSeconds:  sec(r.h.Max()),
	}
}
