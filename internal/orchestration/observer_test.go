package orchestration

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agbru/cgbench/internal/metrics"
)

func TestSubjectRegisterNotify(t *testing.T) {
	t.Parallel()
	s := NewSubject()
	a, b := &recordingObserver{}, &recordingObserver{}
	s.Register(a)
	s.Register(b)
	s.Register(nil)
	s.Notify(Event{Stage: StageProbe})
	s.Unregister(a)
	s.Unregister(nil)
	s.Notify(Event{Stage: StageProbe, Done: true})

	if len(a.events) != 1 || len(b.events) != 2 {
		t.Errorf("unexpected deliveries: a=%d b=%d", len(a.events), len(b.events))
	}
}

func TestEventProgress(t *testing.T) {
	t.Parallel()
	tests := []struct {
		e    Event
		want float64
	}{
		{Event{Stage: StageTimed}, 0},
		{Event{Stage: StageTimed, Run: 2, Runs: 4}, 0.5},
		{Event{Stage: StageTimed, Done: true}, 1},
	}
	for _, tt := range tests {
		if got := tt.e.Progress(); got != tt.want {
			t.Errorf("Progress(%+v) = %v, want %v", tt.e, got, tt.want)
		}
	}
	if StageCalibration.String() != "calibration" || Stage(99).String() != "unknown" {
		t.Error("unexpected stage names")
	}
}

func TestChannelObserver(t *testing.T) {
	t.Parallel()
	ch := make(chan Event, 1)
	o := NewChannelObserver(ch)

	o.Update(Event{Stage: StageTimed, Run: 1, Runs: 3})
	o.Update(Event{Stage: StageTimed, Run: 2, Runs: 3}) // dropped, channel full

	if got := <-ch; got.Run != 1 {
		t.Errorf("expected first run event, got %+v", got)
	}
	select {
	case e := <-ch:
		t.Errorf("per-run event should have been dropped, got %+v", e)
	default:
	}

	NewChannelObserver(nil).Update(Event{})
}

func TestChannelObserverNeverBlocks(t *testing.T) {
	t.Parallel()
	ch := make(chan Event)
	o := NewChannelObserver(ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Update(Event{Stage: StageProbe})
		o.Update(Event{Stage: StageProbe, Done: true})
		o.Update(Event{Stage: StageTimed, Run: 1, Runs: 1})
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Update blocked on a channel nobody reads")
	}
}

func TestLoggingObserver(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	o := NewLoggingObserver(zerolog.New(&buf))
	o.Update(Event{Stage: StageTimed, Run: 3, Runs: 5, ScaledResidual: 0.02, Elapsed: time.Second})
	o.Update(Event{Stage: StageTimed, Run: 4, Runs: 5, Err: errors.New("boom")})

	out := buf.String()
	if !strings.Contains(out, `"call":2`) || !strings.Contains(out, `"scaled_residual":0.02`) {
		t.Errorf("run line missing fields: %s", out)
	}
	if strings.Contains(out, "boom") || strings.Contains(out, `"call":3`) {
		t.Errorf("failing runs are the executor's to log: %s", out)
	}
}

func TestMetricsObserver(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	c := metrics.New(reg)
	o := NewMetricsObserver(c)

	o.Update(Event{Stage: StageProbe})
	o.Update(Event{Stage: StageProbe, Done: true, Errors: 3})
	o.Update(Event{Stage: StageTimed, Runs: 2})
	o.Update(Event{Stage: StageTimed, Run: 1, Runs: 2, ScaledResidual: 0.02, Elapsed: time.Second})
	o.Update(Event{Stage: StageTimed, Run: 2, Runs: 2, ScaledResidual: 0.03, Err: errors.New("x")})
	o.Update(Event{Stage: StageValidation, Done: true, Failed: true})

	values := map[string]float64{}
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "/" + lp.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				values[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[key] = m.GetGauge().GetValue()
			}
		}
	}

	checks := map[string]float64{
		"cgbench_timed_runs_total":          2,
		"cgbench_planned_runs":              2,
		"cgbench_scaled_residual":           0.03,
		"cgbench_kernel_errors_total/probe": 3,
		"cgbench_kernel_errors_total/timed": 1,
		"cgbench_global_failure":            1,
		"cgbench_stage_active/timed":        1,
	}
	for k, want := range checks {
		if got := values[k]; got != want {
			t.Errorf("%s = %v, want %v", k, got, want)
		}
	}
}
