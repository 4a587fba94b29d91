package orchestration

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agbru/cgbench/internal/calibration"
	"github.com/agbru/cgbench/internal/kernel"
	"github.com/agbru/cgbench/internal/logging"
	"github.com/agbru/cgbench/internal/testutil"
	"github.com/agbru/cgbench/internal/timing"
)

func TestExecutorFillsEverySample(t *testing.T) {
	t.Parallel()
	k := &testutil.SpyKernel{
		Outcomes: []kernel.Outcome{
			{Iterations: 50, Residual: 1, InitialResidual: 10},
			{Iterations: 49, Residual: 2, InitialResidual: 10},
			{Iterations: 48, Residual: 3, InitialResidual: 10},
		},
		RunTimes:  []time.Duration{time.Second, 2 * time.Second, 3 * time.Second},
		SolveErrs: []error{nil, errors.New("nan detected")},
	}
	sys := testutil.NewStubSystem(4)
	obs := &recordingObserver{}
	subject := NewSubject()
	subject.Register(obs)

	var rec timing.Record
	exec := &Executor{Kernel: k, MaxIters: 50, Log: logging.NewNopLogger(), Subject: subject}
	res, err := exec.Execute(context.Background(), sys, calibration.Schedule{RepeatCount: 3}, &rec)
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{0.1, 0.2, 0.3}
	if res.Samples.Len() != 3 {
		t.Fatalf("Len = %d, want 3", res.Samples.Len())
	}
	for i, v := range res.Samples.Values() {
		if v != want[i] {
			t.Errorf("sample %d = %v, want %v", i, v, want[i])
		}
	}
	if res.TotalIterations != 147 {
		t.Errorf("TotalIterations = %d, want 147", res.TotalIterations)
	}
	if res.Errors != 1 {
		t.Errorf("Errors = %d, want 1", res.Errors)
	}
	if rec.Get(timing.PhaseTotal) != 6*time.Second {
		t.Errorf("timings should accumulate across runs, total = %v", rec.Get(timing.PhaseTotal))
	}
	if s := res.RunTimes.Summary(); s.Count != 3 || s.MaxSeconds < 2.99 {
		t.Errorf("run time histogram = %+v", s)
	}
	for i, zero := range k.ZeroXOnEntry {
		if !zero {
			t.Errorf("x not reset before run %d", i)
		}
	}

	var failed int
	for _, e := range obs.events {
		if e.Run > 0 && e.Err != nil {
			failed++
			if e.Run != 2 || e.Elapsed != 2*time.Second {
				t.Errorf("unexpected failing event %+v", e)
			}
		}
	}
	if failed != 1 {
		t.Errorf("expected one failing run event, got %d", failed)
	}
}

func TestExecutorLogsRunErrorOnce(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Out: &buf})
	if err != nil {
		t.Fatal(err)
	}
	subject := NewSubject()
	subject.Register(NewLoggingObserver(logger.Zerolog()))

	k := &testutil.SpyKernel{
		Outcomes:  []kernel.Outcome{{Iterations: 50, Residual: 1, InitialResidual: 10}},
		RunTimes:  []time.Duration{time.Second},
		SolveErrs: []error{nil, errors.New("nan detected")},
	}
	exec := &Executor{Kernel: k, MaxIters: 50, Log: logger, Subject: subject}
	var rec timing.Record
	if _, err := exec.Execute(context.Background(), testutil.NewStubSystem(4), calibration.Schedule{RepeatCount: 2}, &rec); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if n := strings.Count(out, "nan detected"); n != 1 {
		t.Errorf("kernel error logged %d times, want 1:\n%s", n, out)
	}
	if n := strings.Count(out, `"level":"error"`); n != 1 {
		t.Errorf("%d error-level lines, want 1:\n%s", n, out)
	}
	if !strings.Contains(out, "error in call to CG") || !strings.Contains(out, `"scaled_residual":0.1`) {
		t.Errorf("failing run should be logged with its residual:\n%s", out)
	}
}

func TestExecutorCanceledKeepsPartialResult(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	k := &cancelingKernel{SpyKernel: testutil.SpyKernel{
		Outcomes: []kernel.Outcome{{Iterations: 1, Residual: 1, InitialResidual: 2}},
	}, cancel: cancel, after: 2}

	var rec timing.Record
	exec := &Executor{Kernel: k, Log: logging.NewNopLogger()}
	res, err := exec.Execute(ctx, testutil.NewStubSystem(1), calibration.Schedule{RepeatCount: 5}, &rec)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if k.SolveCalls != 2 {
		t.Errorf("expected to stop after 2 runs, got %d", k.SolveCalls)
	}
	if res.Samples.Len() != 5 || res.Samples.Values()[1] != 0.5 {
		t.Errorf("partial samples not kept: %v", res.Samples.Values())
	}
}

// cancelingKernel cancels its context once it has served `after` solves.
type cancelingKernel struct {
	testutil.SpyKernel
	cancel context.CancelFunc
	after  int
}

func (c *cancelingKernel) Solve(ctx context.Context, p kernel.Problem, b, x []float64, maxIters int, tol float64, rec *timing.Record) (kernel.Outcome, error) {
	out, err := c.SpyKernel.Solve(ctx, p, b, x, maxIters, tol, rec)
	if c.SolveCalls >= c.after {
		c.cancel()
	}
	return out, err
}
