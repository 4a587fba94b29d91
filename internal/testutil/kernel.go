package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/agbru/cgbench/internal/kernel"
	"github.com/agbru/cgbench/internal/timing"
)

// StubProblem is a kernel.Problem with fixed dimensions.
type StubProblem struct {
	NRows, NCols int
}

// Rows implements kernel.Problem.
func (p StubProblem) Rows() int { return p.NRows }

// Columns implements kernel.Problem.
func (p StubProblem) Columns() int { return p.NCols }

// NewStubSystem returns a system over a StubProblem with n rows and no halo.
func NewStubSystem(n int) *kernel.System {
	return &kernel.System{
		Problem: StubProblem{NRows: n, NCols: n},
		B:       make([]float64, n),
		X:       make([]float64, n),
		XExact:  make([]float64, n),
	}
}

// SpyKernel is a scripted kernel.Kernel. Each Solve call consumes the next
// entry of Outcomes, RunTimes and SolveErrs (Outcomes and RunTimes cycle,
// SolveErrs is nil past its end), advances the total slot of the record by
// the run time, and records what it was called with.
type SpyKernel struct {
	V          kernel.Variant
	Outcomes   []kernel.Outcome
	RunTimes   []time.Duration
	SolveErrs  []error
	SpMVErr    error
	PrecondErr error

	mu            sync.Mutex
	SolveCalls    int
	SpMVCalls     int
	PrecondCalls  int
	MaxIters      []int
	Tolerances    []float64
	ZeroXOnEntry  []bool
	LastSpMVInput []float64
}

// Variant implements kernel.Kernel.
func (s *SpyKernel) Variant() kernel.Variant { return s.V }

// SpMV implements kernel.Kernel.
func (s *SpyKernel) SpMV(_ context.Context, _ kernel.Problem, x, _ []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SpMVCalls++
	s.LastSpMVInput = append(s.LastSpMVInput[:0], x...)
	return s.SpMVErr
}

// Precondition implements kernel.Kernel.
func (s *SpyKernel) Precondition(_ context.Context, _ kernel.Problem, _, _ []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PrecondCalls++
	return s.PrecondErr
}

// Solve implements kernel.Kernel.
func (s *SpyKernel) Solve(_ context.Context, _ kernel.Problem, _, x []float64, maxIters int, tol float64, rec *timing.Record) (kernel.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.SolveCalls
	s.SolveCalls++
	s.MaxIters = append(s.MaxIters, maxIters)
	s.Tolerances = append(s.Tolerances, tol)

	zero := true
	for j := range x {
		if x[j] != 0 {
			zero = false
		}
		x[j] = 1
	}
	s.ZeroXOnEntry = append(s.ZeroXOnEntry, zero)

	if len(s.RunTimes) > 0 {
		rec.Accumulate(timing.PhaseTotal, s.RunTimes[i%len(s.RunTimes)])
	}
	var out kernel.Outcome
	if len(s.Outcomes) > 0 {
		out = s.Outcomes[i%len(s.Outcomes)]
	}
	var err error
	if i < len(s.SolveErrs) {
		err = s.SolveErrs[i]
	}
	if err != nil {
		out.Status = kernel.StatusFailed
	}
	return out, err
}

// SpyHalo is a kernel.HaloExchanger that counts calls and returns Err.
type SpyHalo struct {
	Err   error
	mu    sync.Mutex
	Calls int
}

// Exchange implements kernel.HaloExchanger.
func (h *SpyHalo) Exchange(context.Context, kernel.Problem, []float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Calls++
	return h.Err
}

// StubBuilder is a kernel.Builder returning a prepared system.
type StubBuilder struct {
	System *kernel.System
	Err    error
	Geom   kernel.Geometry
}

// Build implements kernel.Builder.
func (b *StubBuilder) Build(_ context.Context, geom kernel.Geometry) (*kernel.System, error) {
	b.Geom = geom
	if b.Err != nil {
		return nil, b.Err
	}
	return b.System, nil
}

// OptimizingSpyKernel is a SpyKernel that also implements kernel.Optimizer.
type OptimizingSpyKernel struct {
	SpyKernel
	OptimizeErr   error
	OptimizeCalls int
}

// Optimize implements kernel.Optimizer.
func (o *OptimizingSpyKernel) Optimize(context.Context, *kernel.System) error {
	o.OptimizeCalls++
	return o.OptimizeErr
}
