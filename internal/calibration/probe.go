// Package calibration implements the phases that precede the timed benchmark:
// the kernel timing probe, the reference convergence baseline, the optimized
// calibration run, and the scheduler that turns the measured worst case into
// a repeat count for the time budget.
package calibration

import (
	"context"
	"math/rand/v2"
	"time"

	apperrors "github.com/agbru/cgbench/internal/errors"
	"github.com/agbru/cgbench/internal/kernel"
	"github.com/agbru/cgbench/internal/logging"
	"github.com/agbru/cgbench/internal/timing"
)

const (
	// DefaultProbeCalls is the number of back-to-back kernel calls the probe
	// averages over.
	DefaultProbeCalls = 10

	// DefaultSeed seeds the probe's synthetic input vector.
	DefaultSeed uint64 = 1
)

// ProbeOptions configures the kernel timing probe.
type ProbeOptions struct {
	// Calls is the number of halo + SpMV + preconditioner sequences to time.
	Calls int
	// Seed seeds the synthetic input vector.
	Seed uint64
}

// ProbeResult summarizes a kernel timing probe.
type ProbeResult struct {
	// Average is the elapsed time of the probe divided by Calls.
	Average time.Duration
	// Calls is the number of sequences performed.
	Calls int
	// Errors counts the kernel calls that returned an error.
	Errors int
}

// Probe measures the averaged cost of one halo exchange, one SpMV and one
// preconditioner application using the given kernel. The average is
// accumulated into rec under timing.PhaseKernelProbe.
//
// Kernel errors are logged and counted but never stop the probe. The only
// error returned is the context's, when it is canceled between calls.
//
// Parameters:
//   - ctx: The context checked between calls and passed to collaborators.
//   - k: The kernel whose SpMV and preconditioner are timed.
//   - halo: The halo exchanger run before each SpMV.
//   - p: The problem to operate on.
//   - opts: Call count and seed.
//   - rec: The timing record receiving the averaged per-call cost.
//   - log: The logger for kernel errors.
//
// Returns:
//   - ProbeResult: The averaged time and error count.
//   - error: The context error if the probe was interrupted.
func Probe(ctx context.Context, k kernel.Kernel, halo kernel.HaloExchanger, p kernel.Problem, opts ProbeOptions, rec *timing.Record, log logging.Logger) (ProbeResult, error) {
	calls := opts.Calls
	if calls <= 0 {
		calls = DefaultProbeCalls
	}
	res := ProbeResult{Calls: calls}

	x := SyntheticVector(p, opts.Seed)
	y := make([]float64, p.Rows())
	z := make([]float64, p.Columns())

	report := func(name string, err error) {
		if err == nil {
			return
		}
		res.Errors++
		log.Error("kernel probe call failed", apperrors.AsKernelError(name, err),
			logging.String("variant", k.Variant().String()))
	}

	start := time.Now()
	for i := 0; i < calls; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		report("halo", halo.Exchange(ctx, p, x))
		report("spmv", k.SpMV(ctx, p, x, y))
		report("precondition", k.Precondition(ctx, p, y, z))
	}
	res.Average = time.Since(start) / time.Duration(calls)
	rec.Accumulate(timing.PhaseKernelProbe, res.Average)

	log.Debug("kernel probe complete",
		logging.Int("calls", calls),
		logging.Float64("avg_seconds", res.Average.Seconds()),
		logging.Int("errors", res.Errors))
	return res, nil
}

// SyntheticVector returns a vector of length p.Columns() whose first
// p.Rows() entries are drawn uniformly from [1, 2) using a PCG source seeded
// with seed. Halo entries are left at zero for the exchanger to fill.
func SyntheticVector(p kernel.Problem, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed))
	x := make([]float64, p.Columns())
	for i := 0; i < p.Rows(); i++ {
		x[i] = rng.Float64() + 1
	}
	return x
}
