package validation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/agbru/cgbench/internal/kernel"
)

// DefaultSymmetryTolerance is the largest relative departure from symmetry
// SymmetryTest accepts.
const DefaultSymmetryTolerance = 1e-10

// SymmetryTest checks that the SpMV and preconditioner of a kernel are
// symmetric operators by comparing x'Ay with y'Ax for random x and y.
type SymmetryTest struct {
	// Seed seeds the random vectors.
	Seed uint64
	// Tolerance overrides DefaultSymmetryTolerance when positive.
	Tolerance float64
}

// Check runs the symmetry test on k's SpMV and preconditioner and returns one
// Result per operator. The error is non-nil only if a kernel call fails.
func (s SymmetryTest) Check(ctx context.Context, k kernel.Kernel, halo kernel.HaloExchanger, p kernel.Problem) ([]Result, error) {
	tol := s.Tolerance
	if tol <= 0 {
		tol = DefaultSymmetryTolerance
	}
	rng := rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))
	x := randomVector(rng, p)
	y := randomVector(rng, p)

	spmv := func(ctx context.Context, in, out []float64) error {
		if err := halo.Exchange(ctx, p, in); err != nil {
			return err
		}
		return k.SpMV(ctx, p, in, out)
	}
	precond := func(ctx context.Context, in, out []float64) error {
		return k.Precondition(ctx, p, in, out)
	}

	ops := []struct {
		name  string
		apply func(context.Context, []float64, []float64) error
	}{
		{"symmetry/spmv", spmv},
		{"symmetry/precondition", precond},
	}

	results := make([]Result, 0, len(ops))
	for _, op := range ops {
		dep, err := departure(ctx, p, x, y, op.apply)
		if err != nil {
			return results, fmt.Errorf("%s: %w", op.name, err)
		}
		r := Result{Name: op.name, Value: dep, Passed: dep <= tol}
		if !r.Passed {
			r.Detail = fmt.Sprintf("departure %g exceeds %g", dep, tol)
		}
		results = append(results, r)
	}
	return results, nil
}

// departure returns |x'Ay - y'Ax| / (|x'Ay| + |y'Ax|) for the operator apply.
func departure(ctx context.Context, p kernel.Problem, x, y []float64, apply func(context.Context, []float64, []float64) error) (float64, error) {
	n := p.Rows()
	ax := make([]float64, p.Columns())
	ay := make([]float64, p.Columns())
	if err := apply(ctx, x, ax); err != nil {
		return 0, err
	}
	if err := apply(ctx, y, ay); err != nil {
		return 0, err
	}
	xAy := floats.Dot(x[:n], ay[:n])
	yAx := floats.Dot(y[:n], ax[:n])
	scale := math.Abs(xAy) + math.Abs(yAx)
	if scale == 0 {
		return 0, nil
	}
	return math.Abs(xAy-yAx) / scale, nil
}

func randomVector(rng *rand.Rand, p kernel.Problem) []float64 {
	v := make([]float64, p.Columns())
	for i := 0; i < p.Rows(); i++ {
		v[i] = rng.Float64() + 1
	}
	return v
}
