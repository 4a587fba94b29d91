// Package kernel defines the contracts between the benchmark control layer and
// the numerical collaborators it drives: problem construction, halo exchange,
// sparse matrix-vector product, preconditioner and the CG solver itself.
//
// The control layer only ever talks to these interfaces. Two variants of every
// kernel exist: a trusted reference implementation used to establish the
// convergence baseline, and an optimized implementation whose performance is
// being measured.
package kernel

import (
	"context"

	"github.com/agbru/cgbench/internal/timing"
)

// Variant distinguishes the trusted reference kernels from the optimized ones.
type Variant int

const (
	// Reference is the trusted, unoptimized implementation.
	Reference Variant = iota
	// Optimized is the implementation under measurement.
	Optimized
)

// String returns the lowercase variant name used in logs and kernel errors.
func (v Variant) String() string {
	switch v {
	case Reference:
		return "reference"
	case Optimized:
		return "optimized"
	default:
		return "unknown"
	}
}

// Geometry describes the partition of the global problem owned by this
// process and the local grid dimensions.
type Geometry struct {
	// Size is the number of partitions taking part in the benchmark.
	Size int
	// Rank is the index of this partition, 0 <= Rank < Size.
	Rank int
	// Threads is the number of worker threads available to the kernels.
	Threads int
	// NX, NY and NZ are the local grid dimensions.
	NX, NY, NZ int
}

// Problem is an opaque handle on the assembled sparse system. Only its
// dimensions are visible to the control layer.
type Problem interface {
	// Rows returns the number of locally owned rows.
	Rows() int
	// Columns returns the local vector length including halo entries.
	Columns() int
}

// System bundles a problem with its right-hand side, working solution vector
// and the known exact solution.
type System struct {
	Problem Problem
	B       []float64
	X       []float64
	XExact  []float64
}

// ResetX zeroes the working solution vector in place.
func (s *System) ResetX() {
	clear(s.X)
}

// Builder assembles the local sparse system for a geometry.
type Builder interface {
	Build(ctx context.Context, geom Geometry) (*System, error)
}

// HaloExchanger updates the halo entries of x with the values owned by
// neighbouring partitions. It is a blocking collective.
type HaloExchanger interface {
	Exchange(ctx context.Context, p Problem, x []float64) error
}

// Kernel is one variant of the SpMV, preconditioner and solver triple.
type Kernel interface {
	// Variant reports which implementation this is.
	Variant() Variant

	// SpMV computes y = A*x.
	SpMV(ctx context.Context, p Problem, x, y []float64) error

	// Precondition computes z = M^-1 * r.
	Precondition(ctx context.Context, p Problem, r, z []float64) error

	// Solve runs preconditioned CG on A*x = b starting from the current x.
	// It stops after maxIters iterations or once the scaled residual drops
	// to tol, whichever comes first, and accumulates its phase timings into
	// rec. The returned Outcome is meaningful even when err is non-nil.
	Solve(ctx context.Context, p Problem, b, x []float64, maxIters int, tol float64, rec *timing.Record) (Outcome, error)
}

// Optimizer is implemented by kernels that want to reorganize the problem
// before the timed phases, e.g. to reorder rows or precompute a coloring.
type Optimizer interface {
	Optimize(ctx context.Context, s *System) error
}

// PlainSolver is implemented by kernels that can run CG with the
// preconditioner replaced by the identity.
type PlainSolver interface {
	SolveUnpreconditioned(ctx context.Context, p Problem, b, x []float64, maxIters int, tol float64, rec *timing.Record) (Outcome, error)
}
