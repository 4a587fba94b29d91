// Package stencil is the built-in numerical core: a single-partition
// 27-point stencil problem together with reference and optimized kernels
// that satisfy the contracts of package kernel.
//
// The operator has 26 on the diagonal and -1 for every neighbour in the
// surrounding 3x3x3 block, so it is symmetric positive definite. The
// right-hand side is A*1, which makes the vector of ones the exact solution.
package stencil

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/agbru/cgbench/internal/errors"
	"github.com/agbru/cgbench/internal/kernel"
)

const (
	// DiagonalValue is the diagonal entry of every row.
	DiagonalValue = 26.0
	// OffDiagonalValue is the entry coupling a point to each neighbour.
	OffDiagonalValue = -1.0
	// MaxNonzerosPerRow is the size of the 3x3x3 neighbourhood.
	MaxNonzerosPerRow = 27
)

// ErrForeignProblem is returned when a kernel is handed a kernel.Problem
// that was not assembled by this package.
var ErrForeignProblem = errors.New("stencil: problem was not built by the stencil package")

// Problem is the assembled sparse matrix in compressed row form. It has no
// halo, so Rows and Columns are equal.
type Problem struct {
	nx, ny, nz int
	rowStart   []int
	cols       []int
	vals       []float64
	diag       []int // index into cols/vals of each row's diagonal
}

// Rows implements kernel.Problem.
func (p *Problem) Rows() int { return len(p.rowStart) - 1 }

// Columns implements kernel.Problem.
func (p *Problem) Columns() int { return p.Rows() }

// Dims returns the grid dimensions.
func (p *Problem) Dims() (nx, ny, nz int) { return p.nx, p.ny, p.nz }

// Nonzeros returns the number of stored matrix entries.
func (p *Problem) Nonzeros() int { return len(p.vals) }

// row returns the column indices and values of row i.
func (p *Problem) row(i int) ([]int, []float64) {
	lo, hi := p.rowStart[i], p.rowStart[i+1]
	return p.cols[lo:hi], p.vals[lo:hi]
}

func asProblem(p kernel.Problem) (*Problem, error) {
	sp, ok := p.(*Problem)
	if !ok || sp == nil {
		return nil, ErrForeignProblem
	}
	return sp, nil
}

// Builder assembles stencil problems. It implements kernel.Builder.
type Builder struct{}

// NewBuilder returns a stencil problem builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build assembles the local system for geom. Only single-partition
// geometries are supported; the grid must have at least one point along
// every axis.
//
// Parameters:
//   - ctx: Checked once per z-plane so very large grids can be abandoned.
//   - geom: The problem geometry.
//
// Returns:
//   - *kernel.System: The matrix, b = A*1, a zero x and xexact = 1.
//   - error: An error if the geometry is invalid or ctx is canceled.
func (b *Builder) Build(ctx context.Context, geom kernel.Geometry) (*kernel.System, error) {
	if geom.NX <= 0 || geom.NY <= 0 || geom.NZ <= 0 {
		return nil, apperrors.NewValidationError("geometry",
			fmt.Sprintf("invalid grid %dx%dx%d", geom.NX, geom.NY, geom.NZ), geom)
	}
	if geom.Size > 1 {
		return nil, apperrors.NewValidationError("size", "only a single partition is supported", geom.Size)
	}

	n := geom.NX * geom.NY * geom.NZ
	p := &Problem{
		nx:       geom.NX,
		ny:       geom.NY,
		nz:       geom.NZ,
		rowStart: make([]int, n+1),
		cols:     make([]int, 0, n*MaxNonzerosPerRow),
		vals:     make([]float64, 0, n*MaxNonzerosPerRow),
		diag:     make([]int, n),
	}
	rhs := make([]float64, n)

	for iz := 0; iz < geom.NZ; iz++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for iy := 0; iy < geom.NY; iy++ {
			for ix := 0; ix < geom.NX; ix++ {
				row := (iz*geom.NY+iy)*geom.NX + ix
				var sum float64
				for sz := -1; sz <= 1; sz++ {
					z := iz + sz
					if z < 0 || z >= geom.NZ {
						continue
					}
					for sy := -1; sy <= 1; sy++ {
						y := iy + sy
						if y < 0 || y >= geom.NY {
							continue
						}
						for sx := -1; sx <= 1; sx++ {
							x := ix + sx
							if x < 0 || x >= geom.NX {
								continue
							}
							col := (z*geom.NY+y)*geom.NX + x
							v := OffDiagonalValue
							if col == row {
								v = DiagonalValue
								p.diag[row] = len(p.vals)
							}
							p.cols = append(p.cols, col)
							p.vals = append(p.vals, v)
							sum += v
						}
					}
				}
				rhs[row] = sum
				p.rowStart[row+1] = len(p.vals)
			}
		}
	}

	x := make([]float64, n)
	exact := make([]float64, n)
	for i := range exact {
		exact[i] = 1
	}
	return &kernel.System{Problem: p, B: rhs, X: x, XExact: exact}, nil
}

// NoHalo is the halo exchanger of a single partition: there are no
// neighbours, so Exchange only checks that the problem is a stencil problem.
type NoHalo struct{}

// Exchange implements kernel.HaloExchanger.
func (NoHalo) Exchange(_ context.Context, p kernel.Problem, _ []float64) error {
	_, err := asProblem(p)
	return err
}
