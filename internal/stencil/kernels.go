package stencil

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/cgbench/internal/kernel"
	"github.com/agbru/cgbench/internal/timing"
)

// DefaultMinBlockRows is the smallest row block the optimized SpMV hands to
// a worker. Smaller problems run on the calling goroutine.
const DefaultMinBlockRows = 1024

// ─────────────────────────────────────────────────────────────────────────────
// Reference kernel
// ─────────────────────────────────────────────────────────────────────────────

// Reference is the trusted sequential kernel.
type Reference struct {
	Halo kernel.HaloExchanger
}

// NewReference returns a reference kernel for a single partition.
func NewReference() *Reference {
	return &Reference{Halo: NoHalo{}}
}

// Variant implements kernel.Kernel.
func (*Reference) Variant() kernel.Variant { return kernel.Reference }

// SpMV implements kernel.Kernel.
func (k *Reference) SpMV(_ context.Context, p kernel.Problem, x, y []float64) error {
	sp, err := asProblem(p)
	if err != nil {
		return err
	}
	if err := checkLengths(sp, x, y); err != nil {
		return err
	}
	spmvRows(sp, x, y, 0, sp.Rows())
	return nil
}

// Precondition implements kernel.Kernel with one symmetric Gauss-Seidel
// sweep.
func (k *Reference) Precondition(_ context.Context, p kernel.Problem, r, z []float64) error {
	sp, err := asProblem(p)
	if err != nil {
		return err
	}
	if err := checkLengths(sp, z, r); err != nil {
		return err
	}
	symmetricGaussSeidel(sp, r, z)
	return nil
}

// Solve implements kernel.Kernel.
func (k *Reference) Solve(ctx context.Context, p kernel.Problem, b, x []float64, maxIters int, tol float64, rec *timing.Record) (kernel.Outcome, error) {
	sp, err := asProblem(p)
	if err != nil {
		return kernel.Outcome{Status: kernel.StatusFailed}, err
	}
	return solveCG(ctx, sp, k.halo(), referenceOps{}, b, x, maxIters, tol, rec)
}

// SolveUnpreconditioned implements kernel.PlainSolver.
func (k *Reference) SolveUnpreconditioned(ctx context.Context, p kernel.Problem, b, x []float64, maxIters int, tol float64, rec *timing.Record) (kernel.Outcome, error) {
	sp, err := asProblem(p)
	if err != nil {
		return kernel.Outcome{Status: kernel.StatusFailed}, err
	}
	return solveCG(ctx, sp, k.halo(), identityPrecond{referenceOps{}}, b, x, maxIters, tol, rec)
}

func (k *Reference) halo() kernel.HaloExchanger {
	if k.Halo == nil {
		return NoHalo{}
	}
	return k.Halo
}

type referenceOps struct{}

func (referenceOps) spmv(_ context.Context, p *Problem, x, y []float64) error {
	spmvRows(p, x, y, 0, p.Rows())
	return nil
}

func (referenceOps) precondition(p *Problem, r, z []float64) {
	symmetricGaussSeidel(p, r, z)
}

// identityPrecond keeps the SpMV of the wrapped operators and turns the
// preconditioner into a copy, which makes solveCG plain CG.
type identityPrecond struct {
	operators
}

func (identityPrecond) precondition(p *Problem, r, z []float64) {
	copy(z[:p.Rows()], r)
}

// ─────────────────────────────────────────────────────────────────────────────
// Optimized kernel
// ─────────────────────────────────────────────────────────────────────────────

// block is a half-open range of rows [lo, hi).
type block struct {
	lo, hi int
}

// Optimized splits SpMV across workers by row blocks of roughly equal
// nonzero count. The preconditioner is the same sweep as the reference, since
// Gauss-Seidel is inherently ordered.
//
// Optimize precomputes the block plan for a problem; without it the plan is
// computed on every SpMV call.
type Optimized struct {
	Halo kernel.HaloExchanger
	// Workers is the number of goroutines used by SpMV. Zero means
	// GOMAXPROCS.
	Workers int
	// MinBlockRows bounds how finely rows are split. Zero means
	// DefaultMinBlockRows.
	MinBlockRows int

	mu   sync.RWMutex
	plan *Problem
	blks []block
}

// NewOptimized returns an optimized kernel using the given number of workers.
func NewOptimized(workers int) *Optimized {
	return &Optimized{Halo: NoHalo{}, Workers: workers}
}

// Variant implements kernel.Kernel.
func (*Optimized) Variant() kernel.Variant { return kernel.Optimized }

// Optimize implements kernel.Optimizer by computing the row block plan for
// s.Problem.
func (k *Optimized) Optimize(_ context.Context, s *kernel.System) error {
	sp, err := asProblem(s.Problem)
	if err != nil {
		return err
	}
	blks := rowBlocks(sp, k.blockCount(sp))
	k.mu.Lock()
	k.plan, k.blks = sp, blks
	k.mu.Unlock()
	return nil
}

// SpMV implements kernel.Kernel.
func (k *Optimized) SpMV(ctx context.Context, p kernel.Problem, x, y []float64) error {
	sp, err := asProblem(p)
	if err != nil {
		return err
	}
	if err := checkLengths(sp, x, y); err != nil {
		return err
	}
	return k.spmv(ctx, sp, x, y)
}

// Precondition implements kernel.Kernel.
func (k *Optimized) Precondition(_ context.Context, p kernel.Problem, r, z []float64) error {
	sp, err := asProblem(p)
	if err != nil {
		return err
	}
	if err := checkLengths(sp, z, r); err != nil {
		return err
	}
	symmetricGaussSeidel(sp, r, z)
	return nil
}

// Solve implements kernel.Kernel.
func (k *Optimized) Solve(ctx context.Context, p kernel.Problem, b, x []float64, maxIters int, tol float64, rec *timing.Record) (kernel.Outcome, error) {
	sp, err := asProblem(p)
	if err != nil {
		return kernel.Outcome{Status: kernel.StatusFailed}, err
	}
	return solveCG(ctx, sp, k.halo(), k, b, x, maxIters, tol, rec)
}

// SolveUnpreconditioned implements kernel.PlainSolver.
func (k *Optimized) SolveUnpreconditioned(ctx context.Context, p kernel.Problem, b, x []float64, maxIters int, tol float64, rec *timing.Record) (kernel.Outcome, error) {
	sp, err := asProblem(p)
	if err != nil {
		return kernel.Outcome{Status: kernel.StatusFailed}, err
	}
	return solveCG(ctx, sp, k.halo(), identityPrecond{k}, b, x, maxIters, tol, rec)
}

func (k *Optimized) halo() kernel.HaloExchanger {
	if k.Halo == nil {
		return NoHalo{}
	}
	return k.Halo
}

func (k *Optimized) spmv(_ context.Context, p *Problem, x, y []float64) error {
	blks := k.blocks(p)
	if len(blks) <= 1 {
		spmvRows(p, x, y, 0, p.Rows())
		return nil
	}
	var g errgroup.Group
	for _, b := range blks {
		g.Go(func() error {
			spmvRows(p, x, y, b.lo, b.hi)
			return nil
		})
	}
	return g.Wait()
}

func (k *Optimized) precondition(p *Problem, r, z []float64) {
	symmetricGaussSeidel(p, r, z)
}

func (k *Optimized) blocks(p *Problem) []block {
	k.mu.RLock()
	if k.plan == p {
		blks := k.blks
		k.mu.RUnlock()
		return blks
	}
	k.mu.RUnlock()
	return rowBlocks(p, k.blockCount(p))
}

func (k *Optimized) blockCount(p *Problem) int {
	workers := k.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	minRows := k.MinBlockRows
	if minRows <= 0 {
		minRows = DefaultMinBlockRows
	}
	return max(1, min(workers, p.Rows()/minRows))
}

// rowBlocks splits the rows of p into at most n contiguous, non-empty blocks
// holding roughly the same number of nonzeros.
func rowBlocks(p *Problem, n int) []block {
	rows := p.Rows()
	if rows == 0 {
		return nil
	}
	n = max(1, min(n, rows))
	nnz := p.Nonzeros()
	blks := make([]block, 0, n)
	lo := 0
	for i := 1; i <= n && lo < rows; i++ {
		hi := rows
		if i < n {
			target := nnz * i / n
			hi = lo + 1
			for hi < rows && p.rowStart[hi] < target {
				hi++
			}
		}
		blks = append(blks, block{lo: lo, hi: hi})
		lo = hi
	}
	return blks
}
