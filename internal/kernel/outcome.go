package kernel

// Status is the convergence status reported by a solver call.
type Status int

const (
	// StatusOK means the solver completed its iterations normally.
	StatusOK Status = iota
	// StatusFailed means the solver reported an error.
	StatusFailed
)

// String returns "ok" or "failed".
func (s Status) String() string {
	if s == StatusOK {
		return "ok"
	}
	return "failed"
}

// Outcome is the result of a single solver call.
type Outcome struct {
	// Iterations is the number of CG iterations performed.
	Iterations int
	// Residual is the final residual norm.
	Residual float64
	// InitialResidual is the residual norm before the first iteration.
	InitialResidual float64
	// Status reports whether the call completed normally.
	Status Status
}

// ScaledResidual returns Residual / InitialResidual.
//
// A zero initial residual is not guarded against: the IEEE quotient (NaN or
// +Inf) is returned and propagates into the comparisons made by callers.
func (o Outcome) ScaledResidual() float64 {
	return o.Residual / o.InitialResidual
}
