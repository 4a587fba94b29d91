// Package timing provides the fixed nine-slot record in which solver calls
// and benchmark phases accumulate their elapsed time.
package timing

import (
	"fmt"
	"time"
)

// Phase identifies one slot of a Record. The slot order is part of the
// public contract: reports and external kernels address slots by position.
type Phase int

const (
	// PhaseTotal is the total solve time. It only ever grows.
	PhaseTotal Phase = iota
	// PhaseDot is time spent in dot products.
	PhaseDot
	// PhaseWAXPBY is time spent in vector updates (w = alpha*x + beta*y).
	PhaseWAXPBY
	// PhaseSpMV is time spent in the sparse matrix-vector product.
	PhaseSpMV
	// PhaseAllReduce is time spent waiting on global reductions.
	PhaseAllReduce
	// PhasePrecondition is time spent applying the preconditioner.
	PhasePrecondition
	// PhaseHalo is time spent in halo exchange.
	PhaseHalo
	// PhaseSetup is the user-tunable problem optimization time.
	PhaseSetup
	// PhaseKernelProbe is the averaged cost of one SpMV + preconditioner call.
	PhaseKernelProbe

	// NumPhases is the number of slots in a Record.
	NumPhases = 9
)

var phaseNames = [NumPhases]string{
	"total",
	"dot",
	"waxpby",
	"spmv",
	"allreduce",
	"precondition",
	"halo",
	"setup",
	"kernel_probe",
}

// String returns the snake_case name used in reports and metric labels.
func (p Phase) String() string {
	if p < 0 || int(p) >= NumPhases {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Phases returns every phase in slot order.
func Phases() []Phase {
	out := make([]Phase, NumPhases)
	for i := range out {
		out[i] = Phase(i)
	}
	return out
}

// Record is an ordered sequence of phase durations. It is a value array so
// it can never be resized; callers share it by pointer.
type Record [NumPhases]time.Duration

// Accumulate adds delta into the slot for phase. Negative deltas are a caller
// defect and are not checked.
func (r *Record) Accumulate(phase Phase, delta time.Duration) {
	r[phase] += delta
}

// Get returns the accumulated duration for phase.
func (r *Record) Get(phase Phase) time.Duration {
	return r[phase]
}

// Seconds returns the accumulated duration for phase in seconds.
func (r *Record) Seconds(phase Phase) float64 {
	return r[phase].Seconds()
}

// Merge adds every slot of other into r.
func (r *Record) Merge(other *Record) {
	for i := range r {
		r[i] += other[i]
	}
}

// Slots returns the record as a phase-name keyed map of seconds.
func (r *Record) Slots() map[string]float64 {
	out := make(map[string]float64, NumPhases)
	for i, d := range r {
		out[Phase(i).String()] = d.Seconds()
	}
	return out
}
