// Package validation provides the statistical and structural checks applied
// around the timed benchmark: the normality test on the scaled residuals of
// the timed runs, the symmetry test on the optimized kernels and the
// convergence test on both kernel variants.
package validation

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Result is the outcome of one validation test.
type Result struct {
	Name     string  `json:"name" yaml:"name"`
	Passed   bool    `json:"passed" yaml:"passed"`
	Samples  int     `json:"samples,omitempty" yaml:"samples,omitempty"`
	Mean     float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	Variance float64 `json:"variance,omitempty" yaml:"variance,omitempty"`
	Value    float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Detail   string  `json:"detail,omitempty" yaml:"detail,omitempty"`

	// PassCount and FailCount are set by tests made of several checks.
	PassCount int `json:"pass_count,omitempty" yaml:"pass_count,omitempty"`
	FailCount int `json:"fail_count,omitempty" yaml:"fail_count,omitempty"`
}

// NormalityTest decides whether a set of scaled residuals is consistent with
// repeated solves of the same system.
type NormalityTest interface {
	Evaluate(samples []float64) Result
}

// DefaultVarianceThreshold is the largest sample variance NormsTest accepts.
const DefaultVarianceThreshold = 1e-6

// NormsTest accepts the samples when their variance does not exceed
// Threshold. Repeated solves of the same system from the same starting point
// should give nearly identical residuals; spread indicates a nondeterministic
// or broken kernel.
type NormsTest struct {
	// Threshold overrides DefaultVarianceThreshold when positive.
	Threshold float64
}

// Evaluate implements NormalityTest. The samples are not modified.
func (n NormsTest) Evaluate(samples []float64) Result {
	threshold := n.Threshold
	if threshold <= 0 {
		threshold = DefaultVarianceThreshold
	}
	res := Result{Name: "norms", Samples: len(samples)}
	if len(samples) == 0 {
		res.Detail = "no samples"
		return res
	}

	res.Mean = stat.Mean(samples, nil)
	if len(samples) > 1 {
		res.Variance = stat.Variance(samples, nil)
	}
	res.Passed = res.Variance <= threshold
	if !res.Passed {
		res.Detail = fmt.Sprintf("variance %g exceeds %g", res.Variance, threshold)
	}
	return res
}
