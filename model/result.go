package model

import (
	"math"
)

// Evaluator computes the unnormalized negative log posterior of a parameter
// vector given a dataset. Implementations must be pure: the same inputs
// always give the same output, and nothing is mutated.
type Evaluator interface {
	NegLogPosterior(theta []float64, data *Dataset) float64
	NumParams() int
}

// DevianceEvaluator is an Evaluator that can also give the deviance
// -2*log(likelihood) at theta, with no prior term. Deviance summaries need it
// to put D(mean theta) on the same scale as externally supplied deviances.
type DevianceEvaluator interface {
	Evaluator
	Deviance(theta []float64, data *Dataset) float64
}

// InferenceResult is the output of an external posterior-sampling fit. We
// only ever read it.
type InferenceResult struct {
	Name     string      // Name for reporting
	Samples  [][]float64 // Posterior parameter draws, all the same length
	Deviance []float64   // Deviance per draw, index-aligned with Samples
	Data     *Dataset    // Data the fit was made against
	Eval     Evaluator   // Posterior density of the fitted model

	derived bool // Deviance was computed from Eval rather than supplied
}

// NewInferenceResult validates and creates an InferenceResult. If deviance
// is nil, it is computed from the evaluator for each draw: with Deviance when
// the evaluator is a DevianceEvaluator, otherwise as 2*NegLogPosterior (which
// carries the prior term unless the prior is flat).
func NewInferenceResult(name string, samples [][]float64, deviance []float64, data *Dataset, eval Evaluator) (*InferenceResult, error) {
	r := &InferenceResult{
		Name:     name,
		Samples:  samples,
		Deviance: deviance,
		Data:     data,
		Eval:     eval,
	}

	if r.Deviance == nil && r.Eval != nil && r.Data != nil {
		r.Deviance = make([]float64, len(samples))
		for i, theta := range samples {
			r.Deviance[i], _ = r.DevianceAt(theta)
		}
		r.derived = true
	}

	if err := r.Check(); err != nil {
		return nil, err
	}

	return r, nil
}

// Check returns an error if the result breaks the inference result contract
func (r *InferenceResult) Check() error {
	if r == nil {
		return Invalidf("Inference result is nil")
	}
	if r.Eval == nil {
		return Invalidf("Inference result %s has no evaluator", r.Name)
	}
	if err := r.Data.Check(); err != nil {
		return Invalidf("Inference result %s has bad data: %v", r.Name, err)
	}
	if len(r.Samples) < 1 {
		return Invalidf("Inference result %s has no parameter samples", r.Name)
	}
	if len(r.Deviance) != len(r.Samples) {
		return Invalidf("Inference result %s has %d deviance values for %d samples", r.Name, len(r.Deviance), len(r.Samples))
	}

	width := r.Eval.NumParams()
	for i, theta := range r.Samples {
		if len(theta) != width {
			return Invalidf("Inference result %s sample %d has %d params, expected %d", r.Name, i, len(theta), width)
		}
		for _, p := range theta {
			if math.IsNaN(p) {
				return Invalidf("Inference result %s sample %d has a NaN param", r.Name, i)
			}
		}
	}

	return nil
}

// SampleCount is the number of stored posterior draws
func (r *InferenceResult) SampleCount() int {
	return len(r.Samples)
}

// NumParams is the length of every parameter vector
func (r *InferenceResult) NumParams() int {
	if len(r.Samples) < 1 {
		return 0
	}
	return len(r.Samples[0])
}

// NegLogPosterior evaluates the fitted model at theta against this result's
// own dataset.
func (r *InferenceResult) NegLogPosterior(theta []float64) float64 {
	return r.Eval.NegLogPosterior(theta, r.Data)
}

// DevianceAt returns the deviance at theta on the same scale as r.Deviance.
// ok is false when that scale is unknown: the deviances were supplied by the
// fitter and the evaluator can not compute a likelihood-only deviance.
func (r *InferenceResult) DevianceAt(theta []float64) (d float64, ok bool) {
	if de, is := r.Eval.(DevianceEvaluator); is {
		return de.Deviance(theta, r.Data), true
	}
	return 2.0 * r.Eval.NegLogPosterior(theta, r.Data), r.derived
}

// MeanParams returns the posterior mean of each parameter
func (r *InferenceResult) MeanParams() []float64 {
	mean := make([]float64, r.NumParams())
	for _, theta := range r.Samples {
		for i, p := range theta {
			mean[i] += p
		}
	}
	n := float64(len(r.Samples))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}
