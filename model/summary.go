package model

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// DevianceSummary describes the posterior deviance of one inference result.
// PD and DIC follow Spiegelhalter et al: PD = mean(D) - D(mean theta) and
// DIC = mean(D) + PD. Both are NaN when D(mean theta) can not be computed on
// the scale of the supplied deviances (see InferenceResult.DevianceAt).
type DevianceSummary struct {
	Name   string
	Mean   float64
	Median float64
	Lower  float64 // 2.5 percentile (nearest rank)
	Upper  float64 // 97.5 percentile (nearest rank)
	PD     float64
	DIC    float64
}

// SummarizeDeviance computes the DevianceSummary for r
func SummarizeDeviance(r *InferenceResult) (*DevianceSummary, error) {
	if err := r.Check(); err != nil {
		return nil, err
	}

	data := stats.Float64Data(r.Deviance)

	var err error
	s := &DevianceSummary{Name: r.Name}

	if s.Mean, err = data.Mean(); err != nil {
		return nil, errors.Wrapf(err, "Could not find mean deviance for %s", r.Name)
	}
	if s.Median, err = data.Median(); err != nil {
		return nil, errors.Wrapf(err, "Could not find median deviance for %s", r.Name)
	}
	if s.Lower, err = data.PercentileNearestRank(2.5); err != nil {
		return nil, errors.Wrapf(err, "Could not find lower deviance for %s", r.Name)
	}
	if s.Upper, err = data.PercentileNearestRank(97.5); err != nil {
		return nil, errors.Wrapf(err, "Could not find upper deviance for %s", r.Name)
	}

	atMean, ok := r.DevianceAt(r.MeanParams())
	if !ok {
		s.PD, s.DIC = math.NaN(), math.NaN()
		return s, nil
	}
	s.PD = s.Mean - atMean
	s.DIC = s.Mean + s.PD

	return s, nil
}
