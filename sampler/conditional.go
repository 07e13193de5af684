package sampler

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/CraigKelly/modelgibbs/model"
	"github.com/CraigKelly/modelgibbs/rand"
)

// EvalPost returns the unnormalized log weight of model m given theta: the
// sum of -NegLogPosterior over the model's inference results, paired
// positionally with the entries of theta. A single model uses theta[0]. When
// theta and the model have different lengths only the positions both have
// are scored, so a theta drawn from a group can score a single model.
func EvalPost(m model.Model, theta [][]float64) (float64, error) {
	results := m.Results()
	switch m.Kind() {
	case model.KindSingle, model.KindGroup:
	default:
		return 0, model.Invalidf("Can not evaluate model %q: not a single result or a group", m.Name)
	}

	if len(theta) < 1 {
		return 0, model.Invalidf("Can not evaluate model %s with an empty theta", m.Name)
	}

	logw := 0.0
	for i := range min(len(theta), len(results)) {
		logw -= results[i].NegLogPosterior(theta[i])
	}

	if math.IsNaN(logw) {
		return 0, model.Numericalf("Model %s gave a NaN posterior", m.Name)
	}

	return logw, nil
}

// LogWeights evaluates EvalPost for every model in the set
func LogWeights(theta [][]float64, set *model.ModelSet) ([]float64, error) {
	if set.Len() < 1 {
		return nil, model.Invalidf("Model set is empty")
	}

	logw := make([]float64, set.Len())
	for k := range logw {
		w, err := EvalPost(set.Model(k), theta)
		if err != nil {
			return nil, err
		}
		logw[k] = w
	}

	return logw, nil
}

// Normalize turns unnormalized log weights into a probability vector. The
// maximum is subtracted before exponentiating so large weights can not
// overflow; that shift cancels in the normalization. If no weight is finite
// there is no distribution to return.
func Normalize(logw []float64) ([]float64, error) {
	if len(logw) < 1 {
		return nil, model.Invalidf("No weights to normalize")
	}

	max := math.Inf(-1)
	for i, w := range logw {
		if math.IsNaN(w) || math.IsInf(w, 1) {
			return nil, model.Numericalf("Log weight %d is %v", i, w)
		}
		if w > max {
			max = w
		}
	}
	if math.IsInf(max, -1) {
		return nil, model.Numericalf("All %d log weights are -Inf", len(logw))
	}

	p := make([]float64, len(logw))
	tot := 0.0
	for i, w := range logw {
		p[i] = math.Exp(w - max)
		tot += p[i]
	}
	for i := range p {
		p[i] /= tot
	}

	return p, nil
}

// Conditional returns the full conditional f(M | theta) over the model set
func Conditional(theta [][]float64, set *model.ModelSet) ([]float64, error) {
	logw, err := LogWeights(theta, set)
	if err != nil {
		return nil, err
	}
	return Normalize(logw)
}

// SampleModel draws a model index from the full conditional f(M | theta)
func SampleModel(gen *rand.Generator, theta [][]float64, set *model.ModelSet) (int, error) {
	p, err := Conditional(theta, set)
	if err != nil {
		return -1, err
	}
	return drawIndex(gen, p), nil
}

// drawIndex draws one category from the normalized probability vector p
func drawIndex(gen *rand.Generator, p []float64) int {
	if len(p) == 1 {
		return 0
	}
	return int(distuv.NewCategorical(p, gen).Rand())
}
