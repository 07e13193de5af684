package sampler

import (
	"math"
	"testing"

	"github.com/CraigKelly/modelgibbs/likelihood"
	"github.com/CraigKelly/modelgibbs/model"
	"github.com/CraigKelly/modelgibbs/rand"
)

// constEval ignores theta: the full conditional is the same from anywhere,
// so the stationary distribution is just softmax(-c).
type constEval struct {
	c     float64
	width int
}

func (e constEval) NumParams() int { return e.width }

func (e constEval) NegLogPosterior(theta []float64, data *model.Dataset) float64 {
	return e.c
}

// ownEval only supports parameter vectors whose first entry is id, so models
// built from it never exchange.
type ownEval struct {
	id float64
}

func (e ownEval) NumParams() int { return 1 }

func (e ownEval) NegLogPosterior(theta []float64, data *model.Dataset) float64 {
	if theta[0] == e.id {
		return 0
	}
	return math.Inf(1)
}

var (
	dataA = &model.Dataset{Name: "A", X: []float64{0, 1, 2, 3}, Y: []float64{0.2, -0.1, 0.4, 0.1}}
	dataB = &model.Dataset{Name: "B", Y: []float64{1.0, 1.5, 0.5}}
)

func testGen(t testing.TB, seed int64) *rand.Generator {
	gen, err := rand.NewGenerator(seed)
	if err != nil {
		t.Fatalf("Could not init PRNG %v", err)
	}
	return gen
}

func mustResult(t testing.TB, name string, data *model.Dataset, eval model.Evaluator, samples [][]float64) *model.InferenceResult {
	r, err := model.NewInferenceResult(name, samples, nil, data, eval)
	if err != nil {
		t.Fatalf("Could not create result %s: %v", name, err)
	}
	return r
}

func mustSingle(t testing.TB, r *model.InferenceResult) model.Model {
	m, err := model.NewSingle(r)
	if err != nil {
		t.Fatalf("Could not create model %s: %v", r.Name, err)
	}
	return m
}

func mustSet(t testing.TB, models ...model.Model) *model.ModelSet {
	s, err := model.NewModelSet(models...)
	if err != nil {
		t.Fatalf("Could not create model set: %v", err)
	}
	return s
}

// seqSamples creates n deterministic 1-param samples
func seqSamples(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = []float64{float64(i)}
	}
	return out
}

// constSet returns a set of single models with constant weights c
func constSet(t testing.TB, c ...float64) *model.ModelSet {
	models := make([]model.Model, len(c))
	for i, v := range c {
		r := mustResult(t, "const", dataA, constEval{v, 1}, seqSamples(5))
		models[i] = mustSingle(t, r)
	}
	return mustSet(t, models...)
}

// normalSamples creates n [mu, sigma] samples spread around (mu, sigma)
func normalSamples(n int, mu float64, sigma float64) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		f := float64(i-n/2) / float64(n)
		out[i] = []float64{mu + 0.5*f, sigma * (1.0 + 0.2*f)}
	}
	return out
}

// normalSet returns two normal models for dataB that differ in their prior on
// the mean
func normalSet(t testing.TB, n int) *model.ModelSet {
	wide, err := likelihood.New(likelihood.NormalName, "Gauss(0,10)", "Gamma(2,1)")
	if err != nil {
		t.Fatalf("Bad posterior %v", err)
	}
	narrow, err := likelihood.New(likelihood.NormalName, "Gauss(0,0.5)", "Gamma(2,1)")
	if err != nil {
		t.Fatalf("Bad posterior %v", err)
	}

	ra := mustResult(t, "wide", dataB, wide, normalSamples(n, 1.0, 0.5))
	rb := mustResult(t, "narrow", dataB, narrow, normalSamples(n, 0.6, 0.6))
	return mustSet(t, mustSingle(t, ra), mustSingle(t, rb))
}
