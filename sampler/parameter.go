package sampler

import (
	"github.com/CraigKelly/modelgibbs/model"
	"github.com/CraigKelly/modelgibbs/rand"
)

// SampleParameter re-samples a parameter setting from the posterior of m by
// picking one of its stored samples uniformly at random. The result always
// has one parameter vector per sub-model (so a single model gives a
// one-element slice). Indices are drawn independently per sub-model.
func SampleParameter(gen *rand.Generator, m model.Model) ([][]float64, error) {
	switch m.Kind() {
	case model.KindSingle, model.KindGroup:
	default:
		return nil, model.Invalidf("Can not sample parameters from %q: not a single result or a group", m.Name)
	}

	results := m.Results()
	out := make([][]float64, len(results))
	for i, r := range results {
		n := r.SampleCount()
		if n < 1 {
			return nil, model.Invalidf("Model %s member %d has no samples", m.Name, i)
		}
		out[i] = r.Samples[gen.Intn(n)]
	}

	return out, nil
}
