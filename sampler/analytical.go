package sampler

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/CraigKelly/modelgibbs/model"
)

// negativeTolerance is how far below zero a solved stationary probability
// may fall (from rounding) before we call the solution garbage
const negativeTolerance = 1e-9

// TransitionMatrix estimates the K x K transition matrix of the model chain
// without simulating it. Row k is the full conditional f(M | theta) averaged
// over every stored posterior sample theta of model k. For a group, sample j
// of every member is used together, so members must have equal sample counts
// (which model.NewGroup guarantees). Every row sums to 1.
func TransitionMatrix(set *model.ModelSet) (*mat.Dense, error) {
	k := set.Len()
	if k < 1 {
		return nil, model.Invalidf("Model set is empty")
	}

	t := mat.NewDense(k, k, nil)
	row := make([]float64, k)

	for from := 0; from < k; from++ {
		m := set.Model(from)
		results := m.Results()
		theta := make([][]float64, len(results))

		for i := range row {
			row[i] = 0
		}

		n := m.SampleCount()
		for j := 0; j < n; j++ {
			for i, r := range results {
				theta[i] = r.Samples[j]
			}
			p, err := Conditional(theta, set)
			if err != nil {
				return nil, errors.Wrapf(err, "Transition row %d (%s) sample %d", from, m.Name, j)
			}
			for to, v := range p {
				row[to] += v
			}
		}

		tot := 0.0
		for _, v := range row {
			tot += v
		}
		if tot <= 0 {
			return nil, model.Numericalf("Model %d (%s) has an empty transition row", from, m.Name)
		}
		for to := range row {
			row[to] /= tot
		}

		t.SetRow(from, row)
	}

	return t, nil
}

// Stationary solves pi * T = pi with sum(pi) = 1 for a row-stochastic T. The
// system (T - I)^T pi = 0 is singular by construction, so its first equation
// is replaced by the normalization constraint. A transition structure with
// no unique stationary distribution (e.g. models that never exchange) leaves
// the system singular and returns model.ErrNumerical.
func Stationary(t mat.Matrix) ([]float64, error) {
	r, c := t.Dims()
	if r != c || r < 1 {
		return nil, model.Invalidf("Transition matrix must be square and non-empty, got %dx%d", r, c)
	}

	var a mat.Dense
	a.CloneFrom(t.T())
	for i := 0; i < r; i++ {
		a.Set(i, i, a.At(i, i)-1.0)
	}
	for j := 0; j < c; j++ {
		a.Set(0, j, 1.0)
	}

	b := mat.NewVecDense(r, nil)
	b.SetVec(0, 1.0)

	var pi mat.VecDense
	if err := pi.SolveVec(&a, b); err != nil {
		return nil, model.Numericalf("Stationary distribution system is singular: %v", err)
	}

	out := make([]float64, r)
	tot := 0.0
	for i := range out {
		v := pi.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, model.Numericalf("Stationary probability %d is %v", i, v)
		}
		if v < 0 {
			if v < -negativeTolerance {
				return nil, model.Numericalf("Stationary probability %d is negative (%g)", i, v)
			}
			v = 0
		}
		out[i] = v
		tot += v
	}
	for i := range out {
		out[i] /= tot
	}

	return out, nil
}

// GibbsAnalytical computes the model posterior the Gibbs chain converges to,
// directly: it builds the TransitionMatrix and returns its Stationary
// distribution along with the matrix.
func GibbsAnalytical(set *model.ModelSet) ([]float64, *mat.Dense, error) {
	t, err := TransitionMatrix(set)
	if err != nil {
		return nil, nil, err
	}

	pi, err := Stationary(t)
	if err != nil {
		return nil, t, err
	}

	return pi, t, nil
}
