package sampler

import (
	"math"

	"github.com/pkg/errors"

	"github.com/CraigKelly/modelgibbs/model"
)

// Measure is a distance between two (possibly unnormalized) distributions,
// e.g. model.HellingerDiff
type Measure func(p1 []float64, p2 []float64) float64

// windowFreqs returns the model frequencies in the first and second halves
// of the chain's convergence window. Both are nil until the window is full.
func (c *Chain) windowFreqs() ([]float64, []float64) {
	return c.History.HalfCounts(c.Target.Len())
}

// Convergence compares the model frequencies of the older and newer halves
// of the convergence window with d (Hellinger distance when d is nil). Small
// values mean the two halves agree. It is an error to ask before the window
// has filled.
func (c *Chain) Convergence(d Measure) (float64, error) {
	if d == nil {
		d = model.HellingerDiff
	}

	f1, f2 := c.windowFreqs()
	if f1 == nil {
		return math.NaN(), errors.Errorf(
			"Chain has %d samples, convergence needs a full window of %d",
			c.TotalSampleCount, c.History.BufSize,
		)
	}

	return d(f1, f2), nil
}

// ChainConvergence returns the worst (largest) of each chain's own
// Convergence and the distance between each chain's window frequencies and
// the pooled window frequencies of all chains. Independent chains that
// disagree about the model posterior have not mixed.
func ChainConvergence(chains []*Chain, d Measure) (float64, error) {
	if len(chains) < 1 {
		return math.NaN(), errors.Errorf("No chains to check")
	}
	if d == nil {
		d = model.HellingerDiff
	}

	worst := 0.0
	k := chains[0].Target.Len()
	pooled := make([]float64, k)
	for i, ch := range chains {
		conv, err := ch.Convergence(d)
		if err != nil {
			return math.NaN(), errors.Wrapf(err, "Chain %d", i)
		}
		worst = math.Max(worst, conv)

		f1, f2 := ch.windowFreqs()
		for m := range pooled {
			pooled[m] += f1[m] + f2[m]
		}
	}

	// Each chain against the pooled frequencies
	for _, ch := range chains {
		f1, f2 := ch.windowFreqs()
		own := make([]float64, k)
		for m := range own {
			own[m] = f1[m] + f2[m]
		}
		worst = math.Max(worst, d(own, pooled))
	}

	return worst, nil
}
