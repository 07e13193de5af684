package sampler

import (
	"github.com/pkg/errors"

	"github.com/CraigKelly/modelgibbs/buffer"
	"github.com/CraigKelly/modelgibbs/model"
	"github.com/CraigKelly/modelgibbs/rand"
)

// DefaultSamples is the chain length used when the caller does not care
const DefaultSamples = 1000

// GibbsChain is the output of a Gibbs model comparison run
type GibbsChain struct {
	Counts []int // Counts[m] is the number of steps spent in model m
	Chain  []int // Model index after every step
}

// Posterior returns Counts normalized to a probability vector
func (g *GibbsChain) Posterior() []float64 {
	p := make([]float64, len(g.Counts))
	if len(g.Chain) < 1 {
		return p
	}
	n := float64(len(g.Chain))
	for i, c := range g.Counts {
		p[i] = float64(c) / n
	}
	return p
}

// Discard returns a new GibbsChain without the first burnIn steps. This is
// the caller-side burn-in: GibbsModel itself never throws samples away.
func (g *GibbsChain) Discard(burnIn int) (*GibbsChain, error) {
	if burnIn < 0 || burnIn >= len(g.Chain) {
		return nil, model.Invalidf("Can not discard %d of %d chain steps", burnIn, len(g.Chain))
	}

	out := &GibbsChain{
		Counts: make([]int, len(g.Counts)),
		Chain:  make([]int, len(g.Chain)-burnIn),
	}
	copy(out.Chain, g.Chain[burnIn:])
	for _, m := range out.Chain {
		out.Counts[m]++
	}

	return out, nil
}

// MergeChains combines independent chains over the same model set: counts
// are summed and the chains concatenated in argument order.
func MergeChains(chains ...*GibbsChain) (*GibbsChain, error) {
	if len(chains) < 1 {
		return nil, errors.Errorf("Can not merge 0 chains")
	}

	k := len(chains[0].Counts)
	total := 0
	for i, ch := range chains {
		if len(ch.Counts) != k {
			return nil, errors.Errorf("Cannot merge chain %d with %d models into %d models", i, len(ch.Counts), k)
		}
		total += len(ch.Chain)
	}

	merged := &GibbsChain{
		Counts: make([]int, k),
		Chain:  make([]int, 0, total),
	}
	for _, ch := range chains {
		for m, c := range ch.Counts {
			merged.Counts[m] += c
		}
		merged.Chain = append(merged.Chain, ch.Chain...)
	}

	return merged, nil
}

// Chain is a running two-block Gibbs sampler over (model, parameters). It
// can be advanced in batches, which lets callers report progress or stop
// early between batches. A Chain is not safe for concurrent use, but
// independent chains over the same ModelSet may run concurrently.
type Chain struct {
	Target            *model.ModelSet
	Gen               *rand.Generator
	ConvergenceWindow int
	History           *buffer.CircularInt
	TotalSampleCount  int64
	State             int

	out *GibbsChain
}

// NewChain returns a chain in state initial, ready to go. The convergence
// window cw is the size of the recent-history buffer used by Convergence.
func NewChain(set *model.ModelSet, gen *rand.Generator, initial int, cw int) (*Chain, error) {
	if set.Len() < 1 {
		return nil, model.Invalidf("Model set is empty")
	}
	if gen == nil {
		return nil, model.Invalidf("A random generator is required")
	}
	if initial < 0 || initial >= set.Len() {
		return nil, model.Invalidf("Initial model %d is out of range [0,%d)", initial, set.Len())
	}
	if cw < 2 {
		cw = 2
	}

	ch := &Chain{
		Target:            set,
		Gen:               gen,
		ConvergenceWindow: cw,
		History:           buffer.NewCircularInt(cw),
		State:             initial,
		out: &GibbsChain{
			Counts: make([]int, set.Len()),
		},
	}

	return ch, nil
}

// Advance performs n more Gibbs steps
func (c *Chain) Advance(n int) error {
	if n < 0 {
		return model.Invalidf("Can not advance a chain %d steps", n)
	}

	if cap(c.out.Chain)-len(c.out.Chain) < n {
		grown := make([]int, len(c.out.Chain), len(c.out.Chain)+n)
		copy(grown, c.out.Chain)
		c.out.Chain = grown
	}

	for i := 0; i < n; i++ {
		if err := c.oneSample(); err != nil {
			return errors.Wrapf(err, "Failure on chain step %d", c.TotalSampleCount)
		}
	}

	return nil
}

// oneSample takes a single sample and updates the chain state.
func (c *Chain) oneSample() error {
	theta, err := SampleParameter(c.Gen, c.Target.Model(c.State))
	if err != nil {
		return err
	}

	next, err := SampleModel(c.Gen, theta, c.Target)
	if err != nil {
		return err
	}

	c.State = next
	c.out.Counts[next]++
	c.out.Chain = append(c.out.Chain, next)
	c.History.Add(next)
	c.TotalSampleCount++

	return nil
}

// Counts returns a copy of the per-model visit counts so far
func (c *Chain) Counts() []int {
	cp := make([]int, len(c.out.Counts))
	copy(cp, c.out.Counts)
	return cp
}

// Result returns a copy of the chain's output so far
func (c *Chain) Result() *GibbsChain {
	cp := &GibbsChain{
		Counts: make([]int, len(c.out.Counts)),
		Chain:  make([]int, len(c.out.Chain)),
	}
	copy(cp.Counts, c.out.Counts)
	copy(cp.Chain, c.out.Chain)
	return cp
}

// GibbsModel performs Gibbs sampling in the full model P(M, theta), starting
// in model initial and taking nsamples steps. The returned counts are the
// (unnormalized) marginal distribution across models. Nothing is discarded
// as burn-in; see GibbsChain.Discard.
func GibbsModel(set *model.ModelSet, gen *rand.Generator, nsamples int, initial int) (*GibbsChain, error) {
	if set.Len() < 1 {
		return nil, model.Invalidf("Model set is empty")
	}
	if nsamples < 1 {
		return nil, model.Invalidf("Sample count must be positive, got %d", nsamples)
	}

	ch, err := NewChain(set, gen, initial, 2)
	if err != nil {
		return nil, err
	}

	if err = ch.Advance(nsamples); err != nil {
		return nil, err
	}

	return ch.out, nil
}
