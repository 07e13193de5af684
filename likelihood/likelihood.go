// Package likelihood holds concrete posterior evaluators for the model
// comparison engine. A Posterior pairs a likelihood family with one prior per
// parameter; competing models usually share a family and differ in priors.
package likelihood

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/CraigKelly/modelgibbs/model"
)

// Family names accepted by New
const (
	NormalName  = "normal"
	LinearName  = "linear"
	PoissonName = "poisson"
)

// logLikelihood is the log likelihood of theta for data. The parameter
// vector has already been checked for length.
type logLikelihood func(theta []float64, data *model.Dataset) float64

type family struct {
	params []string
	logLik logLikelihood
}

var families = map[string]family{
	NormalName:  {[]string{"mu", "sigma"}, normalLogLik},
	LinearName:  {[]string{"a", "b", "sigma"}, linearLogLik},
	PoissonName: {[]string{"lambda"}, poissonLogLik},
}

// Names lists the known families in sorted order
func Names() []string {
	names := make([]string, 0, len(families))
	for n := range families {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Posterior is a model.Evaluator: likelihood family plus priors
type Posterior struct {
	Family string
	Params []string
	Priors []Prior
	logLik logLikelihood
}

// New returns the posterior for the named family. priors are prior
// specifications (see ParsePrior), one per parameter in order; missing or
// empty entries mean a flat prior.
func New(name string, priors ...string) (*Posterior, error) {
	f, ok := families[name]
	if !ok {
		return nil, model.Invalidf("Unknown likelihood family %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	if len(priors) > len(f.params) {
		return nil, model.Invalidf("Family %s has %d params but %d priors given", name, len(f.params), len(priors))
	}

	p := &Posterior{
		Family: name,
		Params: f.params,
		Priors: make([]Prior, len(f.params)),
		logLik: f.logLik,
	}

	for i := range p.Priors {
		spec := ""
		if i < len(priors) {
			spec = priors[i]
		}
		pr, err := ParsePrior(spec)
		if err != nil {
			return nil, model.Invalidf("Bad prior for %s param %s: %v", name, f.params[i], err)
		}
		p.Priors[i] = pr
	}

	return p, nil
}

// NumParams implements model.Evaluator
func (p *Posterior) NumParams() int {
	return len(p.Params)
}

// NegLogPosterior implements model.Evaluator
func (p *Posterior) NegLogPosterior(theta []float64, data *model.Dataset) float64 {
	if len(theta) != len(p.Params) {
		return math.Inf(1)
	}

	lp := 0.0
	for i, pr := range p.Priors {
		lp += pr.LogProb(theta[i])
		if math.IsInf(lp, -1) {
			return math.Inf(1)
		}
	}

	ll := p.logLik(theta, data)
	if math.IsNaN(ll) || math.IsInf(ll, -1) {
		return math.Inf(1)
	}

	return -(ll + lp)
}

// Deviance implements model.DevianceEvaluator: -2 log likelihood, without
// the priors. Parameters outside the likelihood's support give +Inf.
func (p *Posterior) Deviance(theta []float64, data *model.Dataset) float64 {
	if len(theta) != len(p.Params) {
		return math.Inf(1)
	}

	ll := p.logLik(theta, data)
	if math.IsNaN(ll) || math.IsInf(ll, -1) {
		return math.Inf(1)
	}
	return -2.0 * ll
}

// Y ~ N(mu, sigma), theta = [mu, sigma]
func normalLogLik(theta []float64, data *model.Dataset) float64 {
	mu, sigma := theta[0], theta[1]
	if sigma <= 0 {
		return math.Inf(-1)
	}

	dist := distuv.Normal{Mu: mu, Sigma: sigma}
	ll := 0.0
	for _, y := range data.Y {
		ll += dist.LogProb(y)
	}
	return ll
}

// Y ~ N(a + b*X, sigma), theta = [a, b, sigma]. Data without X uses the
// observation index as the covariate.
func linearLogLik(theta []float64, data *model.Dataset) float64 {
	a, b, sigma := theta[0], theta[1], theta[2]
	if sigma <= 0 {
		return math.Inf(-1)
	}

	ll := 0.0
	for i, y := range data.Y {
		x := float64(i)
		if len(data.X) > 0 {
			x = data.X[i]
		}
		dist := distuv.Normal{Mu: a + b*x, Sigma: sigma}
		ll += dist.LogProb(y)
	}
	return ll
}

// Y ~ Poisson(lambda), theta = [lambda]
func poissonLogLik(theta []float64, data *model.Dataset) float64 {
	lambda := theta[0]
	if lambda <= 0 {
		return math.Inf(-1)
	}

	dist := distuv.Poisson{Lambda: lambda}
	ll := 0.0
	for _, y := range data.Y {
		ll += dist.LogProb(y)
	}
	return ll
}
