package likelihood

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/CraigKelly/modelgibbs/model"
)

func TestNew(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]string{"linear", "normal", "poisson"}, Names())

	for _, n := range Names() {
		p, err := New(n)
		assert.NoError(err)
		assert.Equal(n, p.Family)
		assert.Len(p.Priors, p.NumParams())
		for _, pr := range p.Priors {
			assert.Equal("flat", pr.String())
		}
	}

	var p *Posterior
	var err error

	p, err = New("weibull")
	assert.Nil(p)
	assert.True(errors.Is(err, model.ErrInvalidArgument))

	p, err = New(PoissonName, "Gamma(1,4)", "Gauss(0,1)")
	assert.Nil(p)
	assert.True(errors.Is(err, model.ErrInvalidArgument))

	p, err = New(NormalName, "Gauss(0,-1)")
	assert.Nil(p)
	assert.True(errors.Is(err, model.ErrInvalidArgument))

	p, err = New(LinearName, "", "Gauss(0,100)")
	assert.NoError(err)
	assert.Equal([]string{"flat", "Gauss(0,100)", "flat"}, []string{
		p.Priors[0].String(), p.Priors[1].String(), p.Priors[2].String(),
	})
}

func TestNormal(t *testing.T) {
	assert := assert.New(t)

	data := &model.Dataset{Name: "n", Y: []float64{0.0}}
	e, err := New(NormalName)
	assert.NoError(err)
	assert.Equal(2, e.NumParams())

	// -log N(0 | 0, 1) = 0.5*log(2*pi)
	assert.InDelta(0.5*math.Log(2*math.Pi), e.NegLogPosterior([]float64{0, 1}, data), 1e-12)

	// Further away is less likely
	assert.True(e.NegLogPosterior([]float64{3, 1}, data) > e.NegLogPosterior([]float64{1, 1}, data))

	assert.True(math.IsInf(e.NegLogPosterior([]float64{0, 0}, data), 1))
	assert.True(math.IsInf(e.NegLogPosterior([]float64{0, -1}, data), 1))
	assert.True(math.IsInf(e.NegLogPosterior([]float64{0}, data), 1))
}

func TestLinear(t *testing.T) {
	assert := assert.New(t)

	e, err := New(LinearName)
	assert.NoError(err)
	assert.Equal(3, e.NumParams())

	withX := &model.Dataset{Name: "x", X: []float64{0, 1, 2}, Y: []float64{1, 3, 5}}
	noX := &model.Dataset{Name: "nox", Y: []float64{1, 3, 5}}

	// Exact fit: every residual zero
	exact := 3 * 0.5 * math.Log(2*math.Pi)
	assert.InDelta(exact, e.NegLogPosterior([]float64{1, 2, 1}, withX), 1e-12)
	assert.InDelta(exact, e.NegLogPosterior([]float64{1, 2, 1}, noX), 1e-12)

	assert.True(e.NegLogPosterior([]float64{1, 0, 1}, withX) > exact)
	assert.True(math.IsInf(e.NegLogPosterior([]float64{1, 2, 0}, withX), 1))
}

func TestPoisson(t *testing.T) {
	assert := assert.New(t)

	e, err := New(PoissonName)
	assert.NoError(err)
	assert.Equal(1, e.NumParams())

	data := &model.Dataset{Name: "p", Y: []float64{0, 2}}

	// -log P(0|1) - log P(2|1) = 1 + (1 + log 2)
	assert.InDelta(2+math.Log(2), e.NegLogPosterior([]float64{1}, data), 1e-12)
	assert.True(math.IsInf(e.NegLogPosterior([]float64{0}, data), 1))
}

func TestPriorsShiftPosterior(t *testing.T) {
	assert := assert.New(t)

	data := &model.Dataset{Name: "n", Y: []float64{0.0}}
	flat, _ := New(NormalName)
	tight, err := New(NormalName, "Gauss(0,1)", "Gamma(2,1)")
	assert.NoError(err)

	theta := []float64{0.5, 1.0}

	// Gauss(0,1) at 0.5 plus Gamma(shape 2, scale 1) at 1.0
	gauss := -0.5*math.Log(2*math.Pi) - 0.125
	gamma := math.Log(1.0) - 1.0 // x^(k-1) e^-x / Gamma(k) with k=2, x=1
	exp := flat.NegLogPosterior(theta, data) - gauss - gamma
	assert.InDelta(exp, tight.NegLogPosterior(theta, data), 1e-12)

	// Outside prior support
	assert.True(math.IsInf(tight.NegLogPosterior([]float64{0.5, -1.0}, data), 1))
}

func TestParsePrior(t *testing.T) {
	assert := assert.New(t)

	good := []struct {
		spec string
		x    float64
		exp  float64
	}{
		{"", 1e6, 0},
		{"flat", -3, 0},
		{"Unconstrained", 3, 0},
		{"Gauss(0,1)", 0, -0.5 * math.Log(2*math.Pi)},
		{" Gauss( 1 , 2 ) ", 1, -0.5*math.Log(2*math.Pi) - math.Log(2)},
		{"Gamma(1,4)", 2, -math.Log(4) - 0.5},
		{"nGamma(1,4)", -2, -math.Log(4) - 0.5},
		{"Beta(1,1)", 0.3, 0},
		{"Uniform(0,.5)", 0.1, math.Log(2)},
	}

	for _, g := range good {
		p, err := ParsePrior(g.spec)
		assert.NoError(err, g.spec)
		if err == nil {
			assert.InDelta(g.exp, p.LogProb(g.x), 1e-12, g.spec)
		}
	}

	outside := []struct {
		spec string
		x    float64
	}{
		{"Gamma(1,4)", -1},
		{"nGamma(1,4)", 1},
		{"Beta(2,30)", 1.5},
		{"Uniform(0,.1)", 0.2},
	}
	for _, o := range outside {
		p, err := ParsePrior(o.spec)
		assert.NoError(err, o.spec)
		assert.True(math.IsInf(p.LogProb(o.x), -1), o.spec)
	}

	bad := []string{
		"Gauss",
		"Gauss(0)",
		"Gauss(a,1)",
		"Gauss(0,b)",
		"Gauss(0,0)",
		"Gamma(0,1)",
		"Beta(1,-1)",
		"Uniform(1,0)",
		"Cauchy(0,1)",
	}
	for _, b := range bad {
		p, err := ParsePrior(b)
		assert.Nil(p, b)
		assert.Error(err, b)
	}
}

func TestDevianceIgnoresPriors(t *testing.T) {
	assert := assert.New(t)

	data := &model.Dataset{Name: "d", Y: []float64{1.0, 1.5, 0.5}}
	flat, err := New(NormalName)
	assert.NoError(err)
	informed, err := New(NormalName, "Gauss(0,0.5)", "Gamma(2,1)")
	assert.NoError(err)

	theta := []float64{1.0, 0.5}
	assert.InDelta(2.0*flat.NegLogPosterior(theta, data), informed.Deviance(theta, data), 1e-12)
	assert.NotEqual(informed.Deviance(theta, data), 2.0*informed.NegLogPosterior(theta, data))

	assert.True(math.IsInf(informed.Deviance([]float64{1.0, -0.5}, data), 1))
	assert.True(math.IsInf(informed.Deviance([]float64{1.0}, data), 1))

	// Fitter-style deviances with informative priors give a sane PD
	const n = 50
	samples := make([][]float64, n)
	deviance := make([]float64, n)
	for i := range samples {
		f := float64(i-n/2) / n
		samples[i] = []float64{1.0 + 0.5*f, 0.5 * (1.0 + 0.2*f)}
		deviance[i] = informed.Deviance(samples[i], data)
	}

	r, err := model.NewInferenceResult("normal", samples, deviance, data, informed)
	assert.NoError(err)
	s, err := model.SummarizeDeviance(r)
	assert.NoError(err)
	assert.InDelta(0.2678166, s.PD, 1e-6)
	assert.InDelta(s.Mean+s.PD, s.DIC, 1e-12)
}
