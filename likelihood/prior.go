package likelihood

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// Prior is a (possibly improper) prior density over one parameter
type Prior interface {
	LogProb(x float64) float64
	String() string
}

// Flat is the improper uniform prior over the real line
type Flat struct{}

// LogProb implements Prior
func (Flat) LogProb(x float64) float64 {
	if math.IsNaN(x) {
		return math.Inf(-1)
	}
	return 0
}

func (Flat) String() string { return "flat" }

// distPrior wraps a gonum distribution, optionally mirrored around zero
type distPrior struct {
	spec   string
	dist   interface{ LogProb(float64) float64 }
	mirror bool
}

func (d distPrior) LogProb(x float64) float64 {
	if d.mirror {
		x = -x
	}
	return d.dist.LogProb(x)
}

func (d distPrior) String() string { return d.spec }

var priorPattern = regexp.MustCompile(`^\s*([A-Za-z]+)\s*\(\s*([^,()]+)\s*,\s*([^,()]+)\s*\)\s*$`)

// ParsePrior reads a prior specification:
//
//	""  / "flat" / "unconstrained"  flat prior
//	Gauss(mu,sigma)                 normal
//	Gamma(k,theta)                  gamma with shape k and scale theta
//	nGamma(k,theta)                 gamma mirrored onto the negative axis
//	Beta(alpha,beta)                beta
//	Uniform(lo,hi)                  uniform
func ParsePrior(spec string) (Prior, error) {
	trimmed := strings.TrimSpace(spec)
	switch strings.ToLower(trimmed) {
	case "", "flat", "unconstrained":
		return Flat{}, nil
	}

	m := priorPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return nil, errors.Errorf("Could not parse prior %q", spec)
	}

	p1, err := strconv.ParseFloat(strings.TrimSpace(m[2]), 64)
	if err != nil {
		return nil, errors.Wrapf(err, "Bad first argument in prior %q", spec)
	}
	p2, err := strconv.ParseFloat(strings.TrimSpace(m[3]), 64)
	if err != nil {
		return nil, errors.Wrapf(err, "Bad second argument in prior %q", spec)
	}

	switch m[1] {
	case "Gauss":
		if p2 <= 0 {
			return nil, errors.Errorf("Gauss prior %q needs sigma > 0", spec)
		}
		return distPrior{spec: trimmed, dist: distuv.Normal{Mu: p1, Sigma: p2}}, nil
	case "Gamma", "nGamma":
		if p1 <= 0 || p2 <= 0 {
			return nil, errors.Errorf("Gamma prior %q needs positive shape and scale", spec)
		}
		return distPrior{
			spec:   trimmed,
			dist:   distuv.Gamma{Alpha: p1, Beta: 1.0 / p2},
			mirror: m[1] == "nGamma",
		}, nil
	case "Beta":
		if p1 <= 0 || p2 <= 0 {
			return nil, errors.Errorf("Beta prior %q needs positive parameters", spec)
		}
		return distPrior{spec: trimmed, dist: distuv.Beta{Alpha: p1, Beta: p2}}, nil
	case "Uniform":
		if p2 <= p1 {
			return nil, errors.Errorf("Uniform prior %q needs lo < hi", spec)
		}
		return distPrior{spec: trimmed, dist: distuv.Uniform{Min: p1, Max: p2}}, nil
	}

	return nil, errors.Errorf("Unknown prior distribution %q", m[1])
}
