package model

import (
	"math"

	"github.com/pkg/errors"
)

// ErrorSuite represents all the loss/error functions we use to compare model
// distributions, usually a Gibbs chain's model frequencies against the
// analytical stationary distribution. A suite may cover several pairs of
// distributions (e.g. one pair per chain): errors beginning with Mean are the
// mean across all pairs while Max is the maximum. So MeanMaxAbsError is the
// MEAN of the Maximum Absolute Error for each pair. Likewise,
// MaxMeanAbsError represents the maximum value of the mean difference.
type ErrorSuite struct {
	MeanMeanAbsError float64
	MeanMaxAbsError  float64
	MeanHellinger    float64
	MeanJSDiverge    float64

	MaxMeanAbsError float64
	MaxMaxAbsError  float64
	MaxHellinger    float64
	MaxJSDiverge    float64
}

// NewErrorSuite returns an ErrorSuite with all calculated error functions.
// dists1[i] is compared against dists2[i]; neither needs to be normalized
// (raw counts are fine) but they must be non-negative.
func NewErrorSuite(dists1 [][]float64, dists2 [][]float64) (*ErrorSuite, error) {
	if len(dists1) != len(dists2) {
		return nil, errors.Errorf("Distribution count mismatch %d != %d", len(dists1), len(dists2))
	}
	if len(dists1) < 1 {
		return nil, errors.Errorf("No distributions to score")
	}

	for i, p1 := range dists1 {
		p2 := dists2[i]
		if len(p1) != len(p2) {
			return nil, errors.Errorf("Distribution %d size mismatch %d != %d", i, len(p1), len(p2))
		}
		for j := range p1 {
			if p1[j] < 0 || p2[j] < 0 {
				return nil, errors.Errorf("Distribution %d has a negative entry at %d", i, j)
			}
		}
	}

	es := ErrorSuite{}

	var d float64
	for i, p1 := range dists1 {
		p2 := dists2[i]

		d = MeanAbsDiff(p1, p2)
		es.MeanMeanAbsError += d
		es.MaxMeanAbsError = math.Max(d, es.MaxMeanAbsError)

		d = MaxAbsDiff(p1, p2)
		es.MeanMaxAbsError += d
		es.MaxMaxAbsError = math.Max(d, es.MaxMaxAbsError)

		d = HellingerDiff(p1, p2)
		es.MeanHellinger += d
		es.MaxHellinger = math.Max(d, es.MaxHellinger)

		d = JSDivergence(p1, p2)
		es.MeanJSDiverge += d
		es.MaxJSDiverge = math.Max(d, es.MaxJSDiverge)
	}

	fc := float64(len(dists1))
	es.MeanMeanAbsError /= fc
	es.MeanMaxAbsError /= fc
	es.MeanHellinger /= fc
	es.MeanJSDiverge /= fc

	return &es, nil
}

// normed returns p scaled to sum to 1. An all-zero p stays all zero.
func normed(p []float64) []float64 {
	const eps = 1e-12

	tot := float64(0.0)
	for _, v := range p {
		tot += v
	}
	if tot < eps {
		tot = eps
	}

	out := make([]float64, len(p))
	for i, v := range p {
		out[i] = v / tot
	}
	return out
}

// MaxAbsDiff returns the maximum difference found between the two prob dists
func MaxAbsDiff(p1 []float64, p2 []float64) float64 {
	n1, n2 := normed(p1), normed(p2)

	maxErr := float64(0.0)
	for c := range n1 {
		err := math.Abs(n1[c] - n2[c])
		if c == 0 || err > maxErr {
			maxErr = err
		}
	}

	return maxErr
}

// MeanAbsDiff returns the mean of the differenced found between the two prob dists
func MeanAbsDiff(p1 []float64, p2 []float64) float64 {
	card := len(p1)
	if card < 1 {
		return 0
	}

	n1, n2 := normed(p1), normed(p2)

	errSum := float64(0.0)
	for c := range n1 {
		errSum += math.Abs(n1[c] - n2[c])
	}

	return errSum / float64(card)
}

// HellingerDiff returns the Hellinger distance between the two prob dists,
// which is similar to the Euclidean L2:
// sqrt(sum((sqrt(p) - sqrt(q))**2)) / sqrt(2)
func HellingerDiff(p1 []float64, p2 []float64) float64 {
	n1, n2 := normed(p1), normed(p2)

	errSum := float64(0.0)
	for c := range n1 {
		errSum += math.Pow(math.Sqrt(n1[c])-math.Sqrt(n2[c]), 2)
	}
	return math.Sqrt(errSum) / math.Sqrt2
}

// klDivergence returns the Kullback–Leibler divergence, which is
// non-symmetric! This is strictly a subroutine for JS Divergence, so there
// is no error checking and the arrays are assumed normalized.
// klDivergence(P, Q) <==> D_{KL}(P || Q)
func klDivergence(v1 []float64, v2 []float64) float64 {
	diverge := float64(0.0)
	for i, p1 := range v1 {
		if p1 <= 0 {
			continue // 0 * log(0) == 0
		}
		diverge += p1 * math.Log2(p1/v2[i])
	}

	return diverge
}

// JSDivergence returns the Jensen-Shannon divergence, which is a
// symmetric gneralization of the KL divergence
func JSDivergence(p1 []float64, p2 []float64) float64 {
	n1, n2 := normed(p1), normed(p2)

	mid := make([]float64, len(n1))
	for i := range n1 {
		mid[i] = (n1[i] + n2[i]) * 0.5
	}

	return 0.5 * (klDivergence(n1, mid) + klDivergence(n2, mid))
}
