package model

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Dataset is the observed data an InferenceResult was fitted to. Y holds the
// observations; X is an optional covariate (stimulus level, dose, time) that
// must be index-aligned with Y when present.
type Dataset struct {
	Name string    `json:"name" yaml:"name" toml:"name"`
	X    []float64 `json:"x,omitempty" yaml:"x,omitempty" toml:"x,omitempty"`
	Y    []float64 `json:"y" yaml:"y" toml:"y"`
}

// Len is the number of observations
func (d *Dataset) Len() int {
	return len(d.Y)
}

// Check returns an error if there is a problem with the dataset
func (d *Dataset) Check() error {
	if d == nil {
		return Invalidf("Dataset is nil")
	}
	if len(d.Y) < 1 {
		return Invalidf("Dataset %s has no observations", d.Name)
	}
	if len(d.X) > 0 && len(d.X) != len(d.Y) {
		return Invalidf("Dataset %s has len(X)=%d but len(Y)=%d", d.Name, len(d.X), len(d.Y))
	}
	for i, y := range d.Y {
		if math.IsNaN(y) {
			return Invalidf("Dataset %s has NaN observation at %d", d.Name, i)
		}
	}
	return nil
}

// Fingerprint is a hash of the numeric content of the dataset. The name is
// deliberately excluded: two copies of the same experiment loaded under
// different names are the same data.
func (d *Dataset) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte

	writeCol := func(col []float64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(col)))
		h.Write(buf[:])
		for _, v := range col {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}

	writeCol(d.X)
	writeCol(d.Y)
	return h.Sum64()
}

// SameData reports whether two datasets hold identical observations
func SameData(d1 *Dataset, d2 *Dataset) bool {
	if d1 == d2 {
		return true
	}
	if d1 == nil || d2 == nil {
		return false
	}
	if d1.Len() != d2.Len() || len(d1.X) != len(d2.X) {
		return false
	}
	return d1.Fingerprint() == d2.Fingerprint()
}

// Clone returns a deep copy of the dataset
func (d *Dataset) Clone() *Dataset {
	cp := &Dataset{
		Name: d.Name,
		Y:    make([]float64, len(d.Y)),
	}
	copy(cp.Y, d.Y)
	if len(d.X) > 0 {
		cp.X = make([]float64, len(d.X))
		copy(cp.X, d.X)
	}
	return cp
}
