package model

import (
	"strings"
)

// Kind tells a Model's variant
type Kind int

// Model kinds. The zero value is invalid so that an uninitialized Model is
// always rejected.
const (
	KindInvalid Kind = iota
	KindSingle
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindGroup:
		return "group"
	default:
		return "invalid"
	}
}

// Model is one candidate explanation of the data: either a single inference
// result, or an ordered group of results sharing a model identity (e.g.
// per-condition fits under one hypothesis). Use NewSingle or NewGroup.
type Model struct {
	Name    string
	kind    Kind
	results []*InferenceResult
}

// NewSingle creates a Model from one inference result
func NewSingle(r *InferenceResult) (Model, error) {
	if err := r.Check(); err != nil {
		return Model{}, err
	}

	return Model{
		Name:    r.Name,
		kind:    KindSingle,
		results: []*InferenceResult{r},
	}, nil
}

// NewGroup creates a Model from an ordered group of inference results. All
// members must carry the same number of posterior samples, since the
// analytical solver walks them in lockstep.
func NewGroup(name string, rs ...*InferenceResult) (Model, error) {
	if len(rs) < 1 {
		return Model{}, Invalidf("Group %s has no inference results", name)
	}

	for i, r := range rs {
		if err := r.Check(); err != nil {
			return Model{}, Invalidf("Group %s member %d is invalid: %v", name, i, err)
		}
	}

	n := rs[0].SampleCount()
	for i, r := range rs[1:] {
		if r.SampleCount() != n {
			return Model{}, Invalidf("Group %s member %d has %d samples, member 0 has %d", name, i+1, r.SampleCount(), n)
		}
	}

	if len(name) < 1 {
		names := make([]string, len(rs))
		for i, r := range rs {
			names[i] = r.Name
		}
		name = strings.Join(names, "+")
	}

	m := Model{
		Name:    name,
		kind:    KindGroup,
		results: make([]*InferenceResult, len(rs)),
	}
	copy(m.results, rs)

	return m, nil
}

// Kind returns the variant of this model
func (m Model) Kind() Kind {
	return m.kind
}

// Results returns the underlying inference results. A single model returns a
// one-element slice, so callers may treat both variants uniformly.
func (m Model) Results() []*InferenceResult {
	return m.results
}

// Arity is the number of inference results (sub-models) in the model
func (m Model) Arity() int {
	return len(m.results)
}

// SampleCount is the number of posterior draws per member
func (m Model) SampleCount() int {
	if len(m.results) < 1 {
		return 0
	}
	return m.results[0].SampleCount()
}

// Check returns an error if the model is not a valid single or group
func (m Model) Check() error {
	switch m.kind {
	case KindSingle:
		if len(m.results) != 1 {
			return Invalidf("Single model %s has %d results", m.Name, len(m.results))
		}
	case KindGroup:
		if len(m.results) < 1 {
			return Invalidf("Group model %s is empty", m.Name)
		}
	default:
		return Invalidf("Model %q is neither a single result nor a group", m.Name)
	}

	n := m.results[0].SampleCount()
	for i, r := range m.results {
		if err := r.Check(); err != nil {
			return Invalidf("Model %s member %d is invalid: %v", m.Name, i, err)
		}
		if r.SampleCount() != n {
			return Invalidf("Model %s member %d has %d samples, expected %d", m.Name, i, r.SampleCount(), n)
		}
	}

	return nil
}
