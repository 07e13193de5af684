package model

// ModelSet is the ordered collection of K >= 1 models being compared. Its
// order defines the index space for chains and transition matrices. A
// ModelSet is never modified after creation, so any number of chains may
// read it concurrently.
type ModelSet struct {
	models []Model
}

// NewModelSet creates a ModelSet, rejecting empty sets and invalid models. It
// also requires every model to describe the same experiment: identical data
// at every sub-model position the models share.
func NewModelSet(models ...Model) (*ModelSet, error) {
	s, err := NewModelSetUnchecked(models...)
	if err != nil {
		return nil, err
	}

	for i, ref := range positionRefs(models) {
		base := models[ref].results[i]
		for k, m := range models[ref+1:] {
			if i >= m.Arity() {
				continue
			}
			if !SameData(base.Data, m.results[i].Data) {
				return nil, Invalidf(
					"Model %d (%s) member %d was fitted to different data than model %d (%s)",
					ref+1+k, m.Name, i, ref, models[ref].Name,
				)
			}
		}
	}

	return s, nil
}

// NewModelSetUnchecked is NewModelSet without the dataset comparison. The
// structural checks (non-empty, valid models, matching parameter counts)
// still apply. Comparing models fitted to different data gives meaningless
// output.
//
// Models may have different arities: a parameter setting drawn from one
// model is paired positionally with another model's members, and only the
// positions both have are scored. So a single model compared with a group
// is scored on the group's first member only.
func NewModelSetUnchecked(models ...Model) (*ModelSet, error) {
	if len(models) < 1 {
		return nil, Invalidf("A model set needs at least one model")
	}

	for k, m := range models {
		if err := m.Check(); err != nil {
			return nil, Invalidf("Model %d is invalid: %v", k, err)
		}
	}

	// Every model's density is evaluated at every other model's
	// parameters, so the parameter spaces must line up where they overlap
	for i, ref := range positionRefs(models) {
		want := models[ref].results[i].NumParams()
		for k, m := range models[ref:] {
			if i >= m.Arity() {
				continue
			}
			r := m.results[i]
			if r.NumParams() != want || r.Eval.NumParams() != want {
				return nil, Invalidf("Model %d (%s) member %d has %d params, model %d has %d", ref+k, m.Name, i, r.NumParams(), ref, want)
			}
		}
	}

	s := &ModelSet{
		models: make([]Model, len(models)),
	}
	copy(s.models, models)

	return s, nil
}

// positionRefs returns, for each sub-model position, the index of the first
// model that has that position. All models must be valid.
func positionRefs(models []Model) []int {
	var refs []int
	for k, m := range models {
		for len(refs) < m.Arity() {
			refs = append(refs, k)
		}
	}
	return refs
}

// Len is the number of models K
func (s *ModelSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.models)
}

// Model returns the model at index k
func (s *ModelSet) Model(k int) Model {
	return s.models[k]
}

// Models returns a copy of the model list
func (s *ModelSet) Models() []Model {
	cp := make([]Model, len(s.models))
	copy(cp, s.models)
	return cp
}

// Arity is the largest number of sub-models of any model in the set
func (s *ModelSet) Arity() int {
	arity := 0
	for _, m := range s.models {
		arity = max(arity, m.Arity())
	}
	return arity
}

// Names returns the model names in index order
func (s *ModelSet) Names() []string {
	names := make([]string, len(s.models))
	for i, m := range s.models {
		names[i] = m.Name
	}
	return names
}

// Check returns an error if the set is empty or holds an invalid model
func (s *ModelSet) Check() error {
	if s.Len() < 1 {
		return Invalidf("Model set is empty")
	}
	for k, m := range s.models {
		if err := m.Check(); err != nil {
			return Invalidf("Model %d is invalid: %v", k, err)
		}
	}
	return nil
}
