package types

// Selections maps every build category to its chosen component; nil means
// not yet chosen.
type Selections map[Category]*Component

// NewSelections returns a selection map with an empty entry per category
func NewSelections() Selections {
	s := make(Selections, len(categoryOrder))
	for _, c := range categoryOrder {
		s[c] = nil
	}
	return s
}

// Get returns the selection for a category
func (s Selections) Get(c Category) (*Component, bool) {
	comp := s[c]
	return comp, comp != nil
}

// Clone returns an independent copy. Components are shared; they are
// immutable.
func (s Selections) Clone() Selections {
	out := NewSelections()
	for c, comp := range s {
		out[c] = comp
	}
	return out
}

// Filled returns the categories with a selection, in build order
func (s Selections) Filled() []Category {
	var out []Category
	for _, c := range categoryOrder {
		if s[c] != nil {
			out = append(out, c)
		}
	}
	return out
}

// IDs returns category -> component ID for non-empty selections
func (s Selections) IDs() map[Category]string {
	out := make(map[Category]string)
	for c, comp := range s {
		if comp != nil {
			out[c] = comp.ID
		}
	}
	return out
}
