// Package build owns the in-progress configuration: the selection map, the
// step pointer, and the derived fields recomputed after every mutation.
package build

import (
	"github.com/shopspring/decimal"

	"pcbuild/core/compat"
	"pcbuild/core/pricing"
	"pcbuild/core/types"
)

// State is an immutable snapshot of a session. Derived fields are always a
// fresh function of Selections.
type State struct {
	Selections  types.Selections `json:"selections"`
	CurrentStep int              `json:"current_step"`
	Category    types.Category   `json:"category"`
	Issues      []string         `json:"issues"`
	TotalPrice  decimal.Decimal  `json:"total_price"`
	IsComplete  bool             `json:"is_complete"`
	Summary     pricing.Summary  `json:"summary"`
}

// derive computes a snapshot from scratch
func derive(engine *compat.Engine, sel types.Selections, step int) State {
	snapshot := sel.Clone()
	issues := engine.Evaluate(snapshot)
	summary := pricing.Summarize(snapshot, issues)
	category, _ := types.CategoryAt(step)

	return State{
		Selections:  snapshot,
		CurrentStep: step,
		Category:    category,
		Issues:      issues,
		TotalPrice:  summary.TotalPrice,
		IsComplete:  summary.IsComplete,
		Summary:     summary,
	}
}

// clone gives each caller its own Selections and Issues so edits to a
// returned snapshot cannot reach the session or other callers
func (s State) clone() State {
	s.Selections = s.Selections.Clone()
	if s.Issues != nil {
		issues := make([]string, len(s.Issues))
		copy(issues, s.Issues)
		s.Issues = issues
	}
	return s
}

// IsFirstStep reports whether the pointer is at step 0
func (s State) IsFirstStep() bool {
	return s.CurrentStep == 0
}

// IsLastStep reports whether the pointer is at the final category
func (s State) IsLastStep() bool {
	return s.CurrentStep == types.CategoryCount()-1
}

// Selected returns the component chosen for the current step, if any
func (s State) Selected() (*types.Component, bool) {
	return s.Selections.Get(s.Category)
}
