package compat

import (
	"pcbuild/core/types"
)

// Option is a catalog component annotated with the issues it would add to
// the current build.
type Option struct {
	Component  types.Component `json:"component"`
	Compatible bool            `json:"compatible"`
	Issues     []string        `json:"issues,omitempty"`
}

// Annotate evaluates each option as if it were selected for category and
// reports the issues it introduces. Issues already present independently
// of category are not attributed to the option.
func (e *Engine) Annotate(sel types.Selections, category types.Category, options []types.Component) []Option {
	base := sel.Clone()
	base[category] = nil
	baseline := e.failing(base)

	out := make([]Option, 0, len(options))
	for i := range options {
		trial := base.Clone()
		trial[category] = &options[i]

		var introduced []string
		for _, rule := range e.rules {
			msg, failed := rule.Evaluate(trial)
			if failed && !baseline[rule.Name()] {
				introduced = append(introduced, msg)
			}
		}
		out = append(out, Option{
			Component:  options[i],
			Compatible: len(introduced) == 0,
			Issues:     introduced,
		})
	}
	return out
}

// CompatibleOptions keeps the options that introduce no issue
func (e *Engine) CompatibleOptions(sel types.Selections, category types.Category, options []types.Component) []types.Component {
	var out []types.Component
	for _, opt := range e.Annotate(sel, category, options) {
		if opt.Compatible {
			out = append(out, opt.Component)
		}
	}
	return out
}

func (e *Engine) failing(sel types.Selections) map[string]bool {
	failed := make(map[string]bool)
	for _, rule := range e.rules {
		if _, bad := rule.Evaluate(sel); bad {
			failed[rule.Name()] = true
		}
	}
	return failed
}
