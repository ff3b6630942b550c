// Package compat provides the compatibility rule engine.
// Evaluation is a pure function of a selection map: no state is carried
// between calls and every rule runs on every call.
package compat

import (
	"pcbuild/core/types"
)

// Rule defines a single compatibility rule
type Rule interface {
	// Name returns the rule identifier
	Name() string

	// Description returns a human-readable description
	Description() string

	// Evaluate checks the rule against the selections. It reports an issue
	// message and true when violated. Rules whose categories are not all
	// selected must report false.
	Evaluate(sel types.Selections) (string, bool)
}

// RuleResult contains the evaluation output for a single rule
type RuleResult struct {
	// RuleName is the rule that was evaluated
	RuleName string `json:"rule_name"`

	// Passed indicates if the rule passed or was exempt
	Passed bool `json:"passed"`

	// Message is the issue text when the rule failed
	Message string `json:"message,omitempty"`
}

// Config tunes rule constants that are business assumptions
type Config struct {
	// PowerHeadroomWatts is added to CPU and GPU TDP for board, drives and fans
	PowerHeadroomWatts int `json:"power_headroom_watts"`

	// FormFactorSeparator splits a case's supported form factors
	FormFactorSeparator string `json:"form_factor_separator"`
}

// DefaultConfig returns the stock rule constants
func DefaultConfig() Config {
	return Config{
		PowerHeadroomWatts:  150,
		FormFactorSeparator: ",",
	}
}

// Engine runs rules in registration order
type Engine struct {
	config Config
	rules  []Rule
}

// NewEngine creates an engine with the standard rules in declaration order:
// socket, memory, power, form factor.
func NewEngine(cfg Config) *Engine {
	if cfg.FormFactorSeparator == "" {
		cfg.FormFactorSeparator = DefaultConfig().FormFactorSeparator
	}
	if cfg.PowerHeadroomWatts < 0 {
		cfg.PowerHeadroomWatts = 0
	}
	return &Engine{
		config: cfg,
		rules: []Rule{
			SocketRule{},
			MemoryTypeRule{},
			PowerRule{HeadroomWatts: cfg.PowerHeadroomWatts},
			FormFactorRule{Separator: cfg.FormFactorSeparator},
		},
	}
}

// Config returns the engine's rule constants
func (e *Engine) Config() Config {
	return e.config
}

// Rules returns the registered rules
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate returns every violated rule's message in rule order. A nil map
// is an empty build.
func (e *Engine) Evaluate(sel types.Selections) []string {
	issues := make([]string, 0)
	for _, rule := range e.rules {
		if msg, failed := rule.Evaluate(sel); failed {
			issues = append(issues, msg)
		}
	}
	return issues
}

// Results returns the outcome of each rule, passed ones included
func (e *Engine) Results(sel types.Selections) []RuleResult {
	results := make([]RuleResult, 0, len(e.rules))
	for _, rule := range e.rules {
		msg, failed := rule.Evaluate(sel)
		results = append(results, RuleResult{
			RuleName: rule.Name(),
			Passed:   !failed,
			Message:  msg,
		})
	}
	return results
}

var defaultEngine = NewEngine(DefaultConfig())

// Evaluate runs the default engine
func Evaluate(sel types.Selections) []string {
	return defaultEngine.Evaluate(sel)
}
