package http

import (
	"time"

	"pcbuild/core/build"
	"pcbuild/core/compat"
	"pcbuild/core/pricing"
	"pcbuild/core/types"
)

// CreateSessionRequest is the optional body of POST /sessions
type CreateSessionRequest struct {
	// AutoAdvance overrides moving to the next step after a selection
	AutoAdvance *bool `json:"auto_advance,omitempty"`
}

// SelectRequest picks a catalog component for a category
type SelectRequest struct {
	ComponentID string `json:"component_id"`
}

// SaveRequest names a saved build; empty uses the default name
type SaveRequest struct {
	Name string `json:"name"`
}

// CategoryResponse describes one build step
type CategoryResponse struct {
	ID    types.Category `json:"id"`
	Label string         `json:"label"`
	Step  int            `json:"step"`
}

// StateResponse is a session snapshot
type StateResponse struct {
	SessionID string `json:"session_id"`
	build.State

	Label       string `json:"label"`
	IsFirstStep bool   `json:"is_first_step"`
	IsLastStep  bool   `json:"is_last_step"`
	TotalSteps  int    `json:"total_steps"`
}

func newStateResponse(sessionID string, state build.State) StateResponse {
	if state.Issues == nil {
		state.Issues = []string{}
	}
	return StateResponse{
		SessionID:   sessionID,
		State:       state,
		Label:       state.Category.Label(),
		IsFirstStep: state.IsFirstStep(),
		IsLastStep:  state.IsLastStep(),
		TotalSteps:  types.CategoryCount(),
	}
}

// SessionResponse adds lifecycle timestamps to the state
type SessionResponse struct {
	StateResponse
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newSessionResponse(s *build.Session) SessionResponse {
	return SessionResponse{
		StateResponse: newStateResponse(s.ID(), s.State()),
		CreatedAt:     s.CreatedAt(),
		UpdatedAt:     s.UpdatedAt(),
	}
}

// EvaluateResponse is the stateless rule evaluation of a build
type EvaluateResponse struct {
	Compatible bool                `json:"compatible"`
	Issues     []string            `json:"issues"`
	Rules      []compat.RuleResult `json:"rules"`
	Summary    pricing.Summary     `json:"summary"`

	// RequiredWattage is the PSU estimate for the chosen CPU and GPU
	RequiredWattage int `json:"required_wattage"`
}

func newEvaluateResponse(engine *compat.Engine, sel types.Selections) EvaluateResponse {
	issues := engine.Evaluate(sel)
	return EvaluateResponse{
		Compatible:      len(issues) == 0,
		Issues:          issues,
		Rules:           engine.Results(sel),
		Summary:         pricing.Summarize(sel, issues),
		RequiredWattage: pricing.EstimatedPower(sel, engine.Config().PowerHeadroomWatts),
	}
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries a machine code and a readable message
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
