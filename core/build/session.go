package build

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pcbuild/core/compat"
	"pcbuild/core/types"
	"pcbuild/internal/errors"
	"pcbuild/internal/logging"
)

// Session is one user's in-progress configuration. All mutations are
// applied atomically and followed by a wholesale recomputation of the
// derived state.
type Session struct {
	id        string
	createdAt time.Time

	engine      *compat.Engine
	autoAdvance bool
	observers   []Observer
	logger      *zap.Logger

	mu         sync.Mutex
	selections types.Selections
	step       int
	state      State
	updatedAt  time.Time

	fetch fetchTracker
}

// Option configures a Session
type Option func(*Session)

// WithEngine sets the rule engine; the default uses stock constants
func WithEngine(engine *compat.Engine) Option {
	return func(s *Session) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithObserver registers an event observer
func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithAutoAdvance toggles moving to the next step after selecting the
// current one. Enabled by default.
func WithAutoAdvance(enabled bool) Option {
	return func(s *Session) {
		s.autoAdvance = enabled
	}
}

// WithID fixes the session ID
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// NewSession creates an empty session at step 0
func NewSession(opts ...Option) *Session {
	now := time.Now()
	s := &Session{
		id:          uuid.New().String(),
		createdAt:   now,
		updatedAt:   now,
		engine:      compat.NewEngine(compat.DefaultConfig()),
		autoAdvance: true,
		selections:  types.NewSelections(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.Named("session").With(zap.String("session_id", s.id))
	s.recompute()
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session started
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// UpdatedAt returns the time of the last mutation
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Engine returns the rule engine used by the session
func (s *Session) Engine() *compat.Engine {
	return s.engine
}

// State returns the current snapshot
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// CurrentCategory returns the category of the current step
func (s *Session) CurrentCategory() types.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Category
}

// Select assigns comp to category. Selecting the current category moves
// the pointer forward unless it is already on the last step. An unknown
// category, a nil component, or a component from another category is a
// precondition violation and leaves the session untouched.
func (s *Session) Select(category types.Category, comp *types.Component) (State, error) {
	if !category.IsValid() {
		return s.State(), errors.InvalidArgument("select: unknown category %q", category)
	}
	if comp == nil {
		return s.State(), errors.InvalidArgument("select: nil component for %s, use Reset to clear", category)
	}
	if comp.Category != "" && comp.Category != category {
		return s.State(), errors.InvalidArgument("select: component %s is a %s, not a %s", comp.ID, comp.Category, category)
	}

	s.mu.Lock()
	s.selections[category] = comp
	events := []Event{{Type: EventSelected, Category: category, From: s.step, To: s.step}}

	if s.autoAdvance && category == s.state.Category && s.step < types.CategoryCount()-1 {
		from := s.step
		s.moveTo(from + 1)
		events = append(events, Event{Type: EventAdvanced, Category: s.state.Category, From: from, To: s.step, Auto: true})
	}
	s.recompute()
	state := s.state.clone()
	s.mu.Unlock()

	s.logger.Debug("component selected",
		zap.String("category", category.String()),
		zap.String("component_id", comp.ID),
		zap.Int("issues", len(state.Issues)),
	)
	s.emit(events)
	return state, nil
}

// Reset clears category without moving the step pointer
func (s *Session) Reset(category types.Category) (State, error) {
	if !category.IsValid() {
		return s.State(), errors.InvalidArgument("reset: unknown category %q", category)
	}

	s.mu.Lock()
	s.selections[category] = nil
	s.recompute()
	state := s.state.clone()
	step := s.step
	s.mu.Unlock()

	s.logger.Debug("selection reset", zap.String("category", category.String()))
	s.emit([]Event{{Type: EventReset, Category: category, From: step, To: step}})
	return state, nil
}

// Advance moves one step forward; a no-op on the last step
func (s *Session) Advance() State {
	return s.step1(+1, EventAdvanced)
}

// Retreat moves one step back; a no-op on the first step
func (s *Session) Retreat() State {
	return s.step1(-1, EventRetreated)
}

// GoTo jumps to a step, clamped to the valid range
func (s *Session) GoTo(step int) State {
	s.mu.Lock()
	from := s.step
	s.moveTo(clamp(step))
	s.recompute()
	state := s.state.clone()
	s.mu.Unlock()

	switch {
	case state.CurrentStep > from:
		s.emit([]Event{{Type: EventAdvanced, Category: state.Category, From: from, To: state.CurrentStep}})
	case state.CurrentStep < from:
		s.emit([]Event{{Type: EventRetreated, Category: state.Category, From: from, To: state.CurrentStep}})
	}
	return state
}

func (s *Session) step1(delta int, kind EventType) State {
	s.mu.Lock()
	from := s.step
	to := clamp(from + delta)
	if to == from {
		state := s.state.clone()
		s.mu.Unlock()
		return state
	}
	s.moveTo(to)
	s.recompute()
	state := s.state.clone()
	s.mu.Unlock()

	s.emit([]Event{{Type: kind, Category: state.Category, From: from, To: to}})
	return state
}

// moveTo changes the step and supersedes any in-flight option fetch.
// Caller holds mu.
func (s *Session) moveTo(step int) {
	if step == s.step {
		return
	}
	s.step = step
	s.fetch.supersede()
}

// recompute rebuilds the derived state. Caller holds mu.
func (s *Session) recompute() {
	s.state = derive(s.engine, s.selections, s.step)
	s.updatedAt = time.Now()
}

func (s *Session) emit(events []Event) {
	for _, e := range events {
		for _, o := range s.observers {
			o(e)
		}
	}
}

func clamp(step int) int {
	if step < 0 {
		return 0
	}
	if last := types.CategoryCount() - 1; step > last {
		return last
	}
	return step
}
