package build

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pcbuild/core/catalog"
	"pcbuild/core/compat"
	"pcbuild/core/types"
	"pcbuild/internal/errors"
)

// OptionSet is the catalog result for one step, annotated against the
// selections held when it arrived
type OptionSet struct {
	Category types.Category  `json:"category"`
	Step     int             `json:"step"`
	Options  []compat.Option `json:"options"`
}

// Compatible returns the options that introduce no issue
func (o OptionSet) Compatible() []types.Component {
	var out []types.Component
	for _, opt := range o.Options {
		if opt.Compatible {
			out = append(out, opt.Component)
		}
	}
	return out
}

// fetchTracker identifies the latest option fetch. Guarded by Session.mu.
type fetchTracker struct {
	gen    uint64
	cancel context.CancelFunc
}

// begin supersedes any running fetch and starts a new generation
func (f *fetchTracker) begin(ctx context.Context) (context.Context, uint64) {
	f.supersede()
	fetchCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	return fetchCtx, f.gen
}

// supersede invalidates and cancels the running fetch
func (f *fetchTracker) supersede() {
	f.gen++
	f.release()
}

func (f *fetchTracker) release() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// Options fetches the current step's components. If the step changes, or
// another Options call starts, before the provider answers, the result is
// discarded and a TypeStale error is returned. Provider failures are
// reported for this step only; selections are never touched.
func (s *Session) Options(ctx context.Context, provider catalog.Provider) (OptionSet, error) {
	s.mu.Lock()
	category := s.state.Category
	step := s.step
	fetchCtx, gen := s.fetch.begin(ctx)
	s.mu.Unlock()

	comps, err := provider.FetchOptions(fetchCtx, category)

	s.mu.Lock()
	current := s.fetch.gen == gen
	if current {
		s.fetch.release()
	}
	sel := s.selections.Clone()
	s.mu.Unlock()

	if !current {
		s.logger.Debug("discarding stale options", zap.String("category", category.String()))
		return OptionSet{}, errors.Stale(fmt.Sprintf("options for %s superseded", category.Label())).
			WithContext("step", step)
	}
	if err != nil {
		s.logger.Warn("catalog fetch failed", zap.String("category", category.String()), zap.Error(err))
		return OptionSet{}, errors.Catalog(fmt.Sprintf("failed to load %s options", category.Label()), err).
			WithContext("step", step)
	}

	return OptionSet{
		Category: category,
		Step:     step,
		Options:  s.engine.Annotate(sel, category, comps),
	}, nil
}
