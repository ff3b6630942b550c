package build

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"pcbuild/core/catalog"
	"pcbuild/core/types"
	"pcbuild/internal/errors"
)

// DefaultConfigurationName is used when a save request carries no name
const DefaultConfigurationName = "Custom PC Build"

// Saver persists a configuration snapshot. The account-backed and the
// guest-local stores both satisfy it; the session does not know which.
type Saver interface {
	Save(ctx context.Context, cfg *types.SavedConfiguration) error
}

// Save snapshots the current build and hands it to saver. Only complete
// builds can be saved. The session is never modified, whether the save
// succeeds or fails, so a failed save can be retried as is.
func (s *Session) Save(ctx context.Context, name string, saver Saver) (*types.SavedConfiguration, error) {
	state := s.State()
	if !state.IsComplete {
		missing := make([]string, 0)
		for _, c := range types.Categories() {
			if state.Selections[c] == nil {
				missing = append(missing, c.Label())
			}
		}
		return nil, errors.Input("build is incomplete").WithContext("missing", missing)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultConfigurationName
	}

	cfg := types.NewSavedConfiguration(name, state.Selections, state.TotalPrice)
	if err := saver.Save(ctx, cfg); err != nil {
		s.logger.Warn("save failed", zap.String("name", name), zap.Error(err))
		if errors.TypeOf(err) == errors.TypeStorage || errors.IsPrecondition(err) {
			return nil, err
		}
		return nil, errors.Storage("failed to save configuration", err)
	}

	s.logger.Info("configuration saved",
		zap.String("configuration_id", cfg.ID),
		zap.String("total", cfg.TotalPrice.StringFixed(2)),
	)
	return cfg, nil
}

// Restore rebuilds a session from a saved configuration by resolving each
// component ID through the catalog. The step pointer lands on the first
// empty category, or the last step when the build is complete.
func Restore(ctx context.Context, saved *types.SavedConfiguration, provider catalog.Provider, opts ...Option) (*Session, error) {
	s := NewSession(opts...)

	for category, id := range saved.Components {
		if !category.IsValid() {
			return nil, errors.Newf(errors.TypeInput, "saved configuration %s has unknown category %q", saved.ID, category)
		}
		comp, err := provider.Get(ctx, id)
		if err != nil {
			return nil, errors.Catalog("failed to resolve saved component "+id, err)
		}
		if comp.Category != category {
			return nil, errors.Newf(errors.TypeInput, "component %s is a %s, saved as %s", id, comp.Category, category)
		}
		s.selections[category] = comp
	}

	step := types.CategoryCount() - 1
	for i, c := range types.Categories() {
		if s.selections[c] == nil {
			step = i
			break
		}
	}

	s.mu.Lock()
	s.step = step
	s.recompute()
	s.mu.Unlock()
	return s, nil
}
