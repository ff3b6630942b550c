// Package app wires configuration into the configurator's collaborators.
package app

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"pcbuild/adapters/events"
	httpadapter "pcbuild/adapters/http"
	"pcbuild/adapters/storage"
	"pcbuild/core/catalog"
	"pcbuild/core/compat"
	"pcbuild/internal/config"
	"pcbuild/internal/errors"
	"pcbuild/internal/logging"
)

// App holds the long-lived collaborators of the CLI and the server
type App struct {
	Config    *config.Config
	Catalog   *catalog.Cached
	Engine    *compat.Engine
	Stores    *storage.Router
	Publisher events.Publisher
}

// LoadCatalog reads a catalog file, or returns the built-in seed when path
// is empty. Files that fail validation are rejected.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Seed(), nil
	}
	c, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if problems := c.Validate(catalog.DefaultValidationRules()); len(problems) > 0 {
		msgs := make([]string, 0, len(problems))
		for _, p := range problems {
			msgs = append(msgs, p.Error())
		}
		return nil, errors.Newf(errors.TypeCatalog, "%s: %d invalid components: %s",
			path, len(problems), strings.Join(msgs, "; "))
	}
	return c, nil
}

// New builds every collaborator from cfg
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	base, err := LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	cached, err := catalog.NewCached(base, cfg.Catalog.CacheSize)
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "catalog cache", err)
	}

	stores, err := storage.NewRouter(cfg.Storage)
	if err != nil {
		return nil, err
	}

	stats := base.Stats()
	logging.Info("catalog loaded",
		zap.Int("components", stats.Total),
		zap.String("source", firstNonEmpty(cfg.Catalog.Path, "built-in")),
	)
	if len(stats.Missing) > 0 {
		logging.Warn("catalog has empty build steps", zap.Any("categories", stats.Missing))
	}

	return &App{
		Config:    cfg,
		Catalog:   cached,
		Engine:    compat.NewEngine(cfg.Rules),
		Stores:    stores,
		Publisher: events.New(cfg.Events.NATSURL),
	}, nil
}

// HTTPConfig translates server settings for the HTTP adapter
func (a *App) HTTPConfig() *httpadapter.Config {
	hc := httpadapter.DefaultConfig()
	s := a.Config.Server
	if s.Address != "" {
		hc.Address = s.Address
	}
	hc.RateLimit = s.RateLimit
	hc.RateBurst = s.RateBurst
	hc.AllowedOrigin = s.AllowedOrigin
	if s.FetchTimeoutSeconds > 0 {
		hc.FetchTimeout = time.Duration(s.FetchTimeoutSeconds) * time.Second
	}
	if a.Config.Events.SavedSubject != "" {
		hc.SavedSubject = a.Config.Events.SavedSubject
	}
	hc.ServiceName = a.Config.Logging.Service
	return hc
}

// HTTPAdapter builds the REST adapter over the app's collaborators
func (a *App) HTTPAdapter() *httpadapter.Adapter {
	return httpadapter.New(httpadapter.Deps{
		Catalog:   a.Catalog,
		Engine:    a.Engine,
		Stores:    a.Stores,
		Publisher: a.Publisher,
	}, a.HTTPConfig())
}

// Close releases stores and the event connection
func (a *App) Close() error {
	var errs []string
	if err := a.Publisher.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := a.Stores.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("close: %s", strings.Join(errs, "; "))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
