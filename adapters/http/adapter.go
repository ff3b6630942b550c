// Package http exposes the configurator over a JSON REST API.
package http

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"pcbuild/adapters/events"
	"pcbuild/adapters/storage"
	"pcbuild/core/build"
	"pcbuild/core/catalog"
	"pcbuild/core/compat"
	"pcbuild/core/types"
	"pcbuild/internal/errors"
	"pcbuild/internal/logging"
)

// ownerHeader carries the signed-in user; absent means guest
const ownerHeader = "X-User-ID"

// Config holds HTTP adapter configuration
type Config struct {
	// Address to listen on
	Address string `json:"address"`

	// ReadTimeout for requests
	ReadTimeout time.Duration `json:"read_timeout"`

	// WriteTimeout for responses
	WriteTimeout time.Duration `json:"write_timeout"`

	// MaxBodySize limits request body size
	MaxBodySize int64 `json:"max_body_size"`

	// AllowedOrigin for CORS; empty disables the headers
	AllowedOrigin string `json:"allowed_origin"`

	// RateLimit is requests per second across the server (0 disables)
	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`

	// FetchTimeout bounds catalog lookups
	FetchTimeout time.Duration `json:"fetch_timeout"`

	// SessionTTL drops idle sessions
	SessionTTL time.Duration `json:"session_ttl"`

	// SavedSubject is where saved-configuration events go
	SavedSubject string `json:"saved_subject"`

	// ServiceName names the trace spans
	ServiceName string `json:"service_name"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Address:       ":8080",
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  30 * time.Second,
		MaxBodySize:   1 << 20,
		AllowedOrigin: "*",
		RateLimit:     20,
		RateBurst:     40,
		FetchTimeout:  10 * time.Second,
		SessionTTL:    2 * time.Hour,
		SavedSubject:  events.SubjectSaved,
		ServiceName:   "pcbuild",
	}
}

// Deps are the collaborators the adapter serves
type Deps struct {
	Catalog   catalog.Provider
	Engine    *compat.Engine
	Stores    *storage.Router
	Publisher events.Publisher
}

// Adapter is the HTTP adapter
type Adapter struct {
	catalog   catalog.Provider
	engine    *compat.Engine
	stores    *storage.Router
	publisher events.Publisher
	sessions  *build.Registry

	config   *Config
	server   *http.Server
	logger   *zap.Logger
	sweepCtx context.Context
	stop     context.CancelFunc
}

// New creates a new HTTP adapter
func New(deps Deps, config *Config) *Adapter {
	if config == nil {
		config = DefaultConfig()
	}
	if deps.Engine == nil {
		deps.Engine = compat.NewEngine(compat.DefaultConfig())
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Nop{}
	}
	if deps.Stores == nil {
		mem := storage.NewMemoryStore()
		deps.Stores = &storage.Router{Account: mem, Guest: mem}
	}

	a := &Adapter{
		catalog:   deps.Catalog,
		engine:    deps.Engine,
		stores:    deps.Stores,
		publisher: deps.Publisher,
		sessions:  build.NewRegistry(config.SessionTTL),
		config:    config,
		logger:    logging.Named("http"),
	}
	a.server = &http.Server{
		Addr:         config.Address,
		Handler:      a.Router(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	a.sweepCtx, a.stop = context.WithCancel(context.Background())
	return a
}

// Router returns the HTTP handler
func (a *Adapter) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", a.handleHealth)

	mux.HandleFunc("GET /api/v1/categories", a.handleCategories)
	mux.HandleFunc("GET /api/v1/catalog/{category}", a.handleCatalog)

	mux.HandleFunc("POST /api/v1/sessions", a.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", a.handleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", a.handleDeleteSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}/options", a.handleOptions)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/selections/{category}", a.handleSelect)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}/selections/{category}", a.handleReset)
	mux.HandleFunc("POST /api/v1/sessions/{id}/advance", a.handleAdvance)
	mux.HandleFunc("POST /api/v1/sessions/{id}/retreat", a.handleRetreat)
	mux.HandleFunc("POST /api/v1/sessions/{id}/save", a.handleSave)

	mux.HandleFunc("GET /api/v1/configurations", a.handleListConfigurations)
	mux.HandleFunc("GET /api/v1/configurations/{id}", a.handleGetConfiguration)
	mux.HandleFunc("POST /api/v1/configurations/{id}/restore", a.handleRestore)

	mux.HandleFunc("POST /api/v1/evaluate", a.handleEvaluate)

	return Chain(mux,
		Recover(a.logger),
		Logger(a.logger),
		OTel(a.config.ServiceName),
		CORS(a.config.AllowedOrigin),
		RateLimit(newLimiter(a.config.RateLimit, a.config.RateBurst)),
	)
}

// Start starts the HTTP server and the idle-session sweeper
func (a *Adapter) Start() error {
	go a.sweep(a.sweepCtx, time.Minute)

	a.logger.Info("listening", zap.String("address", a.config.Address))
	err := a.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server. It is safe to call before or
// concurrently with Start.
func (a *Adapter) Shutdown(ctx context.Context) error {
	a.stop()
	return a.server.Shutdown(ctx)
}

func (a *Adapter) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.sessions.Sweep(); n > 0 {
				a.logger.Debug("expired sessions dropped", zap.Int("count", n))
			}
		}
	}
}

// Handlers

func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"sessions": a.sessions.Len(),
	})
}

func (a *Adapter) handleCategories(w http.ResponseWriter, r *http.Request) {
	resp := make([]CategoryResponse, 0, types.CategoryCount())
	for i, c := range types.Categories() {
		resp = append(resp, CategoryResponse{ID: c, Label: c.Label(), Step: i})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *Adapter) handleCatalog(w http.ResponseWriter, r *http.Request) {
	category, ok := types.ParseCategory(r.PathValue("category"))
	if !ok {
		writeError(w, http.StatusBadRequest, string(errors.TypeInput), "unknown category: "+r.PathValue("category"))
		return
	}

	ctx, cancel := a.fetchContext(r)
	defer cancel()

	comps, err := a.catalog.FetchOptions(ctx, category)
	if err != nil {
		a.fail(w, errors.Catalog("failed to load "+category.Label()+" options", err))
		return
	}
	writeJSON(w, http.StatusOK, comps)
}

func (a *Adapter) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if err := a.parseJSON(r, &req); err != nil {
			a.fail(w, err)
			return
		}
	}

	opts := []build.Option{build.WithEngine(a.engine)}
	if req.AutoAdvance != nil {
		opts = append(opts, build.WithAutoAdvance(*req.AutoAdvance))
	}
	s := build.NewSession(opts...)
	a.sessions.Add(s)

	writeJSON(w, http.StatusCreated, newSessionResponse(s))
}

func (a *Adapter) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(s))
}

func (a *Adapter) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.session(w, r); !ok {
		return
	}
	a.sessions.Remove(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (a *Adapter) handleOptions(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}

	ctx, cancel := a.fetchContext(r)
	defer cancel()

	set, err := s.Options(ctx, a.catalog)
	if err != nil {
		a.fail(w, err)
		return
	}
	if compatibleOnly, _ := strconv.ParseBool(r.URL.Query().Get("compatible")); compatibleOnly {
		filtered := set.Options[:0]
		for _, opt := range set.Options {
			if opt.Compatible {
				filtered = append(filtered, opt)
			}
		}
		set.Options = filtered
	}
	writeJSON(w, http.StatusOK, set)
}

func (a *Adapter) handleSelect(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	category, ok := types.ParseCategory(r.PathValue("category"))
	if !ok {
		writeError(w, http.StatusBadRequest, string(errors.TypeInput), "unknown category: "+r.PathValue("category"))
		return
	}

	var req SelectRequest
	if err := a.parseJSON(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if strings.TrimSpace(req.ComponentID) == "" {
		writeError(w, http.StatusBadRequest, string(errors.TypeInput), "component_id is required")
		return
	}

	ctx, cancel := a.fetchContext(r)
	defer cancel()

	comp, err := a.catalog.Get(ctx, req.ComponentID)
	if err != nil {
		a.fail(w, err)
		return
	}

	state, err := s.Select(category, comp)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(s.ID(), state))
}

func (a *Adapter) handleReset(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	category, ok := types.ParseCategory(r.PathValue("category"))
	if !ok {
		writeError(w, http.StatusBadRequest, string(errors.TypeInput), "unknown category: "+r.PathValue("category"))
		return
	}

	state, err := s.Reset(category)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(s.ID(), state))
}

func (a *Adapter) handleAdvance(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(s.ID(), s.Advance()))
}

func (a *Adapter) handleRetreat(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(s.ID(), s.Retreat()))
}

func (a *Adapter) handleSave(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}

	var req SaveRequest
	if r.ContentLength != 0 {
		if err := a.parseJSON(r, &req); err != nil {
			a.fail(w, err)
			return
		}
	}

	owner := strings.TrimSpace(r.Header.Get(ownerHeader))
	cfg, err := s.Save(r.Context(), req.Name, a.stores.SaverFor(owner))
	if err != nil {
		a.fail(w, err)
		return
	}

	if err := a.publisher.Publish(r.Context(), a.config.SavedSubject, events.NewConfigurationSaved(s.ID(), cfg)); err != nil {
		a.logger.Warn("saved event not published",
			zap.String("configuration_id", cfg.ID),
			zap.Error(err),
		)
	}

	writeJSON(w, http.StatusCreated, cfg)
}

func (a *Adapter) handleListConfigurations(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		owner = strings.TrimSpace(r.Header.Get(ownerHeader))
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list, err := a.stores.List(r.Context(), owner, limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	if list == nil {
		list = []*types.SavedConfiguration{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *Adapter) handleGetConfiguration(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.stores.Get(r.Context(), r.Header.Get(ownerHeader), r.PathValue("id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (a *Adapter) handleRestore(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.stores.Get(r.Context(), r.Header.Get(ownerHeader), r.PathValue("id"))
	if err != nil {
		a.fail(w, err)
		return
	}

	ctx, cancel := a.fetchContext(r)
	defer cancel()

	s, err := build.Restore(ctx, cfg, a.catalog, build.WithEngine(a.engine))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.sessions.Add(s)
	writeJSON(w, http.StatusCreated, newSessionResponse(s))
}

func (a *Adapter) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := a.parseJSON(r, &req); err != nil {
		a.fail(w, err)
		return
	}

	ctx, cancel := a.fetchContext(r)
	defer cancel()

	sel := types.NewSelections()
	for key, id := range req {
		category, ok := types.ParseCategory(key)
		if !ok || !category.IsValid() {
			writeError(w, http.StatusBadRequest, string(errors.TypeInput), "unknown category: "+key)
			return
		}
		if id == "" {
			continue
		}
		comp, err := a.catalog.Get(ctx, id)
		if err != nil {
			a.fail(w, err)
			return
		}
		if comp.Category != category {
			writeError(w, http.StatusBadRequest, string(errors.TypeInput),
				"component "+id+" is a "+comp.Category.Label()+", not a "+category.Label())
			return
		}
		sel[category] = comp
	}

	writeJSON(w, http.StatusOK, newEvaluateResponse(a.engine, sel))
}

// Helpers

func (a *Adapter) session(w http.ResponseWriter, r *http.Request) (*build.Session, bool) {
	s, err := a.sessions.Get(r.PathValue("id"))
	if err != nil {
		a.fail(w, err)
		return nil, false
	}
	return s, true
}

func (a *Adapter) fetchContext(r *http.Request) (context.Context, context.CancelFunc) {
	if a.config.FetchTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), a.config.FetchTimeout)
}

func (a *Adapter) parseJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	limit := a.config.MaxBodySize
	if limit <= 0 {
		limit = 1 << 20
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, limit))
	if err != nil {
		return errors.Wrap(errors.TypeInput, "failed to read request body", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(errors.TypeParsing, "invalid request body", err)
	}
	return nil
}

// fail maps a domain error to its HTTP status
func (a *Adapter) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	code := errors.TypeOf(err)
	if code == "" {
		code = errors.TypeInternal
	}
	writeError(w, status, string(code), err.Error())
}

func statusFor(err error) int {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch errors.TypeOf(err) {
	case errors.TypeInput, errors.TypeInvalidArgument, errors.TypeParsing:
		return http.StatusBadRequest
	case errors.TypeNotFound:
		return http.StatusNotFound
	case errors.TypeStale:
		return http.StatusConflict
	case errors.TypeStorage, errors.TypeNetwork:
		return http.StatusBadGateway
	case errors.TypeCatalog:
		if errors.IsType(err, errors.TypeNotFound) {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}
