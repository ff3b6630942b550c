// Package storage persists saved configurations.
// Backends: file (guest/local), memory (tests), postgres (accounts).
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pcbuild/core/types"
	"pcbuild/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendFile     Backend = "file"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// guestOwner is the directory used for configurations without an owner
const guestOwner = "guest"

// Store is the storage interface
type Store interface {
	// Save stores a configuration, assigning ID and CreatedAt when unset
	Save(ctx context.Context, cfg *types.SavedConfiguration) error

	// Get retrieves a configuration by ID
	Get(ctx context.Context, id string) (*types.SavedConfiguration, error)

	// List lists configurations, newest first
	List(ctx context.Context, filter *ListFilter) ([]*types.SavedConfiguration, error)

	// Delete removes a configuration
	Delete(ctx context.Context, id string) error

	// Close closes the store
	Close() error
}

// ListFilter filters configuration listing
type ListFilter struct {
	OwnerID  string
	Since    time.Time
	MaxTotal decimal.Decimal
	Limit    int
	Offset   int
}

func (f *ListFilter) matches(cfg *types.SavedConfiguration) bool {
	if f == nil {
		return true
	}
	if f.OwnerID != "" && cfg.OwnerID != f.OwnerID {
		return false
	}
	if !f.Since.IsZero() && cfg.CreatedAt.Before(f.Since) {
		return false
	}
	if f.MaxTotal.IsPositive() && cfg.TotalPrice.GreaterThan(f.MaxTotal) {
		return false
	}
	return true
}

// page sorts newest first and applies offset/limit
func (f *ListFilter) page(results []*types.SavedConfiguration) []*types.SavedConfiguration {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if f == nil {
		return results
	}
	if f.Offset > 0 {
		if f.Offset >= len(results) {
			return nil
		}
		results = results[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(results) {
		results = results[:f.Limit]
	}
	return results
}

func prepare(cfg *types.SavedConfiguration) error {
	if cfg == nil {
		return errors.InvalidArgument("nil configuration")
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return errors.Input("configuration name is required")
	}
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now().UTC()
	}
	return nil
}

// FileStore keeps one JSON document per configuration under
// <base>/<owner>/<id>.json
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a file store
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, errors.Storage("failed to create storage directory", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// ValidateOwnerID rejects owner IDs that cannot name a single directory
// entry. Empty means guest and is accepted.
func ValidateOwnerID(ownerID string) error {
	if ownerID == "" {
		return nil
	}
	return checkPathElement("owner id", ownerID)
}

func checkPathElement(kind, v string) error {
	if v == "." || v == ".." || strings.ContainsAny(v, "/\\\x00") || filepath.VolumeName(v) != "" {
		return errors.InvalidArgument("invalid %s %q", kind, v)
	}
	return nil
}

func (s *FileStore) ownerDir(ownerID string) (string, error) {
	if err := ValidateOwnerID(ownerID); err != nil {
		return "", err
	}
	if ownerID == "" {
		ownerID = guestOwner
	}
	return filepath.Join(s.basePath, ownerID), nil
}

func (s *FileStore) Save(ctx context.Context, cfg *types.SavedConfiguration) error {
	if err := prepare(cfg); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkPathElement("configuration id", cfg.ID); err != nil {
		return err
	}
	dir, err := s.ownerDir(cfg.OwnerID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Storage("failed to create owner directory", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Internal("failed to marshal configuration", err)
	}

	// write-then-rename so a crash never leaves a truncated document
	final := filepath.Join(dir, cfg.ID+".json")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Storage("failed to write configuration", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return errors.Storage("failed to commit configuration", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*types.SavedConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return readConfiguration(path)
}

// find locates a configuration file across owner directories
func (s *FileStore) find(id string) (string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return "", errors.Storage("failed to read storage", err)
	}
	name := filepath.Base(id) + ".json"
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(s.basePath, entry.Name(), name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.NotFound("configuration", id)
}

func readConfiguration(path string) (*types.SavedConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Storage("failed to read configuration", err)
	}
	var cfg types.SavedConfiguration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Storage("failed to unmarshal configuration", err)
	}
	return &cfg, nil
}

func (s *FileStore) List(ctx context.Context, filter *ListFilter) ([]*types.SavedConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	root := s.basePath
	if filter != nil && filter.OwnerID != "" {
		dir, err := s.ownerDir(filter.OwnerID)
		if err != nil {
			return nil, err
		}
		root = dir
	}

	var results []*types.SavedConfiguration
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		cfg, err := readConfiguration(path)
		if err != nil {
			return nil
		}
		if filter.matches(cfg) {
			results = append(results, cfg)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Storage("failed to list configurations", err)
	}
	return filter.page(results), nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.find(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return errors.Storage("failed to delete configuration", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

// MemoryStore is an in-memory storage backend (for testing)
type MemoryStore struct {
	results map[string]*types.SavedConfiguration
	mu      sync.RWMutex
}

// NewMemoryStore creates a memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results: make(map[string]*types.SavedConfiguration),
	}
}

func (s *MemoryStore) Save(ctx context.Context, cfg *types.SavedConfiguration) error {
	if err := prepare(cfg); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[cfg.ID] = cloneConfiguration(cfg)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*types.SavedConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.results[id]
	if !ok {
		return nil, errors.NotFound("configuration", id)
	}
	return cloneConfiguration(cfg), nil
}

func (s *MemoryStore) List(ctx context.Context, filter *ListFilter) ([]*types.SavedConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*types.SavedConfiguration
	for _, cfg := range s.results {
		if filter.matches(cfg) {
			results = append(results, cloneConfiguration(cfg))
		}
	}
	return filter.page(results), nil
}

func cloneConfiguration(cfg *types.SavedConfiguration) *types.SavedConfiguration {
	out := *cfg
	out.Components = make(map[types.Category]string, len(cfg.Components))
	for c, id := range cfg.Components {
		out.Components[c] = id
	}
	return &out
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.results[id]; !ok {
		return errors.NotFound("configuration", id)
	}
	delete(s.results, id)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// StoreFactory creates stores by backend type
func StoreFactory(backend Backend, config map[string]string) (Store, error) {
	switch backend {
	case BackendFile:
		path := config["path"]
		if path == "" {
			path = ".pcbuild"
		}
		return NewFileStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendPostgres:
		return NewPostgresStore(config["dsn"])
	default:
		return nil, errors.Newf(errors.TypeConfig, "unsupported backend: %s", backend)
	}
}

// CompareResult is a price comparison between two saved configurations
type CompareResult struct {
	OldID        string          `json:"old_id"`
	NewID        string          `json:"new_id"`
	OldTotal     decimal.Decimal `json:"old_total"`
	NewTotal     decimal.Decimal `json:"new_total"`
	Delta        decimal.Decimal `json:"delta"`
	DeltaPercent decimal.Decimal `json:"delta_percent"`

	// Changed lists categories whose component differs
	Changed []types.Category `json:"changed"`
}

// Compare diffs two stored configurations
func Compare(ctx context.Context, store Store, oldID, newID string) (*CompareResult, error) {
	oldCfg, err := store.Get(ctx, oldID)
	if err != nil {
		return nil, fmt.Errorf("failed to get old configuration: %w", err)
	}
	newCfg, err := store.Get(ctx, newID)
	if err != nil {
		return nil, fmt.Errorf("failed to get new configuration: %w", err)
	}

	delta := newCfg.TotalPrice.Sub(oldCfg.TotalPrice)
	deltaPercent := decimal.Zero
	if oldCfg.TotalPrice.IsPositive() {
		deltaPercent = delta.Div(oldCfg.TotalPrice).Mul(decimal.NewFromInt(100)).Round(2)
	}

	var changed []types.Category
	for _, c := range types.Categories() {
		if oldCfg.Components[c] != newCfg.Components[c] {
			changed = append(changed, c)
		}
	}

	return &CompareResult{
		OldID:        oldID,
		NewID:        newID,
		OldTotal:     oldCfg.TotalPrice,
		NewTotal:     newCfg.TotalPrice,
		Delta:        delta,
		DeltaPercent: deltaPercent,
		Changed:      changed,
	}, nil
}

// Ensure interfaces are implemented
var _ io.Closer = (*FileStore)(nil)
var _ io.Closer = (*MemoryStore)(nil)
