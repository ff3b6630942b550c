// Package catalog supplies purchasable components per category.
// The configurator only reads from it; components are never mutated after
// registration.
package catalog

import (
	"context"
	"sort"

	"pcbuild/core/types"
	"pcbuild/internal/errors"
)

// Provider is the catalog query surface the configurator depends on
type Provider interface {
	// FetchOptions returns the purchasable components of a category.
	// An empty result is not an error.
	FetchOptions(ctx context.Context, category types.Category) ([]types.Component, error)

	// Get returns one component by ID
	Get(ctx context.Context, id string) (*types.Component, error)
}

// Catalog is an in-memory Provider
type Catalog struct {
	entries    map[string]*types.Component
	byCategory map[types.Category][]string
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		entries:    make(map[string]*types.Component),
		byCategory: make(map[types.Category][]string),
	}
}

// Register adds a component. Registering an ID twice is an error.
func (c *Catalog) Register(comp types.Component) error {
	if comp.ID == "" {
		return errors.Input("component id is required")
	}
	if _, exists := c.entries[comp.ID]; exists {
		return errors.Newf(errors.TypeCatalog, "duplicate component id: %s", comp.ID)
	}
	c.entries[comp.ID] = &comp
	c.byCategory[comp.Category] = append(c.byCategory[comp.Category], comp.ID)
	return nil
}

// FetchOptions returns the components of a category in registration order
func (c *Catalog) FetchOptions(ctx context.Context, category types.Category) ([]types.Component, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !category.IsKnown() {
		return nil, errors.InvalidArgument("unknown category: %q", category)
	}
	ids := c.byCategory[category]
	out := make([]types.Component, 0, len(ids))
	for _, id := range ids {
		out = append(out, *c.entries[id])
	}
	return out, nil
}

// Get returns one component by ID
func (c *Catalog) Get(ctx context.Context, id string) (*types.Component, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	comp, ok := c.entries[id]
	if !ok {
		return nil, errors.NotFound("component", id)
	}
	copied := *comp
	return &copied, nil
}

// Len returns the number of registered components
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Stats returns per-category counts
func (c *Catalog) Stats() CatalogStats {
	stats := CatalogStats{
		ByCategory: make(map[types.Category]int),
	}
	for cat, ids := range c.byCategory {
		stats.Total += len(ids)
		stats.ByCategory[cat] = len(ids)
	}
	for _, cat := range types.Categories() {
		if len(c.byCategory[cat]) == 0 {
			stats.Missing = append(stats.Missing, cat)
		}
	}
	return stats
}

// CatalogStats holds catalog statistics
type CatalogStats struct {
	Total      int
	ByCategory map[types.Category]int

	// Missing lists build categories with no components
	Missing []types.Category
}

// Categories returns the categories present, sorted
func (s CatalogStats) Categories() []types.Category {
	out := make([]types.Category, 0, len(s.ByCategory))
	for cat := range s.ByCategory {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var _ Provider = (*Catalog)(nil)
