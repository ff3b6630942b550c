package catalog

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"pcbuild/core/types"
)

// sharedFetchTimeout bounds one coalesced upstream fetch
const sharedFetchTimeout = 30 * time.Second

// Cached wraps a Provider with a per-category LRU cache. Concurrent misses
// for the same category share one upstream call.
type Cached struct {
	upstream Provider
	options  *lru.Cache[types.Category, []types.Component]
	group    singleflight.Group
}

// NewCached creates a cache holding up to size categories
func NewCached(upstream Provider, size int) (*Cached, error) {
	if size <= 0 {
		size = 16
	}
	cache, err := lru.New[types.Category, []types.Component](size)
	if err != nil {
		return nil, err
	}
	return &Cached{
		upstream: upstream,
		options:  cache,
	}, nil
}

// FetchOptions serves from cache or loads from upstream. Failures are not
// cached.
func (c *Cached) FetchOptions(ctx context.Context, category types.Category) ([]types.Component, error) {
	if opts, ok := c.options.Get(category); ok {
		return cloneComponents(opts), nil
	}

	// The shared call outlives any one caller; each caller stops waiting
	// when its own context ends.
	ch := c.group.DoChan(string(category), func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		opts, err := c.upstream.FetchOptions(fetchCtx, category)
		if err != nil {
			return nil, err
		}
		c.options.Add(category, opts)
		return opts, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneComponents(res.Val.([]types.Component)), nil
	}
}

// Get delegates to upstream
func (c *Cached) Get(ctx context.Context, id string) (*types.Component, error) {
	return c.upstream.Get(ctx, id)
}

// Invalidate drops one category, or everything when category is empty
func (c *Cached) Invalidate(category types.Category) {
	if category == "" {
		c.options.Purge()
		return
	}
	c.options.Remove(category)
}

func cloneComponents(in []types.Component) []types.Component {
	out := make([]types.Component, len(in))
	copy(out, in)
	return out
}

var _ Provider = (*Cached)(nil)
