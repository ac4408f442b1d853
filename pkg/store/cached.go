package store

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// Cached keeps recently used models of a backend in memory. Lists
// always go to the backend.
type Cached struct {
	Store
	cache *lru.Cache[string, *Model]
}

// NewCached fronts s with an LRU cache of size models
func NewCached(s Store, size int) (*Cached, error) {
	cache, err := lru.New[string, *Model](size)
	if err != nil {
		return nil, errors.Wrap(err, "could not create model cache")
	}
	return &Cached{Store: s, cache: cache}, nil
}

// Put writes through to the backend
func (c *Cached) Put(ctx context.Context, m *Model) error {
	if err := c.Store.Put(ctx, m); err != nil {
		c.cache.Remove(m.Name)
		return err
	}
	cp := *m
	c.cache.Add(m.Name, &cp)
	return nil
}

// Get serves a copy of the cached model or reads it from the backend
func (c *Cached) Get(ctx context.Context, name string) (*Model, error) {
	if m, ok := c.cache.Get(name); ok {
		cp := *m
		return &cp, nil
	}
	m, err := c.Store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	cp := *m
	c.cache.Add(name, &cp)
	return m, nil
}

// Delete removes the model from the cache and the backend
func (c *Cached) Delete(ctx context.Context, name string) error {
	c.cache.Remove(name)
	return c.Store.Delete(ctx, name)
}

// Len returns the number of cached models
func (c *Cached) Len() int { return c.cache.Len() }
