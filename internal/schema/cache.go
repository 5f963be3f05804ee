package schema

import (
	"context"
	"sync"
)

type Loader interface {
	Load(ctx context.Context, key Key) (*Table, error)
}

// Cache loads each table once. Failed loads are not cached.
type Cache struct {
	loader Loader

	mu     sync.Mutex
	tables map[Key]*Table
}

func NewCache(loader Loader) *Cache {
	return &Cache{loader: loader, tables: make(map[Key]*Table)}
}

func (c *Cache) Get(ctx context.Context, key Key) (*Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.tables[key]; ok {
		return t, nil
	}
	t, err := c.loader.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	c.tables[key] = t
	return t, nil
}

// Lookup returns a cached table without loading.
func (c *Cache) Lookup(key Key) (*Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tables[key]
	return t, ok
}

func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	delete(c.tables, key)
	c.mu.Unlock()
}

// InvalidateSchema drops every cached table of one database.
func (c *Cache) InvalidateSchema(db string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.tables {
		if k.Schema == db {
			delete(c.tables, k)
			n++
		}
	}
	return n
}
