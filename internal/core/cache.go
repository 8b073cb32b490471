package core

// cache.go holds the in-memory mirrors of the reference tables.
//
// Mapping mirrors a key/value table (rarities, name variants, group variants)
// and is written through: storage first, cache second, both inside one
// exclusive critical section. ListCache mirrors a table that is only ever
// read as a whole (sets, groups, units, canonical names) and is reloaded
// after every write that changed a row.

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	db "github.com/JonMunkholm/llocg/internal/database"
)

// MappingStore is the storage side of a Mapping.
type MappingStore interface {
	Insert(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) (int64, error)
	LoadAll(ctx context.Context) (map[string]string, error)
}

// Mapping is a write-through cache over one key/value table.
type Mapping[V ~string] struct {
	name     string
	store    MappingStore
	fallback func(key string) V

	mu      sync.RWMutex
	entries map[string]V
}

// NewMapping returns an empty Mapping. fallback supplies the value for keys
// that are not mapped. Call Load before serving lookups.
func NewMapping[V ~string](name string, store MappingStore, fallback func(key string) V) *Mapping[V] {
	return &Mapping[V]{
		name:     name,
		store:    store,
		fallback: fallback,
		entries:  make(map[string]V),
	}
}

// Name returns the table this mapping mirrors.
func (m *Mapping[V]) Name() string { return m.name }

// Lookup returns the mapped value for key, or the fallback. Never fails.
func (m *Mapping[V]) Lookup(key string) V {
	m.mu.RLock()
	v, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		return v
	}
	return m.fallback(key)
}

// Get returns the mapped value and whether key is mapped.
func (m *Mapping[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

// Snapshot returns a copy of the current mapping.
func (m *Mapping[V]) Snapshot() map[string]V {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.entries)
}

// Len returns the number of mapped keys.
func (m *Mapping[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Upsert adds key to storage and then to the cache. A key already present
// in either is a *ConflictError and leaves the cache matching storage.
func (m *Mapping[V]) Upsert(ctx context.Context, key string, value V) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; ok {
		return Conflict(m.name, key)
	}

	if err := m.store.Insert(ctx, key, string(value)); err != nil {
		if db.IsUniqueViolation(err) {
			// Another writer got there first; take storage's view.
			if rerr := m.loadLocked(ctx); rerr != nil {
				slog.Warn("cache reload after conflict failed", "table", m.name, "error", rerr)
			}
			return Conflict(m.name, key)
		}
		return storageErr("insert "+m.name, err)
	}

	m.entries[key] = value
	return nil
}

// Remove deletes key from storage and, if a row was deleted, from the cache.
// Reports whether a row was deleted.
func (m *Mapping[V]) Remove(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.store.Delete(ctx, key)
	if err != nil {
		return false, storageErr("delete "+m.name, err)
	}
	if n == 0 {
		return false, nil
	}
	delete(m.entries, key)
	return true, nil
}

// Load replaces the cache with the current contents of storage.
func (m *Mapping[V]) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(ctx)
}

func (m *Mapping[V]) loadLocked(ctx context.Context) error {
	rows, err := m.store.LoadAll(ctx)
	if err != nil {
		return storageErr("load "+m.name, err)
	}
	entries := make(map[string]V, len(rows))
	for k, v := range rows {
		entries[k] = V(v)
	}
	m.entries = entries
	slog.Debug("cache loaded", "table", m.name, "entries", len(entries))
	return nil
}

// ListCache mirrors a whole table as a slice.
type ListCache[T any] struct {
	name string
	load func(ctx context.Context) ([]T, error)

	mu    sync.RWMutex
	items []T
}

// NewListCache returns an empty ListCache backed by load.
func NewListCache[T any](name string, load func(ctx context.Context) ([]T, error)) *ListCache[T] {
	return &ListCache[T]{name: name, load: load}
}

// Name returns the table this cache mirrors.
func (c *ListCache[T]) Name() string { return c.name }

// All returns a copy of the cached items.
func (c *ListCache[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Load replaces the cache with the current contents of storage.
func (c *ListCache[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(ctx)
}

// Apply runs write under the cache's exclusive lock and reloads from storage
// when write reports a change. Readers never see the cache ahead of storage.
// A reload failure after a committed write is logged and Apply still
// reports success.
func (c *ListCache[T]) Apply(ctx context.Context, write func(ctx context.Context) (bool, error)) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed, err := write(ctx)
	if err != nil || !changed {
		return changed, err
	}
	if err := c.loadLocked(ctx); err != nil {
		slog.Warn("cache reload after write failed", "table", c.name, "error", err)
	}
	return true, nil
}

func (c *ListCache[T]) loadLocked(ctx context.Context) error {
	items, err := c.load(ctx)
	if err != nil {
		return storageErr("load "+c.name, err)
	}
	c.items = items
	slog.Debug("cache loaded", "table", c.name, "entries", len(items))
	return nil
}

// mappingStore adapts a mapping table to MappingStore.
type mappingStore struct {
	q     *db.Queries
	table db.MappingTable
}

func (s mappingStore) Insert(ctx context.Context, key, value string) error {
	return s.q.InsertMapping(ctx, s.table, key, value)
}

func (s mappingStore) Delete(ctx context.Context, key string) (int64, error) {
	return s.q.DeleteMapping(ctx, s.table, key)
}

func (s mappingStore) LoadAll(ctx context.Context) (map[string]string, error) {
	rows, err := s.q.ListMappings(ctx, s.table)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}
