package core

import (
	"context"
	"errors"
	"maps"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// fakeStore is an in-memory MappingStore that behaves like a table with a
// primary key on the mapping key.
type fakeStore struct {
	mu       sync.Mutex
	rows     map[string]string
	failNext error
	inserts  atomic.Int32
	delay    time.Duration
}

func newFakeStore(rows map[string]string) *fakeStore {
	if rows == nil {
		rows = map[string]string{}
	}
	return &fakeStore{rows: rows}
}

func (f *fakeStore) Insert(_ context.Context, key, value string) error {
	f.inserts.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failNext; err != nil {
		f.failNext = nil
		return err
	}
	if _, ok := f.rows[key]; ok {
		return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	}
	f.rows[key] = value
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failNext; err != nil {
		f.failNext = nil
		return 0, err
	}
	if _, ok := f.rows[key]; !ok {
		return 0, nil
	}
	delete(f.rows, key)
	return 1, nil
}

func (f *fakeStore) LoadAll(context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.rows), nil
}

func (f *fakeStore) snapshot() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.rows)
}

func newRarityCache(t *testing.T, store *fakeStore) *Mapping[RarityType] {
	t.Helper()
	m := NewMapping(TableRarities, store, func(string) RarityType { return RarityRegular })
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return m
}

func TestMapping_LookupDefaults(t *testing.T) {
	m := newRarityCache(t, newFakeStore(map[string]string{"SEC+": "Parallel"}))

	if got := m.Lookup("SEC+"); got != RarityParallel {
		t.Errorf("Lookup(SEC+) = %q, want Parallel", got)
	}
	for i := 0; i < 3; i++ {
		if got := m.Lookup("R"); got != RarityRegular {
			t.Errorf("Lookup(R) = %q, want Regular", got)
		}
	}

	variants := NewMapping(TableNameVariants, newFakeStore(nil), identity)
	if got := variants.Lookup("Kanon Shibuya"); got != "Kanon Shibuya" {
		t.Errorf("unmapped variant = %q, want input unchanged", got)
	}
}

func TestMapping_UpsertWritesStorageThenCache(t *testing.T) {
	store := newFakeStore(nil)
	m := newRarityCache(t, store)
	ctx := context.Background()

	if err := m.Upsert(ctx, "P", RarityParallel); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if got := m.Lookup("P"); got != RarityParallel {
		t.Errorf("Lookup(P) = %q, want Parallel", got)
	}
	if !equalMapping(m.Snapshot(), store.snapshot()) {
		t.Errorf("cache %v != storage %v", m.Snapshot(), store.snapshot())
	}

	err := m.Upsert(ctx, "P", RarityRegular)
	if !IsConflict(err) {
		t.Fatalf("duplicate Upsert() = %v, want *ConflictError", err)
	}
	if got := m.Lookup("P"); got != RarityParallel {
		t.Errorf("conflict changed cached value to %q", got)
	}
}

func TestMapping_UpsertStorageFailureLeavesCache(t *testing.T) {
	store := newFakeStore(nil)
	m := newRarityCache(t, store)
	store.failNext = errors.New("connection reset by peer")

	err := m.Upsert(context.Background(), "P", RarityParallel)
	if !IsStorage(err) {
		t.Fatalf("Upsert() = %v, want *StorageError", err)
	}
	if _, ok := m.Get("P"); ok {
		t.Error("cache was mutated after a failed storage write")
	}
}

func TestMapping_UpsertReloadsAfterStorageConflict(t *testing.T) {
	store := newFakeStore(nil)
	m := newRarityCache(t, store)

	// A row written behind the cache's back, e.g. by another replica.
	store.mu.Lock()
	store.rows["P"] = "Parallel"
	store.mu.Unlock()

	err := m.Upsert(context.Background(), "P", RarityRegular)
	if !IsConflict(err) {
		t.Fatalf("Upsert() = %v, want *ConflictError", err)
	}
	if got, ok := m.Get("P"); !ok || got != RarityParallel {
		t.Errorf("cache after conflict = %q/%v, want storage value Parallel", got, ok)
	}
}

func TestMapping_Remove(t *testing.T) {
	store := newFakeStore(map[string]string{"P": "Parallel"})
	m := newRarityCache(t, store)
	ctx := context.Background()

	removed, err := m.Remove(ctx, "P")
	if err != nil || !removed {
		t.Fatalf("Remove(P) = %v, %v; want true, nil", removed, err)
	}
	if _, ok := m.Get("P"); ok {
		t.Error("P still cached after Remove")
	}

	removed, err = m.Remove(ctx, "P")
	if err != nil || removed {
		t.Errorf("second Remove(P) = %v, %v; want false, nil", removed, err)
	}

	store.failNext = errors.New("deadlock detected")
	if _, err := m.Remove(ctx, "X"); !IsStorage(err) {
		t.Errorf("Remove with failing store = %v, want *StorageError", err)
	}
}

func TestMapping_ConcurrentUpsertSameKey(t *testing.T) {
	store := newFakeStore(nil)
	store.delay = 5 * time.Millisecond
	m := newRarityCache(t, store)

	const writers = 8
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := m.Upsert(context.Background(), "SEC", RarityParallel)
			switch {
			case err == nil:
				successes.Add(1)
			case IsConflict(err):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if successes.Load() != 1 {
		t.Errorf("successes = %d, want 1", successes.Load())
	}
	if conflicts.Load() != writers-1 {
		t.Errorf("conflicts = %d, want %d", conflicts.Load(), writers-1)
	}
	if len(store.snapshot()) != 1 {
		t.Errorf("storage rows = %v, want exactly one", store.snapshot())
	}
	if !equalMapping(m.Snapshot(), store.snapshot()) {
		t.Errorf("cache %v != storage %v", m.Snapshot(), store.snapshot())
	}
}

func TestMapping_SnapshotIsCopy(t *testing.T) {
	m := newRarityCache(t, newFakeStore(map[string]string{"P": "Parallel"}))
	snap := m.Snapshot()
	snap["P"] = RarityRegular
	if got := m.Lookup("P"); got != RarityParallel {
		t.Errorf("mutating a snapshot changed the cache: %q", got)
	}
}

func TestListCache_Apply(t *testing.T) {
	var (
		mu    sync.Mutex
		table = []string{"Aqours"}
		loads int
	)
	c := NewListCache(TableGroups, func(context.Context) ([]string, error) {
		mu.Lock()
		defer mu.Unlock()
		loads++
		return append([]string(nil), table...), nil
	})
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}

	changed, err := c.Apply(ctx, func(context.Context) (bool, error) {
		mu.Lock()
		table = append(table, "Liella!")
		mu.Unlock()
		return true, nil
	})
	if err != nil || !changed {
		t.Fatalf("Apply() = %v, %v", changed, err)
	}
	if got := c.All(); len(got) != 2 || got[1] != "Liella!" {
		t.Errorf("All() = %v after insert", got)
	}

	loadsBefore := loads
	changed, err = c.Apply(ctx, func(context.Context) (bool, error) { return false, nil })
	if err != nil || changed {
		t.Fatalf("no-op Apply() = %v, %v", changed, err)
	}
	if loads != loadsBefore {
		t.Error("no-op Apply reloaded the cache")
	}

	wantErr := Conflict("group", "Aqours")
	if _, err := c.Apply(ctx, func(context.Context) (bool, error) { return false, wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("Apply() error = %v, want %v", err, wantErr)
	}
}

func TestListCache_ApplyReloadFailureKeepsWrite(t *testing.T) {
	var (
		table   = []string{"Aqours"}
		loadErr error
	)
	c := NewListCache(TableGroups, func(context.Context) ([]string, error) {
		if loadErr != nil {
			return nil, loadErr
		}
		return append([]string(nil), table...), nil
	})
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}

	changed, err := c.Apply(ctx, func(context.Context) (bool, error) {
		table = append(table, "Liella!")
		loadErr = errors.New("conn reset")
		return true, nil
	})
	if err != nil {
		t.Fatalf("Apply() error = %v, want nil after a committed write", err)
	}
	if !changed {
		t.Error("Apply() changed = false, want true")
	}
	if got := c.All(); len(got) != 1 || got[0] != "Aqours" {
		t.Errorf("All() = %v, want the last good load", got)
	}

	loadErr = nil
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if got := c.All(); len(got) != 2 {
		t.Errorf("All() = %v after resync, want both groups", got)
	}
}

func equalMapping(cache map[string]RarityType, storage map[string]string) bool {
	if len(cache) != len(storage) {
		return false
	}
	for k, v := range storage {
		if string(cache[k]) != v {
			return false
		}
	}
	return true
}
