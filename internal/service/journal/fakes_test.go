package journal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/heartmarshall/undojournal/internal/domain"
	"github.com/heartmarshall/undojournal/pkg/keylock"
)

// ---------------------------------------------------------------------------
// fakeTx runs fn directly and fires AfterCommit hooks only on success.
// ---------------------------------------------------------------------------

type fakeTxKey struct{}

type fakeTx struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	hooks := &[]func(context.Context){}
	if err := fn(context.WithValue(ctx, fakeTxKey{}, hooks)); err != nil {
		f.mu.Lock()
		f.rollbacks++
		f.mu.Unlock()
		return err
	}
	f.mu.Lock()
	f.commits++
	f.mu.Unlock()
	for _, h := range *hooks {
		h(ctx)
	}
	return nil
}

func (f *fakeTx) AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if hooks, ok := ctx.Value(fakeTxKey{}).(*[]func(context.Context)); ok {
		*hooks = append(*hooks, fn)
		return
	}
	fn(ctx)
}

// ---------------------------------------------------------------------------
// memStore is an in-memory recordRepo with the same ordering and
// compare-and-set semantics as the PostgreSQL repo.
// ---------------------------------------------------------------------------

type memStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]*domain.UndoRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[int64]*domain.UndoRecord)}
}

func clone(r *domain.UndoRecord) *domain.UndoRecord {
	c := *r
	return &c
}

// seed inserts rec as-is (including CreatedAt and status) and returns a copy.
func (m *memStore) seed(rec domain.UndoRecord) *domain.UndoRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec.ID = m.nextID
	if rec.UndoHandler == "" {
		rec.UndoHandler = "test.ok"
	}
	if rec.IsUndone && rec.UndoneAt == nil {
		at := rec.CreatedAt
		rec.UndoneAt = &at
	}
	m.records[rec.ID] = &rec
	return clone(&rec)
}

func (m *memStore) get(id int64) (*domain.UndoRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, false
	}
	return clone(r), true
}

func (m *memStore) Create(_ context.Context, rec *domain.UndoRecord) (*domain.UndoRecord, error) {
	return m.seed(*rec), nil
}

func (m *memStore) GetByIDForUpdate(_ context.Context, userID uuid.UUID, id int64) (*domain.UndoRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return clone(r), nil
}

func (m *memStore) sorted(userID uuid.UUID) []*domain.UndoRecord {
	var out []*domain.UndoRecord
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, clone(r))
		}
	}
	slices.SortFunc(out, func(a, b *domain.UndoRecord) int {
		if a.MoreRecentThan(b) {
			return -1
		}
		return 1
	})
	return out
}

func (m *memStore) GetLatestForUpdate(_ context.Context, userID uuid.UUID, undone bool, notBefore time.Time) (*domain.UndoRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.sorted(userID) {
		if r.IsUndone == undone && !r.CreatedAt.Before(notBefore) {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) HasNewer(_ context.Context, userID uuid.UUID, undone bool, rec *domain.UndoRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.UserID == userID && r.IsUndone == undone && r.MoreRecentThan(rec) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListByUser(_ context.Context, userID uuid.UUID, filter domain.HistoryFilter) ([]*domain.UndoRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.UndoRecord{}
	for _, r := range m.sorted(userID) {
		if filter.ActionType != nil && r.ActionType != *filter.ActionType {
			continue
		}
		if !filter.Since.IsZero() && r.CreatedAt.Before(filter.Since) {
			continue
		}
		out = append(out, r)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) SetUndone(_ context.Context, userID uuid.UUID, id int64, undone bool, at time.Time) (*domain.UndoRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.UserID != userID || r.IsUndone == undone {
		return nil, domain.ErrNotFound
	}
	r.IsUndone = undone
	if undone {
		r.UndoneAt = &at
	} else {
		r.UndoneAt = nil
		r.RedoneAt = &at
	}
	return clone(r), nil
}

func (m *memStore) DeleteCreatedBefore(_ context.Context, threshold time.Time, limit int) ([]domain.RecordRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var refs []domain.RecordRef
	for id, r := range m.records {
		if len(refs) == limit {
			break
		}
		if r.CreatedAt.Before(threshold) {
			refs = append(refs, domain.RecordRef{ID: id, UserID: r.UserID})
			delete(m.records, id)
		}
	}
	return refs, nil
}

// ---------------------------------------------------------------------------
// memCache mirrors the Redis cache contract in memory.
// ---------------------------------------------------------------------------

type memCache struct {
	mu          sync.Mutex
	size        int
	slices      map[uuid.UUID][]*domain.UndoRecord
	gens        map[uuid.UUID]uint64
	invalidated int
}

func newMemCache(size int) *memCache {
	return &memCache{
		size:   size,
		slices: make(map[uuid.UUID][]*domain.UndoRecord),
		gens:   make(map[uuid.UUID]uint64),
	}
}

func cloneAll(in []*domain.UndoRecord) []*domain.UndoRecord {
	out := make([]*domain.UndoRecord, len(in))
	for i, r := range in {
		out[i] = clone(r)
	}
	return out
}

func (c *memCache) Recent(_ context.Context, userID uuid.UUID) ([]*domain.UndoRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slices[userID]
	if !ok {
		return nil, false
	}
	return cloneAll(s), true
}

func (c *memCache) Generation(_ context.Context, userID uuid.UUID) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[userID], true
}

func (c *memCache) Store(_ context.Context, userID uuid.UUID, gen uint64, records []*domain.UndoRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[userID] != gen {
		return
	}
	if len(records) > c.size {
		records = records[:c.size]
	}
	c.slices[userID] = cloneAll(records)
}

func (c *memCache) Push(_ context.Context, rec *domain.UndoRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[rec.UserID]++
	s, ok := c.slices[rec.UserID]
	if !ok {
		return
	}
	s = append([]*domain.UndoRecord{clone(rec)}, s...)
	if len(s) > c.size {
		s = s[:c.size]
	}
	c.slices[rec.UserID] = s
}

func (c *memCache) Replace(_ context.Context, rec *domain.UndoRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[rec.UserID]++
	s, ok := c.slices[rec.UserID]
	if !ok {
		return
	}
	i := slices.IndexFunc(s, func(r *domain.UndoRecord) bool { return r.ID == rec.ID })
	if i < 0 {
		delete(c.slices, rec.UserID)
		return
	}
	s[i] = clone(rec)
}

func (c *memCache) Evict(_ context.Context, userID uuid.UUID, ids []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[userID]++
	if s, ok := c.slices[userID]; ok {
		c.slices[userID] = slices.DeleteFunc(s, func(r *domain.UndoRecord) bool { return slices.Contains(ids, r.ID) })
	}
}

func (c *memCache) Invalidate(_ context.Context, userID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[userID]++
	c.invalidated++
	delete(c.slices, userID)
}

// ---------------------------------------------------------------------------
// service builders
// ---------------------------------------------------------------------------

var errDiverged = errors.New("domain state diverged")

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Retention:        7 * 24 * time.Hour,
		CacheSize:        10,
		OperationTimeout: time.Second,
		SweepBatchSize:   100,
		SweepConcurrency: 4,
		HandlerStopGrace: 20 * time.Millisecond,
	}
}

// okRegistry registers "test.ok" (always succeeds) and "test.fail" (always
// reports divergence).
func okRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	ok := func(_ context.Context, p domain.Payload) (domain.Payload, error) { return p, nil }
	reg.MustRegister("test.ok", ok, ok)
	fail := func(context.Context, domain.Payload) (domain.Payload, error) {
		return nil, errDiverged
	}
	reg.MustRegister("test.fail", fail, fail)
	reg.Freeze()
	return reg
}

// newTestService builds a Service over the given repo and cache with a
// discard logger, a fixed clock and an in-process lock.
func newTestService(t *testing.T, repo recordRepo, cache recentCache, reg *Registry) (*Service, *fakeTx) {
	t.Helper()
	if cache == nil {
		cache = NopCache{}
	}
	tx := &fakeTx{}
	return &Service{
		records:  repo,
		cache:    cache,
		tx:       tx,
		locker:   keylock.New[uuid.UUID](),
		handlers: reg,
		cfg:      testConfig(),
		now:      func() time.Time { return testNow },
		tracer:   noop.NewTracerProvider().Tracer("test"),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, tx
}
