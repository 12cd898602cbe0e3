package store_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-repository-audit/audit"
	"github.com/goliatone/go-repository-audit/pkg/testsupport"
	"github.com/goliatone/go-repository-audit/store"
)

// Device is the model used across store tests.
type Device struct {
	bun.BaseModel `bun:"table:devices,alias:d"`

	ID       string  `bun:"id,pk" json:"id"`
	Name     string  `bun:"name,unique,notnull" json:"name"`
	Kind     string  `bun:"kind" json:"kind"`
	ParentID *string `bun:"parent_id" json:"parentId,omitempty"`
	Parent   *Device `bun:"rel:belongs-to,join:parent_id=id" json:"parent,omitempty"`
}

// memoryCache is a recording cache.Cache with failure injection.
type memoryCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	calls  []string
	getErr error
	setErr error
	delErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) record(call string) {
	m.calls = append(m.calls, call)
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Get:" + key)
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Set:" + key)
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Delete:" + key)
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, key)
	return nil
}

func (m *memoryCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func (m *memoryCache) countCalls(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, call := range m.calls {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// prefixCache adds namespace deletes to memoryCache.
type prefixCache struct {
	*memoryCache
	prefixes int
}

func (p *prefixCache) DeleteByPrefix(_ context.Context, prefix string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefixes++
	p.record("DeleteByPrefix:" + prefix)
	for key := range p.data {
		if strings.HasPrefix(key, prefix) {
			delete(p.data, key)
		}
	}
	return nil
}

// queryCounter counts statements reaching the database.
type queryCounter struct {
	n atomic.Int64
}

func (q *queryCounter) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (q *queryCounter) AfterQuery(_ context.Context, _ *bun.QueryEvent) {
	q.n.Add(1)
}

func (q *queryCounter) Count() int64 { return q.n.Load() }

var errCacheDown = errors.New("cache unavailable")

type fixture struct {
	db      *bun.DB
	store   *store.Store[Device]
	cache   *memoryCache
	queries *queryCounter
	log     *audit.Log
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	db := testsupport.NewSQLiteDB(t)
	if _, err := db.NewCreateTable().Model((*Device)(nil)).Exec(ctx); err != nil {
		t.Fatalf("create devices: %v", err)
	}
	if err := audit.CreateTable(ctx, db); err != nil {
		t.Fatalf("create audit table: %v", err)
	}

	counter := &queryCounter{}
	db.AddQueryHook(counter)

	c := newMemoryCache()
	log := audit.New()
	s, err := store.New[Device](c, store.Options{Audit: log})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}

	return &fixture{db: db, store: s, cache: c, queries: counter, log: log}
}

// seed inserts n devices with ids and names "01".."n" without touching cache or audit.
func (f *fixture) seed(t *testing.T, n int, kind func(i int) string) []Device {
	t.Helper()

	rows := make([]Device, 0, n)
	for i := 1; i <= n; i++ {
		d := Device{ID: fmt.Sprintf("%02d", i), Name: fmt.Sprintf("device-%02d", i), Kind: "olt"}
		if kind != nil {
			d.Kind = kind(i)
		}
		rows = append(rows, d)
	}
	if _, err := f.store.CreateMany(context.Background(), f.db, rows); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return rows
}

func (f *fixture) history(t *testing.T, id string) []audit.Record {
	t.Helper()

	records, err := f.log.History(context.Background(), f.db, f.store.Entity(), id)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	return records
}

func ids(rows []Device) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}
