package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type mapCache struct {
	mu      sync.Mutex
	storage map[string][]byte
	getErr  error
}

func newMapCache() *mapCache {
	return &mapCache{storage: make(map[string][]byte)}
}

func (m *mapCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.storage[key]
	return v, ok, nil
}

func (m *mapCache) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storage[key] = value
	return nil
}

func (m *mapCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.storage, key)
	return nil
}

type device struct {
	ID        string
	Name      string
	ParentID  *string
	Labels    map[string]string
	UpdatedAt time.Time
}

func TestSetValueGetValue(t *testing.T) {
	ctx := context.Background()
	c := newMapCache()
	parent := "dev-0"
	in := device{
		ID:        "dev-1",
		Name:      "olt-1",
		ParentID:  &parent,
		Labels:    map[string]string{"site": "vilnius"},
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	if err := SetValue(ctx, c, "device::dev-1", in); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	out, ok, err := GetValue[device](ctx, c, "device::dev-1")
	if err != nil || !ok {
		t.Fatalf("GetValue: ok=%v err=%v", ok, err)
	}
	if out.ID != in.ID || out.Name != in.Name || *out.ParentID != parent || out.Labels["site"] != "vilnius" {
		t.Errorf("unexpected value: %+v", out)
	}
	if !out.UpdatedAt.Equal(in.UpdatedAt) {
		t.Errorf("time mismatch: %v != %v", out.UpdatedAt, in.UpdatedAt)
	}
}

func TestGetValueReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := newMapCache()
	_ = SetValue(ctx, c, "k", device{ID: "1", Labels: map[string]string{"a": "1"}})

	first, _, _ := GetValue[device](ctx, c, "k")
	first.Labels["a"] = "mutated"

	second, _, _ := GetValue[device](ctx, c, "k")
	if second.Labels["a"] != "1" {
		t.Fatalf("cached entry was mutated through a previous read: %v", second.Labels)
	}
}

func TestGetValueMiss(t *testing.T) {
	_, ok, err := GetValue[device](context.Background(), newMapCache(), "missing")
	if err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestGetValueError(t *testing.T) {
	c := newMapCache()
	c.getErr = errors.New("unavailable")

	_, ok, err := GetValue[device](context.Background(), c, "k")
	if ok || err == nil {
		t.Fatalf("expected error, got ok=%v err=%v", ok, err)
	}
}

func TestGetValueCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c := newMapCache()
	_ = c.Set(ctx, "k", []byte{0xc1})

	if _, ok, err := GetValue[device](ctx, c, "k"); ok || err == nil {
		t.Fatalf("expected decode error, got ok=%v err=%v", ok, err)
	}
}

func TestNewCacheService(t *testing.T) {
	svc, err := NewCacheService(DefaultConfig())
	if err != nil {
		t.Fatalf("NewCacheService: %v", err)
	}

	ctx := context.Background()
	if err := SetValue(ctx, svc, "device::1", device{ID: "1"}); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	got, ok, err := GetValue[device](ctx, svc, "device::1")
	if err != nil || !ok || got.ID != "1" {
		t.Fatalf("unexpected read: %+v ok=%v err=%v", got, ok, err)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Capacity = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero capacity")
	}
}
