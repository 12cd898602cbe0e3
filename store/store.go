package store

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-repository-audit/audit"
	"github.com/goliatone/go-repository-audit/cache"
	"github.com/goliatone/go-repository-audit/internal/naming"
)

// Options configures a Store. Zero values fall back to defaults derived from T.
type Options struct {
	// EntityType namespaces cache keys and audit records. Defaults to the
	// snake_case name of T.
	EntityType string
	IDColumn   string
	NameColumn string

	Logger        *slog.Logger
	KeySerializer cache.KeySerializer
	Audit         *audit.Log
}

// Store is a generic data access layer for the bun model T. Reads by id go
// through the cache, writes keep it coherent, and mutations can be recorded
// in the audit log. Every operation runs on the bun.IDB handed in by the
// caller, usually a transaction.
type Store[T any] struct {
	entity     string
	idColumn   string
	nameColumn string

	cache  cache.Cache
	keys   cache.KeySerializer
	audit  *audit.Log
	logger *slog.Logger

	idField   []int
	nameField []int

	// cached tracks keys written by this store for bulk invalidation.
	cached *xsync.MapOf[string, struct{}]
}

// New creates a Store for T. c may be nil, in which case every read goes to the database.
func New[T any](c cache.Cache, opts Options) (*Store[T], error) {
	var model T
	typ := reflect.TypeOf(model)
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("store: model %T must be a struct", model)
	}

	if opts.EntityType == "" {
		opts.EntityType = naming.EntityName(model)
	}
	if opts.IDColumn == "" {
		opts.IDColumn = "id"
	}
	if opts.NameColumn == "" {
		opts.NameColumn = "name"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.KeySerializer == nil {
		opts.KeySerializer = cache.NewDefaultKeySerializer()
	}
	if opts.Audit == nil {
		opts.Audit = audit.New()
	}
	if c == nil {
		c = noopCache{}
	}

	idField, ok := fieldIndex(typ, opts.IDColumn, "ID", "Id")
	if !ok {
		return nil, fmt.Errorf("store: model %s has no %q column", typ.Name(), opts.IDColumn)
	}
	// The name column is optional; only Upsert and ListDropdown need it.
	nameField, _ := fieldIndex(typ, opts.NameColumn, "Name")

	return &Store[T]{
		entity:     opts.EntityType,
		idColumn:   opts.IDColumn,
		nameColumn: opts.NameColumn,
		cache:      c,
		keys:       opts.KeySerializer,
		audit:      opts.Audit,
		logger:     opts.Logger.With("entity", opts.EntityType),
		idField:    idField,
		nameField:  nameField,
		cached:     xsync.NewMapOf[string, struct{}](),
	}, nil
}

// Entity returns the namespace used for cache keys and audit records.
func (s *Store[T]) Entity() string { return s.entity }

// CacheKey returns the cache key of the entity with the given id.
func (s *Store[T]) CacheKey(id string) string {
	return s.keys.SerializeKey(s.entity, id)
}

func (s *Store[T]) cacheGet(ctx context.Context, key string) (T, bool) {
	value, ok, err := cache.GetValue[T](ctx, s.cache, key)
	if err != nil {
		s.logger.WarnContext(ctx, "cache read failed, falling back to store", "key", key, "error", err)
		return value, false
	}
	if ok {
		s.logger.DebugContext(ctx, "cache hit", "key", key)
	} else {
		s.logger.DebugContext(ctx, "cache miss", "key", key)
	}
	return value, ok
}

func (s *Store[T]) cacheSet(ctx context.Context, row T) {
	key := s.CacheKey(s.idOf(row))
	if err := cache.SetValue(ctx, s.cache, key, row); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
		return
	}
	s.cached.Store(key, struct{}{})
}

func (s *Store[T]) invalidate(ctx context.Context, id string) {
	key := s.CacheKey(id)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "cache invalidation failed", "key", key, "error", err)
	}
	s.cached.Delete(key)
}

// InvalidateAll drops every cached entry of the entity. Caches implementing
// cache.PrefixInvalidator are cleared by namespace, which also covers entries
// written by other stores sharing the cache. Otherwise only the keys this
// store wrote are dropped.
func (s *Store[T]) InvalidateAll(ctx context.Context) error {
	if pi, ok := s.cache.(cache.PrefixInvalidator); ok {
		if err := pi.DeleteByPrefix(ctx, s.entity+cache.KeySeparator); err != nil {
			return err
		}
		s.cached.Clear()
		return nil
	}

	var keys []string
	s.cached.Range(func(key string, _ struct{}) bool {
		keys = append(keys, key)
		return true
	})
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			return err
		}
		s.cached.Delete(key)
	}
	return nil
}

func (s *Store[T]) appendAudit(ctx context.Context, db bun.IDB, entry audit.Entry) error {
	entry.Auditable = s.entity
	if _, err := s.audit.Append(ctx, db, entry); err != nil {
		return err
	}
	return nil
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (noopCache) Set(context.Context, string, []byte) error         { return nil }
func (noopCache) Delete(context.Context, string) error              { return nil }
