package di

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-repository-audit/audit"
	"github.com/goliatone/go-repository-audit/cache"
	"github.com/goliatone/go-repository-audit/graph"
	"github.com/goliatone/go-repository-audit/store"
	"github.com/goliatone/go-repository-audit/tree"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config selects the database and cache a Container wires together.
type Config struct {
	// Driver is DriverPostgres (pgx) or DriverSQLite (modernc).
	Driver string
	DSN    string

	// MaxOpenConns caps the pool when positive. In-memory SQLite
	// databases need 1 so every query sees the same database.
	MaxOpenConns int

	Cache  cache.Config
	Logger *slog.Logger
}

// DefaultConfig returns a Config for a private in-memory SQLite database.
func DefaultConfig() Config {
	return Config{
		Driver:       DriverSQLite,
		DSN:          "file::memory:?cache=shared",
		MaxOpenConns: 1,
		Cache:        cache.DefaultConfig(),
	}
}

// Validate checks the driver, DSN and cache settings.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverPostgres, DriverSQLite)),
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.MaxOpenConns, validation.Min(0)),
		// cache.Config implements validation.Validatable and is checked through it.
		validation.Field(&c.Cache),
	)
}

// Container provides dependency injection for the data access components.
// It owns the bun database handle, the shared cache, the key serializer and
// the audit log, and builds stores, tree and graph repositories from them.
type Container struct {
	db            *bun.DB
	cacheService  cache.Cache
	keySerializer cache.KeySerializer
	auditLog      *audit.Log
	logger        *slog.Logger
	config        Config
}

// NewContainer opens the configured database and initializes the cache.
// The connection is not verified until the first query.
func NewContainer(cfg Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	c, err := NewContainerWithDB(db, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// NewContainerWithDB wires the components around an already opened db.
// cfg.Driver and cfg.DSN are ignored.
func NewContainerWithDB(db *bun.DB, cfg Config) (*Container, error) {
	cacheService, err := cache.NewCacheService(cfg.Cache)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Container{
		db:            db,
		cacheService:  cacheService,
		keySerializer: cache.NewDefaultKeySerializer(),
		auditLog:      audit.New(),
		logger:        logger,
		config:        cfg,
	}, nil
}

// NewContainerWithDefaults creates a container over an in-memory SQLite database.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(DefaultConfig())
}

// Open returns a bun handle for driver and dsn using the matching dialect.
func Open(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case DriverPostgres:
		sqldb, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	case DriverSQLite:
		sqldb, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// DB returns the shared database handle.
func (c *Container) DB() *bun.DB { return c.db }

// CacheService returns the singleton cache service instance.
func (c *Container) CacheService() cache.Cache { return c.cacheService }

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer { return c.keySerializer }

// AuditLog returns the audit log shared by every store.
func (c *Container) AuditLog() *audit.Log { return c.auditLog }

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger { return c.logger }

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() Config { return c.config }

// Migrate creates the audit table.
func (c *Container) Migrate(ctx context.Context) error {
	return audit.CreateTable(ctx, c.db)
}

// Close closes the database handle.
func (c *Container) Close() error { return c.db.Close() }

// NewTree creates a tree repository.
func (c *Container) NewTree(cfg tree.Config) (*tree.Repository, error) {
	return tree.NewRepository(cfg)
}

// NewGraph creates a graph repository bound to the container's dialect.
func (c *Container) NewGraph(cfg graph.Config) (*graph.Repository, error) {
	return graph.New(c.db, cfg)
}

// NewStore creates a store for T sharing the container's cache, key
// serializer, audit log and logger. Values set in opts win.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewStore[Device](container, store.Options{})
func NewStore[T any](container *Container, opts store.Options) (*store.Store[T], error) {
	if opts.Logger == nil {
		opts.Logger = container.logger
	}
	if opts.KeySerializer == nil {
		opts.KeySerializer = container.keySerializer
	}
	if opts.Audit == nil {
		opts.Audit = container.auditLog
	}
	return store.New[T](container.cacheService, opts)
}
