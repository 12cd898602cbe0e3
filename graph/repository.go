package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/goliatone/go-repository-audit/errs"
)

// Repository queries one edge table. It is bound to the dialect of the
// handle it was created with.
type Repository struct {
	cfg     Config
	builder PathBuilder
}

// New validates cfg and picks the path builder for db's dialect.
func New(db bun.IDB, cfg Config) (*Repository, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	builder, err := BuilderFor(db.Dialect().Name())
	if err != nil {
		return nil, err
	}
	return &Repository{cfg: cfg, builder: builder}, nil
}

// BuilderFor returns the path builder for a bun dialect.
func BuilderFor(name dialect.Name) (PathBuilder, error) {
	switch name {
	case dialect.PG:
		return arrayPathBuilder{}, nil
	case dialect.SQLite:
		return stringPathBuilder{}, nil
	default:
		return nil, fmt.Errorf("graph: unsupported dialect %s", name)
	}
}

// Builder returns the selected path builder.
func (r *Repository) Builder() PathBuilder { return r.builder }

// FindEdges returns every edge ordered by (A, B).
func (r *Repository) FindEdges(ctx context.Context, db bun.IDB) ([]Edge, error) {
	edges := make([]Edge, 0)
	err := db.NewRaw(
		"SELECT CAST(e.?1 AS TEXT) AS a, CAST(e.?2 AS TEXT) AS b FROM ?0 AS e ORDER BY e.?1, e.?2",
		tableArgs(r.cfg)...,
	).Scan(ctx, &edges)
	if err != nil {
		return nil, errs.Wrap("find edges", r.cfg.Table, err)
	}
	return edges, nil
}

// FindPath returns every simple path in the graph.
func (r *Repository) FindPath(ctx context.Context, db bun.IDB) ([]Path, error) {
	return r.paths(ctx, db, "find path", "")
}

// FindPathByFromID returns every simple path starting at fromID.
func (r *Repository) FindPathByFromID(ctx context.Context, db bun.IDB, fromID string) ([]Path, error) {
	return r.paths(ctx, db, "find path by from id", fromID)
}

// Reachable reports whether a path from -> ... -> to exists.
func (r *Repository) Reachable(ctx context.Context, db bun.IDB, from, to string) (bool, error) {
	paths, err := r.FindPathByFromID(ctx, db, from)
	if err != nil {
		return false, err
	}
	for _, p := range paths {
		if p.B == to {
			return true, nil
		}
	}
	return false, nil
}

// EnsureAcyclic reports errs.ErrCyclicReference when adding the edge
// from -> to would close a cycle.
func (r *Repository) EnsureAcyclic(ctx context.Context, db bun.IDB, from, to string) error {
	if from == to {
		return errs.Wrap("ensure acyclic", r.cfg.Table, fmt.Errorf("%w: self loop on %s", errs.ErrCyclicReference, from))
	}
	back, err := r.Reachable(ctx, db, to, from)
	if err != nil {
		return err
	}
	if back {
		return errs.Wrap("ensure acyclic", r.cfg.Table, fmt.Errorf("%w: %s already reaches %s", errs.ErrCyclicReference, to, from))
	}
	return nil
}

func (r *Repository) paths(ctx context.Context, db bun.IDB, op, from string) ([]Path, error) {
	query, args := r.builder.Query(r.cfg, from)
	paths, err := r.builder.Scan(ctx, db, query, args)
	if err != nil {
		return nil, errs.Wrap(op, r.cfg.Table, err)
	}
	sortPaths(paths)
	return paths, nil
}

// sortPaths orders by source, then length, then the joined path.
func sortPaths(paths []Path) {
	sort.SliceStable(paths, func(i, j int) bool {
		a, b := paths[i], paths[j]
		if a.A != b.A {
			return a.A < b.A
		}
		if len(a.Path) != len(b.Path) {
			return len(a.Path) < len(b.Path)
		}
		return strings.Join(a.Path, "\x00") < strings.Join(b.Path, "\x00")
	})
}
