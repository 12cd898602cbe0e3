package tree

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-repository-audit/errs"
)

// Repository runs recursive queries against one adjacency list table.
// Recursive steps use UNION rather than UNION ALL, so rows that already
// appeared stop the walk and cyclic data still terminates.
type Repository struct {
	cfg Config
}

// NewRepository validates cfg, filling empty column names with defaults.
func NewRepository(cfg Config) (*Repository, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Repository{cfg: cfg}, nil
}

// Config returns the effective configuration.
func (r *Repository) Config() Config { return r.cfg }

const descendQuery = `
WITH RECURSIVE walk(node_id, node_parent, node_name) AS (
    SELECT t.?0, t.?1, t.?2 FROM ?3 AS t WHERE t.?0 = ?4
    UNION
    SELECT c.?0, c.?1, c.?2 FROM ?3 AS c JOIN walk ON c.?1 = walk.node_id
)
SELECT CAST(node_id AS TEXT) AS id, CAST(node_parent AS TEXT) AS parent_id, CAST(node_name AS TEXT) AS name
FROM walk
ORDER BY node_id`

const ascendQuery = `
WITH RECURSIVE walk(node_id, node_parent, node_name) AS (
    SELECT t.?0, t.?1, t.?2 FROM ?3 AS t WHERE t.?0 = ?4
    UNION
    SELECT p.?0, p.?1, p.?2 FROM ?3 AS p JOIN walk ON p.?0 = walk.node_parent
)
SELECT CAST(node_id AS TEXT) AS id, CAST(node_parent AS TEXT) AS parent_id, CAST(node_name AS TEXT) AS name
FROM walk
ORDER BY node_id`

const forestQuery = `
SELECT CAST(t.?0 AS TEXT) AS id, CAST(t.?1 AS TEXT) AS parent_id, CAST(t.?2 AS TEXT) AS name
FROM ?3 AS t
ORDER BY t.?0`

// Descendants returns the flat rows of id and everything below it.
func (r *Repository) Descendants(ctx context.Context, db bun.IDB, id string) ([]Row, error) {
	return r.query(ctx, db, "find descendants", descendQuery, id)
}

// Ancestors returns the flat rows of id and every node above it.
func (r *Repository) Ancestors(ctx context.Context, db bun.IDB, id string) ([]Row, error) {
	return r.query(ctx, db, "find ancestors", ascendQuery, id)
}

// FindDescendants returns the subtree rooted at id.
func (r *Repository) FindDescendants(ctx context.Context, db bun.IDB, id string) (*Node, error) {
	rows, err := r.Descendants(ctx, db, id)
	if err != nil {
		return nil, err
	}
	root, ok := Subtree(rows, id)
	if !ok {
		return nil, errs.Wrap("find descendants", r.cfg.Table, fmt.Errorf("%w: %s", errs.ErrNotFound, id))
	}
	return root, nil
}

// FindAncestors returns the chain from the topmost ancestor down to id as a
// single branch tree.
func (r *Repository) FindAncestors(ctx context.Context, db bun.IDB, id string) (*Node, error) {
	rows, err := r.Ancestors(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errs.Wrap("find ancestors", r.cfg.Table, fmt.Errorf("%w: %s", errs.ErrNotFound, id))
	}
	roots := Build(rows)
	if len(roots) != 1 {
		// Every ancestor has a parent in the set, so the chain loops.
		return nil, errs.Wrap("find ancestors", r.cfg.Table, fmt.Errorf("%w: ancestors of %s", errs.ErrCyclicReference, id))
	}
	return roots[0], nil
}

// FindForest returns every tree in the table.
func (r *Repository) FindForest(ctx context.Context, db bun.IDB) ([]*Node, error) {
	rows := make([]Row, 0)
	err := db.NewRaw(forestQuery, r.idents()...).Scan(ctx, &rows)
	if err != nil {
		return nil, errs.Wrap("find forest", r.cfg.Table, err)
	}
	return Build(rows), nil
}

// EnsureNoCycle reports errs.ErrCyclicReference when moving id under
// newParentID would make id its own ancestor. An empty newParentID moves
// id to the top level and is always allowed.
func (r *Repository) EnsureNoCycle(ctx context.Context, db bun.IDB, id, newParentID string) error {
	if newParentID == "" {
		return nil
	}
	if newParentID == id {
		return errs.Wrap("ensure no cycle", r.cfg.Table, fmt.Errorf("%w: %s cannot be its own parent", errs.ErrCyclicReference, id))
	}

	rows, err := r.Descendants(ctx, db, id)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row.ID == newParentID {
			return errs.Wrap("ensure no cycle", r.cfg.Table,
				fmt.Errorf("%w: %s is a descendant of %s", errs.ErrCyclicReference, newParentID, id))
		}
	}
	return nil
}

func (r *Repository) query(ctx context.Context, db bun.IDB, op, query, id string) ([]Row, error) {
	rows := make([]Row, 0)
	args := append(r.idents(), id)
	if err := db.NewRaw(query, args...).Scan(ctx, &rows); err != nil {
		return nil, errs.Wrap(op, r.cfg.Table, err)
	}
	return rows, nil
}

func (r *Repository) idents() []any {
	return []any{
		bun.Ident(r.cfg.IDColumn),
		bun.Ident(r.cfg.ParentColumn),
		bun.Ident(r.cfg.NameColumn),
		bun.Ident(r.cfg.Table),
	}
}
