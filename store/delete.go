package store

import (
	"context"
	"errors"
	"fmt"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-repository-audit/audit"
	"github.com/goliatone/go-repository-audit/errs"
)

var errNoRowsDeleted = errors.New("no rows matched")

// Delete removes the row with the given id and returns its last state. The
// row must exist (errs.ErrNotFound otherwise); criteria further restrict the
// delete statement. With audited set a DELETE record is appended. The cache
// entry is invalidated, also when the delete matched no row.
func (s *Store[T]) Delete(ctx context.Context, audited bool, db bun.IDB, id string, criteria ...repository.DeleteCriteria) (T, error) {
	var zero T

	before, err := s.GetByID(ctx, db, id)
	if err != nil {
		return zero, err
	}

	q := db.NewDelete().
		Model((*T)(nil)).
		Where("? = ?", bun.Ident(s.idColumn), id)
	res, err := applyDelete(q, criteria).Exec(ctx)
	if err != nil {
		return zero, errs.Wrap("delete", s.entity, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return zero, errs.Wrap("delete", s.entity, err)
	}
	if affected == 0 {
		s.invalidate(ctx, id)
		return zero, errs.Wrap("delete", s.entity, fmt.Errorf("%w: %v", errs.ErrNotFound, errNoRowsDeleted))
	}

	if audited {
		err := s.appendAudit(ctx, db, audit.Entry{
			AuditableID: id,
			Previous:    before,
			Action:      audit.ActionDelete,
		})
		if err != nil {
			return zero, err
		}
	}

	s.invalidate(ctx, id)
	return before, nil
}

// DeleteBatch removes every row whose id is in ids and matches criteria.
// Batch deletes are not audited. The cache entry of every id is invalidated,
// whether or not this store wrote it.
func (s *Store[T]) DeleteBatch(ctx context.Context, db bun.IDB, ids []string, criteria ...repository.DeleteCriteria) (BatchResult, error) {
	if len(ids) == 0 {
		return BatchResult{}, nil
	}

	q := db.NewDelete().
		Model((*T)(nil)).
		Where("? IN (?)", bun.Ident(s.idColumn), bun.In(ids))
	res, err := applyDelete(q, criteria).Exec(ctx)
	if err != nil {
		return BatchResult{}, errs.Wrap("delete batch", s.entity, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return BatchResult{}, errs.Wrap("delete batch", s.entity, err)
	}

	for _, id := range ids {
		s.invalidate(ctx, id)
	}
	return BatchResult{Count: count}, nil
}
