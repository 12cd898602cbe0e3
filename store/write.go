package store

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-repository-audit/audit"
	"github.com/goliatone/go-repository-audit/errs"
)

// Create inserts body, assigning a UUID when its id is empty, and returns
// the stored row read back with criteria applied. When audited is set a
// CREATE record is appended. The row is written through to the cache.
func (s *Store[T]) Create(ctx context.Context, audited bool, db bun.IDB, body T, criteria ...repository.SelectCriteria) (T, error) {
	var zero T
	s.ensureID(&body)

	if _, err := db.NewInsert().Model(&body).Exec(ctx); err != nil {
		return zero, errs.Wrap("create", s.entity, err)
	}

	created, err := s.selectByID(ctx, db, s.idOf(body), criteria)
	if err != nil {
		return zero, err
	}

	if audited {
		err := s.appendAudit(ctx, db, audit.Entry{
			AuditableID: s.idOf(created),
			Incoming:    created,
			Action:      audit.ActionCreate,
		})
		if err != nil {
			return zero, err
		}
	}

	s.cacheSet(ctx, created)
	return created, nil
}

// CreateMany bulk inserts bodies. Bulk inserts are neither audited nor cached.
func (s *Store[T]) CreateMany(ctx context.Context, db bun.IDB, bodies []T) (BatchResult, error) {
	if len(bodies) == 0 {
		return BatchResult{}, nil
	}
	for i := range bodies {
		s.ensureID(&bodies[i])
	}

	res, err := db.NewInsert().Model(&bodies).Exec(ctx)
	if err != nil {
		return BatchResult{}, errs.Wrap("create many", s.entity, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return BatchResult{}, errs.Wrap("create many", s.entity, err)
	}
	return BatchResult{Count: count}, nil
}

// Upsert inserts createBody or, when a row with the same name exists, applies
// updateBody to it. The result is read back by name. With audited set, an
// UPDATE record is appended when a row existed before and a CREATE record
// otherwise. A cached copy of the previous row is dropped.
func (s *Store[T]) Upsert(ctx context.Context, audited bool, db bun.IDB, name string, createBody T, updateBody Changes, criteria ...repository.SelectCriteria) (T, error) {
	var zero T

	columns, err := updateBody.Columns()
	if err != nil {
		return zero, errs.Wrap("upsert", s.entity, err)
	}

	prior, err := s.selectByName(ctx, db, name, criteria)
	existed := err == nil
	if err != nil && !isNotFound(err) {
		return zero, err
	}

	s.ensureID(&createBody)
	s.ensureName(&createBody, name)

	q := db.NewInsert().
		Model(&createBody).
		On("CONFLICT (?) DO UPDATE", bun.Ident(s.nameColumn))
	if len(columns) == 0 {
		q = q.Set("? = EXCLUDED.?", bun.Ident(s.nameColumn), bun.Ident(s.nameColumn))
	}
	for _, column := range columns {
		q = q.Set("? = ?", bun.Ident(column), updateBody[column])
	}
	if _, err := q.Exec(ctx); err != nil {
		return zero, errs.Wrap("upsert", s.entity, err)
	}

	after, err := s.selectByName(ctx, db, name, criteria)
	if err != nil {
		return zero, err
	}

	if audited {
		entry := audit.Entry{
			AuditableID: s.idOf(after),
			Incoming:    after,
			Action:      audit.ActionCreate,
		}
		if existed {
			entry.Previous = prior
			entry.Action = audit.ActionUpdate
		}
		if err := s.appendAudit(ctx, db, entry); err != nil {
			return zero, err
		}
	}

	if existed {
		s.invalidate(ctx, s.idOf(prior))
	}
	return after, nil
}

// Update applies changes to the row with the given id and returns it read
// back with criteria applied. The previous row comes from GetByID, so a
// missing id yields errs.ErrNotFound. The result is written through to the cache.
func (s *Store[T]) Update(ctx context.Context, audited bool, db bun.IDB, id string, changes Changes, criteria ...repository.SelectCriteria) (T, error) {
	var zero T

	columns, err := changes.Columns()
	if err != nil {
		return zero, errs.Wrap("update", s.entity, err)
	}

	before, err := s.GetByID(ctx, db, id)
	if err != nil {
		return zero, err
	}

	if len(columns) > 0 {
		q := db.NewUpdate().
			Model((*T)(nil)).
			Where("? = ?", bun.Ident(s.idColumn), id)
		for _, column := range columns {
			q = q.Set("? = ?", bun.Ident(column), changes[column])
		}
		if _, err := q.Exec(ctx); err != nil {
			return zero, errs.Wrap("update", s.entity, err)
		}
	}

	after, err := s.selectByID(ctx, db, id, criteria)
	if err != nil {
		if isNotFound(err) {
			// Changing the id column moves the row away from the cached key.
			s.invalidate(ctx, id)
		}
		return zero, err
	}

	if audited {
		err := s.appendAudit(ctx, db, audit.Entry{
			AuditableID: id,
			Previous:    before,
			Incoming:    after,
			Action:      audit.ActionUpdate,
		})
		if err != nil {
			return zero, err
		}
	}

	s.cacheSet(ctx, after)
	return after, nil
}
