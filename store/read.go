package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-repository-audit/errs"
	"github.com/goliatone/go-repository-audit/pagination"
	"github.com/goliatone/go-repository-audit/request"
)

// GetByID returns the entity with the given id, serving it from the cache
// when present. On a miss the row is read with criteria applied and cached.
func (s *Store[T]) GetByID(ctx context.Context, db bun.IDB, id string, criteria ...repository.SelectCriteria) (T, error) {
	if row, ok := s.cacheGet(ctx, s.CacheKey(id)); ok {
		return row, nil
	}

	row, err := s.selectByID(ctx, db, id, criteria)
	if err != nil {
		return row, err
	}
	s.cacheSet(ctx, row)
	return row, nil
}

// Get returns the first row matching criteria. It bypasses the cache.
func (s *Store[T]) Get(ctx context.Context, db bun.IDB, criteria ...repository.SelectCriteria) (T, error) {
	var row T
	q := applySelect(db.NewSelect().Model(&row), criteria)
	if err := q.Limit(1).Scan(ctx); err != nil {
		var zero T
		return zero, errs.Wrap("get", s.entity, err)
	}
	return row, nil
}

// GetMany returns every row matching criteria. It bypasses the cache.
func (s *Store[T]) GetMany(ctx context.Context, db bun.IDB, criteria ...repository.SelectCriteria) ([]T, error) {
	rows := make([]T, 0)
	q := applySelect(db.NewSelect().Model(&rows), criteria)
	if err := q.Scan(ctx); err != nil {
		return nil, errs.Wrap("get many", s.entity, err)
	}
	return rows, nil
}

// ListDropdown returns id/name pairs ordered by name. The request query's
// search value filters names case-insensitively and limit bounds the result
// when present.
func (s *Store[T]) ListDropdown(ctx context.Context, db bun.IDB) ([]Option, error) {
	query := request.QueryFromContext(ctx)
	filters, err := pagination.Parse(query)
	if err != nil {
		return nil, errs.Wrap("list dropdown", s.entity, err)
	}

	q := db.NewSelect().
		Model((*T)(nil)).
		ColumnExpr("?TableAlias.? AS id", bun.Ident(s.idColumn)).
		ColumnExpr("?TableAlias.? AS name", bun.Ident(s.nameColumn))

	if filters.Search != "" {
		q = q.Where("LOWER(?TableAlias.?) LIKE ?", bun.Ident(s.nameColumn), "%"+strings.ToLower(filters.Search)+"%")
	}
	q = q.OrderExpr("?TableAlias.? ASC", bun.Ident(s.nameColumn))
	if query.Has("limit") {
		q = q.Limit(filters.Pagination.Limit)
	}

	options := make([]Option, 0)
	if err := q.Scan(ctx, &options); err != nil {
		return nil, errs.Wrap("list dropdown", s.entity, err)
	}
	return options, nil
}

// ListPagination returns one offset page using the page, limit, sortBy,
// sortMode and filter[...] values of the request query.
func (s *Store[T]) ListPagination(ctx context.Context, db bun.IDB, criteria ...repository.SelectCriteria) (Page[T, pagination.OffsetMeta], error) {
	return s.ListPaginationWithInclude(ctx, db, nil, criteria...)
}

// ListPaginationWithInclude is ListPagination with eager loaded relations.
func (s *Store[T]) ListPaginationWithInclude(ctx context.Context, db bun.IDB, include []string, criteria ...repository.SelectCriteria) (Page[T, pagination.OffsetMeta], error) {
	var page Page[T, pagination.OffsetMeta]

	filters, err := pagination.Parse(request.QueryFromContext(ctx))
	if err != nil {
		return page, errs.Wrap("list pagination", s.entity, err)
	}

	total, err := s.filtered(db.NewSelect().Model((*T)(nil)), filters, criteria).Count(ctx)
	if err != nil {
		return page, errs.Wrap("list pagination", s.entity, err)
	}

	rows := make([]T, 0, filters.Pagination.Limit)
	q := s.filtered(db.NewSelect().Model(&rows), filters, criteria)
	q = Include(include...)(q)
	q = s.order(q, filters.Sort)
	if err := q.Limit(filters.Pagination.Limit).Offset(filters.Pagination.Offset()).Scan(ctx); err != nil {
		return page, errs.Wrap("list pagination", s.entity, err)
	}

	page.Result = rows
	page.Meta = pagination.NewOffsetMeta(total, filters.Pagination)
	return page, nil
}

// ListCursor returns up to limit rows after the request's cursor in id
// order. sortMode=desc walks backwards. Cursor pages are always ordered by
// id; a sortBy naming any other column is rejected with errs.ErrInvalidQuery.
// A cursor that matches no row is reported as errs.ErrNotFound.
func (s *Store[T]) ListCursor(ctx context.Context, db bun.IDB, include []string, criteria ...repository.SelectCriteria) (Page[T, pagination.CursorMeta], error) {
	var page Page[T, pagination.CursorMeta]

	filters, err := pagination.Parse(request.QueryFromContext(ctx))
	if err != nil {
		return page, errs.Wrap("list cursor", s.entity, err)
	}
	if by := filters.Sort.By; by != "" && by != s.idColumn {
		return page, errs.Wrap("list cursor", s.entity, fmt.Errorf("%w: cursor pages are ordered by %s, not %q", errs.ErrInvalidQuery, s.idColumn, by))
	}
	cursor := filters.Pagination.Cursor

	if cursor != "" {
		exists, err := db.NewSelect().
			Model((*T)(nil)).
			Where("?TableAlias.? = ?", bun.Ident(s.idColumn), cursor).
			Exists(ctx)
		if err != nil {
			return page, errs.Wrap("list cursor", s.entity, err)
		}
		if !exists {
			return page, errs.Wrap("list cursor", s.entity, fmt.Errorf("%w: cursor %q", errs.ErrNotFound, cursor))
		}
	}

	total, err := s.filtered(db.NewSelect().Model((*T)(nil)), filters, criteria).Count(ctx)
	if err != nil {
		return page, errs.Wrap("list cursor", s.entity, err)
	}

	rows := make([]T, 0, filters.Pagination.Limit)
	q := s.filtered(db.NewSelect().Model(&rows), filters, criteria)
	q = Include(include...)(q)

	desc := filters.Sort.Desc()
	if cursor != "" {
		op := ">"
		if desc {
			op = "<"
		}
		q = q.Where("?TableAlias.? "+op+" ?", bun.Ident(s.idColumn), cursor)
	}
	q = s.order(q, pagination.Sort{By: s.idColumn, Mode: filters.Sort.Mode})

	if err := q.Limit(filters.Pagination.Limit).Scan(ctx); err != nil {
		return page, errs.Wrap("list cursor", s.entity, err)
	}

	page.Result = rows
	page.Meta = pagination.NewCursorMeta(rows, s.idOf, total)
	return page, nil
}

func (s *Store[T]) selectByID(ctx context.Context, db bun.IDB, id string, criteria []repository.SelectCriteria) (T, error) {
	var row T
	q := db.NewSelect().Model(&row).Where("?TableAlias.? = ?", bun.Ident(s.idColumn), id)
	if err := applySelect(q, criteria).Limit(1).Scan(ctx); err != nil {
		var zero T
		return zero, errs.Wrap("get by id", s.entity, err)
	}
	return row, nil
}

func (s *Store[T]) selectByName(ctx context.Context, db bun.IDB, name string, criteria []repository.SelectCriteria) (T, error) {
	var row T
	q := db.NewSelect().Model(&row).Where("?TableAlias.? = ?", bun.Ident(s.nameColumn), name)
	if err := applySelect(q, criteria).Limit(1).Scan(ctx); err != nil {
		var zero T
		return zero, errs.Wrap("get by name", s.entity, err)
	}
	return row, nil
}

// filtered applies caller criteria and the request's filter[...] values.
func (s *Store[T]) filtered(q *bun.SelectQuery, filters pagination.Filters, criteria []repository.SelectCriteria) *bun.SelectQuery {
	q = applySelect(q, criteria)
	for _, column := range filters.FieldNames() {
		q = q.Where("?TableAlias.? = ?", bun.Ident(column), filters.Field[column])
	}
	return q
}

// order sorts by the requested column, with the id as tie breaker so pages
// never overlap.
func (s *Store[T]) order(q *bun.SelectQuery, sort pagination.Sort) *bun.SelectQuery {
	by := sort.By
	if by == "" {
		by = s.idColumn
	}
	dir := "ASC"
	if sort.Desc() {
		dir = "DESC"
	}
	q = q.OrderExpr("?TableAlias.? "+dir, bun.Ident(by))
	if by != s.idColumn {
		q = q.OrderExpr("?TableAlias.? "+dir, bun.Ident(s.idColumn))
	}
	return q
}

func isNotFound(err error) bool {
	return errors.Is(err, errs.ErrNotFound)
}
