package store

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Include eager loads the named bun relations.
func Include(relations ...string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		for _, relation := range relations {
			q = q.Relation(relation)
		}
		return q
	}
}

// Columns restricts the selected columns.
func Columns(columns ...string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Column(columns...)
	}
}

// Where filters on column = value.
func Where(column string, value any) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.? = ?", bun.Ident(column), value)
	}
}

// WhereIn filters on column IN (values). values must be a slice.
func WhereIn(column string, values any) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.? IN (?)", bun.Ident(column), bun.In(values))
	}
}

// DeleteWhere limits a delete to rows where column = value.
func DeleteWhere(column string, value any) repository.DeleteCriteria {
	return func(q *bun.DeleteQuery) *bun.DeleteQuery {
		return q.Where("? = ?", bun.Ident(column), value)
	}
}

func applySelect(q *bun.SelectQuery, criteria []repository.SelectCriteria) *bun.SelectQuery {
	for _, c := range criteria {
		if c != nil {
			q = c(q)
		}
	}
	return q
}

func applyDelete(q *bun.DeleteQuery, criteria []repository.DeleteCriteria) *bun.DeleteQuery {
	for _, c := range criteria {
		if c != nil {
			q = c(q)
		}
	}
	return q
}
