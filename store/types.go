package store

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-repository-audit/errs"
	"github.com/goliatone/go-repository-audit/pagination"
)

// Page is one page of results plus its metadata, either
// pagination.OffsetMeta or pagination.CursorMeta.
type Page[T any, M any] struct {
	Result []T `json:"result"`
	Meta   M   `json:"meta"`
}

// Option is a dropdown entry.
type Option struct {
	ID   string `bun:"id" json:"id"`
	Name string `bun:"name" json:"name"`
}

// BatchResult reports how many rows a bulk statement touched.
type BatchResult struct {
	Count int64 `json:"count"`
}

// Changes maps column names to new values for Update and Upsert.
type Changes map[string]any

// Columns returns the changed columns in sorted order, rejecting any name
// that is not a plain identifier.
func (c Changes) Columns() ([]string, error) {
	columns := make([]string, 0, len(c))
	for column := range c {
		if !pagination.ValidIdentifier(column) {
			return nil, fmt.Errorf("%w: column %q", errs.ErrInvalidQuery, column)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns, nil
}
