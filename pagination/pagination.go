// Package pagination turns raw query parameters into typed pagination, sort and
// filter values and computes list metadata. It performs no I/O.
//
// Recognised query keys:
//
//	page, limit            offset pagination (offset = (page-1)*limit)
//	cursor, limit          cursor pagination (cursor = last seen id)
//	sortBy, sortMode       column and direction (asc|desc)
//	search                 dropdown name search
//	filter[<column>]       equality filter on column
package pagination

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-repository-audit/errs"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// SortMode is the ordering direction.
type SortMode string

const (
	Asc  SortMode = "asc"
	Desc SortMode = "desc"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name can be used as a column name.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// Pagination holds offset and cursor parameters. Only one style is used per call.
type Pagination struct {
	Page   int
	Limit  int
	Cursor string
}

// Offset returns the number of rows to skip for offset pagination.
func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Sort is the requested ordering. An empty By means the caller's default.
type Sort struct {
	By   string
	Mode SortMode
}

// Desc reports whether the sort runs descending.
func (s Sort) Desc() bool { return s.Mode == Desc }

// Filters is the parsed form of the request query.
type Filters struct {
	Pagination Pagination
	Sort       Sort
	Field      map[string]string
	Search     string
}

// FieldNames returns the filtered columns in sorted order.
func (f Filters) FieldNames() []string {
	names := make([]string, 0, len(f.Field))
	for name := range f.Field {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse reads pagination, sort, field filters and search from values.
func Parse(values url.Values) (Filters, error) {
	filters := Filters{
		Pagination: Pagination{Page: DefaultPage, Limit: DefaultLimit},
		Sort:       Sort{Mode: Asc},
		Field:      map[string]string{},
	}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return Filters{}, fmt.Errorf("%w: page %q", errs.ErrInvalidQuery, raw)
		}
		if page > 0 {
			filters.Pagination.Page = page
		}
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return Filters{}, fmt.Errorf("%w: limit %q", errs.ErrInvalidQuery, raw)
		}
		filters.Pagination.Limit = clampLimit(limit)
	}

	filters.Pagination.Cursor = strings.TrimSpace(values.Get("cursor"))
	filters.Search = strings.TrimSpace(values.Get("search"))

	if by := strings.TrimSpace(values.Get("sortBy")); by != "" {
		if !ValidIdentifier(by) {
			return Filters{}, fmt.Errorf("%w: sortBy %q", errs.ErrInvalidQuery, by)
		}
		filters.Sort.By = by
	}

	switch mode := SortMode(strings.ToLower(strings.TrimSpace(values.Get("sortMode")))); mode {
	case "", Asc:
		filters.Sort.Mode = Asc
	case Desc:
		filters.Sort.Mode = Desc
	default:
		return Filters{}, fmt.Errorf("%w: sortMode %q", errs.ErrInvalidQuery, mode)
	}

	for key, vals := range values {
		column, ok := fieldKey(key)
		if !ok {
			continue
		}
		if !ValidIdentifier(column) {
			return Filters{}, fmt.Errorf("%w: filter column %q", errs.ErrInvalidQuery, column)
		}
		if len(vals) > 0 {
			filters.Field[column] = vals[0]
		}
	}

	return filters, nil
}

func fieldKey(key string) (string, bool) {
	if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") {
		return "", false
	}
	return key[len("filter[") : len(key)-1], true
}

func clampLimit(limit int) int {
	switch {
	case limit < 1:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// OffsetMeta describes one page of an offset paginated list.
type OffsetMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewOffsetMeta computes offset metadata for total matching rows.
func NewOffsetMeta(total int, p Pagination) OffsetMeta {
	return OffsetMeta{
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: TotalPages(total, p.Limit),
	}
}

// TotalPages is ceil(total/limit), zero when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// CursorMeta describes one page of a cursor paginated list.
type CursorMeta struct {
	LastCursor string `json:"lastCursor"`
	Total      int    `json:"total"`
}

// NewCursorMeta takes the last cursor from the final item, or "" for an empty page.
func NewCursorMeta[T any](items []T, idOf func(T) string, total int) CursorMeta {
	return CursorMeta{LastCursor: LastCursor(items, idOf), Total: total}
}

// LastCursor returns the id of the last item or "".
func LastCursor[T any](items []T, idOf func(T) string) string {
	if len(items) == 0 {
		return ""
	}
	return idOf(items[len(items)-1])
}
