package graph

import (
	"context"
	"strings"

	"github.com/uptrace/bun"
)

// PathBuilder renders the recursive path query for one SQL dialect and
// decodes its rows.
type PathBuilder interface {
	Name() string
	// Query returns the path query. A non-empty from restricts the final
	// selection to paths starting there; the recursion itself is unfiltered.
	Query(cfg Config, from string) (string, []any)
	Scan(ctx context.Context, db bun.IDB, query string, args []any) ([]Path, error)
}

func tableArgs(cfg Config) []any {
	return []any{bun.Ident(cfg.Table), bun.Ident(cfg.ColumnA), bun.Ident(cfg.ColumnB)}
}

func finalSelect(sb *strings.Builder, args []any, from string) []any {
	sb.WriteString("\nSELECT src AS a, dst AS b, path FROM paths")
	if from != "" {
		sb.WriteString(" WHERE src = ?3")
		args = append(args, from)
	}
	return args
}

// arrayPathBuilder keeps the path in a PostgreSQL text[] column.
type arrayPathBuilder struct{}

const arrayPathsCTE = `WITH RECURSIVE paths(src, dst, path) AS (
    SELECT CAST(e.?1 AS TEXT), CAST(e.?2 AS TEXT), ARRAY[CAST(e.?1 AS TEXT), CAST(e.?2 AS TEXT)]
    FROM ?0 AS e
    WHERE e.?1 <> e.?2
    UNION ALL
    SELECT p.src, CAST(e.?2 AS TEXT), p.path || CAST(e.?2 AS TEXT)
    FROM paths AS p
    JOIN ?0 AS e ON CAST(e.?1 AS TEXT) = p.dst
    WHERE NOT (CAST(e.?2 AS TEXT) = ANY(p.path))
)`

func (arrayPathBuilder) Name() string { return "array" }

func (arrayPathBuilder) Query(cfg Config, from string) (string, []any) {
	var sb strings.Builder
	sb.WriteString(arrayPathsCTE)
	args := finalSelect(&sb, tableArgs(cfg), from)
	return sb.String(), args
}

type arrayPathRow struct {
	A    string   `bun:"a"`
	B    string   `bun:"b"`
	Path []string `bun:"path,array"`
}

func (arrayPathBuilder) Scan(ctx context.Context, db bun.IDB, query string, args []any) ([]Path, error) {
	rows := make([]arrayPathRow, 0)
	if err := db.NewRaw(query, args...).Scan(ctx, &rows); err != nil {
		return nil, err
	}
	paths := make([]Path, 0, len(rows))
	for _, r := range rows {
		paths = append(paths, Path{A: r.A, B: r.B, Path: r.Path})
	}
	return paths, nil
}

// stringPathBuilder keeps the path as ",a,b,c," text. Membership is an
// instr lookup of the delimited id, so LIKE wildcards inside ids cannot
// produce false matches. Ids must not contain the delimiter.
type stringPathBuilder struct{}

const pathDelimiter = ","

const stringPathsCTE = `WITH RECURSIVE paths(src, dst, path) AS (
    SELECT CAST(e.?1 AS TEXT), CAST(e.?2 AS TEXT), ',' || CAST(e.?1 AS TEXT) || ',' || CAST(e.?2 AS TEXT) || ','
    FROM ?0 AS e
    WHERE e.?1 <> e.?2
    UNION ALL
    SELECT p.src, CAST(e.?2 AS TEXT), p.path || CAST(e.?2 AS TEXT) || ','
    FROM paths AS p
    JOIN ?0 AS e ON CAST(e.?1 AS TEXT) = p.dst
    WHERE instr(p.path, ',' || CAST(e.?2 AS TEXT) || ',') = 0
)`

func (stringPathBuilder) Name() string { return "string" }

func (stringPathBuilder) Query(cfg Config, from string) (string, []any) {
	var sb strings.Builder
	sb.WriteString(stringPathsCTE)
	args := finalSelect(&sb, tableArgs(cfg), from)
	return sb.String(), args
}

type stringPathRow struct {
	A    string `bun:"a"`
	B    string `bun:"b"`
	Path string `bun:"path"`
}

func (stringPathBuilder) Scan(ctx context.Context, db bun.IDB, query string, args []any) ([]Path, error) {
	rows := make([]stringPathRow, 0)
	if err := db.NewRaw(query, args...).Scan(ctx, &rows); err != nil {
		return nil, err
	}
	paths := make([]Path, 0, len(rows))
	for _, r := range rows {
		paths = append(paths, Path{A: r.A, B: r.B, Path: splitPath(r.Path)})
	}
	return paths, nil
}

func splitPath(path string) []string {
	path = strings.Trim(path, pathDelimiter)
	if path == "" {
		return []string{}
	}
	return strings.Split(path, pathDelimiter)
}
