package graph

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/goliatone/go-repository-audit/errs"
	"github.com/goliatone/go-repository-audit/pkg/testsupport"
)

func newLinks(t *testing.T, edges ...Edge) (*bun.DB, *Repository) {
	t.Helper()

	db := testsupport.NewSQLiteDB(t)
	testsupport.Exec(t, db, `CREATE TABLE links ("A" TEXT NOT NULL, "B" TEXT NOT NULL)`)
	for _, e := range edges {
		if _, err := db.NewRaw(`INSERT INTO links ("A", "B") VALUES (?, ?)`, e.A, e.B).Exec(context.Background()); err != nil {
			t.Fatalf("insert edge: %v", err)
		}
	}

	repo, err := New(db, Config{Table: "links"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return db, repo
}

func pathStrings(paths []Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = strings.Join(p.Path, ">")
	}
	return out
}

func TestNew_SelectsBuilderFromDialect(t *testing.T) {
	db, repo := newLinks(t)
	_ = db
	if repo.Builder().Name() != "string" {
		t.Errorf("sqlite should use the string builder, got %s", repo.Builder().Name())
	}

	sqldb, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	pg := bun.NewDB(sqldb, pgdialect.New())
	defer pg.Close()

	pgRepo, err := New(pg, Config{Table: "links"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if pgRepo.Builder().Name() != "array" {
		t.Errorf("postgres should use the array builder, got %s", pgRepo.Builder().Name())
	}

	if _, err := BuilderFor(dialect.MySQL); err == nil {
		t.Error("expected unsupported dialect error")
	}
}

func TestNew_ValidatesConfig(t *testing.T) {
	db := testsupport.NewSQLiteDB(t)

	for _, cfg := range []Config{
		{},
		{Table: "links; --"},
		{Table: "links", ColumnA: "a b"},
	} {
		if _, err := New(db, cfg); err == nil {
			t.Errorf("expected validation error for %+v", cfg)
		}
	}
}

func TestFindEdges(t *testing.T) {
	db, repo := newLinks(t, Edge{"b", "c"}, Edge{"a", "b"}, Edge{"a", "c"})

	edges, err := repo.FindEdges(context.Background(), db)
	if err != nil {
		t.Fatalf("FindEdges: %v", err)
	}
	want := []Edge{{"a", "b"}, {"a", "c"}, {"b", "c"}}
	if !reflect.DeepEqual(edges, want) {
		t.Errorf("edges = %v, want %v", edges, want)
	}
}

func TestFindPath_CycleSafe(t *testing.T) {
	db, repo := newLinks(t, Edge{"A", "B"}, Edge{"B", "C"}, Edge{"C", "A"}, Edge{"D", "D"})

	paths, err := repo.FindPath(context.Background(), db)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}

	want := []string{"A>B", "A>B>C", "B>C", "B>C>A", "C>A", "C>A>B"}
	if got := pathStrings(paths); !reflect.DeepEqual(got, want) {
		t.Fatalf("paths = %v, want %v", got, want)
	}

	for _, p := range paths {
		seen := map[string]bool{}
		for _, node := range p.Path {
			if seen[node] {
				t.Errorf("path %v repeats %s", p.Path, node)
			}
			seen[node] = true
		}
		if p.A != p.Path[0] || p.B != p.Path[len(p.Path)-1] {
			t.Errorf("endpoints %s,%s do not match path %v", p.A, p.B, p.Path)
		}
	}
}

func TestFindPathByFromID(t *testing.T) {
	db, repo := newLinks(t, Edge{"A", "B"}, Edge{"B", "C"}, Edge{"C", "A"}, Edge{"B", "D"})

	paths, err := repo.FindPathByFromID(context.Background(), db, "B")
	if err != nil {
		t.Fatalf("FindPathByFromID: %v", err)
	}
	want := []string{"B>C", "B>D", "B>C>A"}
	if got := pathStrings(paths); !reflect.DeepEqual(got, want) {
		t.Errorf("paths = %v, want %v", got, want)
	}

	none, err := repo.FindPathByFromID(context.Background(), db, "Z")
	if err != nil || len(none) != 0 {
		t.Errorf("expected no paths from Z, got %v, %v", none, err)
	}
}

func TestFindPath_WildcardCharactersInIDs(t *testing.T) {
	db, repo := newLinks(t, Edge{"aX1", "b"}, Edge{"b", "a_1"})

	paths, err := repo.FindPathByFromID(context.Background(), db, "aX1")
	if err != nil {
		t.Fatalf("FindPathByFromID: %v", err)
	}
	want := []string{"aX1>b", "aX1>b>a_1"}
	if got := pathStrings(paths); !reflect.DeepEqual(got, want) {
		t.Errorf("paths = %v, want %v", got, want)
	}
}

func TestEnsureAcyclic(t *testing.T) {
	db, repo := newLinks(t, Edge{"A", "B"}, Edge{"B", "C"})
	ctx := context.Background()

	tests := []struct {
		from, to string
		cyclic   bool
	}{
		{from: "C", to: "A", cyclic: true},
		{from: "B", to: "A", cyclic: true},
		{from: "A", to: "A", cyclic: true},
		{from: "A", to: "C"},
		{from: "C", to: "D"},
	}
	for _, tt := range tests {
		err := repo.EnsureAcyclic(ctx, db, tt.from, tt.to)
		if tt.cyclic && !errors.Is(err, errs.ErrCyclicReference) {
			t.Errorf("%s->%s: expected ErrCyclicReference, got %v", tt.from, tt.to, err)
		}
		if !tt.cyclic && err != nil {
			t.Errorf("%s->%s: unexpected error %v", tt.from, tt.to, err)
		}
	}
}

func TestFindPath_StoreError(t *testing.T) {
	db := testsupport.NewSQLiteDB(t)
	repo, err := New(db, Config{Table: "missing"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := repo.FindPath(context.Background(), db); !errors.Is(err, errs.ErrInternal) {
		t.Errorf("expected ErrInternal, got %v", err)
	}
}

func TestArrayBuilder_PostgresQueries(t *testing.T) {
	sqldb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	repo, err := New(db, Config{Table: "device_links"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	mock.ExpectQuery(`SELECT CAST\(e\."A" AS TEXT\) AS a, CAST\(e\."B" AS TEXT\) AS b FROM "device_links" AS e`).
		WillReturnRows(sqlmock.NewRows([]string{"a", "b"}).AddRow("x", "y"))
	mock.ExpectQuery(`(?s)ARRAY\[CAST\(e\."A" AS TEXT\), CAST\(e\."B" AS TEXT\)\].*NOT \(CAST\(e\."B" AS TEXT\) = ANY\(p\.path\)\)`).
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "path"}).
			AddRow("x", "y", "{x,y}").
			AddRow("a", "c", "{a,b,c}").
			AddRow("a", "b", "{a,b}"))
	mock.ExpectQuery(`SELECT src AS a, dst AS b, path FROM paths WHERE src = 'x'`).
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "path"}))

	ctx := context.Background()
	edges, err := repo.FindEdges(ctx, db)
	if err != nil {
		t.Fatalf("FindEdges: %v", err)
	}
	if !reflect.DeepEqual(edges, []Edge{{"x", "y"}}) {
		t.Errorf("edges = %v", edges)
	}
	paths, err := repo.FindPath(ctx, db)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	wantPaths := []Path{
		{A: "a", B: "b", Path: []string{"a", "b"}},
		{A: "a", B: "c", Path: []string{"a", "b", "c"}},
		{A: "x", B: "y", Path: []string{"x", "y"}},
	}
	if !reflect.DeepEqual(paths, wantPaths) {
		t.Errorf("FindPath = %v, want %v", paths, wantPaths)
	}
	if paths, err := repo.FindPathByFromID(ctx, db, "x"); err != nil || len(paths) != 0 {
		t.Errorf("FindPathByFromID = %v, %v", paths, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestBuilders_FromFilterOnFinalSelectOnly(t *testing.T) {
	cfg := Config{Table: "links"}.withDefaults()

	for _, b := range []PathBuilder{arrayPathBuilder{}, stringPathBuilder{}} {
		all, allArgs := b.Query(cfg, "")
		from, fromArgs := b.Query(cfg, "x")

		if len(allArgs) != 3 || len(fromArgs) != 4 {
			t.Errorf("%s: unexpected args %d/%d", b.Name(), len(allArgs), len(fromArgs))
		}
		if !strings.HasPrefix(from, all) {
			t.Errorf("%s: the filter must only extend the final selection", b.Name())
		}
		if !strings.HasSuffix(from, "WHERE src = ?3") {
			t.Errorf("%s: unexpected filter in %q", b.Name(), from)
		}
	}
}

func TestSplitPath(t *testing.T) {
	tests := map[string][]string{
		",a,b,c,": {"a", "b", "c"},
		",a,":     {"a"},
		"":        {},
	}
	for in, want := range tests {
		if got := splitPath(in); !reflect.DeepEqual(got, want) {
			t.Errorf("splitPath(%q) = %v, want %v", in, got, want)
		}
	}
}
