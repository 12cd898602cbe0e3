package audit

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-repository-audit/pkg/testsupport"
)

func TestNextChangeCount_SameTimestamp(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewSQLiteDB(t)
	if err := CreateTable(ctx, db); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	frozen := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	log := New()
	log.now = func() time.Time { return frozen }

	for i := 0; i < 3; i++ {
		rec, err := log.Append(ctx, db, Entry{Auditable: "device", AuditableID: "dev-1", Action: ActionUpdate})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if rec.ChangeCount != i {
			t.Fatalf("expected %d, got %d", i, rec.ChangeCount)
		}
	}
}
