package audit

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-repository-audit/errs"
	"github.com/goliatone/go-repository-audit/request"
)

const entityName = "audit_log"

// Entry describes one audited mutation.
type Entry struct {
	Auditable   string
	AuditableID string
	Previous    any
	Incoming    any
	Action      Action

	// ChangeCount forces the counter. Nil derives it from the latest record
	// for (Auditable, AuditableID).
	ChangeCount *int
}

// Log writes and reads audit records through the caller's handle.
type Log struct {
	now   func() time.Time
	newID func() string
}

// New returns a Log stamping records with the current UTC time and UUID ids.
func New() *Log {
	return &Log{
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

// NextChangeCount returns the latest record's change count plus one, or 0 when
// the entity has no history yet.
func (l *Log) NextChangeCount(ctx context.Context, db bun.IDB, auditable, auditableID string) (int, error) {
	var latest Record
	err := db.NewSelect().
		Model(&latest).
		Column("change_count").
		Where("auditable = ?", auditable).
		Where("auditable_id = ?", auditableID).
		OrderExpr("created_at DESC").
		OrderExpr("change_count DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errs.Wrap("next change count", entityName, err)
	}
	return latest.ChangeCount + 1, nil
}

// Append writes one record. The acting user comes from the request context.
func (l *Log) Append(ctx context.Context, db bun.IDB, entry Entry) (Record, error) {
	if strings.TrimSpace(entry.Auditable) == "" || strings.TrimSpace(entry.AuditableID) == "" {
		return Record{}, errs.Wrap("append", entityName, errors.New("auditable and auditable id are required"))
	}

	previous, err := Snapshot(entry.Previous)
	if err != nil {
		return Record{}, errs.Wrap("append", entityName, err)
	}
	incoming, err := Snapshot(entry.Incoming)
	if err != nil {
		return Record{}, errs.Wrap("append", entityName, err)
	}

	var changeCount int
	if entry.ChangeCount != nil {
		changeCount = *entry.ChangeCount
	} else {
		changeCount, err = l.NextChangeCount(ctx, db, entry.Auditable, entry.AuditableID)
		if err != nil {
			return Record{}, err
		}
	}

	record := Record{
		ID:          l.newID(),
		Auditable:   entry.Auditable,
		AuditableID: entry.AuditableID,
		ChangeCount: changeCount,
		Previous:    previous,
		Incoming:    incoming,
		Action:      entry.Action,
		CreatedAt:   l.now(),
	}
	if user, ok := request.UserFromContext(ctx); ok {
		record.UserID = user.ID
		record.Username = user.Name
	}

	if _, err := db.NewInsert().Model(&record).Exec(ctx); err != nil {
		return Record{}, errs.Wrap("append", entityName, err)
	}
	return record, nil
}

// History returns every record of one entity, oldest first.
func (l *Log) History(ctx context.Context, db bun.IDB, auditable, auditableID string) ([]Record, error) {
	records := make([]Record, 0)
	err := db.NewSelect().
		Model(&records).
		Where("auditable = ?", auditable).
		Where("auditable_id = ?", auditableID).
		OrderExpr("change_count ASC").
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errs.Wrap("history", entityName, err)
	}
	return records, nil
}

// CreateTable creates the audit table and its lookup index when missing.
func CreateTable(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().Model((*Record)(nil)).IfNotExists().Exec(ctx); err != nil {
		return errs.Wrap("create table", entityName, err)
	}
	_, err := db.NewCreateIndex().
		Model((*Record)(nil)).
		Index("audit_logs_auditable_idx").
		Column("auditable", "auditable_id").
		IfNotExists().
		Exec(ctx)
	return errs.Wrap("create index", entityName, err)
}
