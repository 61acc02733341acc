package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"budget/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	timeLayout = time.RFC3339Nano
	dateLayout = "2006-01-02"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db, now: time.Now}
}

type Queries struct {
	db  DBTX
	now func() time.Time
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, now: q.now}
}

func (q *Queries) timestamp() string {
	return q.now().UTC().Format(timeLayout)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// isUniqueViolation reports whether err comes from a UNIQUE or PRIMARY KEY
// constraint.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isTemplateLinkViolation reports a second category of one month linking
// the same template.
func isTemplateLinkViolation(err error) bool {
	return isUniqueViolation(err) && strings.Contains(err.Error(), "month_categories.template_id")
}

func notFound(err error, entity string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &core.NotFoundError{Entity: entity, ID: id}
	}
	return fmt.Errorf("get %s %d: %w", entity, id, err)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDate(s string) core.Date {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}
	}
	return core.Date{Time: t}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
