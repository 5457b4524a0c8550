package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ridwanfathin/vetclinic-billing-service/internal/domain"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLite has no DATE or NUMERIC affinity that round-trips exactly, so money is
// kept as fixed point text and timestamps as fixed width UTC text. Both sort
// lexicographically in the same order as their values.
const (
	sqliteDateLayout = "2006-01-02"
	sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"
)

// sqliteQuerier is satisfied by both *sql.DB and *sql.Tx
type sqliteQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func money(d decimal.Decimal) string {
	return d.StringFixed(domain.MoneyPlaces)
}

func percent(d decimal.Decimal) string {
	return d.String()
}

func sqliteDate(d domain.DateOnly) string {
	return d.Time.Format(sqliteDateLayout)
}

func sqliteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func sqliteNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return sqliteTime(*t)
}

func sqliteNullDate(d *domain.DateOnly) any {
	if d == nil {
		return nil
	}
	return sqliteDate(*d)
}

// textScanner collects parse errors from the text columns of one row so the
// caller checks a single error after converting every field.
type textScanner struct {
	err error
}

func (s *textScanner) dec(field, v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil && s.err == nil {
		s.err = fmt.Errorf("invalid decimal in %s: %w", field, err)
	}
	return d
}

func (s *textScanner) ts(field, v string) time.Time {
	t, err := time.Parse(sqliteTimeLayout, v)
	if err != nil && s.err == nil {
		s.err = fmt.Errorf("invalid timestamp in %s: %w", field, err)
	}
	return t
}

func (s *textScanner) nullTS(field string, v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	t := s.ts(field, v.String)
	return &t
}

func (s *textScanner) date(field, v string) domain.DateOnly {
	d, err := domain.ParseDateOnly(v)
	if err != nil && s.err == nil {
		s.err = fmt.Errorf("invalid date in %s: %w", field, err)
	}
	return d
}

func (s *textScanner) nullDate(field string, v sql.NullString) *domain.DateOnly {
	if !v.Valid {
		return nil
	}
	d := s.date(field, v.String)
	return &d
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

// sqliteConstraint reports whether err is a constraint failure whose message
// names kind, e.g. "UNIQUE" or "FOREIGN KEY".
func sqliteConstraint(err error, kind string) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	return sqlErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqlErr.Error(), kind)
}
