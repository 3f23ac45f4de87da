package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"clubhouse/internal/adapters/http/perf"
)

// SQLDB is the part of *sql.DB the SQLite file backend uses.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ SQLDB = (*sql.DB)(nil)
	_ SQLDB = (*TimedDB)(nil)
)

// DefaultSlowQuery is used when NewTimedDB is given no threshold.
const DefaultSlowQuery = 50 * time.Millisecond

// TimedDB reports every statement to the perf collector under its verb and
// table, e.g. "UPDATE files", and logs the slow ones.
type TimedDB struct {
	db        *sql.DB
	collector *perf.Collector
	slow      time.Duration
}

// NewTimedDB wraps db. collector may be nil.
func NewTimedDB(db *sql.DB, collector *perf.Collector, slow time.Duration) *TimedDB {
	if slow <= 0 {
		slow = DefaultSlowQuery
	}
	return &TimedDB{db: db, collector: collector, slow: slow}
}

func (t *TimedDB) observe(query string, start time.Time, err error) {
	failed := err != nil && !errors.Is(err, sql.ErrNoRows)
	name := statementName(query)
	d := t.collector.Observe(perf.KindQuery, name, start, 0, failed)
	switch {
	case failed:
		slog.Debug("query_failed", "statement", name, "duration_ms", float64(d.Microseconds())/1000, "error", err)
	case d >= t.slow:
		slog.Warn("slow_query", "statement", name, "duration_ms", float64(d.Microseconds())/1000)
	}
}

func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := t.db.ExecContext(ctx, query, args...)
	t.observe(query, start, err)
	return res, err
}

func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.observe(query, start, err)
	return rows, err
}

func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.observe(query, start, row.Err())
	return row
}

// statementName reduces a statement to its verb and first table.
func statementName(query string) string {
	words := strings.Fields(query)
	if len(words) == 0 {
		return "EMPTY"
	}
	verb := strings.ToUpper(words[0])
	for i := 0; i < len(words)-1; i++ {
		switch strings.ToUpper(words[i]) {
		case "FROM", "INTO", "UPDATE", "TABLE", "ON":
		default:
			continue
		}
		j := i + 1
		for j < len(words)-1 && isQualifier(words[j]) {
			j++
		}
		table, _, _ := strings.Cut(words[j], "(")
		return verb + " " + strings.Trim(table, "\"`;")
	}
	return verb
}

func isQualifier(w string) bool {
	switch strings.ToUpper(w) {
	case "IF", "NOT", "EXISTS", "ONLY":
		return true
	}
	return false
}
