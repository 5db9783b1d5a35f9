package postgres

import (
	"context"
	"database/sql"
	"reflect"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/practicedesk/billing/internal/logger"
)

// statementTrace times one statement and logs what it touched. Bound values
// are never logged, they carry client names and amounts.
type statementTrace struct {
	logger *logger.Logger
	kind   string
	table  string
	txID   string
	start  time.Time
}

func traceStatement(logger *logger.Logger, query, txID string) *statementTrace {
	kind, table := describeStatement(query)
	return &statementTrace{
		logger: logger,
		kind:   kind,
		table:  table,
		txID:   txID,
		start:  time.Now(),
	}
}

// done logs the outcome; extra holds statement specific key value pairs
func (t *statementTrace) done(err error, extra ...interface{}) {
	fields := []interface{}{
		"statement", t.kind,
		"duration_ms", time.Since(t.start).Milliseconds(),
	}
	if t.table != "" {
		fields = append(fields, "table", t.table)
	}
	if t.txID != "" {
		fields = append(fields, "tx_id", t.txID)
	}
	if err != nil {
		fields = append(fields, "error", err.Error())
		t.logger.Errorw("database statement failed", fields...)
		return
	}
	fields = append(fields, extra...)
	t.logger.Debugw("database statement completed", fields...)
}

// describeStatement returns the leading keyword of query and the table it
// reads or writes when that is obvious from the text
func describeStatement(query string) (kind, table string) {
	words := strings.Fields(query)
	if len(words) == 0 {
		return "", ""
	}
	kind = strings.ToUpper(words[0])

	var marker string
	switch kind {
	case "SELECT", "DELETE":
		marker = "FROM"
	case "INSERT":
		marker = "INTO"
	case "UPDATE":
		if len(words) > 1 {
			return kind, tableName(words[1])
		}
		return kind, ""
	default:
		return kind, ""
	}

	for i := 0; i < len(words)-1; i++ {
		if strings.EqualFold(words[i], marker) {
			return kind, tableName(words[i+1])
		}
	}
	return kind, ""
}

func tableName(word string) string {
	name, _, _ := strings.Cut(word, "(")
	return strings.TrimRight(name, ";")
}

// rowsAffected reads the count of a result, -1 when the driver has none
func rowsAffected(res sql.Result) int64 {
	if res == nil {
		return -1
	}
	n, err := res.RowsAffected()
	if err != nil {
		return -1
	}
	return n
}

// lenOf returns the length of a slice, or of the slice a pointer points to.
// Anything else counts as one row.
func lenOf(v interface{}) int {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Slice {
		return rv.Len()
	}
	return 1
}

// tracedQuerier logs every statement run through a Querier
type tracedQuerier struct {
	q      Querier
	logger *logger.Logger
	txID   string
}

func newTracedQuerier(q Querier, logger *logger.Logger, txID string) *tracedQuerier {
	return &tracedQuerier{q: q, logger: logger, txID: txID}
}

func (tq *tracedQuerier) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	trace := traceStatement(tq.logger, query, tq.txID)
	res, err := tq.q.ExecContext(ctx, query, args...)
	trace.done(err, "rows_affected", rowsAffected(res))
	return res, err
}

func (tq *tracedQuerier) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	trace := traceStatement(tq.logger, query, tq.txID)
	err := tq.q.GetContext(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		trace.done(nil, "rows", 0)
		return err
	}
	trace.done(err, "rows", 1)
	return err
}

func (tq *tracedQuerier) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	trace := traceStatement(tq.logger, query, tq.txID)
	err := tq.q.SelectContext(ctx, dest, query, args...)
	trace.done(err, "rows", lenOf(dest))
	return err
}

func (tq *tracedQuerier) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	trace := traceStatement(tq.logger, query, tq.txID)
	res, err := tq.q.NamedExecContext(ctx, query, arg)
	trace.done(err, "batch", lenOf(arg), "rows_affected", rowsAffected(res))
	return res, err
}
