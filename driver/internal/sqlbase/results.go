// Package sqlbase holds what the database/sql based dialects share: a
// driver.Results over *sql.Rows and transport error classification.
package sqlbase

import (
	"database/sql"

	"github.com/joacominatel/tdskit/driver"
)

// Results walks *sql.Rows one result set at a time.
//
// database/sql never reports a full row buffer, so NextRow only yields
// RegularRow, NoMoreRows and RowFail. After a failed rows.Next the set is
// over: the next NextRow reports NoMoreRows.
type Results struct {
	rows *sql.Rows

	// Raise is called with errors that end the whole batch.
	Raise func(error)

	// Convert rewrites a scanned value before it is handed out.
	Convert func(col driver.Column, v any) any

	started bool
	done    bool
	failed  bool
	cols    []driver.Column
	vals    []any
	err     error
}

// New wraps rows. The first NextResult describes the set rows is already
// positioned on.
func New(rows *sql.Rows) *Results {
	return &Results{rows: rows}
}

// NextResult implements driver.Results.
func (r *Results) NextResult() driver.ResultStatus {
	if r.done {
		return driver.NoMoreResults
	}
	if r.started && !r.rows.NextResultSet() {
		r.done = true
		if err := r.rows.Err(); err != nil {
			r.fail(err)
			return driver.ResultFail
		}
		return driver.NoMoreResults
	}
	r.started = true
	r.failed = false
	r.vals = nil

	cols, err := Describe(r.rows)
	if err != nil {
		r.done = true
		r.fail(err)
		return driver.ResultFail
	}
	r.cols = cols
	return driver.ResultSucceed
}

// Columns implements driver.Results.
func (r *Results) Columns() []driver.Column {
	return r.cols
}

// NextRow implements driver.Results.
func (r *Results) NextRow() driver.RowStatus {
	if r.failed || len(r.cols) == 0 {
		return driver.NoMoreRows
	}
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			r.failed = true
			r.err = err
			return driver.RowFail
		}
		return driver.NoMoreRows
	}

	vals := make([]any, len(r.cols))
	ptrs := make([]any, len(r.cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		r.err = err
		return driver.RowFail
	}
	r.vals = vals
	return driver.RegularRow
}

// Value implements driver.Results.
func (r *Results) Value(col int) any {
	if col < 0 || col >= len(r.vals) {
		return nil
	}
	v := r.vals[col]
	if r.Convert != nil && v != nil {
		return r.Convert(r.cols[col], v)
	}
	return v
}

// Err implements driver.Results.
func (r *Results) Err() error {
	return r.err
}

// Close implements driver.Results.
func (r *Results) Close() error {
	return r.rows.Close()
}

func (r *Results) fail(err error) {
	r.err = err
	if r.Raise != nil {
		r.Raise(err)
	}
}

// Describe returns the column layout of the current result set.
func Describe(rows *sql.Rows) ([]driver.Column, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	cols := make([]driver.Column, len(types))
	for i, ct := range types {
		col := driver.Column{
			Name:     ct.Name(),
			TypeName: ct.DatabaseTypeName(),
			Type:     driver.TypeFromName(ct.DatabaseTypeName()),
		}
		if n, ok := ct.Length(); ok {
			col.Length = n
		}
		if nullable, ok := ct.Nullable(); ok {
			col.Nullable = nullable
		}
		cols[i] = col
	}
	return cols, nil
}
