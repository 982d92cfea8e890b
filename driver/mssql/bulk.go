package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	mssqldb "github.com/microsoft/go-mssqldb"

	"github.com/joacominatel/tdskit/driver"
)

// bulkCopier streams rows through mssql.CopyIn.
//
// The insert-bulk statement is prepared on the first SendRow against every
// column of the table. A column a row leaves unbound is sent as NULL.
type bulkCopier struct {
	conn      *sql.Conn
	table     string
	errorFile string
	columns   []string

	stmt    *sql.Stmt
	current map[int]any
	raw     map[int][]byte
	row     int
}

func newBulkCopier(conn *sql.Conn, table, errorFile string, columns []string) *bulkCopier {
	return &bulkCopier{
		conn:      conn,
		table:     table,
		errorFile: errorFile,
		columns:   columns,
		current:   make(map[int]any),
		raw:       make(map[int][]byte),
		row:       1,
	}
}

// Bind implements driver.BulkCopier.
func (b *bulkCopier) Bind(bind driver.Bind) error {
	if bind.Column < 1 || bind.Column > len(b.columns) {
		return raise(driver.ErrBulkBind, fmt.Errorf("column %d out of range, %s has %d columns", bind.Column, b.table, len(b.columns)))
	}
	v, err := driver.Decode(bind)
	if err != nil {
		return raise(driver.ErrBulkBind, err)
	}
	b.current[bind.Column] = v
	b.raw[bind.Column] = bind.Payload()
	return nil
}

// SendRow implements driver.BulkCopier.
func (b *bulkCopier) SendRow(ctx context.Context) error {
	defer b.reset()

	if b.stmt == nil {
		if err := b.prepare(ctx); err != nil {
			return raise(driver.ErrBulkSend, err)
		}
	}

	args := make([]any, len(b.columns))
	for ord, v := range b.current {
		args[ord-1] = v
	}

	if _, err := b.stmt.ExecContext(ctx, args...); err != nil {
		b.reject(err)
		return raise(driver.ErrBulkSend, fmt.Errorf("send row %d: %w", b.row, err))
	}
	return nil
}

// Done implements driver.BulkCopier.
func (b *bulkCopier) Done(ctx context.Context) (int64, error) {
	if b.stmt == nil {
		return 0, nil
	}
	defer b.stmt.Close()

	res, err := b.stmt.ExecContext(ctx)
	if err != nil {
		b.diagnose(fmt.Sprintf("finalize failed: %v", err))
		return 0, raise(driver.ErrBulkSend, fmt.Errorf("finalize bulk copy: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (b *bulkCopier) prepare(ctx context.Context) error {
	stmt, err := b.conn.PrepareContext(ctx, mssqldb.CopyIn(b.table, mssqldb.BulkOptions{}, b.columns...))
	if err != nil {
		return fmt.Errorf("prepare bulk copy into %s: %w", b.table, err)
	}
	b.stmt = stmt
	return nil
}

func (b *bulkCopier) reset() {
	clear(b.current)
	clear(b.raw)
	b.row++
}

// reject records the current row and its failure in the error file.
func (b *bulkCopier) reject(cause error) {
	ords := make([]int, 0, len(b.raw))
	for ord := range b.raw {
		ords = append(ords, ord)
	}
	slices.Sort(ords)

	fields := make([]string, len(ords))
	for i, ord := range ords {
		fields[i] = fmt.Sprintf("%s=%q", b.columns[ord-1], b.raw[ord])
	}
	b.diagnose(fmt.Sprintf("row %d rejected: %v: %s", b.row, cause, strings.Join(fields, " ")))
}

// diagnose appends one line to the error file. Failing to write it is not
// an error of the load itself.
func (b *bulkCopier) diagnose(line string) {
	if b.errorFile == "" {
		return
	}
	f, err := os.OpenFile(b.errorFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s %s %s\n", time.Now().Format(time.RFC3339), b.table, line)
}
