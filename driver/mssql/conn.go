package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/joacominatel/tdskit/driver"
)

// Conn is one pinned SQL Server connection.
type Conn struct {
	db    *sql.DB
	conn  *sql.Conn
	batch strings.Builder
}

// Use implements driver.Conn.
func (c *Conn) Use(ctx context.Context, database string) error {
	if _, err := c.conn.ExecContext(ctx, fmt.Sprintf(queryUseDatabase, quoteIdent(database))); err != nil {
		return raise(driver.ErrUseDatabase, fmt.Errorf("use %s: %w", database, err))
	}
	return nil
}

// Command implements driver.Conn.
func (c *Conn) Command(sql string) error {
	c.batch.WriteString(sql)
	return nil
}

// Execute implements driver.Conn.
func (c *Conn) Execute(ctx context.Context) (driver.Results, error) {
	batch := c.batch.String()
	c.batch.Reset()
	if strings.TrimSpace(batch) == "" {
		return nil, raise(driver.ErrCommand, errors.New("no command buffered"))
	}

	rows, err := c.conn.QueryContext(ctx, batch)
	if err != nil {
		return nil, raise(driver.ErrCommand, fmt.Errorf("execute: %w", err))
	}
	return newResults(rows), nil
}

// BulkInit implements driver.Conn.
func (c *Conn) BulkInit(ctx context.Context, table, errorFile string) (driver.BulkCopier, error) {
	rows, err := c.conn.QueryContext(ctx, fmt.Sprintf(queryDescribeTable, table))
	if err != nil {
		return nil, raise(driver.ErrBulkInit, fmt.Errorf("describe %s: %w", table, err))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, raise(driver.ErrBulkInit, fmt.Errorf("describe %s: %w", table, err))
	}
	return newBulkCopier(c.conn, table, errorFile, columns), nil
}

// Close implements driver.Conn.
func (c *Conn) Close() error {
	return errors.Join(c.conn.Close(), c.db.Close())
}
