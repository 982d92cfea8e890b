package sybase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/joacominatel/tdskit/driver"
	"github.com/joacominatel/tdskit/driver/internal/sqlbase"
)

// Conn is one pinned Sybase connection.
type Conn struct {
	db    *sql.DB
	conn  *sql.Conn
	batch strings.Builder
}

// Use implements driver.Conn.
func (c *Conn) Use(ctx context.Context, database string) error {
	if _, err := c.conn.ExecContext(ctx, "use "+database); err != nil {
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
	res := sqlbase.New(rows)
	res.Raise = func(err error) { raise(driver.ErrServerMessage, err) }
	return res, nil
}

// BulkInit implements driver.Conn.
func (c *Conn) BulkInit(context.Context, string, string) (driver.BulkCopier, error) {
	return nil, raise(driver.ErrBulkInit, ErrBulkUnsupported)
}

// Close implements driver.Conn.
func (c *Conn) Close() error {
	return errors.Join(c.conn.Close(), c.db.Close())
}
