/*
Package drivertest provides a scripted, in-memory driver.Driver for tests.

It stands in for a real server so sessions, result reading and bulk loading
can be exercised without a network. Result sets are scripted per SQL text,
failures are injected per operation, and every call is recorded for
assertions.

Quick start

	d := drivertest.New(drivertest.Config{
		Results: map[string][]drivertest.ResultSet{
			"SELECT 1": {{
				Columns: drivertest.Cols(""),
				Rows:    []drivertest.Row{drivertest.Values(int64(1))},
			}},
		},
	})

	s := tdsclient.Open(ctx, login, false, tdsclient.Options{Driver: d})

Behavior

  - Open fails with Config.OpenErr when set, otherwise returns a new *Conn.
  - Execute looks the buffered SQL up in Config.Results, falling back to
    Config.Default. Unknown SQL yields a single status-only result.
  - Config.Messages are delivered through driver.Notify on every Execute.
  - Failures are injected with the *Err fields; BindErrAt limits the bind
    failure to one (row, column) position.
  - With RaiseErrors set, injected failures are also reported through
    driver.RaiseError, the way a real transport reports them.
*/
package drivertest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/joacominatel/tdskit/driver"
)

var (
	// ErrClosed is returned by operations on a closed Conn.
	ErrClosed = errors.New("drivertest: connection closed")

	// ErrNoCommand is returned by Execute when nothing was buffered.
	ErrNoCommand = errors.New("drivertest: no command buffered")
)

// Row is one scripted row. The zero Status is driver.RegularRow.
type Row struct {
	Values []any
	Status driver.RowStatus
}

// Values builds a regular row.
func Values(vals ...any) Row {
	return Row{Values: vals}
}

// ResultSet is one scripted result set.
type ResultSet struct {
	Columns []driver.Column
	Rows    []Row

	// Fail makes NextResult report driver.ResultFail when it reaches this set.
	Fail bool
}

// Cols builds character columns with the given names.
func Cols(names ...string) []driver.Column {
	cols := make([]driver.Column, len(names))
	for i, name := range names {
		cols[i] = driver.Column{Name: name, Type: driver.TypeVarChar, TypeName: "VARCHAR"}
	}
	return cols
}

// Position identifies a bound field by 1-based row and column.
type Position struct {
	Row    int
	Column int
}

// Config scripts the behavior of a Driver.
type Config struct {
	// Name is reported by Driver.Name. Defaults to "drivertest".
	Name string

	// Results maps SQL text to the result sets Execute produces for it.
	Results map[string][]ResultSet

	// Default is used for SQL text missing from Results.
	Default []ResultSet

	// Messages are sent through driver.Notify on every Execute.
	Messages []driver.ServerMessage

	OpenErr     error
	UseErr      error
	CommandErr  error
	ExecErr     error
	BulkInitErr error
	SendErr     error
	DoneErr     error

	// BindErr fails Bind, at BindErrAt when set or on the first call otherwise.
	BindErr   error
	BindErrAt *Position

	// RefuseBulk fails Open for logins that request bulk copy.
	RefuseBulk bool

	// RaiseErrors reports injected failures through driver.RaiseError.
	RaiseErrors bool
}

// Call is one recorded operation.
type Call struct {
	Op  string
	Arg string
}

// Driver is a scripted driver.Driver.
type Driver struct {
	cfg Config

	mu    sync.Mutex
	conns []*Conn
}

// New creates a scripted driver.
func New(cfg Config) *Driver {
	if cfg.Name == "" {
		cfg.Name = "drivertest"
	}
	return &Driver{cfg: cfg}
}

// Name implements driver.Driver.
func (d *Driver) Name() string { return d.cfg.Name }

// Open implements driver.Driver.
func (d *Driver) Open(_ context.Context, login driver.Login) (driver.Conn, error) {
	if d.cfg.OpenErr != nil {
		return nil, d.cfg.fail(driver.ErrConnect, d.cfg.OpenErr)
	}
	if d.cfg.RefuseBulk && login.BulkCopy {
		return nil, d.cfg.fail(driver.ErrConnect, fmt.Errorf("drivertest: bulk copy not supported"))
	}
	c := &Conn{drv: d, Login: login}
	d.mu.Lock()
	d.conns = append(d.conns, c)
	d.mu.Unlock()
	return c, nil
}

// fail reports err through the process-wide error handler when configured.
func (cfg *Config) fail(dbErr int, err error) error {
	if cfg.RaiseErrors {
		driver.RaiseError(driver.ErrorEvent{Severity: 9, DBErr: dbErr, DBErrText: err.Error()})
	}
	return err
}

// Conns returns every connection opened so far.
func (d *Driver) Conns() []*Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Conn(nil), d.conns...)
}

// Last returns the most recently opened connection, or nil.
func (d *Driver) Last() *Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

// Conn is a scripted driver.Conn.
type Conn struct {
	drv   *Driver
	Login driver.Login

	mu      sync.Mutex
	pending string
	closed  bool
	calls   []Call
	bulk    *Copier
}

func (c *Conn) record(op, arg string) {
	c.calls = append(c.calls, Call{Op: op, Arg: arg})
}

// Calls returns the recorded operations.
func (c *Conn) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Copier returns the bulk copier handed out by BulkInit, or nil.
func (c *Conn) Copier() *Copier {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bulk
}

// Use implements driver.Conn.
func (c *Conn) Use(_ context.Context, database string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("use", database)
	if c.closed {
		return ErrClosed
	}
	if c.drv.cfg.UseErr != nil {
		return c.drv.cfg.fail(driver.ErrUseDatabase, c.drv.cfg.UseErr)
	}
	return nil
}

// Command implements driver.Conn.
func (c *Conn) Command(sql string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("command", sql)
	if c.closed {
		return ErrClosed
	}
	if c.drv.cfg.CommandErr != nil {
		return c.drv.cfg.fail(driver.ErrCommand, c.drv.cfg.CommandErr)
	}
	c.pending += sql
	return nil
}

// Execute implements driver.Conn.
func (c *Conn) Execute(_ context.Context) (driver.Results, error) {
	c.mu.Lock()
	sql := c.pending
	c.pending = ""
	c.record("execute", sql)
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return nil, ErrClosed
	}
	if c.drv.cfg.ExecErr != nil {
		return nil, c.drv.cfg.fail(driver.ErrServerMessage, c.drv.cfg.ExecErr)
	}
	if sql == "" {
		return nil, ErrNoCommand
	}
	for _, msg := range c.drv.cfg.Messages {
		driver.Notify(msg)
	}

	sets, ok := c.drv.cfg.Results[sql]
	if !ok {
		sets = c.drv.cfg.Default
	}
	if sets == nil {
		sets = []ResultSet{{}}
	}
	return &Results{sets: sets, set: -1, row: -1}, nil
}

// BulkInit implements driver.Conn.
func (c *Conn) BulkInit(_ context.Context, table, errorFile string) (driver.BulkCopier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("bulkinit", table)
	if c.closed {
		return nil, ErrClosed
	}
	if c.drv.cfg.BulkInitErr != nil {
		return nil, c.drv.cfg.fail(driver.ErrBulkInit, c.drv.cfg.BulkInitErr)
	}
	c.bulk = &Copier{cfg: &c.drv.cfg, Table: table, ErrorFile: errorFile, row: 1}
	return c.bulk, nil
}

// Close implements driver.Conn.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("close", "")
	c.closed = true
	return nil
}

// Results is a scripted driver.Results.
type Results struct {
	sets []ResultSet
	set  int
	row  int
	err  error
}

// NextResult implements driver.Results.
func (r *Results) NextResult() driver.ResultStatus {
	r.set++
	r.row = -1
	if r.set >= len(r.sets) {
		return driver.NoMoreResults
	}
	if r.sets[r.set].Fail {
		r.err = fmt.Errorf("drivertest: result set %d failed", r.set+1)
		return driver.ResultFail
	}
	return driver.ResultSucceed
}

// Columns implements driver.Results.
func (r *Results) Columns() []driver.Column {
	if r.set < 0 || r.set >= len(r.sets) {
		return nil
	}
	return r.sets[r.set].Columns
}

// NextRow implements driver.Results.
func (r *Results) NextRow() driver.RowStatus {
	if r.set < 0 || r.set >= len(r.sets) {
		return driver.NoMoreRows
	}
	r.row++
	rows := r.sets[r.set].Rows
	if r.row >= len(rows) {
		return driver.NoMoreRows
	}
	status := rows[r.row].Status
	if status == driver.RowFail {
		r.err = fmt.Errorf("drivertest: row %d failed", r.row+1)
	}
	return status
}

// Value implements driver.Results.
func (r *Results) Value(col int) any {
	if r.set < 0 || r.set >= len(r.sets) {
		return nil
	}
	rows := r.sets[r.set].Rows
	if r.row < 0 || r.row >= len(rows) || col >= len(rows[r.row].Values) {
		return nil
	}
	return rows[r.row].Values[col]
}

// Err implements driver.Results.
func (r *Results) Err() error { return r.err }

// Close implements driver.Results.
func (r *Results) Close() error { return nil }

// Copier is a scripted driver.BulkCopier that records what it receives.
type Copier struct {
	cfg       *Config
	Table     string
	ErrorFile string

	row     int
	current []driver.Bind
	sent    [][]driver.Bind
	done    bool
	binds   int
}

// Bind implements driver.BulkCopier.
func (b *Copier) Bind(bind driver.Bind) error {
	b.binds++
	if b.cfg.BindErr != nil {
		at := b.cfg.BindErrAt
		if at == nil || (at.Row == b.row && at.Column == bind.Column) {
			return b.cfg.fail(driver.ErrBulkBind, b.cfg.BindErr)
		}
	}
	bind.Data = append([]byte(nil), bind.Data...)
	b.current = append(b.current, bind)
	return nil
}

// SendRow implements driver.BulkCopier.
func (b *Copier) SendRow(_ context.Context) error {
	if b.cfg.SendErr != nil {
		return b.cfg.fail(driver.ErrBulkSend, b.cfg.SendErr)
	}
	b.sent = append(b.sent, b.current)
	b.current = nil
	b.row++
	return nil
}

// Done implements driver.BulkCopier.
func (b *Copier) Done(_ context.Context) (int64, error) {
	if b.cfg.DoneErr != nil {
		return 0, b.cfg.fail(driver.ErrBulkSend, b.cfg.DoneErr)
	}
	b.done = true
	return int64(len(b.sent)), nil
}

// Sent returns the bound fields of every row flushed so far.
func (b *Copier) Sent() [][]driver.Bind { return b.sent }

// Finished reports whether Done succeeded.
func (b *Copier) Finished() bool { return b.done }

// Binds reports how many Bind calls were made.
func (b *Copier) Binds() int { return b.binds }
