// Package driver defines the transport contract that tdsclient sessions run on.
//
// A Driver opens one Conn per session. The Conn mirrors the shape of a TDS
// conversation: select a database, buffer a command batch, execute it, then
// walk the pending results one result set and one row at a time. Bulk-capable
// dialects additionally hand out a BulkCopier.
//
// Dialects register themselves from an init function, the same way
// database/sql drivers do:
//
//	import _ "github.com/joacominatel/tdskit/driver/mssql"
package driver

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Driver opens transports for one server dialect.
type Driver interface {
	// Name returns the dialect name (e.g. "mssql", "sybase").
	Name() string

	// Open logs in and returns a live transport. Version negotiation and
	// bulk capability are taken from the login and cannot change afterwards.
	Open(ctx context.Context, login Login) (Conn, error)
}

// Conn is one live transport handle. It is not safe for concurrent use.
type Conn interface {
	// Use selects the active catalog.
	Use(ctx context.Context, database string) error

	// Command buffers SQL text for the next Execute.
	Command(sql string) error

	// Execute sends the buffered batch and leaves its results pending.
	Execute(ctx context.Context) (Results, error)

	// BulkInit starts a bulk-copy-in operation against a fully qualified
	// table. Diagnostics for rejected rows go to errorFile.
	BulkInit(ctx context.Context, table, errorFile string) (BulkCopier, error)

	// Close tears the transport down.
	Close() error
}

// Results walks the result sets produced by one executed batch.
type Results interface {
	// NextResult advances to the next result set.
	NextResult() ResultStatus

	// Columns describes the current result set. Status-only results have none.
	Columns() []Column

	// NextRow advances to the next row of the current result set.
	NextRow() RowStatus

	// Value returns the native value of a column (0-based) of the current row.
	// A nil value is a SQL NULL.
	Value(col int) any

	// Err returns the failure behind the last ResultFail or RowFail status.
	Err() error

	// Close discards whatever is still pending.
	Close() error
}

// BulkCopier streams rows into a table prepared by Conn.BulkInit.
type BulkCopier interface {
	// Bind attaches one field of the current row to a table column.
	Bind(b Bind) error

	// SendRow flushes the currently bound row to the server.
	SendRow(ctx context.Context) error

	// Done finalizes the load and reports the number of rows the server took.
	Done(ctx context.Context) (int64, error)
}

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// Register makes a dialect available by name. It panics if Register is called
// twice with the same name or if d is nil.
func Register(name string, d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if d == nil {
		panic("driver: Register driver is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("driver: Register called twice for driver " + name)
	}
	drivers[name] = d
}

// Lookup returns the dialect registered under name.
func Lookup(name string) (Driver, error) {
	driversMu.RLock()
	d, ok := drivers[name]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("driver: unknown driver %q (forgotten import?)", name)
	}
	return d, nil
}

// Drivers returns the sorted names of the registered dialects.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
