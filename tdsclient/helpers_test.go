package tdsclient

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/joacominatel/tdskit/driver"
	"github.com/joacominatel/tdskit/driver/drivertest"
)

// Sessions share the process-wide driver context and handlers, so tests in
// this package do not run in parallel.

var testLogin = Login{Host: "db.local", User: "sa", Password: "secret", AppName: "tdskit-test"}

// logBuffer returns a logger that writes text records into a buffer.
func logBuffer() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h), &buf
}

// resetContext restores a pristine driver context after the test.
func resetContext(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		dbctx.teardown()
		driver.SetErrorHandler(nil)
		driver.SetMessageHandler(nil)
	})
}

func openTest(t *testing.T, d *drivertest.Driver, bulk bool, opts Options) *Session {
	t.Helper()
	opts.Driver = d
	s := Open(context.Background(), testLogin, bulk, opts)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustOpen(t *testing.T, d *drivertest.Driver, bulk bool, opts Options) *Session {
	t.Helper()
	s := openTest(t, d, bulk, opts)
	if s.Initialized() != 0 {
		t.Fatalf("Open failed: %v", s.Err())
	}
	return s
}

// collector records every sink invocation.
type collector struct {
	calls []ResultSet
}

func (c *collector) sink(cols []string, rows Table) {
	c.calls = append(c.calls, ResultSet{Columns: cols, Rows: rows})
}
