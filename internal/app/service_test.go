package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/joacominatel/tdskit/driver"
	"github.com/joacominatel/tdskit/driver/drivertest"
	"github.com/joacominatel/tdskit/internal/config"
	"github.com/joacominatel/tdskit/tdsclient"
)

// Sessions share the process-wide driver context, so these tests do not run
// in parallel.

var testProfile = config.Connection{Name: "test", Host: "db.local", User: "sa", Password: "pw", Database: "sales"}

func newTestService(t *testing.T, cfg drivertest.Config) (*Service, *drivertest.Driver, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d := drivertest.New(cfg)
	return NewService(tdsclient.Options{Driver: d, Logger: logger}), d, &buf
}

func connect(t *testing.T, svc *Service) {
	t.Helper()
	if err := svc.Connect(context.Background(), testProfile); err != nil {
		t.Fatalf("Connect: %v", err)
	}
}

func TestService_Connect(t *testing.T) {
	svc, d, _ := newTestService(t, drivertest.Config{})
	connect(t, svc)

	if svc.DatabaseName() != "sales" {
		t.Errorf("expected sales, got %q", svc.DatabaseName())
	}
	conn := d.Last()
	if !conn.Closed() {
		t.Error("expected the probe session to be closed")
	}
	calls := conn.Calls()
	if calls[0] != (drivertest.Call{Op: "use", Arg: "sales"}) || calls[1] != (drivertest.Call{Op: "command", Arg: queryPing}) {
		t.Errorf("unexpected calls %+v", calls)
	}
	if conn.Login.Host != "db.local" || conn.Login.AppName != "tdsql" {
		t.Errorf("unexpected login %+v", conn.Login)
	}
}

func TestService_ConnectFailure(t *testing.T) {
	svc, _, _ := newTestService(t, drivertest.Config{OpenErr: errors.New("login failed")})

	err := svc.Connect(context.Background(), testProfile)
	var connErr *ErrConnection
	if !errors.As(err, &connErr) || connErr.Profile != "test" {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
	var initErr *tdsclient.ErrInit
	if !errors.As(err, &initErr) || initErr.Phase != tdsclient.PhaseConnect {
		t.Errorf("expected connect phase cause, got %v", err)
	}
	if _, ok := svc.Profile(); ok {
		t.Error("expected no connected profile")
	}
}

func TestService_NotConnected(t *testing.T) {
	svc, _, _ := newTestService(t, drivertest.Config{})

	if _, err := svc.ExecuteQuery(context.Background(), "SELECT 1"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if err := svc.Execute(context.Background(), "checkpoint"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if _, err := svc.Load(context.Background(), nil); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestService_ExecuteQuery(t *testing.T) {
	svc, _, _ := newTestService(t, drivertest.Config{
		Results: map[string][]drivertest.ResultSet{
			"SELECT id, name FROM orders": {
				{Columns: drivertest.Cols("id", "name"), Rows: []drivertest.Row{
					drivertest.Values(int64(1), " bolt "),
					drivertest.Values(int64(2), nil),
				}},
			},
		},
	})
	connect(t, svc)

	result, err := svc.ExecuteQuery(context.Background(), "SELECT id, name FROM orders")
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if !reflect.DeepEqual(result.Columns, []string{"id", "name"}) {
		t.Errorf("unexpected columns %v", result.Columns)
	}
	want := tdsclient.Table{{"1", "bolt"}, {"2", "NULL"}}
	if !reflect.DeepEqual(result.Rows, want) {
		t.Errorf("expected %q, got %q", want, result.Rows)
	}
	if result.RowCount != 2 || result.Sets != 1 {
		t.Errorf("unexpected counts %d rows %d sets", result.RowCount, result.Sets)
	}
}

func TestService_ExecuteQueryFailure(t *testing.T) {
	svc, _, _ := newTestService(t, drivertest.Config{})
	connect(t, svc)

	svc.opts.Driver = drivertest.New(drivertest.Config{ExecErr: errors.New("syntax error")})
	_, err := svc.ExecuteQuery(context.Background(), "SELEC 1")
	var qErr *ErrQuery
	if !errors.As(err, &qErr) || qErr.Query != "SELEC 1" {
		t.Fatalf("expected ErrQuery, got %v", err)
	}
}

func TestService_ExecuteQueryWithoutResultSet(t *testing.T) {
	svc, _, _ := newTestService(t, drivertest.Config{})
	connect(t, svc)

	result, err := svc.ExecuteQuery(context.Background(), "UPDATE orders SET qty = 0")
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if result.Sets != 1 || len(result.Columns) != 0 || result.RowCount != 0 {
		t.Errorf("expected one empty delivery, got %+v", result)
	}
}

func TestService_LoadSchemaTree(t *testing.T) {
	svc, _, _ := newTestService(t, drivertest.Config{
		Results: map[string][]drivertest.ResultSet{
			queryListTablesMSSQL: {
				{Columns: drivertest.Cols("TABLE_SCHEMA", "TABLE_NAME"), Rows: []drivertest.Row{
					drivertest.Values("dbo", "customers"),
					drivertest.Values("dbo", "orders"),
					drivertest.Values("stage", "orders"),
				}},
			},
		},
	})
	connect(t, svc)

	tree, err := svc.LoadSchemaTree(context.Background())
	if err != nil {
		t.Fatalf("LoadSchemaTree: %v", err)
	}
	want := &SchemaTree{
		Database: "sales",
		Schemas: []SchemaNode{
			{Name: "dbo", Tables: []string{"customers", "orders"}},
			{Name: "stage", Tables: []string{"orders"}},
		},
	}
	if !reflect.DeepEqual(tree, want) {
		t.Errorf("expected %+v, got %+v", want, tree)
	}

	names := svc.AllTableNames(tree)
	wantNames := []string{"customers", "dbo.customers", "orders", "dbo.orders", "stage.orders"}
	if !reflect.DeepEqual(names, wantNames) {
		t.Errorf("expected %v, got %v", wantNames, names)
	}
}

func TestService_LoadColumns(t *testing.T) {
	q := columnsQuery(config.DialectMSSQL, "dbo", "orders")
	svc, _, _ := newTestService(t, drivertest.Config{
		Results: map[string][]drivertest.ResultSet{
			q: {
				{Columns: drivertest.Cols("COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE", "ORDINAL_POSITION"), Rows: []drivertest.Row{
					drivertest.Values("id", "int", "NO", int64(1)),
					drivertest.Values("note", "varchar", "YES", int64(2)),
				}},
			},
		},
	})
	connect(t, svc)

	cols, err := svc.LoadColumns(context.Background(), "dbo", "orders")
	if err != nil {
		t.Fatalf("LoadColumns: %v", err)
	}
	want := []Column{
		{Name: "id", DataType: "int", OrdinalPos: 1},
		{Name: "note", DataType: "varchar", IsNullable: true, OrdinalPos: 2},
	}
	if !reflect.DeepEqual(cols, want) {
		t.Errorf("expected %+v, got %+v", want, cols)
	}
}

func TestColumnsQuery_QuotesLiterals(t *testing.T) {
	q := columnsQuery(config.DialectSybase, "dbo", "o'brien")
	if !strings.Contains(q, "'o''brien'") || !strings.Contains(q, "syscolumns") {
		t.Errorf("unexpected query %s", q)
	}
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestService_Load(t *testing.T) {
	svc, d, buf := newTestService(t, drivertest.Config{})
	connect(t, svc)

	orders := writeFile(t, "orders.csv", "id,qty\n1,5\n2,7\n")
	items := writeFile(t, "items.csv", "a;b\n")

	reports, err := svc.Load(context.Background(), []LoadJob{
		{Table: "orders", Path: orders, LogColumns: []string{"id"}},
		{
			Schema:   "stage",
			Table:    "items",
			Path:     items,
			Comma:    ';',
			Bindings: []tdsclient.Binding{{Name: "code", Type: driver.TypeChar}, {Name: "n", Type: driver.TypeInt4}},
		},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reports) != 2 || reports[0].Rows != 2 || reports[1].Rows != 1 {
		t.Fatalf("unexpected reports %+v", reports)
	}
	if reports[0].Operation == "" || reports[0].Operation == reports[1].Operation {
		t.Errorf("expected distinct operation ids, got %q %q", reports[0].Operation, reports[1].Operation)
	}

	tables := map[string]*drivertest.Copier{}
	for _, c := range d.Conns() {
		if cp := c.Copier(); cp != nil {
			tables[cp.Table] = cp
		}
	}
	if cp := tables["sales.dbo.orders"]; cp == nil || len(cp.Sent()) != 2 || !cp.Finished() {
		t.Errorf("expected two rows into sales.dbo.orders, got %+v", cp)
	}
	cp := tables["sales.stage.items"]
	if cp == nil || len(cp.Sent()) != 1 {
		t.Fatalf("expected one row into sales.stage.items, got %+v", cp)
	}
	if b := cp.Sent()[0][1]; b.Type != driver.TypeInt4 || b.Length != driver.VarLenTerminated {
		t.Errorf("expected a terminated INT4 bind, got %+v", b)
	}
	if !strings.Contains(buf.String(), "load finished") {
		t.Errorf("expected load summary, got %q", buf.String())
	}
}

func TestService_LoadFailureIsIsolated(t *testing.T) {
	svc, _, _ := newTestService(t, drivertest.Config{})
	connect(t, svc)

	good := writeFile(t, "good.csv", "id\n1\n")
	reports, err := svc.Load(context.Background(), []LoadJob{
		{Table: "missing", Path: filepath.Join(t.TempDir(), "nope.csv")},
		{Table: "good", Path: good},
	})

	var loadErr *ErrLoad
	if !errors.As(err, &loadErr) || loadErr.Table != "missing" {
		t.Fatalf("expected ErrLoad for the missing file, got %v", err)
	}
	if reports[0].Err == nil || reports[1].Err != nil || reports[1].Rows != 1 {
		t.Errorf("expected only the first job to fail, got %+v", reports)
	}
}

func TestService_LoadBulkRefused(t *testing.T) {
	svc, _, _ := newTestService(t, drivertest.Config{RefuseBulk: true})
	connect(t, svc)

	path := writeFile(t, "t.csv", "id\n1\n")
	_, err := svc.Load(context.Background(), []LoadJob{{Table: "t", Path: path}})
	var initErr *tdsclient.ErrInit
	if !errors.As(err, &initErr) {
		t.Fatalf("expected an init error, got %v", err)
	}
}
