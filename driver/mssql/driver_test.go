package mssql

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mssqldb "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/joacominatel/tdskit/driver"
	"github.com/joacominatel/tdskit/driver/internal/sqlbase"
)

func TestRegistered(t *testing.T) {
	d, err := driver.Lookup(Name)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if d.Name() != "mssql" {
		t.Errorf("expected mssql, got %s", d.Name())
	}
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		login    driver.Login
		host     string
		instance string
	}{
		{name: "plain", login: driver.Login{Host: "db01"}, host: "db01"},
		{name: "colon port", login: driver.Login{Host: "db01:1433"}, host: "db01:1433"},
		{name: "comma port", login: driver.Login{Host: "db01, 1444"}, host: "db01:1444"},
		{name: "instance", login: driver.Login{Host: `db01\SQLEXPRESS`}, host: "db01", instance: "/SQLEXPRESS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			login := tt.login
			login.User = "sa"
			login.Password = "p@ss word"
			login.AppName = "loader"

			u, err := url.Parse(buildDSN(login))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if u.Scheme != "sqlserver" {
				t.Errorf("expected sqlserver scheme, got %s", u.Scheme)
			}
			if u.Host != tt.host {
				t.Errorf("expected host %q, got %q", tt.host, u.Host)
			}
			if u.Path != tt.instance {
				t.Errorf("expected path %q, got %q", tt.instance, u.Path)
			}
			if pw, _ := u.User.Password(); pw != "p@ss word" || u.User.Username() != "sa" {
				t.Errorf("credentials did not survive encoding: %v", u.User)
			}
			q := u.Query()
			if q.Get("app name") != "loader" {
				t.Errorf("expected app name, got %q", q.Get("app name"))
			}
			if want := fmt.Sprint(uint64(msdsn.LogErrors | msdsn.LogMessages)); q.Get("log") != want {
				t.Errorf("expected log=%s, got %q", want, q.Get("log"))
			}
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := quoteIdent("sales"); got != "[sales]" {
		t.Errorf("expected [sales], got %s", got)
	}
	if got := quoteIdent("we]ird"); got != "[we]]ird]" {
		t.Errorf("expected [we]]ird], got %s", got)
	}
}

func TestServerMessages(t *testing.T) {
	first := mssqldb.Error{Number: 2627, State: 1, Class: 14, Message: "Violation of PRIMARY KEY", ServerName: "SQL01", ProcName: "p", LineNo: 3}
	second := mssqldb.Error{Number: 3621, State: 0, Class: 0, Message: "The statement has been terminated."}
	err := fmt.Errorf("execute: %w", mssqldb.Error{Number: 2627, Class: 14, Message: first.Message, All: []mssqldb.Error{first, second}})

	msgs := serverMessages(err)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	want := driver.ServerMessage{Number: 2627, State: 1, Severity: 14, Text: "Violation of PRIMARY KEY", Server: "SQL01", Procedure: "p", Line: 3}
	if msgs[0] != want {
		t.Errorf("expected %+v, got %+v", want, msgs[0])
	}
	if msgs[1].Number != 3621 {
		t.Errorf("expected 3621, got %d", msgs[1].Number)
	}

	if got := serverMessages(errors.New("plain")); got != nil {
		t.Errorf("expected no messages, got %v", got)
	}
}

func TestClassify(t *testing.T) {
	server := classify(driver.ErrCommand, fmt.Errorf("execute: %w", mssqldb.Error{Number: 208, Class: 16, Message: "Invalid object name"}))
	if server.DBErr != driver.ErrServerMessage || server.Severity != 16 {
		t.Errorf("expected a server error event, got %+v", server)
	}

	client := classify(driver.ErrConnect, errors.New("login failed"))
	if client.DBErr != driver.ErrConnect || client.Severity != sqlbase.SeverityProgram || client.DBErrText != "login failed" {
		t.Errorf("expected a client error event, got %+v", client)
	}
}

func TestRaise_NotifiesServerMessages(t *testing.T) {
	var msgs []driver.ServerMessage
	var events []driver.ErrorEvent
	prevMsg := driver.SetMessageHandler(func(m driver.ServerMessage) { msgs = append(msgs, m) })
	prevErr := driver.SetErrorHandler(func(ev driver.ErrorEvent) driver.Action {
		events = append(events, ev)
		return driver.IntCancel
	})
	t.Cleanup(func() {
		driver.SetMessageHandler(prevMsg)
		driver.SetErrorHandler(prevErr)
	})

	err := mssqldb.Error{Number: 208, Class: 16, Message: "Invalid object name 'orderz'."}
	if got := raise(driver.ErrCommand, err); got == nil || got.Error() != err.Error() {
		t.Errorf("expected raise to return its error, got %v", got)
	}
	if len(msgs) != 1 || msgs[0].Number != 208 {
		t.Errorf("expected the server message to be notified, got %+v", msgs)
	}
	if len(events) != 1 || events[0].DBErr != driver.ErrServerMessage {
		t.Errorf("expected one error event, got %+v", events)
	}
}

func TestInfoMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want int
	}{
		{"Changed database context to 'sales'.", 5701},
		{"Changed language setting to us_english.\r\n", 5703},
		{"hello from PRINT", 0},
	}
	for _, tt := range tests {
		got := infoMessage(tt.msg)
		if got.Number != tt.want {
			t.Errorf("infoMessage(%q).Number = %d, want %d", tt.msg, got.Number, tt.want)
		}
		if strings.HasSuffix(got.Text, "\n") {
			t.Errorf("expected trailing newline to be trimmed, got %q", got.Text)
		}
	}
}

func TestMessageLogger_ForwardsOnlyMessages(t *testing.T) {
	var got []driver.ServerMessage
	prev := driver.SetMessageHandler(func(m driver.ServerMessage) { got = append(got, m) })
	t.Cleanup(func() { driver.SetMessageHandler(prev) })

	l := messageLogger{}
	l.Log(t.Context(), msdsn.LogErrors, "Invalid object name")
	l.Log(t.Context(), msdsn.LogMessages, "Changed database context to 'sales'.")

	if len(got) != 1 || got[0].Number != 5701 {
		t.Errorf("expected one 5701 message, got %+v", got)
	}
}

func TestBulkCopier_BindOutOfRange(t *testing.T) {
	b := newBulkCopier(nil, "sales.dbo.t", "", []string{"id", "name"})

	if err := b.Bind(driver.Bind{Column: 3, Data: []byte("x"), Length: 1, Type: driver.TypeChar}); err == nil {
		t.Error("expected an out of range error")
	}
	if err := b.Bind(driver.Bind{Column: 1, Data: []byte("nope\x00"), Length: driver.VarLenTerminated, Type: driver.TypeInt4}); err == nil {
		t.Error("expected a conversion error")
	}
	if err := b.Bind(driver.Bind{Column: 2, Data: []byte("ann"), Length: 3, Type: driver.TypeVarChar}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if b.current[2] != "ann" {
		t.Errorf("expected bound value, got %v", b.current[2])
	}
}

func TestBulkCopier_Reject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bcp.errors")
	b := newBulkCopier(nil, "sales.dbo.t", path, []string{"id", "name"})
	b.raw[1] = []byte("7")
	b.raw[2] = []byte("ann")

	b.reject(errors.New("duplicate key"))
	b.reject(errors.New("truncated"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read error file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	if !strings.Contains(lines[0], "sales.dbo.t row 1 rejected: duplicate key") || !strings.Contains(lines[0], `id="7" name="ann"`) {
		t.Errorf("unexpected diagnostic %q", lines[0])
	}
}

func TestConvertValue_UniqueIdentifier(t *testing.T) {
	wire := []byte{0x67, 0x45, 0x23, 0x01, 0xab, 0x89, 0xef, 0xcd, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}
	col := driver.Column{Name: "id", Type: driver.TypeBinary, TypeName: "UNIQUEIDENTIFIER"}

	got := convertValue(col, wire)
	if got != "01234567-89AB-CDEF-0123-456789ABCDEF" {
		t.Errorf("unexpected uniqueidentifier rendering %v", got)
	}

	other := driver.Column{Name: "b", Type: driver.TypeVarBinary, TypeName: "VARBINARY"}
	if b, ok := convertValue(other, []byte{1}).([]byte); !ok || len(b) != 1 {
		t.Errorf("expected varbinary to pass through, got %v", convertValue(other, []byte{1}))
	}
}
