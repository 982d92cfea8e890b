// Package mssql is the Microsoft SQL Server dialect, built on go-mssqldb.
//
// Importing the package registers it under the name "mssql":
//
//	import _ "github.com/joacominatel/tdskit/driver/mssql"
//
// Each session gets its own *sql.DB pinned to a single connection, so USE
// statements and bulk copies stay on the transport they were issued on.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	mssqldb "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/joacominatel/tdskit/driver"
)

// Name is the dialect name the package registers under.
const Name = "mssql"

func init() {
	mssqldb.SetContextLogger(messageLogger{})
	driver.Register(Name, New())
}

// Driver implements driver.Driver for SQL Server.
type Driver struct{}

// New creates a new SQL Server driver.
func New() *Driver {
	return &Driver{}
}

// Name implements driver.Driver.
func (d *Driver) Name() string {
	return Name
}

// Open logs in and pins one connection for the session.
//
// SQL Server negotiates TDS 7.x regardless of the requested version, and
// bulk copy needs no login-time capability, so both are accepted as is.
func (d *Driver) Open(ctx context.Context, login driver.Login) (driver.Conn, error) {
	connector, err := mssqldb.NewConnector(buildDSN(login))
	if err != nil {
		return nil, raise(driver.ErrConnect, fmt.Errorf("parse dsn: %w", err))
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, raise(driver.ErrConnect, fmt.Errorf("connect: %w", err))
	}
	return &Conn{db: db, conn: conn}, nil
}

// buildDSN turns a login into a sqlserver:// URL. Host accepts "host",
// "host:port", "host,port" and "host\instance".
func buildDSN(login driver.Login) string {
	host := login.Host
	host, instance, _ := strings.Cut(host, `\`)
	if h, port, ok := strings.Cut(host, ","); ok {
		host = h + ":" + strings.TrimSpace(port)
	}

	q := url.Values{}
	if login.AppName != "" {
		q.Set("app name", login.AppName)
	}
	q.Set("log", strconv.FormatUint(uint64(msdsn.LogErrors|msdsn.LogMessages), 10))

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(login.User, login.Password),
		Host:     host,
		RawQuery: q.Encode(),
	}
	if instance != "" {
		u.Path = instance
	}
	return u.String()
}

// quoteIdent brackets a SQL Server identifier.
func quoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
