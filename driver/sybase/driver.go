// Package sybase is the Sybase ASE dialect, built on thda/tds.
//
// Importing the package registers it under the name "sybase". The
// underlying driver has no bulk-copy support, so bulk-mode logins are
// refused at Open.
package sybase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"

	"github.com/thda/tds"

	"github.com/joacominatel/tdskit/driver"
)

// Name is the dialect name the package registers under.
const Name = "sybase"

// defaultPort is the ASE listener port used when the host carries none.
const defaultPort = "5000"

// ErrBulkUnsupported is returned for bulk-mode logins and bulk operations.
var ErrBulkUnsupported = errors.New("sybase: bulk copy is not supported")

func init() {
	driver.Register(Name, New())
}

// Driver implements driver.Driver for Sybase ASE.
type Driver struct {
	// Charset is the client character set requested at login.
	Charset string

	handlerOnce sync.Once
}

// New creates a new Sybase driver.
func New() *Driver {
	return &Driver{Charset: "utf8"}
}

// Name implements driver.Driver.
func (d *Driver) Name() string {
	return Name
}

// Open logs in and pins one connection for the session.
func (d *Driver) Open(ctx context.Context, login driver.Login) (driver.Conn, error) {
	if login.BulkCopy {
		return nil, raise(driver.ErrConnect, ErrBulkUnsupported)
	}

	db, err := sql.Open("tds", buildDSN(login, d.Charset))
	if err != nil {
		return nil, raise(driver.ErrConnect, fmt.Errorf("open: %w", err))
	}
	d.handlerOnce.Do(func() { installMessageHandler(db) })
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, raise(driver.ErrConnect, fmt.Errorf("connect: %w", err))
	}
	return &Conn{db: db, conn: conn}, nil
}

// installMessageHandler routes every server message through the
// process-wide message handler. The tds driver keeps one handler for all
// connections.
func installMessageHandler(db *sql.DB) {
	h, ok := db.Driver().(tds.ErrorHandler)
	if !ok {
		return
	}
	h.SetErrorhandler(func(m tds.SybError) bool {
		driver.Notify(serverMessage(m))
		return m.Severity > 10
	})
}

// buildDSN turns a login into a tds:// URL.
func buildDSN(login driver.Login, charset string) string {
	host := login.Host
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, defaultPort)
	}

	q := url.Values{}
	if charset != "" {
		q.Set("charset", charset)
	}
	if login.AppName != "" {
		q.Set("applicationName", login.AppName)
	}

	u := &url.URL{
		Scheme:   "tds",
		User:     url.UserPassword(login.User, login.Password),
		Host:     host,
		Path:     "/",
		RawQuery: q.Encode(),
	}
	return u.String()
}

func serverMessage(m tds.SybError) driver.ServerMessage {
	return driver.ServerMessage{
		Number:    int(m.MsgNumber),
		State:     int(m.State),
		Severity:  int(m.Severity),
		Text:      m.Message,
		Server:    m.Server,
		Procedure: m.Procedure,
		Line:      int(m.LineNumber),
	}
}
