package sqlbase

import (
	"database/sql"
	sqldriver "database/sql/driver"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/joacominatel/tdskit/driver"
)

// Severities of failures that did not come from the server.
const (
	SeverityProgram = 7
	SeverityComm    = 9
)

// ServerErrorText is the error text reported when the server sent an error
// message; the message itself goes to the message handler.
const ServerErrorText = "General SQL Server error: Check messages from the SQL Server"

// Classify maps a client side failure onto a DB-Library style error event.
// Broken connections are reported dead; network and system call failures
// carry an operating-system error.
func Classify(dbErr int, err error) driver.ErrorEvent {
	ev := driver.ErrorEvent{
		Severity:  SeverityProgram,
		DBErr:     dbErr,
		DBErrText: err.Error(),
	}

	if errors.Is(err, sqldriver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, io.EOF) {
		ev.Severity = SeverityComm
		ev.Dead = true
		ev.DBErr = driver.ErrDeadProcess
	}

	var errno syscall.Errno
	var opErr *net.OpError
	switch {
	case errors.As(err, &errno):
		ev.Severity = SeverityComm
		ev.OSErr = int(errno)
		ev.OSErrText = errno.Error()
	case errors.As(err, &opErr):
		ev.Severity = SeverityComm
		ev.OSErr = -1
		ev.OSErrText = opErr.Err.Error()
	}
	return ev
}

// ServerError builds the event for a failure carrying a server message of
// the given severity.
func ServerError(severity int) driver.ErrorEvent {
	return driver.ErrorEvent{
		Severity:  severity,
		DBErr:     driver.ErrServerMessage,
		DBErrText: ServerErrorText,
	}
}
