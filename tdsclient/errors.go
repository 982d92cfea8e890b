package tdsclient

import (
	"errors"
	"fmt"
)

// Phases reported by the typed errors below.
const (
	PhaseInit     = "init"
	PhaseLogin    = "login"
	PhaseConnect  = "connect"
	PhaseUse      = "use"
	PhaseCommand  = "command"
	PhaseExecute  = "execute"
	PhaseBulkInit = "bulk init"
	PhaseBind     = "bind"
	PhaseSendRow  = "send row"
	PhaseDone     = "done"
)

var (
	// ErrNotConnected is returned by operations on a session whose
	// initialization failed.
	ErrNotConnected = errors.New("session is not connected")

	// ErrSessionUsed is returned when a second logical operation is started
	// on a session. Sessions are single use.
	ErrSessionUsed = errors.New("session already used")

	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrNotExecuted is returned by Fetch without a preceding Execute.
	ErrNotExecuted = errors.New("no executed command to fetch from")

	// ErrNotPrepared is returned by Load without a preceding PrepareBulk.
	ErrNotPrepared = errors.New("bulk copy not prepared")

	// ErrNotBulkMode is returned by PrepareBulk on a plain session.
	ErrNotBulkMode = errors.New("session was not opened in bulk mode")

	// ErrContextTornDown is returned when the process-wide driver context was
	// torn down after the session was opened.
	ErrContextTornDown = errors.New("driver context was torn down")

	// ErrBindingOutOfRange is returned when a row has more fields than there
	// are bindings.
	ErrBindingOutOfRange = errors.New("field position has no binding")

	// ErrCapacityExceeded is returned when a converted value does not fit in
	// its conversion buffer.
	ErrCapacityExceeded = errors.New("conversion buffer capacity exceeded")
)

// ErrInit represents a failure while opening a session.
type ErrInit struct {
	Phase string
	Host  string
	Cause error
}

func (e *ErrInit) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Phase, e.Host, e.Cause)
	}
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Cause)
}

func (e *ErrInit) Unwrap() error {
	return e.Cause
}

// ErrExecution represents a failure while selecting a database, submitting
// or executing a command.
type ErrExecution struct {
	Phase    string
	Database string
	SQL      string
	Cause    error
}

func (e *ErrExecution) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Cause)
}

func (e *ErrExecution) Unwrap() error {
	return e.Cause
}

// ErrBulk represents a failure of a bulk-copy step. Row and Column are
// 1-based and zero when the failure is not tied to a field.
type ErrBulk struct {
	Phase  string
	Table  string
	Row    int
	Column int
	Cause  error
}

func (e *ErrBulk) Error() string {
	switch {
	case e.Column > 0:
		return fmt.Sprintf("bulk %s failed at row %d column %d: %v", e.Phase, e.Row, e.Column, e.Cause)
	case e.Row > 0:
		return fmt.Sprintf("bulk %s failed at row %d: %v", e.Phase, e.Row, e.Cause)
	default:
		return fmt.Sprintf("bulk %s failed: %v", e.Phase, e.Cause)
	}
}

func (e *ErrBulk) Unwrap() error {
	return e.Cause
}
