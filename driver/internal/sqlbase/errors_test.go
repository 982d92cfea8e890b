package sqlbase

import (
	"database/sql"
	sqldriver "database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/joacominatel/tdskit/driver"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		dbErr    int
		dead     bool
		osErr    int
		severity int
	}{
		{name: "eof", err: fmt.Errorf("read: %w", io.EOF), dbErr: driver.ErrDeadProcess, dead: true, severity: SeverityComm},
		{name: "bad conn", err: sqldriver.ErrBadConn, dbErr: driver.ErrDeadProcess, dead: true, severity: SeverityComm},
		{name: "conn done", err: sql.ErrConnDone, dbErr: driver.ErrDeadProcess, dead: true, severity: SeverityComm},
		{
			name:     "errno",
			err:      &net.OpError{Op: "dial", Net: "tcp", Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED}},
			dbErr:    driver.ErrConnect,
			osErr:    int(syscall.ECONNREFUSED),
			severity: SeverityComm,
		},
		{
			name:     "net",
			err:      &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("i/o timeout")},
			dbErr:    driver.ErrConnect,
			osErr:    -1,
			severity: SeverityComm,
		},
		{name: "generic", err: errors.New("login failed"), dbErr: driver.ErrConnect, severity: SeverityProgram},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ev := Classify(driver.ErrConnect, tt.err)
			if ev.DBErr != tt.dbErr {
				t.Errorf("expected dberr %d, got %d", tt.dbErr, ev.DBErr)
			}
			if ev.Dead != tt.dead {
				t.Errorf("expected dead=%v, got %v", tt.dead, ev.Dead)
			}
			if ev.OSErr != tt.osErr {
				t.Errorf("expected oserr %d, got %d", tt.osErr, ev.OSErr)
			}
			if ev.Severity != tt.severity {
				t.Errorf("expected severity %d, got %d", tt.severity, ev.Severity)
			}
			if ev.DBErrText != tt.err.Error() {
				t.Errorf("expected error text %q, got %q", tt.err.Error(), ev.DBErrText)
			}
		})
	}
}

func TestServerError(t *testing.T) {
	ev := ServerError(16)
	if ev.Severity != 16 || ev.DBErr != driver.ErrServerMessage || ev.DBErrText != ServerErrorText {
		t.Errorf("unexpected event %+v", ev)
	}
}
