package mssql

import (
	"errors"

	mssqldb "github.com/microsoft/go-mssqldb"

	"github.com/joacominatel/tdskit/driver"
	"github.com/joacominatel/tdskit/driver/internal/sqlbase"
)

// raise forwards the server messages carried by err to the message handler,
// reports err to the error handler and returns it.
func raise(dbErr int, err error) error {
	for _, msg := range serverMessages(err) {
		driver.Notify(msg)
	}
	driver.RaiseError(classify(dbErr, err))
	return err
}

// serverMessages unpacks every server error carried by err.
func serverMessages(err error) []driver.ServerMessage {
	var se mssqldb.Error
	if !errors.As(err, &se) {
		return nil
	}
	all := se.All
	if len(all) == 0 {
		all = []mssqldb.Error{se}
	}
	msgs := make([]driver.ServerMessage, len(all))
	for i, e := range all {
		msgs[i] = driver.ServerMessage{
			Number:    int(e.Number),
			State:     int(e.State),
			Severity:  int(e.Class),
			Text:      e.Message,
			Server:    e.ServerName,
			Procedure: e.ProcName,
			Line:      int(e.LineNo),
		}
	}
	return msgs
}

func classify(dbErr int, err error) driver.ErrorEvent {
	var se mssqldb.Error
	if errors.As(err, &se) {
		return sqlbase.ServerError(int(se.Class))
	}
	return sqlbase.Classify(dbErr, err)
}
