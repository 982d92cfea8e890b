package sybase

import (
	"errors"

	"github.com/thda/tds"

	"github.com/joacominatel/tdskit/driver"
	"github.com/joacominatel/tdskit/driver/internal/sqlbase"
)

// raise reports err to the error handler and returns it. Server messages
// were already delivered by the tds message callback.
func raise(dbErr int, err error) error {
	driver.RaiseError(classify(dbErr, err))
	return err
}

func classify(dbErr int, err error) driver.ErrorEvent {
	var se tds.SybError
	if errors.As(err, &se) {
		return sqlbase.ServerError(int(se.Severity))
	}
	return sqlbase.Classify(dbErr, err)
}
