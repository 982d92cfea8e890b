package mssql

import (
	"database/sql"

	mssqldb "github.com/microsoft/go-mssqldb"

	"github.com/joacominatel/tdskit/driver"
	"github.com/joacominatel/tdskit/driver/internal/sqlbase"
)

func newResults(rows *sql.Rows) *sqlbase.Results {
	res := sqlbase.New(rows)
	res.Raise = func(err error) { raise(driver.ErrServerMessage, err) }
	res.Convert = convertValue
	return res
}

// convertValue renders uniqueidentifiers in their canonical form instead of
// the mixed-endian wire bytes.
func convertValue(col driver.Column, v any) any {
	b, ok := v.([]byte)
	if !ok || col.TypeName != "UNIQUEIDENTIFIER" {
		return v
	}
	var id mssqldb.UniqueIdentifier
	if err := id.Scan(b); err != nil {
		return v
	}
	return id.String()
}
