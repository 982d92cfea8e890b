package mssql

// SQL used by the SQL Server dialect.
const (
	queryUseDatabase = `USE %s`

	// queryDescribeTable returns no rows; its columns give the table layout
	// a bulk copy binds against.
	queryDescribeTable = `SELECT TOP 0 * FROM %s`
)
