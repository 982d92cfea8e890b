/*
Package tdsclient runs queries and bulk loads against TDS servers (Microsoft
SQL Server and Sybase ASE).

Every operation runs on a fresh Session: open, one logical operation, close.
The three one-shot entry points wrap that sequence and collapse the outcome to
0 (success) or 1 (failure):

	import _ "github.com/joacominatel/tdskit/driver/mssql"

	rc := tdsclient.ExecuteQueryAndFetch(host, user, pass, "reports", "sales",
		"SELECT id, name FROM customers",
		func(cols []string, rows tdsclient.Table) {
			// rows are text; NULL is rendered as "NULL"
		})

Bulk loads take text rows plus one positional Binding per column:

	rc := tdsclient.BulkCopy(host, user, pass, "loader", "sales", "dbo", "customers",
		rows, []tdsclient.Binding{
			{Name: "id", Type: driver.TypeInt4},
			{Name: "name", Type: driver.TypeVarChar},
		}, "id")

Shared state

All sessions share one process-wide driver context. Handler registration is
last-writer-wins, and a fatal transport error tears the context down for
every session, not only the failing one. Sessions opened before a teardown
fail their next operation with ErrContextTornDown.
*/
package tdsclient
