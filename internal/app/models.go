package app

import (
	"time"

	"github.com/joacominatel/tdskit/tdsclient"
)

// Column represents a table column with its metadata.
type Column struct {
	Name       string
	DataType   string
	IsNullable bool
	OrdinalPos int
}

// QueryResult holds the delivered result of a SQL batch.
type QueryResult struct {
	Columns  []string
	Rows     tdsclient.Table
	RowCount int

	// Sets counts the sink deliveries. With DeliverLast it is always 1, even
	// for a batch that returned no result set.
	Sets     int
	Duration time.Duration
}

// SchemaTree represents the loaded schema hierarchy for the explorer.
type SchemaTree struct {
	Database string
	Schemas  []SchemaNode
}

// SchemaNode holds a schema name and its tables.
type SchemaNode struct {
	Name   string
	Tables []string
}

// LoadJob describes one file to bulk load.
type LoadJob struct {
	Schema string
	Table  string
	Path   string

	// Bindings describe the file's columns. When empty, the file must carry a
	// header and every column binds as VARCHAR.
	Bindings []tdsclient.Binding

	// LogColumns names the bound columns echoed into the load summary.
	LogColumns []string

	Charset string
	Comma   rune
	Header  bool
}

// LoadReport is the outcome of one LoadJob.
type LoadReport struct {
	Operation string
	Table     string
	Path      string
	Rows      int
	Duration  time.Duration
	Err       error
}
