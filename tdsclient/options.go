package tdsclient

import (
	"log/slog"

	"github.com/joacominatel/tdskit/driver"
)

// DefaultDialect is the dialect sessions use when none is configured. The
// dialect package must be imported for it to be registered.
const DefaultDialect = "mssql"

// DefaultErrorFile receives diagnostics for rows the server rejects during a
// bulk load.
const DefaultErrorFile = "bcp.errors"

// Delivery selects which result sets Fetch hands to the sink.
type Delivery int

const (
	// DeliverLast hands over only the last row-bearing result set.
	DeliverLast Delivery = iota
	// DeliverEach hands over every row-bearing result set as it completes.
	DeliverEach
)

func (d Delivery) String() string {
	switch d {
	case DeliverEach:
		return "each"
	default:
		return "last"
	}
}

// Options configures sessions. The zero value is usable.
type Options struct {
	// Dialect names a registered driver. Ignored when Driver is set.
	Dialect string

	// Driver overrides the registry lookup.
	Driver driver.Driver

	Logger    *slog.Logger
	Delivery  Delivery
	ErrorFile string
}

func (o Options) withDefaults() Options {
	if o.Dialect == "" {
		o.Dialect = DefaultDialect
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.ErrorFile == "" {
		o.ErrorFile = DefaultErrorFile
	}
	return o
}
