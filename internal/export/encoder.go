// Package export writes delivered result sets to files in CSV, JSON Lines or
// Excel format.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joacominatel/tdskit/tdsclient"
)

// Format names accepted by New.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatExcel = "xlsx"
)

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("export: unknown format")

// RowEncoder defines a common interface for the export formats.
type RowEncoder interface {
	// WriteHeader writes the column names. It is called once per result set,
	// before its rows.
	WriteHeader(columns []string) error

	// WriteRow writes a single row of text values.
	WriteRow(values []string) error

	// Flush ensures all buffered data is written to the underlying writer.
	Flush() error

	// Error returns the first error that occurred during encoding, if any.
	Error() error

	// Close flushes the encoder and releases any resources.
	io.Closer
}

// New returns the encoder for format writing to w.
func New(format string, w io.Writer) (RowEncoder, error) {
	switch strings.ToLower(format) {
	case FormatCSV, "":
		return NewCSVEncoder(w), nil
	case FormatJSON, "jsonl":
		return NewJSONEncoder(w), nil
	case FormatExcel, "excel":
		return NewExcelEncoder(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteResultSet writes one result set through enc.
func WriteResultSet(enc RowEncoder, columns []string, rows tdsclient.Table) error {
	if err := enc.WriteHeader(columns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := enc.WriteRow(row); err != nil {
			return err
		}
	}
	return enc.Error()
}

// Sink adapts an encoder to a result sink. Encoding errors are kept and
// returned by the second return value, since a sink cannot fail. A delivery
// without columns writes nothing.
func Sink(enc RowEncoder) (tdsclient.ResultSink, func() error) {
	var err error
	sink := func(columns []string, rows tdsclient.Table) {
		if err != nil || len(columns) == 0 {
			return
		}
		err = WriteResultSet(enc, columns, rows)
	}
	return sink, func() error { return err }
}
