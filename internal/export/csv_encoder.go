package export

import (
	"bufio"
	"encoding/csv"
	"io"
)

// CSVEncoder wraps encoding/csv behind a 64KB buffered writer. Consecutive
// result sets are separated by an empty line.
type CSVEncoder struct {
	w    *csv.Writer
	buf  *bufio.Writer
	sets int
}

// NewCSVEncoder creates a new CSV encoder that writes to w.
func NewCSVEncoder(w io.Writer) *CSVEncoder {
	buf := bufio.NewWriterSize(w, 64*1024)
	return &CSVEncoder{
		w:   csv.NewWriter(buf),
		buf: buf,
	}
}

// WriteHeader writes the CSV header row.
func (e *CSVEncoder) WriteHeader(columns []string) error {
	if e.sets > 0 {
		e.w.Flush()
		if _, err := e.buf.WriteString("\n"); err != nil {
			return err
		}
	}
	e.sets++
	return e.w.Write(columns)
}

func (e *CSVEncoder) WriteRow(values []string) error {
	return e.w.Write(values)
}

// Flush ensures all data is written to the underlying writer.
func (e *CSVEncoder) Flush() error {
	e.w.Flush()
	if err := e.w.Error(); err != nil {
		return err
	}
	return e.buf.Flush()
}

func (e *CSVEncoder) Error() error {
	return e.w.Error()
}

func (e *CSVEncoder) Close() error {
	return e.Flush()
}
