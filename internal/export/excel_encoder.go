package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// MaxExcelRows is the worksheet row limit of the xlsx format.
const MaxExcelRows = 1048576

var errExcelRowLimit = fmt.Errorf("excel row limit exceeded (%d rows)", MaxExcelRows)

// ExcelEncoder implements RowEncoder for Excel (.xlsx) files through
// excelize.StreamWriter. Each result set gets its own worksheet.
type ExcelEncoder struct {
	f       *excelize.File
	sw      *excelize.StreamWriter
	w       io.Writer
	sheets  int
	rowIdx  int
	written bool
	err     error
}

// NewExcelEncoder creates a new Excel encoder. The workbook is written to w
// on Flush.
func NewExcelEncoder(w io.Writer) *ExcelEncoder {
	return &ExcelEncoder{
		f: excelize.NewFile(),
		w: w,
	}
}

func (e *ExcelEncoder) WriteHeader(columns []string) error {
	if e.err != nil {
		return e.err
	}
	if err := e.nextSheet(); err != nil {
		e.err = err
		return err
	}
	return e.setRow(columns)
}

// nextSheet starts a worksheet for a new result set, reusing the default
// sheet for the first one.
func (e *ExcelEncoder) nextSheet() error {
	if e.sw != nil {
		if err := e.sw.Flush(); err != nil {
			return err
		}
	}
	e.sheets++
	name := fmt.Sprintf("Sheet%d", e.sheets)
	if e.sheets > 1 {
		if _, err := e.f.NewSheet(name); err != nil {
			return err
		}
	}
	sw, err := e.f.NewStreamWriter(name)
	if err != nil {
		return err
	}
	e.sw = sw
	e.rowIdx = 1
	return nil
}

func (e *ExcelEncoder) WriteRow(values []string) error {
	if e.err != nil {
		return e.err
	}
	if e.sw == nil || e.written {
		e.err = errors.New("excel: row written outside a result set")
		return e.err
	}
	if e.rowIdx > MaxExcelRows {
		e.err = errExcelRowLimit
		return e.err
	}
	return e.setRow(values)
}

func (e *ExcelEncoder) setRow(values []string) error {
	row := make([]any, len(values))
	for i, s := range values {
		// Formula injection mitigation
		if len(s) > 0 {
			switch s[0] {
			case '=', '+', '-', '@':
				s = "'" + s
			}
		}
		row[i] = s
	}

	cell, err := excelize.CoordinatesToCellName(1, e.rowIdx)
	if err != nil {
		e.err = err
		return err
	}
	if err := e.sw.SetRow(cell, row); err != nil {
		e.err = err
		return err
	}
	e.rowIdx++
	return nil
}

// Flush finishes the current worksheet and writes the workbook.
func (e *ExcelEncoder) Flush() error {
	if e.err != nil || e.written {
		return e.err
	}
	if e.sw != nil {
		if err := e.sw.Flush(); err != nil {
			e.err = err
			return err
		}
		e.sw = nil
	}
	if err := e.f.Write(e.w); err != nil {
		e.err = err
		return err
	}
	e.written = true
	return nil
}

func (e *ExcelEncoder) Error() error {
	return e.err
}

func (e *ExcelEncoder) Close() error {
	return errors.Join(e.Flush(), e.f.Close())
}
