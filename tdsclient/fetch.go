package tdsclient

import (
	"context"
	"log/slog"

	"github.com/joacominatel/tdskit/driver"
)

// Fetch walks the pending results of Execute and hands them to sink
// according to the session's Delivery. With DeliverLast, sink is called
// exactly once, at the end, with the last result set that had columns; when
// none had any it gets empty columns and rows. With DeliverEach it is called
// once per result set with columns.
//
// Row and conversion failures are logged and skipped; Fetch only fails when
// the session cannot fetch at all.
func (s *Session) Fetch(ctx context.Context, sink ResultSink) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.claimed != opExecute || s.results == nil {
		return ErrNotExecuted
	}
	res := s.results
	s.results = nil
	defer res.Close()

	log := s.logger.With("op", "fetch")
	var last *ResultSet
	for {
		if err := ctx.Err(); err != nil {
			log.Error("fetch cancelled", "error", err)
			break
		}

		status := res.NextResult()
		if status == driver.NoMoreResults {
			break
		}
		if status == driver.ResultFail {
			log.Error("failed to fetch a result", "error", res.Err())
			break
		}

		cols := res.Columns()
		if len(cols) == 0 {
			continue
		}

		set := &ResultSet{Columns: make([]string, len(cols))}
		for i, col := range cols {
			set.Columns[i] = col.Name
		}
		readRows(ctx, res, cols, set, log)

		if s.opts.Delivery == DeliverEach {
			sink(set.Columns, set.Rows)
			continue
		}
		last = set
	}

	if s.opts.Delivery == DeliverEach {
		return nil
	}
	if last == nil {
		last = &ResultSet{Columns: []string{}, Rows: Table{}}
	}
	sink(last.Columns, last.Rows)
	return nil
}

func readRows(ctx context.Context, res driver.Results, cols []driver.Column, set *ResultSet, log *slog.Logger) {
	for ctx.Err() == nil {
		switch res.NextRow() {
		case driver.NoMoreRows:
			return
		case driver.RegularRow:
			set.Rows = append(set.Rows, convertRow(res, cols, log))
		case driver.BufferFull:
			log.Error("failed to fetch a row, the buffer is full")
		case driver.RowFail:
			log.Error("failed to fetch a row", "error", res.Err())
		}
	}
}

// convertRow converts the current row. A value that cannot be converted ends
// the row early; the fields converted before it are kept.
func convertRow(res driver.Results, cols []driver.Column, log *slog.Logger) []string {
	row := make([]string, 0, len(cols))
	for i, col := range cols {
		text, err := convertValue(res.Value(i), col)
		if err != nil {
			log.Error("failed to fetch column data", "column", col.Name, "error", err)
			break
		}
		row = append(row, text)
	}
	return row
}
