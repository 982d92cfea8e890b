package tdsclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/joacominatel/tdskit/driver"
)

// PrepareBulk enables bulk operations on database, checkpoints it and starts
// a bulk copy into database.schema.table. The session must have been opened
// in bulk mode.
func (s *Session) PrepareBulk(ctx context.Context, database, schema, table string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if !s.bulkMode {
		return ErrNotBulkMode
	}
	if err := s.claim(opBulk); err != nil {
		return err
	}

	if err := s.execute(ctx, "master", "execute sp_dboption "+database+", 'bulk', true"); err != nil {
		return err
	}
	s.drain()

	if err := s.execute(ctx, database, "checkpoint"); err != nil {
		return err
	}
	s.drain()

	target := database + "." + schema + "." + table
	copier, err := s.conn.BulkInit(ctx, target, s.opts.ErrorFile)
	if err != nil {
		s.logger.Error("failed to prepare bulkcopy", "table", target, "error", err)
		return &ErrBulk{Phase: PhaseBulkInit, Table: target, Cause: err}
	}
	s.copier = copier
	s.table = target
	return nil
}

// Load binds every field of every row to its positional binding, sends the
// rows and finalizes the copy. Values of columns named in sel are echoed into
// the summary log record as " name : value" fragments.
//
// A field without a binding, or a failed bind, send or finalize, aborts the
// load.
func (s *Session) Load(ctx context.Context, rows Table, bindings []Binding, sel LogSelector) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.claimed != opBulk || s.copier == nil {
		return ErrNotPrepared
	}
	copier := s.copier
	s.copier = nil

	log := s.logger.With("op", "bulk", "table", s.table)
	var audit strings.Builder

	for r, row := range rows {
		if err := ctx.Err(); err != nil {
			return &ErrBulk{Phase: PhaseSendRow, Table: s.table, Row: r + 1, Cause: err}
		}

		for i, field := range row {
			pos := i + 1
			if i >= len(bindings) {
				err := &ErrBulk{Phase: PhaseBind, Table: s.table, Row: r + 1, Column: pos,
					Cause: fmt.Errorf("%w: %d fields, %d bindings", ErrBindingOutOfRange, len(row), len(bindings))}
				log.Error("failed to bind", "row", r+1, "column", pos, "error", err)
				return err
			}

			if err := copier.Bind(bindField(pos, field, bindings[i].Type)); err != nil {
				log.Error("failed to bind", "row", r+1, "column", pos, "name", bindings[i].Name, "error", err)
				return &ErrBulk{Phase: PhaseBind, Table: s.table, Row: r + 1, Column: pos, Cause: err}
			}
			if sel.Has(bindings[i].Name) {
				fmt.Fprintf(&audit, " %s : %s", bindings[i].Name, field)
			}
		}

		if err := copier.SendRow(ctx); err != nil {
			log.Error("failed to send row", "row", r+1, "error", err)
			return &ErrBulk{Phase: PhaseSendRow, Table: s.table, Row: r + 1, Cause: err}
		}
	}

	sent, err := copier.Done(ctx)
	if err != nil {
		log.Error("failed to finish bulkcopy", "error", err)
		return &ErrBulk{Phase: PhaseDone, Table: s.table, Cause: err}
	}
	log.Info("bulk copy sent", "rows", sent, "logged", audit.String())
	return nil
}

// bindField builds the driver binding of one field. Terminated types carry a
// trailing NUL and no byte count.
func bindField(pos int, field string, typ driver.TypeCode) driver.Bind {
	if typ.Terminated() {
		data := make([]byte, len(field)+1)
		copy(data, field)
		return driver.Bind{Column: pos, Data: data, Length: driver.VarLenTerminated, Type: typ}
	}
	return driver.Bind{Column: pos, Data: []byte(field), Length: len(field), Type: typ}
}
