package tdsclient

import (
	"context"

	"github.com/joacominatel/tdskit/driver"
)

// Execute selects database, submits sql and runs it. Its results stay
// pending until Fetch is called or the session is closed.
func (s *Session) Execute(ctx context.Context, database, sql string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.claim(opExecute); err != nil {
		return err
	}
	return s.execute(ctx, database, sql)
}

func (s *Session) execute(ctx context.Context, database, sql string) error {
	if s.results != nil {
		_ = s.results.Close()
		s.results = nil
	}
	if err := ctx.Err(); err != nil {
		return &ErrExecution{Phase: PhaseExecute, Database: database, SQL: sql, Cause: err}
	}

	log := s.logger.With("database", database)

	if err := s.conn.Use(ctx, database); err != nil {
		log.Error("failed to change database", "error", err)
		return &ErrExecution{Phase: PhaseUse, Database: database, SQL: sql, Cause: err}
	}
	if err := s.conn.Command(sql); err != nil {
		log.Error("failed to set sql", "sql", sql, "error", err)
		return &ErrExecution{Phase: PhaseCommand, Database: database, SQL: sql, Cause: err}
	}
	res, err := s.conn.Execute(ctx)
	if err != nil {
		log.Error("failed to execute sql", "sql", sql, "error", err)
		return &ErrExecution{Phase: PhaseExecute, Database: database, SQL: sql, Cause: err}
	}
	s.results = res
	return nil
}

// drain discards every pending result set.
func (s *Session) drain() {
	if s.results == nil {
		return
	}
	for {
		status := s.results.NextResult()
		if status != driver.ResultSucceed {
			break
		}
		for s.results.NextRow() == driver.RegularRow {
		}
	}
	_ = s.results.Close()
	s.results = nil
}
