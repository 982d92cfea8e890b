package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joacominatel/tdskit/internal/config"
	"github.com/joacominatel/tdskit/internal/loadfile"
	"github.com/joacominatel/tdskit/internal/logging"
	"github.com/joacominatel/tdskit/tdsclient"
)

const (
	queryPing = "SELECT 1"

	defaultSchema = "dbo"

	// DefaultLoadConcurrency bounds the bulk sessions Load keeps open at once.
	DefaultLoadConcurrency = 4
)

// Service coordinates application-level operations between the shell, the
// command line and the server. Every operation runs on its own session, so a
// Service may be used from several goroutines.
type Service struct {
	opts tdsclient.Options

	// LoadConcurrency bounds concurrent bulk loads. Zero means
	// DefaultLoadConcurrency.
	LoadConcurrency int

	mu        sync.RWMutex
	profile   config.Connection
	connected bool
}

// NewService creates a new application service. opts is the base for every
// session; its dialect is replaced by the connected profile's unless an
// explicit Driver is set.
func NewService(opts tdsclient.Options) *Service {
	return &Service{opts: opts}
}

// Connect checks that the profile can log in and use its database, then makes
// it the profile for later operations.
func (s *Service) Connect(ctx context.Context, profile config.Connection) error {
	sess := tdsclient.Open(ctx, profile.Login(), false, s.sessionOptions(ctx, profile))
	defer sess.Close()
	if sess.Initialized() != 0 {
		return &ErrConnection{Profile: profile.Name, Cause: sess.Err()}
	}
	if err := sess.Execute(ctx, profile.Database, queryPing); err != nil {
		return &ErrConnection{Profile: profile.Name, Cause: err}
	}

	s.mu.Lock()
	s.profile = profile
	s.connected = true
	s.mu.Unlock()
	return nil
}

// Disconnect forgets the connected profile.
func (s *Service) Disconnect() error {
	s.mu.Lock()
	s.profile = config.Connection{}
	s.connected = false
	s.mu.Unlock()
	return nil
}

// DatabaseName returns the current database name.
func (s *Service) DatabaseName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Database
}

// Profile returns the connected profile.
func (s *Service) Profile() (config.Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile, s.connected
}

func (s *Service) current() (config.Connection, error) {
	profile, ok := s.Profile()
	if !ok {
		return config.Connection{}, ErrNotConnected
	}
	return profile, nil
}

func (s *Service) sessionOptions(ctx context.Context, profile config.Connection) tdsclient.Options {
	opts := s.opts
	if opts.Driver == nil {
		opts.Dialect = profile.DialectName()
	}
	opts.Logger = s.logger(ctx)
	return opts
}

func (s *Service) logger(ctx context.Context) *slog.Logger {
	if s.opts.Logger == nil {
		return logging.FromContext(ctx)
	}
	if id := logging.Operation(ctx); id != "" {
		return s.opts.Logger.With("operation", id)
	}
	return s.opts.Logger
}

// Execute runs sql without reading its results.
func (s *Service) Execute(ctx context.Context, sql string) error {
	profile, err := s.current()
	if err != nil {
		return err
	}

	sess := tdsclient.Open(ctx, profile.Login(), false, s.sessionOptions(ctx, profile))
	defer sess.Close()
	if sess.Initialized() != 0 {
		return &ErrConnection{Profile: profile.Name, Cause: sess.Err()}
	}
	if err := sess.Execute(ctx, profile.Database, sql); err != nil {
		return &ErrQuery{Query: sql, Cause: err}
	}
	return nil
}

// Fetch runs query and hands its result sets to sink.
func (s *Service) Fetch(ctx context.Context, query string, sink tdsclient.ResultSink) error {
	profile, err := s.current()
	if err != nil {
		return err
	}

	sess := tdsclient.Open(ctx, profile.Login(), false, s.sessionOptions(ctx, profile))
	defer sess.Close()
	if sess.Initialized() != 0 {
		return &ErrConnection{Profile: profile.Name, Cause: sess.Err()}
	}
	if err := sess.Execute(ctx, profile.Database, query); err != nil {
		return &ErrQuery{Query: query, Cause: err}
	}
	if err := sess.Fetch(ctx, sink); err != nil {
		return &ErrQuery{Query: query, Cause: err}
	}
	return nil
}

// ExecuteQuery runs a SQL query and returns the delivered result set.
func (s *Service) ExecuteQuery(ctx context.Context, query string) (*QueryResult, error) {
	start := time.Now()
	result := &QueryResult{}
	err := s.Fetch(ctx, query, func(columns []string, rows tdsclient.Table) {
		result.Sets++
		result.Columns = columns
		result.Rows = rows
	})
	if err != nil {
		return nil, err
	}
	result.RowCount = len(result.Rows)
	result.Duration = time.Since(start)
	return result, nil
}

// LoadSchemaTree fetches schemas and their tables for the connected database.
func (s *Service) LoadSchemaTree(ctx context.Context) (*SchemaTree, error) {
	profile, err := s.current()
	if err != nil {
		return nil, err
	}

	result, err := s.ExecuteQuery(ctx, listTablesQuery(profile.DialectName()))
	if err != nil {
		return nil, err
	}

	tree := &SchemaTree{Database: profile.Database}
	for _, row := range result.Rows {
		if len(row) < 2 {
			continue
		}
		schema, table := row[0], row[1]
		if n := len(tree.Schemas); n == 0 || tree.Schemas[n-1].Name != schema {
			tree.Schemas = append(tree.Schemas, SchemaNode{Name: schema})
		}
		last := &tree.Schemas[len(tree.Schemas)-1]
		last.Tables = append(last.Tables, table)
	}
	return tree, nil
}

// LoadColumns fetches column metadata for a specific table.
func (s *Service) LoadColumns(ctx context.Context, schema, table string) ([]Column, error) {
	profile, err := s.current()
	if err != nil {
		return nil, err
	}

	result, err := s.ExecuteQuery(ctx, columnsQuery(profile.DialectName(), schema, table))
	if err != nil {
		return nil, err
	}

	columns := make([]Column, 0, len(result.Rows))
	for _, row := range result.Rows {
		if len(row) < 4 {
			continue
		}
		pos, _ := strconv.Atoi(row[3])
		columns = append(columns, Column{
			Name:       row[0],
			DataType:   row[1],
			IsNullable: strings.EqualFold(row[2], "YES"),
			OrdinalPos: pos,
		})
	}
	return columns, nil
}

// AllTableNames flattens a schema tree into completion candidates: every
// table both bare and schema-qualified.
func (s *Service) AllTableNames(tree *SchemaTree) []string {
	if tree == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var names []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for _, schema := range tree.Schemas {
		for _, table := range schema.Tables {
			add(table)
			add(schema.Name + "." + table)
		}
	}
	return names
}

// Load bulk loads every job over its own session, at most LoadConcurrency at
// a time. A failed job does not stop the others; the returned error joins
// every failure and the reports line up with jobs.
func (s *Service) Load(ctx context.Context, jobs []LoadJob) ([]LoadReport, error) {
	profile, err := s.current()
	if err != nil {
		return nil, err
	}

	limit := s.LoadConcurrency
	if limit <= 0 {
		limit = DefaultLoadConcurrency
	}

	reports := make([]LoadReport, len(jobs))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, job := range jobs {
		g.Go(func() error {
			reports[i] = s.load(ctx, profile, job)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range reports {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return reports, errors.Join(errs...)
}

func (s *Service) load(ctx context.Context, profile config.Connection, job LoadJob) LoadReport {
	id := uuid.NewString()
	ctx = logging.WithOperation(ctx, id)
	log := s.logger(ctx).With("table", job.Table, "file", job.Path)

	start := time.Now()
	report := LoadReport{Operation: id, Table: job.Table, Path: job.Path}
	fail := func(err error) LoadReport {
		report.Err = &ErrLoad{Table: job.Table, File: job.Path, Cause: err}
		report.Duration = time.Since(start)
		log.Error("load failed", "error", err)
		return report
	}

	file, err := loadfile.ReadFile(job.Path, loadfile.Options{
		Charset: job.Charset,
		Comma:   job.Comma,
		Header:  job.Header || len(job.Bindings) == 0,
	})
	if err != nil {
		return fail(err)
	}

	bindings := job.Bindings
	if len(bindings) == 0 {
		bindings = file.Bindings(nil)
	}
	if len(bindings) == 0 {
		return fail(fmt.Errorf("no column bindings for %s", job.Path))
	}

	schema := job.Schema
	if schema == "" {
		schema = defaultSchema
	}

	log.Info("load started", "rows", len(file.Rows))
	sess := tdsclient.Open(ctx, profile.Login(), true, s.sessionOptions(ctx, profile))
	defer sess.Close()
	if sess.Initialized() != 0 {
		return fail(sess.Err())
	}
	if err := sess.PrepareBulk(ctx, profile.Database, schema, job.Table); err != nil {
		return fail(err)
	}
	if err := sess.Load(ctx, file.Rows, bindings, tdsclient.NewLogSelector(job.LogColumns...)); err != nil {
		return fail(err)
	}

	report.Rows = len(file.Rows)
	report.Duration = time.Since(start)
	log.Info("load finished", "rows", report.Rows, "duration", report.Duration)
	return report
}
