package tdsclient

import "context"

// Client runs the one-shot operations. Each call opens its own session and
// closes it before returning, so a Client may be shared between goroutines.
type Client struct {
	opts Options
}

// New creates a Client.
func New(opts Options) *Client {
	return &Client{opts: opts.withDefaults()}
}

// DefaultClient is used by the package-level functions.
var DefaultClient = New(Options{})

// Options returns the client's effective options.
func (c *Client) Options() Options {
	return c.opts
}

// BulkCopy loads rows into database.schema.table over a bulk-mode session.
// It returns 0 on success and 1 on failure.
func (c *Client) BulkCopy(ctx context.Context, host, user, pass, appName, database, schema, table string, rows Table, bindings []Binding, logSelector ...string) int {
	s := Open(ctx, Login{Host: host, User: user, Password: pass, AppName: appName}, true, c.opts)
	defer s.Close()
	if s.Initialized() != 0 {
		c.opts.Logger.Error("bulkCopy : Failed", "error", s.Err())
		return 1
	}

	log := c.opts.Logger.With("op_id", s.ID())
	if err := s.PrepareBulk(ctx, database, schema, table); err != nil {
		log.Error("bulkCopy : Failed", "error", err)
		return 1
	}
	if err := s.Load(ctx, rows, bindings, NewLogSelector(logSelector...)); err != nil {
		log.Error("bulkCopy : Failed", "error", err)
		return 1
	}
	return 0
}

// ExecuteQuery runs sql on database without reading its results. It returns
// 0 on success and 1 on failure.
func (c *Client) ExecuteQuery(ctx context.Context, host, user, pass, appName, database, sql string) int {
	s := Open(ctx, Login{Host: host, User: user, Password: pass, AppName: appName}, false, c.opts)
	defer s.Close()
	if s.Initialized() != 0 {
		c.opts.Logger.Error("executeQuery : Failed", "sql", sql, "error", s.Err())
		return 1
	}

	if err := s.Execute(ctx, database, sql); err != nil {
		c.opts.Logger.Error("executeQuery : Failed", "op_id", s.ID(), "sql", sql, "error", err)
		return 1
	}
	return 0
}

// ExecuteQueryAndFetch runs sql on database and hands its results to
// onResultSet. It returns 0 on success and 1 on failure.
func (c *Client) ExecuteQueryAndFetch(ctx context.Context, host, user, pass, appName, database, sql string, onResultSet ResultSink) int {
	s := Open(ctx, Login{Host: host, User: user, Password: pass, AppName: appName}, false, c.opts)
	defer s.Close()
	if s.Initialized() != 0 {
		c.opts.Logger.Error("executeQueryAndFetch : Failed", "sql", sql, "error", s.Err())
		return 1
	}

	if err := s.Execute(ctx, database, sql); err != nil {
		c.opts.Logger.Error("executeQueryAndFetch : Failed", "op_id", s.ID(), "sql", sql, "error", err)
		return 1
	}
	if err := s.Fetch(ctx, onResultSet); err != nil {
		c.opts.Logger.Error("executeQueryAndFetch : Failed", "op_id", s.ID(), "sql", sql, "error", err)
		return 1
	}
	return 0
}

// BulkCopy calls DefaultClient.BulkCopy with a background context.
func BulkCopy(host, user, pass, appName, database, schema, table string, rows Table, bindings []Binding, logSelector ...string) int {
	return DefaultClient.BulkCopy(context.Background(), host, user, pass, appName, database, schema, table, rows, bindings, logSelector...)
}

// ExecuteQuery calls DefaultClient.ExecuteQuery with a background context.
func ExecuteQuery(host, user, pass, appName, database, sql string) int {
	return DefaultClient.ExecuteQuery(context.Background(), host, user, pass, appName, database, sql)
}

// ExecuteQueryAndFetch calls DefaultClient.ExecuteQueryAndFetch with a
// background context.
func ExecuteQueryAndFetch(host, user, pass, appName, database, sql string, onResultSet ResultSink) int {
	return DefaultClient.ExecuteQueryAndFetch(context.Background(), host, user, pass, appName, database, sql, onResultSet)
}
