package tdsclient

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/joacominatel/tdskit/driver"
)

// Login carries the credentials a session authenticates with.
type Login struct {
	Host     string
	User     string
	Password string
	AppName  string
}

// noCopy may be embedded into structs which must not be copied after first
// use. See go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

type operation int

const (
	opNone operation = iota
	opExecute
	opBulk
)

// Session is one authenticated transport to a server.
//
// A session runs a single logical operation: either Execute followed by
// Fetch, or PrepareBulk followed by Load. It is not safe for concurrent use
// and must be closed.
type Session struct {
	noCopy noCopy

	id          string
	host        string
	bulkMode    bool
	opts        Options
	logger      *slog.Logger
	initialized int
	err         error

	generation uint64
	acquired   bool
	conn       driver.Conn

	claimed operation
	results driver.Results
	copier  driver.BulkCopier
	table   string
	closed  bool
}

// Open initializes the driver context and connects to login.Host. Bulk mode
// negotiates protocol 10.0 and bulk-copy capability before connecting.
//
// Open never returns nil. Initialized reports whether it succeeded and Err
// carries the failure.
func Open(ctx context.Context, login Login, bulkMode bool, opts Options) *Session {
	opts = opts.withDefaults()
	s := &Session{
		id:          uuid.NewString(),
		host:        login.Host,
		bulkMode:    bulkMode,
		opts:        opts,
		initialized: 1,
	}
	s.logger = opts.Logger.With("op_id", s.id)

	if err := s.connect(ctx, login); err != nil {
		s.err = err
		s.logger.Error("initialization was not successful", "host", login.Host, "error", err)
		return s
	}
	s.initialized = 0
	return s
}

func (s *Session) connect(ctx context.Context, login Login) error {
	drv, generation, err := dbctx.acquire(s.opts, newMessageSink(s.logger, dbctx))
	if err != nil {
		s.logger.Error("failed to initialize the driver", "dialect", s.opts.Dialect, "error", err)
		return &ErrInit{Phase: PhaseInit, Cause: err}
	}
	s.generation = generation
	s.acquired = true

	if login.Host == "" {
		s.logger.Error("unable to allocate login structure")
		return &ErrInit{Phase: PhaseLogin, Cause: errors.New("empty host")}
	}
	dl := driver.Login{
		Host:     login.Host,
		User:     login.User,
		Password: login.Password,
		AppName:  login.AppName,
	}
	if s.bulkMode {
		dl.Version = driver.Version100
		dl.BulkCopy = true
	}

	conn, err := drv.Open(ctx, dl)
	if err != nil {
		s.logger.Error("can't connect to server", "host", login.Host, "error", err)
		return &ErrInit{Phase: PhaseConnect, Host: login.Host, Cause: err}
	}
	if err := dbctx.track(s, conn); err != nil {
		_ = conn.Close()
		return &ErrInit{Phase: PhaseConnect, Host: login.Host, Cause: err}
	}
	s.conn = conn
	return nil
}

// Initialized returns 0 when the session connected and 1 otherwise.
func (s *Session) Initialized() int {
	return s.initialized
}

// Err returns the error that made Open fail, if any.
func (s *Session) Err() error {
	return s.err
}

// ID returns the identifier attached to every log record of the session.
func (s *Session) ID() string {
	return s.id
}

// BulkMode reports whether the session was opened for bulk copy.
func (s *Session) BulkMode() bool {
	return s.bulkMode
}

// ready reports why the session cannot run an operation, if it cannot.
func (s *Session) ready() error {
	switch {
	case s.closed:
		return ErrSessionClosed
	case s.initialized != 0 || s.conn == nil:
		return ErrNotConnected
	case !dbctx.valid(s.generation):
		return ErrContextTornDown
	}
	return nil
}

func (s *Session) claim(op operation) error {
	if s.claimed != opNone {
		return ErrSessionUsed
	}
	s.claimed = op
	return nil
}

// Close releases the transport and the session's reference on the driver
// context. Bulk sessions skip the explicit transport close: Load has already
// finalized the transfer, and releasing the context closes what is left.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.results != nil {
		_ = s.results.Close()
		s.results = nil
	}

	var err error
	if !s.bulkMode && s.conn != nil {
		dbctx.untrack(s)
		if cerr := s.conn.Close(); cerr != nil && dbctx.valid(s.generation) {
			err = cerr
		}
	}
	if s.acquired {
		if rerr := dbctx.release(s); rerr != nil && err == nil {
			err = rerr
		}
	}
	s.conn = nil
	return err
}
