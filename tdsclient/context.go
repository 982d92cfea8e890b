package tdsclient

import (
	"fmt"
	"sync"

	"github.com/joacominatel/tdskit/driver"
)

// driverContext is the process-wide driver state every session shares.
//
// Acquiring and releasing it, handler registration and transport tracking are
// serialized by mu, so sessions may be opened from several goroutines. The
// handlers themselves stay process-wide and last-writer-wins.
//
// A fatal error reported through the error handler tears the whole context
// down: every tracked transport is closed and the generation is bumped, which
// fails the next operation of every session opened before the teardown,
// including sessions unrelated to the failure.
type driverContext struct {
	mu         sync.Mutex
	refs       int
	generation uint64
	conns      map[*Session]driver.Conn
}

var dbctx = &driverContext{conns: make(map[*Session]driver.Conn)}

// acquire takes a reference on the context, resolves the session's driver and
// installs the sink's handlers.
func (c *driverContext) acquire(opts Options, sink *messageSink) (driver.Driver, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	drv := opts.Driver
	if drv == nil {
		var err error
		drv, err = driver.Lookup(opts.Dialect)
		if err != nil {
			return nil, 0, err
		}
	}

	driver.SetErrorHandler(sink.handleError)
	driver.SetMessageHandler(sink.handleMessage)
	c.refs++
	return drv, c.generation, nil
}

// track records an open transport for s. It fails if the context was torn
// down since s acquired it.
func (c *driverContext) track(s *Session, conn driver.Conn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.generation != c.generation {
		return ErrContextTornDown
	}
	c.conns[s] = conn
	return nil
}

// untrack forgets the transport of s without closing it.
func (c *driverContext) untrack(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.conns, s)
}

// valid reports whether a session opened under generation may still run.
func (c *driverContext) valid(generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return generation == c.generation
}

// release drops the reference held by s and closes whatever transport is
// still tracked for it.
func (c *driverContext) release(s *Session) error {
	c.mu.Lock()
	conn, tracked := c.conns[s]
	delete(c.conns, s)
	if s.generation == c.generation && c.refs > 0 {
		c.refs--
	}
	c.mu.Unlock()

	if tracked {
		if err := conn.Close(); err != nil {
			return fmt.Errorf("release transport: %w", err)
		}
	}
	return nil
}

// teardown closes every tracked transport and invalidates every session
// opened so far.
func (c *driverContext) teardown() {
	c.mu.Lock()
	conns := c.conns
	c.conns = make(map[*Session]driver.Conn)
	c.refs = 0
	c.generation++
	c.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

// references reports how many sessions currently hold the context.
func (c *driverContext) references() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refs
}
