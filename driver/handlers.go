package driver

import "sync"

// DB-Library style error numbers reported through ErrorEvent.DBErr.
const (
	ErrNoError       = 0
	ErrServerMessage = 20018 // general server error, see the message handler
	ErrConnect       = 20009 // unable to connect
	ErrUseDatabase   = 20014
	ErrDeadProcess   = 20047 // the transport is dead or absent
	ErrCommand       = 20019
	ErrBulkInit      = 20070
	ErrBulkBind      = 20071
	ErrBulkSend      = 20072
	ErrRowConversion = 20049
)

// Action is what an error handler asks the driver to do next.
type Action int

const (
	// IntContinue keeps waiting on the server.
	IntContinue Action = 1
	// IntCancel cancels the current operation.
	IntCancel Action = 2
)

// ErrorEvent is a transport or driver level failure.
type ErrorEvent struct {
	Severity int
	DBErr    int
	OSErr    int
	// Dead reports that the transport handle is gone or unusable.
	Dead      bool
	DBErrText string
	OSErrText string
}

// ServerMessage is an informational, warning or error message sent by the server.
type ServerMessage struct {
	Number    int
	State     int
	Severity  int
	Text      string
	Server    string
	Procedure string
	Line      int
}

// ErrorHandler receives transport failures.
type ErrorHandler func(ErrorEvent) Action

// MessageHandler receives server messages.
type MessageHandler func(ServerMessage)

var (
	handlersMu sync.RWMutex
	errHandler ErrorHandler
	msgHandler MessageHandler
)

// SetErrorHandler installs the process-wide error handler and returns the
// previous one. The last caller wins.
func SetErrorHandler(h ErrorHandler) ErrorHandler {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	prev := errHandler
	errHandler = h
	return prev
}

// SetMessageHandler installs the process-wide message handler and returns the
// previous one. The last caller wins.
func SetMessageHandler(h MessageHandler) MessageHandler {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	prev := msgHandler
	msgHandler = h
	return prev
}

// RaiseError reports ev to the installed error handler. Without a handler the
// operation is cancelled.
func RaiseError(ev ErrorEvent) Action {
	handlersMu.RLock()
	h := errHandler
	handlersMu.RUnlock()
	if h == nil {
		return IntCancel
	}
	return h(ev)
}

// Notify reports msg to the installed message handler, if any.
func Notify(msg ServerMessage) {
	handlersMu.RLock()
	h := msgHandler
	handlersMu.RUnlock()
	if h != nil {
		h(msg)
	}
}
