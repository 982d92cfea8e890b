package tdsclient

import (
	"log/slog"

	"github.com/joacominatel/tdskit/driver"
)

// Informational messages the server sends on every database or language
// switch.
const (
	msgChangedDatabase = 5701
	msgChangedLanguage = 5703
)

// messageSink turns driver callbacks into log records.
type messageSink struct {
	logger *slog.Logger
	ctx    *driverContext
}

func newMessageSink(logger *slog.Logger, ctx *driverContext) *messageSink {
	return &messageSink{logger: logger, ctx: ctx}
}

// handleError logs one classified line, tears the driver context down and
// cancels the failing operation.
func (m *messageSink) handleError(ev driver.ErrorEvent) driver.Action {
	switch {
	case ev.Dead:
		m.logger.Error("transport is dead or absent",
			"dberr", ev.DBErr,
			"error", ev.DBErrText,
		)
	case ev.OSErr != 0:
		m.logger.Error("operating-system error",
			"oserr", ev.OSErr,
			"oserrstr", ev.OSErrText,
			"error", ev.DBErrText,
		)
	default:
		m.logger.Error("driver error",
			"severity", ev.Severity,
			"dberr", ev.DBErr,
			"error", ev.DBErrText,
		)
	}

	m.ctx.teardown()
	return driver.IntCancel
}

// handleMessage logs a server message unless it is a context-change notice.
func (m *messageSink) handleMessage(msg driver.ServerMessage) {
	if msg.Number == msgChangedDatabase || msg.Number == msgChangedLanguage {
		return
	}

	attrs := []any{
		"msgno", msg.Number,
		"severity", msg.Severity,
		"msgstate", msg.State,
	}
	if msg.Server != "" {
		attrs = append(attrs, "server", msg.Server)
	}
	if msg.Procedure != "" {
		attrs = append(attrs, "procedure", msg.Procedure)
	}
	if msg.Line > 0 {
		attrs = append(attrs, "line", msg.Line)
	}
	if msg.Text != "" {
		attrs = append(attrs, "text", msg.Text)
	}
	m.logger.Warn("server message", attrs...)
}
