package mssql

import (
	"context"
	"strings"

	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/joacominatel/tdskit/driver"
)

// Informational messages go-mssqldb only reports as text. Their numbers are
// recovered from the fixed wording so the message handler can filter them.
var knownMessages = []struct {
	prefix string
	number int
}{
	{"Changed database context to", 5701},
	{"Changed language setting to", 5703},
}

// messageLogger receives the driver's informational messages and forwards
// them to the message handler. Errors reach the handler through raise.
type messageLogger struct{}

func (messageLogger) Log(_ context.Context, category msdsn.Log, msg string) {
	if category != msdsn.LogMessages {
		return
	}
	driver.Notify(infoMessage(msg))
}

func infoMessage(msg string) driver.ServerMessage {
	m := driver.ServerMessage{Text: strings.TrimRight(msg, "\r\n")}
	for _, k := range knownMessages {
		if strings.HasPrefix(m.Text, k.prefix) {
			m.Number = k.number
			break
		}
	}
	return m
}
