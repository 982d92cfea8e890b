package results

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joacominatel/tdskit/internal/export"
	"github.com/joacominatel/tdskit/tdsclient"
)

func (m Model) currentRow() ([]string, bool) {
	if m.result == nil || m.cursorY < 0 || m.cursorY >= len(m.result.Rows) {
		return nil, false
	}
	return m.result.Rows[m.cursorY], true
}

func (m Model) getCellValue() string {
	row, ok := m.currentRow()
	if !ok || m.cursorX < 0 || m.cursorX >= len(row) {
		return ""
	}
	return row[m.cursorX]
}

func (m Model) getColumnName() string {
	if m.result == nil || m.cursorX < 0 || m.cursorX >= len(m.result.Columns) {
		return ""
	}
	return m.result.Columns[m.cursorX]
}

// --- Copy ---

func (m *Model) copy(val, done string) {
	if err := clipboard.WriteAll(val); err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.statusMessage = done
}

func (m *Model) doCopyCell() {
	val := m.getCellValue()
	if val == "" {
		m.statusMessage = "Nothing to copy"
		return
	}
	m.copy(val, "Copied: "+truncateStatus(val, 40))
}

func (m *Model) doCopyRowJSON() {
	row, ok := m.currentRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	m.copy(rowToJSON(m.result.Columns, row), "Copied row as JSON")
}

func (m *Model) doCopyRowCSV() {
	row, ok := m.currentRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	var b strings.Builder
	enc := export.NewCSVEncoder(&b)
	if err := export.WriteResultSet(enc, m.result.Columns, tdsclient.Table{row}); err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	if err := enc.Close(); err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.copy(b.String(), "Copied row as CSV")
}

func (m *Model) doCopyRowText() {
	row, ok := m.currentRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	m.copy(strings.Join(row, "\t"), "Copied row as text")
}

// --- Filter ---

func (m *Model) doFilterByValue() tea.Cmd {
	col := m.getColumnName()
	table := extractTableName(m.lastQuery)
	if col == "" {
		m.statusMessage = "Cannot filter: no cell selected"
		return nil
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s", table, condition(col, m.getCellValue()))
	return func() tea.Msg {
		return SetEditorQueryMsg{Query: query}
	}
}

// --- Delete ---

func (m *Model) doGenerateDelete() tea.Cmd {
	row, ok := m.currentRow()
	if !ok {
		return nil
	}
	table := extractTableName(m.lastQuery)

	var conditions []string
	for i, col := range m.result.Columns {
		if i >= len(row) {
			break
		}
		conditions = append(conditions, condition(col, row[i]))
	}

	// sent to the editor for review, never run directly
	query := fmt.Sprintf("-- review before executing!\nDELETE FROM %s WHERE %s",
		table, strings.Join(conditions, " AND "))

	return func() tea.Msg {
		return SetEditorQueryMsg{Query: query}
	}
}

func condition(col, val string) string {
	name := "[" + strings.ReplaceAll(col, "]", "]]") + "]"
	if val == tdsclient.NullText {
		return name + " IS NULL"
	}
	return fmt.Sprintf("%s = '%s'", name, strings.ReplaceAll(val, "'", "''"))
}

// --- Export ---

func (m Model) exportCmd(format string) tea.Cmd {
	result := m.result
	if result == nil {
		return nil
	}
	return func() tea.Msg {
		filename := fmt.Sprintf("tdsql_export_%s.%s", time.Now().Format("20060102_150405"), format)
		if err := writeExport(filename, format, result.Columns, result.Rows); err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		return StatusNotifyMsg{Message: fmt.Sprintf("Exported %d rows to %s", len(result.Rows), filename)}
	}
}

func writeExport(filename, format string, columns []string, rows tdsclient.Table) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := export.New(format, f)
	if err != nil {
		return err
	}
	if err := export.WriteResultSet(enc, columns, rows); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

// --- Helpers ---

func extractTableName(query string) string {
	tokens := strings.Fields(query)
	for i, tok := range tokens {
		switch strings.ToUpper(tok) {
		case "FROM", "INTO", "UPDATE":
			if i+1 < len(tokens) {
				if name := strings.TrimRight(tokens[i+1], ";,()"); name != "" {
					return name
				}
			}
		}
	}
	return "<table>"
}

// rowToJSON preserves column order unlike map marshaling
func rowToJSON(columns []string, row []string) string {
	var b strings.Builder
	b.WriteString("{")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		key, _ := json.Marshal(col)
		b.Write(key)
		b.WriteString(": ")
		if i >= len(row) || row[i] == tdsclient.NullText {
			b.WriteString("null")
			continue
		}
		val, _ := json.Marshal(row[i])
		b.Write(val)
	}
	b.WriteString("}")
	return b.String()
}

func truncateStatus(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
