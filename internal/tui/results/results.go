package results

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/tdskit/internal/app"
	"github.com/joacominatel/tdskit/internal/tui/theme"
)

const maxColWidth = 40

// Model is the query results component.
type Model struct {
	result    *app.QueryResult
	err       error
	lastQuery string
	width     int
	height    int
	focused   bool
	loading   bool
	colWidths []int

	cursorX int
	cursorY int
	scrollX int
	scrollY int

	statusMessage string
}

// New creates a new results model.
func New() Model {
	return Model{}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
}

// Focused returns whether the results pane has focus.
func (m Model) Focused() bool {
	return m.focused
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(l bool) {
	m.loading = l
}

// SetResult sets the query result to display.
func (m *Model) SetResult(r *app.QueryResult, query string) {
	m.result = r
	m.lastQuery = query
	m.err = nil
	m.cursorX, m.cursorY = 0, 0
	m.scrollX, m.scrollY = 0, 0
	m.loading = false
	m.statusMessage = ""
	m.calculateColumnWidths()
}

// SetError sets an error to display.
func (m *Model) SetError(err error) {
	m.err = err
	m.result = nil
	m.scrollY = 0
	m.loading = false
}

// TakeStatus returns and clears the pending status message.
func (m *Model) TakeStatus() string {
	msg := m.statusMessage
	m.statusMessage = ""
	return msg
}

func (m *Model) calculateColumnWidths() {
	if m.result == nil || len(m.result.Columns) == 0 {
		m.colWidths = nil
		return
	}

	m.colWidths = make([]int, len(m.result.Columns))
	for i, col := range m.result.Columns {
		m.colWidths[i] = lipgloss.Width(col)
	}
	for _, row := range m.result.Rows {
		for i, cell := range row {
			if i < len(m.colWidths) {
				m.colWidths[i] = max(m.colWidths[i], lipgloss.Width(cell))
			}
		}
	}
	for i := range m.colWidths {
		m.colWidths[i] = min(max(m.colWidths[i], 1), maxColWidth)
	}
}

func (m Model) rowCount() int {
	if m.result == nil {
		return 0
	}
	return len(m.result.Rows)
}

func (m Model) visibleRows() int {
	return max(m.height-4, 1)
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the results pane.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		m.moveY(-1)
	case "down", "j":
		m.moveY(1)
	case "pgup":
		m.moveY(-m.height / 2)
	case "pgdown":
		m.moveY(m.height / 2)
	case "home", "g":
		m.moveY(-m.rowCount())
	case "end", "G":
		m.moveY(m.rowCount())
	case "left", "h":
		m.moveX(-1)
	case "right", "l":
		m.moveX(1)
	case "y":
		m.doCopyCell()
	case "Y":
		m.doCopyRowJSON()
	case "c":
		m.doCopyRowCSV()
	case "t":
		m.doCopyRowText()
	case "f":
		return m, m.doFilterByValue()
	case "D":
		return m, m.doGenerateDelete()
	case "e":
		return m, m.exportCmd("csv")
	case "J":
		return m, m.exportCmd("json")
	case "x":
		return m, m.exportCmd("xlsx")
	}

	if m.statusMessage != "" {
		status := m.TakeStatus()
		return m, func() tea.Msg { return StatusNotifyMsg{Message: status} }
	}
	return m, nil
}

func (m *Model) moveY(delta int) {
	n := m.rowCount()
	if n == 0 {
		return
	}
	m.cursorY = min(max(m.cursorY+delta, 0), n-1)
	if m.cursorY < m.scrollY {
		m.scrollY = m.cursorY
	}
	if m.cursorY >= m.scrollY+m.visibleRows() {
		m.scrollY = m.cursorY - m.visibleRows() + 1
	}
}

func (m *Model) moveX(delta int) {
	if len(m.colWidths) == 0 {
		return
	}
	m.cursorX = min(max(m.cursorX+delta, 0), len(m.colWidths)-1)
	if m.cursorX < m.scrollX {
		m.scrollX = m.cursorX
	}
	for m.cursorX > m.lastVisibleColumn() && m.scrollX < m.cursorX {
		m.scrollX++
	}
}

// lastVisibleColumn is the rightmost column that fits from scrollX.
func (m Model) lastVisibleColumn() int {
	used := 2
	last := m.scrollX
	for i := m.scrollX; i < len(m.colWidths); i++ {
		used += m.colWidths[i] + 3
		if used > m.width && i > m.scrollX {
			break
		}
		last = i
	}
	return last
}

// View renders the results pane.
func (m Model) View() string {
	title := theme.StylePaneTitle.Render("Results")

	if m.loading {
		return title + "\n" + theme.StyleMuted.Render("  Executing query...")
	}
	if m.err != nil {
		return title + "\n" + theme.StyleError.Render("  Error: "+m.err.Error())
	}
	if m.result == nil {
		return title + "\n" + theme.StyleMuted.Render("  Execute a query to see results")
	}

	stats := fmt.Sprintf("%d row(s) │ %s", m.result.RowCount, m.result.Duration.Round(time.Millisecond))
	if m.result.Sets > 1 {
		stats += fmt.Sprintf(" │ %d result sets", m.result.Sets)
	}
	header := title + "  " + theme.StyleMuted.Render(stats)

	if len(m.result.Columns) == 0 {
		return header + "\n" + theme.StyleSuccess.Render("  Batch executed, no rows returned")
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.renderRow(m.result.Columns, -1))
	b.WriteString("\n")
	b.WriteString(m.renderSeparator())

	end := min(m.scrollY+m.visibleRows(), len(m.result.Rows))
	for i := m.scrollY; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(m.renderRow(m.result.Rows[i], i))
	}

	return b.String()
}

// renderRow draws the visible columns of one row. Row -1 is the header.
func (m Model) renderRow(cells []string, row int) string {
	last := m.lastVisibleColumn()
	var parts []string
	for i := m.scrollX; i <= last && i < len(m.colWidths); i++ {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		display := fit(cell, m.colWidths[i])

		switch {
		case row < 0:
			display = theme.StyleTitle.Render(display)
		case m.focused && row == m.cursorY && i == m.cursorX:
			display = theme.StyleCell.Render(display)
		}
		parts = append(parts, display)
	}
	return "  " + strings.Join(parts, " │ ")
}

// fit truncates or pads s to width display cells.
func fit(s string, width int) string {
	if lipgloss.Width(s) > width {
		runes := []rune(s)
		for len(runes) > 0 && lipgloss.Width(string(runes)) >= width {
			runes = runes[:len(runes)-1]
		}
		s = string(runes) + "…"
	}
	if pad := width - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func (m Model) renderSeparator() string {
	last := m.lastVisibleColumn()
	var parts []string
	for i := m.scrollX; i <= last && i < len(m.colWidths); i++ {
		parts = append(parts, strings.Repeat("─", m.colWidths[i]))
	}
	return "  " + lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Join(parts, "─┼─"))
}
