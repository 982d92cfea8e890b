package statusbar

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/tdskit/internal/tui/theme"
)

const hints = "F5: Run │ Tab: Switch pane │ ?: Help │ q: Quit"

// Model is the status bar component.
type Model struct {
	width      int
	connected  bool
	dialect    string
	database   string
	activePane string
	message    string
	isError    bool
	lastRows   int
	lastTook   time.Duration
	ran        bool
}

// New creates a new status bar model.
func New() Model {
	return Model{
		activePane: "explorer",
	}
}

// SetWidth updates the component width.
func (m *Model) SetWidth(w int) {
	m.width = w
}

// SetConnected updates the connection display.
func (m *Model) SetConnected(connected bool, dialect, database string) {
	m.connected = connected
	m.dialect = dialect
	m.database = database
}

// SetActivePane updates the displayed active pane name.
func (m *Model) SetActivePane(pane string) {
	m.activePane = pane
}

// SetMessage sets a temporary status message.
func (m *Model) SetMessage(msg string) {
	m.message = msg
	m.isError = false
}

// SetError shows msg as an error until the next message.
func (m *Model) SetError(msg string) {
	m.message = msg
	m.isError = true
}

// SetLastRun records the row count and duration of the last batch.
func (m *Model) SetLastRun(rows int, took time.Duration) {
	m.lastRows = rows
	m.lastTook = took
	m.ran = true
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages (status bar has no interactive behavior).
func (m Model) Update(_ tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	style := theme.StyleStatusBar.Width(m.width)

	var left string
	if m.connected {
		left = lipgloss.NewStyle().Foreground(theme.ColorSuccess).Render("●") +
			" " + m.dialect + " │ " + m.database
	} else {
		left = lipgloss.NewStyle().Foreground(theme.ColorError).Render("●") + " disconnected"
	}
	left += " │ " + m.activePane
	if m.ran {
		left += fmt.Sprintf(" │ %d row(s) in %s", m.lastRows, m.lastTook.Round(time.Millisecond))
	}

	right := hints
	if m.message != "" {
		right = m.message
		if m.isError {
			right = theme.StyleError.Render(m.message)
		}
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if padding < 1 {
		padding = 1
	}

	return style.Render(left + strings.Repeat(" ", padding) + right)
}
