package explorer

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/tdskit/internal/app"
	"github.com/joacominatel/tdskit/internal/tui/theme"
)

// NodeKind identifies the type of a tree node.
type NodeKind int

const (
	NodeDatabase NodeKind = iota
	NodeSchema
	NodeTable
	NodeColumn
)

// TreeNode is a single node in the catalog tree.
type TreeNode struct {
	Kind     NodeKind
	Name     string
	Children []*TreeNode
	Expanded bool
	Loaded   bool // children fetched

	Schema   string
	Table    string
	DataType string
	Nullable bool
}

type flatItem struct {
	node  *TreeNode
	depth int
}

// Model is the explorer (catalog tree) component.
type Model struct {
	tree    *TreeNode
	items   []flatItem
	cursor  int
	width   int
	height  int
	focused bool
	loading bool
}

// ColumnsLoadedMsg signals that columns have been loaded for a table.
type ColumnsLoadedMsg struct {
	Schema  string
	Table   string
	Columns []app.Column
	Err     error
}

// RequestColumnsMsg is sent when a table is expanded for the first time.
type RequestColumnsMsg struct {
	Schema string
	Table  string
}

// QuickQueryMsg asks the app to put Query in the editor and run it.
type QuickQueryMsg struct {
	Query string
}

// New creates a new explorer model.
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

// Focused returns whether the explorer has focus.
func (m Model) Focused() bool {
	return m.focused
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(l bool) {
	m.loading = l
}

// Clear drops the tree, used on disconnect.
func (m *Model) Clear() {
	m.tree = nil
	m.items = nil
	m.cursor = 0
	m.loading = false
}

// SetTree populates the explorer from a catalog listing.
func (m *Model) SetTree(schema *app.SchemaTree) {
	root := &TreeNode{
		Kind:     NodeDatabase,
		Name:     schema.Database,
		Expanded: true,
		Loaded:   true,
	}

	for _, s := range schema.Schemas {
		schemaNode := &TreeNode{
			Kind:     NodeSchema,
			Name:     s.Name,
			Expanded: len(schema.Schemas) == 1,
			Loaded:   true,
		}
		for _, t := range s.Tables {
			schemaNode.Children = append(schemaNode.Children, &TreeNode{
				Kind:   NodeTable,
				Name:   t,
				Schema: s.Name,
			})
		}
		root.Children = append(root.Children, schemaNode)
	}

	m.tree = root
	m.cursor = 0
	m.flatten()
	m.loading = false
}

// SetColumns attaches column nodes to a table node.
func (m *Model) SetColumns(schema, table string, columns []app.Column) {
	node := m.findTable(schema, table)
	if node == nil {
		return
	}
	node.Children = nil
	for _, col := range columns {
		node.Children = append(node.Children, &TreeNode{
			Kind:     NodeColumn,
			Name:     col.Name,
			Schema:   schema,
			Table:    table,
			DataType: col.DataType,
			Nullable: col.IsNullable,
		})
	}
	node.Loaded = true
	m.flatten()
}

func (m *Model) findTable(schema, table string) *TreeNode {
	if m.tree == nil {
		return nil
	}
	for _, s := range m.tree.Children {
		if s.Name != schema {
			continue
		}
		for _, t := range s.Children {
			if t.Name == table {
				return t
			}
		}
	}
	return nil
}

// SelectedTable returns the schema and table under the cursor, if any.
func (m Model) SelectedTable() (schema, table string, ok bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return "", "", false
	}
	node := m.items[m.cursor].node
	switch node.Kind {
	case NodeTable:
		return node.Schema, node.Name, true
	case NodeColumn:
		return node.Schema, node.Table, true
	}
	return "", "", false
}

func (m *Model) flatten() {
	m.items = nil
	if m.tree != nil {
		m.flattenNode(m.tree, 0)
	}
	if m.cursor >= len(m.items) {
		m.cursor = max(0, len(m.items)-1)
	}
}

func (m *Model) flattenNode(node *TreeNode, depth int) {
	m.items = append(m.items, flatItem{node: node, depth: depth})
	if node.Expanded {
		for _, child := range node.Children {
			m.flattenNode(child, depth+1)
		}
	}
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the explorer.
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
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter", "right", "l":
		return m, m.toggleExpand()
	case "left", "h":
		m.collapse()
	case "s":
		return m, m.quickQuery(app.PreviewQuery)
	case "d":
		return m, m.quickQuery(app.CountQuery)
	}

	return m, nil
}

func (m Model) quickQuery(build func(schema, table string) string) tea.Cmd {
	schema, table, ok := m.SelectedTable()
	if !ok {
		return nil
	}
	query := build(schema, table)
	return func() tea.Msg {
		return QuickQueryMsg{Query: query}
	}
}

func (m *Model) toggleExpand() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	node := m.items[m.cursor].node

	if node.Kind == NodeColumn {
		return nil
	}

	node.Expanded = !node.Expanded
	m.flatten()

	if node.Expanded && node.Kind == NodeTable && !node.Loaded {
		schema, table := node.Schema, node.Name
		return func() tea.Msg {
			return RequestColumnsMsg{Schema: schema, Table: table}
		}
	}
	return nil
}

// collapse folds the node under the cursor, or jumps to its parent.
func (m *Model) collapse() {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return
	}
	item := m.items[m.cursor]
	if item.node.Expanded {
		item.node.Expanded = false
		m.flatten()
		return
	}
	for i := m.cursor - 1; i >= 0; i-- {
		if m.items[i].depth < item.depth {
			m.cursor = i
			return
		}
	}
}

// View renders the explorer.
func (m Model) View() string {
	title := theme.StylePaneTitle.Render("Catalog")

	if m.loading {
		return title + "\n" + theme.StyleMuted.Render("  Loading...")
	}
	if m.tree == nil {
		return title + "\n" + theme.StyleMuted.Render("  No connection")
	}

	var b strings.Builder
	b.WriteString(title)

	visible := max(m.height-2, 1)
	offset := 0
	if m.cursor >= visible {
		offset = m.cursor - visible + 1
	}

	for i := offset; i < len(m.items) && i < offset+visible; i++ {
		b.WriteString("\n")
		b.WriteString(m.renderNode(m.items[i], i == m.cursor))
	}

	return b.String()
}

func (m Model) renderNode(item flatItem, selected bool) string {
	node := item.node
	indent := strings.Repeat("  ", item.depth)

	icon := "  "
	if node.Kind != NodeColumn {
		icon = "▶ "
		if node.Expanded {
			icon = "▼ "
		}
	}

	line := indent + icon + node.Name
	if m.width > 0 && lipgloss.Width(line) > m.width-2 {
		runes := []rune(line)
		line = string(runes[:max(m.width-4, 1)]) + ".."
	}

	if selected && m.focused {
		return theme.StyleSelected.Render(line)
	}
	if node.Kind == NodeColumn && node.DataType != "" {
		typ := node.DataType
		if node.Nullable {
			typ += " null"
		}
		return line + " " + theme.StyleMuted.Render(typ)
	}
	return line
}
