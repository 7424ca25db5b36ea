package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cli-page/internal/editor"
	"cli-page/internal/page"
	"cli-page/internal/render"
)

// ColumnSelectedMsg is sent when the user toggles the column under the cursor.
type ColumnSelectedMsg struct {
	Row int
	Col int
}

// DeselectMsg is sent when the user clears the selection from the canvas.
type DeselectMsg struct{}

// Action is a page command issued with a single key on the canvas.
type Action int

const (
	ActionAddRow Action = iota
	ActionAddColumn
	ActionTextMode
	ActionImageMode
	ActionAlignLeft
	ActionAlignCenter
	ActionAlignRight
)

// ActionMsg carries a canvas shortcut to the app.
type ActionMsg struct {
	Action Action
}

var canvasShortcuts = map[string]Action{
	"r": ActionAddRow,
	"n": ActionAddColumn,
	"t": ActionTextMode,
	"i": ActionImageMode,
	"1": ActionAlignLeft,
	"2": ActionAlignCenter,
	"3": ActionAlignRight,
}

// CanvasModel draws the page: rows top to bottom, columns side by side.
type CanvasModel struct {
	doc  page.Document
	sel  editor.Selection
	md   *render.Markdown
	keys KeyMap

	cursorRow int
	cursorCol int

	focused bool
	width   int
	height  int
}

// NewCanvasModel creates a canvas that renders markdown with md.
func NewCanvasModel(md *render.Markdown, keys KeyMap) CanvasModel {
	return CanvasModel{md: md, keys: keys}
}

// SetFocused sets the focus state.
func (m *CanvasModel) SetFocused(f bool) {
	m.focused = f
}

// Focused returns the focus state.
func (m CanvasModel) Focused() bool {
	return m.focused
}

// SetSize sets the canvas dimensions.
func (m *CanvasModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetDocument updates the page and selection being displayed. A newly
// selected column pulls the cursor onto it.
func (m *CanvasModel) SetDocument(doc page.Document, sel editor.Selection) {
	if sel.HasColumn() && sel.Column != m.sel.Column {
		m.cursorRow, m.cursorCol = sel.Column.Row, sel.Column.Col
	}
	m.doc = doc
	m.sel = sel
	m.clampCursor()
}

// Cursor returns the row and column under the cursor.
func (m CanvasModel) Cursor() (int, int) {
	return m.cursorRow, m.cursorCol
}

func (m *CanvasModel) clampCursor() {
	if m.doc.Len() == 0 {
		m.cursorRow, m.cursorCol = 0, 0
		return
	}
	m.cursorRow = min(max(m.cursorRow, 0), m.doc.Len()-1)
	row, _ := m.doc.Row(m.cursorRow)
	m.cursorCol = min(max(m.cursorCol, 0), max(len(row.Columns)-1, 0))
}

// Init satisfies the tea.Model interface.
func (m CanvasModel) Init() tea.Cmd {
	return nil
}

// Update handles key events.
func (m CanvasModel) Update(msg tea.Msg) (CanvasModel, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Up):
		m.cursorRow--
	case key.Matches(keyMsg, m.keys.Down):
		m.cursorRow++
	case key.Matches(keyMsg, m.keys.Left):
		m.cursorCol--
	case key.Matches(keyMsg, m.keys.Right):
		m.cursorCol++
	case key.Matches(keyMsg, m.keys.Select):
		if !m.doc.HasColumn(m.cursorRow, m.cursorCol) {
			return m, nil
		}
		r, c := m.cursorRow, m.cursorCol
		return m, func() tea.Msg { return ColumnSelectedMsg{Row: r, Col: c} }
	case key.Matches(keyMsg, m.keys.Deselect):
		return m, func() tea.Msg { return DeselectMsg{} }
	default:
		if a, ok := canvasShortcuts[keyMsg.String()]; ok {
			return m, func() tea.Msg { return ActionMsg{Action: a} }
		}
		return m, nil
	}
	m.clampCursor()
	return m, nil
}

// View renders the canvas pane.
func (m CanvasModel) View() string {
	borderStyle := UnfocusedBorder
	if m.focused {
		borderStyle = FocusedBorder
	}

	innerW := max(m.width-2, 20)
	innerH := max(m.height-2, 3)

	header := HeaderStyle.Render("Page")
	info := DimText.Render(fmt.Sprintf("%d rows", m.doc.Len()))
	gap := max(innerW-lipgloss.Width(header)-lipgloss.Width(info), 1)
	lines := []string{header + strings.Repeat(" ", gap) + info}

	if m.doc.Len() == 0 {
		lines = append(lines, DimText.Render("  Empty page. Press r to add a row."))
	} else {
		blocks := make([]string, m.doc.Len())
		for r := range m.doc.Rows {
			blocks[r] = m.renderRow(r, innerW)
		}
		start := visibleStart(blocks, m.cursorRow, innerH-1)
		used := 1
		for r := start; r < len(blocks); r++ {
			h := lipgloss.Height(blocks[r])
			if used+h > innerH && r != start {
				break
			}
			lines = append(lines, blocks[r])
			used += h
		}
	}

	content := lipgloss.NewStyle().Width(innerW).Height(innerH).MaxHeight(innerH).
		Render(strings.Join(lines, "\n"))
	return borderStyle.Width(innerW).Height(innerH).Render(content)
}

// visibleStart picks the first row to draw so that the cursor row fits in
// height lines.
func visibleStart(blocks []string, cursor, height int) int {
	start := 0
	for start < cursor {
		used := 0
		for r := start; r <= cursor; r++ {
			used += lipgloss.Height(blocks[r])
		}
		if used <= height {
			break
		}
		start++
	}
	return start
}

func (m CanvasModel) renderRow(r, width int) string {
	row := m.doc.Rows[r]
	marker := RowMarker.Render(" ")
	if m.sel.RowIndex == r {
		marker = RowMarkerSelected.Render("▌")
	}
	n := max(len(row.Columns), 1)
	colW := max((width-lipgloss.Width(marker))/n, 8)

	cells := make([]string, 0, len(row.Columns))
	for c := range row.Columns {
		view, _ := render.Cell(m.doc, r, c)
		style := ColumnBox
		switch {
		case m.sel.Column == (editor.ColumnRef{Row: r, Col: c}):
			style = ColumnSelected
		case m.focused && m.cursorRow == r && m.cursorCol == c:
			style = ColumnCursor
		}
		// border (2) and padding (2)
		inner := max(colW-4, 4)
		cells = append(cells, style.Width(colW-2).Render(m.cellContent(view, inner)))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, cells...)
	markerCol := strings.TrimSuffix(strings.Repeat(marker+"\n", lipgloss.Height(body)), "\n")
	return lipgloss.JoinHorizontal(lipgloss.Top, markerCol, body)
}

func (m CanvasModel) cellContent(view render.CellView, width int) string {
	if view.IsImage {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
			Render("[image] " + ImageText.Render(view.URL))
	}
	if strings.TrimSpace(view.DisplayText) == "" {
		return DimText.Width(width).Align(lipgloss.Center).Render("empty")
	}
	text := view.DisplayText
	if m.md != nil {
		text = m.md.Render(text, width)
	}
	return lipgloss.NewStyle().Width(width).Align(alignPosition(view.Align)).Render(text)
}

func alignPosition(a page.Align) lipgloss.Position {
	switch a.Effective() {
	case page.AlignLeft:
		return lipgloss.Left
	case page.AlignRight:
		return lipgloss.Right
	default:
		return lipgloss.Center
	}
}
