package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cli-page/internal/editor"
	"cli-page/internal/page"
)

// TextChangedMsg is sent when the text field content changes.
type TextChangedMsg struct {
	Text string
}

// ImageURLChangedMsg is sent when the image URL field content changes.
type ImageURLChangedMsg struct {
	URL string
}

// FocusCanvasMsg asks the app to move focus back to the canvas.
type FocusCanvasMsg struct{}

// PropertiesModel is the side panel with the page, row, column, text and
// image sections.
type PropertiesModel struct {
	textarea textarea.Model
	url      textinput.Model
	focused  bool
	input    editor.Focus
	width    int
	height   int

	sel       editor.Selection
	column    page.Column
	hasColumn bool
}

// NewPropertiesModel creates the panel.
func NewPropertiesModel() PropertiesModel {
	ta := textarea.New()
	ta.Placeholder = "Enter text"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Prompt = "  "
	ta.SetWidth(30)
	ta.SetHeight(8)

	ti := textinput.New()
	ti.Placeholder = "https://"
	ti.Prompt = "  "
	ti.CharLimit = 2048

	return PropertiesModel{
		textarea: ta,
		url:      ti,
		input:    editor.FocusText,
		sel:      editor.EmptySelection(),
	}
}

// SetFocused sets focus state. The active input follows the panel focus.
func (m *PropertiesModel) SetFocused(f bool) {
	m.focused = f
	m.applyFocus()
}

// Focused returns the focus state.
func (m PropertiesModel) Focused() bool {
	return m.focused
}

// FocusInput makes f the active input. FocusNone keeps the current one.
func (m *PropertiesModel) FocusInput(f editor.Focus) {
	if f == editor.FocusNone {
		return
	}
	m.input = f
	m.applyFocus()
}

// ActiveInput returns the input that receives keys while the panel is focused.
func (m PropertiesModel) ActiveInput() editor.Focus {
	return m.input
}

func (m *PropertiesModel) applyFocus() {
	m.textarea.Blur()
	m.url.Blur()
	if !m.focused {
		return
	}
	switch m.input {
	case editor.FocusImageURL:
		m.url.Focus()
	default:
		m.textarea.Focus()
	}
}

// SetSize sets the panel dimensions.
func (m *PropertiesModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	innerW := max(w-4, 10)
	m.textarea.SetWidth(innerW)
	m.textarea.SetHeight(min(8, max(h-18, 3)))
	m.url.Width = max(innerW-4, 8)
}

// Sync mirrors the controller state into the panel. Field values are only
// replaced when they differ, so the cursor stays put while typing.
func (m *PropertiesModel) Sync(sel editor.Selection, column page.Column, hasColumn bool, text string) {
	m.sel = sel
	m.column = column
	m.hasColumn = hasColumn
	if m.textarea.Value() != text {
		m.textarea.SetValue(text)
	}
	if m.url.Value() != sel.PendingImageURL {
		m.url.SetValue(sel.PendingImageURL)
	}
}

// TextValue returns the text field content.
func (m PropertiesModel) TextValue() string {
	return m.textarea.Value()
}

// URLValue returns the image URL field content.
func (m PropertiesModel) URLValue() string {
	return m.url.Value()
}

// Init satisfies the tea.Model interface.
func (m PropertiesModel) Init() tea.Cmd {
	return nil
}

// Update handles key events for the active input.
func (m PropertiesModel) Update(msg tea.Msg) (PropertiesModel, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		return m, func() tea.Msg { return FocusCanvasMsg{} }
	}

	var cmd tea.Cmd
	switch m.input {
	case editor.FocusImageURL:
		before := m.url.Value()
		m.url, cmd = m.url.Update(msg)
		if after := m.url.Value(); after != before {
			return m, tea.Batch(cmd, func() tea.Msg { return ImageURLChangedMsg{URL: after} })
		}
	default:
		if m.sel.Mode != editor.ModeText {
			return m, nil
		}
		before := m.textarea.Value()
		m.textarea, cmd = m.textarea.Update(msg)
		if after := m.textarea.Value(); after != before {
			return m, tea.Batch(cmd, func() tea.Msg { return TextChangedMsg{Text: after} })
		}
	}
	return m, cmd
}

// View renders the panel.
func (m PropertiesModel) View() string {
	borderStyle := UnfocusedBorder
	if m.focused {
		borderStyle = FocusedBorder
	}
	innerW := max(m.width-2, 10)
	innerH := max(m.height-2, 3)

	var b strings.Builder
	section := func(title string) {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(HeaderStyle.Render(title))
		b.WriteString("\n")
	}

	section("Page")
	b.WriteString(ButtonStyle.Render("Add row") + " " + KeyHint.Render("alt+r"))

	if m.sel.HasRow() {
		section(fmt.Sprintf("Row %d", m.sel.RowIndex+1))
		b.WriteString(ButtonStyle.Render("Add column") + " " + KeyHint.Render("alt+n"))

		title := "Column"
		if m.sel.HasColumn() {
			title = fmt.Sprintf("Column %d", m.sel.Column.Col+1)
		}
		section(title)
		b.WriteString(SubHeaderStyle.Render("Contents "))
		b.WriteString(button("Text", m.sel.Mode == editor.ModeText) + " ")
		b.WriteString(button("Image", m.sel.Mode == editor.ModeImage))
		b.WriteString(" " + KeyHint.Render("alt+t/alt+i"))

		if m.sel.Mode == editor.ModeText {
			section("Text")
			b.WriteString(SubHeaderStyle.Render("Alignment "))
			for i, a := range []page.Align{page.AlignLeft, page.AlignCenter, page.AlignRight} {
				if i > 0 {
					b.WriteString(" ")
				}
				b.WriteString(button(string(a), m.hasColumn && m.column.TextAlign == a))
			}
			b.WriteString("\n\n")
			b.WriteString(m.textView())
		}
	}

	if m.sel.Mode == editor.ModeImage {
		section("Image")
		b.WriteString(SubHeaderStyle.Render("URL"))
		b.WriteString("\n")
		b.WriteString(m.url.View())
	}

	content := lipgloss.NewStyle().Width(innerW).Height(innerH).MaxHeight(innerH).Render(b.String())
	return borderStyle.Width(innerW).Height(innerH).Render(content)
}

func button(label string, selected bool) string {
	if selected {
		return ButtonActive.Render(label)
	}
	return ButtonStyle.Render(label)
}

// textView draws the text field with markdown highlighting. The textarea's
// own view is used while it has focus so the cursor stays visible.
func (m PropertiesModel) textView() string {
	if m.textarea.Focused() || strings.TrimSpace(m.textarea.Value()) == "" {
		return m.textarea.View()
	}
	lines := strings.Split(m.textarea.Value(), "\n")
	limit := max(m.textarea.Height(), 1)
	for i, line := range lines {
		lines[i] = "  " + HighlightMarkdown(line)
	}
	if len(lines) > limit {
		lines = append(lines[:limit-1], DimText.Render("  …"))
	}
	return strings.Join(lines, "\n")
}
