package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cli-page/internal/storage"
)

// OpenDocumentMsg asks the app to switch to the document stored under Key.
type OpenDocumentMsg struct {
	Key string
}

// NewDocumentMsg asks the app to start a fresh document under Key.
type NewDocumentMsg struct {
	Key string
}

// SaveDocumentAsMsg asks the app to copy the current document to Key and
// continue editing the copy.
type SaveDocumentAsMsg struct {
	Key string
}

// DeleteDocumentMsg asks the app to delete the document stored under Key.
type DeleteDocumentMsg struct {
	Key string
}

// DocumentsModalClosedMsg is sent when the modal is dismissed.
type DocumentsModalClosedMsg struct{}

type DocumentsModalMode int

const (
	DocumentsModalList DocumentsModalMode = iota
	DocumentsModalCreate
	DocumentsModalSaveAs
	DocumentsModalFilter
)

// DocumentsModal lists the stored documents and issues open, new, save-as
// and delete requests. It never touches the store itself.
type DocumentsModal struct {
	visible       bool
	mode          DocumentsModalMode
	keys          []string
	current       string
	cursor        int
	filter        string
	input         textinput.Model
	err           string
	width         int
	height        int
	confirmDelete bool
}

func NewDocumentsModal() DocumentsModal {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 64
	return DocumentsModal{input: ti}
}

// DisplayName is the label of a document key in lists.
func DisplayName(key string) string {
	if name := storage.NameFromKey(key); name != "" {
		return name
	}
	return "(default)"
}

// Open shows the modal with current marked as the open document.
func (m *DocumentsModal) Open(current string) {
	m.visible = true
	m.mode = DocumentsModalList
	m.current = current
	m.cursor = 0
	m.filter = ""
	m.err = ""
	m.confirmDelete = false
	m.input.Reset()
	m.input.Blur()
}

func (m *DocumentsModal) Close() {
	m.visible = false
	m.err = ""
	m.confirmDelete = false
	m.input.Blur()
}

func (m DocumentsModal) Visible() bool {
	return m.visible
}

func (m *DocumentsModal) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetDocuments replaces the listed keys.
func (m *DocumentsModal) SetDocuments(keys []string) {
	m.keys = keys
	m.clampCursor()
}

// SetError shows err under the list.
func (m *DocumentsModal) SetError(err string) {
	m.err = err
}

func (m DocumentsModal) visibleKeys() []string {
	if m.filter == "" {
		return m.keys
	}
	var out []string
	for _, k := range m.keys {
		if FuzzyMatch(DisplayName(k), m.filter) {
			out = append(out, k)
		}
	}
	return out
}

func (m *DocumentsModal) clampCursor() {
	n := len(m.visibleKeys())
	m.cursor = min(max(m.cursor, 0), max(n-1, 0))
}

func (m DocumentsModal) selectedKey() (string, bool) {
	keys := m.visibleKeys()
	if m.cursor < 0 || m.cursor >= len(keys) {
		return "", false
	}
	return keys[m.cursor], true
}

func (m DocumentsModal) Update(msg tea.Msg) (DocumentsModal, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.confirmDelete {
		m.confirmDelete = false
		if keyMsg.String() == "y" || keyMsg.String() == "Y" {
			if k, ok := m.selectedKey(); ok {
				return m, func() tea.Msg { return DeleteDocumentMsg{Key: k} }
			}
		}
		return m, nil
	}

	switch m.mode {
	case DocumentsModalCreate, DocumentsModalSaveAs:
		return m.updateInput(keyMsg)
	case DocumentsModalFilter:
		return m.updateFilter(keyMsg)
	default:
		return m.updateList(keyMsg)
	}
}

func (m DocumentsModal) updateList(msg tea.KeyMsg) (DocumentsModal, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+o":
		m.Close()
		return m, func() tea.Msg { return DocumentsModalClosedMsg{} }
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visibleKeys())-1 {
			m.cursor++
		}
	case "enter":
		if k, ok := m.selectedKey(); ok {
			m.Close()
			return m, func() tea.Msg { return OpenDocumentMsg{Key: k} }
		}
	case "/":
		m.mode = DocumentsModalFilter
	case "n":
		m.startInput(DocumentsModalCreate)
	case "s":
		m.startInput(DocumentsModalSaveAs)
	case "d", "x":
		if k, ok := m.selectedKey(); ok {
			if k == m.current {
				m.err = "Cannot delete the open document"
				return m, nil
			}
			m.confirmDelete = true
		}
	}
	return m, nil
}

func (m DocumentsModal) updateFilter(msg tea.KeyMsg) (DocumentsModal, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filter = ""
		m.mode = DocumentsModalList
	case tea.KeyEnter:
		m.mode = DocumentsModalList
	case tea.KeyBackspace:
		if len(m.filter) > 0 {
			m.filter = m.filter[:len(m.filter)-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		m.filter += msg.String()
	}
	m.clampCursor()
	return m, nil
}

func (m *DocumentsModal) startInput(mode DocumentsModalMode) {
	m.mode = mode
	m.err = ""
	m.input.Reset()
	m.input.Focus()
}

func (m DocumentsModal) updateInput(msg tea.KeyMsg) (DocumentsModal, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = DocumentsModalList
		m.err = ""
		m.input.Blur()
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			m.err = "Name cannot be empty"
			return m, nil
		}
		k := storage.KeyFor(name)
		for _, existing := range m.keys {
			if existing == k {
				m.err = fmt.Sprintf("%s already exists", name)
				return m, nil
			}
		}
		mode := m.mode
		m.Close()
		if mode == DocumentsModalCreate {
			return m, func() tea.Msg { return NewDocumentMsg{Key: k} }
		}
		return m, func() tea.Msg { return SaveDocumentAsMsg{Key: k} }
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m DocumentsModal) View() string {
	if !m.visible {
		return ""
	}

	modalW := 50
	if m.width > 0 && modalW > m.width-4 {
		modalW = m.width - 4
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Documents"))
	b.WriteString("\n")

	keys := m.visibleKeys()
	switch {
	case m.confirmDelete && m.cursor < len(keys):
		b.WriteString("\n")
		b.WriteString(ErrorText.Render(fmt.Sprintf("  Delete %s?", DisplayName(keys[m.cursor]))))
		b.WriteString("\n")
		b.WriteString(DimText.Render("  y confirm | any key cancel"))
		b.WriteString("\n")
	case m.mode == DocumentsModalCreate || m.mode == DocumentsModalSaveAs:
		label := "New document name"
		if m.mode == DocumentsModalSaveAs {
			label = "Save as"
		}
		b.WriteString("\n")
		b.WriteString(AccentText.Render("  " + label))
		b.WriteString("\n")
		b.WriteString("  " + FilterText.Render(m.input.View()))
		b.WriteString("\n")
		if m.err != "" {
			b.WriteString(ErrorText.Render("  " + m.err))
			b.WriteString("\n")
		}
		b.WriteString(DimText.Render("  Enter confirm | Esc back"))
		b.WriteString("\n")
	default:
		b.WriteString(DimText.Render("  Enter open | n new | s save as | d delete | / filter | Esc close"))
		b.WriteString("\n")
		if m.mode == DocumentsModalFilter || m.filter != "" {
			b.WriteString("  " + FilterPrompt.Render("/") + FilterText.Render(m.filter))
			b.WriteString("\n")
		}
		b.WriteString("\n")

		if len(keys) == 0 {
			b.WriteString(DimText.Render("  No saved documents"))
			b.WriteString("\n")
		} else {
			maxShow := 15
			if m.height > 0 {
				maxShow = max(m.height-12, 5)
			}
			start := 0
			if m.cursor >= maxShow {
				start = m.cursor - maxShow + 1
			}
			end := min(start+maxShow, len(keys))
			for i := start; i < end; i++ {
				label := "  " + DisplayName(keys[i])
				switch {
				case i == m.cursor:
					b.WriteString(ListCursorItem.Width(modalW - 4).Render(label))
				case keys[i] == m.current:
					b.WriteString(ListActiveItem.Render(label))
				default:
					b.WriteString(ListItem.Render(label))
				}
				b.WriteString("\n")
			}
		}

		if m.err != "" {
			b.WriteString(ErrorText.Render("  " + m.err))
			b.WriteString("\n")
		}
	}

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent).
		Padding(1, 2).
		Width(modalW)

	rendered := modalStyle.Render(b.String())
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, rendered)
	}
	return rendered
}
