package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// MessageType represents the type of status message.
type MessageType int

const (
	MsgInfo MessageType = iota
	MsgSuccess
	MsgError
)

// Pane identifiers used for context hints.
const (
	PaneCanvas = iota
	PaneProperties
)

// StatusBarModel is the context-aware status bar at the bottom.
type StatusBarModel struct {
	message     string
	messageType MessageType
	messageTime time.Time
	activePane  int
	document    string
	selection   string
	saveState   string
	deselectIn  time.Duration
	help        help.Model
	keys        KeyMap
	width       int
	now         func() time.Time
}

// NewStatusBarModel creates a new status bar.
func NewStatusBarModel(keys KeyMap) StatusBarModel {
	h := help.New()
	h.ShortSeparator = " | "
	return StatusBarModel{help: h, keys: keys, now: time.Now}
}

// SetWidth sets the status bar width.
func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
	m.help.Width = w
}

// SetMessage sets a status message.
func (m *StatusBarModel) SetMessage(msg string, t MessageType) {
	m.message = msg
	m.messageType = t
	m.messageTime = m.now()
}

// Message returns the current status message.
func (m StatusBarModel) Message() (string, MessageType) {
	return m.message, m.messageType
}

// SetActivePane sets which pane is focused.
func (m *StatusBarModel) SetActivePane(pane int) {
	m.activePane = pane
}

// SetDocument sets the name of the open document.
func (m *StatusBarModel) SetDocument(name string) {
	m.document = name
}

// SetSelection sets the selection summary.
func (m *StatusBarModel) SetSelection(s string) {
	m.selection = s
}

// SetSaveState sets the autosave indicator.
func (m *StatusBarModel) SetSaveState(s string) {
	m.saveState = s
}

// SaveState returns the autosave indicator.
func (m StatusBarModel) SaveState() string {
	return m.saveState
}

// SetDeselectIn sets the auto-deselect countdown. Zero hides it.
func (m *StatusBarModel) SetDeselectIn(d time.Duration) {
	m.deselectIn = d
}

// ToggleHelp switches between the hint line and the full key help.
func (m *StatusBarModel) ToggleHelp() {
	m.help.ShowAll = !m.help.ShowAll
}

// ShowingHelp reports whether the full key help is shown.
func (m StatusBarModel) ShowingHelp() bool {
	return m.help.ShowAll
}

// ClearExpiredMessage clears success and info messages after 3 seconds.
func (m *StatusBarModel) ClearExpiredMessage() {
	if m.messageType != MsgError && m.now().Sub(m.messageTime) > 3*time.Second {
		m.message = ""
	}
}

// View renders the status bar.
func (m StatusBarModel) View() string {
	hints := m.contextHints()

	var rightParts []string
	if m.document != "" {
		rightParts = append(rightParts, m.document)
	}
	if m.selection != "" {
		rightParts = append(rightParts, m.selection)
	}
	if m.deselectIn > 0 {
		rightParts = append(rightParts, fmt.Sprintf("deselect in %ds", int(m.deselectIn.Round(time.Second)/time.Second)))
	}
	if m.saveState != "" {
		rightParts = append(rightParts, m.saveState)
	}
	right := strings.Join(rightParts, " | ")

	if m.message != "" {
		var msgStyle lipgloss.Style
		switch m.messageType {
		case MsgError:
			msgStyle = StatusErrorStyle
		case MsgSuccess:
			msgStyle = StatusSuccessStyle
		default:
			msgStyle = StatusBarStyle
		}
		hints = msgStyle.Render(m.message)
	}

	w := max(m.width, 20)
	gap := max(w-lipgloss.Width(hints)-lipgloss.Width(right)-2, 1)
	line := StatusBarStyle.Width(w).Render(hints + strings.Repeat(" ", gap) + right)
	if m.help.ShowAll {
		return m.help.View(m.keys) + "\n" + line
	}
	return line
}

// HelpHeight is the number of extra lines the full help takes.
func (m StatusBarModel) HelpHeight() int {
	if !m.help.ShowAll {
		return 0
	}
	return lipgloss.Height(m.help.View(m.keys))
}

func (m StatusBarModel) contextHints() string {
	switch m.activePane {
	case PaneProperties:
		return "Type to edit | Esc Canvas | Tab Switch pane | F1 Help"
	default:
		return m.help.ShortHelpView(m.keys.ShortHelp())
	}
}
