package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cli-page/internal/editor"
	applog "cli-page/internal/log"
	"cli-page/internal/page"
	"cli-page/internal/render"
	"cli-page/internal/storage"
	"cli-page/internal/ui"
)

// Pane represents which pane is focused.
type Pane int

const (
	CanvasPane Pane = iota
	PropertiesPane
)

const propertiesWidth = 42

// tickMsg refreshes the status bar once a second.
type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg{}
	})
}

// deselectMsg fires the auto-deselect timer armed as generation gen.
type deselectMsg struct {
	gen uint64
}

func deselectCmd(d editor.Deadline) tea.Cmd {
	return tea.Tick(d.After, func(time.Time) tea.Msg {
		return deselectMsg{gen: d.Generation}
	})
}

// savedMsg carries the outcome of a background save.
type savedMsg struct {
	key   string
	rev   uint64
	wrote bool
	err   error
}

// documentsListedMsg carries the document keys for the modal.
type documentsListedMsg struct {
	keys []string
	err  error
}

// documentOpenedMsg carries a document loaded from the store.
type documentOpenedMsg struct {
	key string
	doc page.Document
	err error
}

// documentDeletedMsg carries the result of a delete.
type documentDeletedMsg struct {
	key string
	err error
}

// clipboardMsg carries the result of a copy.
type clipboardMsg struct {
	size int
	err  error
}

// Options configures NewModel.
type Options struct {
	Store         storage.Store
	Key           string
	Document      page.Document
	IDs           *page.IDGen
	DeselectAfter time.Duration
	Markdown      *render.Markdown
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
	Now       func() time.Time
}

// session is shared by every copy of the model.
type session struct {
	key string
}

// Model is the root Bubble Tea model.
type Model struct {
	activePane Pane
	ctrl       *editor.Controller
	saver      *storage.Saver
	store      storage.Store
	ids        *page.IDGen
	session    *session
	keys       ui.KeyMap
	canvas     ui.CanvasModel
	props      ui.PropertiesModel
	statusbar  ui.StatusBarModel
	docsModal  ui.DocumentsModal
	width      int
	height     int
	seenRev    uint64
	scheduled  uint64
	deadline   time.Time
	copyText   func(string) error
	now        func() time.Time
	log        *slog.Logger
}

// NewModel creates the root app model editing opts.Document.
func NewModel(opts Options) Model {
	ids := opts.IDs
	if ids == nil {
		ids = page.NewIDGen()
	}
	ids.Observe(opts.Document)
	key := opts.Key
	if key == "" {
		key = storage.DefaultKey
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	copyText := opts.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}

	l := applog.WithComponent("app")
	ctrl := editor.NewController(opts.Document,
		editor.WithDeselectAfter(opts.DeselectAfter),
		editor.WithIDs(ids),
	)
	ctrl.Subscribe(func(doc page.Document) {
		l.Debug("document changed", slog.Int("rows", doc.Len()))
	})

	keys := ui.DefaultKeyMap()
	canvas := ui.NewCanvasModel(opts.Markdown, keys)
	canvas.SetFocused(true)
	statusbar := ui.NewStatusBarModel(keys)
	statusbar.SetActivePane(ui.PaneCanvas)

	m := Model{
		activePane: CanvasPane,
		ctrl:       ctrl,
		saver:      storage.NewSaver(opts.Store),
		store:      opts.Store,
		ids:        ids,
		session:    &session{key: key},
		keys:       keys,
		canvas:     canvas,
		props:      ui.NewPropertiesModel(),
		statusbar:  statusbar,
		docsModal:  ui.NewDocumentsModal(),
		seenRev:    ctrl.Revision(),
		copyText:   copyText,
		now:        now,
		log:        l,
	}
	m.sync()
	return m
}

// Key returns the storage key of the open document.
func (m Model) Key() string {
	return m.session.key
}

// Document returns the current document snapshot.
func (m Model) Document() page.Document {
	return m.ctrl.Document()
}

// Selection returns the current selection.
func (m Model) Selection() editor.Selection {
	return m.ctrl.Selection()
}

// ActivePane returns the focused pane.
func (m Model) ActivePane() Pane {
	return m.activePane
}

// Flush writes the current document synchronously unless that revision was
// already saved.
func (m Model) Flush(ctx context.Context) error {
	_, err := m.saver.Save(ctx, m.session.key, m.ctrl.Revision(), m.ctrl.Document())
	return err
}

// Init starts the app.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		m.docsModal.SetSize(msg.Width, msg.Height)
		return m, nil

	case tickMsg:
		m.statusbar.ClearExpiredMessage()
		m.updateCountdown()
		return m, tickCmd()

	case deselectMsg:
		if m.ctrl.Expire(msg.gen) {
			m.log.Debug("selection expired", slog.Uint64("gen", msg.gen))
			m.deadline = time.Time{}
			m.sync()
		}
		return m, nil

	case savedMsg:
		if msg.key != m.session.key {
			return m, nil
		}
		switch {
		case msg.err != nil:
			m.statusbar.SetSaveState("not saved")
		case msg.rev >= m.ctrl.Revision():
			m.statusbar.SetSaveState("saved")
		}
		return m, nil

	case ui.ColumnSelectedMsg:
		m.ctrl.SelectColumn(msg.Row, msg.Col)
		cmd := m.afterChange()
		return m, cmd

	case ui.DeselectMsg:
		m.ctrl.DeselectAll()
		cmd := m.afterChange()
		return m, cmd

	case ui.ActionMsg:
		cmd := m.apply(msg.Action)
		return m, cmd

	case ui.TextChangedMsg:
		m.ctrl.ChangeText(msg.Text)
		cmd := m.afterChange()
		return m, cmd

	case ui.ImageURLChangedMsg:
		m.ctrl.ChangeImageURL(msg.URL)
		cmd := m.afterChange()
		return m, cmd

	case ui.FocusCanvasMsg:
		m.setPane(CanvasPane)
		return m, nil

	case ui.OpenDocumentMsg:
		if msg.Key == m.session.key {
			return m, nil
		}
		cmd := m.openDocument(msg.Key)
		return m, cmd

	case ui.NewDocumentMsg:
		cmd := m.switchTo(msg.Key, page.New(m.ids), true)
		m.statusbar.SetMessage(fmt.Sprintf("Created %s", ui.DisplayName(msg.Key)), ui.MsgSuccess)
		return m, cmd

	case ui.SaveDocumentAsMsg:
		cmd := m.switchTo(msg.Key, m.ctrl.Document(), true)
		m.statusbar.SetMessage(fmt.Sprintf("Saved as %s", ui.DisplayName(msg.Key)), ui.MsgSuccess)
		return m, cmd

	case ui.DeleteDocumentMsg:
		cmd := m.deleteDocument(msg.Key)
		return m, cmd

	case ui.DocumentsModalClosedMsg:
		return m, nil

	case documentsListedMsg:
		if msg.err != nil {
			m.docsModal.SetError("List failed: " + msg.err.Error())
			return m, nil
		}
		m.docsModal.SetDocuments(withKey(msg.keys, m.session.key))
		return m, nil

	case documentOpenedMsg:
		if msg.err != nil {
			m.statusbar.SetMessage("Open failed: "+msg.err.Error(), ui.MsgError)
			return m, nil
		}
		cmd := m.switchTo(msg.key, msg.doc, false)
		m.statusbar.SetMessage(fmt.Sprintf("Opened %s", ui.DisplayName(msg.key)), ui.MsgSuccess)
		return m, cmd

	case documentDeletedMsg:
		if msg.err != nil {
			m.docsModal.SetError("Delete failed: " + msg.err.Error())
			return m, nil
		}
		m.saver.Forget(msg.key)
		m.statusbar.SetMessage(fmt.Sprintf("Deleted %s", ui.DisplayName(msg.key)), ui.MsgSuccess)
		cmd := m.listDocuments()
		return m, cmd

	case clipboardMsg:
		if msg.err != nil {
			m.statusbar.SetMessage("Copy failed: "+msg.err.Error(), ui.MsgError)
		} else {
			m.statusbar.SetMessage(fmt.Sprintf("Copied %d bytes", msg.size), ui.MsgSuccess)
		}
		return m, nil

	case tea.KeyMsg:
		if m.docsModal.Visible() {
			var cmd tea.Cmd
			m.docsModal, cmd = m.docsModal.Update(msg)
			return m, cmd
		}

		// Global shortcuts
		switch {
		case key.Matches(msg, m.keys.Quit):
			ctx, cancel := context.WithTimeout(context.Background(), storage.DefaultSaveTimeout)
			defer cancel()
			if err := m.Flush(ctx); err != nil {
				m.log.Error("final save failed", slog.Any("err", err))
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextPane), key.Matches(msg, m.keys.PrevPane):
			m.togglePane()
			return m, nil
		case key.Matches(msg, m.keys.Documents):
			m.docsModal.Open(m.session.key)
			m.docsModal.SetDocuments([]string{m.session.key})
			cmd := m.listDocuments()
			return m, cmd
		case key.Matches(msg, m.keys.Help):
			m.statusbar.ToggleHelp()
			m.recalcLayout()
			return m, nil
		case key.Matches(msg, m.keys.Copy):
			cmd := m.copySelection()
			return m, cmd
		case key.Matches(msg, m.keys.AddRow):
			cmd := m.apply(ui.ActionAddRow)
			return m, cmd
		case key.Matches(msg, m.keys.AddColumn):
			cmd := m.apply(ui.ActionAddColumn)
			return m, cmd
		case key.Matches(msg, m.keys.TextMode):
			cmd := m.apply(ui.ActionTextMode)
			return m, cmd
		case key.Matches(msg, m.keys.ImageMode):
			cmd := m.apply(ui.ActionImageMode)
			return m, cmd
		case key.Matches(msg, m.keys.AlignLeft):
			cmd := m.apply(ui.ActionAlignLeft)
			return m, cmd
		case key.Matches(msg, m.keys.AlignCenter):
			cmd := m.apply(ui.ActionAlignCenter)
			return m, cmd
		case key.Matches(msg, m.keys.AlignRight):
			cmd := m.apply(ui.ActionAlignRight)
			return m, cmd
		}
	}

	// Route to the active pane
	var cmd tea.Cmd
	switch m.activePane {
	case CanvasPane:
		m.canvas, cmd = m.canvas.Update(msg)
	case PropertiesPane:
		m.props, cmd = m.props.Update(msg)
	}
	return m, cmd
}

// View renders the app.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.docsModal.Visible() {
		return m.docsModal.View()
	}

	title := ui.BannerText.Render("cli-page") + " " + ui.DisplayName(m.session.key)
	if d, ok := m.store.(interface{ Describe() string }); ok {
		title += "  " + ui.DimText.Render(d.Describe())
	}
	topBar := ui.TopBarStyle.Width(m.width - 2).Render(title)

	mainArea := lipgloss.JoinHorizontal(lipgloss.Top, m.canvas.View(), m.props.View())
	return lipgloss.JoinVertical(lipgloss.Left, topBar, mainArea, m.statusbar.View())
}

func (m *Model) recalcLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	propsW := min(propertiesWidth, m.width/2)
	canvasW := m.width - propsW
	availH := max(m.height-2-m.statusbar.HelpHeight(), 6)

	m.canvas.SetSize(canvasW, availH)
	m.props.SetSize(propsW, availH)
	m.statusbar.SetWidth(m.width)
}

func (m *Model) setPane(p Pane) {
	m.activePane = p
	m.canvas.SetFocused(p == CanvasPane)
	m.props.SetFocused(p == PropertiesPane)
	if p == CanvasPane {
		m.statusbar.SetActivePane(ui.PaneCanvas)
	} else {
		m.statusbar.SetActivePane(ui.PaneProperties)
	}
}

func (m *Model) togglePane() {
	if m.activePane == CanvasPane {
		m.setPane(PropertiesPane)
		return
	}
	m.setPane(CanvasPane)
}

func (m *Model) apply(a ui.Action) tea.Cmd {
	switch a {
	case ui.ActionAddRow:
		m.ctrl.AddRow()
	case ui.ActionAddColumn:
		m.ctrl.AddColumn()
	case ui.ActionTextMode:
		m.ctrl.OpenTextEditor()
	case ui.ActionImageMode:
		m.ctrl.OpenImageEditor()
	case ui.ActionAlignLeft:
		m.ctrl.ChangeTextAlign(page.AlignLeft)
	case ui.ActionAlignCenter:
		m.ctrl.ChangeTextAlign(page.AlignCenter)
	case ui.ActionAlignRight:
		m.ctrl.ChangeTextAlign(page.AlignRight)
	}
	return m.afterChange()
}

// afterChange persists a new revision, schedules a newly armed deselect
// timer and applies a pending focus request.
func (m *Model) afterChange() tea.Cmd {
	var cmds []tea.Cmd
	if rev := m.ctrl.Revision(); rev != m.seenRev {
		m.seenRev = rev
		cmds = append(cmds, m.saveCmd())
	}
	if d, ok := m.ctrl.Timer(); ok {
		if d.Generation != m.scheduled {
			m.scheduled = d.Generation
			m.deadline = m.now().Add(d.After)
			cmds = append(cmds, deselectCmd(d))
		}
	} else {
		m.deadline = time.Time{}
	}
	if f := m.ctrl.TakeFocus(); f != editor.FocusNone {
		m.props.FocusInput(f)
		m.setPane(PropertiesPane)
	}
	m.sync()
	m.updateCountdown()
	return tea.Batch(cmds...)
}

func (m *Model) sync() {
	sel := m.ctrl.Selection()
	m.canvas.SetDocument(m.ctrl.Document(), sel)
	col, ok := m.ctrl.SelectedColumn()
	m.props.Sync(sel, col, ok, m.ctrl.EditorText())
	m.statusbar.SetSelection(describeSelection(sel))
	m.statusbar.SetDocument(ui.DisplayName(m.session.key))
}

func (m *Model) updateCountdown() {
	if m.deadline.IsZero() {
		m.statusbar.SetDeselectIn(0)
		return
	}
	m.statusbar.SetDeselectIn(max(m.deadline.Sub(m.now()), 0))
}

func describeSelection(sel editor.Selection) string {
	switch {
	case sel.HasColumn():
		return fmt.Sprintf("row %d col %d | %s", sel.Column.Row+1, sel.Column.Col+1, sel.Mode)
	case sel.HasRow():
		return fmt.Sprintf("row %d | %s", sel.RowIndex+1, sel.Mode)
	case sel.Mode != editor.ModeNone:
		return sel.Mode.String()
	default:
		return ""
	}
}

func (m *Model) saveCmd() tea.Cmd {
	saver, key := m.saver, m.session.key
	rev, doc := m.ctrl.Revision(), m.ctrl.Document()
	m.statusbar.SetSaveState("saving")
	return func() tea.Msg {
		wrote, err := saver.Save(context.Background(), key, rev, doc)
		return savedMsg{key: key, rev: rev, wrote: wrote, err: err}
	}
}

// switchTo makes doc the open document under key. With persist the
// document is written right away.
func (m *Model) switchTo(key string, doc page.Document, persist bool) tea.Cmd {
	m.log.Info("switching document", slog.String("from", m.session.key), slog.String("to", key))
	m.session.key = key
	m.ctrl.Replace(doc)
	m.seenRev = m.ctrl.Revision()
	m.deadline = time.Time{}
	m.setPane(CanvasPane)
	m.sync()
	m.updateCountdown()
	if persist {
		return m.saveCmd()
	}
	m.statusbar.SetSaveState("saved")
	return nil
}

func (m *Model) listDocuments() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storage.DefaultSaveTimeout)
		defer cancel()
		keys, err := store.List(ctx)
		return documentsListedMsg{keys: keys, err: err}
	}
}

func (m *Model) openDocument(key string) tea.Cmd {
	store, ids := m.store, m.ids
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storage.DefaultSaveTimeout)
		defer cancel()
		doc, err := storage.LoadOrDefault(ctx, store, key, ids)
		return documentOpenedMsg{key: key, doc: doc, err: err}
	}
}

func (m *Model) deleteDocument(key string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storage.DefaultSaveTimeout)
		defer cancel()
		return documentDeletedMsg{key: key, err: store.Delete(ctx, key)}
	}
}

func (m *Model) copySelection() tea.Cmd {
	if !m.ctrl.Selection().HasColumn() {
		m.statusbar.SetMessage("Select a column to copy", ui.MsgInfo)
		return nil
	}
	text, write := m.ctrl.EditorText(), m.copyText
	return func() tea.Msg {
		return clipboardMsg{size: len(text), err: write(text)}
	}
}

// withKey prepends key to keys when it is missing.
func withKey(keys []string, key string) []string {
	for _, k := range keys {
		if k == key {
			return keys
		}
	}
	return append([]string{key}, keys...)
}
