package editor

import (
	"time"

	"cli-page/internal/page"
)

// DefaultDeselectAfter is how long a column stays selected without a new
// selection.
const DefaultDeselectAfter = 15 * time.Second

// Deadline describes the armed auto-deselect timer. Generation identifies
// the selection the timer was armed for; Expire ignores any other value.
type Deadline struct {
	Generation uint64
	After      time.Duration
	Target     ColumnRef
}

// Controller owns the document snapshot and the selection state. Every
// operation runs to completion and replaces the document wholesale, so
// readers never see a partial update. It is not safe for concurrent use;
// callers drive it from a single event loop.
type Controller struct {
	doc           page.Document
	sel           Selection
	ids           page.IDSource
	deselectAfter time.Duration

	timerGen   uint64
	timerArmed bool

	revision  uint64
	focus     Focus
	listeners []func(page.Document)
}

// Option configures a Controller.
type Option func(*Controller)

// WithDeselectAfter overrides the auto-deselect delay. Non-positive values
// keep the default.
func WithDeselectAfter(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.deselectAfter = d
		}
	}
}

// WithIDs sets the id source used for new rows and columns.
func WithIDs(ids page.IDSource) Option {
	return func(c *Controller) {
		c.ids = ids
	}
}

// NewController starts an editing session on doc with nothing selected.
func NewController(doc page.Document, opts ...Option) *Controller {
	c := &Controller{
		doc:           doc,
		sel:           EmptySelection(),
		deselectAfter: DefaultDeselectAfter,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ids == nil {
		gen := page.NewIDGen()
		gen.Observe(doc)
		c.ids = gen
	}
	return c
}

// Document returns the current snapshot.
func (c *Controller) Document() page.Document {
	return c.doc
}

// Selection returns the current selection state.
func (c *Controller) Selection() Selection {
	return c.sel
}

// Revision increases with every document mutation.
func (c *Controller) Revision() uint64 {
	return c.revision
}

// Subscribe registers fn to receive every new document snapshot.
func (c *Controller) Subscribe(fn func(page.Document)) {
	c.listeners = append(c.listeners, fn)
}

// Replace swaps in another document, for example after opening a different
// one from storage. The selection is reset and any pending timer cancelled.
func (c *Controller) Replace(doc page.Document) {
	if gen, ok := c.ids.(*page.IDGen); ok {
		gen.Observe(doc)
	}
	c.sel = EmptySelection()
	c.focus = FocusNone
	c.cancelTimer()
	c.commit(doc)
}

// SelectColumn toggles the selection of column (r, c). Selecting the first
// column of the first row always opens the text editor.
func (c *Controller) SelectColumn(r, col int) {
	if !c.doc.HasColumn(r, col) {
		return
	}
	c.sel.RowIndex = r
	if r == 0 && col == 0 {
		c.sel.Mode = ModeText
	}
	target := ColumnRef{Row: r, Col: col}
	if c.sel.Column == target {
		c.sel.Column = NoColumn
		c.cancelTimer()
		return
	}
	c.sel.Column = target
	c.armTimer()
	c.requestEditorFocus()
}

// DeselectAll clears the selection and closes the property panels.
func (c *Controller) DeselectAll() {
	c.sel.RowIndex = NoIndex
	c.sel.Column = NoColumn
	c.sel.Mode = ModeNone
	c.cancelTimer()
}

// AddRow appends a row and presents its first column for text entry.
func (c *Controller) AddRow() {
	c.commit(page.AddRow(c.doc, c.ids))
	r := c.doc.Len() - 1
	c.sel.RowIndex = r
	c.sel.Column = ColumnRef{Row: r, Col: 0}
	c.sel.Mode = ModeText
	c.sel.PendingImageURL = ""
	c.armTimer()
	c.focus = FocusText
}

// AddColumn appends a column to the selected row and selects it. The image
// panel is closed.
func (c *Controller) AddColumn() {
	if !c.sel.HasRow() {
		return
	}
	row, ok := c.doc.Row(c.sel.RowIndex)
	if !ok {
		return
	}
	r := c.sel.RowIndex
	c.commit(page.AddColumn(c.doc, c.ids, r))
	c.sel.Column = ColumnRef{Row: r, Col: len(row.Columns)}
	c.sel.PendingImageURL = ""
	if c.sel.Mode == ModeImage {
		c.sel.Mode = ModeNone
	}
	c.armTimer()
	c.requestEditorFocus()
}

// OpenTextEditor switches the property panel to text editing.
func (c *Controller) OpenTextEditor() {
	c.sel.Mode = ModeText
	c.sel.PendingImageURL = ""
	c.focus = FocusText
}

// OpenImageEditor switches the property panel to the image URL field.
func (c *Controller) OpenImageEditor() {
	c.sel.Mode = ModeImage
	c.focus = FocusImageURL
}

// ChangeText replaces the text of the selected column.
func (c *Controller) ChangeText(text string) {
	ref := c.sel.Column
	if !c.doc.HasColumn(ref.Row, ref.Col) {
		return
	}
	c.commit(page.SetColumnText(c.doc, ref.Row, ref.Col, text))
}

// EditorText is the value shown in the text field: the row caption when set,
// the column text otherwise.
func (c *Controller) EditorText() string {
	ref := c.sel.Column
	if ref.IsNone() {
		return ""
	}
	return c.doc.EffectiveText(ref.Row, ref.Col)
}

// ChangeTextAlign sets the alignment of the selected column.
func (c *Controller) ChangeTextAlign(align page.Align) {
	ref := c.sel.Column
	if !align.Valid() || !c.doc.HasColumn(ref.Row, ref.Col) {
		return
	}
	c.commit(page.SetColumnTextAlign(c.doc, ref.Row, ref.Col, align))
}

// ChangeImageURL records url as the field value and, when a column is
// selected, stores it as that column's content.
func (c *Controller) ChangeImageURL(url string) {
	c.sel.PendingImageURL = url
	ref := c.sel.Column
	if !c.doc.HasColumn(ref.Row, ref.Col) {
		return
	}
	c.commit(page.SetColumnImage(c.doc, ref.Row, ref.Col, url))
}

// SelectedColumn returns the selected column, if any.
func (c *Controller) SelectedColumn() (page.Column, bool) {
	ref := c.sel.Column
	if ref.IsNone() {
		return page.Column{}, false
	}
	return c.doc.Column(ref.Row, ref.Col)
}

// Timer returns the armed auto-deselect deadline.
func (c *Controller) Timer() (Deadline, bool) {
	if !c.timerArmed {
		return Deadline{}, false
	}
	return Deadline{Generation: c.timerGen, After: c.deselectAfter, Target: c.sel.Column}, true
}

// Expire fires the auto-deselect timer armed as generation gen. Only the
// column selection is cleared; the row and the open panel stay. A stale
// generation is ignored. It reports whether the selection was cleared.
func (c *Controller) Expire(gen uint64) bool {
	if !c.timerArmed || gen != c.timerGen {
		return false
	}
	c.timerArmed = false
	c.sel.Column = NoColumn
	return true
}

// TakeFocus returns and clears the pending focus request.
func (c *Controller) TakeFocus() Focus {
	f := c.focus
	c.focus = FocusNone
	return f
}

func (c *Controller) requestEditorFocus() {
	if c.sel.Mode == ModeImage {
		c.focus = FocusImageURL
		return
	}
	c.focus = FocusText
}

func (c *Controller) armTimer() {
	c.timerGen++
	c.timerArmed = true
}

func (c *Controller) cancelTimer() {
	c.timerGen++
	c.timerArmed = false
}

func (c *Controller) commit(doc page.Document) {
	c.doc = doc
	c.revision++
	for _, fn := range c.listeners {
		fn(doc)
	}
}
