package editor

import (
	"testing"
	"time"

	"cli-page/internal/page"
	"cli-page/internal/render"
)

type seqIDs struct{ n page.ID }

func (s *seqIDs) Next() page.ID {
	s.n++
	return s.n
}

func newTestController() *Controller {
	ids := &seqIDs{}
	return NewController(page.New(ids), WithIDs(ids))
}

func TestFreshSessionHasNothingSelected(t *testing.T) {
	c := newTestController()
	sel := c.Selection()
	if sel.HasRow() || sel.HasColumn() || sel.Mode != ModeNone || sel.PendingImageURL != "" {
		t.Fatalf("unexpected initial selection: %#v", sel)
	}
	if _, ok := c.Timer(); ok {
		t.Fatalf("timer armed at session start")
	}
}

// Scenario A.
func TestSelectFirstColumnOpensTextEditor(t *testing.T) {
	c := newTestController()
	c.OpenImageEditor()
	c.SelectColumn(0, 0)
	sel := c.Selection()
	if sel.Mode != ModeText {
		t.Fatalf("Mode = %v, want text", sel.Mode)
	}
	if sel.Column != (ColumnRef{0, 0}) || sel.RowIndex != 0 {
		t.Fatalf("selection = %#v", sel)
	}
	if f := c.TakeFocus(); f != FocusText {
		t.Fatalf("focus = %v, want FocusText", f)
	}
	if f := c.TakeFocus(); f != FocusNone {
		t.Fatalf("focus request not consumed")
	}
}

func TestSelectColumnToggles(t *testing.T) {
	c := newTestController()
	c.AddRow()
	c.DeselectAll()

	c.SelectColumn(1, 0)
	if c.Selection().Column != (ColumnRef{1, 0}) {
		t.Fatalf("first select did not select")
	}
	c.SelectColumn(1, 0)
	sel := c.Selection()
	if sel.HasColumn() {
		t.Fatalf("second select should deselect, got %v", sel.Column)
	}
	if _, ok := c.Timer(); ok {
		t.Fatalf("timer still armed after toggling off")
	}
}

func TestSelectOtherColumnKeepsMode(t *testing.T) {
	c := newTestController()
	c.AddRow()
	c.OpenImageEditor()
	c.SelectColumn(0, 0)
	c.OpenImageEditor()
	c.SelectColumn(1, 0)
	if got := c.Selection().Mode; got != ModeImage {
		t.Fatalf("Mode = %v, want image", got)
	}
	if f := c.TakeFocus(); f != FocusImageURL {
		t.Fatalf("focus = %v, want FocusImageURL", f)
	}
}

func TestSelectMissingColumnIsIgnored(t *testing.T) {
	c := newTestController()
	c.SelectColumn(3, 0)
	c.SelectColumn(0, 4)
	if c.Selection().HasColumn() || c.Selection().HasRow() {
		t.Fatalf("invalid selection accepted: %#v", c.Selection())
	}
}

func TestDeselectAll(t *testing.T) {
	c := newTestController()
	c.SelectColumn(0, 0)
	c.DeselectAll()
	sel := c.Selection()
	if sel.HasRow() || sel.HasColumn() || sel.Mode != ModeNone {
		t.Fatalf("selection not cleared: %#v", sel)
	}
	if _, ok := c.Timer(); ok {
		t.Fatalf("timer still armed")
	}
}

// Scenario B.
func TestAddRowSelectsNewRowForText(t *testing.T) {
	c := newTestController()
	c.OpenImageEditor()
	c.ChangeImageURL("https://typed")
	c.AddRow()

	if n := c.Document().Len(); n != 2 {
		t.Fatalf("rows = %d, want 2", n)
	}
	sel := c.Selection()
	if sel.Column != (ColumnRef{1, 0}) || sel.RowIndex != 1 {
		t.Fatalf("selection = %#v", sel)
	}
	if sel.Mode != ModeText {
		t.Fatalf("Mode = %v, want text", sel.Mode)
	}
	if sel.PendingImageURL != "" {
		t.Fatalf("pending URL not cleared")
	}
	if _, ok := c.Timer(); !ok {
		t.Fatalf("timer not armed")
	}
}

func TestAddColumn(t *testing.T) {
	c := newTestController()
	c.AddColumn()
	if got := len(c.Document().Rows[0].Columns); got != 1 {
		t.Fatalf("AddColumn without a selected row added a column")
	}

	c.SelectColumn(0, 0)
	c.OpenImageEditor()
	c.ChangeImageURL("https://x")
	c.AddColumn()

	if got := len(c.Document().Rows[0].Columns); got != 2 {
		t.Fatalf("columns = %d, want 2", got)
	}
	sel := c.Selection()
	if sel.Column != (ColumnRef{0, 1}) {
		t.Fatalf("Column = %v, want 0/1", sel.Column)
	}
	if sel.PendingImageURL != "" {
		t.Fatalf("pending URL not cleared")
	}
	if sel.Mode == ModeImage {
		t.Fatalf("image panel left open")
	}
}

func TestAddColumnKeepsTextPanel(t *testing.T) {
	c := newTestController()
	c.SelectColumn(0, 0)
	c.AddColumn()
	if got := c.Selection().Mode; got != ModeText {
		t.Fatalf("Mode = %v, want text", got)
	}
}

func TestOpenEditors(t *testing.T) {
	c := newTestController()
	c.OpenImageEditor()
	c.ChangeImageURL("https://pending")
	if got := c.Selection(); got.Mode != ModeImage || got.PendingImageURL != "https://pending" {
		t.Fatalf("selection = %#v", got)
	}
	if f := c.TakeFocus(); f != FocusImageURL {
		t.Fatalf("focus = %v", f)
	}
	c.OpenTextEditor()
	if got := c.Selection(); got.Mode != ModeText || got.PendingImageURL != "" {
		t.Fatalf("selection = %#v", got)
	}
}

// Scenario C.
func TestChangeText(t *testing.T) {
	c := newTestController()
	if got := c.EditorText(); got != "" {
		t.Fatalf("EditorText without selection = %q", got)
	}
	c.ChangeText("ignored")
	if c.Revision() != 0 {
		t.Fatalf("ChangeText without selection mutated the document")
	}

	c.SelectColumn(0, 0)
	if got := c.EditorText(); got != page.DefaultTitle {
		t.Fatalf("EditorText = %q, want row caption", got)
	}
	c.ChangeText("Hello")
	doc := c.Document()
	if doc.Rows[0].Columns[0].Text != "Hello" || doc.Rows[0].Text != "" {
		t.Fatalf("row = %#v", doc.Rows[0])
	}
	if got := c.EditorText(); got != "Hello" {
		t.Fatalf("EditorText = %q, want Hello", got)
	}
}

func TestChangeTextAlign(t *testing.T) {
	c := newTestController()
	c.ChangeTextAlign(page.AlignLeft)
	if c.Revision() != 0 {
		t.Fatalf("alignment applied without selection")
	}
	c.SelectColumn(0, 0)
	c.ChangeTextAlign(page.AlignRight)
	if got := c.Document().Rows[0].Columns[0].TextAlign; got != page.AlignRight {
		t.Fatalf("TextAlign = %q", got)
	}
	c.ChangeTextAlign(page.Align("diagonal"))
	if got := c.Document().Rows[0].Columns[0].TextAlign; got != page.AlignRight {
		t.Fatalf("unknown alignment applied: %q", got)
	}
}

// Scenario D.
func TestChangeImageURL(t *testing.T) {
	c := newTestController()
	c.ChangeImageURL("https://nowhere")
	if c.Selection().PendingImageURL != "https://nowhere" {
		t.Fatalf("pending URL not tracked without selection")
	}
	if c.Revision() != 0 {
		t.Fatalf("document changed without selection")
	}

	c.SelectColumn(0, 0)
	c.OpenImageEditor()
	const url = "https://x.test/a.png"
	c.ChangeImageURL(url)
	doc := c.Document()
	if doc.Rows[0].Columns[0].Text != url {
		t.Fatalf("column text = %q", doc.Rows[0].Columns[0].Text)
	}
	if doc.Rows[0].Text != page.DefaultTitle {
		t.Fatalf("row text changed to %q", doc.Rows[0].Text)
	}
	cell, ok := render.Cell(doc, 0, 0)
	if !ok || !cell.IsImage || cell.URL != url {
		t.Fatalf("render cell = %#v", cell)
	}
}

// Scenario E.
func TestTimerClearsColumnSelection(t *testing.T) {
	c := newTestController()
	c.SelectColumn(0, 0)
	d, ok := c.Timer()
	if !ok {
		t.Fatalf("timer not armed")
	}
	if d.After != DefaultDeselectAfter || d.Target != (ColumnRef{0, 0}) {
		t.Fatalf("deadline = %#v", d)
	}
	if !c.Expire(d.Generation) {
		t.Fatalf("Expire did not fire")
	}
	sel := c.Selection()
	if sel.HasColumn() {
		t.Fatalf("column still selected")
	}
	if sel.Mode != ModeText || sel.RowIndex != 0 {
		t.Fatalf("Expire should only clear the column, got %#v", sel)
	}
	if c.Expire(d.Generation) {
		t.Fatalf("timer fired twice")
	}
}

// Scenario F.
func TestReselectCancelsEarlierTimer(t *testing.T) {
	c := newTestController()
	c.SelectColumn(0, 0)
	c.AddColumn()
	c.SelectColumn(0, 0)
	first, _ := c.Timer()

	c.SelectColumn(0, 1)
	second, ok := c.Timer()
	if !ok || second.Generation == first.Generation || second.Target != (ColumnRef{0, 1}) {
		t.Fatalf("timer not re-armed: %#v", second)
	}
	if c.Expire(first.Generation) {
		t.Fatalf("stale timer cleared the selection")
	}
	if c.Selection().Column != (ColumnRef{0, 1}) {
		t.Fatalf("selection lost to stale timer")
	}
	if !c.Expire(second.Generation) {
		t.Fatalf("latest timer did not fire")
	}
	if c.Selection().HasColumn() {
		t.Fatalf("latest selection not cleared")
	}
}

func TestDeselectCancelsTimer(t *testing.T) {
	c := newTestController()
	c.SelectColumn(0, 0)
	d, _ := c.Timer()
	c.DeselectAll()
	c.SelectColumn(0, 0)
	if c.Expire(d.Generation) {
		t.Fatalf("timer from before DeselectAll fired")
	}
}

func TestWithDeselectAfter(t *testing.T) {
	ids := &seqIDs{}
	c := NewController(page.New(ids), WithIDs(ids), WithDeselectAfter(2*time.Second))
	c.SelectColumn(0, 0)
	if d, _ := c.Timer(); d.After != 2*time.Second {
		t.Fatalf("After = %v", d.After)
	}
	c = NewController(page.New(ids), WithIDs(ids), WithDeselectAfter(0))
	c.SelectColumn(0, 0)
	if d, _ := c.Timer(); d.After != DefaultDeselectAfter {
		t.Fatalf("After = %v, want default", d.After)
	}
}

func TestSubscribeAndRevision(t *testing.T) {
	c := newTestController()
	var seen []page.Document
	c.Subscribe(func(d page.Document) { seen = append(seen, d) })

	c.SelectColumn(0, 0)
	c.OpenTextEditor()
	if len(seen) != 0 {
		t.Fatalf("selection changes should not publish snapshots")
	}
	c.ChangeText("a")
	c.AddRow()
	if len(seen) != 2 || c.Revision() != 2 {
		t.Fatalf("snapshots = %d, revision = %d", len(seen), c.Revision())
	}
	if seen[0].Rows[0].Columns[0].Text != "a" || seen[1].Len() != 2 {
		t.Fatalf("unexpected snapshots: %#v", seen)
	}
	if seen[0].Len() != 1 {
		t.Fatalf("earlier snapshot was aliased by a later mutation")
	}
}

func TestReplaceResetsSelection(t *testing.T) {
	c := newTestController()
	c.SelectColumn(0, 0)
	other := page.Document{Rows: []page.Row{{ID: 1000, Columns: []page.Column{{ID: 1001, Text: "other"}}}}}
	c.Replace(other)
	if c.Selection().HasRow() || c.Selection().HasColumn() {
		t.Fatalf("selection survived Replace")
	}
	if _, ok := c.Timer(); ok {
		t.Fatalf("timer survived Replace")
	}
	if !page.Equal(c.Document(), other) {
		t.Fatalf("document not replaced")
	}
}
