package editor

import "fmt"

// NoIndex marks an unselected row or column.
const NoIndex = -1

// ColumnRef addresses a column by row and column index.
type ColumnRef struct {
	Row int
	Col int
}

// NoColumn is the empty column selection.
var NoColumn = ColumnRef{Row: NoIndex, Col: NoIndex}

// IsNone reports whether the reference points at nothing.
func (r ColumnRef) IsNone() bool {
	return r.Row == NoIndex || r.Col == NoIndex
}

func (r ColumnRef) String() string {
	if r.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%d/%d", r.Row, r.Col)
}

// Mode is the property panel that is open.
type Mode int

const (
	ModeNone Mode = iota
	ModeText
	ModeImage
)

func (m Mode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeImage:
		return "image"
	default:
		return "none"
	}
}

// Focus names the input control the view should focus.
type Focus int

const (
	FocusNone Focus = iota
	FocusText
	FocusImageURL
)

// Selection is the session-only editing state. It is never persisted.
type Selection struct {
	RowIndex int
	Column   ColumnRef
	Mode     Mode
	// PendingImageURL mirrors the image URL field. Empty means absent.
	PendingImageURL string
}

// EmptySelection is the state at session start.
func EmptySelection() Selection {
	return Selection{RowIndex: NoIndex, Column: NoColumn, Mode: ModeNone}
}

// HasRow reports whether a row is selected.
func (s Selection) HasRow() bool {
	return s.RowIndex != NoIndex
}

// HasColumn reports whether a column is selected.
func (s Selection) HasColumn() bool {
	return !s.Column.IsNone()
}
