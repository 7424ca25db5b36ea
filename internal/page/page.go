package page

import "encoding/json"

// DefaultTitle is the text of the first row of a fresh document.
const DefaultTitle = "# Untitled"

// ID identifies a row or column for its whole lifetime. IDs are never reused.
type ID int64

// Align is the horizontal alignment of a text column.
type Align string

const (
	AlignUnset  Align = ""
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Valid reports whether a is one of the known alignments or unset.
func (a Align) Valid() bool {
	switch a {
	case AlignUnset, AlignLeft, AlignCenter, AlignRight:
		return true
	}
	return false
}

// Effective resolves an unset alignment to center.
func (a Align) Effective() Align {
	if a == AlignUnset {
		return AlignCenter
	}
	return a
}

// Column is a cell of a row. Text holds markdown source, or an image URL
// when it starts with the image prefix.
type Column struct {
	ID        ID     `json:"id"`
	Text      string `json:"text"`
	TextAlign Align  `json:"textAlign,omitempty"`
}

// Row is a horizontal block. A non-empty Text overrides the display text of
// every column in the row.
type Row struct {
	ID      ID       `json:"id"`
	Text    string   `json:"text"`
	Columns []Column `json:"columns"`
}

// Document is the ordered list of rows, top to bottom.
//
// A Document is treated as an immutable snapshot: the mutation functions in
// this package build a new Document and leave their input untouched. Rows
// that are not affected by a mutation are shared between snapshots.
type Document struct {
	Rows []Row
}

// MarshalJSON encodes the document as a bare array of rows.
func (d Document) MarshalJSON() ([]byte, error) {
	rows := d.Rows
	if rows == nil {
		rows = []Row{}
	}
	return json.Marshal(rows)
}

// UnmarshalJSON decodes a bare array of rows.
func (d *Document) UnmarshalJSON(data []byte) error {
	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	d.Rows = rows
	return nil
}

// Len returns the number of rows.
func (d Document) Len() int {
	return len(d.Rows)
}

// Row returns the row at index r.
func (d Document) Row(r int) (Row, bool) {
	if r < 0 || r >= len(d.Rows) {
		return Row{}, false
	}
	return d.Rows[r], true
}

// Column returns the column at (r, c).
func (d Document) Column(r, c int) (Column, bool) {
	row, ok := d.Row(r)
	if !ok || c < 0 || c >= len(row.Columns) {
		return Column{}, false
	}
	return row.Columns[c], true
}

// HasColumn reports whether (r, c) references an existing column.
func (d Document) HasColumn(r, c int) bool {
	_, ok := d.Column(r, c)
	return ok
}

// EffectiveText is the text displayed for column (r, c): the row text when it
// is non-empty, the column text otherwise.
func (d Document) EffectiveText(r, c int) string {
	col, ok := d.Column(r, c)
	if !ok {
		return ""
	}
	if d.Rows[r].Text != "" {
		return d.Rows[r].Text
	}
	return col.Text
}

// MaxID returns the highest row or column id in the document.
func (d Document) MaxID() ID {
	var highest ID
	for _, row := range d.Rows {
		highest = max(highest, row.ID)
		for _, col := range row.Columns {
			highest = max(highest, col.ID)
		}
	}
	return highest
}

// Clone returns a deep copy that shares no slices with d.
func (d Document) Clone() Document {
	if d.Rows == nil {
		return Document{}
	}
	rows := make([]Row, len(d.Rows))
	for i, row := range d.Rows {
		rows[i] = row
		rows[i].Columns = append([]Column(nil), row.Columns...)
	}
	return Document{Rows: rows}
}

// Equal reports whether two documents hold the same rows and columns.
func Equal(a, b Document) bool {
	if len(a.Rows) != len(b.Rows) {
		return false
	}
	for i := range a.Rows {
		ra, rb := a.Rows[i], b.Rows[i]
		if ra.ID != rb.ID || ra.Text != rb.Text || len(ra.Columns) != len(rb.Columns) {
			return false
		}
		for j := range ra.Columns {
			if ra.Columns[j] != rb.Columns[j] {
				return false
			}
		}
	}
	return true
}
