package page

import (
	"errors"
	"fmt"
)

// IDSource supplies fresh ids. *IDGen is the production implementation.
type IDSource interface {
	Next() ID
}

// New returns the starting document: a single titled row with one empty column.
func New(ids IDSource) Document {
	return Document{Rows: []Row{{
		ID:      ids.Next(),
		Text:    DefaultTitle,
		Columns: []Column{{ID: ids.Next()}},
	}}}
}

// AddRow appends an empty row holding one empty column.
func AddRow(doc Document, ids IDSource) Document {
	rows := make([]Row, len(doc.Rows), len(doc.Rows)+1)
	copy(rows, doc.Rows)
	rows = append(rows, Row{
		ID:      ids.Next(),
		Columns: []Column{{ID: ids.Next()}},
	})
	return Document{Rows: rows}
}

// AddColumn appends an empty column to row r. An out of range r returns doc
// unchanged.
func AddColumn(doc Document, ids IDSource, r int) Document {
	row, ok := doc.Row(r)
	if !ok {
		return doc
	}
	cols := make([]Column, len(row.Columns), len(row.Columns)+1)
	copy(cols, row.Columns)
	row.Columns = append(cols, Column{ID: ids.Next()})
	return replaceRow(doc, r, row)
}

// SetColumnText replaces the text of column (r, c) and clears the row text,
// so explicit column editing wins over the row caption. Alignment is kept.
func SetColumnText(doc Document, r, c int, text string) Document {
	return updateColumn(doc, r, c, true, func(col *Column) {
		col.Text = text
	})
}

// SetColumnImage stores url verbatim as the text of column (r, c). The row
// text is left alone.
func SetColumnImage(doc Document, r, c int, url string) Document {
	return updateColumn(doc, r, c, false, func(col *Column) {
		col.Text = url
	})
}

// SetColumnTextAlign sets the alignment of column (r, c).
func SetColumnTextAlign(doc Document, r, c int, align Align) Document {
	return updateColumn(doc, r, c, false, func(col *Column) {
		col.TextAlign = align
	})
}

func updateColumn(doc Document, r, c int, clearRowText bool, fn func(*Column)) Document {
	if !doc.HasColumn(r, c) {
		return doc
	}
	row := doc.Rows[r]
	cols := make([]Column, len(row.Columns))
	copy(cols, row.Columns)
	fn(&cols[c])
	row.Columns = cols
	if clearRowText {
		row.Text = ""
	}
	return replaceRow(doc, r, row)
}

func replaceRow(doc Document, r int, row Row) Document {
	rows := make([]Row, len(doc.Rows))
	copy(rows, doc.Rows)
	rows[r] = row
	return Document{Rows: rows}
}

// ErrEmptyRow is reported by Validate for a row without columns.
var ErrEmptyRow = errors.New("row has no columns")

// Validate checks the structural invariants of a document: every row has at
// least one column, row ids are unique among rows, column ids are unique
// among columns and alignments are known.
//
// Row and column ids live in separate spaces: documents written by older
// editors reuse one timestamp for a row and its first column.
func Validate(doc Document) error {
	rowIDs := make(map[ID]struct{})
	colIDs := make(map[ID]struct{})
	for r, row := range doc.Rows {
		if len(row.Columns) == 0 {
			return fmt.Errorf("row %d: %w", r, ErrEmptyRow)
		}
		if _, dup := rowIDs[row.ID]; dup {
			return fmt.Errorf("row %d: duplicate id %d", r, row.ID)
		}
		rowIDs[row.ID] = struct{}{}
		for c, col := range row.Columns {
			if _, dup := colIDs[col.ID]; dup {
				return fmt.Errorf("column %d/%d: duplicate id %d", r, c, col.ID)
			}
			colIDs[col.ID] = struct{}{}
			if !col.TextAlign.Valid() {
				return fmt.Errorf("column %d/%d: unknown alignment %q", r, c, col.TextAlign)
			}
		}
	}
	return nil
}
