package page

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// seqIDs is a deterministic IDSource for tests.
type seqIDs struct{ n ID }

func (s *seqIDs) Next() ID {
	s.n++
	return s.n
}

func sample(t *testing.T) (Document, *seqIDs) {
	t.Helper()
	ids := &seqIDs{}
	doc := New(ids)
	doc = AddRow(doc, ids)
	doc = AddColumn(doc, ids, 1)
	doc = SetColumnText(doc, 1, 1, "right cell")
	return doc, ids
}

func TestNewDocument(t *testing.T) {
	doc := New(&seqIDs{})
	if doc.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", doc.Len())
	}
	row := doc.Rows[0]
	if row.Text != DefaultTitle {
		t.Fatalf("row text = %q, want %q", row.Text, DefaultTitle)
	}
	if len(row.Columns) != 1 || row.Columns[0].Text != "" {
		t.Fatalf("expected one empty column, got %#v", row.Columns)
	}
	if err := Validate(doc); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestAddRowAppendsAndKeepsPriorRows(t *testing.T) {
	doc, ids := sample(t)
	before := doc.Clone()

	got := AddRow(doc, ids)
	if got.Len() != before.Len()+1 {
		t.Fatalf("Len() = %d, want %d", got.Len(), before.Len()+1)
	}
	for i := range before.Rows {
		if !Equal(Document{Rows: got.Rows[i : i+1]}, Document{Rows: before.Rows[i : i+1]}) {
			t.Fatalf("row %d changed: %#v -> %#v", i, before.Rows[i], got.Rows[i])
		}
	}
	last := got.Rows[got.Len()-1]
	if last.Text != "" || len(last.Columns) != 1 || last.Columns[0].Text != "" {
		t.Fatalf("new row not empty: %#v", last)
	}
	if !Equal(doc, before) {
		t.Fatalf("input document was mutated")
	}
}

func TestAddColumn(t *testing.T) {
	doc, ids := sample(t)
	before := doc.Clone()

	got := AddColumn(doc, ids, 0)
	if n := len(got.Rows[0].Columns); n != len(before.Rows[0].Columns)+1 {
		t.Fatalf("row 0 has %d columns, want %d", n, len(before.Rows[0].Columns)+1)
	}
	if !Equal(Document{Rows: got.Rows[1:]}, Document{Rows: before.Rows[1:]}) {
		t.Fatalf("other rows changed")
	}
	if got.Rows[0].Columns[0] != before.Rows[0].Columns[0] {
		t.Fatalf("existing column changed")
	}
	if !Equal(doc, before) {
		t.Fatalf("input document was mutated")
	}
}

func TestAddColumnInvalidRowIsNoop(t *testing.T) {
	doc, ids := sample(t)
	for _, r := range []int{-1, 2, 100} {
		if got := AddColumn(doc, ids, r); !Equal(got, doc) {
			t.Fatalf("AddColumn(%d) changed the document", r)
		}
	}
}

func TestSetColumnTextClearsRowText(t *testing.T) {
	doc, _ := sample(t)
	doc = SetColumnTextAlign(doc, 0, 0, AlignRight)

	got := SetColumnText(doc, 0, 0, "Hello")
	if got.Rows[0].Columns[0].Text != "Hello" {
		t.Fatalf("text = %q, want Hello", got.Rows[0].Columns[0].Text)
	}
	if got.Rows[0].Text != "" {
		t.Fatalf("row text = %q, want empty", got.Rows[0].Text)
	}
	if got.Rows[0].Columns[0].TextAlign != AlignRight {
		t.Fatalf("alignment changed to %q", got.Rows[0].Columns[0].TextAlign)
	}
	if doc.Rows[0].Text != DefaultTitle {
		t.Fatalf("input document was mutated")
	}
}

func TestSetColumnImageKeepsRowText(t *testing.T) {
	doc, _ := sample(t)
	const url = "https://x.test/a.png"
	got := SetColumnImage(doc, 0, 0, url)
	if got.Rows[0].Columns[0].Text != url {
		t.Fatalf("text = %q, want %q", got.Rows[0].Columns[0].Text, url)
	}
	if got.Rows[0].Text != DefaultTitle {
		t.Fatalf("row text = %q, want %q", got.Rows[0].Text, DefaultTitle)
	}
}

func TestOutOfRangeMutationsAreNoops(t *testing.T) {
	doc, _ := sample(t)
	cases := [][2]int{{-1, 0}, {0, -1}, {0, 1}, {2, 0}, {1, 2}}
	for _, rc := range cases {
		r, c := rc[0], rc[1]
		if got := SetColumnText(doc, r, c, "x"); !Equal(got, doc) {
			t.Errorf("SetColumnText(%d,%d) changed the document", r, c)
		}
		if got := SetColumnImage(doc, r, c, "https://x"); !Equal(got, doc) {
			t.Errorf("SetColumnImage(%d,%d) changed the document", r, c)
		}
		if got := SetColumnTextAlign(doc, r, c, AlignLeft); !Equal(got, doc) {
			t.Errorf("SetColumnTextAlign(%d,%d) changed the document", r, c)
		}
	}
}

func TestEffectiveText(t *testing.T) {
	doc, _ := sample(t)
	doc = SetColumnImage(doc, 0, 0, "column text")
	if got := doc.EffectiveText(0, 0); got != DefaultTitle {
		t.Fatalf("row override: got %q, want %q", got, DefaultTitle)
	}
	if got := doc.EffectiveText(1, 1); got != "right cell" {
		t.Fatalf("column text: got %q, want %q", got, "right cell")
	}
	if got := doc.EffectiveText(5, 5); got != "" {
		t.Fatalf("missing column: got %q", got)
	}
}

func TestAlignEffective(t *testing.T) {
	if AlignUnset.Effective() != AlignCenter {
		t.Fatalf("unset alignment should resolve to center")
	}
	if AlignLeft.Effective() != AlignLeft {
		t.Fatalf("explicit alignment should be kept")
	}
	if Align("justify").Valid() {
		t.Fatalf("unknown alignment reported valid")
	}
}

func TestIDGenUniqueWithinSameInstant(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	gen := newIDGenAt(func() time.Time { return fixed })
	a, b, c := gen.Next(), gen.Next(), gen.Next()
	if a == b || b == c || a == c {
		t.Fatalf("ids collide: %d %d %d", a, b, c)
	}
	if !(a < b && b < c) {
		t.Fatalf("ids not increasing: %d %d %d", a, b, c)
	}
}

func TestIDGenConcurrent(t *testing.T) {
	gen := NewIDGen()
	const workers, per = 8, 200
	var (
		mu   sync.Mutex
		seen = make(map[ID]bool)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				id := gen.Next()
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate id %d", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

func TestIDGenObserve(t *testing.T) {
	fixed := time.UnixMilli(10)
	gen := newIDGenAt(func() time.Time { return fixed })
	doc := Document{Rows: []Row{{ID: 500, Columns: []Column{{ID: 900}}}}}
	gen.Observe(doc)
	if id := gen.Next(); id <= 900 {
		t.Fatalf("Next() = %d, want > 900", id)
	}
}

func TestValidate(t *testing.T) {
	ok := Document{Rows: []Row{{ID: 1, Columns: []Column{{ID: 1}}}}}
	if err := Validate(ok); err != nil {
		t.Fatalf("row and column may share an id: %v", err)
	}
	empty := Document{Rows: []Row{{ID: 1}}}
	if err := Validate(empty); !errors.Is(err, ErrEmptyRow) {
		t.Fatalf("Validate(empty row) = %v, want ErrEmptyRow", err)
	}
	dup := Document{Rows: []Row{
		{ID: 1, Columns: []Column{{ID: 2}}},
		{ID: 3, Columns: []Column{{ID: 2}}},
	}}
	if err := Validate(dup); err == nil {
		t.Fatalf("duplicate column ids not reported")
	}
}

func TestJSONShape(t *testing.T) {
	doc := Document{Rows: []Row{{ID: 7, Text: "t", Columns: []Column{{ID: 8, Text: "c", TextAlign: AlignLeft}, {ID: 9}}}}}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `[{"id":7,"text":"t","columns":[{"id":8,"text":"c","textAlign":"left"},{"id":9,"text":""}]}]`
	if string(data) != want {
		t.Fatalf("json = %s\nwant   %s", data, want)
	}
	var back Document
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !Equal(back, doc) {
		t.Fatalf("decoded document differs: %#v", back)
	}
}
