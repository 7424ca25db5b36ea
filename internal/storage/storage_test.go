package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"cli-page/internal/config"
	"cli-page/internal/page"
)

type seqIDs struct{ n page.ID }

func (s *seqIDs) Next() page.ID {
	s.n++
	return s.n
}

func sampleDoc() page.Document {
	return page.Document{Rows: []page.Row{
		{ID: 1, Text: "# Untitled", Columns: []page.Column{{ID: 2}}},
		{ID: 3, Columns: []page.Column{
			{ID: 4, Text: "https://example.com/a.png"},
			{ID: 5, Text: "**bold**", TextAlign: page.AlignRight},
		}},
	}}
}

func TestKeys(t *testing.T) {
	if KeyFor("") != DefaultKey || KeyFor("  ") != DefaultKey {
		t.Fatalf("empty name should map to %s", DefaultKey)
	}
	if got := KeyFor("landing"); got != "editor-rows:landing" {
		t.Fatalf("KeyFor = %q", got)
	}
	for _, name := range []string{"", "landing", "a:b"} {
		if got := NameFromKey(KeyFor(name)); got != name {
			t.Errorf("NameFromKey(KeyFor(%q)) = %q", name, got)
		}
	}
	cases := map[string]bool{
		"editor-rows":   true,
		"editor-rows:x": true,
		"editor-rows:":  false,
		"editor-rowsx":  false,
		"settings":      false,
		"":              false,
	}
	for k, want := range cases {
		if IsDocumentKey(k) != want {
			t.Errorf("IsDocumentKey(%q) = %v", k, !want)
		}
	}
}

func TestCodecRoundTrip(t *testing.T) {
	data, err := Encode(sampleDoc())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !page.Equal(got, sampleDoc()) {
		t.Fatalf("round trip mismatch:\n%s", data)
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"not json":        `{{`,
		"object":          `{"rows":[]}`,
		"missing columns": `[{"id":1,"text":""}]`,
		"empty columns":   `[{"id":1,"text":"","columns":[]}]`,
		"string id":       `[{"id":"1","text":"","columns":[{"id":2,"text":""}]}]`,
		"bad align":       `[{"id":1,"text":"","columns":[{"id":2,"text":"","textAlign":"justify"}]}]`,
		"duplicate rows":  `[{"id":1,"columns":[{"id":2}]},{"id":1,"columns":[{"id":3}]}]`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(in)); !errors.Is(err, ErrInvalidDocument) {
				t.Fatalf("Decode(%s) err = %v, want ErrInvalidDocument", in, err)
			}
		})
	}
}

func TestDecodeAcceptsSharedRowAndColumnID(t *testing.T) {
	in := `[{"id":1700000000000,"text":"# Untitled","columns":[{"id":1700000000000,"text":""}]}]`
	doc, err := Decode([]byte(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Len() != 1 || doc.Rows[0].Columns[0].TextAlign != page.AlignUnset {
		t.Fatalf("unexpected doc %+v", doc)
	}
}

func TestEncodeRejectsInvalid(t *testing.T) {
	bad := page.Document{Rows: []page.Row{{ID: 1}}}
	if _, err := Encode(bad); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("Encode err = %v", err)
	}
}

// exerciseStore runs the shared Store contract against s.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := s.Load(ctx, DefaultKey); err != nil || found {
		t.Fatalf("Load on empty store: found=%v err=%v", found, err)
	}
	if err := s.Save(ctx, DefaultKey, sampleDoc()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	next := page.AddRow(sampleDoc(), &seqIDs{n: 10})
	if err := s.Save(ctx, DefaultKey, next); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	if err := s.Save(ctx, KeyFor("about us"), sampleDoc()); err != nil {
		t.Fatalf("Save named: %v", err)
	}

	got, found, err := s.Load(ctx, DefaultKey)
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if !page.Equal(got, next) {
		t.Fatalf("Load returned stale document")
	}

	keys, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []string{DefaultKey, "editor-rows:about us"}; !reflect.DeepEqual(keys, want) {
		t.Fatalf("List = %v, want %v", keys, want)
	}

	if err := s.Delete(ctx, KeyFor("about us")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, KeyFor("about us")); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	if _, found, _ := s.Load(ctx, KeyFor("about us")); found {
		t.Fatalf("deleted document still loads")
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	exerciseStore(t, m)
	if m.Saves() != 3 {
		t.Fatalf("Saves = %d", m.Saves())
	}
	_ = m.Close()
	if err := m.Save(context.Background(), DefaultKey, sampleDoc()); err == nil {
		t.Fatalf("save after close should fail")
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFile(dir)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	exerciseStore(t, s)

	// stray files are not documents
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "settings.json"), []byte("{}"), 0o644)
	keys, err := s.List(context.Background())
	if err != nil || len(keys) != 1 {
		t.Fatalf("List = %v, %v", keys, err)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if e.Name()[0] == '.' {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.path(DefaultKey), []byte(`[{"id":1}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Load(context.Background(), DefaultKey); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("Load err = %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := SQLitePath(t.TempDir())
	s, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	exerciseStore(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// data survives reopening
	s2, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if _, found, err := s2.Load(context.Background(), DefaultKey); err != nil || !found {
		t.Fatalf("reopened Load: found=%v err=%v", found, err)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("CLIPAGE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("CLIPAGE_TEST_PG_DSN not set")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer s.Close()
	ctx := context.Background()
	for _, k := range []string{DefaultKey, KeyFor("about us")} {
		_ = s.Delete(ctx, k)
	}
	exerciseStore(t, s)
}

func TestLoadOrDefault(t *testing.T) {
	m := NewMemory()
	doc, err := LoadOrDefault(context.Background(), m, DefaultKey, &seqIDs{})
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if doc.Len() != 1 || doc.Rows[0].Text != page.DefaultTitle {
		t.Fatalf("fresh document = %+v", doc)
	}

	_ = m.Save(context.Background(), DefaultKey, sampleDoc())
	doc, err = LoadOrDefault(context.Background(), m, DefaultKey, &seqIDs{})
	if err != nil || !page.Equal(doc, sampleDoc()) {
		t.Fatalf("LoadOrDefault saved = %+v, %v", doc, err)
	}
}

func TestOpen(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.DataDir = t.TempDir()

	cfg.Storage.Backend = config.BackendFile
	s, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Fatalf("Open file returned %T", s)
	}
	_ = s.Close()

	cfg.Storage.Backend = config.BackendSQLite
	s, err = Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	if _, ok := s.(*SQLiteStore); !ok {
		t.Fatalf("Open sqlite returned %T", s)
	}
	_ = s.Close()

	cfg.Storage.Backend = "etcd"
	if _, err := Open(context.Background(), cfg); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("Open unknown err = %v", err)
	}
}

type failingStore struct{ *Memory }

func (failingStore) Save(context.Context, string, page.Document) error {
	return errors.New("disk full")
}

func TestSaverSkipsStaleRevisions(t *testing.T) {
	m := NewMemory()
	s := NewSaver(m)
	ctx := context.Background()

	newer := page.AddRow(sampleDoc(), &seqIDs{n: 10})
	if ok, err := s.Save(ctx, DefaultKey, 2, newer); !ok || err != nil {
		t.Fatalf("Save rev 2 = %v, %v", ok, err)
	}
	if ok, err := s.Save(ctx, DefaultKey, 1, sampleDoc()); ok || err != nil {
		t.Fatalf("Save stale rev 1 = %v, %v", ok, err)
	}
	got, _, _ := m.Load(ctx, DefaultKey)
	if !page.Equal(got, newer) {
		t.Fatalf("stale snapshot overwrote newer one")
	}

	// revisions are tracked per key
	if ok, _ := s.Save(ctx, KeyFor("b"), 1, sampleDoc()); !ok {
		t.Fatalf("first save of another key skipped")
	}

	s.Forget(DefaultKey)
	if ok, _ := s.Save(ctx, DefaultKey, 1, sampleDoc()); !ok {
		t.Fatalf("save after Forget skipped")
	}
}

func TestSaverConcurrentSavesKeepLatest(t *testing.T) {
	m := NewMemory()
	s := NewSaver(m)
	ids := &seqIDs{n: 100}
	docs := make([]page.Document, 20)
	doc := sampleDoc()
	for i := range docs {
		doc = page.AddRow(doc, ids)
		docs[i] = doc
	}

	var wg sync.WaitGroup
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Save(context.Background(), DefaultKey, uint64(i+1), docs[i])
		}(i)
	}
	wg.Wait()

	got, _, _ := m.Load(context.Background(), DefaultKey)
	if !page.Equal(got, docs[len(docs)-1]) {
		t.Fatalf("final stored document has %d rows, want %d", got.Len(), docs[len(docs)-1].Len())
	}
}

func TestSaverFailureDoesNotAdvance(t *testing.T) {
	s := NewSaver(failingStore{NewMemory()})
	if ok, err := s.Save(context.Background(), DefaultKey, 1, sampleDoc()); ok || err == nil {
		t.Fatalf("Save = %v, %v; want failure", ok, err)
	}
	if _, ok := s.written[DefaultKey]; ok {
		t.Fatalf("failed save recorded as written")
	}
}
