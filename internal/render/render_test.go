package render

import (
	"strings"
	"testing"

	"cli-page/internal/page"
)

func TestIsImageReference(t *testing.T) {
	cases := map[string]bool{
		"https://x/y.png": true,
		"https":           true,
		"http://x/y.png":  false,
		"":                false,
		" https://x":      false,
		"# Title":         false,
	}
	for in, want := range cases {
		if got := IsImageReference(in); got != want {
			t.Errorf("IsImageReference(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetImagePolicyRestores(t *testing.T) {
	restore := SetImagePolicy(PrefixPolicy("img:"))
	if !IsImageReference("img:cat") || IsImageReference("https://x") {
		t.Fatalf("custom policy not applied")
	}
	restore()
	if !IsImageReference("https://x") {
		t.Fatalf("default policy not restored")
	}
}

func TestCell(t *testing.T) {
	doc := page.Document{Rows: []page.Row{
		{ID: 1, Text: "caption", Columns: []page.Column{
			{ID: 2, Text: "https://x/a.png", TextAlign: page.AlignLeft},
			{ID: 3, Text: "body"},
		}},
		{ID: 4, Columns: []page.Column{{ID: 5, Text: "hi", TextAlign: page.AlignRight}}},
	}}

	v, ok := Cell(doc, 0, 0)
	if !ok || !v.IsImage || v.URL != "https://x/a.png" || v.DisplayText != "" {
		t.Fatalf("image cell = %+v, %v", v, ok)
	}

	v, ok = Cell(doc, 0, 1)
	if !ok || v.IsImage || v.DisplayText != "caption" || v.Align != page.AlignCenter {
		t.Fatalf("captioned cell = %+v, %v", v, ok)
	}

	v, ok = Cell(doc, 1, 0)
	if !ok || v.DisplayText != "hi" || v.Align != page.AlignRight {
		t.Fatalf("aligned cell = %+v, %v", v, ok)
	}

	if _, ok := Cell(doc, 2, 0); ok {
		t.Fatalf("expected out of range row to fail")
	}
	if _, ok := Cell(doc, 1, 1); ok {
		t.Fatalf("expected out of range column to fail")
	}
}

func TestMarkdownRender(t *testing.T) {
	md := NewMarkdown("notty")
	out := md.Render("# Untitled\n\nsome **bold** words", 40)
	if !strings.Contains(out, "Untitled") || !strings.Contains(out, "bold") {
		t.Fatalf("unexpected render output %q", out)
	}
	if strings.HasSuffix(out, "\n") || strings.HasPrefix(out, "\n") {
		t.Fatalf("render output not trimmed: %q", out)
	}
	if md.Render("   ", 40) != "" {
		t.Fatalf("blank text should render empty")
	}
	// narrow widths are clamped and the renderer cached per width
	md.Render("x", 1)
	md.Render("y", 1)
	if len(md.renderers) != 2 {
		t.Fatalf("renderers cached = %d, want 2", len(md.renderers))
	}
	if again := md.Render("# Untitled\n\nsome **bold** words", 40); again != out {
		t.Fatalf("cached render differs: %q vs %q", again, out)
	}
	if len(md.cache) != 3 {
		t.Fatalf("cache entries = %d, want 3", len(md.cache))
	}
}

func TestTrimBlock(t *testing.T) {
	got := trimBlock("\n  \n   a  \n\n  b\n\n   \n")
	if got != " a\n\nb" {
		t.Fatalf("trimBlock = %q", got)
	}
}
