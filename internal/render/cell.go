// Package render decides how a column is presented: as an image reference
// or as markdown text, and turns markdown into terminal output.
package render

import (
	"strings"
	"sync"

	"cli-page/internal/page"
)

// DefaultImagePrefix is the prefix that marks column text as an image URL.
const DefaultImagePrefix = "https"

// ImagePolicy decides whether column text refers to an image.
type ImagePolicy func(text string) bool

// PrefixPolicy treats text starting with prefix as an image reference.
func PrefixPolicy(prefix string) ImagePolicy {
	return func(text string) bool {
		return strings.HasPrefix(text, prefix)
	}
}

var (
	policyMu sync.RWMutex
	policy   = PrefixPolicy(DefaultImagePrefix)
)

// SetImagePolicy installs p and returns a function restoring the previous
// policy.
func SetImagePolicy(p ImagePolicy) (restore func()) {
	policyMu.Lock()
	prev := policy
	policy = p
	policyMu.Unlock()
	return func() {
		policyMu.Lock()
		policy = prev
		policyMu.Unlock()
	}
}

// IsImageReference reports whether text should be drawn as an image.
func IsImageReference(text string) bool {
	policyMu.RLock()
	p := policy
	policyMu.RUnlock()
	return p(text)
}

// CellView is what the canvas needs to draw one column.
type CellView struct {
	// DisplayText is the effective text; empty for images.
	DisplayText string
	IsImage     bool
	// URL is the raw column text when IsImage is set.
	URL string
	// Align is the effective alignment; unused for images.
	Align page.Align
}

// Cell builds the view of column (r, c). The image decision looks at the
// column's own text; the row caption only affects text display.
func Cell(doc page.Document, r, c int) (CellView, bool) {
	col, ok := doc.Column(r, c)
	if !ok {
		return CellView{}, false
	}
	if IsImageReference(col.Text) {
		return CellView{IsImage: true, URL: col.Text}, true
	}
	return CellView{
		DisplayText: doc.EffectiveText(r, c),
		Align:       col.TextAlign.Effective(),
	}, true
}
