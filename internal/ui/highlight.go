package ui

import (
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	HeadingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#c678dd")).Bold(true)
	EmphasisStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d19a66"))
	CodeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#98c379"))
	LinkStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#61afef"))
	QuoteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5c6370")).Italic(true)
	BulletStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#56b6c2"))
)

// Ordered by priority: earlier patterns win when matches overlap.
var markdownTokens = []struct {
	re    *regexp.Regexp
	style lipgloss.Style
}{
	{regexp.MustCompile("`[^`]+`"), CodeStyle},
	{regexp.MustCompile(`^#{1,6}\s.*$`), HeadingStyle},
	{regexp.MustCompile(`^>.*$`), QuoteStyle},
	{regexp.MustCompile(`!?\[[^\]]*\]\([^)]*\)`), LinkStyle},
	{regexp.MustCompile(`https?://\S+`), LinkStyle},
	{regexp.MustCompile(`\*\*[^*]+\*\*|__[^_]+__`), EmphasisStyle},
	{regexp.MustCompile(`\*[^*\s][^*]*\*|_[^_\s][^_]*_`), EmphasisStyle},
	{regexp.MustCompile(`^\s*(?:[-*+]|\d+\.)\s`), BulletStyle},
}

// HighlightMarkdown colors the markdown syntax of a single line.
func HighlightMarkdown(line string) string {
	if strings.TrimSpace(line) == "" {
		return line
	}

	type token struct {
		start, end int
		style      lipgloss.Style
	}

	var tokens []token
	for _, mt := range markdownTokens {
		for _, m := range mt.re.FindAllStringIndex(line, -1) {
			if m[0] == m[1] {
				continue
			}
			overlaps := false
			for _, t := range tokens {
				if m[0] < t.end && t.start < m[1] {
					overlaps = true
					break
				}
			}
			if !overlaps {
				tokens = append(tokens, token{start: m[0], end: m[1], style: mt.style})
			}
		}
	}

	if len(tokens) == 0 {
		return line
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].start < tokens[j].start })

	var result strings.Builder
	pos := 0
	for _, tok := range tokens {
		if tok.start > pos {
			result.WriteString(line[pos:tok.start])
		}
		result.WriteString(tok.style.Render(line[tok.start:tok.end]))
		pos = tok.end
	}
	if pos < len(line) {
		result.WriteString(line[pos:])
	}
	return result.String()
}
