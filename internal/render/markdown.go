package render

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	applog "cli-page/internal/log"
)

const (
	// minWrap keeps glamour from wrapping into unreadable slivers.
	minWrap = 10
	// maxCached bounds the output cache; it is dropped wholesale when full.
	maxCached = 512
)

type cacheKey struct {
	width int
	text  string
}

// Markdown renders markdown for the terminal. Renderers are built lazily per
// wrap width and reused, and output is cached since the canvas redraws every
// cell on each frame. It is safe for concurrent use.
type Markdown struct {
	style string

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
	cache     map[cacheKey]string
}

// NewMarkdown returns a renderer using a glamour standard style ("dark",
// "light", "notty", ...) or "auto" to detect the terminal background.
func NewMarkdown(style string) *Markdown {
	if style == "" {
		style = "auto"
	}
	return &Markdown{
		style:     style,
		renderers: make(map[int]*glamour.TermRenderer),
		cache:     make(map[cacheKey]string),
	}
}

// Render returns text rendered for the given width. Trailing padding that
// glamour adds is trimmed so callers can align the block themselves. On a
// render failure the source text is returned as is.
func (m *Markdown) Render(text string, width int) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	width = max(width, minWrap)
	key := cacheKey{width: width, text: text}
	m.mu.Lock()
	out, ok := m.cache[key]
	m.mu.Unlock()
	if ok {
		return out
	}

	r, err := m.renderer(width)
	if err != nil {
		applog.WithComponent("render").Warn("markdown renderer unavailable", slog.Any("err", err))
		return text
	}
	rendered, err := r.Render(text)
	if err != nil {
		applog.WithComponent("render").Debug("markdown render failed", slog.Any("err", err))
		return text
	}
	out = trimBlock(rendered)

	m.mu.Lock()
	if len(m.cache) >= maxCached {
		clear(m.cache)
	}
	m.cache[key] = out
	m.mu.Unlock()
	return out
}

func (m *Markdown) renderer(width int) (*glamour.TermRenderer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.renderers[width]; ok {
		return r, nil
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if m.style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(m.style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	m.renderers[width] = r
	return r, nil
}

// trimBlock drops blank leading and trailing lines, trailing spaces and the
// left margin common to all lines.
func trimBlock(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	lines = lines[start:end]

	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " "))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent > 0 {
		for i, l := range lines {
			if len(l) >= indent {
				lines[i] = l[indent:]
			}
		}
	}
	return strings.Join(lines, "\n")
}
