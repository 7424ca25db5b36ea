package ui

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// FuzzyMatch treats query as a case-insensitive regexp and falls back to an
// in-order subsequence match when it does not compile.
func FuzzyMatch(target, query string) bool {
	re, err := regexp.Compile("(?i)" + query)
	if err == nil {
		return re.MatchString(target)
	}
	target = strings.ToLower(target)
	query = strings.ToLower(query)
	qi := 0
	for i := 0; i < len(target) && qi < len(query); i++ {
		if target[i] == query[qi] {
			qi++
		}
	}
	return qi == len(query)
}

// Color palette
var (
	ColorAccent  = lipgloss.Color("#4ecca3")
	ColorDanger  = lipgloss.Color("#e94560")
	ColorCursor  = lipgloss.Color("#f0a500")
	ColorDim     = lipgloss.Color("#555555")
	ColorSuccess = lipgloss.Color("#4ecca3")
	ColorError   = lipgloss.Color("#e94560")
	ColorImage   = lipgloss.Color("#61afef")
	ColorBar     = lipgloss.Color("#333333")
	ColorBarText = lipgloss.Color("#cccccc")
	ColorInk     = lipgloss.Color("#1a1a1a")
)

// Border styles
var (
	FocusedBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent)

	UnfocusedBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDim)
)

// Text styles
var (
	AccentText  = lipgloss.NewStyle().Foreground(ColorAccent)
	DimText     = lipgloss.NewStyle().Foreground(ColorDim)
	ErrorText   = lipgloss.NewStyle().Foreground(ColorError)
	SuccessText = lipgloss.NewStyle().Foreground(ColorSuccess)
	BannerText  = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	SubHeaderStyle = lipgloss.NewStyle().
			Foreground(ColorDim)
)

// Canvas styles
var (
	ColumnBox = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorDim).
			Padding(0, 1)

	ColumnSelected = ColumnBox.
			Border(lipgloss.ThickBorder()).
			BorderForeground(ColorAccent)

	ColumnCursor = ColumnBox.
			BorderForeground(ColorCursor)

	RowMarker         = lipgloss.NewStyle().Foreground(ColorDim)
	RowMarkerSelected = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)

	ImageText = lipgloss.NewStyle().Foreground(ColorImage).Underline(true)
)

// Property panel buttons
var (
	ButtonStyle = lipgloss.NewStyle().
			Foreground(ColorBarText).
			Background(ColorBar).
			Padding(0, 1)

	ButtonActive = ButtonStyle.
			Foreground(ColorInk).
			Background(ColorAccent).
			Bold(true)

	KeyHint = lipgloss.NewStyle().Foreground(ColorDim).Italic(true)
)

// Bars share one base; the variants only swap the foreground.
var (
	BarStyle = lipgloss.NewStyle().
			Background(ColorBar).
			Foreground(ColorBarText).
			Padding(0, 1)

	TopBarStyle        = BarStyle.Bold(true)
	StatusBarStyle     = BarStyle
	StatusErrorStyle   = BarStyle.Foreground(ColorError)
	StatusSuccessStyle = BarStyle.Foreground(ColorSuccess)
)

// List styles for the documents modal
var (
	ListItem = lipgloss.NewStyle().PaddingLeft(1)

	ListActiveItem = ListItem.
			Foreground(ColorAccent).
			Bold(true)

	ListCursorItem = ListItem.Reverse(true)

	FilterPrompt = lipgloss.NewStyle().Foreground(ColorCursor)
	FilterText   = AccentText.Bold(true)
)
