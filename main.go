package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cli-page/internal/app"
	"cli-page/internal/config"
	"cli-page/internal/crash"
	applog "cli-page/internal/log"
	"cli-page/internal/page"
	"cli-page/internal/render"
	"cli-page/internal/storage"
	"cli-page/internal/ui"
	"cli-page/internal/version"
)

// ---------------------------------------------------------------------------
// pickerModel – choose a stored document or name a new one
// ---------------------------------------------------------------------------

type pickerModel struct {
	keys    []string
	current string
	cursor  int
	naming  bool
	name    textinput.Model
	err     string
	done    bool
	picked  string
	width   int
	height  int
}

func newPickerModel(keys []string, current string) pickerModel {
	ti := textinput.New()
	ti.Placeholder = "document name"
	ti.CharLimit = 64
	m := pickerModel{keys: keys, current: current, name: ti}
	for i, k := range keys {
		if k == current {
			m.cursor = i
		}
	}
	return m
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.naming {
			return m.updateName(msg)
		}

		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.keys)-1 {
				m.cursor++
			}
		case "n":
			m.naming = true
			m.err = ""
			m.name.Reset()
			cmd := m.name.Focus()
			return m, cmd
		case "enter":
			if len(m.keys) == 0 {
				return m, nil
			}
			m.done = true
			m.picked = m.keys[m.cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) updateName(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.naming = false
		m.err = ""
		m.name.Blur()
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.name.Value())
		if name == "" {
			m.err = "Name cannot be empty"
			return m, nil
		}
		key := storage.KeyFor(name)
		for _, k := range m.keys {
			if k == key {
				m.err = fmt.Sprintf("%s already exists", name)
				return m, nil
			}
		}
		m.done = true
		m.picked = key
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(ui.ColorAccent).
		Bold(true).
		MarginBottom(1)

	var b strings.Builder

	b.WriteString(titleStyle.Render("cli-page - Documents"))
	b.WriteString("\n\n")

	if m.naming {
		b.WriteString(ui.AccentText.Render("  New document name"))
		b.WriteString("\n  ")
		b.WriteString(m.name.View())
		b.WriteString("\n\n")
		if m.err != "" {
			b.WriteString(ui.ErrorText.Render("  " + m.err))
			b.WriteString("\n\n")
		}
		b.WriteString(ui.DimText.Render("  Enter create | Esc back | Ctrl+C quit"))
		b.WriteString("\n")
		return b.String()
	}

	for i, k := range m.keys {
		display := ui.DisplayName(k)
		if k == m.current {
			display += ui.DimText.Render("  last opened")
		}
		if i == m.cursor {
			b.WriteString(ui.AccentText.Bold(true).Render("  ▸ " + display))
		} else {
			b.WriteString("    " + display)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(ui.DimText.Render("  Enter to open | n new document | q quit"))
	b.WriteString("\n")

	return b.String()
}

func pickDocument(keys []string, current string) (string, bool, error) {
	p := tea.NewProgram(newPickerModel(keys, current), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return "", false, err
	}
	pm, ok := result.(pickerModel)
	if !ok || !pm.done {
		return "", false, nil
	}
	return pm.picked, true, nil
}

// resolveKey turns the -doc flag or the configured key into a storage key.
func resolveKey(name, configured string) string {
	if strings.TrimSpace(name) != "" {
		return storage.KeyFor(name)
	}
	if storage.IsDocumentKey(configured) {
		return configured
	}
	return storage.KeyFor(configured)
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		showVersion = flag.Bool("version", false, "print version and exit")
		docName     = flag.String("doc", "", "open the named document")
		inMemory    = flag.Bool("memory", false, "keep documents in memory for this session only")
		forget      = flag.Bool("forget-password", false, "remove the stored postgres password from the keyring and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return 0
	}

	cfg, cfgErr := config.Load()

	logFile := cfg.Logging.File
	if logFile == "" {
		logFile = applog.DefaultFile()
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      logFile,
	})
	defer applog.Close()
	l := applog.WithComponent("main")
	l.Info("starting", slog.String("version", version.String()), slog.String("backend", cfg.Storage.Backend))
	if cfgErr != nil {
		l.Warn("config problem", slog.Any("err", cfgErr))
		fmt.Fprintf(os.Stderr, "Warning: %v\n", cfgErr)
	}

	if *forget {
		if err := config.ForgetPassword(cfg.Storage.DSN); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Println("Stored password removed.")
		return 0
	}

	render.SetImagePolicy(render.PrefixPolicy(cfg.Editor.ImagePrefix))

	ctx := context.Background()
	var store storage.Store
	if *inMemory {
		store = storage.NewMemory()
	} else {
		s, err := storage.Open(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		store = s
	}
	defer func() {
		if err := store.Close(); err != nil {
			l.Error("close store failed", slog.Any("err", err))
		}
	}()

	key := resolveKey(*docName, cfg.Storage.Key)
	if *docName == "" {
		keys, err := store.List(ctx)
		if err != nil {
			l.Warn("list documents failed", slog.Any("err", err))
		}
		if len(keys) > 1 {
			picked, ok, err := pickDocument(keys, key)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return 1
			}
			if !ok {
				return 0
			}
			key = picked
		}
	}

	ids := page.NewIDGen()
	doc, err := storage.LoadOrDefault(ctx, store, key, ids)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open %s: %v\n", ui.DisplayName(key), err)
		return 1
	}

	model := app.NewModel(app.Options{
		Store:         store,
		Key:           key,
		Document:      doc,
		IDs:           ids,
		DeselectAfter: cfg.Editor.DeselectAfter,
		Markdown:      render.NewMarkdown(cfg.Editor.MarkdownStyle),
	})
	defer crash.Recover(model.Flush)

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			path := crash.Report(err, nil, model.Flush)
			fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", path)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if fm, ok := final.(app.Model); ok {
		if err := fm.Flush(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: final save failed: %v\n", err)
			return 1
		}
	}
	l.Info("bye")
	return 0
}
