package ui

import (
	"os"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/oakwood-commons/smartsearch/pkg/search"
)

// RunConfig configures an interactive session.
type RunConfig struct {
	// Width/height of 0 auto-detect the terminal size when the other is set.
	Width          int
	Height         int
	NoColor        bool
	DebugMode      bool
	QuitOnComplete bool
	StartKeys      []string
	Options        []ModelOption
	Configure      func(*Model)
}

// RunModel starts the search bar and returns what it held on exit.
// Extra ProgramOptions (e.g., custom IO) can be provided to mirror tea.NewProgram.
func RunModel(cfg search.Config, rc RunConfig, opts ...tea.ProgramOption) (Result, error) {
	m := InitialModel(cfg, rc.Options...)
	m.NoColor = rc.NoColor
	m.DebugMode = rc.DebugMode
	m.QuitOnComplete = rc.QuitOnComplete
	if rc.Configure != nil {
		rc.Configure(&m)
	}

	if rc.Width > 0 || rc.Height > 0 {
		runW, runH := TerminalSize(rc.Width, rc.Height)
		m.ForceWindowSize = true
		m.DesiredWinWidth, m.DesiredWinHeight = runW, runH
		m.WinWidth, m.WinHeight = runW, runH
		opts = append(opts, tea.WithWindowSize(runW, runH))
	}

	if len(rc.StartKeys) > 0 {
		sync := m.Synchronous
		m.Synchronous = true
		ApplyStartupKeys(&m, rc.StartKeys)
		m.Synchronous = sync
	}
	m.syncLayout()

	prog := tea.NewProgram(&m, opts...)
	finalModel, err := prog.Run()
	if fm, ok := finalModel.(*Model); ok && fm != nil {
		return fm.Result(), err
	}
	return m.Result(), err
}

// TerminalSize fills unset dimensions from the terminal attached to stdout,
// falling back to 80x24.
func TerminalSize(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			if width <= 0 {
				width = w
			}
			if height <= 0 {
				height = h
			}
		}
	}
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	return width, height
}
