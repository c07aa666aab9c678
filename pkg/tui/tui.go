// Package tui runs the interactive search bar for host applications.
package tui

import (
	"io"
	"os"
	"strconv"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/oakwood-commons/smartsearch/internal/ui"
	"github.com/oakwood-commons/smartsearch/pkg/search"
)

// Result is what the search bar held when it closed.
type Result = ui.Result

// defaultFallbackTermWidth is used when terminal size cannot be detected.
const defaultFallbackTermWidth = 120

// DetectTerminalSize returns the best-effort terminal width and height by probing
// stdout, stderr, and stdin, then falling back to the COLUMNS environment variable.
// If detection fails completely, returns (120, 24).
func DetectTerminalSize() (width int, height int) {
	fds := []uintptr{os.Stdout.Fd(), os.Stderr.Fd(), os.Stdin.Fd()}
	for _, fd := range fds {
		if w, h, err := term.GetSize(int(fd)); err == nil && (w > 0 || h > 0) {
			return w, h
		}
	}
	if col := os.Getenv("COLUMNS"); col != "" {
		if w, err := strconv.Atoi(col); err == nil && w > 0 {
			return w, 0
		}
	}
	return defaultFallbackTermWidth, 24
}

// Run starts the search bar over cfg and blocks until it exits.
// Host applications can pass optional tea.ProgramOption values to control IO.
func Run(cfg search.Config, tc Config, opts ...tea.ProgramOption) (Result, error) {
	if err := tc.Apply(); err != nil {
		tc.Logger.Info("falling back to the default theme", "error", err.Error())
	}
	return ui.RunModel(cfg, ui.RunConfig{
		Width:          tc.Width,
		Height:         tc.Height,
		NoColor:        tc.NoColor,
		DebugMode:      tc.DebugEnabled,
		QuitOnComplete: tc.QuitOnComplete,
		StartKeys:      tc.StartKeys,
		Options:        tc.modelOptions(),
	}, opts...)
}

// RenderSnapshot replays the configured start keys without a terminal and
// returns one rendered frame plus the clauses the bar then holds.
func RenderSnapshot(cfg search.Config, tc Config) (string, Result) {
	if err := tc.Apply(); err != nil {
		tc.Logger.Info("falling back to the default theme", "error", err.Error())
	}
	return ui.RenderSnapshot(cfg, ui.SnapshotConfig{
		Width:       tc.Width,
		Height:      tc.Height,
		NoColor:     tc.NoColor,
		HelpVisible: tc.HelpVisible,
		DebugMode:   tc.DebugEnabled,
		StartKeys:   tc.StartKeys,
		Options:     tc.modelOptions(),
	})
}

// WithIO returns tea.ProgramOptions to set custom input/output.
func WithIO(in io.Reader, out io.Writer) []tea.ProgramOption {
	opts := []tea.ProgramOption{}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	return opts
}
