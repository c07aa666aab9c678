package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/oakwood-commons/smartsearch/pkg/search"
)

// SnapshotConfig configures a one-shot, non-interactive render of the bar.
type SnapshotConfig struct {
	Width       int
	Height      int
	NoColor     bool
	HelpVisible bool
	DebugMode   bool
	StartKeys   []string
	Options     []ModelOption
	Configure   func(*Model)
}

// RenderSnapshot builds a synchronous model for cfg, replays the start keys
// and renders one frame.
func RenderSnapshot(cfg search.Config, sc SnapshotConfig) (string, Result) {
	m := InitialModel(cfg, sc.Options...)
	m.Synchronous = true
	m.NoColor = sc.NoColor
	m.DebugMode = sc.DebugMode
	m.HelpVisible = sc.HelpVisible
	m.WinWidth = 80
	if sc.Width > 0 {
		m.WinWidth = sc.Width
	}
	m.WinHeight = 24
	if sc.Height > 0 {
		m.WinHeight = sc.Height
	}
	if sc.Configure != nil {
		sc.Configure(&m)
	}
	m.syncLayout()
	ApplyStartupKeys(&m, sc.StartKeys)

	view := m.render()
	if sc.NoColor {
		view = ansi.Strip(view)
	}
	if sc.Height > 0 {
		view = padSnapshotHeight(view, sc.Height, sc.Width)
	}
	return view, m.Result()
}

func padSnapshotHeight(view string, height, width int) string {
	if height <= 0 {
		return view
	}
	lines := strings.Split(strings.TrimRight(view, "\n"), "\n")
	if len(lines) >= height {
		return strings.Join(lines[:height], "\n")
	}
	padLine := " "
	if width > 1 {
		padLine = strings.Repeat(" ", width)
	}
	for len(lines) < height {
		lines = append(lines, padLine)
	}
	return strings.Join(lines, "\n")
}
