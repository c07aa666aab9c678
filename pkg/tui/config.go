package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/smartsearch/internal/ui"
)

// Config holds host-provided settings for running the search bar.
type Config struct {
	Width          int
	Height         int
	NoColor        bool
	DebugEnabled   bool
	QuitOnComplete bool
	HelpVisible    bool // snapshots only; the interactive bar follows the search config
	StartKeys      []string
	// ThemeFile takes precedence over ThemeName, which takes precedence over Theme.
	ThemeFile string
	ThemeName string // built-in preset (dark, light)
	Theme     *ui.Theme
	Logger    logr.Logger
	Context   context.Context
}

// DefaultConfig returns a baseline config with the same defaults as the CLI.
func DefaultConfig() Config {
	return Config{
		QuitOnComplete: true,
		ThemeName:      "dark",
		Logger:         logr.Discard(),
		Context:        context.Background(),
	}
}

// Apply installs the configured theme. An unusable theme leaves the default
// palette in place and is reported so the host can warn about it.
func (c Config) Apply() error {
	switch {
	case strings.TrimSpace(c.ThemeFile) != "":
		th, err := ui.LoadThemeFile(c.ThemeFile)
		if err != nil {
			ui.SetTheme(ui.DefaultTheme())
			return err
		}
		ui.SetTheme(th)
	case strings.TrimSpace(c.ThemeName) != "":
		if err := ui.SetThemeByName(c.ThemeName); err != nil {
			ui.SetTheme(ui.DefaultTheme())
			return fmt.Errorf("theme: %w", err)
		}
	case c.Theme != nil:
		ui.SetTheme(*c.Theme)
	}
	return nil
}

func (c Config) modelOptions() []ui.ModelOption {
	var opts []ui.ModelOption
	if c.Logger.GetSink() != nil {
		opts = append(opts, ui.WithModelLogger(c.Logger))
	}
	if c.Context != nil {
		opts = append(opts, ui.WithContext(c.Context))
	}
	return opts
}
