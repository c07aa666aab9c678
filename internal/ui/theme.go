package ui

import (
	"fmt"
	"image/color"
	"sort"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/smartsearch/internal/formatter"
	"github.com/oakwood-commons/smartsearch/pkg/loader"
)

// Theme defines the colors of the search bar. Host apps can supply their own theme.
type Theme struct {
	ChipFG         color.Color // Committed clause text
	ChipBG         color.Color // Committed clause background
	ActiveChipFG   color.Color // Clause being edited
	ActiveChipBG   color.Color
	MismatchedFG   color.Color // Unbalanced bracket clause
	FunctionFG     color.Color // Active function chip
	FunctionBG     color.Color
	DragTargetBG   color.Color // Chip under a drag
	InputFG        color.Color // Editor text
	OptionFG       color.Color // Option list text
	SelectedFG     color.Color // Highlighted option
	SelectedBG     color.Color
	CategoryFG     color.Color // Category headers
	DelayedFG      color.Color // Options from a slow lookup
	HintFG         color.Color // Home/End/PgUp/PgDown hints
	TooltipFG      color.Color
	ErrorFG        color.Color // Editor and completion errors
	HelpKey        color.Color // Help key labels
	HelpValue      color.Color // Help value text
	DebugColor     color.Color // Debug bar text
	SeparatorColor color.Color
}

var (
	themeMu      sync.RWMutex
	currentTheme = darkTheme()
)

func darkTheme() Theme {
	return Theme{
		ChipFG:         lipgloss.Color("252"),
		ChipBG:         lipgloss.Color("238"),
		ActiveChipFG:   lipgloss.Color("231"),
		ActiveChipBG:   lipgloss.Color("24"),
		MismatchedFG:   lipgloss.Color("203"),
		FunctionFG:     lipgloss.Color("236"),
		FunctionBG:     lipgloss.Color("114"),
		DragTargetBG:   lipgloss.Color("60"),
		InputFG:        lipgloss.Color("252"),
		OptionFG:       lipgloss.Color("246"),
		SelectedFG:     lipgloss.Color("250"),
		SelectedBG:     lipgloss.Color("24"),
		CategoryFG:     lipgloss.Color("81"),
		DelayedFG:      lipgloss.Color("221"),
		HintFG:         lipgloss.Color("241"),
		TooltipFG:      lipgloss.Color("244"),
		ErrorFG:        lipgloss.Color("203"),
		HelpKey:        lipgloss.Color("81"),
		HelpValue:      lipgloss.Color("245"),
		DebugColor:     lipgloss.Color("244"),
		SeparatorColor: lipgloss.Color("238"),
	}
}

func lightTheme() Theme {
	return Theme{
		ChipFG:         lipgloss.Color("235"),
		ChipBG:         lipgloss.Color("254"),
		ActiveChipFG:   lipgloss.Color("231"),
		ActiveChipBG:   lipgloss.Color("31"),
		MismatchedFG:   lipgloss.Color("160"),
		FunctionFG:     lipgloss.Color("231"),
		FunctionBG:     lipgloss.Color("28"),
		DragTargetBG:   lipgloss.Color("153"),
		InputFG:        lipgloss.Color("235"),
		OptionFG:       lipgloss.Color("240"),
		SelectedFG:     lipgloss.Color("231"),
		SelectedBG:     lipgloss.Color("31"),
		CategoryFG:     lipgloss.Color("25"),
		DelayedFG:      lipgloss.Color("130"),
		HintFG:         lipgloss.Color("245"),
		TooltipFG:      lipgloss.Color("242"),
		ErrorFG:        lipgloss.Color("160"),
		HelpKey:        lipgloss.Color("25"),
		HelpValue:      lipgloss.Color("242"),
		DebugColor:     lipgloss.Color("242"),
		SeparatorColor: lipgloss.Color("250"),
	}
}

// ThemePresets are the built-in palettes, selectable by name.
var ThemePresets = map[string]func() Theme{
	"dark":  darkTheme,
	"light": lightTheme,
}

// DefaultTheme returns the dark palette.
func DefaultTheme() Theme { return darkTheme() }

// CurrentTheme returns the active theme.
func CurrentTheme() Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

// SetTheme overrides the global theme. The clause table printed by the CLI
// follows it.
func SetTheme(t Theme) {
	themeMu.Lock()
	currentTheme = t
	themeMu.Unlock()
	formatter.SetTableTheme(formatter.TableColors{
		HeaderFG:       t.CategoryFG,
		HeaderBG:       t.ChipBG,
		CellColor:      t.OptionFG,
		SeparatorColor: t.SeparatorColor,
	})
}

// SetThemeByName selects a preset.
func SetThemeByName(name string) error {
	preset, ok := ThemePresets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return fmt.Errorf("unknown theme %q (available: %s)", name, availableThemeNames())
	}
	SetTheme(preset())
	return nil
}

func availableThemeNames() string {
	names := make([]string, 0, len(ThemePresets))
	for name := range ThemePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// ColorValue is a color as written in a theme file: an ANSI index ("81") or a
// hex string ("#5fd7ff").
type ColorValue string

// UnmarshalYAML accepts both quoted and bare numeric colors.
func (c *ColorValue) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a scalar, got %s", value.Tag)
	}
	*c = ColorValue(strings.TrimSpace(value.Value))
	return nil
}

// ThemeConfig is the file form of a Theme. Empty entries keep the base color.
type ThemeConfig struct {
	Base           string     `yaml:"base"`
	ChipFG         ColorValue `yaml:"chip_fg"`
	ChipBG         ColorValue `yaml:"chip_bg"`
	ActiveChipFG   ColorValue `yaml:"active_chip_fg"`
	ActiveChipBG   ColorValue `yaml:"active_chip_bg"`
	MismatchedFG   ColorValue `yaml:"mismatched_fg"`
	FunctionFG     ColorValue `yaml:"function_fg"`
	FunctionBG     ColorValue `yaml:"function_bg"`
	DragTargetBG   ColorValue `yaml:"drag_target_bg"`
	InputFG        ColorValue `yaml:"input_fg"`
	OptionFG       ColorValue `yaml:"option_fg"`
	SelectedFG     ColorValue `yaml:"selected_fg"`
	SelectedBG     ColorValue `yaml:"selected_bg"`
	CategoryFG     ColorValue `yaml:"category_fg"`
	DelayedFG      ColorValue `yaml:"delayed_fg"`
	HintFG         ColorValue `yaml:"hint_fg"`
	TooltipFG      ColorValue `yaml:"tooltip_fg"`
	ErrorFG        ColorValue `yaml:"error_fg"`
	HelpKey        ColorValue `yaml:"help_key"`
	HelpValue      ColorValue `yaml:"help_value"`
	DebugColor     ColorValue `yaml:"debug_color"`
	SeparatorColor ColorValue `yaml:"separator_color"`
}

// ThemeFromConfig overlays cfg on its base preset (dark when unset).
func ThemeFromConfig(cfg ThemeConfig) (Theme, error) {
	base := darkTheme
	if cfg.Base != "" {
		preset, ok := ThemePresets[strings.ToLower(cfg.Base)]
		if !ok {
			return Theme{}, fmt.Errorf("unknown base theme %q (available: %s)", cfg.Base, availableThemeNames())
		}
		base = preset
	}
	th := base()
	set := func(val ColorValue, dst *color.Color) {
		if val != "" {
			*dst = lipgloss.Color(string(val))
		}
	}
	set(cfg.ChipFG, &th.ChipFG)
	set(cfg.ChipBG, &th.ChipBG)
	set(cfg.ActiveChipFG, &th.ActiveChipFG)
	set(cfg.ActiveChipBG, &th.ActiveChipBG)
	set(cfg.MismatchedFG, &th.MismatchedFG)
	set(cfg.FunctionFG, &th.FunctionFG)
	set(cfg.FunctionBG, &th.FunctionBG)
	set(cfg.DragTargetBG, &th.DragTargetBG)
	set(cfg.InputFG, &th.InputFG)
	set(cfg.OptionFG, &th.OptionFG)
	set(cfg.SelectedFG, &th.SelectedFG)
	set(cfg.SelectedBG, &th.SelectedBG)
	set(cfg.CategoryFG, &th.CategoryFG)
	set(cfg.DelayedFG, &th.DelayedFG)
	set(cfg.HintFG, &th.HintFG)
	set(cfg.TooltipFG, &th.TooltipFG)
	set(cfg.ErrorFG, &th.ErrorFG)
	set(cfg.HelpKey, &th.HelpKey)
	set(cfg.HelpValue, &th.HelpValue)
	set(cfg.DebugColor, &th.DebugColor)
	set(cfg.SeparatorColor, &th.SeparatorColor)
	return th, nil
}

// LoadThemeFile reads a theme from a YAML, JSON or TOML file.
func LoadThemeFile(path string) (Theme, error) {
	var cfg ThemeConfig
	if err := loader.DecodeFile(path, &cfg); err != nil {
		return Theme{}, fmt.Errorf("load theme: %w", err)
	}
	return ThemeFromConfig(cfg)
}

// styles are the lipgloss styles derived from a theme. With noColor every
// style is plain except the selection, which uses reverse video.
type styles struct {
	chip, activeChip, mismatched, function, dragTarget lipgloss.Style
	input, option, selected, category, delayed, hint  lipgloss.Style
	tooltip, err, helpKey, helpValue, debug           lipgloss.Style
}

func newStyles(th Theme, noColor bool) styles {
	pad := lipgloss.NewStyle().Padding(0, 1)
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{
			chip:       pad,
			activeChip: pad.Reverse(true),
			mismatched: pad.Underline(true),
			function:   pad.Bold(true),
			dragTarget: pad.Underline(true),
			input:      plain,
			option:     plain,
			selected:   plain.Reverse(true),
			category:   plain.Bold(true),
			delayed:    plain.Italic(true),
			hint:       plain,
			tooltip:    plain,
			err:        plain.Bold(true),
			helpKey:    plain,
			helpValue:  plain,
			debug:      plain,
		}
	}
	return styles{
		chip:       pad.Foreground(th.ChipFG).Background(th.ChipBG),
		activeChip: pad.Foreground(th.ActiveChipFG).Background(th.ActiveChipBG),
		mismatched: pad.Foreground(th.MismatchedFG).Background(th.ChipBG).Underline(true),
		function:   pad.Foreground(th.FunctionFG).Background(th.FunctionBG).Bold(true),
		dragTarget: pad.Foreground(th.ChipFG).Background(th.DragTargetBG),
		input:      lipgloss.NewStyle().Foreground(th.InputFG),
		option:     lipgloss.NewStyle().Foreground(th.OptionFG),
		selected:   lipgloss.NewStyle().Foreground(th.SelectedFG).Background(th.SelectedBG),
		category:   lipgloss.NewStyle().Foreground(th.CategoryFG).Bold(true),
		delayed:    lipgloss.NewStyle().Foreground(th.DelayedFG),
		hint:       lipgloss.NewStyle().Foreground(th.HintFG),
		tooltip:    lipgloss.NewStyle().Foreground(th.TooltipFG),
		err:        lipgloss.NewStyle().Foreground(th.ErrorFG).Bold(true),
		helpKey:    lipgloss.NewStyle().Foreground(th.HelpKey),
		helpValue:  lipgloss.NewStyle().Foreground(th.HelpValue),
		debug:      lipgloss.NewStyle().Foreground(th.DebugColor),
	}
}
