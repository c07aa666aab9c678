// Package formatter renders clause lists for the CLI: a styled table, YAML,
// JSON, TOML, the clipboard copy text, or a tree following bracket groups.
package formatter

import (
	"encoding/json"
	"fmt"
	"image/color"
	"reflect"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
)

var (
	defaultHeaderFG  = lipgloss.Color("12")
	defaultHeaderBG  = lipgloss.Color("236")
	defaultCellColor = lipgloss.Color("248")
	defaultSeparator = lipgloss.Color("240")

	headerStyle    lipgloss.Style
	cellStyle      lipgloss.Style
	separatorStyle lipgloss.Style
)

// TableColors controls the rendered colors of the clause table. Nil fields
// fall back to the defaults.
type TableColors struct {
	HeaderFG       color.Color
	HeaderBG       color.Color
	CellColor      color.Color
	SeparatorColor color.Color
}

// SetTableTheme overrides the table styles.
func SetTableTheme(tc TableColors) {
	pick := func(c, def color.Color) color.Color {
		if c == nil {
			return def
		}
		return c
	}
	headerStyle = lipgloss.NewStyle().Bold(true).
		Foreground(pick(tc.HeaderFG, defaultHeaderFG)).
		Background(pick(tc.HeaderBG, defaultHeaderBG))
	cellStyle = lipgloss.NewStyle().Foreground(pick(tc.CellColor, defaultCellColor))
	separatorStyle = lipgloss.NewStyle().Foreground(pick(tc.SeparatorColor, defaultSeparator))
}

//nolint:gochecknoinits // default table theme for package consumers
func init() {
	SetTableTheme(TableColors{})
}

// Stringify returns a single-line representation of a clause value.
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\n`).Replace(t)
	case bool, int, int64, float64:
		return fmt.Sprint(t)
	}
	switch reflect.ValueOf(v).Kind() { //nolint:exhaustive // only composite values are marshaled
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Ptr:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

// truncate cuts s to width cells, ending with an ellipsis when it had to cut.
func truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width < 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// RenderRows renders a header row and data rows as aligned columns. A positive
// maxWidth caps every column at maxWidth divided by the column count.
func RenderRows(header []string, rows [][]string, noColor bool, maxWidth int) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := range header {
			if i < len(row) {
				widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
			}
		}
	}
	const sep = "  "
	if maxWidth > 0 && len(header) > 0 {
		limit := max((maxWidth-len(sep)*(len(header)-1))/len(header), 4)
		for i := range widths {
			widths[i] = min(widths[i], limit)
		}
	}

	render := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(header))
		for i := range header {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			cell = padRight(truncate(cell, widths[i]), widths[i])
			if !noColor {
				cell = style.Render(cell)
			}
			parts[i] = cell
		}
		return strings.TrimRight(strings.Join(parts, sep), " ")
	}

	var b strings.Builder
	b.WriteString(render(header, headerStyle) + "\n")
	total := len(sep) * (len(header) - 1)
	for _, w := range widths {
		total += w
	}
	line := strings.Repeat("─", max(total, 0))
	if !noColor {
		line = separatorStyle.Render(line)
	}
	b.WriteString(line + "\n")
	for _, row := range rows {
		b.WriteString(render(row, cellStyle) + "\n")
	}
	return b.String()
}
