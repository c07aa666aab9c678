package ui

import (
	"slices"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/smartsearch/pkg/search"
)

const (
	minInputWidth = 12
	clearLabel    = "x"
	ellipsis      = "…"
)

// Span indexes for the non-clause elements of the bar.
const (
	spanFunction = -1
	spanClear    = -2
	spanInput    = -3
)

// barSpan is the horizontal extent of one element of the bar line.
type barSpan struct {
	start, end int
	index      int
	label      string
}

// rowKind distinguishes the lines of the option list.
type rowKind int

const (
	rowOption rowKind = iota
	rowHeader
	rowPending
)

type optionRow struct {
	kind     rowKind
	text     string
	hint     string
	index    int
	active   bool
	delayed  bool
	category string
}

// chipLabel is the chip text of clause i, capped at the configured width.
func (m *Model) chipLabel(ms []search.Matcher, i int) string {
	cfg := m.Controller.Config()
	label := search.Display(ms[i], m.Controller.IsFirst(i), cfg)
	if cfg.MaxMatcherWidth > 0 && runewidth.StringWidth(label) > cfg.MaxMatcherWidth {
		label = runewidth.Truncate(label, cfg.MaxMatcherWidth, ellipsis)
	}
	return label
}

// barSpans lays out the bar line: function chip, clause chips with the editor
// in place of the active clause (or trailing), then the clear chip.
func (m *Model) barSpans() []barSpan {
	var (
		spans []barSpan
		x     int
	)
	add := func(index int, label string, width int) {
		spans = append(spans, barSpan{start: x, end: x + width, index: index, label: label})
		x += width + 1
	}
	if name := m.Controller.FunctionName(); name != "" {
		add(spanFunction, name, runewidth.StringWidth(name)+2)
	}
	ms := m.Controller.Matchers()
	active := m.Controller.Active()
	for i := range ms {
		if i == active {
			add(spanInput, "", m.input.Width())
			continue
		}
		label := m.chipLabel(ms, i)
		add(i, label, runewidth.StringWidth(label)+2)
	}
	if active == -1 {
		add(spanInput, "", m.input.Width())
	}
	if len(ms) > 0 || m.Controller.FunctionName() != "" {
		add(spanClear, clearLabel, runewidth.StringWidth(clearLabel)+2)
	}
	return spans
}

// syncLayout sizes the editor: an inline editor fits its text, the trailing
// editor takes the rest of the line.
func (m *Model) syncLayout() {
	width := runewidth.StringWidth(m.input.Value()) + 2
	if width < minInputWidth {
		width = minInputWidth
	}
	if m.Controller.Active() == -1 {
		used := 0
		for _, s := range m.barSpans() {
			if s.index != spanInput {
				used += s.end - s.start + 1
			}
		}
		if rest := m.WinWidth - used - 1; rest > width {
			width = rest
		}
	}
	m.input.SetWidth(width)
	m.debug.SetWidth(m.WinWidth)
}

// optionRows builds the visible option list around the active option.
func (m *Model) optionRows() []optionRow {
	cfg := m.Controller.Config()
	cats := m.editor.Options()
	flat := m.editor.Flat()

	category := map[string]string{}
	delayed := map[string]bool{}
	for _, c := range cats {
		for _, o := range c.Options {
			category[o.Source] = c.Category
			delayed[o.Source] = c.Delayed
		}
	}

	var rows []optionRow
	if len(flat) > 0 {
		active := m.editor.Active()
		w := search.Window(flat, max(active, 0))
		entries := make([]search.WindowEntry, 0, len(w.Before)+1+len(w.After))
		entries = append(entries, w.Before...)
		entries = append(entries, w.Active)
		entries = append(entries, w.After...)

		last := ""
		for _, e := range entries {
			title := category[e.Source]
			if cfg.ShowCategory && cfg.CategoryPosition == search.CategoryTop && title != last {
				rows = append(rows, optionRow{kind: rowHeader, text: title, index: -1})
			}
			last = title
			text := e.Label()
			if cfg.ShowCategory && cfg.CategoryPosition == search.CategoryLeft {
				text = title + "  " + text
			}
			hint := e.Hint
			if cfg.HideHelp {
				hint = ""
			}
			rows = append(rows, optionRow{
				kind:     rowOption,
				text:     text,
				hint:     hint,
				index:    e.Index,
				active:   active >= 0 && e.Index == active,
				delayed:  delayed[e.Source],
				category: title,
			})
		}
	}
	for _, c := range cats {
		if c.Pending && len(c.Options) == 0 {
			rows = append(rows, optionRow{kind: rowPending, text: c.Category + "  searching…", index: -1, category: c.Category})
		}
	}
	return capRows(rows, cfg.MaxDropDownHeight)
}

// capRows keeps at most limit rows, keeping the active option in view.
func capRows(rows []optionRow, limit int) []optionRow {
	if limit <= 0 || len(rows) <= limit {
		return rows
	}
	start := 0
	for i, r := range rows {
		if r.active {
			start = i - limit/2
			break
		}
	}
	start = max(0, min(start, len(rows)-limit))
	return rows[start : start+limit]
}

// errorText is the banner shown under the bar, editor errors first.
func (m *Model) errorText() string {
	if msg := m.editor.Error(); msg != "" {
		return msg
	}
	return m.Controller.Error()
}

// optionsTop is the line the option list starts on.
func (m *Model) optionsTop() int {
	if m.errorText() != "" {
		return 2
	}
	return 1
}

// View renders the bar.
func (m *Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	v.KeyboardEnhancements.ReportEventTypes = true
	return v
}

func (m *Model) render() string {
	st := newStyles(CurrentTheme(), m.NoColor)
	lines := []string{m.renderBar(st)}
	if msg := m.errorText(); msg != "" {
		lines = append(lines, st.err.Render("! "+msg))
	}
	for _, r := range m.optionRows() {
		lines = append(lines, m.renderRow(st, r))
	}
	if tip := m.tooltip(); tip != "" {
		lines = append(lines, st.tooltip.Render(tip))
	}
	if m.Status != "" {
		lines = append(lines, st.hint.Render(m.Status))
	}
	if m.HelpVisible {
		lines = append(lines, m.renderHelp(st))
	}
	if m.DebugMode {
		m.debug.SetVisible(true)
		m.debug.UpdateDebugInfo(m.debugInfo(), m.NoColor)
		if out := m.debug.View(); out != "" {
			lines = append(lines, out)
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBar(st styles) string {
	ms := m.Controller.Matchers()
	var parts []string
	for _, s := range m.barSpans() {
		switch s.index {
		case spanFunction:
			parts = append(parts, st.function.Render(s.label))
		case spanClear:
			parts = append(parts, st.chip.Render(s.label))
		case spanInput:
			w := s.end - s.start
			parts = append(parts, st.input.Width(w).MaxWidth(w).Render(m.input.View()))
		default:
			style := st.chip
			switch {
			case m.drag.active && s.index == m.drag.over && s.index != m.drag.from:
				style = st.dragTarget
			case m.Controller.IsMismatched(s.index):
				style = st.mismatched
			case ms[s.index].Key == m.Controller.Changing() || (m.drag.active && s.index == m.drag.from):
				style = st.activeChip
			}
			parts = append(parts, style.Render(s.label))
		}
	}
	return strings.Join(parts, " ")
}

func (m *Model) renderRow(st styles, r optionRow) string {
	switch r.kind {
	case rowHeader:
		return st.category.Render(r.text)
	case rowPending:
		return st.hint.Render("  " + r.text)
	}
	style := st.option
	if r.delayed {
		style = st.delayed
	}
	text := "  " + r.text
	if r.active {
		style = st.selected
		text = "> " + r.text
	}
	line := style.Render(text)
	if r.hint != "" {
		line += " " + st.hint.Render(r.hint)
	}
	return line
}

// tooltip describes the clause being edited.
func (m *Model) tooltip() string {
	if m.Controller.Config().HideToolTip {
		return ""
	}
	active := m.Controller.Active()
	ms := m.Controller.Matchers()
	if active < 0 || active >= len(ms) {
		return ""
	}
	return search.Tooltip(ms[active])
}

func (m *Model) renderHelp(st styles) string {
	entries := slices.Clone(helpEntries)
	for _, b := range []key.Binding{m.Keys.Copy, m.Keys.Paste, m.Keys.Quit} {
		h := b.Help()
		entries = append(entries, [2]string{h.Key, h.Desc})
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, st.helpKey.Render(e[0])+" "+st.helpValue.Render(e[1]))
	}
	line := strings.Join(parts, st.helpValue.Render(" • "))
	if m.WinWidth > 0 && lipgloss.Width(line) > m.WinWidth {
		line = ansi.Truncate(line, m.WinWidth, ellipsis)
	}
	return line
}
