package ui

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
)

// DebugModel represents the debug bar component.
type DebugModel struct {
	Visible         bool
	Width           int
	LastDebugOutput string // Cached output to prevent flicker
	LastDebugValues DebugInfo
}

// NewDebugModel creates a new debug model.
func NewDebugModel() DebugModel {
	return DebugModel{Width: 92}
}

// View renders the debug bar if visible.
func (m DebugModel) View() string {
	if !m.Visible {
		return ""
	}
	return m.LastDebugOutput
}

// DebugInfo is the editor and list state shown in the debug bar.
type DebugInfo struct {
	WinWidth   int
	WinHeight  int
	State      string
	Token      uint64
	Generation uint64
	Options    int
	Active     int
	Clause     int
	Clauses    int
	Function   string
	Changing   string
	LastKey    string
	Text       string
}

// UpdateDebugInfo regenerates the bar when the state changed.
func (m *DebugModel) UpdateDebugInfo(info DebugInfo, noColor bool) {
	if m.LastDebugOutput != "" && info == m.LastDebugValues {
		return
	}
	style := lipgloss.NewStyle()
	if !noColor {
		style = style.Foreground(CurrentTheme().DebugColor)
	}
	message := fmt.Sprintf("DBG: win=%dx%d state=%s token=%d/%d opts=%d active=%d clause=%d/%d fn=%q changing=%q key=%q text=%q",
		info.WinWidth, info.WinHeight, info.State, info.Token, info.Generation,
		info.Options, info.Active, info.Clause, info.Clauses,
		info.Function, info.Changing, info.LastKey, info.Text)

	target := 92
	if m.Width > 0 {
		target = m.Width
	}
	padded := runewidth.Truncate(message, target, "...")
	padded = runewidth.FillRight(padded, target)

	m.LastDebugOutput = style.Render(padded)
	m.LastDebugValues = info
}

// SetWidth sets the width of the debug bar.
func (m *DebugModel) SetWidth(width int) {
	m.Width = width
}

// SetVisible sets the visibility of the debug bar.
func (m *DebugModel) SetVisible(visible bool) {
	m.Visible = visible
	if !visible {
		m.LastDebugOutput = ""
		m.LastDebugValues = DebugInfo{}
	}
}

func (m *Model) debugInfo() DebugInfo {
	return DebugInfo{
		WinWidth:   m.WinWidth,
		WinHeight:  m.WinHeight,
		State:      m.editor.State().String(),
		Token:      uint64(m.editor.Token()),
		Generation: uint64(m.gen.Current()),
		Options:    len(m.editor.Flat()),
		Active:     m.editor.Active(),
		Clause:     m.Controller.Active(),
		Clauses:    len(m.Controller.Matchers()),
		Function:   m.Controller.FunctionName(),
		Changing:   m.Controller.Changing(),
		LastKey:    m.LastKey,
		Text:       m.editor.Text(),
	}
}
