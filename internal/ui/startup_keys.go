package ui

import (
	"strings"

	tea "charm.land/bubbletea/v2"
)

// ApplyStartupKeys simulates startup keypresses (Vim-like tokens and literal
// text). It mutates the provided model in place. Commands returned by the
// model are dropped, so lookups only resolve when the model is Synchronous.
func ApplyStartupKeys(m *Model, keys []string) {
	if len(keys) == 0 || m == nil {
		return
	}
	send := func(msg tea.Msg) {
		if updated, _ := m.Update(msg); updated != nil {
			if um, ok := updated.(*Model); ok && um != m {
				*m = *um
			}
		}
	}
	for _, raw := range keys {
		token := raw
		if strings.TrimSpace(token) == "" {
			continue
		}
		// Leading backslash forces literal text (e.g., "\\<Tab>").
		if strings.HasPrefix(token, `\`) {
			for _, r := range strings.TrimPrefix(token, `\`) {
				send(tea.KeyPressMsg{Code: r, Text: string(r)})
			}
			continue
		}
		for _, segment := range parseTokenSegments(token) {
			if segment.isVimKey {
				if msg, ok := pasteFromToken(segment.text); ok {
					send(msg)
					continue
				}
				if msgs, ok := keyMsgsFromToken(segment.text); ok {
					for _, msg := range msgs {
						send(msg)
					}
					continue
				}
			}
			for _, r := range segment.text {
				send(tea.KeyPressMsg{Code: r, Text: string(r)})
			}
		}
	}
}

// tokenSegment represents a parsed segment of a token (either a vim-style key or literal text)
type tokenSegment struct {
	text     string
	isVimKey bool
}

// parseTokenSegments splits a token into segments of vim-style keys and literal text.
// Example: "<S-Left>dune" -> [{"<S-Left>", true}, {"dune", false}]
func parseTokenSegments(token string) []tokenSegment {
	var segments []tokenSegment
	remaining := token
	for len(remaining) > 0 {
		startIdx := strings.Index(remaining, "<")
		if startIdx == -1 {
			segments = append(segments, tokenSegment{text: remaining})
			break
		}
		if startIdx > 0 {
			segments = append(segments, tokenSegment{text: remaining[:startIdx]})
		}
		endIdx := strings.Index(remaining[startIdx:], ">")
		if endIdx == -1 {
			segments = append(segments, tokenSegment{text: remaining[startIdx:]})
			break
		}
		segments = append(segments, tokenSegment{text: remaining[startIdx : startIdx+endIdx+1], isVimKey: true})
		remaining = remaining[startIdx+endIdx+1:]
	}
	return segments
}

// pasteFromToken turns "<Paste:text>" into a paste event.
func pasteFromToken(token string) (tea.PasteMsg, bool) {
	inner := strings.TrimSuffix(strings.TrimPrefix(token, "<"), ">")
	name, content, ok := strings.Cut(inner, ":")
	if !ok || !strings.EqualFold(name, "paste") {
		return tea.PasteMsg{}, false
	}
	return tea.PasteMsg{Content: content}, true
}

var namedKeys = map[string]rune{
	"esc":       tea.KeyEscape,
	"escape":    tea.KeyEscape,
	"c-[":       tea.KeyEscape,
	"cr":        tea.KeyEnter,
	"enter":     tea.KeyEnter,
	"return":    tea.KeyEnter,
	"tab":       tea.KeyTab,
	"bs":        tea.KeyBackspace,
	"backspace": tea.KeyBackspace,
	"left":      tea.KeyLeft,
	"right":     tea.KeyRight,
	"up":        tea.KeyUp,
	"down":      tea.KeyDown,
	"home":      tea.KeyHome,
	"end":       tea.KeyEnd,
	"pageup":    tea.KeyPgUp,
	"pgup":      tea.KeyPgUp,
	"pagedown":  tea.KeyPgDown,
	"pgdown":    tea.KeyPgDown,
	"f1":        tea.KeyF1,
}

// keyMsgsFromToken parses a Vim-like token into key messages.
// Examples: "<Esc>", "<CR>", "<Tab>", "<Space>", "<BS>", "<S-CR>", "<C-Left>",
// "<C-BS>", "<C-y>". Only <...> forms are treated as keys.
func keyMsgsFromToken(token string) ([]tea.KeyPressMsg, bool) {
	if !strings.HasPrefix(token, "<") || !strings.HasSuffix(token, ">") {
		return nil, false
	}
	inner := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(token, "<"), ">"))
	if inner == "space" {
		return []tea.KeyPressMsg{{Code: ' ', Text: " "}}, true
	}

	var mod tea.KeyMod
	for {
		switch {
		case strings.HasPrefix(inner, "s-"):
			mod |= tea.ModShift
		case strings.HasPrefix(inner, "c-") && inner != "c-[":
			mod |= tea.ModCtrl
		case strings.HasPrefix(inner, "a-"), strings.HasPrefix(inner, "m-"):
			mod |= tea.ModAlt
		default:
			if code, ok := namedKeys[inner]; ok {
				return []tea.KeyPressMsg{{Code: code, Mod: mod}}, true
			}
			if r := []rune(inner); len(r) == 1 && mod != 0 {
				return []tea.KeyPressMsg{{Code: r[0], Mod: mod}}, true
			}
			return nil, false
		}
		inner = inner[2:]
	}
}
