package search

import (
	"fmt"
	"strings"
)

// IsFirst reports whether index i of matchers starts a group: index 0, or the
// position right after a "(" clause.
func IsFirst(matchers []Matcher, i int) bool {
	if i <= 0 {
		return true
	}
	if i > len(matchers) {
		i = len(matchers)
	}
	return matchers[i-1].Comparison == OpenBracket
}

// CopyText renders clauses as the single-line text accepted by paste. The and
// operator and the default comparison are implied; text with whitespace is
// quoted. A function name leads the line.
func CopyText(matchers []Matcher, function string, cfg Config) string {
	var parts []string
	if function != "" {
		parts = append(parts, function)
	}
	for _, m := range matchers {
		if m.Operator != "" && !cfg.IsAnd(m.Operator) {
			parts = append(parts, m.Operator)
		}
		if m.IsBracket() {
			parts = append(parts, m.Comparison)
			continue
		}
		comparison := m.Comparison
		if comparison == cfg.DefaultComparison || comparison == VerbatimComparison {
			comparison = ""
		}
		text := m.Text
		if strings.ContainsAny(text, " \t\n") {
			text = `"` + text + `"`
		}
		parts = append(parts, comparison+text)
	}
	return strings.Join(parts, " ")
}

// CopyText renders the controller's clause list for the clipboard.
func (c *Controller) CopyText() string {
	return CopyText(c.matchers, c.FunctionName(), c.cfg)
}

// Display is the chip label of m. The operator is hidden on the first clause of
// a group, after "(" and on ")".
func Display(m Matcher, first bool, cfg Config) string {
	var parts []string
	if !first && m.Operator != "" && m.Comparison != CloseBracket {
		op := m.Operator
		if normalised, ok := cfg.OperatorFor(op); ok {
			op = normalised
		}
		parts = append(parts, op)
	}
	if m.IsBracket() {
		return strings.Join(append(parts, m.Comparison), " ")
	}
	if cfg.ShowCategory && cfg.CategoryPosition == CategoryLeft && m.Source != "" {
		parts = append(parts, m.Source)
	}
	if m.Comparison != VerbatimComparison && m.Comparison != "" {
		parts = append(parts, m.Comparison)
	}
	return strings.Join(append(parts, m.Text), " ")
}

// Tooltip describes m as "source: text", adding the value when it differs from the text.
func Tooltip(m Matcher) string {
	if m.IsBracket() {
		return m.Comparison
	}
	value := fmt.Sprint(m.Value)
	if m.Value == nil || value == m.Text {
		return m.Source + ": " + m.Text
	}
	return fmt.Sprintf("%s: %s(%s)", m.Source, m.Text, value)
}
