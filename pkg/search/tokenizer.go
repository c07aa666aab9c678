package search

import (
	"strings"
	"unicode/utf8"
)

// SplitPaste splits pasted text on single spaces. Content between double quotes
// is kept together and the quotes are removed, so `foo "bar baz" qux` yields
// ["foo", "bar baz", "qux"]. Runs of spaces produce empty tokens.
func SplitPaste(text string) []string {
	if !strings.Contains(text, `"`) {
		return strings.Split(text, " ")
	}
	var (
		parts   []string
		current strings.Builder
		quoted  bool
	)
	for _, r := range text {
		switch {
		case r == '"':
			quoted = !quoted
		case r == ' ' && !quoted:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(parts, current.String())
}

// decoded is the result of splitting typed text into its leading tokens.
type decoded struct {
	operator   string
	comparison string
	// bracket is set when the remainder starts with a bracket symbol that should
	// become a bracket clause.
	bracket   string
	remainder string
}

// decodeOperator strips a leading "and", "or" or configured symbol.
func (c Config) decodeOperator(text string) (string, string) {
	if strings.HasPrefix(text, OperatorAnd) {
		return OperatorAnd, strings.TrimSpace(text[len(OperatorAnd):])
	}
	if strings.HasPrefix(text, OperatorOr) {
		return OperatorOr, strings.TrimSpace(text[len(OperatorOr):])
	}
	if c.And != "" && strings.HasPrefix(text, c.And) {
		return OperatorAnd, strings.TrimSpace(text[len(c.And):])
	}
	if c.Or != "" && strings.HasPrefix(text, c.Or) {
		return OperatorOr, strings.TrimSpace(text[len(c.Or):])
	}
	return "", text
}

// decodeComparison strips a leading comparison. Two character comparisons win
// over one character ones. When brackets is set a leading "(" or ")" is
// reported instead; a backslash before a bracket keeps it as literal text.
func (c Config) decodeComparison(text string, brackets bool) decoded {
	if utf8.RuneCountInString(text) > 1 {
		pair := firstRunes(text, 2)
		if c.IsComparison(pair) {
			return decoded{comparison: pair, remainder: strings.TrimSpace(text[len(pair):])}
		}
	}
	symbol := firstRunes(text, 1)
	if brackets && (symbol == OpenBracket || symbol == CloseBracket) {
		return decoded{bracket: symbol, remainder: strings.TrimSpace(text[1:])}
	}
	if brackets && (strings.HasPrefix(text, `\(`) || strings.HasPrefix(text, `\)`)) {
		return decoded{remainder: text[1:]}
	}
	if c.IsComparison(symbol) {
		return decoded{comparison: symbol, remainder: strings.TrimSpace(text[len(symbol):])}
	}
	return decoded{remainder: text}
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
