package search

import (
	"regexp"
	"strconv"
)

func bookField() Field {
	return Field{
		Name:        "book",
		Title:       "Book",
		Comparisons: StringComparisons,
		Precedence:  2,
		Definitions: []Definition{&Lookup{
			Items:        []SourceItem{"apple", "apricot", "banana"},
			IgnoreCase:   true,
			MatchOnPaste: true,
		}},
	}
}

func priceField() Field {
	return Field{
		Name:        "price",
		Title:       "Price",
		Comparisons: NumberComparisons,
		Precedence:  1,
		Definitions: []Definition{&Expression{
			Pattern: regexp.MustCompile(`^[0-9]+$`),
			Value: func(text string) Value {
				n, _ := strconv.Atoi(text)
				return n
			},
			MatchOnPaste: true,
		}},
	}
}

func testConfig(opts ...ConfigOption) Config {
	return NewConfig([]Field{bookField(), priceField()}, opts...)
}

func clause(key, source, text string) Matcher {
	return Matcher{Key: key, Operator: OperatorAnd, Comparison: "=", Source: source, Value: text, Text: text}
}

func bracketClause(key, symbol string) Matcher {
	m := BracketMatcher(symbol, OperatorAnd)
	m.Key = key
	return m
}

func keys(ms []Matcher) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Key
	}
	return out
}
