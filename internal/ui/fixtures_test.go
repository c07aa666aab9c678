package ui

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/smartsearch/pkg/search"
)

func bookField() search.Field {
	return search.Field{
		Name:        "book",
		Title:       "Book",
		Comparisons: search.StringComparisons,
		Precedence:  2,
		Definitions: []search.Definition{&search.Lookup{
			Items:        []search.SourceItem{"apple", "apricot", "banana"},
			IgnoreCase:   true,
			MatchOnPaste: true,
		}},
	}
}

func priceField() search.Field {
	return search.Field{
		Name:        "price",
		Title:       "Price",
		Comparisons: search.NumberComparisons,
		Precedence:  1,
		Definitions: []search.Definition{&search.Expression{
			Pattern: regexp.MustCompile(`^[0-9]+$`),
			Value: func(text string) search.Value {
				n, _ := strconv.Atoi(text)
				return n
			},
			MatchOnPaste: true,
		}},
	}
}

// authorField resolves asynchronously from a fixed list.
func authorField() search.Field {
	authors := []string{"Austen", "Dickens", "Dumas"}
	return search.Field{
		Name:        "author",
		Title:       "Author",
		Comparisons: search.StringComparisons,
		Definitions: []search.Definition{&search.Lookup{
			Resolve: func(_ context.Context, text, _ string, _ []search.Matcher) ([]search.SourceItem, error) {
				var out []search.SourceItem
				for _, a := range authors {
					if strings.HasPrefix(strings.ToLower(a), strings.ToLower(text)) {
						out = append(out, a)
					}
				}
				return out, nil
			},
		}},
	}
}

func testConfig(opts ...search.ConfigOption) search.Config {
	return search.NewConfig([]search.Field{bookField(), priceField()}, opts...)
}

func newTestModel(t *testing.T, cfg search.Config) *Model {
	t.Helper()
	m := InitialModel(cfg)
	m.Synchronous = true
	m.NoColor = true
	m.WinWidth = 80
	m.syncLayout()
	return &m
}

func press(t *testing.T, m *Model, keys ...string) {
	t.Helper()
	ApplyStartupKeys(m, keys)
}

func send(t *testing.T, m *Model, msg tea.Msg) tea.Cmd {
	t.Helper()
	updated, cmd := m.Update(msg)
	require.Same(t, m, updated)
	return cmd
}

func texts(ms []search.Matcher) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Text
	}
	return out
}
