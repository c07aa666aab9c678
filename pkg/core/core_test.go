package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/smartsearch/pkg/search"
)

func bookField() search.Field {
	return search.Field{
		Name:        "book",
		Comparisons: search.StringComparisons,
		Definitions: []search.Definition{
			&search.Lookup{Items: []search.SourceItem{"Dune", "Emma"}, MatchOnPaste: true},
		},
	}
}

func TestNewRequiresFields(t *testing.T) {
	_, err := New()
	require.ErrorIs(t, err, ErrNoFields)
}

func TestNewWithFields(t *testing.T) {
	engine, err := New(
		WithFields(bookField()),
		WithConfigOptions(search.WithFreeText(true), search.WithFunctions(search.Function{Name: "Trade", RequiredFields: []string{"book"}})),
	)
	require.NoError(t, err)
	cfg := engine.Config()
	require.Len(t, cfg.Fields, 1)
	assert.True(t, cfg.AllowFreeText)
	assert.Equal(t, "book", cfg.Fields[0].Title)
}

func TestParse(t *testing.T) {
	engine, err := New(
		WithFields(bookField()),
		WithConfigOptions(search.WithFreeText(true), search.WithFunctions(search.Function{Name: "Trade", RequiredFields: []string{"book"}})),
	)
	require.NoError(t, err)

	ms, fn := engine.Parse(context.Background(), "Dune | Emma mystery")
	assert.Empty(t, fn)
	require.Len(t, ms, 3)
	assert.Equal(t, "book", ms[0].Source)
	assert.Equal(t, search.OperatorOr, ms[1].Operator)
	assert.Equal(t, search.FreeTextSource, ms[2].Source)

	ms, fn = engine.Parse(context.Background(), "trade Dune")
	assert.Equal(t, "Trade", fn)
	require.Len(t, ms, 1)
	assert.Equal(t, "Dune", ms[0].Text)
}

func TestNewControllerUsesEngineConfig(t *testing.T) {
	engine, err := New(WithFields(bookField()))
	require.NoError(t, err)

	var seen []search.Matcher
	c := engine.NewController(search.WithListener(func(ms []search.Matcher) { seen = ms }))
	c.AddMatcher(search.Matcher{Key: "k", Operator: "and", Comparison: "=", Source: "book", Text: "Dune", Value: "Dune"})
	assert.Len(t, seen, 1)
	assert.Equal(t, "Dune", c.CopyText())
}

func TestDefinitionsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "search.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
options:
  operators: Simple
fields:
  - name: price
    comparisons: number
    definitions:
      - pattern: "^[0-9]+$"
        value: "int(text)"
        match_on_paste: true
`), 0o644))

	engine, err := New(WithDefinitionsFile(path), WithFields(bookField()))
	require.NoError(t, err)
	cfg := engine.Config()
	assert.Equal(t, search.OperatorsSimple, cfg.Operators)
	require.Len(t, cfg.Fields, 2)
	assert.Equal(t, "price", cfg.Fields[0].Name)
	assert.Equal(t, "book", cfg.Fields[1].Name)

	ms, _ := engine.Parse(context.Background(), "42 Dune")
	require.Len(t, ms, 2)
	assert.Equal(t, int64(42), ms[0].Value)
}

func TestDefinitionsFileErrors(t *testing.T) {
	_, err := New(WithDefinitionsFile(filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
}

type fakeFormatter struct {
	matchers []search.Matcher
	format   string
}

func (f *fakeFormatter) Render(ms []search.Matcher, function, format string, noColor bool, width int) (string, error) {
	f.matchers, f.format = ms, format
	return "rendered", nil
}

func TestRenderUsesInjectedFormatter(t *testing.T) {
	fake := &fakeFormatter{}
	engine, err := New(WithFields(bookField()), WithFormatter(fake))
	require.NoError(t, err)

	out, err := engine.Render([]search.Matcher{{Key: "a"}}, "", "json", true, 0)
	require.NoError(t, err)
	assert.Equal(t, "rendered", out)
	assert.Equal(t, "json", fake.format)
	assert.Len(t, fake.matchers, 1)
}

func TestRenderDefaultText(t *testing.T) {
	engine, err := New(WithFields(bookField()))
	require.NoError(t, err)
	out, err := engine.Render([]search.Matcher{{Key: "a", Operator: "and", Comparison: "=", Source: "book", Text: "Dune"}}, "", "text", true, 0)
	require.NoError(t, err)
	assert.Equal(t, "Dune\n", out)
}

func TestWithDefinitionsText(t *testing.T) {
	engine, err := New(WithDefinitionsText(`
fields:
  - name: book
    comparisons: string
    definitions:
      - items: [Dune, Emma]
        match_on_paste: true
`, "."))
	require.NoError(t, err)
	ms, _ := engine.Parse(context.Background(), "Emma")
	require.Len(t, ms, 1)
	assert.Equal(t, "book", ms[0].Source)

	_, err = New(WithDefinitionsText("fields: []\n", "."))
	require.ErrorIs(t, err, ErrNoFields)
}
