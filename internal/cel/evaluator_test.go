package cel

import (
	"testing"

	"github.com/google/cel-go/common/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/smartsearch/pkg/search"
)

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator()
	require.NoError(t, err)
	require.NotNil(t, e.Environment())
	return e
}

func TestCompilePredicate(t *testing.T) {
	e := newEvaluator(t)
	match, err := e.CompilePredicate("text.startsWith('#') && size(text) > 1")
	require.NoError(t, err)

	assert.True(t, match("#42"))
	assert.False(t, match("#"))
	assert.False(t, match("42"))
}

func TestCompilePredicateRejectsNonBool(t *testing.T) {
	e := newEvaluator(t)
	_, err := e.CompilePredicate("size(text)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want bool")
}

func TestCompilePredicateSyntaxError(t *testing.T) {
	e := newEvaluator(t)
	_, err := e.CompilePredicate("text ==")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiling")
}

func TestCompileValue(t *testing.T) {
	e := newEvaluator(t)

	toInt, err := e.CompileValue("int(text)")
	require.NoError(t, err)
	assert.Equal(t, int64(42), toInt("42"))
	assert.Nil(t, toInt("forty"), "failed conversions drop the candidate")

	strip, err := e.CompileValue("text.substring(1)")
	require.NoError(t, err)
	assert.Equal(t, "tag", strip("#tag"))

	upper, err := e.CompileValue("text.upperAscii()")
	require.NoError(t, err)
	assert.Equal(t, "ABC", upper("abc"))
}

func TestCompileValidator(t *testing.T) {
	e := newEvaluator(t)
	validate, err := e.CompileValidator("size(clauses) > 2 ? 'too many clauses' : ''")
	require.NoError(t, err)

	two := []search.Matcher{
		{Key: "1", Source: "book", Text: "a", Value: "a"},
		{Key: "2", Source: "price", Text: "10", Value: 10},
	}
	assert.Empty(t, validate(two))
	assert.Equal(t, "too many clauses", validate(append(two, search.Matcher{Key: "3"})))
}

func TestCompileValidatorReadsClauseFields(t *testing.T) {
	e := newEvaluator(t)
	validate, err := e.CompileValidator(
		"clauses.exists(c, c.source == 'price' && c.value > 100) ? 'price too high' : ''")
	require.NoError(t, err)

	assert.Empty(t, validate([]search.Matcher{{Source: "price", Value: 50}}))
	assert.Equal(t, "price too high", validate([]search.Matcher{{Source: "price", Value: 500}}))
}

func TestCompileValidatorRejectsNonString(t *testing.T) {
	e := newEvaluator(t)
	_, err := e.CompileValidator("size(clauses) > 2")
	require.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	e := newEvaluator(t)
	tests := []struct {
		name string
		expr string
		vars map[string]any
		want any
	}{
		{"text", "text + '!'", map[string]any{TextVar: "hi"}, "hi!"},
		{"default text", "size(text)", nil, int64(0)},
		{"list", "[1, 2].map(x, x * 2)", nil, []any{int64(2), int64(4)}},
		{"map", "{'a': 1}", nil, map[string]any{"a": int64(1)}},
		{"math", "math.greatest(1, 5, 3)", nil, int64(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(tt.expr, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClausesStringifiesStructuredValues(t *testing.T) {
	type ref struct{ ID int }
	out := Clauses([]search.Matcher{{Key: "k", Value: ref{ID: 7}}, {Key: "n"}})
	require.Len(t, out, 2)
	assert.Equal(t, "{7}", out[0].(map[string]any)["value"])
	assert.Equal(t, "", out[1].(map[string]any)["value"])
}

func TestToGo(t *testing.T) {
	assert.Nil(t, ToGo(nil))
	assert.Equal(t, true, ToGo(types.True))
	assert.Equal(t, 1.5, ToGo(types.Double(1.5)))
	assert.Equal(t, uint64(3), ToGo(types.Uint(3)))
}
