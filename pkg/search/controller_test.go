package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listConfig() Config {
	return NewConfig([]Field{{
		Name:           "list",
		Comparisons:    DefaultComparisons,
		SelectionLimit: 2,
		Definitions:    []Definition{&Lookup{Items: []SourceItem{"asdas", "assda", "loadsp"}}},
	}})
}

// typeAndCommit drives the trailing editor the way a user would.
func typeAndCommit(c *Controller, text string) *Editor {
	ed := c.EditorFor(-1)
	ed.SetText(text)
	_, intents := ed.HandleKey(enter)
	for _, in := range intents {
		c.Apply(nil, in)
	}
	return ed
}

func TestSelectionLimitEndToEnd(t *testing.T) {
	c := NewController(listConfig())

	typeAndCommit(c, "a")
	typeAndCommit(c, "a")
	require.Len(t, c.Matchers(), 2)

	ed := typeAndCommit(c, "a")
	assert.Len(t, c.Matchers(), 2)
	assert.Equal(t, "Datasource (list) is limited to 2 items.", ed.Error())
}

func TestValidateSelectionLimit(t *testing.T) {
	c := NewController(listConfig(), WithMatchers(clause("1", "list", "asdas"), clause("2", "list", "assda")))
	assert.Equal(t, "Datasource (list) is limited to 2 items.", c.Validate(clause("3", "list", "loadsp")))
	assert.Empty(t, c.Validate(clause("2", "list", "loadsp")), "editing an existing clause does not count it twice")
	assert.Empty(t, c.Validate(bracketClause("4", OpenBracket)), "brackets are exempt")
}

func TestValidateAgGridOr(t *testing.T) {
	cfg := testConfig(WithOperators(OperatorsAgGrid))
	c := NewController(cfg, WithMatchers(clause("1", "book", "apple")))

	m := clause("2", "price", "10")
	m.Operator = OperatorOr
	assert.Equal(t, "When using AgGrid style operators, or can only be used for the same field", c.Validate(m))

	m.Source = "book"
	assert.Empty(t, c.Validate(m))

	first := clause("1", "price", "10")
	first.Operator = OperatorOr
	assert.Empty(t, c.Validate(first), "the first clause has no predecessor")
}

func TestExternalValidator(t *testing.T) {
	c := NewController(testConfig(), WithValidator(func(m Matcher) string {
		if m.Text == "banana" {
			return "no bananas"
		}
		return ""
	}))
	assert.Equal(t, "no bananas", c.Validate(clause("1", "book", "banana")))
	assert.Empty(t, c.Validate(clause("1", "book", "apple")))
}

func threeClauses(opts ...ControllerOption) *Controller {
	opts = append([]ControllerOption{WithMatchers(clause("a", "book", "apple"), clause("b", "book", "banana"), clause("c", "book", "apricot"))}, opts...)
	return NewController(testConfig(), opts...)
}

func TestShiftArrowNavigation(t *testing.T) {
	c := threeClauses()
	require.True(t, c.HandleKey(Key{Code: KeyLeft, Shift: true}))
	assert.Equal(t, 2, c.Active())

	target := c.Matchers()[2]
	ed := c.EditorFor(c.Active())
	ed.SetCaret(0)
	handled, intents := ed.HandleKey(Key{Code: KeyLeft})
	require.True(t, handled)
	for _, in := range intents {
		c.Apply(&target, in)
	}
	assert.Equal(t, 1, c.Active())

	c.HandleKey(Key{Code: KeyLeft, Shift: true})
	c.HandleKey(Key{Code: KeyLeft, Shift: true})
	assert.Equal(t, -1, c.Active(), "stepping past the start clears the selection")

	c.SelectMatcher(2)
	c.HandleKey(Key{Code: KeyRight, Shift: true})
	assert.Equal(t, -1, c.Active(), "stepping past the end returns to the trailing editor")
}

func TestShiftRightWithoutSelection(t *testing.T) {
	c := threeClauses()
	require.True(t, c.HandleKey(Key{Code: KeyRight, Shift: true}))
	assert.Equal(t, 0, c.Active())

	empty := NewController(testConfig())
	assert.False(t, empty.HandleKey(Key{Code: KeyRight, Shift: true}))
	assert.Equal(t, -1, empty.Active())
}

func TestBackspaceAfterOpenBracket(t *testing.T) {
	c := NewController(testConfig(), WithMatchers(clause("a", "book", "apple"), bracketClause("b", OpenBracket)))
	ed := c.EditorFor(-1)
	handled, intents := ed.HandleKey(backspace)
	require.True(t, handled)
	require.Equal(t, []Intent{NavigatePrevious(true)}, intents)
	for _, in := range intents {
		c.Apply(nil, in)
	}
	assert.Equal(t, 1, c.Active())
	assert.Len(t, c.Matchers(), 2)
}

func TestCtrlArrowReorders(t *testing.T) {
	tests := []struct {
		name       string
		active     int
		key        Key
		want       []string
		wantActive int
	}{
		{name: "left", active: 2, key: Key{Code: KeyLeft, Ctrl: true}, want: []string{"a", "c", "b"}, wantActive: 1},
		{name: "right wraps", active: 2, key: Key{Code: KeyRight, Ctrl: true}, want: []string{"c", "b", "a"}, wantActive: 0},
		{name: "left wraps", active: 0, key: Key{Code: KeyLeft, Ctrl: true}, want: []string{"c", "b", "a"}, wantActive: 2},
		{name: "right", active: 0, key: Key{Code: KeyRight, Ctrl: true}, want: []string{"b", "a", "c"}, wantActive: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := threeClauses()
			c.SelectMatcher(tt.active)
			require.True(t, c.HandleKey(tt.key))
			assert.Equal(t, tt.want, keys(c.Matchers()))
			assert.Equal(t, tt.wantActive, c.Active())
		})
	}
}

func TestCtrlArrowWithoutActive(t *testing.T) {
	c := threeClauses()
	assert.False(t, c.HandleKey(Key{Code: KeyLeft, Ctrl: true}))
	assert.Equal(t, []string{"a", "b", "c"}, keys(c.Matchers()))
}

func TestInsertMatcherShiftsActive(t *testing.T) {
	c := threeClauses()
	c.SelectMatcher(1)
	before := c.Matchers()[0]
	c.InsertMatcher(clause("x", "book", "x"), &before)
	assert.Equal(t, []string{"x", "a", "b", "c"}, keys(c.Matchers()))
	assert.Equal(t, 2, c.Active(), "active clause is still b")

	c.InsertMatcher(clause("y", "book", "y"), nil)
	assert.Equal(t, "y", c.Matchers()[4].Key)
	assert.Equal(t, 2, c.Active())
}

func TestDeleteMatcher(t *testing.T) {
	c := threeClauses()
	c.SelectMatcher(2)
	c.DeleteMatcher(c.Matchers()[2], false)
	assert.Equal(t, -1, c.Active(), "active index out of bounds clears edit state")

	c.SelectMatcher(0)
	c.DeleteMatcher(c.Matchers()[1], false)
	assert.Equal(t, 0, c.Active())
	c.DeleteMatcher(c.Matchers()[0], true)
	assert.Equal(t, -1, c.Active())
	assert.Empty(t, c.Matchers())
}

func TestUpdateMatcher(t *testing.T) {
	var notified [][]Matcher
	c := threeClauses(WithListener(func(ms []Matcher) { notified = append(notified, ms) }))
	c.SelectMatcher(1)
	c.MatcherChanging("b")
	require.Len(t, notified, 1)
	assert.True(t, notified[0][1].Changing)
	assert.False(t, c.Matchers()[1].Changing, "stored clause is untouched")

	updated := clause("b", "book", "cherry")
	c.UpdateMatcher(updated)
	assert.Equal(t, "cherry", c.Matchers()[1].Text)
	assert.Equal(t, -1, c.Active())
	assert.False(t, notified[len(notified)-1][1].Changing)
}

func TestApplyNavigatePreviousDeleting(t *testing.T) {
	c := threeClauses()
	c.SelectMatcher(1)
	target := c.Matchers()[1]
	c.Apply(&target, NavigatePrevious(true))
	assert.Equal(t, []string{"a", "c"}, keys(c.Matchers()))
	assert.Equal(t, 0, c.Active())

	c.ClearActive()
	c.Apply(nil, NavigatePrevious(true))
	assert.Equal(t, 1, c.Active(), "trailing editor moves to the last clause")
}

func TestApplyCommitAndNavigate(t *testing.T) {
	c := NewController(testConfig())
	c.Apply(nil, Commit(clause("a", "book", "apple")))
	c.Apply(nil, Commit(clause("b", "book", "banana")))
	assert.Equal(t, []string{"a", "b"}, keys(c.Matchers()))

	c.SelectMatcher(0)
	c.Apply(nil, NavigateNext())
	assert.Equal(t, 1, c.Active())
	c.Apply(nil, NavigateNext())
	assert.Equal(t, -1, c.Active())

	target := c.Matchers()[0]
	c.SelectMatcher(0)
	c.Apply(&target, Cancel())
	assert.Equal(t, -1, c.Active())
}

func TestBracketsRevalidated(t *testing.T) {
	c := NewController(testConfig())
	c.AddMatcher(bracketClause("1", OpenBracket))
	assert.Equal(t, []int{0}, c.Mismatched())
	c.AddMatcher(clause("2", "book", "apple"))
	c.AddMatcher(bracketClause("3", CloseBracket))
	assert.Empty(t, c.Mismatched())

	c.DeleteMatcher(c.Matchers()[0], false)
	assert.Equal(t, []int{1}, c.Mismatched())
	assert.True(t, c.IsMismatched(1))
}

func TestDeleteShortcuts(t *testing.T) {
	cfg := testConfig(WithFunctions(Function{Name: "Trade", RequiredFields: []string{"book"}}))
	c := NewController(cfg, WithMatchers(clause("a", "book", "apple")))
	require.True(t, c.SetFunction("trade"))

	c.HandleKey(Key{Code: KeyBackspace, Shift: true})
	assert.Empty(t, c.Matchers())
	assert.Equal(t, "Trade", c.FunctionName())

	c.HandleKey(Key{Code: KeyBackspace, Shift: true})
	assert.Nil(t, c.Function(), "empty list deletes the function")

	c.AddMatcher(clause("b", "book", "banana"))
	c.SetFunction("Trade")
	c.HandleKey(Key{Code: KeyBackspace, Ctrl: true})
	assert.Empty(t, c.Matchers())
	assert.Nil(t, c.Function())
}

func TestHomeEndEscape(t *testing.T) {
	c := threeClauses()
	assert.True(t, c.HandleKey(Key{Code: KeyHome}))
	assert.Equal(t, 0, c.Active())
	assert.True(t, c.HandleKey(Key{Code: KeyEnd}))
	assert.Equal(t, -1, c.Active())
	c.SelectMatcher(1)
	assert.True(t, c.HandleKey(Key{Code: KeyEscape}))
	assert.Equal(t, -1, c.Active())
}

func TestCompleteRequiresFields(t *testing.T) {
	var (
		gotErr      ValidationError
		gotMatchers []Matcher
		gotFunction string
	)
	cfg := testConfig(WithFunctions(Function{Name: "Trade", RequiredFields: []string{"book", "price"}}))
	c := NewController(cfg,
		WithOnCompleteError(func(ve ValidationError) { gotErr = ve }),
		WithOnComplete(func(ms []Matcher, fn string) { gotMatchers, gotFunction = ms, fn }),
	)
	c.SetFunction("Trade")
	c.AddMatcher(clause("a", "book", "apple"))

	ve, ok := c.Complete()
	assert.False(t, ok)
	assert.Equal(t, []string{"price"}, ve.Missing)
	assert.Equal(t, "mandatory fields are missing (price)", ve.Message)
	assert.Equal(t, ve, gotErr)
	assert.Equal(t, ve.Message, c.Error())

	c.AddMatcher(clause("b", "price", "10"))
	c.MatcherChanging("b")
	_, ok = c.Complete()
	assert.False(t, ok, "changing clauses do not satisfy required fields")

	c.ClearActive()
	require.True(t, c.HandleKey(enter))
	assert.Equal(t, []string{"a", "b"}, keys(gotMatchers))
	assert.Equal(t, "Trade", gotFunction)
	assert.Empty(t, c.Matchers())
	assert.Nil(t, c.Function())
}

func TestCompleteRunsFunctionValidator(t *testing.T) {
	cfg := testConfig(WithFunctions(Function{Name: "Trade", Validate: func(ms []Matcher) string {
		if len(ms) > 1 {
			return "too many clauses"
		}
		return ""
	}}))
	c := NewController(cfg, WithMatchers(clause("a", "book", "apple"), clause("b", "book", "banana")))
	c.SetFunction("Trade")
	ve, ok := c.Complete()
	assert.False(t, ok)
	assert.Equal(t, "Trade: too many clauses", ve.Error())
}

func TestEditorContext(t *testing.T) {
	cfg := testConfig(WithFreeText(true), WithFunctions(Function{Name: "Trade"}))
	c := NewController(cfg)
	ec := c.EditorContext(nil)
	assert.True(t, ec.First)
	assert.True(t, ec.AllowFunctions)
	assert.True(t, ec.AllowFreeText)

	c.AddMatcher(bracketClause("1", OpenBracket))
	ec = c.EditorContext(nil)
	assert.True(t, ec.First, "a clause after ( starts a group")
	assert.False(t, ec.AllowFunctions)

	c.AddMatcher(clause("2", "book", "apple"))
	ec = c.EditorContext(nil)
	assert.False(t, ec.First)
	m := c.Matchers()[1]
	assert.True(t, c.EditorContext(&m).First)
}
