package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTextFreeTextPolicies(t *testing.T) {
	tests := []struct {
		name   string
		action FreeTextAction
		allow  bool
		want   []string
	}{
		{name: "individual", action: FreeTextIndividual, allow: true, want: []string{"x", "apple", "y"}},
		{name: "combined", action: FreeTextCombined, allow: true, want: []string{"x y", "apple"}},
		{name: "original", action: FreeTextOriginal, allow: true, want: []string{"x apple y", "apple"}},
		{name: "discard", action: FreeTextDiscard, allow: true, want: []string{"apple"}},
		{name: "individual without typed free text", action: FreeTextIndividual, want: []string{"x", "apple", "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(WithFreeText(tt.allow), WithPasteFreeTextAction(tt.action))
			got := ParseText(context.Background(), "x apple y", cfg, nil)
			texts := make([]string, len(got))
			for i, m := range got {
				texts[i] = m.Text
			}
			assert.Equal(t, tt.want, texts)
		})
	}
}

func TestParseTextDefaultKeepsUnmatchedTokens(t *testing.T) {
	got := ParseText(context.Background(), "apple zzz", testConfig(), nil)
	require.Len(t, got, 2)
	assert.Equal(t, "book", got[0].Source)
	assert.Equal(t, FreeTextSource, got[1].Source)
	assert.Equal(t, "zzz", got[1].Text)
}

func TestParseTextOriginalWhenEverythingMatches(t *testing.T) {
	cfg := testConfig(WithPasteFreeTextAction(FreeTextOriginal))
	got := ParseText(context.Background(), "apple banana", cfg, nil)
	require.Len(t, got, 3)
	assert.Equal(t, FreeTextSource, got[0].Source)
	assert.Equal(t, "apple banana", got[0].Text)
}

func TestParseTextFullyUnmatchedDiscard(t *testing.T) {
	cfg := testConfig(WithFreeText(true), WithPasteFreeTextAction(FreeTextDiscard))
	assert.Empty(t, ParseText(context.Background(), "nothing here", cfg, nil))
}

func TestParseTextOperatorsAndComparisons(t *testing.T) {
	cfg := testConfig(WithFreeText(true))
	got := ParseText(context.Background(), "apple or ! banana cherry >= 42", cfg, nil)
	require.Len(t, got, 4)

	assert.Equal(t, "book", got[0].Source)
	assert.Equal(t, OperatorAnd, got[0].Operator)
	assert.Equal(t, "=", got[0].Comparison)

	assert.Equal(t, "banana", got[1].Text)
	assert.Equal(t, OperatorOr, got[1].Operator)
	assert.Equal(t, "!", got[1].Comparison)

	assert.Equal(t, FreeTextSource, got[2].Source)
	assert.Equal(t, "cherry", got[2].Text)
	assert.Empty(t, got[2].Operator)

	assert.Equal(t, "price", got[3].Source)
	assert.Equal(t, ">=", got[3].Comparison)
	assert.Equal(t, 42, got[3].Value)
}

func TestParseTextAttachedComparison(t *testing.T) {
	got := ParseText(context.Background(), "!apple", testConfig(), nil)
	require.Len(t, got, 1)
	assert.Equal(t, "!", got[0].Comparison)
	assert.Equal(t, "apple", got[0].Text)
}

func TestParseTextBrackets(t *testing.T) {
	got := ParseText(context.Background(), "( apple or banana )", testConfig(), nil)
	require.Len(t, got, 4)
	assert.Equal(t, OpenBracket, got[0].Comparison)
	assert.Equal(t, OperatorOr, got[2].Operator)
	assert.Equal(t, CloseBracket, got[3].Comparison)
	assert.Empty(t, MismatchedBrackets(got))

	simple := testConfig(WithOperators(OperatorsSimple))
	got = ParseText(context.Background(), "( apple )", simple, nil)
	require.Len(t, got, 3, "brackets are plain text in simple mode")
	assert.Equal(t, FreeTextSource, got[0].Source)
	assert.Equal(t, OpenBracket, got[0].Text)
	assert.Equal(t, "apple", got[1].Text)
}

func TestParseTextPrecedence(t *testing.T) {
	field := func(name string, precedence int) Field {
		return Field{
			Name:        name,
			Comparisons: DefaultComparisons,
			Precedence:  precedence,
			Definitions: []Definition{&Lookup{Items: []SourceItem{"apple"}, MatchOnPaste: true}},
		}
	}
	cfg := NewConfig([]Field{field("fruit", 1), field("word", 3)})
	got := ParseText(context.Background(), "apple", cfg, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "word", got[0].Source)

	cfg = NewConfig([]Field{field("first", 0), field("second", 0)})
	got = ParseText(context.Background(), "apple", cfg, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Source, "ties go to the first declared field")
}

func TestParseTextRequiresPasteFlag(t *testing.T) {
	cfg := NewConfig([]Field{{
		Name:        "book",
		Comparisons: DefaultComparisons,
		Definitions: []Definition{&Lookup{Items: []SourceItem{"apple"}}},
	}}, WithPasteFreeTextAction(FreeTextDiscard))
	assert.Empty(t, ParseText(context.Background(), "apple", cfg, nil))
}

func TestParseTextHonoursSearchStartLength(t *testing.T) {
	var asked []string
	remote := &Lookup{
		Resolve:           func(context.Context, string, string, []Matcher) ([]SourceItem, error) { return nil, nil },
		SearchStartLength: 3,
		PasteMatch: func(_ context.Context, text string) (SourceItem, bool, error) {
			asked = append(asked, text)
			return text, true, nil
		},
	}
	local := &Lookup{Items: []SourceItem{"ab", "abc"}, MatchOnPaste: true, SearchStartLength: 3}
	cfg := NewConfig([]Field{
		{Name: "local", Comparisons: DefaultComparisons, Precedence: 1, Definitions: []Definition{local}},
		{Name: "remote", Comparisons: DefaultComparisons, Definitions: []Definition{remote}},
	}, WithPasteFreeTextAction(FreeTextDiscard))

	got := ParseText(context.Background(), "ab", cfg, nil)
	assert.Empty(t, got)
	assert.Empty(t, asked)

	got = ParseText(context.Background(), "abc", cfg, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "local", got[0].Source)
	assert.Equal(t, []string{"abc"}, asked)
}

func TestParseTextFunctionScope(t *testing.T) {
	secret := Field{
		Name:        "secret",
		Comparisons: DefaultComparisons,
		Precedence:  9,
		Functional:  true,
		Definitions: []Definition{&Lookup{Items: []SourceItem{"apple"}, MatchOnPaste: true}},
	}
	fn := Function{Name: "Trade", RequiredFields: []string{"secret"}}
	cfg := NewConfig([]Field{bookField(), secret}, WithFunctions(fn))

	got := ParseText(context.Background(), "apple", cfg, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "book", got[0].Source)

	got = ParseText(context.Background(), "apple", cfg, &fn)
	require.Len(t, got, 1)
	assert.Equal(t, "secret", got[0].Source)
}

func asyncPasteConfig(release <-chan struct{}, timeout time.Duration) Config {
	fast := &Lookup{
		Resolve: func(context.Context, string, string, []Matcher) ([]SourceItem, error) { return nil, nil },
		PasteMatch: func(_ context.Context, text string) (SourceItem, bool, error) {
			return text, text == "alpha", nil
		},
	}
	fields := []Field{{Name: "fast", Comparisons: DefaultComparisons, Definitions: []Definition{fast}}}
	if release != nil {
		slow := &Lookup{
			Resolve: func(context.Context, string, string, []Matcher) ([]SourceItem, error) { return nil, nil },
			PasteMatch: func(_ context.Context, text string) (SourceItem, bool, error) {
				<-release
				return text, true, nil
			},
		}
		fields = append(fields, Field{Name: "slow", Comparisons: DefaultComparisons, Precedence: 5, Definitions: []Definition{slow}})
	}
	return NewConfig(fields, WithFreeText(true), WithPasteMatchTimeout(timeout))
}

func TestParseTextAsyncCompletes(t *testing.T) {
	cfg := asyncPasteConfig(nil, time.Second)
	got := ParseText(context.Background(), "alpha beta", cfg, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "fast", got[0].Source)
	assert.Equal(t, FreeTextSource, got[1].Source)
}

func TestParseTextAsyncTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	cfg := asyncPasteConfig(release, 50*time.Millisecond)
	start := time.Now()
	got := ParseText(context.Background(), "alpha beta", cfg, nil)
	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, got, 2)
	assert.Equal(t, "fast", got[0].Source, "matches settled before the timeout are kept")
	assert.Equal(t, FreeTextSource, got[1].Source)
}

func TestPasteRaceFinalizesOnce(t *testing.T) {
	race := &pasteRace{matches: make(map[int][]pasteCandidate)}
	race.record(0, pasteCandidate{index: 1})

	got, ok := race.finalize(raceCancel)
	require.True(t, ok)
	assert.Len(t, got[0], 1)

	race.record(0, pasteCandidate{index: 2})
	_, ok = race.finalize(raceDone)
	assert.False(t, ok)
	assert.Len(t, race.matches[0], 1, "late matches are ignored")
}

func TestSplitFunction(t *testing.T) {
	fn := Function{Name: "Trade"}
	cfg := testConfig(WithFunctions(fn))

	got, rest := SplitFunction("trade apple", cfg, nil)
	require.NotNil(t, got)
	assert.Equal(t, "Trade", got.Name)
	assert.Equal(t, "apple", rest)

	got, rest = SplitFunction("apple", cfg, nil)
	assert.Nil(t, got)
	assert.Equal(t, "apple", rest)

	got, rest = SplitFunction("trade apple", cfg, &fn)
	assert.Same(t, &fn, got)
	assert.Equal(t, "trade apple", rest)
}

func TestControllerPaste(t *testing.T) {
	cfg := testConfig(WithFunctions(Function{Name: "Trade", RequiredFields: []string{"book"}}))
	var notified []Matcher
	c := NewController(cfg, WithListener(func(ms []Matcher) { notified = ms }))

	added := c.Paste(context.Background(), "Trade apple banana")
	assert.Equal(t, "Trade", c.FunctionName())
	require.Len(t, added, 2)
	assert.Equal(t, keys(added), keys(c.Matchers()))
	assert.Equal(t, keys(added), keys(notified))
}
