// Package search implements the matcher-edit engine behind the smart search bar:
// clause tokenizing and bracket validation, field matching against static,
// expression and asynchronous lookups, the per-clause editor state machine,
// the clause list controller and option navigation.
//
// Nothing in this package draws to a terminal. Hosts (the bubbletea search bar in
// internal/ui, or any other front end) feed keys, text and lookup results in and
// render the state they read back.
package search

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Value is the field-specific value carried by a clause.
type Value = any

// SourceItem is one raw item produced by a lookup: usually a string, or a
// structured object that TextGetter/ValueGetter know how to read.
type SourceItem = any

const (
	// FreeTextSource is the source of clauses that did not match any field.
	FreeTextSource = "Free Text"
	// FunctionSource marks options that select a function rather than a field value.
	FunctionSource = "__function__"
	// FunctionsCategory is the label of the synthetic function category.
	FunctionsCategory = "Functions"

	OpenBracket  = "("
	CloseBracket = ")"

	// VerbatimComparison is the comparison of typed free text clauses.
	VerbatimComparison = `"`

	OperatorAnd = "and"
	OperatorOr  = "or"

	// DefaultItemLimit caps the options shown per category.
	DefaultItemLimit = 10
)

var (
	DefaultComparisons = []string{"=", "!"}
	StringComparisons  = []string{"=", "!", "*", "!*", "<*", ">*"}
	NumberComparisons  = []string{"=", ">", "<", ">=", "<=", "!"}
)

// Matcher is one clause of the search: operator, comparison, field and value.
type Matcher struct {
	Key        string `json:"key" yaml:"key" toml:"key"`
	Operator   string `json:"operator" yaml:"operator" toml:"operator"`
	Comparison string `json:"comparison" yaml:"comparison" toml:"comparison"`
	Source     string `json:"source" yaml:"source" toml:"source"`
	Value      Value  `json:"value" yaml:"value" toml:"value"`
	Text       string `json:"text" yaml:"text" toml:"text"`
	// Changing marks a clause with uncommitted edits. Such clauses are excluded
	// from query evaluation and completion checks.
	Changing bool `json:"changing,omitempty" yaml:"changing,omitempty" toml:"changing,omitempty"`
}

// IsBracket reports whether the clause is a bracket marker.
func (m Matcher) IsBracket() bool {
	return m.Comparison == OpenBracket || m.Comparison == CloseBracket
}

// IsFreeText reports whether the clause holds unmatched text.
func (m Matcher) IsFreeText() bool {
	return m.Source == FreeTextSource
}

// NewKey returns a fresh clause identity.
func NewKey() string {
	return uuid.NewString()
}

// BracketMatcher builds a bracket clause for symbol ("(" or ")").
func BracketMatcher(symbol, operator string) Matcher {
	if symbol == CloseBracket {
		operator = ""
	}
	return Matcher{
		Key:        NewKey(),
		Operator:   operator,
		Comparison: symbol,
	}
}

// FreeTextMatcher builds a clause for text that matched no field.
func FreeTextMatcher(text, comparison string) Matcher {
	return Matcher{
		Key:        NewKey(),
		Comparison: comparison,
		Source:     FreeTextSource,
		Value:      text,
		Text:       text,
	}
}

// Option is one candidate shown in the option list.
type Option struct {
	Source string `json:"source" yaml:"source"`
	Value  Value  `json:"value" yaml:"value"`
	Text   string `json:"text" yaml:"text"`
}

// Label is the text shown for the option in the list.
func (o Option) Label() string {
	return o.Text + " : " + o.Source
}

// CategoryOptions groups the options produced for one field (or the functions).
type CategoryOptions struct {
	Category string
	Options  []Option
	// Pending marks a placeholder for an asynchronous lookup still in flight.
	Pending bool
	// Delayed marks options that arrived after a slow lookup.
	Delayed bool
}

// LookupFunc resolves items for the typed text asynchronously. op is the decoded
// operator ("and", "or" or empty) and matchers are the other clauses of the search.
type LookupFunc func(ctx context.Context, text, op string, matchers []Matcher) ([]SourceItem, error)

// PasteMatchFunc resolves one pasted token to a single item. ok is false when the
// token does not identify an item of the field.
type PasteMatchFunc func(ctx context.Context, text string) (item SourceItem, ok bool, err error)

// Definition is one way a field can produce candidates: a Lookup or an Expression.
type Definition interface {
	definition()
}

// Lookup produces candidates from a static list (Items) or an asynchronous
// resolver (Resolve).
type Lookup struct {
	Items   []SourceItem
	Resolve LookupFunc
	// MatchOnPaste enables exact matching of pasted tokens against Items.
	MatchOnPaste bool
	// PasteMatch resolves pasted tokens for asynchronous lookups.
	PasteMatch        PasteMatchFunc
	TextGetter        func(SourceItem) string
	ValueGetter       func(SourceItem) Value
	IgnoreCase        bool
	ItemLimit         int
	SearchStartLength int
}

func (*Lookup) definition() {}

// Async reports whether the lookup resolves through Resolve.
func (l *Lookup) Async() bool {
	return l.Resolve != nil
}

// TextOf returns the display text of item.
func (l *Lookup) TextOf(item SourceItem) string {
	if _, plain := item.(string); !plain && l.TextGetter != nil && item != nil {
		return l.TextGetter(item)
	}
	return fmt.Sprint(item)
}

// ValueOf returns the value of item.
func (l *Lookup) ValueOf(item SourceItem) Value {
	if _, plain := item.(string); !plain && l.ValueGetter != nil && item != nil {
		return l.ValueGetter(item)
	}
	return fmt.Sprint(item)
}

// Expression produces a single candidate when the whole text matches.
type Expression struct {
	Pattern      *regexp.Regexp
	Match        func(text string) bool
	Value        func(text string) Value
	MatchOnPaste bool
}

func (*Expression) definition() {}

// Matches reports whether text satisfies the pattern or the predicate.
func (e *Expression) Matches(text string) bool {
	if e.Pattern != nil && e.Pattern.MatchString(text) {
		return true
	}
	return e.Match != nil && e.Match(text)
}

// ValueOf extracts the value for text. Without a Value function the text itself is used.
func (e *Expression) ValueOf(text string) Value {
	if e.Value == nil {
		return text
	}
	return e.Value(text)
}

// Field is a named attribute clauses can filter on.
type Field struct {
	Name        string
	Title       string
	Comparisons []string
	// Precedence orders categories; higher sorts earlier, zero appends.
	Precedence int
	// SelectionLimit caps how many clauses may reference the field (0 = unlimited).
	SelectionLimit int
	// Functional fields are only offered inside a function that names them.
	Functional      bool
	HideOnShortcut  bool
	DefaultOperator string
	Definitions     []Definition
}

// Allows reports whether comparison is valid for the field.
func (f Field) Allows(comparison string) bool {
	return slices.Contains(f.Comparisons, comparison)
}

// FreeTextAction decides what happens to pasted tokens that matched no field.
type FreeTextAction string

const (
	// FreeTextIndividual turns each unmatched token into its own clause.
	FreeTextIndividual FreeTextAction = "Individual"
	// FreeTextCombined joins the unmatched tokens into one clause.
	FreeTextCombined FreeTextAction = "Combined"
	// FreeTextOriginal keeps the whole pasted text as one clause.
	FreeTextOriginal FreeTextAction = "Original"
	// FreeTextDiscard drops unmatched tokens.
	FreeTextDiscard FreeTextAction = "Discard"
)

// ParseFreeTextAction maps a case-insensitive name to a FreeTextAction.
func ParseFreeTextAction(s string) (FreeTextAction, error) {
	for _, a := range []FreeTextAction{FreeTextIndividual, FreeTextCombined, FreeTextOriginal, FreeTextDiscard} {
		if strings.EqualFold(string(a), s) {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown free text action %q", s)
}

// Function is a named macro scoping the selectable fields and gating completion
// on required fields.
type Function struct {
	Name                string
	RequiredFields      []string
	OptionalFields      []string
	NoAndOr             bool
	NoBrackets          bool
	AllowFreeText       bool
	PasteFreeTextAction FreeTextAction
	// Validate checks the full clause list before completion. A non-empty result
	// rejects completion with that message.
	Validate func(matchers []Matcher) string
}

// Scopes reports whether the function makes field selectable.
func (f *Function) Scopes(field string) bool {
	return slices.Contains(f.RequiredFields, field) || slices.Contains(f.OptionalFields, field)
}

// Selection is a read-only snapshot of the clause list and the active function.
type Selection struct {
	Matchers       []Matcher
	ActiveFunction *Function
}

// Without returns the selection's clauses minus the one with key.
func (s Selection) Without(key string) []Matcher {
	out := make([]Matcher, 0, len(s.Matchers))
	for _, m := range s.Matchers {
		if m.Key != key {
			out = append(out, m)
		}
	}
	return out
}

// ValidationError describes a rejected completion.
type ValidationError struct {
	Function string
	Message  string
	Missing  []string
}

func (e ValidationError) Error() string {
	if e.Function == "" {
		return e.Message
	}
	return e.Function + ": " + e.Message
}

func sameValue(a, b Value) bool {
	return reflect.DeepEqual(a, b)
}
