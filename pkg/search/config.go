package search

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// OperatorMode controls how much boolean structure the search accepts.
type OperatorMode string

const (
	// OperatorsSimple allows "and" only and no brackets.
	OperatorsSimple OperatorMode = "Simple"
	// OperatorsAgGrid allows and/or, where "or" must stay on the preceding clause's field.
	OperatorsAgGrid OperatorMode = "AgGrid"
	// OperatorsComplex allows and/or and brackets without constraint.
	OperatorsComplex OperatorMode = "Complex"
)

// ParseOperatorMode maps a case-insensitive name to an OperatorMode.
func ParseOperatorMode(s string) (OperatorMode, error) {
	for _, m := range []OperatorMode{OperatorsSimple, OperatorsAgGrid, OperatorsComplex} {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown operator mode %q (want Simple, AgGrid or Complex)", s)
}

// CategoryPosition says where a chip shows its field name.
type CategoryPosition string

const (
	CategoryTop  CategoryPosition = "top"
	CategoryLeft CategoryPosition = "left"
)

// ComparisonItem describes one comparison symbol.
type ComparisonItem struct {
	Symbol      string `json:"symbol" yaml:"symbol"`
	Description string `json:"description" yaml:"description"`
}

const (
	DefaultPromiseDelay      = time.Millisecond
	DefaultPasteMatchTimeout = 500 * time.Millisecond
	// DelayedThreshold is how long a lookup may take before its options are flagged Delayed.
	DelayedThreshold = 500 * time.Millisecond
	// DelayedDisplay is how long the Delayed flag stays on.
	DelayedDisplay = 400 * time.Millisecond
)

// Config is the resolved, read-only configuration of one search bar. Build it
// with NewConfig and derive variants with With; never mutate a Config in place.
type Config struct {
	Fields                 []Field
	Functions              []Function
	DefaultComparison      string
	And                    string
	Or                     string
	Comparisons            []string
	ComparisonDescriptions []ComparisonItem
	DefaultItemLimit       int
	Operators              OperatorMode
	MaxMatcherWidth        int
	MaxDropDownHeight      int
	SearchStartLength      int
	PromiseDelay           time.Duration
	HideHelp               bool
	ShowWhenSearching      bool
	ShowCategory           bool
	CategoryPosition       CategoryPosition
	HideToolTip            bool
	AllowFreeText          bool
	PasteFreeTextAction    FreeTextAction
	PasteMatchTimeout      time.Duration

	descriptions bool
}

// ConfigOption adjusts a Config under construction.
type ConfigOption func(*Config)

// NewConfig resolves the configuration for fields. The comparison alphabet is
// the union of the fields' comparisons.
func NewConfig(fields []Field, opts ...ConfigOption) Config {
	cfg := Config{
		Fields:              slices.Clone(fields),
		DefaultComparison:   "=",
		And:                 "&",
		Or:                  "|",
		DefaultItemLimit:    DefaultItemLimit,
		Operators:           OperatorsComplex,
		PromiseDelay:        DefaultPromiseDelay,
		CategoryPosition:    CategoryTop,
		PasteFreeTextAction: FreeTextIndividual,
		PasteMatchTimeout:   DefaultPasteMatchTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.Comparisons = comparisonsFromFields(cfg.Fields)
	defaultTitles(cfg.Fields)
	if !cfg.descriptions {
		cfg.ComparisonDescriptions = make([]ComparisonItem, 0, len(cfg.Comparisons))
		for _, c := range cfg.Comparisons {
			cfg.ComparisonDescriptions = append(cfg.ComparisonDescriptions, ComparisonItem{Symbol: c})
		}
	}
	return cfg
}

// With returns a copy of c with opts applied.
func (c Config) With(opts ...ConfigOption) Config {
	next := c
	next.Fields = slices.Clone(c.Fields)
	next.Functions = slices.Clone(c.Functions)
	next.ComparisonDescriptions = slices.Clone(c.ComparisonDescriptions)
	for _, opt := range opts {
		opt(&next)
	}
	next.Comparisons = comparisonsFromFields(next.Fields)
	defaultTitles(next.Fields)
	return next
}

// defaultTitles labels untitled fields with their name.
func defaultTitles(fields []Field) {
	for i := range fields {
		if fields[i].Title == "" {
			fields[i].Title = fields[i].Name
		}
	}
}

func comparisonsFromFields(fields []Field) []string {
	var out []string
	for _, f := range fields {
		for _, c := range f.Comparisons {
			if !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	return out
}

func WithFunctions(functions ...Function) ConfigOption {
	return func(c *Config) { c.Functions = slices.Clone(functions) }
}

func WithDefaultComparison(symbol string) ConfigOption {
	return func(c *Config) { c.DefaultComparison = symbol }
}

// WithSymbols sets the and/or shorthand symbols.
func WithSymbols(and, or string) ConfigOption {
	return func(c *Config) {
		if and != "" {
			c.And = and
		}
		if or != "" {
			c.Or = or
		}
	}
}

func WithComparisonDescriptions(items ...ComparisonItem) ConfigOption {
	return func(c *Config) {
		c.ComparisonDescriptions = slices.Clone(items)
		c.descriptions = true
	}
}

func WithItemLimit(limit int) ConfigOption {
	return func(c *Config) {
		if limit > 0 {
			c.DefaultItemLimit = limit
		}
	}
}

func WithOperators(mode OperatorMode) ConfigOption {
	return func(c *Config) { c.Operators = mode }
}

func WithMaxMatcherWidth(width int) ConfigOption {
	return func(c *Config) { c.MaxMatcherWidth = width }
}

func WithMaxDropDownHeight(height int) ConfigOption {
	return func(c *Config) { c.MaxDropDownHeight = height }
}

func WithSearchStartLength(n int) ConfigOption {
	return func(c *Config) { c.SearchStartLength = n }
}

// WithPromiseDelay sets the debounce delay applied before asynchronous lookups fire.
func WithPromiseDelay(d time.Duration) ConfigOption {
	return func(c *Config) { c.PromiseDelay = d }
}

func WithHideHelp(hide bool) ConfigOption {
	return func(c *Config) { c.HideHelp = hide }
}

// WithShowWhenSearching adds placeholder categories while asynchronous lookups run.
func WithShowWhenSearching(show bool) ConfigOption {
	return func(c *Config) { c.ShowWhenSearching = show }
}

func WithCategories(show bool, position CategoryPosition) ConfigOption {
	return func(c *Config) {
		c.ShowCategory = show
		if position != "" {
			c.CategoryPosition = position
		}
	}
}

func WithHideToolTip(hide bool) ConfigOption {
	return func(c *Config) { c.HideToolTip = hide }
}

func WithFreeText(allow bool) ConfigOption {
	return func(c *Config) { c.AllowFreeText = allow }
}

func WithPasteFreeTextAction(action FreeTextAction) ConfigOption {
	return func(c *Config) {
		if action != "" {
			c.PasteFreeTextAction = action
		}
	}
}

func WithPasteMatchTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		if d > 0 {
			c.PasteMatchTimeout = d
		}
	}
}

// Field returns the field called name.
func (c Config) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// fieldByTitle returns the field whose category label is title and its declaration index.
func (c Config) fieldByTitle(title string) (Field, int, bool) {
	for i, f := range c.Fields {
		if f.Title == title {
			return f, i, true
		}
	}
	return Field{}, -1, false
}

// Function returns the function called name, ignoring case.
func (c Config) Function(name string) (*Function, bool) {
	for i := range c.Functions {
		if strings.EqualFold(c.Functions[i].Name, name) {
			fn := c.Functions[i]
			return &fn, true
		}
	}
	return nil, false
}

// IsComparison reports whether s is in the comparison alphabet.
func (c Config) IsComparison(s string) bool {
	return slices.Contains(c.Comparisons, s)
}

// OperatorFor maps an operator word or symbol to "and"/"or".
func (c Config) OperatorFor(token string) (string, bool) {
	switch token {
	case OperatorAnd, c.And:
		return OperatorAnd, true
	case OperatorOr, c.Or:
		return OperatorOr, true
	}
	return "", false
}

// IsOr reports whether op is the "or" word or the configured or symbol.
func (c Config) IsOr(op string) bool {
	return op == OperatorOr || op == c.Or
}

// IsAnd reports whether op is the "and" word or the configured and symbol.
func (c Config) IsAnd(op string) bool {
	return op == OperatorAnd || op == c.And
}

// BracketsAllowed reports whether brackets may be typed under fn.
func (c Config) BracketsAllowed(fn *Function) bool {
	return c.Operators == OperatorsComplex && (fn == nil || !fn.NoBrackets)
}

// OperatorsAllowed reports whether and/or may be typed under fn.
func (c Config) OperatorsAllowed(fn *Function) bool {
	return c.Operators != OperatorsSimple && (fn == nil || !fn.NoAndOr)
}

// FreeTextAllowed reports whether free text may be committed under fn.
func (c Config) FreeTextAllowed(fn *Function) bool {
	return c.AllowFreeText || (fn != nil && fn.AllowFreeText)
}

// Eligible reports whether field f is selectable under fn: unscoped fields when
// no function is active, the function's required and optional fields otherwise.
func Eligible(f Field, fn *Function) bool {
	if fn == nil {
		return !f.Functional
	}
	return fn.Scopes(f.Name)
}

func (c Config) itemLimit(l *Lookup) int {
	if l != nil && l.ItemLimit > 0 {
		return l.ItemLimit
	}
	return c.DefaultItemLimit
}
