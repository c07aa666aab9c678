package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-multierror"

	"github.com/oakwood-commons/smartsearch/internal/cel"
	"github.com/oakwood-commons/smartsearch/internal/remote"
	"github.com/oakwood-commons/smartsearch/pkg/loader"
	"github.com/oakwood-commons/smartsearch/pkg/search"
)

// ErrNoFields is returned for definitions without any field.
var ErrNoFields = errors.New("no fields defined")

// Preset maps a comparison preset name to its symbols.
func Preset(name string) ([]string, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return slices.Clone(search.DefaultComparisons), nil
	case "string":
		return slices.Clone(search.StringComparisons), nil
	case "number":
		return slices.Clone(search.NumberComparisons), nil
	}
	return nil, fmt.Errorf("unknown comparison preset %q (want default, string or number)", name)
}

// Load decodes a definitions file in YAML, JSON or TOML.
func Load(path string) (*Definitions, error) {
	var defs Definitions
	if err := loader.DecodeFile(path, &defs); err != nil {
		return nil, fmt.Errorf("loading definitions %s: %w", path, err)
	}
	defs.BaseDir = filepath.Dir(path)
	return &defs, nil
}

// Parse decodes definitions from text in YAML, JSON or TOML. Relative
// items_file paths resolve against baseDir.
func Parse(text, baseDir string) (*Definitions, error) {
	doc, err := loader.LoadRoot(text)
	if err != nil {
		return nil, fmt.Errorf("parsing definitions: %w", err)
	}
	var defs Definitions
	if err := loader.Decode(doc, &defs); err != nil {
		return nil, fmt.Errorf("parsing definitions: %w", err)
	}
	defs.BaseDir = baseDir
	return &defs, nil
}

// Defaults returns the options the engine applies when a file leaves them out.
func Defaults() Options {
	delay := int(search.DefaultPromiseDelay / time.Millisecond)
	return Options{
		And:                 "&",
		Or:                  "|",
		DefaultComparison:   "=",
		Operators:           string(search.OperatorsComplex),
		ItemLimit:           search.DefaultItemLimit,
		PromiseDelayMS:      &delay,
		PasteMatchTimeoutMS: int(search.DefaultPasteMatchTimeout / time.Millisecond),
		PasteFreeTextAction: string(search.FreeTextIndividual),
		CategoryPosition:    string(search.CategoryTop),
	}
}

// WithDefaults returns a copy of d whose unset options carry the engine defaults.
func (d Definitions) WithDefaults() Definitions {
	def := Defaults()
	o := &d.Options
	fill := func(v *string, dv string) {
		if *v == "" {
			*v = dv
		}
	}
	fill(&o.And, def.And)
	fill(&o.Or, def.Or)
	fill(&o.DefaultComparison, def.DefaultComparison)
	fill(&o.Operators, def.Operators)
	fill(&o.PasteFreeTextAction, def.PasteFreeTextAction)
	fill(&o.CategoryPosition, def.CategoryPosition)
	if o.ItemLimit == 0 {
		o.ItemLimit = def.ItemLimit
	}
	if o.PromiseDelayMS == nil {
		o.PromiseDelayMS = def.PromiseDelayMS
	}
	if o.PasteMatchTimeoutMS == 0 {
		o.PasteMatchTimeoutMS = def.PasteMatchTimeoutMS
	}
	d.Fields = slices.Clone(d.Fields)
	for i := range d.Fields {
		if len(d.Fields[i].Comparisons) == 0 {
			d.Fields[i].Comparisons = slices.Clone(search.DefaultComparisons)
		}
		if d.Fields[i].Title == "" {
			d.Fields[i].Title = d.Fields[i].Name
		}
	}
	return d
}

type builder struct {
	remote *remote.Client
	log    logr.Logger
	eval   *cel.Evaluator
}

// BuildOption configures Build.
type BuildOption func(*builder)

// WithRemoteClient sets the client remote lookups run through.
func WithRemoteClient(c *remote.Client) BuildOption {
	return func(b *builder) { b.remote = c }
}

// WithLogger sets the build logger.
func WithLogger(log logr.Logger) BuildOption {
	return func(b *builder) { b.log = log }
}

// Build compiles d into a search configuration. Every invalid field, definition
// and function is reported in the returned error.
func (d Definitions) Build(opts ...BuildOption) (search.Config, error) {
	b := &builder{log: logr.Discard()}
	for _, opt := range opts {
		opt(b)
	}
	if b.remote == nil {
		b.remote = remote.NewClient(remote.WithLogger(b.log))
	}
	if len(d.Fields) == 0 {
		return search.Config{}, ErrNoFields
	}
	eval, err := cel.NewEvaluator()
	if err != nil {
		return search.Config{}, err
	}
	b.eval = eval

	var errs *multierror.Error
	cfgOpts, err := d.Options.configOptions()
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("options: %w", err))
	}

	fields := make([]search.Field, 0, len(d.Fields))
	seen := make(map[string]bool, len(d.Fields))
	for i, fd := range d.Fields {
		if fd.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("field #%d: name is required", i+1))
			continue
		}
		if seen[fd.Name] {
			errs = multierror.Append(errs, fmt.Errorf("field %q: declared twice", fd.Name))
			continue
		}
		seen[fd.Name] = true
		f, err := b.field(d.BaseDir, fd)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("field %q: %w", fd.Name, err))
			continue
		}
		fields = append(fields, f)
	}

	functions := make([]search.Function, 0, len(d.Functions))
	for i, fd := range d.Functions {
		fn, err := b.function(fd, seen)
		if err != nil {
			name := fd.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
			errs = multierror.Append(errs, fmt.Errorf("function %s: %w", name, err))
			continue
		}
		functions = append(functions, fn)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return search.Config{}, err
	}
	cfgOpts = append(cfgOpts, search.WithFunctions(functions...))
	cfg := search.NewConfig(fields, cfgOpts...)
	b.log.Info("definitions compiled", "fields", len(fields), "functions", len(functions))
	return cfg, nil
}

func (o Options) configOptions() ([]search.ConfigOption, error) {
	opts := []search.ConfigOption{
		search.WithSymbols(o.And, o.Or),
		search.WithItemLimit(o.ItemLimit),
		search.WithSearchStartLength(o.SearchStartLength),
		search.WithFreeText(o.AllowFreeText),
		search.WithShowWhenSearching(o.ShowWhenSearching),
		search.WithMaxMatcherWidth(o.MaxMatcherWidth),
		search.WithMaxDropDownHeight(o.MaxDropDownHeight),
		search.WithHideHelp(o.HideHelp),
		search.WithHideToolTip(o.HideToolTip),
		search.WithPasteMatchTimeout(time.Duration(o.PasteMatchTimeoutMS) * time.Millisecond),
	}
	if o.DefaultComparison != "" {
		opts = append(opts, search.WithDefaultComparison(o.DefaultComparison))
	}
	if o.PromiseDelayMS != nil {
		opts = append(opts, search.WithPromiseDelay(time.Duration(*o.PromiseDelayMS)*time.Millisecond))
	}

	var errs *multierror.Error
	if o.Operators != "" {
		mode, err := search.ParseOperatorMode(o.Operators)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		opts = append(opts, search.WithOperators(mode))
	}
	if o.PasteFreeTextAction != "" {
		action, err := search.ParseFreeTextAction(o.PasteFreeTextAction)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		opts = append(opts, search.WithPasteFreeTextAction(action))
	}
	position := search.CategoryPosition(strings.ToLower(o.CategoryPosition))
	switch position {
	case "", search.CategoryTop, search.CategoryLeft:
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown category position %q (want top or left)", o.CategoryPosition))
	}
	opts = append(opts, search.WithCategories(o.ShowCategories, position))

	if len(o.ComparisonDescriptions) > 0 {
		symbols := make([]string, 0, len(o.ComparisonDescriptions))
		for s := range o.ComparisonDescriptions {
			symbols = append(symbols, s)
		}
		sort.Strings(symbols)
		items := make([]search.ComparisonItem, 0, len(symbols))
		for _, s := range symbols {
			items = append(items, search.ComparisonItem{Symbol: s, Description: o.ComparisonDescriptions[s]})
		}
		opts = append(opts, search.WithComparisonDescriptions(items...))
	}
	return opts, errs.ErrorOrNil()
}

func (b *builder) field(baseDir string, fd FieldDef) (search.Field, error) {
	comparisons := []string(fd.Comparisons)
	if len(comparisons) == 0 {
		comparisons = slices.Clone(search.DefaultComparisons)
	}
	f := search.Field{
		Name:           fd.Name,
		Title:          fd.Title,
		Comparisons:    comparisons,
		Precedence:     fd.Precedence,
		SelectionLimit: fd.SelectionLimit,
		Functional:     fd.Functional,
		HideOnShortcut: fd.HideOnShortcut,
	}
	var errs *multierror.Error
	if fd.DefaultOperator != "" {
		switch strings.ToLower(fd.DefaultOperator) {
		case search.OperatorAnd, search.OperatorOr:
			f.DefaultOperator = strings.ToLower(fd.DefaultOperator)
		default:
			errs = multierror.Append(errs, fmt.Errorf("default_operator %q must be and or or", fd.DefaultOperator))
		}
	}
	if len(fd.Definitions) == 0 {
		errs = multierror.Append(errs, errors.New("at least one definition is required"))
	}
	for i, dd := range fd.Definitions {
		def, err := b.definition(baseDir, dd)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("definition #%d: %w", i+1, err))
			continue
		}
		f.Definitions = append(f.Definitions, def)
	}
	return f, errs.ErrorOrNil()
}

func (b *builder) definition(baseDir string, dd DefinitionDef) (search.Definition, error) {
	switch {
	case dd.IsLookup() && dd.IsExpression():
		return nil, errors.New("declares both a lookup and an expression")
	case dd.IsLookup():
		return b.lookup(baseDir, dd)
	case dd.IsExpression():
		return b.expression(dd)
	}
	return nil, errors.New("declares neither items, items_file, url, pattern nor match")
}

func (b *builder) lookup(baseDir string, dd DefinitionDef) (*search.Lookup, error) {
	sources := 0
	for _, set := range []bool{dd.Items != nil, dd.ItemsFile != "", dd.URL != ""} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return nil, errors.New("items, items_file and url are mutually exclusive")
	}
	l := &search.Lookup{
		Items:             dd.Items,
		MatchOnPaste:      dd.MatchOnPaste,
		IgnoreCase:        dd.IgnoreCase,
		ItemLimit:         dd.ItemLimit,
		SearchStartLength: dd.SearchStartLength,
		TextGetter:        keyGetter(dd.TextKey),
	}
	if dd.ValueKey != "" {
		get := keyGetter(dd.ValueKey)
		l.ValueGetter = func(item search.SourceItem) search.Value {
			if m, ok := item.(map[string]any); ok {
				return m[dd.ValueKey]
			}
			return get(item)
		}
	}
	if dd.ItemsFile != "" {
		path := dd.ItemsFile
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		items, err := loader.LoadItems(path)
		if err != nil {
			return nil, err
		}
		l.Items = items
	}
	if dd.URL != "" {
		ep := remote.Endpoint{
			URL:     dd.URL,
			Timeout: time.Duration(dd.TimeoutMS) * time.Millisecond,
			Text:    l.TextOf,
		}
		if err := ep.Validate(); err != nil {
			return nil, err
		}
		l.Resolve = b.remote.Lookup(ep)
		if dd.MatchOnPaste {
			l.PasteMatch = b.remote.PasteMatch(ep)
		}
	}
	return l, nil
}

// keyGetter reads key from map items, falling back to the item's string form.
func keyGetter(key string) func(search.SourceItem) string {
	if key == "" {
		return nil
	}
	return func(item search.SourceItem) string {
		if m, ok := item.(map[string]any); ok {
			if v, ok := m[key]; ok {
				return fmt.Sprint(v)
			}
		}
		return fmt.Sprint(item)
	}
}

func (b *builder) expression(dd DefinitionDef) (*search.Expression, error) {
	e := &search.Expression{MatchOnPaste: dd.MatchOnPaste}
	var errs *multierror.Error
	if dd.Pattern != "" {
		re, err := regexp.Compile(dd.Pattern)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("pattern: %w", err))
		}
		e.Pattern = re
	}
	if dd.Match != "" {
		match, err := b.eval.CompilePredicate(dd.Match)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("match: %w", err))
		}
		e.Match = match
	}
	if dd.Value != "" {
		value, err := b.eval.CompileValue(dd.Value)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("value: %w", err))
		}
		e.Value = value
	}
	return e, errs.ErrorOrNil()
}

func (b *builder) function(fd FunctionDef, fields map[string]bool) (search.Function, error) {
	fn := search.Function{
		Name:           fd.Name,
		RequiredFields: fd.RequiredFields,
		OptionalFields: fd.OptionalFields,
		NoAndOr:        fd.NoAndOr,
		NoBrackets:     fd.NoBrackets,
		AllowFreeText:  fd.AllowFreeText,
	}
	var errs *multierror.Error
	if fd.Name == "" {
		errs = multierror.Append(errs, errors.New("name is required"))
	}
	if strings.ContainsAny(fd.Name, " \t") {
		errs = multierror.Append(errs, fmt.Errorf("name %q must be a single word", fd.Name))
	}
	for _, name := range append(slices.Clone(fd.RequiredFields), fd.OptionalFields...) {
		if !fields[name] {
			errs = multierror.Append(errs, fmt.Errorf("unknown field %q", name))
		}
	}
	if fd.PasteFreeTextAction != "" {
		action, err := search.ParseFreeTextAction(fd.PasteFreeTextAction)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		fn.PasteFreeTextAction = action
	}
	if fd.Validate != "" {
		validate, err := b.eval.CompileValidator(fd.Validate)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("validate: %w", err))
		}
		fn.Validate = validate
	}
	return fn, errs.ErrorOrNil()
}
