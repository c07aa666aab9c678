// Package core is the public entry point for embedding the search engine: it
// resolves a search.Config from fields or a definitions file and hands out
// controllers, paste parsing and clause rendering.
package core

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/smartsearch/internal/config"
	"github.com/oakwood-commons/smartsearch/internal/formatter"
	"github.com/oakwood-commons/smartsearch/internal/remote"
	"github.com/oakwood-commons/smartsearch/pkg/search"
)

// ErrNoFields is returned when neither fields nor a definitions file supply any field.
var ErrNoFields = config.ErrNoFields

// Formatter renders a clause list in a named output format.
type Formatter interface {
	Render(matchers []search.Matcher, function, format string, noColor bool, width int) (string, error)
}

// Engine owns one resolved configuration.
type Engine struct {
	Formatter Formatter

	cfg         search.Config
	fields      []search.Field
	cfgOpts     []search.ConfigOption
	definitions string
	defsText    string
	baseDir     string
	log         logr.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithFields declares the searchable fields directly.
func WithFields(fields ...search.Field) Option {
	return func(e *Engine) {
		e.fields = append(e.fields, fields...)
	}
}

// WithConfigOptions adds engine options. They apply after a definitions file.
func WithConfigOptions(opts ...search.ConfigOption) Option {
	return func(e *Engine) {
		e.cfgOpts = append(e.cfgOpts, opts...)
	}
}

// WithDefinitionsFile loads fields, functions and options from a YAML, JSON or
// TOML definitions file. Fields given with WithFields are appended.
func WithDefinitionsFile(path string) Option {
	return func(e *Engine) {
		e.definitions = path
	}
}

// WithDefinitionsText loads definitions from YAML, JSON or TOML text, e.g. an
// embedded file. Relative items_file paths resolve against baseDir. It is
// ignored when WithDefinitionsFile is also given.
func WithDefinitionsText(text, baseDir string) Option {
	return func(e *Engine) {
		e.defsText, e.baseDir = text, baseDir
	}
}

// WithLogger sets the logger handed to controllers, paste parsing and remote lookups.
func WithLogger(log logr.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithFormatter sets a custom clause renderer.
func WithFormatter(f Formatter) Option {
	return func(e *Engine) {
		e.Formatter = f
	}
}

// New resolves the configuration.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{log: logr.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	var defs *config.Definitions
	source := "definitions"
	switch {
	case e.definitions != "":
		loaded, err := config.Load(e.definitions)
		if err != nil {
			return nil, err
		}
		defs, source = loaded, "definitions "+e.definitions
	case e.defsText != "":
		parsed, err := config.Parse(e.defsText, e.baseDir)
		if err != nil {
			return nil, err
		}
		defs = parsed
	}
	switch {
	case defs != nil:
		cfg, err := defs.Build(
			config.WithLogger(e.log),
			config.WithRemoteClient(remote.NewClient(remote.WithLogger(e.log))),
		)
		if err != nil {
			return nil, fmt.Errorf("compiling %s: %w", source, err)
		}
		e.cfg = cfg.With(append([]search.ConfigOption{appendFields(e.fields)}, e.cfgOpts...)...)
	case len(e.fields) > 0:
		e.cfg = search.NewConfig(e.fields, e.cfgOpts...)
	default:
		return nil, ErrNoFields
	}
	if e.Formatter == nil {
		e.Formatter = defaultFormatter{cfg: e.cfg}
	}
	return e, nil
}

func appendFields(fields []search.Field) search.ConfigOption {
	return func(c *search.Config) {
		c.Fields = append(c.Fields, fields...)
	}
}

// Config returns the resolved configuration.
func (e *Engine) Config() search.Config {
	return e.cfg
}

// Logger returns the engine logger.
func (e *Engine) Logger() logr.Logger {
	return e.log
}

// NewController returns a clause list controller over the engine configuration.
func (e *Engine) NewController(opts ...search.ControllerOption) *search.Controller {
	return search.NewController(e.cfg, append([]search.ControllerOption{search.WithLogger(e.log)}, opts...)...)
}

// Parse runs text through the paste pipeline. A leading function name is
// split off and returned.
func (e *Engine) Parse(ctx context.Context, text string) ([]search.Matcher, string) {
	if _, err := logr.FromContext(ctx); err != nil {
		ctx = logr.NewContext(ctx, e.log)
	}
	fn, rest := search.SplitFunction(text, e.cfg, nil)
	name := ""
	if fn != nil {
		name = fn.Name
	}
	return search.ParseText(ctx, rest, e.cfg, fn), name
}

// Render formats matchers with the engine's Formatter.
func (e *Engine) Render(matchers []search.Matcher, function, format string, noColor bool, width int) (string, error) {
	if e.Formatter == nil {
		e.Formatter = defaultFormatter{cfg: e.cfg}
	}
	return e.Formatter.Render(matchers, function, format, noColor, width)
}

type defaultFormatter struct {
	cfg search.Config
}

func (f defaultFormatter) Render(matchers []search.Matcher, function, format string, noColor bool, width int) (string, error) {
	return formatter.Format(matchers, formatter.Options{
		Format:   format,
		Function: function,
		Config:   f.cfg,
		NoColor:  noColor,
		Width:    width,
	})
}
