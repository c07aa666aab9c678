package search

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/go-logr/logr"
)

// Token identifies one edit event. Only results carrying the current token are applied.
type Token uint64

// Generation is the single "current token" slot of an editor. It is safe to
// read from lookup goroutines while the owner mints new tokens.
type Generation struct {
	current atomic.Uint64
}

// Next mints and stores a new token.
func (g *Generation) Next() Token {
	return Token(g.current.Add(1))
}

// Current returns the live token.
func (g *Generation) Current() Token {
	return Token(g.current.Load())
}

// IsCurrent reports whether t is still the live token.
func (g *Generation) IsCurrent(t Token) bool {
	return g.Current() == t
}

// LookupRequest is one debounced asynchronous lookup scheduled by the editor.
type LookupRequest struct {
	Token    Token
	Field    Field
	Lookup   *Lookup
	Text     string
	Operator string
	Matchers []Matcher
	Delay    time.Duration
}

// LookupResult carries the items returned for a request.
type LookupResult struct {
	Request LookupRequest
	Items   []SourceItem
	Elapsed time.Duration
	Err     error
}

// Run calls the lookup immediately and measures how long it took.
func (r LookupRequest) Run(ctx context.Context) LookupResult {
	start := time.Now()
	items, err := r.Lookup.Resolve(ctx, r.Text, r.Operator, r.Matchers)
	return LookupResult{Request: r, Items: items, Elapsed: time.Since(start), Err: err}
}

// RunLookup waits out the request's debounce delay and then runs it. When the
// token is no longer current once the delay elapses the call is skipped and ok
// is false. The result may still be stale on arrival; the editor discards it.
func RunLookup(ctx context.Context, gen *Generation, req LookupRequest) (LookupResult, bool) {
	if req.Delay > 0 {
		timer := time.NewTimer(req.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return LookupResult{Request: req, Err: ctx.Err()}, false
		case <-timer.C:
		}
	}
	if !gen.IsCurrent(req.Token) {
		return LookupResult{Request: req}, false
	}
	return req.Run(ctx), true
}

// matchContext is the input of one resolution pass.
type matchContext struct {
	text           string
	operator       string
	comparison     string
	allowFunctions bool
	selection      Selection
	editing        string
	token          Token
}

// resolve runs the field matching pass: function names, static lookups and
// expressions synchronously, asynchronous lookups as requests.
func resolve(cfg Config, mc matchContext, log logr.Logger) (Categories, []LookupRequest) {
	var (
		cats     Categories
		requests []LookupRequest
	)
	length := utf8.RuneCountInString(mc.text)
	if length < cfg.SearchStartLength {
		return cats, nil
	}
	if mc.allowFunctions && len(cfg.Functions) > 0 {
		if fns := FunctionOptions(mc.text, cfg.Functions); len(fns) > 0 {
			cats = append(cats, CategoryOptions{Category: FunctionsCategory, Options: fns})
		}
	}

	fn := mc.selection.ActiveFunction
	for _, f := range cfg.Fields {
		if !Eligible(f, fn) {
			continue
		}
		if mc.comparison != "" && !f.Allows(mc.comparison) {
			continue
		}
		for _, def := range f.Definitions {
			switch d := def.(type) {
			case *Lookup:
				if length < d.SearchStartLength {
					continue
				}
				if d.Async() {
					requests = append(requests, LookupRequest{
						Token:    mc.token,
						Field:    f,
						Lookup:   d,
						Text:     mc.text,
						Operator: mc.operator,
						Matchers: mc.selection.Without(mc.editing),
						Delay:    cfg.PromiseDelay,
					})
					continue
				}
				var items []SourceItem
				for _, item := range d.Items {
					if MatchItem(item, d, mc.text) {
						items = append(items, item)
					}
				}
				cats, _ = cats.Update(cfg, f, d, items, false)
			case *Expression:
				if !d.Matches(mc.text) {
					continue
				}
				value := d.ValueOf(mc.text)
				if value == nil {
					continue
				}
				cats = cats.Add(cfg, f, nil, []Option{{Source: f.Name, Value: value, Text: fmt.Sprint(value)}}, false)
			}
		}
	}
	log.V(1).Info("resolved options", "text", mc.text, "categories", len(cats), "lookups", len(requests))
	return cats, requests
}
