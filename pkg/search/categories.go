package search

import (
	"strings"

	"github.com/oakwood-commons/smartsearch/internal/limiter"
)

// Categories is the ordered option set produced for one resolution pass.
// Categories are keyed by label: merging into an existing label never reorders.
type Categories []CategoryOptions

// Find returns the index of the category labelled title, or -1.
func (cs Categories) Find(title string) int {
	for i, c := range cs {
		if c.Category == title {
			return i
		}
	}
	return -1
}

// Count is the number of options over every category.
func (cs Categories) Count() int {
	n := 0
	for _, c := range cs {
		n += len(c.Options)
	}
	return n
}

// Clone copies the category list and its option slices.
func (cs Categories) Clone() Categories {
	out := make(Categories, len(cs))
	for i, c := range cs {
		c.Options = append([]Option(nil), c.Options...)
		out[i] = c
	}
	return out
}

// insertIndex is where a new category for field f goes, or -1 to append. A
// field is placed before the first field category of lower precedence, or of
// equal precedence declared later. The function category never moves.
func (cs Categories) insertIndex(cfg Config, f Field) int {
	if f.Precedence == 0 {
		return -1
	}
	_, fIndex, _ := cfg.fieldByTitle(f.Title)
	for i, c := range cs {
		if c.Category == FunctionsCategory {
			continue
		}
		other, otherIndex, ok := cfg.fieldByTitle(c.Category)
		if !ok {
			continue
		}
		if f.Precedence > other.Precedence {
			return i
		}
		if f.Precedence == other.Precedence && otherIndex > fIndex {
			return i
		}
	}
	return -1
}

// Insert places a new category for f by precedence.
func (cs Categories) Insert(cfg Config, f Field, options []Option, delayed bool) Categories {
	entry := CategoryOptions{Category: f.Title, Options: options, Delayed: delayed}
	idx := cs.insertIndex(cfg, f)
	if idx == -1 {
		return append(cs, entry)
	}
	cs = append(cs, CategoryOptions{})
	copy(cs[idx+1:], cs[idx:])
	cs[idx] = entry
	return cs
}

// Add merges options into f's category, creating it when missing.
func (cs Categories) Add(cfg Config, f Field, l *Lookup, options []Option, delayed bool) Categories {
	if i := cs.Find(f.Title); i != -1 {
		cs[i].Delayed = delayed
		cs[i].Pending = false
		cs[i].Options = CombineOptions(cfg.itemLimit(l), cs[i].Options, options)
		return cs
	}
	return cs.Insert(cfg, f, options, delayed)
}

// Update maps items to options, caps them and merges them into f's category.
// It returns the number of options merged.
func (cs Categories) Update(cfg Config, f Field, l *Lookup, items []SourceItem, delayed bool) (Categories, int) {
	options := MapOptions(f.Name, l, items)
	if len(options) == 0 {
		return cs, 0
	}
	options = limiter.Slice(limiter.Cap(cfg.itemLimit(l)), options)
	return cs.Add(cfg, f, l, options, delayed), len(options)
}

// AddPlaceholder adds an empty pending category for f unless it already has options.
func (cs Categories) AddPlaceholder(cfg Config, f Field, l *Lookup) Categories {
	if i := cs.Find(f.Title); i != -1 && len(cs[i].Options) > 0 {
		return cs
	}
	cs = cs.Add(cfg, f, l, nil, false)
	cs[cs.Find(f.Title)].Pending = true
	return cs
}

// RemovePlaceholder drops f's category when it is still empty.
func (cs Categories) RemovePlaceholder(f Field) (Categories, bool) {
	for i, c := range cs {
		if c.Category == f.Title && len(c.Options) == 0 {
			return append(cs[:i], cs[i+1:]...), true
		}
	}
	return cs, false
}

// ClearDelayed resets the Delayed flag of the category labelled title.
func (cs Categories) ClearDelayed(title string) bool {
	changed := false
	for i := range cs {
		if cs[i].Category == title && cs[i].Delayed {
			cs[i].Delayed = false
			changed = true
		}
	}
	return changed
}

// CombineOptions concatenates the lists, keeps the first option per value and
// caps the result at limit.
func CombineOptions(limit int, lists ...[]Option) []Option {
	var out []Option
	for _, list := range lists {
		for _, opt := range list {
			dup := false
			for _, seen := range out {
				if sameValue(seen.Value, opt.Value) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, opt)
			}
		}
	}
	return limiter.Slice(limiter.Cap(limit), out)
}

// MapOptions converts lookup items to options of field name.
func MapOptions(name string, l *Lookup, items []SourceItem) []Option {
	out := make([]Option, 0, len(items))
	for _, item := range items {
		out = append(out, Option{Source: name, Value: l.ValueOf(item), Text: l.TextOf(item)})
	}
	return out
}

// MatchItem reports whether the item's text contains text, honouring IgnoreCase.
func MatchItem(item SourceItem, l *Lookup, text string) bool {
	candidate := l.TextOf(item)
	if l.IgnoreCase {
		return strings.Contains(strings.ToUpper(candidate), strings.ToUpper(text))
	}
	return strings.Contains(candidate, text)
}

// FunctionOptions lists the functions whose name contains text, ignoring case.
func FunctionOptions(text string, functions []Function) []Option {
	needle := strings.ToUpper(text)
	var out []Option
	for _, fn := range functions {
		if strings.Contains(strings.ToUpper(fn.Name), needle) {
			out = append(out, Option{Source: FunctionSource, Value: fn.Name, Text: fn.Name})
		}
	}
	return out
}

// Flatten concatenates the options of every category in order.
func Flatten(cs []CategoryOptions) []Option {
	var out []Option
	for _, c := range cs {
		out = append(out, c.Options...)
	}
	return out
}
