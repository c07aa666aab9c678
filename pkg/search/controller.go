package search

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-logr/logr"
)

// ListenerFunc receives the clause list after every mutation. The clause being
// edited, if any, carries Changing.
type ListenerFunc func(matchers []Matcher)

// CompleteFunc receives the finished clause list and the active function name.
type CompleteFunc func(matchers []Matcher, function string)

// CompleteErrorFunc receives a rejected completion.
type CompleteErrorFunc func(ValidationError)

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithMatchers seeds the clause list.
func WithMatchers(matchers ...Matcher) ControllerOption {
	return func(c *Controller) { c.matchers = slices.Clone(matchers) }
}

// WithListener registers the change listener.
func WithListener(fn ListenerFunc) ControllerOption {
	return func(c *Controller) { c.listener = fn }
}

// WithOnComplete registers the completion callback.
func WithOnComplete(fn CompleteFunc) ControllerOption {
	return func(c *Controller) { c.onComplete = fn }
}

// WithOnCompleteError registers the callback for rejected completions.
func WithOnCompleteError(fn CompleteErrorFunc) ControllerOption {
	return func(c *Controller) { c.onCompleteError = fn }
}

// WithValidator registers the external clause validator. It runs before a
// clause is committed; a non-empty result blocks the commit.
func WithValidator(fn func(Matcher) string) ControllerOption {
	return func(c *Controller) { c.validator = fn }
}

// WithLogger sets the controller's logger.
func WithLogger(log logr.Logger) ControllerOption {
	return func(c *Controller) { c.log = log }
}

// Controller owns the ordered clause list of one search bar, the index of the
// clause being edited and the active function. It is not safe for concurrent
// use; hosts drive it from their event loop.
type Controller struct {
	cfg        Config
	matchers   []Matcher
	active     int
	changing   string
	function   *Function
	mismatched []int
	err        string

	listener        ListenerFunc
	onComplete      CompleteFunc
	onCompleteError CompleteErrorFunc
	validator       func(Matcher) string
	log             logr.Logger
}

// NewController creates a controller for cfg.
func NewController(cfg Config, opts ...ControllerOption) *Controller {
	c := &Controller{cfg: cfg, active: -1, log: logr.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	c.checkBrackets()
	return c
}

// Config returns the controller's configuration.
func (c *Controller) Config() Config { return c.cfg }

// Matchers returns a copy of the clause list.
func (c *Controller) Matchers() []Matcher { return slices.Clone(c.matchers) }

// Active is the index of the clause being edited, or -1 for the trailing editor.
func (c *Controller) Active() int { return c.active }

// Function returns the active function, or nil.
func (c *Controller) Function() *Function {
	if c.function == nil {
		return nil
	}
	fn := *c.function
	return &fn
}

// FunctionName returns the active function's name, or "".
func (c *Controller) FunctionName() string {
	if c.function == nil {
		return ""
	}
	return c.function.Name
}

// Mismatched returns the indexes of clauses whose bracket has no partner.
func (c *Controller) Mismatched() []int { return slices.Clone(c.mismatched) }

// IsMismatched reports whether clause i is an unbalanced bracket.
func (c *Controller) IsMismatched(i int) bool { return slices.Contains(c.mismatched, i) }

// Error is the last completion error message.
func (c *Controller) Error() string { return c.err }

// DismissError acknowledges the completion error.
func (c *Controller) DismissError() { c.err = "" }

// Changing returns the key of the clause with uncommitted edits.
func (c *Controller) Changing() string { return c.changing }

// Selection returns a read-only snapshot for editors and lookups.
func (c *Controller) Selection() Selection {
	return Selection{Matchers: c.Matchers(), ActiveFunction: c.Function()}
}

func (c *Controller) indexOf(key string) int {
	return slices.IndexFunc(c.matchers, func(m Matcher) bool { return m.Key == key })
}

func (c *Controller) checkBrackets() {
	c.mismatched = MismatchedBrackets(c.matchers)
}

// notified is the list as reported to the listener.
func (c *Controller) notified() []Matcher {
	out := c.Matchers()
	for i := range out {
		if c.changing != "" && out[i].Key == c.changing {
			out[i].Changing = true
		}
	}
	return out
}

func (c *Controller) notify() {
	if c.listener != nil {
		c.listener(c.notified())
	}
}

// AddMatcher appends m.
func (c *Controller) AddMatcher(m Matcher) {
	c.matchers = append(c.matchers, m)
	c.checkBrackets()
	c.notify()
}

// AppendMatchers appends every clause in one mutation.
func (c *Controller) AppendMatchers(ms ...Matcher) {
	if len(ms) == 0 {
		return
	}
	c.matchers = append(c.matchers, ms...)
	c.checkBrackets()
	c.notify()
}

// UpdateMatcher replaces the clause with m's key and leaves edit mode.
func (c *Controller) UpdateMatcher(m Matcher) {
	if i := c.indexOf(m.Key); i != -1 {
		m.Changing = false
		c.matchers[i] = m
	}
	c.changing = ""
	c.checkBrackets()
	c.notify()
	c.active = -1
}

// DeleteMatcher removes the clause with m's key. Edit mode is left when the
// active index falls outside the list or force is set.
func (c *Controller) DeleteMatcher(m Matcher, force bool) {
	i := c.indexOf(m.Key)
	if i == -1 {
		return
	}
	c.matchers = slices.Delete(c.matchers, i, i+1)
	if c.changing == m.Key {
		c.changing = ""
	}
	if force || c.active >= len(c.matchers) {
		c.active = -1
	}
	c.checkBrackets()
	c.notify()
}

// InsertMatcher places m before the clause before, or appends when before is
// nil. The active index keeps pointing at the same clause.
func (c *Controller) InsertMatcher(m Matcher, before *Matcher) {
	idx := len(c.matchers)
	if before != nil {
		if i := c.indexOf(before.Key); i != -1 {
			idx = i
		}
	}
	c.matchers = slices.Insert(c.matchers, idx, m)
	if c.active != -1 && c.active >= idx {
		c.active++
	}
	c.checkBrackets()
	c.notify()
}

// SwapMatchers exchanges the positions of the clauses with a's and b's keys.
// The stored clauses are moved, so a and b only need the right keys.
func (c *Controller) SwapMatchers(a, b Matcher) bool {
	ia, ib := c.indexOf(a.Key), c.indexOf(b.Key)
	if ia == -1 || ib == -1 || ia == ib {
		return false
	}
	c.matchers[ia], c.matchers[ib] = c.matchers[ib], c.matchers[ia]
	c.checkBrackets()
	c.notify()
	return true
}

// MatcherChanging marks the clause with key as having uncommitted edits.
func (c *Controller) MatcherChanging(key string) {
	if c.indexOf(key) == -1 {
		return
	}
	c.changing = key
	c.notify()
}

// SelectMatcher starts editing clause i.
func (c *Controller) SelectMatcher(i int) {
	if i >= 0 && i < len(c.matchers) {
		c.active = i
	}
}

// ClearActive returns to the trailing editor, dropping any changing mark.
func (c *Controller) ClearActive() {
	c.active = -1
	if c.changing != "" {
		c.changing = ""
		c.notify()
	}
}

// EditPrevious moves editing one clause to the left. From the trailing editor
// it selects the last clause.
func (c *Controller) EditPrevious() {
	switch {
	case len(c.matchers) == 0:
		c.active = -1
	case c.active == -1:
		c.active = len(c.matchers) - 1
	case c.active > 0:
		c.active--
	}
}

// EditNext moves editing one clause to the right, ending at the trailing editor.
func (c *Controller) EditNext() {
	switch {
	case c.active == -1:
	case c.active < len(c.matchers)-1:
		c.active++
	default:
		c.ClearActive()
	}
}

// DeleteLast removes the last clause, or the active function when the list is empty.
func (c *Controller) DeleteLast() {
	if len(c.matchers) == 0 {
		c.DeleteFunction()
		return
	}
	c.DeleteMatcher(c.matchers[len(c.matchers)-1], false)
}

// DeleteAll clears the clause list and the active function.
func (c *Controller) DeleteAll() {
	c.matchers = nil
	c.function = nil
	c.active = -1
	c.changing = ""
	c.err = ""
	c.checkBrackets()
	c.notify()
}

// SetFunction activates the function called name.
func (c *Controller) SetFunction(name string) bool {
	fn, ok := c.cfg.Function(name)
	if !ok {
		return false
	}
	c.function = fn
	c.log.V(1).Info("function selected", "function", fn.Name)
	c.notify()
	return true
}

// DeleteFunction clears the active function.
func (c *Controller) DeleteFunction() {
	if c.function == nil {
		return
	}
	c.function = nil
	c.notify()
}

// HandleKey processes list-level keys: the ones no clause editor consumed.
func (c *Controller) HandleKey(k Key) bool {
	n := len(c.matchers)
	switch k.Code {
	case KeyLeft:
		switch {
		case k.Ctrl && c.active != -1 && n > 1:
			c.moveActive((c.active - 1 + n) % n)
			return true
		case k.Shift:
			switch {
			case c.active == -1 && n > 0:
				c.active = n - 1
			case c.active > 0:
				c.active--
			default:
				c.ClearActive()
			}
			return true
		}
	case KeyRight:
		switch {
		case k.Ctrl && c.active != -1 && n > 1:
			c.moveActive((c.active + 1) % n)
			return true
		case k.Shift:
			if c.active == -1 {
				if n == 0 {
					return false
				}
				c.active = 0
			} else if c.active < n-1 {
				c.active++
			} else {
				c.ClearActive()
			}
			return true
		}
	case KeyBackspace:
		switch {
		case k.Ctrl:
			c.DeleteAll()
			return true
		case k.Shift:
			c.DeleteLast()
			return true
		}
	case KeyEnter, KeyTab:
		if c.active == -1 {
			c.Complete()
			return true
		}
	case KeyHome:
		if n > 0 {
			c.active = 0
			return true
		}
	case KeyEnd:
		c.ClearActive()
		return true
	case KeyEscape:
		c.err = ""
		c.ClearActive()
		return true
	}
	return false
}

// moveActive swaps the active clause with the one at target and follows it.
func (c *Controller) moveActive(target int) {
	if c.SwapMatchers(c.matchers[c.active], c.matchers[target]) {
		c.active = target
	}
}

// IsFirst reports whether clause i starts a group: the first clause or the
// clause after "(". The trailing editor is at index len(matchers).
func (c *Controller) IsFirst(i int) bool {
	return IsFirst(c.matchers, i)
}

// EditorContext builds the context for the editor of the clause with target's
// key, or for the trailing editor when target is nil.
func (c *Controller) EditorContext(target *Matcher) EditorContext {
	index := len(c.matchers)
	if target != nil {
		if i := c.indexOf(target.Key); i != -1 {
			index = i
		}
	}
	fn := c.Function()
	return EditorContext{
		Matcher:        target,
		First:          c.IsFirst(index),
		AllowFunctions: target == nil && len(c.matchers) == 0 && fn == nil,
		AllowFreeText:  c.cfg.FreeTextAllowed(fn),
		Selection:      c.Selection(),
		Validate:       c.Validate,
	}
}

// EditorFor creates the editor for clause i, or the trailing editor for -1.
func (c *Controller) EditorFor(i int, opts ...EditorOption) *Editor {
	var target *Matcher
	if i >= 0 && i < len(c.matchers) {
		m := c.matchers[i]
		target = &m
	}
	opts = append([]EditorOption{WithEditorLogger(c.log)}, opts...)
	return NewEditor(c.cfg, c.EditorContext(target), opts...)
}

// Apply reduces an editor intent into the clause list. target is the clause
// the editor was editing, or nil for the trailing editor.
func (c *Controller) Apply(target *Matcher, in Intent) {
	c.log.V(1).Info("apply intent", "intent", in.Kind.String(), "trailing", target == nil)
	switch in.Kind {
	case IntentCommit:
		if target == nil {
			c.AddMatcher(in.Matcher)
			return
		}
		c.UpdateMatcher(in.Matcher)
	case IntentDelete:
		if target != nil {
			c.DeleteMatcher(*target, true)
		}
	case IntentNavigatePrevious:
		if target == nil || !in.Deleting {
			c.EditPrevious()
			return
		}
		i := c.indexOf(target.Key)
		c.DeleteMatcher(*target, false)
		switch {
		case i > 0:
			c.active = i - 1
		default:
			c.active = -1
		}
	case IntentNavigateNext:
		c.EditNext()
	case IntentInsert:
		c.InsertMatcher(in.Matcher, target)
	case IntentCancel:
		c.ClearActive()
	case IntentChanging:
		if target != nil {
			c.MatcherChanging(target.Key)
		}
	case IntentSetFunction:
		c.SetFunction(in.Function)
	case IntentDeleteFunction:
		c.DeleteFunction()
	}
}

// Validate checks a draft clause against the list. Brackets are exempt.
func (c *Controller) Validate(m Matcher) string {
	if m.IsBracket() {
		return ""
	}
	if c.cfg.Operators == OperatorsAgGrid && c.cfg.IsOr(m.Operator) {
		if prev, ok := c.previousOf(m.Key); ok && !prev.IsBracket() && prev.Source != m.Source {
			return "When using AgGrid style operators, or can only be used for the same field"
		}
	}
	if f, ok := c.cfg.Field(m.Source); ok && f.SelectionLimit > 0 {
		count := 0
		for _, other := range c.matchers {
			if other.Source == f.Name && other.Key != m.Key {
				count++
			}
		}
		if count >= f.SelectionLimit {
			return fmt.Sprintf("Datasource (%s) is limited to %d items.", f.Name, f.SelectionLimit)
		}
	}
	if c.validator != nil {
		return c.validator(m)
	}
	return ""
}

// previousOf returns the clause before the one with key. A key that is not in
// the list belongs to a new clause, whose predecessor is the last clause.
func (c *Controller) previousOf(key string) (Matcher, bool) {
	i := c.indexOf(key)
	if i == -1 {
		i = len(c.matchers)
	}
	if i == 0 || len(c.matchers) == 0 {
		return Matcher{}, false
	}
	return c.matchers[i-1], true
}

// Complete checks the active function's required fields and validator and
// hands the clause list to the completion callback. On success all state is
// cleared.
func (c *Controller) Complete() (ValidationError, bool) {
	if fn := c.function; fn != nil {
		present := make(map[string]bool)
		for _, m := range c.matchers {
			if m.Key != c.changing {
				present[m.Source] = true
			}
		}
		var missing []string
		for _, name := range fn.RequiredFields {
			if !present[name] {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return c.reject(ValidationError{
				Function: fn.Name,
				Message:  fmt.Sprintf("mandatory fields are missing (%s)", strings.Join(missing, ", ")),
				Missing:  missing,
			})
		}
		if fn.Validate != nil {
			if msg := fn.Validate(c.Matchers()); msg != "" {
				return c.reject(ValidationError{Function: fn.Name, Message: msg})
			}
		}
	}

	matchers, name := c.Matchers(), c.FunctionName()
	c.log.Info("search completed", "clauses", len(matchers), "function", name)
	if c.onComplete != nil {
		c.onComplete(matchers, name)
	}
	c.matchers = nil
	c.function = nil
	c.active = -1
	c.changing = ""
	c.err = ""
	c.checkBrackets()
	c.notify()
	return ValidationError{}, true
}

func (c *Controller) reject(ve ValidationError) (ValidationError, bool) {
	c.err = ve.Message
	c.log.V(1).Info("completion rejected", "function", ve.Function, "message", ve.Message)
	if c.onCompleteError != nil {
		c.onCompleteError(ve)
	}
	return ve, false
}
