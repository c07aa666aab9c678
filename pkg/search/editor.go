package search

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-logr/logr"
)

// EditorState is the lifecycle state of a clause editor.
type EditorState int

const (
	StateEmpty EditorState = iota
	StateComposing
	StateOptionsOpen
	StateError
	StateCommitted
)

var stateNames = [...]string{"Empty", "Composing", "OptionsOpen", "Error", "Committed"}

func (s EditorState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// EditorContext is what an editor needs to know about its place in the list.
type EditorContext struct {
	// Matcher is the clause being edited; nil for the trailing editor.
	Matcher *Matcher
	// First is set for the first clause, or a clause following "(".
	First          bool
	AllowFunctions bool
	AllowFreeText  bool
	Selection      Selection
	// Validate checks a draft clause against the rest of the list. A non-empty
	// result blocks the commit.
	Validate func(Matcher) string
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithEditorLogger sets the logger used for lookup bookkeeping.
func WithEditorLogger(log logr.Logger) EditorOption {
	return func(e *Editor) { e.log = log }
}

// WithGeneration shares a token slot with the caller.
func WithGeneration(gen *Generation) EditorOption {
	return func(e *Editor) { e.gen = gen }
}

// Editor is the state machine for the text box of one clause. It decodes the
// operator and comparison, drives field matching and turns key presses into
// intents for the controller. An Editor is not safe for concurrent use; only
// its Generation may be read from other goroutines.
type Editor struct {
	cfg Config
	ec  EditorContext
	gen *Generation
	log logr.Logger

	text       string
	caret      int
	operator   string
	comparison string
	matchText  string
	options    Categories
	flat       []Option
	active     int
	err        string
	hlStart    int
	hlEnd      int
	changing   bool
	committed  bool
	token      Token
}

// NewEditor creates an editor. When ec.Matcher is set the text box is seeded
// with the clause's operator, comparison and text.
func NewEditor(cfg Config, ec EditorContext, opts ...EditorOption) *Editor {
	e := &Editor{
		cfg:     cfg,
		ec:      ec,
		log:     logr.Discard(),
		active:  -1,
		hlStart: -1,
		hlEnd:   -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.gen == nil {
		e.gen = &Generation{}
	}
	if m := ec.Matcher; m != nil {
		seed := ""
		if !ec.First && cfg.Operators != OperatorsSimple && m.Operator != "" {
			seed = m.Operator + " "
		}
		e.text = seed + m.Comparison + m.Text
		e.caret = utf8.RuneCountInString(e.text)
		e.operator = m.Operator
		e.comparison = m.Comparison
	}
	return e
}

// Rebind replaces the editor's context while keeping the typed text.
func (e *Editor) Rebind(ec EditorContext) {
	e.ec = ec
}

func (e *Editor) Text() string            { return e.text }
func (e *Editor) Caret() int               { return e.caret }
func (e *Editor) Operator() string         { return e.operator }
func (e *Editor) Comparison() string       { return e.comparison }
func (e *Editor) MatchText() string        { return e.matchText }
func (e *Editor) Error() string            { return e.err }
func (e *Editor) Active() int              { return e.active }
func (e *Editor) Token() Token             { return e.token }
func (e *Editor) First() bool              { return e.ec.First }
func (e *Editor) Generation() *Generation { return e.gen }

// Matcher returns a copy of the clause being edited, or nil for the trailing editor.
func (e *Editor) Matcher() *Matcher {
	if e.ec.Matcher == nil {
		return nil
	}
	m := *e.ec.Matcher
	return &m
}

// Options returns a copy of the current categories.
func (e *Editor) Options() Categories {
	return e.options.Clone()
}

// Flat returns the options in navigation order.
func (e *Editor) Flat() []Option {
	return append([]Option(nil), e.flat...)
}

// ActiveOption returns the highlighted option.
func (e *Editor) ActiveOption() (Option, bool) {
	if e.active < 0 || e.active >= len(e.flat) {
		return Option{}, false
	}
	return e.flat[e.active], true
}

// Window returns the visible option window around the active option.
func (e *Editor) Window() OptionWindow {
	return Window(e.flat, e.active)
}

// Highlight returns the rune range of the comparison that failed validation.
func (e *Editor) Highlight() (start, end int, ok bool) {
	return e.hlStart, e.hlEnd, e.hlStart >= 0
}

// DismissError acknowledges the validation message.
func (e *Editor) DismissError() {
	e.err = ""
	e.hlStart, e.hlEnd = -1, -1
}

// State reports the editor's lifecycle state.
func (e *Editor) State() EditorState {
	switch {
	case e.err != "":
		return StateError
	case e.committed:
		return StateCommitted
	case e.text == "":
		return StateEmpty
	case e.active >= 0 && len(e.flat) > 0:
		return StateOptionsOpen
	default:
		return StateComposing
	}
}

// SetCaret moves the caret to rune position pos.
func (e *Editor) SetCaret(pos int) {
	n := utf8.RuneCountInString(e.text)
	switch {
	case pos < 0:
		pos = 0
	case pos > n:
		pos = n
	}
	e.caret = pos
}

// SetActive highlights option i.
func (e *Editor) SetActive(i int) {
	if i >= 0 && i < len(e.flat) {
		e.active = i
	}
}

// SetText handles a change of the typed text. It mints a new token, decodes the
// operator and comparison and resolves options for the remainder. Static and
// expression options are applied immediately; asynchronous lookups are
// returned as requests for the host to schedule.
func (e *Editor) SetText(text string) ([]Intent, []LookupRequest) {
	var intents []Intent
	e.operator, e.comparison, e.matchText = "", "", ""
	e.DismissError()
	e.committed = false
	if !e.changing && e.ec.Matcher != nil {
		e.changing = true
		intents = append(intents, Changing())
	}
	e.token = e.gen.Next()
	e.options = nil
	e.text = text
	defer func() { e.SetCaret(e.caret) }()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		e.text = ""
		e.refresh()
		e.active = -1
		return intents, nil
	}
	if strings.HasPrefix(trimmed, VerbatimComparison) {
		e.refresh()
		return intents, nil
	}

	fn := e.ec.Selection.ActiveFunction
	rest := trimmed
	if !e.ec.First && e.cfg.OperatorsAllowed(fn) {
		e.operator, rest = e.cfg.decodeOperator(rest)
	}
	d := e.cfg.decodeComparison(rest, e.cfg.BracketsAllowed(fn))
	if d.bracket != "" {
		return append(intents, e.bracket(d.bracket, d.remainder)...), nil
	}
	e.comparison = d.comparison
	e.matchText = d.remainder
	if e.matchText == "" {
		e.refresh()
		return intents, nil
	}

	editing := ""
	if e.ec.Matcher != nil {
		editing = e.ec.Matcher.Key
	}
	cats, requests := resolve(e.cfg, matchContext{
		text:           e.matchText,
		operator:       e.operator,
		comparison:     e.comparison,
		allowFunctions: e.ec.AllowFunctions,
		selection:      e.ec.Selection,
		editing:        editing,
		token:          e.token,
	}, e.log)
	if e.cfg.ShowWhenSearching {
		for _, req := range requests {
			cats = cats.AddPlaceholder(e.cfg, req.Field, req.Lookup)
		}
	}
	e.options = cats
	e.refresh()
	return intents, requests
}

// bracket turns a typed bracket into a clause. Inside an existing clause of a
// different kind it is inserted before that clause; otherwise it is committed.
func (e *Editor) bracket(symbol, remainder string) []Intent {
	m, ok := e.validate(nil, symbol)
	if !ok {
		return nil
	}
	if e.ec.Matcher != nil && e.ec.Matcher.Comparison != symbol {
		m.Key = NewKey()
		e.text = remainder
		e.caret = utf8.RuneCountInString(remainder)
		e.refresh()
		return []Intent{Insert(m)}
	}
	e.reset()
	return []Intent{Commit(m)}
}

// ApplyLookup merges an asynchronous result. Results whose token is no longer
// current are dropped. It reports whether the options changed.
func (e *Editor) ApplyLookup(res LookupResult) bool {
	req := res.Request
	if req.Token != e.token || !e.gen.IsCurrent(req.Token) {
		e.log.V(1).Info("discarding stale lookup", "field", req.Field.Name, "token", req.Token)
		return false
	}
	if res.Err != nil {
		e.log.V(1).Info("lookup failed", "field", req.Field.Name, "error", res.Err.Error())
	}
	if len(res.Items) > 0 {
		var n int
		e.options, n = e.options.Update(e.cfg, req.Field, req.Lookup, res.Items, res.Elapsed > DelayedThreshold)
		if n > 0 {
			e.refresh()
			return true
		}
	}
	if e.cfg.ShowWhenSearching {
		var removed bool
		if e.options, removed = e.options.RemovePlaceholder(req.Field); removed {
			e.refresh()
			return true
		}
	}
	return false
}

// ClearDelayed drops the Delayed flag of a category once its animation window
// has passed, provided no keystroke happened since.
func (e *Editor) ClearDelayed(token Token, category string) bool {
	if token != e.token {
		return false
	}
	return e.options.ClearDelayed(category)
}

// HandleKey processes a key press. It reports whether the key was consumed and
// what the controller should do.
func (e *Editor) HandleKey(k Key) (bool, []Intent) {
	e.DismissError()
	e.committed = false
	total := len(e.flat)
	switch k.Code {
	case KeyLeft:
		if k.Plain() && e.caret == 0 {
			return true, []Intent{NavigatePrevious(false)}
		}
	case KeyRight:
		if k.Plain() && e.caret >= utf8.RuneCountInString(e.text) {
			return true, []Intent{NavigateNext()}
		}
	case KeyUp:
		if total > 0 {
			e.active = PrevOption(e.active, total)
			return true, nil
		}
	case KeyDown:
		if total > 0 {
			e.active = NextOption(e.active, total)
			return true, nil
		}
	case KeyPageUp:
		if total > 0 {
			e.active = PageUpOption(e.flat, e.active)
			return true, nil
		}
	case KeyPageDown:
		if total > 0 {
			e.active = PageDownOption(e.flat, e.active)
			return true, nil
		}
	case KeyHome:
		if total > 0 {
			e.active = HomeOption(total)
			return true, nil
		}
	case KeyEnd:
		if total > 0 {
			e.active = EndOption(total)
			return true, nil
		}
	case KeyEnter, KeyTab:
		switch {
		case strings.HasPrefix(strings.TrimSpace(e.text), VerbatimComparison):
			return e.captureFreeText()
		case total > 0 && e.active >= 0:
			return true, e.selectActive(k.Shift)
		case e.text == "" && e.ec.Matcher != nil:
			e.reset()
			return true, []Intent{Delete()}
		case e.ec.Matcher != nil:
			return true, []Intent{Cancel()}
		}
	case KeyBackspace:
		if e.text != "" {
			return false, nil
		}
		if !k.Shift && !k.Ctrl {
			if e.ec.Matcher == nil && len(e.ec.Selection.Matchers) == 0 {
				return true, []Intent{DeleteFunction()}
			}
			return true, []Intent{NavigatePrevious(true)}
		}
		if e.ec.Matcher != nil {
			return true, []Intent{Delete()}
		}
	}
	return false, nil
}

// Select commits option i, as a click on the option list would.
func (e *Editor) Select(i int, insert bool) []Intent {
	if i < 0 || i >= len(e.flat) {
		return nil
	}
	e.active = i
	return e.selectActive(insert)
}

func (e *Editor) selectActive(insert bool) []Intent {
	opt := e.flat[e.active]
	if opt.Source == FunctionSource {
		e.reset()
		return []Intent{SetFunction(opt.Text)}
	}
	m, ok := e.validate(&opt, "")
	if !ok {
		return nil
	}
	if insert {
		if e.ec.Matcher != nil {
			m.Key = NewKey()
		} else {
			e.reset()
		}
		return []Intent{Insert(m)}
	}
	e.reset()
	return []Intent{Commit(m)}
}

func (e *Editor) captureFreeText() (bool, []Intent) {
	if !e.ec.AllowFreeText {
		return false, nil
	}
	value := strings.TrimPrefix(strings.TrimSpace(e.text), VerbatimComparison)
	value = strings.TrimSuffix(value, VerbatimComparison)
	if strings.TrimSpace(value) == "" {
		return false, nil
	}
	m := FreeTextMatcher(value, VerbatimComparison)
	if e.ec.Matcher != nil {
		m.Key = e.ec.Matcher.Key
	}
	e.reset()
	return true, []Intent{Commit(m)}
}

// validate builds the draft clause for opt (or bracket) and checks it. On
// failure the message is kept on the editor.
func (e *Editor) validate(opt *Option, bracket string) (Matcher, bool) {
	var field Field
	if opt != nil {
		f, ok := e.cfg.Field(opt.Source)
		if ok && e.comparison != "" && !f.Allows(e.comparison) {
			if idx := strings.Index(e.text, e.comparison); idx != -1 {
				e.hlStart = utf8.RuneCountInString(e.text[:idx])
				e.hlEnd = e.hlStart + utf8.RuneCountInString(e.comparison)
				e.caret = e.hlStart
			}
			e.err = fmt.Sprintf("Comparison (%s) isn't valid for %s.", e.comparison, f.Name)
			return Matcher{}, false
		}
		field = f
	}

	m := Matcher{Key: NewKey()}
	if e.ec.Matcher != nil {
		m.Key = e.ec.Matcher.Key
	}
	switch bracket {
	case OpenBracket:
		m.Operator = e.operatorOr("")
		m.Comparison = OpenBracket
	case CloseBracket:
		m.Comparison = CloseBracket
	default:
		m.Operator = e.operatorOr(field.DefaultOperator)
		m.Comparison = e.comparison
		if m.Comparison == "" {
			m.Comparison = e.cfg.DefaultComparison
		}
		m.Source = opt.Source
		m.Value = opt.Value
		m.Text = opt.Text
	}
	if e.ec.Validate != nil {
		if msg := e.ec.Validate(m); msg != "" {
			e.err = msg
			return Matcher{}, false
		}
	}
	return m, true
}

func (e *Editor) operatorOr(fallback string) string {
	if e.operator != "" {
		return e.operator
	}
	if op, ok := e.cfg.OperatorFor(fallback); ok {
		return op
	}
	return OperatorAnd
}

func (e *Editor) refresh() {
	e.flat = Flatten(e.options)
	switch {
	case len(e.flat) == 0:
		e.active = -1
	case e.active < 0:
		e.active = 0
	case e.active >= len(e.flat):
		e.active = len(e.flat) - 1
	}
}

func (e *Editor) reset() {
	e.text = ""
	e.caret = 0
	e.operator, e.comparison, e.matchText = "", "", ""
	e.options = nil
	e.flat = nil
	e.active = -1
	e.committed = true
	e.token = e.gen.Next()
}
