// Package ui implements the interactive chip search bar on top of the
// matcher-edit engine: one chip per clause, an inline editor, the floating
// option list, debounced lookups, paste, copy and mouse reordering.
package ui

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/smartsearch/pkg/search"
)

// Result is what the search bar held when the program ended.
type Result struct {
	Matchers  []search.Matcher
	Function  string
	Completed bool
}

// outcome is shared by every copy of a Model so the controller's completion
// callback reaches whichever copy the program is running.
type outcome struct {
	result Result
	done   bool
}

type (
	lookupResultMsg struct{ result search.LookupResult }
	delayedClearMsg struct {
		token    search.Token
		category string
	}
	pasteResultMsg struct {
		matchers []search.Matcher
	}
	clipboardMsg struct {
		text string
		err  error
	}
)

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithModelLogger sets the logger handed to the controller and editors.
func WithModelLogger(log logr.Logger) ModelOption {
	return func(m *Model) { m.log = log }
}

// WithContext sets the context lookups and paste matching run under.
func WithContext(ctx context.Context) ModelOption {
	return func(m *Model) { m.ctx = ctx }
}

// WithControllerOptions passes extra options to the controller. A
// search.WithOnComplete given here replaces the bar's own completion handling.
func WithControllerOptions(opts ...search.ControllerOption) ModelOption {
	return func(m *Model) { m.controllerOpts = append(m.controllerOpts, opts...) }
}

// Model is the bubbletea model of the search bar.
type Model struct {
	Controller *search.Controller
	Keys       KeyMap

	NoColor     bool
	HelpVisible bool
	DebugMode   bool
	// Synchronous runs lookups, paste matching and clipboard reads inline.
	// Snapshots and the startup key simulator rely on it.
	Synchronous bool
	// QuitOnComplete ends the program once a completion is accepted.
	QuitOnComplete bool

	WinWidth         int
	WinHeight        int
	ForceWindowSize  bool
	DesiredWinWidth  int
	DesiredWinHeight int

	Status  string
	LastKey string

	editor         *search.Editor
	editingKey     string
	gen            *search.Generation
	input          textinput.Model
	drag           dragState
	out            *outcome
	ctx            context.Context
	log            logr.Logger
	controllerOpts []search.ControllerOption
	debug          DebugModel
}

// InitialModel builds a search bar for cfg.
func InitialModel(cfg search.Config, opts ...ModelOption) Model {
	m := Model{
		Keys:      DefaultKeyMap(),
		WinWidth:  80,
		WinHeight: 24,
		gen:       &search.Generation{},
		out:       &outcome{},
		ctx:       context.Background(),
		log:       logr.Discard(),
		debug:     NewDebugModel(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	out := m.out
	controllerOpts := append([]search.ControllerOption{
		search.WithLogger(m.log),
		search.WithOnComplete(func(ms []search.Matcher, fn string) {
			out.result = Result{Matchers: ms, Function: fn, Completed: true}
			out.done = true
		}),
	}, m.controllerOpts...)
	m.Controller = search.NewController(cfg, controllerOpts...)
	m.HelpVisible = !cfg.HideHelp

	ti := textinput.New()
	ti.Prompt = ""
	ti.KeyMap.Paste.SetEnabled(false)
	ti.SetWidth(minInputWidth)
	ti.Focus()
	m.input = ti

	m.syncEditor()
	m.syncLayout()
	return m
}

// Init starts the cursor blink.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Editor returns the clause editor currently receiving keys.
func (m *Model) Editor() *search.Editor { return m.editor }

// Result reports the accepted completion, or the current clauses when the bar
// was left without completing.
func (m *Model) Result() Result {
	if m.out.result.Completed {
		return m.out.result
	}
	return Result{Matchers: m.Controller.Matchers(), Function: m.Controller.FunctionName()}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer m.syncLayout()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w, h := msg.Width, msg.Height
		if m.ForceWindowSize {
			if m.DesiredWinWidth > 0 {
				w = m.DesiredWinWidth
			}
			if m.DesiredWinHeight > 0 {
				h = m.DesiredWinHeight
			}
		}
		m.WinWidth, m.WinHeight = w, h
		return m, nil

	case lookupResultMsg:
		return m, m.applyLookup(msg.result)

	case delayedClearMsg:
		m.editor.ClearDelayed(msg.token, msg.category)
		return m, nil

	case pasteResultMsg:
		m.Controller.AppendMatchers(msg.matchers...)
		m.Status = fmt.Sprintf("pasted %d clauses", len(msg.matchers))
		m.syncEditor()
		return m, nil

	case clipboardMsg:
		if msg.err != nil {
			m.Status = "paste failed: " + msg.err.Error()
			return m, nil
		}
		return m, m.paste(msg.text)

	case tea.PasteMsg:
		return m, m.paste(msg.Content)

	case tea.MouseClickMsg:
		return m, m.mouseClick(msg.Mouse())

	case tea.MouseMotionMsg:
		m.mouseMotion(msg.Mouse())
		return m, nil

	case tea.MouseReleaseMsg:
		m.mouseRelease(msg.Mouse())
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	m.LastKey = msg.String()
	m.log.V(2).Info("key", "key", m.LastKey)

	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Help):
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case key.Matches(msg, m.Keys.Copy):
		m.copy()
		return m, nil
	case key.Matches(msg, m.Keys.Paste):
		return m, m.readClipboard()
	}

	if k, ok := searchKey(msg); ok {
		m.Status = ""
		m.editor.SetCaret(m.input.Position())
		if consumed, intents := m.editor.HandleKey(k); consumed {
			m.apply(intents)
			return m, nil
		}
		if m.Controller.HandleKey(k) {
			m.syncEditor()
			return m, m.completed()
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		m.editor.SetCaret(m.input.Position())
		return m, cmd
	}
	return m, tea.Batch(cmd, m.setText(m.input.Value()))
}

// completed reacts to an accepted completion.
func (m *Model) completed() tea.Cmd {
	if !m.out.done {
		return nil
	}
	m.out.done = false
	m.Status = "search complete"
	m.log.Info("search complete", "clauses", len(m.out.result.Matchers), "function", m.out.result.Function)
	if m.QuitOnComplete {
		return tea.Quit
	}
	return nil
}

// setText feeds the editor a new text and schedules the lookups it asks for.
func (m *Model) setText(text string) tea.Cmd {
	intents, requests := m.editor.SetText(text)
	m.editor.SetCaret(m.input.Position())
	m.apply(intents)
	return m.schedule(requests)
}

// apply hands editor intents to the controller and follows the edit position.
func (m *Model) apply(intents []search.Intent) {
	if len(intents) > 0 {
		target := m.editor.Matcher()
		for _, in := range intents {
			m.Controller.Apply(target, in)
		}
	}
	m.syncEditor()
}

// syncEditor points the editor at the controller's active clause. The editor
// survives when it still edits the same clause, so typed text is kept.
func (m *Model) syncEditor() {
	active := m.Controller.Active()
	ms := m.Controller.Matchers()
	var target *search.Matcher
	editing := ""
	if active >= 0 && active < len(ms) {
		target = &ms[active]
		editing = target.Key
	}
	if m.editor != nil && editing == m.editingKey {
		m.editor.Rebind(m.Controller.EditorContext(target))
	} else {
		m.editingKey = editing
		m.editor = m.Controller.EditorFor(active, search.WithGeneration(m.gen))
	}
	if m.input.Value() != m.editor.Text() {
		m.input.SetValue(m.editor.Text())
		m.input.SetCursor(m.editor.Caret())
	}
}

// schedule turns lookup requests into commands. Each waits out its debounce
// delay off the event loop and reports back only while its token is current.
func (m *Model) schedule(requests []search.LookupRequest) tea.Cmd {
	if len(requests) == 0 {
		return nil
	}
	if m.Synchronous {
		for _, req := range requests {
			req.Delay = 0
			if res, ok := search.RunLookup(m.ctx, m.gen, req); ok {
				m.applyLookup(res)
			}
		}
		return nil
	}
	ctx, gen := m.ctx, m.gen
	cmds := make([]tea.Cmd, 0, len(requests))
	for _, req := range requests {
		cmds = append(cmds, func() tea.Msg {
			res, ok := search.RunLookup(ctx, gen, req)
			if !ok {
				return nil
			}
			return lookupResultMsg{result: res}
		})
	}
	return tea.Batch(cmds...)
}

// applyLookup merges a lookup result and, for slow lookups, schedules the
// clearing of the delayed flag.
func (m *Model) applyLookup(res search.LookupResult) tea.Cmd {
	if !m.editor.ApplyLookup(res) {
		return nil
	}
	if m.Synchronous || res.Elapsed <= search.DelayedThreshold {
		return nil
	}
	token, category := res.Request.Token, res.Request.Field.Title
	return tea.Tick(search.DelayedDisplay, func(time.Time) tea.Msg {
		return delayedClearMsg{token: token, category: category}
	})
}

// paste appends the clauses parsed from text. A leading function name is
// activated right away; matching runs off the event loop.
func (m *Model) paste(text string) tea.Cmd {
	ctx := logr.NewContext(m.ctx, m.log)
	if m.Synchronous {
		added := m.Controller.Paste(ctx, text)
		m.Status = fmt.Sprintf("pasted %d clauses", len(added))
		m.syncEditor()
		return nil
	}
	cfg := m.Controller.Config()
	fn, rest := search.SplitFunction(text, cfg, m.Controller.Function())
	if fn != nil && m.Controller.FunctionName() == "" {
		m.Controller.SetFunction(fn.Name)
		m.syncEditor()
	}
	return func() tea.Msg {
		return pasteResultMsg{matchers: search.ParseText(ctx, rest, cfg, fn)}
	}
}

func (m *Model) readClipboard() tea.Cmd {
	if m.Synchronous {
		text, err := ReadClipboard()
		if err != nil {
			m.Status = "paste failed: " + err.Error()
			return nil
		}
		return m.paste(text)
	}
	return func() tea.Msg {
		text, err := ReadClipboard()
		return clipboardMsg{text: text, err: err}
	}
}

func (m *Model) copy() {
	text := m.Controller.CopyText()
	if err := CopyToClipboard(text); err != nil {
		m.Status = "copy failed: " + err.Error()
		return
	}
	m.Status = "copied " + text
}
