package search

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// pasteCandidate is one field that recognised a pasted token.
type pasteCandidate struct {
	field  Field
	index  int
	option Option
}

// better reports whether p beats q: higher precedence, then earlier declaration.
func (p pasteCandidate) better(q pasteCandidate) bool {
	if p.field.Precedence != q.field.Precedence {
		return p.field.Precedence > q.field.Precedence
	}
	return p.index < q.index
}

// pasteSlot is one clause position in the pasted text.
type pasteSlot struct {
	token      string
	operator   string
	comparison string
	bracket    *Matcher
	candidates []pasteCandidate
}

type pasteJob struct {
	slot   int
	field  Field
	index  int
	lookup *Lookup
}

const (
	raceRunning int32 = iota
	raceDone
	raceCancel
)

// pasteRace collects asynchronous paste matches until the first of "all jobs
// finished" and "timeout" finalizes it. Matches arriving after that are dropped.
type pasteRace struct {
	state   atomic.Int32
	mu      sync.Mutex
	matches map[int][]pasteCandidate
}

func (r *pasteRace) record(slot int, cand pasteCandidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Load() != raceRunning {
		return
	}
	r.matches[slot] = append(r.matches[slot], cand)
}

// finalize settles the race once. It reports false when it was already settled.
func (r *pasteRace) finalize(outcome int32) (map[int][]pasteCandidate, bool) {
	if !r.state.CompareAndSwap(raceRunning, outcome) {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int][]pasteCandidate, len(r.matches))
	for k, v := range r.matches {
		out[k] = append([]pasteCandidate(nil), v...)
	}
	return out, true
}

// SplitFunction strips a leading function name from pasted text when no
// function is active.
func SplitFunction(text string, cfg Config, active *Function) (*Function, string) {
	if active != nil || len(cfg.Functions) == 0 {
		return active, text
	}
	trimmed := strings.TrimSpace(text)
	head, rest, _ := strings.Cut(trimmed, " ")
	if fn, ok := cfg.Function(head); ok {
		return fn, strings.TrimSpace(rest)
	}
	return nil, text
}

// ParseText turns pasted text into clauses. Tokens are matched against the
// paste-enabled definitions of the eligible fields; asynchronous matches race
// against cfg.PasteMatchTimeout. Unmatched tokens follow the free text policy.
func ParseText(ctx context.Context, text string, cfg Config, fn *Function) []Matcher {
	log := logr.FromContextOrDiscard(ctx)
	slots := tokenizePaste(text, cfg, fn)

	var jobs []pasteJob
	for i := range slots {
		if slots[i].bracket != nil {
			continue
		}
		jobs = append(jobs, matchSync(cfg, fn, i, &slots[i])...)
	}

	if len(jobs) > 0 {
		matches, outcome := racePaste(ctx, cfg.PasteMatchTimeout, slots, jobs, log)
		log.V(1).Info("paste match settled", "outcome", outcome, "jobs", len(jobs))
		for i, cands := range matches {
			slots[i].candidates = append(slots[i].candidates, cands...)
		}
	}
	return assemble(text, cfg, fn, slots)
}

func tokenizePaste(text string, cfg Config, fn *Function) []pasteSlot {
	var (
		slots      []pasteSlot
		operator   string
		comparison string
	)
	operators, brackets := cfg.OperatorsAllowed(fn), cfg.BracketsAllowed(fn)
	for _, token := range SplitPaste(text) {
		if strings.TrimSpace(token) == "" {
			continue
		}
		if op, ok := cfg.OperatorFor(token); ok && operators {
			operator = op
			continue
		}
		if cfg.IsComparison(token) {
			comparison = token
			continue
		}
		if brackets && (token == OpenBracket || token == CloseBracket) {
			op := operator
			if op == "" {
				op = OperatorAnd
			}
			b := BracketMatcher(token, op)
			slots = append(slots, pasteSlot{bracket: &b})
			operator, comparison = "", ""
			continue
		}
		if d := cfg.decodeComparison(token, false); d.comparison != "" && d.remainder != "" {
			comparison, token = d.comparison, d.remainder
		}
		slots = append(slots, pasteSlot{token: token, operator: operator, comparison: comparison})
		operator, comparison = "", ""
	}
	return slots
}

// matchSync records the synchronous candidates of slot and returns the
// asynchronous jobs it needs.
func matchSync(cfg Config, fn *Function, slot int, s *pasteSlot) []pasteJob {
	var jobs []pasteJob
	for index, f := range cfg.Fields {
		if !Eligible(f, fn) {
			continue
		}
		if s.comparison != "" && !f.Allows(s.comparison) {
			continue
		}
		for _, def := range f.Definitions {
			switch d := def.(type) {
			case *Lookup:
				if utf8.RuneCountInString(s.token) < d.SearchStartLength {
					continue
				}
				if d.Async() {
					if d.PasteMatch != nil {
						jobs = append(jobs, pasteJob{slot: slot, field: f, index: index, lookup: d})
					}
					continue
				}
				if !d.MatchOnPaste {
					continue
				}
				for _, item := range d.Items {
					if pasteEquals(d, item, s.token) {
						s.candidates = append(s.candidates, pasteCandidate{
							field:  f,
							index:  index,
							option: Option{Source: f.Name, Value: d.ValueOf(item), Text: d.TextOf(item)},
						})
						break
					}
				}
			case *Expression:
				if !d.MatchOnPaste || !d.Matches(s.token) {
					continue
				}
				if value := d.ValueOf(s.token); value != nil {
					s.candidates = append(s.candidates, pasteCandidate{
						field:  f,
						index:  index,
						option: Option{Source: f.Name, Value: value, Text: s.token},
					})
				}
			}
		}
	}
	return jobs
}

func pasteEquals(l *Lookup, item SourceItem, token string) bool {
	text := l.TextOf(item)
	if l.IgnoreCase {
		return strings.EqualFold(text, token)
	}
	return text == token
}

func racePaste(ctx context.Context, timeout time.Duration, slots []pasteSlot, jobs []pasteJob, log logr.Logger) (map[int][]pasteCandidate, string) {
	race := &pasteRace{matches: make(map[int][]pasteCandidate)}
	var g errgroup.Group
	for _, job := range jobs {
		token := slots[job.slot].token
		g.Go(func() error {
			item, ok, err := job.lookup.PasteMatch(ctx, token)
			if err != nil {
				log.V(1).Info("paste match failed", "field", job.field.Name, "error", err.Error())
				return nil
			}
			if ok {
				race.record(job.slot, pasteCandidate{
					field:  job.field,
					index:  job.index,
					option: Option{Source: job.field.Name, Value: job.lookup.ValueOf(item), Text: job.lookup.TextOf(item)},
				})
			}
			return nil
		})
	}
	finished := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(finished)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	outcome, label := raceDone, "done"
	select {
	case <-finished:
	case <-timer.C:
		outcome, label = raceCancel, "cancel"
	case <-ctx.Done():
		outcome, label = raceCancel, "cancel"
	}
	matches, _ := race.finalize(outcome)
	return matches, label
}

// assemble builds the clauses from the settled slots, applying the free text policy.
func assemble(text string, cfg Config, fn *Function, slots []pasteSlot) []Matcher {
	action := cfg.PasteFreeTextAction
	if fn != nil && fn.PasteFreeTextAction != "" {
		action = fn.PasteFreeTextAction
	}

	var (
		out       []Matcher
		unmatched []string
	)
	for _, s := range slots {
		if s.bracket != nil {
			out = append(out, *s.bracket)
			continue
		}
		if len(s.candidates) == 0 {
			unmatched = append(unmatched, s.token)
			if action == FreeTextIndividual {
				out = append(out, FreeTextMatcher(s.token, ""))
			}
			continue
		}
		best := s.candidates[0]
		for _, cand := range s.candidates[1:] {
			if cand.better(best) {
				best = cand
			}
		}
		operator := s.operator
		if operator == "" {
			operator = OperatorAnd
			if op, ok := cfg.OperatorFor(best.field.DefaultOperator); ok {
				operator = op
			}
		}
		comparison := s.comparison
		if comparison == "" {
			comparison = cfg.DefaultComparison
		}
		out = append(out, Matcher{
			Key:        NewKey(),
			Operator:   operator,
			Comparison: comparison,
			Source:     best.option.Source,
			Value:      best.option.Value,
			Text:       best.option.Text,
		})
	}

	switch action {
	case FreeTextCombined:
		if joined := strings.TrimSpace(strings.Join(unmatched, " ")); joined != "" {
			out = append([]Matcher{FreeTextMatcher(joined, "")}, out...)
		}
	case FreeTextOriginal:
		if original := strings.TrimSpace(text); original != "" {
			out = append([]Matcher{FreeTextMatcher(original, "")}, out...)
		}
	}
	return out
}

// Paste parses text and appends the resulting clauses. A leading function
// name activates that function. It returns the clauses added.
func (c *Controller) Paste(ctx context.Context, text string) []Matcher {
	fn, rest := SplitFunction(text, c.cfg, c.function)
	if fn != nil && c.function == nil {
		c.SetFunction(fn.Name)
	}
	if _, err := logr.FromContext(ctx); err != nil {
		ctx = logr.NewContext(ctx, c.log)
	}
	ms := ParseText(ctx, rest, c.cfg, fn)
	c.AppendMatchers(ms...)
	return ms
}
