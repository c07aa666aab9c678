// Package cel compiles the CEL programs used by field definitions: match
// predicates and value extraction over the typed text, and function validators
// over the clause list.
package cel

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"

	"github.com/oakwood-commons/smartsearch/pkg/search"
)

const (
	// TextVar holds the text being matched.
	TextVar = "text"
	// ClausesVar holds the clause list as maps with key, operator, comparison,
	// source, value and text entries.
	ClausesVar = "clauses"
)

// Evaluator compiles CEL expressions against the search environment.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates an evaluator with the text and clauses variables and the
// strings, encoders, lists and math extensions.
func NewEvaluator() (*Evaluator, error) {
	env, err := newSearchEnv()
	if err != nil {
		return nil, err
	}
	return &Evaluator{env: env}, nil
}

// Environment returns the CEL environment.
func (e *Evaluator) Environment() *cel.Env {
	return e.env
}

func newSearchEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	base := []cel.EnvOption{
		cel.Variable(TextVar, cel.StringType),
		cel.Variable(ClausesVar, cel.ListType(cel.MapType(cel.StringType, cel.DynType))),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	}
	env, err := cel.NewEnv(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating CEL environment: %w", err)
	}
	return env, nil
}

// compile checks expr and, when want is set, that it yields that type (or dyn).
func (e *Evaluator) compile(expr string, want *cel.Type) (cel.Program, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compiling %q: %w", expr, issues.Err())
	}
	if want != nil {
		out := ast.OutputType()
		if !out.IsExactType(want) && !out.IsExactType(cel.DynType) {
			return nil, fmt.Errorf("expression %q yields %s, want %s", expr, out, want)
		}
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("building program for %q: %w", expr, err)
	}
	return prg, nil
}

// Evaluate compiles and runs expr once with vars bound.
func (e *Evaluator) Evaluate(expr string, vars map[string]any) (any, error) {
	prg, err := e.compile(expr, nil)
	if err != nil {
		return nil, err
	}
	return run(prg, vars)
}

func run(prg cel.Program, vars map[string]any) (any, error) {
	if vars == nil {
		vars = map[string]any{}
	}
	if _, ok := vars[TextVar]; !ok {
		vars[TextVar] = ""
	}
	if _, ok := vars[ClausesVar]; !ok {
		vars[ClausesVar] = []any{}
	}
	out, _, err := prg.Eval(vars)
	if err != nil {
		return nil, fmt.Errorf("evaluating: %w", err)
	}
	return ToGo(out), nil
}

// CompilePredicate compiles a boolean expression over text. Evaluation errors
// count as no match.
func (e *Evaluator) CompilePredicate(expr string) (func(text string) bool, error) {
	prg, err := e.compile(expr, cel.BoolType)
	if err != nil {
		return nil, err
	}
	return func(text string) bool {
		v, err := run(prg, map[string]any{TextVar: text})
		if err != nil {
			return false
		}
		b, _ := v.(bool)
		return b
	}, nil
}

// CompileValue compiles a value extraction over text. A failing evaluation
// yields nil, which drops the candidate.
func (e *Evaluator) CompileValue(expr string) (func(text string) search.Value, error) {
	prg, err := e.compile(expr, nil)
	if err != nil {
		return nil, err
	}
	return func(text string) search.Value {
		v, err := run(prg, map[string]any{TextVar: text})
		if err != nil {
			return nil
		}
		return v
	}, nil
}

// CompileValidator compiles a function validator over clauses. The expression
// returns an empty string when the clauses are acceptable and the rejection
// message otherwise.
func (e *Evaluator) CompileValidator(expr string) (func([]search.Matcher) string, error) {
	prg, err := e.compile(expr, cel.StringType)
	if err != nil {
		return nil, err
	}
	return func(ms []search.Matcher) string {
		v, err := run(prg, map[string]any{ClausesVar: Clauses(ms)})
		if err != nil {
			return err.Error()
		}
		s, _ := v.(string)
		return s
	}, nil
}

// Clauses converts matchers into the CEL clause representation.
func Clauses(ms []search.Matcher) []any {
	out := make([]any, 0, len(ms))
	for _, m := range ms {
		out = append(out, map[string]any{
			"key":        m.Key,
			"operator":   m.Operator,
			"comparison": m.Comparison,
			"source":     m.Source,
			"value":      plainValue(m.Value),
			"text":       m.Text,
		})
	}
	return out
}

func plainValue(v search.Value) any {
	switch v := v.(type) {
	case nil:
		return ""
	case string, bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// ToGo converts a CEL value into plain Go values, recursing into lists and maps.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}
	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	}

	valuer, ok := val.(interface{ Value() any })
	if !ok {
		return val
	}
	switch inner := valuer.Value().(type) {
	case []ref.Val:
		out := make([]any, len(inner))
		for i, elem := range inner {
			out[i] = ToGo(elem)
		}
		return out
	case []any:
		out := make([]any, len(inner))
		for i, elem := range inner {
			out[i] = plain(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(inner))
		for k, elem := range inner {
			out[k] = plain(elem)
		}
		return out
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(inner))
		for k, elem := range inner {
			key := fmt.Sprint(k)
			if kv, ok := k.(interface{ Value() any }); ok {
				key = fmt.Sprint(kv.Value())
			}
			out[key] = ToGo(elem)
		}
		return out
	default:
		return inner
	}
}

func plain(v any) any {
	if rv, ok := v.(ref.Val); ok {
		return ToGo(rv)
	}
	return v
}
