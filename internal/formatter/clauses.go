package formatter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/oakwood-commons/smartsearch/pkg/search"
)

// Output formats.
const (
	OutputTable = "table"
	OutputYAML  = "yaml"
	OutputJSON  = "json"
	OutputTOML  = "toml"
	OutputText  = "text"
	OutputTree  = "tree"
)

// Outputs lists the accepted output names.
var Outputs = []string{OutputTable, OutputYAML, OutputJSON, OutputTOML, OutputText, OutputTree}

// ValidateOutput rejects unknown output names.
func ValidateOutput(name string) error {
	for _, f := range Outputs {
		if f == name {
			return nil
		}
	}
	return fmt.Errorf("invalid output %q: valid values are %s", name, strings.Join(Outputs, ", "))
}

// Options control clause rendering.
type Options struct {
	Format   string
	Function string
	Config   search.Config
	NoColor  bool
	// Width caps the table width (0 = unlimited).
	Width int
}

// Clause is the serialized form of one clause.
type Clause struct {
	Key        string `json:"key" yaml:"key" toml:"key"`
	Operator   string `json:"operator,omitempty" yaml:"operator,omitempty" toml:"operator,omitempty"`
	Comparison string `json:"comparison,omitempty" yaml:"comparison,omitempty" toml:"comparison,omitempty"`
	Source     string `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty"`
	Text       string `json:"text,omitempty" yaml:"text,omitempty" toml:"text,omitempty"`
	Value      any    `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
}

// Document is what the structured formats emit.
type Document struct {
	Function string   `json:"function,omitempty" yaml:"function,omitempty" toml:"function,omitempty"`
	Clauses  []Clause `json:"clauses" yaml:"clauses" toml:"clauses"`
}

// NewDocument converts matchers into their serialized form.
func NewDocument(matchers []search.Matcher, function string) Document {
	doc := Document{Function: function, Clauses: make([]Clause, 0, len(matchers))}
	for _, m := range matchers {
		doc.Clauses = append(doc.Clauses, Clause{
			Key:        m.Key,
			Operator:   m.Operator,
			Comparison: m.Comparison,
			Source:     m.Source,
			Text:       m.Text,
			Value:      m.Value,
		})
	}
	return doc
}

// Format renders matchers in opts.Format.
func Format(matchers []search.Matcher, opts Options) (string, error) {
	switch opts.Format {
	case "", OutputTable:
		return FormatAsTable(matchers, opts), nil
	case OutputYAML:
		return FormatYAML(NewDocument(matchers, opts.Function), YAMLFormatOptions{LiteralBlockStrings: true})
	case OutputJSON:
		b, err := json.MarshalIndent(NewDocument(matchers, opts.Function), "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding JSON: %w", err)
		}
		return string(b) + "\n", nil
	case OutputTOML:
		doc := NewDocument(matchers, opts.Function)
		for i := range doc.Clauses {
			if doc.Clauses[i].Value != nil {
				doc.Clauses[i].Value = Stringify(doc.Clauses[i].Value)
			}
		}
		b, err := toml.Marshal(doc)
		if err != nil {
			return "", fmt.Errorf("encoding TOML: %w", err)
		}
		return string(b), nil
	case OutputText:
		return search.CopyText(matchers, opts.Function, opts.Config) + "\n", nil
	case OutputTree:
		return FormatAsTree(matchers, opts.Function, opts.Config), nil
	}
	return "", ValidateOutput(opts.Format)
}

// FormatAsTable renders one row per clause. Mismatched brackets are flagged.
func FormatAsTable(matchers []search.Matcher, opts Options) string {
	mismatched := make(map[int]bool)
	for _, i := range search.MismatchedBrackets(matchers) {
		mismatched[i] = true
	}
	header := []string{"#", "OPERATOR", "COMPARISON", "SOURCE", "TEXT", "VALUE"}
	rows := make([][]string, 0, len(matchers))
	for i, m := range matchers {
		op := m.Operator
		if normalised, ok := opts.Config.OperatorFor(op); ok {
			op = normalised
		}
		comparison := m.Comparison
		if mismatched[i] {
			comparison += " (unmatched)"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1), op, comparison, m.Source, m.Text, Stringify(m.Value),
		})
	}
	out := RenderRows(header, rows, opts.NoColor, opts.Width)
	if opts.Function != "" {
		out = "function: " + opts.Function + "\n" + out
	}
	return out
}
