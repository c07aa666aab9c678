// Package config holds the declarative definitions file schema (options,
// fields with their lookups and expressions, functions) and compiles it into
// a search.Config.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Definitions is the root of a definitions file.
type Definitions struct {
	Options   Options       `yaml:"options,omitempty"`
	Fields    []FieldDef    `yaml:"fields"`
	Functions []FunctionDef `yaml:"functions,omitempty"`

	// BaseDir resolves relative items_file paths. Load sets it to the file's directory.
	BaseDir string `yaml:"-"`
}

// Options maps onto search.ConfigOption values. Zero values keep the engine defaults.
type Options struct {
	And                    string            `yaml:"and,omitempty"`
	Or                     string            `yaml:"or,omitempty"`
	DefaultComparison      string            `yaml:"default_comparison,omitempty"`
	Operators              string            `yaml:"operators,omitempty"`
	ItemLimit              int               `yaml:"item_limit,omitempty"`
	SearchStartLength      int               `yaml:"search_start_length,omitempty"`
	PromiseDelayMS         *int              `yaml:"promise_delay_ms,omitempty"`
	PasteMatchTimeoutMS    int               `yaml:"paste_match_timeout_ms,omitempty"`
	PasteFreeTextAction    string            `yaml:"paste_free_text_action,omitempty"`
	AllowFreeText          bool              `yaml:"allow_free_text,omitempty"`
	ShowWhenSearching      bool              `yaml:"show_when_searching,omitempty"`
	ShowCategories         bool              `yaml:"show_categories,omitempty"`
	CategoryPosition       string            `yaml:"category_position,omitempty"`
	MaxMatcherWidth        int               `yaml:"max_matcher_width,omitempty"`
	MaxDropDownHeight      int               `yaml:"max_dropdown_height,omitempty"`
	HideHelp               bool              `yaml:"hide_help,omitempty"`
	HideToolTip            bool              `yaml:"hide_tooltip,omitempty"`
	ComparisonDescriptions map[string]string `yaml:"comparison_descriptions,omitempty"`
}

// FieldDef declares one field.
type FieldDef struct {
	Name            string          `yaml:"name"`
	Title           string          `yaml:"title,omitempty"`
	Comparisons     Comparisons     `yaml:"comparisons,omitempty"`
	Precedence      int             `yaml:"precedence,omitempty"`
	SelectionLimit  int             `yaml:"selection_limit,omitempty"`
	Functional      bool            `yaml:"functional,omitempty"`
	HideOnShortcut  bool            `yaml:"hide_on_shortcut,omitempty"`
	DefaultOperator string          `yaml:"default_operator,omitempty"`
	Definitions     []DefinitionDef `yaml:"definitions"`
}

// DefinitionDef is either a lookup (items, items_file or url) or an
// expression (pattern or match, with an optional value).
type DefinitionDef struct {
	Items             []any  `yaml:"items,omitempty"`
	ItemsFile         string `yaml:"items_file,omitempty"`
	URL               string `yaml:"url,omitempty"`
	TimeoutMS         int    `yaml:"timeout_ms,omitempty"`
	TextKey           string `yaml:"text_key,omitempty"`
	ValueKey          string `yaml:"value_key,omitempty"`
	IgnoreCase        bool   `yaml:"ignore_case,omitempty"`
	ItemLimit         int    `yaml:"item_limit,omitempty"`
	SearchStartLength int    `yaml:"search_start_length,omitempty"`
	MatchOnPaste      bool   `yaml:"match_on_paste,omitempty"`

	Pattern string `yaml:"pattern,omitempty"`
	Match   string `yaml:"match,omitempty"`
	Value   string `yaml:"value,omitempty"`
}

// IsLookup reports whether d declares a lookup.
func (d DefinitionDef) IsLookup() bool {
	return d.Items != nil || d.ItemsFile != "" || d.URL != ""
}

// IsExpression reports whether d declares an expression.
func (d DefinitionDef) IsExpression() bool {
	return d.Pattern != "" || d.Match != ""
}

// FunctionDef declares one function.
type FunctionDef struct {
	Name                string   `yaml:"name"`
	RequiredFields      []string `yaml:"required_fields,omitempty"`
	OptionalFields      []string `yaml:"optional_fields,omitempty"`
	NoAndOr             bool     `yaml:"no_and_or,omitempty"`
	NoBrackets          bool     `yaml:"no_brackets,omitempty"`
	AllowFreeText       bool     `yaml:"allow_free_text,omitempty"`
	PasteFreeTextAction string   `yaml:"paste_free_text_action,omitempty"`
	// Validate is a CEL expression over clauses returning "" when valid.
	Validate string `yaml:"validate,omitempty"`
}

// Comparisons is either a preset name (default, string, number) or an explicit list.
type Comparisons []string

// UnmarshalYAML accepts a preset name or a sequence.
func (c *Comparisons) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		preset, err := Preset(node.Value)
		if err != nil {
			return err
		}
		*c = preset
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*c = list
		return nil
	default:
		return fmt.Errorf("line %d: comparisons must be a preset name or a list", node.Line)
	}
}
