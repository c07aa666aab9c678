// Package loader reads definition and item files. The format comes from the
// file extension when it is a known one and is sniffed from the content
// otherwise (YAML, multi-document YAML, JSON, NDJSON or TOML).
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrEmptyInput is returned for blank input.
var ErrEmptyInput = errors.New("empty input")

// Format names a serialization format.
type Format string

const (
	FormatYAML   Format = "yaml"
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatTOML   Format = "toml"
)

// FormatFromPath maps a file extension to its format.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	case ".ndjson", ".jsonl":
		return FormatNDJSON, true
	case ".toml":
		return FormatTOML, true
	}
	return "", false
}

var (
	// [server], [[items]], ["table name"], [database.credentials]
	tomlSection = regexp.MustCompile(`^\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	// name = "value", database.host = "localhost"
	tomlKeyValue = regexp.MustCompile(`^(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// Detect guesses the format of input.
func Detect(input string) Format {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "---") || strings.Contains(input, "\n---") {
		return FormatYAML
	}
	if json.Valid([]byte(input)) {
		return FormatJSON
	}
	lines := strings.Split(input, "\n")
	if isLikelyNDJSON(lines) {
		return FormatNDJSON
	}
	if isLikelyTOML(lines) {
		return FormatTOML
	}
	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		return FormatJSON
	}
	return FormatYAML
}

// LoadData parses input into its documents, sniffing the format. Single
// document inputs yield one element.
func LoadData(input string) ([]any, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}
	format := Detect(input)
	docs, err := parse(input, format)
	if err != nil && format != FormatYAML {
		// YAML flow mappings look like JSON, and "[...]" lines inside block
		// scalars look like TOML sections.
		if yamlDocs, yamlErr := parse(input, FormatYAML); yamlErr == nil {
			return yamlDocs, nil
		}
	}
	return docs, err
}

// LoadRoot parses input into a single root. Multi-document input becomes a slice.
func LoadRoot(input string) (any, error) {
	docs, err := LoadData(input)
	if err != nil {
		return nil, err
	}
	return root(docs), nil
}

// LoadFile reads and parses path. A known extension picks the parser; when that
// parser fails the content is sniffed instead.
func LoadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	input := string(data)
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyInput)
	}
	if format, ok := FormatFromPath(path); ok {
		if docs, err := parse(input, format); err == nil {
			return root(docs), nil
		}
	}
	v, err := LoadRoot(input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// DecodeFile loads path in any supported format and decodes it into v, which
// must carry yaml tags. Unknown keys are rejected.
func DecodeFile(path string, v any) error {
	doc, err := LoadFile(path)
	if err != nil {
		return err
	}
	return Decode(doc, v)
}

// Decode converts a parsed document into v through its yaml tags. Unknown keys
// are rejected.
func Decode(doc any, v any) error {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("re-encoding document: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding: %w", err)
	}
	return nil
}

// LoadItems reads a lookup item file: a list, NDJSON lines, or a mapping with an
// "items" list.
func LoadItems(path string) ([]any, error) {
	doc, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if items, ok := v["items"].([]any); ok {
			return items, nil
		}
	}
	return nil, fmt.Errorf("%s: want a list of items, got %T", path, doc)
}

func root(docs []any) any {
	if len(docs) == 1 {
		return docs[0]
	}
	return docs
}

func parse(input string, format Format) ([]any, error) {
	switch format {
	case FormatJSON:
		return loadJSON(input)
	case FormatNDJSON:
		return loadNDJSON(input)
	case FormatTOML:
		return loadTOML(input)
	default:
		return loadYAML(input)
	}
}

func loadJSON(input string) ([]any, error) {
	var data any
	if err := json.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return []any{data}, nil
}

// loadYAML decodes every document of input, skipping empty ones.
func loadYAML(input string) ([]any, error) {
	var docs []any
	dec := yaml.NewDecoder(strings.NewReader(input))
	for {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no YAML documents found")
	}
	return docs, nil
}

// loadNDJSON parses one JSON value per line. Lines that are not JSON are kept
// as plain strings.
func loadNDJSON(input string) ([]any, error) {
	var out []any
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			out = append(out, line)
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, ErrEmptyInput
	}
	return out, nil
}

func loadTOML(input string) ([]any, error) {
	var data map[string]any
	if err := toml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return []any{data}, nil
}

// isLikelyNDJSON requires several non-empty lines, most of them starting like JSON.
func isLikelyNDJSON(lines []string) bool {
	var jsonLines, nonEmpty int
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonLines++
		}
	}
	return nonEmpty > 1 && jsonLines > nonEmpty/2
}

// isLikelyTOML looks for unindented section headers or a majority of key = value lines.
func isLikelyTOML(lines []string) bool {
	var sections, keyValues, nonEmpty int
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmpty++
		if tomlSection.MatchString(line) {
			sections++
		}
		if tomlKeyValue.MatchString(line) {
			keyValues++
		}
	}
	return sections > 0 || (nonEmpty > 0 && keyValues > nonEmpty/2)
}
