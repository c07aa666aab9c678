package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Format
	}{
		{"json object", `{"name": "test"}`, FormatJSON},
		{"json array", `[1, 2, 3]`, FormatJSON},
		{"pretty json", "[\n  {\n    \"a\": 1\n  },\n  {\n    \"a\": 2\n  }\n]", FormatJSON},
		{"ndjson", "{\"id\": 1}\n{\"id\": 2}", FormatNDJSON},
		{"toml section", "[server]\nhost = \"localhost\"", FormatTOML},
		{"toml keys", "name = \"x\"\nport = 8080", FormatTOML},
		{"yaml", "name: test\nvalue: 42", FormatYAML},
		{"multi doc yaml", "a: 1\n---\na: 2", FormatYAML},
		{"yaml list", "- apple\n- banana", FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.input))
		})
	}
}

func TestLoadData(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := LoadData("  \n ")
		require.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("multi document yaml", func(t *testing.T) {
		got, err := LoadData("name: Alice\n---\nname: Bob\n---\nname: Charlie")
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("ndjson keeps plain lines", func(t *testing.T) {
		got, err := LoadData("{\"id\": 1}\n{\"id\": 2}\nnot json\r\n")
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "not json", got[2])
	})

	t.Run("flow mapping falls back to yaml", func(t *testing.T) {
		got, err := LoadData(`{invalid}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"invalid": nil}, got[0])
	})

	t.Run("indented brackets stay yaml", func(t *testing.T) {
		input := "items:\n  - when: a\n    expression: |\n      [\"legacy\"]\n"
		got, err := LoadData(input)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.IsType(t, map[string]any{}, got[0])
	})

	t.Run("toml", func(t *testing.T) {
		got, err := LoadData("[server]\nhost = \"localhost\"\nport = 8080\n")
		require.NoError(t, err)
		server := got[0].(map[string]any)["server"].(map[string]any)
		assert.Equal(t, "localhost", server["host"])
		assert.Equal(t, int64(8080), server["port"])
	})
}

func TestLoadRoot(t *testing.T) {
	single, err := LoadRoot("name: Alice")
	require.NoError(t, err)
	assert.IsType(t, map[string]any{}, single)

	multi, err := LoadRoot("name: Alice\n---\nname: Bob")
	require.NoError(t, err)
	assert.Len(t, multi, 2)
}

func TestLoadFileHonorsExtension(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		root, err := LoadFile(writeFile(t, "data.yml", "name: test\n"))
		require.NoError(t, err)
		assert.Equal(t, "test", root.(map[string]any)["name"])
	})

	t.Run("json", func(t *testing.T) {
		root, err := LoadFile(writeFile(t, "data.json", `{"key":"val"}`))
		require.NoError(t, err)
		assert.Equal(t, "val", root.(map[string]any)["key"])
	})

	t.Run("toml", func(t *testing.T) {
		root, err := LoadFile(writeFile(t, "data.toml", "[server]\nhost = \"localhost\"\n"))
		require.NoError(t, err)
		assert.Contains(t, root.(map[string]any), "server")
	})

	t.Run("wrong extension falls back to sniffing", func(t *testing.T) {
		root, err := LoadFile(writeFile(t, "oops.toml", `{"key":"val"}`))
		require.NoError(t, err)
		assert.Equal(t, "val", root.(map[string]any)["key"])
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := LoadFile(writeFile(t, "empty.yaml", "\n"))
		require.ErrorIs(t, err, ErrEmptyInput)
	})
}

func TestDecodeFile(t *testing.T) {
	type doc struct {
		Name  string   `yaml:"name"`
		Items []string `yaml:"items"`
		Limit int      `yaml:"limit"`
	}

	t.Run("toml", func(t *testing.T) {
		var d doc
		require.NoError(t, DecodeFile(writeFile(t, "d.toml", "name = \"books\"\nitems = [\"a\", \"b\"]\nlimit = 3\n"), &d))
		assert.Equal(t, doc{Name: "books", Items: []string{"a", "b"}, Limit: 3}, d)
	})

	t.Run("json", func(t *testing.T) {
		var d doc
		require.NoError(t, DecodeFile(writeFile(t, "d.json", `{"name":"books","limit":5}`), &d))
		assert.Equal(t, 5, d.Limit)
	})

	t.Run("unknown key", func(t *testing.T) {
		var d doc
		err := DecodeFile(writeFile(t, "d.yaml", "name: x\nbogus: 1\n"), &d)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bogus")
	})
}

func TestLoadItems(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    []any
		wantErr bool
	}{
		{"yaml list", "i.yaml", "- apple\n- banana\n", []any{"apple", "banana"}, false},
		{"items key", "i.json", `{"items": ["x"]}`, []any{"x"}, false},
		{"ndjson", "i.ndjson", "{\"id\": 1}\n{\"id\": 2}\n", []any{map[string]any{"id": float64(1)}, map[string]any{"id": float64(2)}}, false},
		{"scalar", "i.yaml", "just text", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadItems(writeFile(t, tt.file, tt.content))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
