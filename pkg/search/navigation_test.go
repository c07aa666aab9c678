package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func optionsFrom(sources ...string) []Option {
	out := make([]Option, len(sources))
	for i, s := range sources {
		out[i] = Option{Source: s, Value: i, Text: s}
	}
	return out
}

func TestNextPrevOption(t *testing.T) {
	assert.Equal(t, 1, NextOption(0, 3))
	assert.Equal(t, 0, NextOption(2, 3), "wraps to top")
	assert.Equal(t, 0, NextOption(-1, 3))
	assert.Equal(t, -1, NextOption(0, 0))

	assert.Equal(t, 1, PrevOption(2, 3))
	assert.Equal(t, 2, PrevOption(0, 3), "wraps to bottom")
	assert.Equal(t, 0, PrevOption(-1, 3))
}

func TestPageOption(t *testing.T) {
	options := optionsFrom("a", "a", "b", "b", "c")
	tests := []struct {
		name   string
		active int
		down   int
		up     int
	}{
		{name: "first category", active: 0, down: 2, up: 0},
		{name: "middle category", active: 2, down: 4, up: 1},
		{name: "second of middle", active: 3, down: 4, up: 1},
		{name: "last category", active: 4, down: 4, up: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.down, PageDownOption(options, tt.active))
			assert.Equal(t, tt.up, PageUpOption(options, tt.active))
		})
	}
	assert.Equal(t, -1, PageDownOption(nil, 0))
}

func TestHomeEndOption(t *testing.T) {
	assert.Equal(t, 0, HomeOption(4))
	assert.Equal(t, 3, EndOption(4))
	assert.Equal(t, -1, HomeOption(0))
	assert.Equal(t, -1, EndOption(0))
}

func TestWindowSize(t *testing.T) {
	assert.Equal(t, 0, WindowSize(1))
	assert.Equal(t, 1, WindowSize(3))
	assert.Equal(t, 4, WindowSize(10))
	assert.Equal(t, 5, WindowSize(11))
	assert.Equal(t, 5, WindowSize(40))
}

func TestWindow(t *testing.T) {
	w := Window(optionsFrom("a", "a", "b"), 0)
	require.Len(t, w.Before, 1)
	require.Len(t, w.After, 1)
	assert.Equal(t, 0, w.Active.Index)
	assert.Equal(t, 2, w.Before[0].Index, "window is circular")
	assert.Equal(t, "End / PgDown", w.Before[0].Hint)
	assert.Equal(t, 1, w.After[0].Index)
	assert.Empty(t, w.After[0].Hint)
}

func TestWindowLarge(t *testing.T) {
	sources := make([]string, 20)
	for i := range sources {
		sources[i] = "a"
	}
	sources[0] = "first"
	w := Window(optionsFrom(sources...), 10)
	require.Len(t, w.Before, 5)
	require.Len(t, w.After, 5)
	assert.Equal(t, 5, w.Before[0].Index)
	assert.Equal(t, 15, w.After[4].Index)
}

func TestWindowEmpty(t *testing.T) {
	w := Window(nil, -1)
	assert.Equal(t, -1, w.Active.Index)
	assert.Empty(t, w.Before)
}
