package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		errMsg  string
	}{
		{name: "valid limit only", cfg: Config{Limit: 10}},
		{name: "valid offset only", cfg: Config{Offset: 5}},
		{name: "valid limit and offset", cfg: Config{Limit: 10, Offset: 5}},
		{name: "tail ignores offset (valid)", cfg: Config{Tail: 10, Offset: 5}},
		{name: "limit and tail mutually exclusive", cfg: Config{Limit: 10, Tail: 5}, wantErr: true, errMsg: "mutually exclusive"},
		{name: "negative limit invalid", cfg: Config{Limit: -1}, wantErr: true, errMsg: "non-negative"},
		{name: "negative offset invalid", cfg: Config{Offset: -1}, wantErr: true, errMsg: "non-negative"},
		{name: "negative tail invalid", cfg: Config{Tail: -1}, wantErr: true, errMsg: "non-negative"},
		{name: "zero values valid", cfg: Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSlice(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{name: "inactive", cfg: Config{}, want: items},
		{name: "limit", cfg: Config{Limit: 2}, want: []string{"a", "b"}},
		{name: "limit larger than input", cfg: Config{Limit: 9}, want: items},
		{name: "offset", cfg: Config{Offset: 3}, want: []string{"d", "e"}},
		{name: "offset and limit", cfg: Config{Offset: 1, Limit: 2}, want: []string{"b", "c"}},
		{name: "offset past end", cfg: Config{Offset: 10}, want: []string{}},
		{name: "tail", cfg: Config{Tail: 2}, want: []string{"d", "e"}},
		{name: "tail larger than input", cfg: Config{Tail: 10}, want: items},
		{name: "tail ignores offset", cfg: Config{Tail: 1, Offset: 2}, want: []string{"e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slice(tt.cfg, items))
		})
	}
}

func TestCap(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, Slice(Cap(3), []int{1, 2, 3, 4}))
	assert.Nil(t, Slice(Cap(3), []int(nil)))
}
