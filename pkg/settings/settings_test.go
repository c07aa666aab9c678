package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCliParams(t *testing.T) {
	p := NewCliParams()
	assert.True(t, p.ExitOnError)
	assert.Zero(t, p.MinLogLevel)
	assert.False(t, p.Interactive())

	p.LogFile = "/tmp/smartsearch.log"
	assert.True(t, p.Interactive())
}

func TestContextRoundTrip(t *testing.T) {
	want := &Run{NoColor: true, DefinitionsPath: "fields.yaml"}
	ctx := IntoContext(context.Background(), want)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, want, got)
	assert.Same(t, want, FromContextOrDefault(ctx))
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	_, ok = FromContext(IntoContext(context.Background(), nil))
	assert.False(t, ok, "nil settings are treated as absent")

	assert.True(t, FromContextOrDefault(context.Background()).ExitOnError)
}
