package logger

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsSameInstance(t *testing.T) {
	first := Get(0)
	require.NotNil(t, first)
	assert.Same(t, first, Get(-1))
}

func TestInitIsOnce(t *testing.T) {
	log := Get(0)
	again, err := Init(0, t.TempDir()+"/ignored.log")
	require.NoError(t, err)
	assert.Same(t, log, again, "later calls do not reconfigure the sink")
}

func TestGetFallsBackToNoop(t *testing.T) {
	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()

	assert.Same(t, &defaultNoopLogger, Get(0))
	assert.Same(t, &defaultNoopLogger, GetGlobalLogger())
	assert.Same(t, &defaultNoopLogger, FromContext(context.Background()))
}

func TestWithLogger(t *testing.T) {
	log := Get(0)
	ctx := WithLogger(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
	assert.Equal(t, ctx, WithLogger(ctx, log), "same logger keeps the context")

	other := logr.Discard()
	replaced := WithLogger(ctx, &other)
	assert.Same(t, &other, FromContext(replaced))
}

func TestFromContextUsesGlobal(t *testing.T) {
	assert.Same(t, Get(0), FromContext(context.Background()))
}

func TestSyncWithoutLogger(t *testing.T) {
	orig := globalZapLogger
	globalZapLogger = nil
	defer func() { globalZapLogger = orig }()

	assert.NotPanics(t, Sync)
}

func TestNoopLogger(t *testing.T) {
	log := GetNoopLogger()
	assert.NotPanics(t, func() { log.Info("discarded") })
}
