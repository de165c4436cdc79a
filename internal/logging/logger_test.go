package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Level(t *testing.T) {
	t.Parallel()

	debug := NewLogger(true)
	require.NotNil(t, debug)
	assert.True(t, debug.Desugar().Core().Enabled(zapcore.DebugLevel))

	prod := NewLogger(false)
	require.NotNil(t, prod)
	assert.False(t, prod.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.Desugar().Core().Enabled(zapcore.InfoLevel))
}

func TestDefaultLogger_Shared(t *testing.T) {
	t.Parallel()

	assert.Same(t, DefaultLogger(), DefaultLogger())
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	assert.Same(t, DefaultLogger(), FromContext(context.Background()))

	room := NewLogger(false).Named("room")
	ctx := WithLogger(context.Background(), room)
	assert.Same(t, room, FromContext(ctx))
}
