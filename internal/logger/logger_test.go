package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	assert.True(t, NewLogger(true).Core().Enabled(zapcore.DebugLevel))
	assert.False(t, NewLogger(false).Core().Enabled(zapcore.DebugLevel))
	assert.True(t, NewLogger(false).Core().Enabled(zapcore.InfoLevel))
}

func TestNewLoggerWithLevel(t *testing.T) {
	l, err := NewLoggerWithLevel("warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	_, err = NewLoggerWithLevel("chatty")
	assert.Error(t, err)
}
