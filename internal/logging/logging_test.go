package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	cases := map[string]zapcore.Level{
		"trace": TraceLevel,
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := LevelFromString(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := LevelFromString("loud")
	assert.Error(t, err)
}

func TestLoggerLevels(t *testing.T) {
	tl := NewTestLogger()
	ctx := context.Background()

	tl.Debug(ctx, "debug message")
	tl.Info(ctx, "info message")
	tl.Warn(ctx, "warn message")
	tl.Error(ctx, "error message")

	tl.AssertLogged(t, zapcore.DebugLevel, "debug message")
	tl.AssertLogged(t, zapcore.InfoLevel, "info message")
	tl.AssertLogged(t, zapcore.WarnLevel, "warn message")
	tl.AssertLogged(t, zapcore.ErrorLevel, "error message")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "info message")
}

func TestLoggerAppendsContextFields(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithComponent(WithRequestID(context.Background(), "req-1"), "syncer")

	tl.Info(ctx, "with context")

	entries := tl.FilterMessage("with context").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request.id"])
	assert.Equal(t, "syncer", fields["component"])
}

func TestContextFieldsEmptyWithoutValues(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "cycle-42")
	assert.Equal(t, "cycle-42", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestNopLoggerIsSafe(t *testing.T) {
	l := Nop()
	l.Info(context.Background(), "ignored")
	assert.NotNil(t, l.Named("x"))
}

func TestNewLoggerValidatesFormat(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "console"
	l, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, l)
}
