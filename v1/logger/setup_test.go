package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Aleph-Alpha/dbaccess/v1/access"
)

var _ access.Logger = (*Logger)(nil)

func TestLevelOf(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{Debug, zapcore.DebugLevel},
		{Info, zapcore.InfoLevel},
		{Warning, zapcore.WarnLevel},
		{Error, zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, levelOf(tt.level))
		})
	}
}

func TestNewLoggerClient(t *testing.T) {
	l := NewLoggerClient(Config{Level: Warning, ServiceName: "billing"})
	require.NotNil(t, l.Zap)
	assert.False(t, l.Zap.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Zap.Core().Enabled(zapcore.WarnLevel))
}

func TestFieldsAndError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core, Config{})

	l.Error("statement failed", errors.New("boom"),
		map[string]interface{}{"table": "users", "rows": 1},
		map[string]interface{}{"rows": 2},
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "statement failed", entry.Message)
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, "users", fields["table"])
	assert.EqualValues(t, 2, fields["rows"])
}

func TestLevelsWrite(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core, Config{})

	l.Debug("d", nil)
	l.Info("i", nil)
	l.Warn("w", nil)
	l.Error("e", nil)

	var levels []zapcore.Level
	for _, e := range logs.All() {
		levels = append(levels, e.Level)
	}
	assert.Equal(t, []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}, levels)
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestWithContextAddsTraceIDs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core, Config{EnableTracing: true})

	l.InfoWithContext(spanContext(t), "query", nil, map[string]interface{}{"table": "users"})

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	assert.Equal(t, "users", fields["table"])
}

func TestWithContextTracingDisabled(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core, Config{})

	l.WarnWithContext(spanContext(t), "query", nil)
	l.ErrorWithContext(context.Background(), "query", nil)

	for _, e := range logs.All() {
		assert.NotContains(t, e.ContextMap(), "trace_id")
	}
}
