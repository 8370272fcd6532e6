package logger_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/phrazzld/gallery-api/internal/config"
	"github.com/phrazzld/gallery-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWithWriter_LevelFiltering(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &logger.TestLogBuffer{}
	l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "warn"}, buf)
	require.NoError(t, err)
	require.NotNil(t, l)

	l.Info("hidden")
	l.Warn("shown", "item_id", "abc")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["msg"])
	assert.Equal(t, "abc", entries[0]["item_id"])
	assert.Same(t, l, slog.Default(), "Setup installs the default logger")
}

func TestSetupWithWriter_TextFormat(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &logger.TestLogBuffer{}
	l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "debug", LogFormat: "text"}, buf)
	require.NoError(t, err)

	l.Debug("hello", "k", "v")
	out := buf.String()
	assert.True(t, strings.Contains(out, "msg=hello"), out)
	assert.True(t, strings.Contains(out, "k=v"), out)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		want  slog.Level
		valid bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"Warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := logger.ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestFromContext(t *testing.T) {
	l, buf := logger.NewTestLogger(t)
	ctx := logger.WithLogger(context.Background(), l)

	assert.Same(t, l, logger.FromContext(ctx))
	logger.FromContext(ctx).Info("via context")
	assert.Contains(t, buf.String(), "via context")

	fallback := slog.New(slog.NewTextHandler(&logger.TestLogBuffer{}, nil))
	assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))
	assert.Same(t, l, logger.FromContextOrDefault(ctx, fallback))
	assert.Same(t, slog.Default(), logger.FromContext(context.Background()))
}
