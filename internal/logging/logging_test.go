package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	slogctx "github.com/veqryn/slog-context"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("trace")
	assert.ErrorIs(t, err, ErrUnknownLevel)
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	ctx := Setup(context.Background(), &buf, slog.LevelInfo)

	slogctx.Info(ctx, "database loaded", "functions", 42)
	slogctx.Debug(ctx, "hidden detail")

	out := buf.String()
	assert.Contains(t, out, "database loaded")
	assert.Contains(t, out, "functions=42")
	assert.NotContains(t, out, "hidden detail")
	// not a terminal: no escape sequences
	assert.NotContains(t, out, "\x1b[")
}

func TestSetup_CarriesAttributes(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	ctx := Setup(context.Background(), &buf, slog.LevelDebug)
	ctx = slogctx.With(ctx, "cmd", "callers")

	slogctx.Debug(ctx, "query")
	assert.Contains(t, buf.String(), "cmd=callers")
}
