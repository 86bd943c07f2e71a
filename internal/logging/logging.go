package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
)

// QuietLevel is the lowest level shown with --quiet
const QuietLevel = slog.LevelWarn

// ErrUnknownLevel is returned by ParseLevel
var ErrUnknownLevel = errors.Base("unknown log level")

// ParseLevel maps debug, info, warn or error to a slog level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.Errorf("%w: %q", ErrUnknownLevel, s)
}

// Setup installs a tint logger writing to w as the default logger and
// returns ctx carrying it. Colour is used only when w is a terminal.
func Setup(ctx context.Context, w io.Writer, level slog.Level) context.Context {
	tintHandler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		AddSource:  level <= slog.LevelDebug,
		NoColor:    !isTerminal(w),
	})

	logger := slog.New(slogctx.NewHandler(tintHandler, nil))
	slog.SetDefault(logger)

	return slogctx.NewCtx(ctx, logger)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
