package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

const DefaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

type Options struct {
	Level      slog.Level
	TimeFormat string
	// File, when set, also receives every record as plain text.
	File io.Writer
}

// New returns a logger writing colored output to w. Color is disabled when
// w is not a terminal.
func New(w io.Writer, opts Options) *slog.Logger {
	if opts.TimeFormat == "" {
		opts.TimeFormat = DefaultTimeFormat
	}

	console := tint.NewHandler(w, &tint.Options{
		Level:      opts.Level,
		TimeFormat: opts.TimeFormat,
		NoColor:    !isTerminal(w),
	})
	if opts.File == nil {
		return slog.New(console)
	}

	file := slog.NewTextHandler(opts.File, &slog.HandlerOptions{Level: opts.Level})
	return slog.New(NewMultiHandler(console, file))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel accepts debug, info, warn and error in any case. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	err := level.UnmarshalText([]byte(strings.TrimSpace(s)))
	return level, err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
