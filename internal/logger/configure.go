package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/akorshkov/aktools/pkg/color"
)

var verbosityLevels = map[int]slog.Level{
	-1: slog.LevelError,
	0:  slog.LevelWarn,
	1:  slog.LevelInfo,
	2:  slog.LevelDebug,
}

// VerbosityLevel converts verbosity (number of "-v" flags, -1 for quiet)
// into log level.
func VerbosityLevel(verbosity int) slog.Level {
	if level, ok := verbosityLevels[verbosity]; ok {
		return level
	}
	if verbosity < -1 {
		return slog.LevelError
	}
	return slog.LevelDebug
}

// DefaultLevelColors are the colors of level names in terminal output.
func DefaultLevelColors() map[slog.Level]color.Fmt {
	return map[slog.Level]color.Fmt{
		slog.LevelDebug: color.MustFmt("BLUE"),
		slog.LevelInfo:  color.MustFmt("GREEN"),
		slog.LevelWarn:  color.MustFmt("MAGENTA"),
		slog.LevelError: color.MustFmt("RED"),
	}
}

// Options of Configure.
type Options struct {
	Verbosity int
	// Level overrides the level derived from Verbosity.
	Level *slog.Level
	// Output is os.Stderr by default.
	Output  io.Writer
	NoColor bool

	// File is the name of the log file; no log file if empty.
	File string
	// FileLevel is slog.LevelDebug by default.
	FileLevel   *slog.Level
	NoFileColor bool
	// FileFormat is one of Formats, "line" by default.
	FileFormat string

	// LevelColors overrides DefaultLevelColors.
	LevelColors map[slog.Level]color.Fmt
}

// Configure installs the default logger writing to stderr and, optionally,
// to a log file. The returned closer closes the log file.
func Configure(opts Options) (io.Closer, error) {
	level := VerbosityLevel(opts.Verbosity)
	if opts.Level != nil {
		level = *opts.Level
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	coloredNames := levelNames(opts.LevelColors)
	names := func(noColor bool) map[slog.Level]string {
		if noColor {
			return nil
		}
		return coloredNames
	}

	handlers := MultiHandler{NewHandler(Config{
		Level:      level,
		Output:     out,
		LevelNames: names(opts.NoColor),
	})}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		fileLevel := slog.LevelDebug
		if opts.FileLevel != nil {
			fileLevel = *opts.FileLevel
		}
		handlers = append(handlers, NewHandler(Config{
			Level:      fileLevel,
			Format:     opts.FileFormat,
			Output:     f,
			LevelNames: names(opts.NoFileColor),
		}))
		closer = f
	}

	slog.SetDefault(slog.New(handlers))
	return closer, nil
}

func levelNames(overrides map[slog.Level]color.Fmt) map[slog.Level]string {
	colors := DefaultLevelColors()
	for level, f := range overrides {
		colors[level] = f
	}
	res := make(map[slog.Level]string, len(colors))
	for level, f := range colors {
		res[level] = f.Text(level.String()).String()
	}
	return res
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
