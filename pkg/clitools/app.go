// Package clitools builds command line applications with the standard
// aktools options: "-v" (repeatable), "-q", "--color", "--no-color" and
// "--config".
//
//	app := clitools.NewApp("tool", "does things", []*cli.Command{listCmd},
//		clitools.WithSyntaxAmends(map[string]any{"TABLE": map[string]any{"BORDER": "CYAN:bold"}}))
//	clitools.Main(app, os.Args)
//
// Configure (run as the app Before hook) loads the config file, decides
// whether stdout output is colored, installs the global colors config and
// configures logging.
package clitools

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	fcolor "github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/akorshkov/aktools/internal/config"
	"github.com/akorshkov/aktools/internal/logger"
	"github.com/akorshkov/aktools/pkg/color"
)

var log = logger.ForComponent("clitools")

const (
	FlagVerbose = "verbose"
	FlagQuiet   = "quiet"
	FlagColor   = "color"
	FlagNoColor = "no-color"
	FlagConfig  = "config"

	settingsKey = "aktools.settings"
)

var ErrBadColorMode = errors.New("invalid color mode")

// Settings are the results of Configure available to commands.
type Settings struct {
	Verbosity   int
	ColorStdout bool
	Config      *config.Config
	// LogLevel is the level of terminal logs.
	LogLevel slog.Level
	LogFile  string

	logCloser io.Closer
}

type appOptions struct {
	noLog     bool
	noLogFile bool
	amends    []map[string]any
	isTTY     func() bool
}

type AppOption func(*appOptions)

// WithoutLog hides "-v" and "-q" and leaves logging unconfigured.
func WithoutLog() AppOption { return func(o *appOptions) { o.noLog = true } }

// WithoutLogFile disables the .<app>.log file.
func WithoutLogFile() AppOption { return func(o *appOptions) { o.noLogFile = true } }

// WithSyntaxAmends adds syntaxes to the global colors config. Colors of
// the [colors] config section take priority.
func WithSyntaxAmends(amends ...map[string]any) AppOption {
	return func(o *appOptions) { o.amends = append(o.amends, amends...) }
}

func withTTY(isTTY func() bool) AppOption { return func(o *appOptions) { o.isTTY = isTTY } }

func stdoutIsTerminal() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

// NewApp creates the application with the standard flags.
func NewApp(name, usage string, commands []*cli.Command, opts ...AppOption) *cli.App {
	o := &appOptions{isTTY: stdoutIsTerminal}
	for _, opt := range opts {
		opt(o)
	}

	settings := &Settings{}
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  FlagColor,
			Usage: "when show colored output: auto, always (yes, 1) or never (no, 0)",
			Value: "",
		},
		&cli.BoolFlag{
			Name:  FlagNoColor,
			Usage: "the same as '--color=never', overrides '--color'",
		},
		&cli.StringFlag{
			Name:    FlagConfig,
			Usage:   "config file",
			Value:   config.DefaultPath,
			EnvVars: []string{config.EnvPrefix + "_CONFIG"},
		},
	}
	if !o.noLog {
		flags = append([]cli.Flag{
			&cli.BoolFlag{
				Name:    FlagVerbose,
				Aliases: []string{"v"},
				Usage:   "increase log verbosity (up to -vv)",
				Count:   &settings.Verbosity,
			},
			&cli.BoolFlag{
				Name:    FlagQuiet,
				Aliases: []string{"q"},
				Usage:   "log errors only",
			},
		}, flags...)
	}

	return &cli.App{
		Name:                   name,
		Usage:                  usage,
		Flags:                  flags,
		Commands:               commands,
		UseShortOptionHandling: true,
		EnableBashCompletion:   true,
		Metadata:               map[string]any{settingsKey: settings},
		Before: func(cctx *cli.Context) error {
			return configure(cctx, settings, o)
		},
		After: func(cctx *cli.Context) error {
			return settings.Close()
		},
	}
}

// FromContext returns the settings of the application running the command.
func FromContext(cctx *cli.Context) *Settings {
	if cctx.App != nil {
		if s, ok := cctx.App.Metadata[settingsKey].(*Settings); ok {
			return s
		}
	}
	return &Settings{Config: config.Default()}
}

// ColorMode converts a color mode into the decision to use colors.
func ColorMode(mode string, isTTY func() bool) (bool, error) {
	switch strings.ToLower(mode) {
	case "never", "no", "0":
		return false, nil
	case "always", "yes", "1":
		return true, nil
	case "auto", "":
		return isTTY(), nil
	}
	return false, fmt.Errorf("%w '%s': expected auto, always or never", ErrBadColorMode, mode)
}

func configure(cctx *cli.Context, s *Settings, o *appOptions) error {
	cfg, err := config.Load(cctx.String(FlagConfig))
	if err != nil {
		return err
	}
	s.Config = cfg

	mode := cfg.Color
	if cctx.IsSet(FlagColor) {
		mode = cctx.String(FlagColor)
	}
	if cctx.Bool(FlagNoColor) {
		mode = "never"
	}
	if s.ColorStdout, err = ColorMode(mode, o.isTTY); err != nil {
		return err
	}
	fcolor.NoColor = !s.ColorStdout

	colors, err := color.NewConfig(!s.ColorStdout, append([]map[string]any{cfg.Colors}, o.amends...)...)
	if err != nil {
		return fmt.Errorf("%w: [colors]: %w", config.ErrInvalidConfig, err)
	}
	color.SetGlobal(colors)

	if o.noLog {
		return nil
	}
	quiet := cctx.Bool(FlagQuiet)
	if quiet {
		s.Verbosity = -1
	}
	// the config file level applies only when -v and -q are not given
	s.LogLevel = logger.VerbosityLevel(s.Verbosity)
	if level := cfg.LogLevel(); level != nil && !quiet && !cctx.IsSet(FlagVerbose) {
		s.LogLevel = *level
	}
	if !o.noLogFile {
		s.LogFile = cfg.LogFile(cctx.App.Name)
	}
	s.logCloser, err = logger.Configure(logger.Options{
		Verbosity:   s.Verbosity,
		Level:       &s.LogLevel,
		NoColor:     !s.ColorStdout,
		File:        s.LogFile,
		FileLevel:   cfg.FileLogLevel(),
		NoFileColor: false,
		FileFormat:  cfg.Log.FileFormat,
	})
	if err != nil {
		return err
	}
	log.Debug("application configured",
		"verbosity", s.Verbosity, "color", s.ColorStdout, "config", cfg.Path, "log_file", s.LogFile)
	return nil
}

// Close closes the log file.
func (s *Settings) Close() error {
	if s.logCloser == nil {
		return nil
	}
	err := s.logCloser.Close()
	s.logCloser = nil
	return err
}

// Palette creates the palette using the global colors config and the
// stdout color decision.
func (s *Settings) Palette(spec *color.PaletteSpec) *color.Palette {
	return color.MustPalette(spec, color.Global(), !s.ColorStdout)
}
