// Package config loads the settings shared by aktools commands from
// ~/.aktools/config.toml with environment overrides (AKTOOLS_*).
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/go-homedir"

	"github.com/akorshkov/aktools/internal/logger"
	"github.com/akorshkov/aktools/internal/watcher"
	"github.com/akorshkov/aktools/pkg/color"
)

var log = logger.ForComponent("config")

const (
	EnvPrefix   = "AKTOOLS"
	DefaultPath = "~/.aktools/config.toml"
)

var ErrInvalidConfig = errors.New("invalid config")

type LogConfig struct {
	// File overrides the default .<app>.log log file name.
	File   string `toml:"file" envconfig:"FILE"`
	NoFile bool   `toml:"no_file" envconfig:"NO_FILE"`
	// Level overrides the level derived from verbosity.
	Level     string `toml:"level" envconfig:"LEVEL"`
	FileLevel string `toml:"file_level" envconfig:"FILE_LEVEL"`
	// FileFormat is "line", "json" or "text".
	FileFormat string `toml:"file_format" envconfig:"FILE_FORMAT"`
}

type Config struct {
	Path string `toml:"-" ignored:"true"`
	// Color is "auto", "always" or "never".
	Color string    `toml:"color" envconfig:"COLOR"`
	Log   LogConfig `toml:"log" envconfig:"LOG"`
	// Colors amends the colors config: {"TABLE": {"BORDER": "CYAN:bold"}}.
	Colors  map[string]any        `toml:"colors" ignored:"true"`
	Watcher watcher.WatcherConfig `toml:"watcher" ignored:"true"`
}

func Default() *Config {
	return &Config{
		Color:   "auto",
		Watcher: watcher.DefaultWatcherConfig(),
	}
}

// Load reads the config file; a missing file means default settings.
// Empty path means DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug("config file not found, using defaults", "path", path)
		cfg, err := FromReader(strings.NewReader(""))
		if err != nil {
			return nil, err
		}
		cfg.Path = path
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	cfg, err := FromReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// FromReader decodes toml config over the defaults and applies env
// overrides.
func FromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, key := range md.Undecoded() {
		if len(key) > 0 && key[0] == "colors" {
			continue
		}
		log.Warn("unknown config key", "key", key.String())
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("%w: processing env vars overrides: %w", ErrInvalidConfig, err)
	}

	switch cfg.Color {
	case "auto", "always", "never":
	default:
		return nil, fmt.Errorf("%w: color must be one of auto, always, never; got '%s'", ErrInvalidConfig, cfg.Color)
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	if _, err := parseLevel(cfg.Log.FileLevel); err != nil {
		return nil, err
	}
	if f := cfg.Log.FileFormat; f != "" && !slices.Contains(logger.Formats, f) {
		return nil, fmt.Errorf("%w: log file format must be one of %s; got '%s'",
			ErrInvalidConfig, strings.Join(logger.Formats, ", "), f)
	}
	return cfg, nil
}

func parseLevel(s string) (*slog.Level, error) {
	if s == "" {
		return nil, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return nil, fmt.Errorf("%w: log level: %w", ErrInvalidConfig, err)
	}
	return &level, nil
}

// LogLevel returns the configured level of terminal logs, nil if not set.
func (c *Config) LogLevel() *slog.Level {
	l, _ := parseLevel(c.Log.Level)
	return l
}

func (c *Config) FileLogLevel() *slog.Level {
	l, _ := parseLevel(c.Log.FileLevel)
	return l
}

// LogFile returns the log file name of the application, "" if the log
// file is turned off.
func (c *Config) LogFile(app string) string {
	if c.Log.NoFile {
		return ""
	}
	if c.Log.File != "" {
		if path, err := homedir.Expand(c.Log.File); err == nil {
			return path
		}
		return c.Log.File
	}
	name := filepath.Base(app)
	if ext := filepath.Ext(name); ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}
	return name + ".log"
}

// ColorsConfig creates the colors config with [colors] amendments.
func (c *Config) ColorsConfig(noColor bool) (*color.Config, error) {
	conf, err := color.NewConfig(noColor, c.Colors)
	if err != nil {
		return nil, fmt.Errorf("%w: [colors]: %w", ErrInvalidConfig, err)
	}
	return conf, nil
}

func (c *Config) EnsureDirectories() error {
	return os.MkdirAll(filepath.Dir(c.Path), 0700)
}

// Watch reloads the config file each time it changes and passes the new
// config to apply. Invalid versions of the file are logged and skipped.
// The watcher stops when ctx is done or on Stop.
func (c *Config) Watch(ctx context.Context, apply func(*Config)) (*watcher.Watcher, error) {
	wcfg := c.Watcher
	wcfg.Patterns = []string{filepath.ToSlash(c.Path)}

	path := c.Path
	w, err := watcher.New(wcfg, func(events []watcher.FileEvent) {
		last := events[len(events)-1]
		if !last.Exists() {
			log.Info("config file removed", "path", path)
			return
		}
		cfg, err := Load(path)
		if err != nil {
			log.Error("failed to reload config", "error", err)
			return
		}
		log.Info("config reloaded", "path", path)
		apply(cfg)
	})
	if err != nil {
		return nil, err
	}
	if err := w.AddRoot(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("failed to watch config dir: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}
