package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sample = `
color = "never"

[log]
file = "/tmp/x.log"
level = "info"

[colors]
NAME = "CYAN:bold"

[colors.TABLE]
BORDER = "GREEN"
NUMBER = "NAME"
`

func TestFromReader(t *testing.T) {
	cfg, err := FromReader(strings.NewReader(sample))
	require.NoError(t, err)
	require.Equal(t, "never", cfg.Color)
	require.Equal(t, "/tmp/x.log", cfg.LogFile("aktools"))
	require.Equal(t, slog.LevelInfo, *cfg.LogLevel())
	require.Nil(t, cfg.FileLogLevel())
	require.Equal(t, 300*time.Millisecond, cfg.Watcher.DebounceWindow)

	colors, err := cfg.ColorsConfig(false)
	require.NoError(t, err)
	require.Equal(t, "\033[36;1mx\033[0m", colors.Color("NAME").Text("x").String())
	require.Equal(t, colors.Color("NAME"), colors.Color("TABLE.NUMBER"))
	require.Equal(t, "\033[32mx\033[0m", colors.Color("TABLE.BORDER").Text("x").String())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AKTOOLS_COLOR", "always")
	t.Setenv("AKTOOLS_LOG_LEVEL", "debug")
	t.Setenv("AKTOOLS_LOG_NO_FILE", "true")

	cfg, err := FromReader(strings.NewReader(sample))
	require.NoError(t, err)
	require.Equal(t, "always", cfg.Color)
	require.Equal(t, slog.LevelDebug, *cfg.LogLevel())
	require.Equal(t, "", cfg.LogFile("aktools"))
}

func TestInvalidConfig(t *testing.T) {
	for _, data := range []string{
		`color = "sometimes"`,
		"[log]\nlevel = \"loud\"",
		"[log]\nfile_format = \"xml\"",
		"color = ",
	} {
		_, err := FromReader(strings.NewReader(data))
		require.ErrorIs(t, err, ErrInvalidConfig, data)
	}

	cfg, err := FromReader(strings.NewReader("[colors]\nNAME = \"RED:shiny\""))
	require.NoError(t, err)
	_, err = cfg.ColorsConfig(false)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLogFile(t *testing.T) {
	cfg := Default()
	require.Equal(t, ".aktools.log", cfg.LogFile("/usr/bin/aktools"))
	require.Equal(t, ".tool.log", cfg.LogFile("tool.exe"))
	require.Equal(t, ".hidden.log", cfg.LogFile(".hidden"))
	require.Equal(t, ".tool.log", cfg.LogFile("/opt/.tool"))
	require.Equal(t, ".tool.log", cfg.LogFile("/opt/.tool.sh"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err, "missing file means defaults")
	require.Equal(t, "auto", cfg.Color)
	require.Equal(t, path, cfg.Path)
	require.NoError(t, cfg.EnsureDirectories())

	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	cfg, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, "never", cfg.Color)

	require.NoError(t, os.WriteFile(path, []byte("color = 1"), 0o600))
	_, err = Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.Contains(t, err.Error(), path)
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`color = "auto"`), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Watcher.DebounceWindow = 50 * time.Millisecond

	reloaded := make(chan *Config, 4)
	w, err := cfg.Watch(context.Background(), func(c *Config) { reloaded <- c })
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	select {
	case c := <-reloaded:
		require.Equal(t, "never", c.Color)
		require.Contains(t, c.Colors, "TABLE")
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}
