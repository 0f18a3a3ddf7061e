package watcher

import "time"

type WatcherConfig struct {
	// DebounceWindow is the quiet period after the last change before the
	// batch is reported; MaxDelay limits the wait since the first change.
	DebounceWindow time.Duration `toml:"debounce_window"`
	MaxDelay       time.Duration `toml:"max_delay"`
	// Patterns select the watched files; all files if empty.
	Patterns       []string `toml:"patterns"`
	IgnorePatterns []string `toml:"ignore_patterns"`
	WatchHidden    bool     `toml:"watch_hidden"`
}

func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		DebounceWindow: 300 * time.Millisecond,
		MaxDelay:       2 * time.Second,
		IgnorePatterns: []string{
			"**/*~",
			"**/*.swp",
			"**/*.tmp",
			"**/*.log",
		},
		WatchHidden: false,
	}
}
