package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCoalesce(t *testing.T) {
	b := newBatch(time.Hour, 0)
	now := time.Now()
	at := func(ms int) time.Time { return now.Add(time.Duration(ms) * time.Millisecond) }

	b.add(FileEvent{Path: "new", Type: EventCreate, Timestamp: at(0)})
	b.add(FileEvent{Path: "new", Type: EventModify, Timestamp: at(1)})
	b.add(FileEvent{Path: "saved", Type: EventRename, Timestamp: at(2)})
	b.add(FileEvent{Path: "saved", Type: EventCreate, Timestamp: at(3)})
	b.add(FileEvent{Path: "swap", Type: EventCreate, Timestamp: at(4)})
	b.add(FileEvent{Path: "swap", Type: EventDelete, Timestamp: at(5)})
	b.add(FileEvent{Path: "gone", Type: EventModify, Timestamp: at(6)})
	b.add(FileEvent{Path: "gone", Type: EventDelete, Timestamp: at(7)})

	require.Equal(t, []FileEvent{
		{Path: "new", Type: EventCreate, Timestamp: at(1)},
		{Path: "saved", Type: EventModify, Timestamp: at(3)},
		{Path: "gone", Type: EventDelete, Timestamp: at(7)},
	}, b.take())
	require.Empty(t, b.take())
}

func TestBatchWait(t *testing.T) {
	b := newBatch(20*time.Millisecond, 50*time.Millisecond)
	start := time.Now()
	b.add(FileEvent{Path: "a", Type: EventModify, Timestamp: start})

	require.Equal(t, 20*time.Millisecond, b.wait(start))
	require.Equal(t, 5*time.Millisecond, b.wait(start.Add(45*time.Millisecond)))
	require.Equal(t, time.Duration(0), b.wait(start.Add(time.Minute)))

	select {
	case <-b.ready():
	case <-time.After(2 * time.Second):
		t.Fatal("batch is not ready")
	}
	require.Len(t, b.take(), 1)

	unlimited := newBatch(20*time.Millisecond, 0)
	unlimited.first = start
	require.Equal(t, 20*time.Millisecond, unlimited.wait(start.Add(time.Minute)))
}

func TestWatcherPatterns(t *testing.T) {
	w := &Watcher{config: WatcherConfig{
		Patterns:       []string{"**/config.toml"},
		IgnorePatterns: []string{"**/*~"},
	}}
	require.True(t, w.matches("/home/u/.aktools/config.toml"))
	require.False(t, w.matches("/home/u/.aktools/other.toml"))
	require.True(t, w.shouldIgnore("/home/u/.aktools/config.toml~"))
	require.True(t, w.shouldIgnore("/home/u/.aktools/.config.toml.swp"))
	require.False(t, w.shouldIgnore("/home/u/.aktools/config.toml"))
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultWatcherConfig()
	cfg.DebounceWindow = 50 * time.Millisecond
	cfg.Patterns = []string{"**/*.toml"}

	batches := make(chan []FileEvent, 10)
	w, err := New(cfg, func(events []FileEvent) { batches <- events })
	require.NoError(t, err)
	require.NoError(t, w.AddRoot(dir))
	require.NoError(t, w.Start(context.Background()))
	require.Equal(t, []string{dir}, w.Roots())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "skipped.txt"), []byte("x"), 0o644))
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\n"), 0o644))

	select {
	case batch := <-batches:
		require.Len(t, batch, 1)
		require.Equal(t, path, batch[0].Path)
		require.True(t, batch[0].Exists())
	case <-time.After(5 * time.Second):
		t.Fatal("no events received")
	}

	require.NoError(t, w.Stop())
	require.ErrorIs(t, w.Stop(), ErrNotRunning)
}
