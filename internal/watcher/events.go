package watcher

import (
	"sort"
	"time"
)

type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

type FileEvent struct {
	Path      string
	Type      EventType
	Timestamp time.Time
}

// Exists reports whether the file is expected to exist after the event.
func (e FileEvent) Exists() bool {
	return e.Type == EventCreate || e.Type == EventModify
}

// coalesce merges two events of the same file. Editors save files by
// writing a temporary file and renaming it over the original, so a delete
// followed by a create is a modification, and a file created and removed
// within one batch is not reported.
func coalesce(prev, next FileEvent) (FileEvent, bool) {
	switch {
	case prev.Type == EventCreate && next.Type == EventModify:
		next.Type = EventCreate
	case prev.Type == EventCreate && !next.Exists():
		return FileEvent{}, false
	case !prev.Exists() && next.Exists():
		next.Type = EventModify
	}
	return next, true
}

// sortEvents orders a flushed batch by time of the last event.
func sortEvents(events []FileEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Path < events[j].Path
		}
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
