package watcher

import "time"

// batch collects events of the handler goroutine until the files stay
// unchanged for the quiet period. A batch waits at most maxDelay after
// its first event, so a file written continuously is still reported.
type batch struct {
	quiet    time.Duration
	maxDelay time.Duration
	events   map[string]FileEvent
	first    time.Time
	timer    *time.Timer
}

func newBatch(quiet, maxDelay time.Duration) *batch {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	return &batch{
		quiet:    quiet,
		maxDelay: maxDelay,
		events:   make(map[string]FileEvent),
		timer:    timer,
	}
}

func (b *batch) add(e FileEvent) {
	if len(b.events) == 0 {
		b.first = e.Timestamp
	}
	if prev, ok := b.events[e.Path]; ok {
		if merged, keep := coalesce(prev, e); keep {
			b.events[e.Path] = merged
		} else {
			delete(b.events, e.Path)
		}
	} else {
		b.events[e.Path] = e
	}
	b.timer.Reset(b.wait(e.Timestamp))
}

// wait returns how long the batch may wait for more events at now.
func (b *batch) wait(now time.Time) time.Duration {
	wait := b.quiet
	if b.maxDelay > 0 {
		if left := b.first.Add(b.maxDelay).Sub(now); left < wait {
			wait = max(left, 0)
		}
	}
	return wait
}

func (b *batch) ready() <-chan time.Time { return b.timer.C }

// take returns the collected events ordered by time and starts a new
// batch.
func (b *batch) take() []FileEvent {
	b.timer.Stop()
	if len(b.events) == 0 {
		return nil
	}
	events := make([]FileEvent, 0, len(b.events))
	for _, e := range b.events {
		events = append(events, e)
	}
	sortEvents(events)
	clear(b.events)
	return events
}
