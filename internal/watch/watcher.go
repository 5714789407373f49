package watch

import (
	"context"
	"sync"
	"time"

	"github.com/tessro/telepath/internal/core"
)

// EventType represents the type of receiver event.
type EventType int

const (
	EventConnected EventType = iota
	EventDisconnected
	EventPower
	EventZoneAppeared
	EventZonePower
	EventMute
	EventVolume
	EventInput
	EventMaxVolume
)

// Event represents a receiver state change. Zone is meaningful for
// zone-level events only.
type Event struct {
	Type      EventType
	Zone      core.ZoneID
	Timestamp time.Time
	Previous  core.ReceiverState
	Current   core.ReceiverState
}

// Source streams receiver state snapshots.
type Source interface {
	Subscribe() (<-chan core.ReceiverState, func())
}

// Watcher turns a stream of state snapshots into discrete events.
type Watcher struct {
	source   Source
	events   chan Event
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a new state watcher.
func NewWatcher(source Source) *Watcher {
	return &Watcher{
		source: source,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
}

// Events returns the channel of receiver events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run diffs snapshots until ctx ends or Stop is called.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	states, cancel := w.source.Subscribe()
	defer cancel()

	var prev *core.ReceiverState
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case curr, ok := <-states:
			if !ok {
				return nil
			}
			for _, e := range diffStates(prev, curr) {
				select {
				case w.events <- e:
				default:
					// Drop event if channel is full
				}
			}
			prev = &curr
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

// diffStates compares two states and returns detected events. The first
// snapshot reports everything already known.
func diffStates(prev *core.ReceiverState, curr core.ReceiverState) []Event {
	now := time.Now()
	var events []Event
	emit := func(t EventType, z core.ZoneID, p core.ReceiverState) {
		events = append(events, Event{Type: t, Zone: z, Timestamp: now, Previous: p, Current: curr})
	}

	base := core.NewReceiverState()
	if prev != nil {
		base = *prev
	}

	if base.Connected != curr.Connected {
		if curr.Connected {
			emit(EventConnected, core.ZoneMain, base)
		} else if prev != nil {
			emit(EventDisconnected, core.ZoneMain, base)
		}
	}
	if base.GlobalPower != curr.GlobalPower {
		emit(EventPower, core.ZoneMain, base)
	}
	if maxChanged(base.MaxVolume, curr.MaxVolume) {
		emit(EventMaxVolume, core.ZoneMain, base)
	}

	for _, z := range core.Zones {
		after, present := curr.Zone(z)
		if !present {
			continue
		}
		before, existed := base.Zone(z)
		if !existed {
			emit(EventZoneAppeared, z, base)
		}
		if before.Powered != after.Powered {
			emit(EventZonePower, z, base)
		}
		if before.Muted != after.Muted {
			emit(EventMute, z, base)
		}
		if before.Volume != after.Volume {
			emit(EventVolume, z, base)
		}
		if base.Inputs[z] != curr.Inputs[z] && curr.Inputs[z] != core.InputSelect {
			emit(EventInput, z, base)
		}
	}

	return events
}

func maxChanged(prev, curr *float64) bool {
	if prev == nil || curr == nil {
		return prev != curr
	}
	return *prev != *curr
}
