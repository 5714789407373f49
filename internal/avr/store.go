package avr

import (
	"sync"

	"github.com/tessro/telepath/internal/core"
)

// Store holds the authoritative receiver state for one connection and
// fans out snapshots to subscribers.
type Store struct {
	mu    sync.RWMutex
	state core.ReceiverState
	subs  map[int]chan core.ReceiverState
	next  int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		state: core.NewReceiverState(),
		subs:  make(map[int]chan core.ReceiverState),
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() core.ReceiverState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Apply folds a parsed delta into the state. It returns false for deltas
// that name no valid zone or kind.
func (s *Store) Apply(d Delta) bool {
	switch d.Kind {
	case DeltaMaxVolume, DeltaGlobalPower:
	case DeltaZoneVolume, DeltaZonePower, DeltaZoneMute, DeltaZoneInput, DeltaZonePresent:
		if !d.Zone.Valid() {
			return false
		}
	default:
		return false
	}
	s.Update(func(st *core.ReceiverState) { applyDelta(st, d) })
	return true
}

func applyDelta(st *core.ReceiverState, d Delta) {
	switch d.Kind {
	case DeltaMaxVolume:
		v := d.Value
		st.MaxVolume = &v
	case DeltaGlobalPower:
		st.GlobalPower = d.On
	case DeltaZoneVolume:
		zoneState(st, d.Zone).Volume = d.Value
	case DeltaZonePower:
		zoneState(st, d.Zone).Powered = d.On
	case DeltaZoneMute:
		zoneState(st, d.Zone).Muted = d.On
	case DeltaZoneInput:
		zoneState(st, d.Zone)
		st.Inputs[d.Zone] = d.Input
	case DeltaZonePresent:
		zoneState(st, d.Zone)
	}
}

// zoneState returns the zone entry, materializing it first if absent.
func zoneState(st *core.ReceiverState, z core.ZoneID) *core.ZoneState {
	if st.Zones[z] == nil {
		st.Zones[z] = &core.ZoneState{}
	}
	return st.Zones[z]
}

// Update runs fn against the state under the write lock and notifies
// subscribers with the result.
func (s *Store) Update(fn func(*core.ReceiverState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	s.publish(s.state.Clone())
}

// Reset clears all zones and the maximum volume.
func (s *Store) Reset() {
	s.Update(func(st *core.ReceiverState) {
		*st = core.NewReceiverState()
	})
}

// LoadDemo replaces the state with a fixed, fully populated receiver.
func (s *Store) LoadDemo() {
	s.Update(func(st *core.ReceiverState) {
		*st = core.NewReceiverState()
		maxVol := core.DefaultMaxVolume
		st.MaxVolume = &maxVol
		st.Demo = true
		st.Connected = true
		st.GlobalPower = true
		for _, z := range core.Zones {
			st.Zones[z] = &core.ZoneState{Powered: true, Volume: 40}
		}
		st.Inputs[core.ZoneMain] = core.InputNet
	})
}

// SetConnected records socket liveness.
func (s *Store) SetConnected(connected bool) {
	s.Update(func(st *core.ReceiverState) {
		st.Connected = connected
	})
}

// Subscribe returns a channel that receives the current state immediately
// and then the latest state after every change. Slow readers only ever see
// the newest snapshot. Call the returned function to unsubscribe.
func (s *Store) Subscribe() (<-chan core.ReceiverState, func()) {
	ch := make(chan core.ReceiverState, 1)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	ch <- s.state.Clone()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// publish must be called with mu held.
func (s *Store) publish(snap core.ReceiverState) {
	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Drop the stale value the reader has not picked up yet.
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
