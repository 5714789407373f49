package avr

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tessro/telepath/internal/core"
	telerrors "github.com/tessro/telepath/internal/errors"
)

// State is the lifecycle state of a Connection.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateReady
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Connection drives one receiver at a time: it owns the control socket,
// keeps the state store current and turns user intents into commands.
type Connection struct {
	opts    options
	log     *zap.Logger
	store   *Store
	pending [core.NumZones]*pendingVolume

	// lifecycle serializes Start and Stop. Session tasks never take it.
	lifecycle sync.Mutex

	mu       sync.Mutex
	state    State
	demo     bool
	endpoint core.Endpoint
	session  *session
}

// NewConnection returns an idle connection.
func NewConnection(opts ...Option) *Connection {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Connection{
		opts:  o,
		log:   o.log,
		store: NewStore(),
	}
	for i := range c.pending {
		c.pending[i] = &pendingVolume{}
	}
	return c
}

// Start connects to ep, replacing any current session. The demo endpoint
// loads fixed state and opens no socket. The dial runs in the background;
// use WaitReady to block on its outcome. Cancelling ctx closes the socket
// and returns the connection to idle.
func (c *Connection) Start(ctx context.Context, ep core.Endpoint) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.stopLocked()

	if ep.IsDemo() {
		c.mu.Lock()
		c.demo = true
		c.state = StateReady
		c.endpoint = ep
		c.mu.Unlock()

		c.store.LoadDemo()
		c.log.Info("demo receiver loaded")
		return nil
	}

	if strings.TrimSpace(ep.Address) == "" {
		return fmt.Errorf("start: %w", telerrors.ErrNoReceiver)
	}

	s := newSession(ctx, ep, c.log)

	c.mu.Lock()
	c.session = s
	c.state = StateConnecting
	c.endpoint = ep
	c.mu.Unlock()

	c.log.Info("connecting", zap.String("receiver", ep.DisplayName()), zap.String("address", ep.Address))
	go c.run(s)
	return nil
}

// Stop tears down the current session, if any, and clears all state.
// It is safe to call repeatedly.
func (c *Connection) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	c.stopLocked()
}

func (c *Connection) stopLocked() {
	c.mu.Lock()
	s := c.session
	active := s != nil || c.demo
	c.session = nil
	c.demo = false
	c.state = StateIdle
	c.endpoint = core.Endpoint{}
	c.mu.Unlock()

	if s != nil {
		s.close()
		<-s.done
	}
	for _, p := range c.pending {
		p.Clear()
	}
	c.store.Reset()

	if active {
		c.log.Info("connection stopped")
	}
}

// transition moves to state if s is still the current session.
func (c *Connection) transition(s *session, state State) {
	c.mu.Lock()
	current := c.session == s
	if current {
		c.state = state
	}
	c.mu.Unlock()

	if current {
		c.store.SetConnected(state == StateReady)
	}
}

// WaitReady blocks until the pending dial succeeds or fails.
func (c *Connection) WaitReady(ctx context.Context) error {
	c.mu.Lock()
	s, demo := c.session, c.demo
	c.mu.Unlock()

	if demo {
		return nil
	}
	if s == nil {
		return telerrors.ErrNotConnected
	}

	select {
	case <-s.ready:
		if s.dialErr != nil {
			return fmt.Errorf("%w: %w", telerrors.ErrConnectFailed, s.dialErr)
		}
		if !s.alive.Load() {
			return telerrors.ErrNotConnected
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for %s: %w", s.endpoint.DisplayName(), telerrors.ErrTimeout)
	}
}

// State returns the lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Endpoint returns the receiver being driven, or the zero value when idle.
func (c *Connection) Endpoint() core.Endpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint
}

// IsDemo reports whether the demo receiver is loaded.
func (c *Connection) IsDemo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.demo
}

// IsConnected reports the last published socket liveness.
func (c *Connection) IsConnected() bool {
	return c.store.Snapshot().Connected
}

// Snapshot returns a copy of the current receiver state.
func (c *Connection) Snapshot() core.ReceiverState {
	return c.store.Snapshot()
}

// Subscribe streams receiver state; see Store.Subscribe.
func (c *Connection) Subscribe() (<-chan core.ReceiverState, func()) {
	return c.store.Subscribe()
}

// live returns the current session if commands can be sent on it.
func (c *Connection) live(op string) (*session, error) {
	c.mu.Lock()
	s, state := c.session, c.state
	c.mu.Unlock()

	if s == nil || state != StateReady || !s.alive.Load() {
		c.log.Warn("not connected", zap.String("op", op), zap.Stringer("state", state))
		return nil, telerrors.ErrNotConnected
	}
	return s, nil
}

func (c *Connection) send(s *session, cmd Command) error {
	line := Encode(cmd)
	if err := s.send(line); err != nil {
		s.log.Warn("send failed", zap.String("command", strings.TrimSpace(line)), zap.Error(err))
		return err
	}
	s.log.Debug("sent", zap.String("command", strings.TrimSpace(line)))
	return nil
}

// PowerToggle flips global power based on the last known state.
func (c *Connection) PowerToggle() error {
	snap := c.store.Snapshot()
	return c.SetPower(!snap.GlobalPower)
}

// SetPower turns the whole receiver on or puts it in standby.
func (c *Connection) SetPower(on bool) error {
	if c.IsDemo() {
		c.store.Update(func(st *core.ReceiverState) { st.GlobalPower = on })
		return nil
	}

	s, err := c.live("power")
	if err != nil {
		return err
	}
	return c.send(s, SetGlobalPower{On: on})
}

// ZoneToggle flips power for z. A zone that has not reported is turned on.
func (c *Connection) ZoneToggle(z core.ZoneID) error {
	if !z.Valid() {
		return fmt.Errorf("zone %d: %w", int(z), telerrors.ErrInvalidZone)
	}
	snap := c.store.Snapshot()
	zs, ok := snap.Zone(z)
	return c.SetZonePower(z, !ok || !zs.Powered)
}

// SetZonePower turns z on or off.
func (c *Connection) SetZonePower(z core.ZoneID, on bool) error {
	if !z.Valid() {
		return fmt.Errorf("zone %d: %w", int(z), telerrors.ErrInvalidZone)
	}
	if c.IsDemo() {
		c.store.Update(func(st *core.ReceiverState) {
			if zs := st.Zones[z]; zs != nil {
				zs.Powered = on
			}
		})
		return nil
	}

	s, err := c.live("zone power")
	if err != nil {
		return err
	}
	return c.send(s, SetPower{Zone: z, On: on})
}

// ToggleMute flips mute for z. A zone that has not reported is unmuted.
func (c *Connection) ToggleMute(z core.ZoneID) error {
	if !z.Valid() {
		return fmt.Errorf("zone %d: %w", int(z), telerrors.ErrInvalidZone)
	}
	snap := c.store.Snapshot()
	zs, ok := snap.Zone(z)
	return c.SetMute(z, ok && !zs.Muted)
}

// SetMute mutes or unmutes z and asks the receiver to confirm.
func (c *Connection) SetMute(z core.ZoneID, on bool) error {
	if !z.Valid() {
		return fmt.Errorf("zone %d: %w", int(z), telerrors.ErrInvalidZone)
	}
	if c.IsDemo() {
		c.store.Update(func(st *core.ReceiverState) {
			if zs := st.Zones[z]; zs != nil {
				zs.Muted = on
			}
		})
		return nil
	}

	s, err := c.live("mute")
	if err != nil {
		return err
	}
	if err := c.send(s, SetMute{Zone: z, On: on}); err != nil {
		return err
	}
	return c.send(s, QueryVitals{})
}

// SetInputDevice routes dev to z.
func (c *Connection) SetInputDevice(z core.ZoneID, dev core.InputDevice) error {
	if !z.Valid() {
		return fmt.Errorf("zone %d: %w", int(z), telerrors.ErrInvalidZone)
	}
	if !dev.Valid() {
		return fmt.Errorf("%q: %w", string(dev), telerrors.ErrInvalidInput)
	}
	if c.IsDemo() {
		c.store.Update(func(st *core.ReceiverState) { st.Inputs[z] = dev })
		return nil
	}

	s, err := c.live("set input")
	if err != nil {
		return err
	}
	return c.send(s, SetInput{Zone: z, Device: dev})
}

// Ceiling returns the effective maximum volume for z: the user's limit,
// bounded by what the receiver reports.
func (c *Connection) Ceiling(z core.ZoneID) float64 {
	ceiling := c.opts.prefs.VolumeCeiling(z)
	maxVol := core.DefaultMaxVolume
	if snap := c.store.Snapshot(); snap.MaxVolume != nil && *snap.MaxVolume > 0 {
		maxVol = *snap.MaxVolume
	}
	if ceiling <= 0 || ceiling > maxVol {
		ceiling = maxVol
	}
	return ceiling
}

// EnqueueVolume requests volume v for z. Rapid calls coalesce: only the
// latest value is sent on the next pacer tick.
func (c *Connection) EnqueueVolume(z core.ZoneID, v float64) error {
	if !z.Valid() {
		return fmt.Errorf("zone %d: %w", int(z), telerrors.ErrInvalidZone)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%v: %w", v, telerrors.ErrInvalidVolume)
	}

	v = core.ClampVolume(core.Quantize(z, v), c.Ceiling(z))

	if c.IsDemo() {
		c.store.Update(func(st *core.ReceiverState) {
			if zs := st.Zones[z]; zs != nil {
				zs.Volume = v
			}
		})
		return nil
	}

	state := c.State()
	if state != StateConnecting && state != StateReady {
		c.log.Warn("not connected", zap.String("op", "volume"), zap.Stringer("state", state))
		return telerrors.ErrNotConnected
	}
	c.pending[z].Enqueue(v)
	return nil
}

// StepVolume moves z by delta from its last reported volume.
func (c *Connection) StepVolume(z core.ZoneID, delta float64) error {
	snap := c.store.Snapshot()
	zs, ok := snap.Zone(z)
	if !ok {
		return fmt.Errorf("%s has not reported: %w", z, telerrors.ErrNotConnected)
	}
	return c.EnqueueVolume(z, zs.Volume+delta)
}

// SetVolumeFraction maps a 0-1 position onto the selected zone's range.
func (c *Connection) SetVolumeFraction(fraction float64) error {
	if math.IsNaN(fraction) {
		return fmt.Errorf("%v: %w", fraction, telerrors.ErrInvalidVolume)
	}
	z := c.opts.prefs.SelectedZone()
	if !z.Valid() {
		z = core.ZoneMain
	}
	fraction = math.Max(0, math.Min(fraction, 1))
	return c.EnqueueVolume(z, fraction*c.Ceiling(z))
}

// Flush waits until every queued volume change has been written.
func (c *Connection) Flush(ctx context.Context) error {
	ticker := time.NewTicker(c.opts.pacerInterval)
	defer ticker.Stop()

	for {
		idle := true
		for _, p := range c.pending {
			if !p.Idle() {
				idle = false
				break
			}
		}
		if idle {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("flushing volume: %w", telerrors.ErrTimeout)
		case <-ticker.C:
		}
	}
}
