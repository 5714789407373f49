package avr

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/tessro/telepath/internal/core"
	telerrors "github.com/tessro/telepath/internal/errors"
)

const testTimeout = 2 * time.Second

// fakeReceiver accepts control connections on a loopback port.
type fakeReceiver struct {
	ln    net.Listener
	conns chan net.Conn
}

func newFakeReceiver(t *testing.T) *fakeReceiver {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeReceiver{ln: ln, conns: make(chan net.Conn, 4)}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			f.conns <- conn
		}
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return f
}

func (f *fakeReceiver) port() int {
	return f.ln.Addr().(*net.TCPAddr).Port
}

func (f *fakeReceiver) endpoint() core.Endpoint {
	return core.Endpoint{Name: "Test AVR", Address: "127.0.0.1"}
}

func (f *fakeReceiver) accept(t *testing.T) (net.Conn, *bufio.Reader) {
	t.Helper()
	select {
	case conn := <-f.conns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn, bufio.NewReader(conn)
	case <-time.After(testTimeout):
		t.Fatal("receiver saw no connection")
		return nil, nil
	}
}

// expectCommand reads lines until want arrives.
func expectCommand(t *testing.T, conn net.Conn, r *bufio.Reader, want string) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(testTimeout))
	var seen []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("waiting for %q: %v (saw %q)", want, err, seen)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == want {
			return
		}
		seen = append(seen, line)
	}
}

func waitForState(t *testing.T, c *Connection, desc string, pred func(core.ReceiverState) bool) core.ReceiverState {
	t.Helper()
	ch, cancel := c.Subscribe()
	defer cancel()

	timeout := time.After(testTimeout)
	for {
		select {
		case st := <-ch:
			if pred(st) {
				return st
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s; last state %+v", desc, c.Snapshot())
		}
	}
}

func startConnected(t *testing.T, opts ...Option) (*Connection, net.Conn, *bufio.Reader) {
	t.Helper()
	recv := newFakeReceiver(t)
	c := NewConnection(append([]Option{WithPort(recv.port())}, opts...)...)
	t.Cleanup(c.Stop)

	if err := c.Start(context.Background(), recv.endpoint()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	if err := c.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady() error = %v", err)
	}

	conn, r := recv.accept(t)
	expectCommand(t, conn, r, "SI?")
	return c, conn, r
}

func TestConnectionQueriesAndTracksState(t *testing.T) {
	c, conn, _ := startConnected(t)

	if c.State() != StateReady {
		t.Fatalf("State() = %v, want ready", c.State())
	}

	if _, err := io.WriteString(conn, "PWON\rMVMAX 98\rMV805\rZ2ON\rZ2050\rMSSTEREO\r"); err != nil {
		t.Fatalf("write status: %v", err)
	}

	st := waitForState(t, c, "zone 2 volume", func(st core.ReceiverState) bool {
		zs, ok := st.Zone(core.Zone2)
		return ok && zs.Volume == 50
	})
	if !st.Connected || !st.GlobalPower {
		t.Errorf("state = %+v, want connected and powered", st)
	}
	main, _ := st.Zone(core.ZoneMain)
	if main.Volume != 80.5 {
		t.Errorf("main volume = %v, want 80.5", main.Volume)
	}
	if !c.IsConnected() {
		t.Error("IsConnected() = false")
	}
}

func TestConnectionCommands(t *testing.T) {
	c, conn, r := startConnected(t)

	if _, err := io.WriteString(conn, "PWON\rZMON\rMUOFF\r"); err != nil {
		t.Fatalf("write status: %v", err)
	}
	waitForState(t, c, "main powered", func(st core.ReceiverState) bool {
		zs, ok := st.Zone(core.ZoneMain)
		return ok && zs.Powered && st.GlobalPower
	})

	if err := c.PowerToggle(); err != nil {
		t.Fatalf("PowerToggle() error = %v", err)
	}
	expectCommand(t, conn, r, "PWSTANDBY")

	if err := c.ZoneToggle(core.ZoneMain); err != nil {
		t.Fatalf("ZoneToggle() error = %v", err)
	}
	expectCommand(t, conn, r, "ZMOFF")

	if err := c.ZoneToggle(core.Zone3); err != nil {
		t.Fatalf("ZoneToggle(zone3) error = %v", err)
	}
	expectCommand(t, conn, r, "Z3ON")

	if err := c.ToggleMute(core.ZoneMain); err != nil {
		t.Fatalf("ToggleMute() error = %v", err)
	}
	expectCommand(t, conn, r, "MUON")
	expectCommand(t, conn, r, "SI?")

	if err := c.ToggleMute(core.Zone2); err != nil {
		t.Fatalf("ToggleMute(zone2) error = %v", err)
	}
	expectCommand(t, conn, r, "Z2MUOFF")

	if err := c.SetInputDevice(core.Zone2, core.InputTuner); err != nil {
		t.Fatalf("SetInputDevice() error = %v", err)
	}
	expectCommand(t, conn, r, "Z2TUNER")

	if err := c.SetInputDevice(core.Zone2, core.InputDevice("laserdisc")); !errors.Is(err, telerrors.ErrInvalidInput) {
		t.Errorf("SetInputDevice(bad) error = %v, want ErrInvalidInput", err)
	}
}

func TestConnectionExplicitSetters(t *testing.T) {
	c, conn, r := startConnected(t)

	if err := c.SetPower(true); err != nil {
		t.Fatalf("SetPower() error = %v", err)
	}
	expectCommand(t, conn, r, "PWON")

	// Unknown zones still get exactly what was asked for
	if err := c.SetZonePower(core.Zone2, false); err != nil {
		t.Fatalf("SetZonePower() error = %v", err)
	}
	expectCommand(t, conn, r, "Z2OFF")

	if err := c.SetMute(core.Zone3, true); err != nil {
		t.Fatalf("SetMute() error = %v", err)
	}
	expectCommand(t, conn, r, "Z3MUON")
	expectCommand(t, conn, r, "SI?")

	if err := c.SetMute(core.ZoneID(-1), true); !errors.Is(err, telerrors.ErrInvalidZone) {
		t.Errorf("SetMute(-1) error = %v, want ErrInvalidZone", err)
	}
}

func TestConnectionVolume(t *testing.T) {
	c, conn, r := startConnected(t)

	if err := c.EnqueueVolume(core.ZoneMain, 45.3); err != nil {
		t.Fatalf("EnqueueVolume() error = %v", err)
	}
	expectCommand(t, conn, r, "MV455")

	// Above the default 80 ceiling.
	if err := c.EnqueueVolume(core.Zone2, 95); err != nil {
		t.Fatalf("EnqueueVolume(zone2) error = %v", err)
	}
	expectCommand(t, conn, r, "Z280")

	if err := c.SetVolumeFraction(0.5); err != nil {
		t.Fatalf("SetVolumeFraction() error = %v", err)
	}
	expectCommand(t, conn, r, "MV400")

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	if err := c.Flush(ctx); err != nil {
		t.Errorf("Flush() error = %v", err)
	}
}

type fixedPrefs struct {
	ceiling float64
	zone    core.ZoneID
}

func (p fixedPrefs) VolumeCeiling(core.ZoneID) float64 { return p.ceiling }
func (p fixedPrefs) SelectedZone() core.ZoneID       { return p.zone }

func TestConnectionPreferences(t *testing.T) {
	c, conn, r := startConnected(t, WithPreferences(fixedPrefs{ceiling: 60, zone: core.Zone3}))

	if err := c.SetVolumeFraction(1.5); err != nil {
		t.Fatalf("SetVolumeFraction() error = %v", err)
	}
	expectCommand(t, conn, r, "Z360")
}

func TestConnectionNotConnected(t *testing.T) {
	c := NewConnection()

	if err := c.PowerToggle(); !errors.Is(err, telerrors.ErrNotConnected) {
		t.Errorf("PowerToggle() error = %v, want ErrNotConnected", err)
	}
	if err := c.ZoneToggle(core.Zone2); !errors.Is(err, telerrors.ErrNotConnected) {
		t.Errorf("ZoneToggle() error = %v, want ErrNotConnected", err)
	}
	if err := c.EnqueueVolume(core.ZoneMain, 30); !errors.Is(err, telerrors.ErrNotConnected) {
		t.Errorf("EnqueueVolume() error = %v, want ErrNotConnected", err)
	}
	if err := c.ZoneToggle(core.ZoneID(5)); !errors.Is(err, telerrors.ErrInvalidZone) {
		t.Errorf("ZoneToggle(5) error = %v, want ErrInvalidZone", err)
	}

	snap := c.Snapshot()
	if snap.GlobalPower || len(snap.ActiveZones()) != 0 {
		t.Errorf("state changed without a connection: %+v", snap)
	}
	if err := c.WaitReady(context.Background()); !errors.Is(err, telerrors.ErrNotConnected) {
		t.Errorf("WaitReady() error = %v, want ErrNotConnected", err)
	}
}

func TestConnectionStopThenDemo(t *testing.T) {
	c, _, _ := startConnected(t)

	c.Stop()
	if c.State() != StateIdle {
		t.Fatalf("State() after Stop = %v, want idle", c.State())
	}
	if snap := c.Snapshot(); snap.Connected || len(snap.ActiveZones()) != 0 {
		t.Fatalf("state after Stop = %+v", snap)
	}

	dialed := false
	c.opts.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		dialed = true
		return nil, errors.New("unexpected dial")
	}

	if err := c.Start(context.Background(), core.DemoEndpoint); err != nil {
		t.Fatalf("Start(demo) error = %v", err)
	}
	if dialed {
		t.Error("demo start opened a socket")
	}
	if c.State() != StateReady || !c.IsDemo() {
		t.Errorf("State() = %v, demo %v", c.State(), c.IsDemo())
	}
	snap := c.Snapshot()
	for _, z := range core.Zones {
		zs, ok := snap.Zone(z)
		if !ok || zs != (core.ZoneState{Powered: true, Volume: 40}) {
			t.Errorf("%s = %+v, %v", z, zs, ok)
		}
	}
	if snap.MaxVolume == nil || *snap.MaxVolume != 98 {
		t.Errorf("MaxVolume = %v, want 98", snap.MaxVolume)
	}

	if err := c.EnqueueVolume(core.Zone2, 33); err != nil {
		t.Fatalf("EnqueueVolume(demo) error = %v", err)
	}
	if err := c.ToggleMute(core.Zone3); err != nil {
		t.Fatalf("ToggleMute(demo) error = %v", err)
	}
	if err := c.PowerToggle(); err != nil {
		t.Fatalf("PowerToggle(demo) error = %v", err)
	}
	snap = c.Snapshot()
	if z2, _ := snap.Zone(core.Zone2); z2.Volume != 33 {
		t.Errorf("demo zone 2 volume = %v, want 33", z2.Volume)
	}
	if z3, _ := snap.Zone(core.Zone3); !z3.Muted {
		t.Error("demo zone 3 should be muted")
	}
	if snap.GlobalPower {
		t.Error("demo power should be off after toggle")
	}

	c.Stop()
	c.Stop()
	if c.IsDemo() || c.State() != StateIdle {
		t.Errorf("after Stop: demo %v, state %v", c.IsDemo(), c.State())
	}
}

func TestConnectionDialFailure(t *testing.T) {
	c := NewConnection(WithDialer(func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}))
	defer c.Stop()

	if err := c.Start(context.Background(), core.Endpoint{Address: "10.0.0.9"}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	err := c.WaitReady(ctx)
	if !errors.Is(err, telerrors.ErrConnectFailed) {
		t.Fatalf("WaitReady() error = %v, want ErrConnectFailed", err)
	}
	if c.State() != StateFaulted {
		t.Errorf("State() = %v, want faulted", c.State())
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after failed dial")
	}
}

func TestConnectionStartRequiresAddress(t *testing.T) {
	c := NewConnection()
	if err := c.Start(context.Background(), core.Endpoint{Name: "nowhere"}); !errors.Is(err, telerrors.ErrNoReceiver) {
		t.Errorf("Start() error = %v, want ErrNoReceiver", err)
	}
}

func TestConnectionDetectsDroppedSocket(t *testing.T) {
	c, conn, _ := startConnected(t, WithHealthInterval(20*time.Millisecond))

	waitForState(t, c, "connected", func(st core.ReceiverState) bool { return st.Connected })
	_ = conn.Close()

	waitForState(t, c, "disconnected", func(st core.ReceiverState) bool { return !st.Connected })
	if c.State() != StateFaulted {
		t.Errorf("State() = %v, want faulted", c.State())
	}
	if err := c.PowerToggle(); !errors.Is(err, telerrors.ErrNotConnected) {
		t.Errorf("PowerToggle() error = %v, want ErrNotConnected", err)
	}
}

func TestConnectionSurvivesOverlongLine(t *testing.T) {
	c, conn, _ := startConnected(t, WithHealthInterval(20*time.Millisecond))

	junk := strings.Repeat("X", 2*maxLineLength)
	if _, err := io.WriteString(conn, junk+"\rPWON\rMV40\r"); err != nil {
		t.Fatalf("write status: %v", err)
	}

	st := waitForState(t, c, "power after junk", func(st core.ReceiverState) bool {
		main, ok := st.Zone(core.ZoneMain)
		return st.GlobalPower && ok && main.Volume == 40
	})
	if !st.Connected || c.State() != StateReady {
		t.Errorf("connected = %v, state = %v; want connected and ready", st.Connected, c.State())
	}
}

func TestConnectionStartContextCancel(t *testing.T) {
	recv := newFakeReceiver(t)
	c := NewConnection(WithPort(recv.port()), WithHealthInterval(20*time.Millisecond))
	t.Cleanup(c.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx, recv.endpoint()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitCtx, waitCancel := context.WithTimeout(context.Background(), testTimeout)
	defer waitCancel()
	if err := c.WaitReady(waitCtx); err != nil {
		t.Fatalf("WaitReady() error = %v", err)
	}
	conn, r := recv.accept(t)
	expectCommand(t, conn, r, "SI?")
	waitForState(t, c, "connected", func(st core.ReceiverState) bool { return st.Connected })

	cancel()

	waitForState(t, c, "disconnected", func(st core.ReceiverState) bool { return !st.Connected })
	if c.State() != StateIdle {
		t.Errorf("State() = %v, want idle", c.State())
	}

	// The socket is closed from our side
	_ = conn.SetReadDeadline(time.Now().Add(testTimeout))
	if _, err := r.ReadByte(); err == nil {
		t.Error("socket still open after the start context was cancelled")
	}
}
