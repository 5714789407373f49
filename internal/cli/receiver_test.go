package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/tessro/telepath/internal/avr"
	"github.com/tessro/telepath/internal/config"
	"github.com/tessro/telepath/internal/core"
	"github.com/tessro/telepath/internal/discovery"
	telerrors "github.com/tessro/telepath/internal/errors"
	"github.com/tessro/telepath/internal/prefs"
)

// isolate points config and saved receivers at a temp dir and resets flags.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg = config.Default()
	demoFlag, receiverFlag = false, ""
	t.Cleanup(func() {
		demoFlag, receiverFlag = false, ""
	})
}

func TestResolveEndpoint(t *testing.T) {
	isolate(t)

	if _, err := resolveEndpoint(); !errors.Is(err, telerrors.ErrNoReceiver) {
		t.Fatalf("resolveEndpoint() error = %v, want ErrNoReceiver", err)
	}

	storage, err := prefs.NewStorage("")
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}
	den := core.Endpoint{Name: "Den", Address: "10.0.0.7"}
	err = storage.Update(func(st *prefs.State) error {
		st.Remember(discovery.Receiver{Endpoint: den, Manual: true})
		st.Selected = &den
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	ep, err := resolveEndpoint()
	if err != nil || !ep.Equal(den) {
		t.Errorf("saved selection: got %+v, %v", ep, err)
	}

	cfg.Receiver.Address = "10.0.0.5"
	ep, _ = resolveEndpoint()
	if ep.Address != "10.0.0.5" {
		t.Errorf("config should beat saved selection, got %+v", ep)
	}

	receiverFlag = "den"
	ep, _ = resolveEndpoint()
	if !ep.Equal(den) {
		t.Errorf("--receiver by saved name: got %+v", ep)
	}

	receiverFlag = "avr.local"
	ep, _ = resolveEndpoint()
	if ep.Address != "avr.local" {
		t.Errorf("--receiver raw address: got %+v", ep)
	}

	demoFlag = true
	ep, _ = resolveEndpoint()
	if !ep.IsDemo() {
		t.Errorf("--demo: got %+v", ep)
	}
}

func TestWithConnectionDemo(t *testing.T) {
	isolate(t)
	demoFlag = true

	snap, err := withConnection(context.Background(), func(conn *avr.Connection) error {
		if err := conn.SetPower(false); err != nil {
			return err
		}
		return conn.EnqueueVolume(core.Zone2, 120)
	})
	if err != nil {
		t.Fatalf("withConnection() error = %v", err)
	}
	if snap.GlobalPower {
		t.Error("power should be off")
	}
	if zs, _ := snap.Zone(core.Zone2); zs.Volume != 80 {
		t.Errorf("Zone 2 volume = %v, want clamped to 80", zs.Volume)
	}
}

func TestWithConnectionNoReceiver(t *testing.T) {
	isolate(t)

	called := false
	_, err := withConnection(context.Background(), func(*avr.Connection) error {
		called = true
		return nil
	})
	if !errors.Is(err, telerrors.ErrNoReceiver) {
		t.Errorf("withConnection() error = %v, want ErrNoReceiver", err)
	}
	if called {
		t.Error("fn should not run without a receiver")
	}
}
