package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tessro/telepath/internal/avr"
	"github.com/tessro/telepath/internal/core"
	"github.com/tessro/telepath/internal/discovery"
	telerrors "github.com/tessro/telepath/internal/errors"
	"github.com/tessro/telepath/internal/prefs"
)

// settlePoll is how often connect checks whether the first status replies arrived.
const settlePoll = 25 * time.Millisecond

func openPrefs() (*prefs.Storage, *prefs.State, error) {
	storage, err := prefs.NewStorage("")
	if err != nil {
		return nil, nil, err
	}
	state, err := storage.Load()
	if err != nil {
		return nil, nil, err
	}
	return storage, state, nil
}

// newBrowser builds a browser seeded with saved receivers.
func newBrowser(saved *prefs.State) *discovery.Browser {
	b := discovery.NewBrowser(
		discovery.WithServices(cfg.Discovery.Services()...),
		discovery.WithDomain(cfg.Discovery.Domain),
		discovery.WithTimeout(cfg.Discovery.TimeoutDuration()),
		discovery.WithLogger(log),
	)
	if saved != nil {
		b.Restore(saved.Receivers)
	}
	return b
}

// resolveEndpoint picks the receiver to talk to: --demo, then --receiver,
// then the config file, then the saved selection.
func resolveEndpoint() (core.Endpoint, error) {
	if demoFlag {
		return core.DemoEndpoint, nil
	}

	_, saved, err := openPrefs()
	if err != nil {
		log.Warn("failed to load saved receivers", zap.Error(err))
		saved = &prefs.State{}
	}

	if receiverFlag != "" {
		if r, ok := newBrowser(saved).Lookup(receiverFlag); ok {
			return r.Endpoint, nil
		}
		// Treat anything else as a raw address
		return core.Endpoint{Address: receiverFlag}, nil
	}

	if ep, ok := cfg.Receiver.Endpoint(); ok {
		return ep, nil
	}

	if saved.Selected != nil {
		return *saved.Selected, nil
	}

	return core.Endpoint{}, telerrors.ErrNoReceiver
}

func connectionOptions() []avr.Option {
	return []avr.Option{
		avr.WithPort(cfg.Receiver.Port),
		avr.WithDialTimeout(cfg.Receiver.DialTimeoutDuration()),
		avr.WithPacerInterval(cfg.Receiver.PacerDuration()),
		avr.WithHealthInterval(cfg.Receiver.HealthDuration()),
		avr.WithPreferences(cfg.Zones),
		avr.WithLogger(log),
	}
}

// connect starts a connection to the resolved receiver and waits until it is
// ready and has had a chance to report status. Callers must Stop it.
func connect(ctx context.Context) (*avr.Connection, error) {
	ep, err := resolveEndpoint()
	if err != nil {
		return nil, err
	}

	conn := avr.NewConnection(connectionOptions()...)
	if err := conn.Start(ctx, ep); err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Receiver.DialTimeoutDuration())
	defer cancel()
	if err := conn.WaitReady(waitCtx); err != nil {
		conn.Stop()
		return nil, fmt.Errorf("%s: %w", ep.DisplayName(), err)
	}

	settle(ctx, conn, cfg.Receiver.SettleDuration())
	return conn, nil
}

// settle waits until the main zone has reported or d has passed.
func settle(ctx context.Context, conn *avr.Connection, d time.Duration) {
	deadline := time.NewTimer(d)
	defer deadline.Stop()
	ticker := time.NewTicker(settlePoll)
	defer ticker.Stop()

	for {
		snap := conn.Snapshot()
		if snap.Present(core.ZoneMain) && snap.HasMaxVolume() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-ticker.C:
		}
	}
}

// flush waits for queued volume changes to be written.
func flush(ctx context.Context, conn *avr.Connection) error {
	flushCtx, cancel := context.WithTimeout(ctx, cfg.Receiver.SettleDuration())
	defer cancel()
	return conn.Flush(flushCtx)
}

func parseZoneArg(s string) (core.ZoneID, error) {
	z, err := core.ParseZone(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", telerrors.ErrInvalidZone, err)
	}
	return z, nil
}
