package avr

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tessro/telepath/internal/core"
	telerrors "github.com/tessro/telepath/internal/errors"
)

// pacer drains one zone's pending volume at a fixed rate so that a burst of
// slider movements becomes at most one command per interval.
type pacer struct {
	zone     core.ZoneID
	pending  *pendingVolume
	interval time.Duration
	send     func(line string) error
	log      *zap.Logger
}

func (p *pacer) run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick sends the pending value, if any. It reports whether a command was
// written.
func (p *pacer) tick() bool {
	v, ok := p.pending.TakeAndClear()
	if !ok {
		return false
	}

	line := Encode(SetVolume{Zone: p.zone, Value: v})
	if err := p.send(line); err != nil {
		if errors.Is(err, telerrors.ErrNotConnected) {
			p.pending.Requeue(v)
			return false
		}
		p.pending.Settle()
		p.log.Warn("volume send failed",
			zap.Stringer("zone", p.zone),
			zap.String("command", strings.TrimSpace(line)),
			zap.Error(err))
		return false
	}

	p.pending.Settle()
	p.log.Debug("volume sent", zap.Stringer("zone", p.zone), zap.Float64("volume", v))
	return true
}
