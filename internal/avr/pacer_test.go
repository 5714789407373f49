package avr

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/tessro/telepath/internal/core"
	telerrors "github.com/tessro/telepath/internal/errors"
)

func TestPendingVolume(t *testing.T) {
	var p pendingVolume
	if !p.Idle() {
		t.Fatal("new slot should be idle")
	}
	if _, ok := p.TakeAndClear(); ok {
		t.Fatal("TakeAndClear() on empty slot returned a value")
	}

	p.Enqueue(10)
	p.Enqueue(20)
	v, ok := p.TakeAndClear()
	if !ok || v != 20 {
		t.Fatalf("TakeAndClear() = %v, %v; want 20, true", v, ok)
	}
	if p.Idle() {
		t.Error("taken value should be in flight")
	}
	p.Settle()
	if !p.Idle() {
		t.Error("slot should be idle after Settle")
	}

	p.Enqueue(30)
	v, _ = p.TakeAndClear()
	p.Enqueue(35)
	p.Requeue(v)
	if v, _ := p.TakeAndClear(); v != 35 {
		t.Errorf("Requeue overwrote newer value: got %v, want 35", v)
	}

	p.Requeue(40)
	if v, ok := p.TakeAndClear(); !ok || v != 40 {
		t.Errorf("Requeue into empty slot = %v, %v; want 40, true", v, ok)
	}
}

type recordingSender struct {
	lines []string
	err   error
}

func (r *recordingSender) send(line string) error {
	if r.err != nil {
		return r.err
	}
	r.lines = append(r.lines, line)
	return nil
}

func TestPacerCoalesces(t *testing.T) {
	rec := &recordingSender{}
	p := &pacer{
		zone:    core.ZoneMain,
		pending: &pendingVolume{},
		send:    rec.send,
		log:     zap.NewNop(),
	}

	p.pending.Enqueue(30)
	p.pending.Enqueue(35)
	p.pending.Enqueue(40.5)

	if !p.tick() {
		t.Fatal("tick() sent nothing")
	}
	if p.tick() {
		t.Error("second tick() sent again with nothing pending")
	}
	if len(rec.lines) != 1 || rec.lines[0] != "MV405\r\n" {
		t.Errorf("sent %q, want exactly [MV405]", rec.lines)
	}
}

func TestPacerRequeuesWhenDisconnected(t *testing.T) {
	rec := &recordingSender{err: telerrors.ErrNotConnected}
	p := &pacer{
		zone:    core.Zone2,
		pending: &pendingVolume{},
		send:    rec.send,
		log:     zap.NewNop(),
	}

	p.pending.Enqueue(25)
	if p.tick() {
		t.Fatal("tick() reported success while disconnected")
	}

	rec.err = nil
	if !p.tick() {
		t.Fatal("requeued value was not sent once connected")
	}
	if len(rec.lines) != 1 || rec.lines[0] != "Z225\r\n" {
		t.Errorf("sent %q, want [Z225]", rec.lines)
	}
}

func TestPacerDropsOnWriteError(t *testing.T) {
	rec := &recordingSender{err: errors.New("broken pipe")}
	p := &pacer{
		zone:    core.Zone3,
		pending: &pendingVolume{},
		send:    rec.send,
		log:     zap.NewNop(),
	}

	p.pending.Enqueue(25)
	p.tick()
	if !p.pending.Idle() {
		t.Error("failed write should leave the slot idle")
	}
}
