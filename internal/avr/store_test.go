package avr

import (
	"testing"

	"github.com/tessro/telepath/internal/core"
)

func applyLines(t *testing.T, s *Store, lines ...string) {
	t.Helper()
	for _, line := range lines {
		d, ok := ParseLine(line)
		if !ok {
			t.Fatalf("ParseLine(%q) not recognized", line)
		}
		s.Apply(d)
	}
}

func TestStoreStatusSequence(t *testing.T) {
	s := NewStore()
	applyLines(t, s, "PWON", "MV80", "Z2ON", "Z2050")

	snap := s.Snapshot()
	if !snap.GlobalPower {
		t.Error("GlobalPower = false, want true")
	}
	main, ok := snap.Zone(core.ZoneMain)
	if !ok {
		t.Fatal("main zone not present")
	}
	if main.Volume != 80 || main.Powered || main.Muted {
		t.Errorf("main = %+v, want {Powered:false Muted:false Volume:80}", main)
	}
	z2, ok := snap.Zone(core.Zone2)
	if !ok {
		t.Fatal("zone 2 not present")
	}
	if !z2.Powered || z2.Volume != 50 {
		t.Errorf("zone 2 = %+v, want powered at 50", z2)
	}
	if snap.Present(core.Zone3) {
		t.Error("zone 3 should be absent")
	}
}

func TestStoreMainPowerDoesNotCreateZone2(t *testing.T) {
	s := NewStore()
	applyLines(t, s, "ZMON")

	snap := s.Snapshot()
	main, _ := snap.Zone(core.ZoneMain)
	if !main.Powered {
		t.Error("main should be powered")
	}
	if snap.Present(core.Zone2) {
		t.Error("ZM must not mark zone 2 present")
	}
}

func TestStoreMaterializesZoneWithDefaults(t *testing.T) {
	s := NewStore()
	applyLines(t, s, "Z3MUON")

	z3, ok := s.Snapshot().Zone(core.Zone3)
	if !ok {
		t.Fatal("zone 3 not present")
	}
	if z3 != (core.ZoneState{Muted: true}) {
		t.Errorf("zone 3 = %+v, want only Muted set", z3)
	}
}

func TestStoreMaxVolumeAndInput(t *testing.T) {
	s := NewStore()
	applyLines(t, s, "MVMAX 98", "MV49", "SIBD", "Z2NET")

	snap := s.Snapshot()
	pct, ok := snap.VolumePercent(core.ZoneMain)
	if !ok || pct != 0.5 {
		t.Errorf("VolumePercent = %v, %v; want 0.5, true", pct, ok)
	}
	if snap.Inputs[core.ZoneMain] != core.InputBD {
		t.Errorf("main input = %q, want bd", snap.Inputs[core.ZoneMain])
	}
	if snap.Inputs[core.Zone2] != core.InputNet || !snap.Present(core.Zone2) {
		t.Errorf("zone 2 input = %q, present %v", snap.Inputs[core.Zone2], snap.Present(core.Zone2))
	}
}

func TestStoreRejectsInvalidZone(t *testing.T) {
	s := NewStore()
	if s.Apply(Delta{Kind: DeltaZonePower, Zone: core.ZoneID(7), On: true}) {
		t.Error("Apply() accepted an invalid zone")
	}
	if s.Apply(Delta{}) {
		t.Error("Apply() accepted a zero delta")
	}
}

func TestStoreSnapshotIsIsolated(t *testing.T) {
	s := NewStore()
	applyLines(t, s, "MV40")

	snap := s.Snapshot()
	snap.Zones[core.ZoneMain].Volume = 99

	main, _ := s.Snapshot().Zone(core.ZoneMain)
	if main.Volume != 40 {
		t.Errorf("store volume = %v after mutating a snapshot, want 40", main.Volume)
	}
}

func TestStoreResetAndDemo(t *testing.T) {
	s := NewStore()
	s.LoadDemo()

	snap := s.Snapshot()
	if !snap.Demo || !snap.Connected || len(snap.ActiveZones()) != core.NumZones {
		t.Fatalf("demo state = %+v", snap)
	}
	for _, z := range core.Zones {
		zs, _ := snap.Zone(z)
		if zs != (core.ZoneState{Powered: true, Volume: 40}) {
			t.Errorf("%s = %+v, want powered at 40", z, zs)
		}
	}
	if snap.MaxVolume == nil || *snap.MaxVolume != core.DefaultMaxVolume {
		t.Errorf("MaxVolume = %v, want %v", snap.MaxVolume, core.DefaultMaxVolume)
	}

	s.Reset()
	snap = s.Snapshot()
	if snap.Demo || snap.MaxVolume != nil || len(snap.ActiveZones()) != 0 {
		t.Errorf("state after Reset = %+v", snap)
	}
}

func TestStoreSubscribeLatestWins(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe()
	defer cancel()

	initial := <-ch
	if len(initial.ActiveZones()) != 0 {
		t.Fatalf("initial snapshot has zones: %v", initial.ActiveZones())
	}

	applyLines(t, s, "MV10", "MV20", "MV30")

	got := <-ch
	main, _ := got.Zone(core.ZoneMain)
	if main.Volume != 30 {
		t.Errorf("subscriber saw volume %v, want latest 30", main.Volume)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected buffered snapshot %+v", extra)
	default:
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	cancel()
}
