package prefs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tessro/telepath/internal/core"
	"github.com/tessro/telepath/internal/discovery"
)

func TestStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receivers.json")

	storage, err := NewStorage(path)
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}
	if storage.Exists() {
		t.Error("Exists() = true, want false for new storage")
	}

	state, err := storage.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if state.Selected != nil || len(state.Receivers) != 0 {
		t.Errorf("Load() of missing file = %+v, want empty", state)
	}

	den := core.Endpoint{Name: "Den", Address: "10.0.0.5"}
	state.Selected = &den
	state.Remember(discovery.Receiver{Endpoint: den, Manual: true, LastSeen: time.Now()})

	if err := storage.Save(state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}

	loaded, err := storage.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Selected == nil || !loaded.Selected.Equal(den) || loaded.Selected.Name != "Den" {
		t.Errorf("Selected = %+v, want %+v", loaded.Selected, den)
	}
	if len(loaded.Receivers) != 1 || !loaded.Receivers[0].Manual {
		t.Errorf("Receivers = %+v", loaded.Receivers)
	}

	if err := storage.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if storage.Exists() {
		t.Error("Exists() = true after Delete")
	}
	if err := storage.Delete(); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receivers.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	storage, _ := NewStorage(path)
	if _, err := storage.Load(); err == nil {
		t.Error("Load() of corrupt file should fail")
	}
}

func TestUpdate(t *testing.T) {
	storage, _ := NewStorage(filepath.Join(t.TempDir(), "nested", "receivers.json"))

	err := storage.Update(func(s *State) error {
		s.Remember(discovery.Receiver{Endpoint: core.Endpoint{Name: "A", Address: "10.0.0.1"}})
		s.Remember(discovery.Receiver{Endpoint: core.Endpoint{Name: "B", Address: "10.0.0.2"}})
		s.Remember(discovery.Receiver{Endpoint: core.Endpoint{Name: "A2", Address: "10.0.0.1"}})
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	boom := errors.New("boom")
	if err := storage.Update(func(*State) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Update() error = %v, want boom", err)
	}

	state, _ := storage.Load()
	if len(state.Receivers) != 2 || state.Receivers[0].Name != "A2" {
		t.Errorf("Receivers = %+v", state.Receivers)
	}
}

func TestForgetClearsSelection(t *testing.T) {
	a := core.Endpoint{Name: "A", Address: "10.0.0.1"}
	state := &State{Selected: &a}
	state.Remember(discovery.Receiver{Endpoint: a})

	if !state.Forget("a") {
		t.Fatal("Forget() = false")
	}
	if state.Selected != nil || len(state.Receivers) != 0 {
		t.Errorf("state after Forget = %+v", state)
	}
	if state.Forget("a") {
		t.Error("second Forget() = true")
	}
}
