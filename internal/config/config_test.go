package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tessro/telepath/internal/core"
)

func TestLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[receiver]
address = "192.168.1.40"
name = "Living Room"

[zones]
zone2_limit = 60
selected_zone = "2"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	ep, ok := cfg.Receiver.Endpoint()
	if !ok || ep.Address != "192.168.1.40" || ep.Name != "Living Room" {
		t.Errorf("Endpoint() = %+v, %v", ep, ok)
	}
	if cfg.Receiver.Port != 23 {
		t.Errorf("Port = %d, want default 23", cfg.Receiver.Port)
	}
	if got := cfg.Zones.VolumeCeiling(core.Zone2); got != 60 {
		t.Errorf("VolumeCeiling(zone2) = %v, want 60", got)
	}
	if got := cfg.Zones.VolumeCeiling(core.ZoneMain); got != 80 {
		t.Errorf("VolumeCeiling(main) = %v, want default 80", got)
	}
	if got := cfg.Zones.SelectedZone(); got != core.Zone2 {
		t.Errorf("SelectedZone() = %v, want zone 2", got)
	}
	if cfg.Discovery.Service != "_http._tcp" {
		t.Errorf("Discovery.Service = %q", cfg.Discovery.Service)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TELEPATH_RECEIVER_ADDRESS", "10.0.0.7")
	t.Setenv("TELEPATH_RECEIVER_PORT", "2323")
	t.Setenv("TELEPATH_LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[receiver]\naddress = \"10.0.0.1\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Receiver.Address != "10.0.0.7" || cfg.Receiver.Port != 2323 || cfg.Log.Level != "debug" {
		t.Errorf("overrides not applied: %+v %+v", cfg.Receiver, cfg.Log)
	}
}

func TestLoadSearchesXDG(t *testing.T) {
	home := t.TempDir()
	xdg := filepath.Join(home, "xdg")
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", xdg)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() without a file error = %v", err)
	}
	if _, ok := cfg.Receiver.Endpoint(); ok {
		t.Error("expected no configured receiver")
	}

	want := filepath.Join(xdg, "telepath", "config.toml")
	if DefaultPath() != want {
		t.Fatalf("DefaultPath() = %q, want %q", DefaultPath(), want)
	}

	cfg.Receiver.Address = "avr.local"
	if err := Save(cfg, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if FindConfigFile() != want {
		t.Errorf("FindConfigFile() = %q, want %q", FindConfigFile(), want)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Receiver.Address != "avr.local" {
		t.Errorf("Address = %q after round trip", loaded.Receiver.Address)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Receiver.Port = 70000 }, "invalid port"},
		{"limit too high", func(c *Config) { c.Zones.Zone3Limit = 120 }, "zone3_limit"},
		{"bad zone", func(c *Config) { c.Zones.Selected = "kitchen" }, "selected_zone"},
		{"bad service", func(c *Config) { c.Discovery.Service = "http" }, "invalid service"},
		{"service list", func(c *Config) { c.Discovery.Service = "_http._tcp, _raop._tcp" }, ""},
		{"bad service in list", func(c *Config) { c.Discovery.Service = "_http._tcp,raop" }, "invalid service: raop"},
		{"bad theme", func(c *Config) { c.TUI.Theme = "neon" }, "invalid theme"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSelectedZoneFallback(t *testing.T) {
	z := ZonesConfig{Selected: "garage"}
	if z.SelectedZone() != core.ZoneMain {
		t.Errorf("SelectedZone() = %v, want main", z.SelectedZone())
	}
}

func TestDiscoveryServices(t *testing.T) {
	c := DiscoveryConfig{Service: " _http._tcp, ,_raop._tcp "}
	got := c.Services()
	if len(got) != 2 || got[0] != "_http._tcp" || got[1] != "_raop._tcp" {
		t.Errorf("Services() = %q", got)
	}
}
