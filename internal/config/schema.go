package config

import (
	"strings"
	"time"

	"github.com/tessro/telepath/internal/core"
)

// Config is the root configuration structure.
type Config struct {
	Receiver  ReceiverConfig  `toml:"receiver"`
	Zones     ZonesConfig     `toml:"zones"`
	Discovery DiscoveryConfig `toml:"discovery"`
	TUI       TUIConfig       `toml:"tui"`
	Log       LogConfig       `toml:"log"`
}

// ReceiverConfig holds control connection settings.
type ReceiverConfig struct {
	Address        string `toml:"address"`
	Name           string `toml:"name"`
	Port           int    `toml:"port"`
	DialTimeout    int    `toml:"dial_timeout"`
	PacerInterval  int    `toml:"pacer_interval"`
	HealthInterval int    `toml:"health_interval"`
	Settle         int    `toml:"settle"`
}

// Endpoint returns the configured receiver, if any.
func (c ReceiverConfig) Endpoint() (core.Endpoint, bool) {
	if c.Address == "" {
		return core.Endpoint{}, false
	}
	return core.Endpoint{Name: c.Name, Address: c.Address}, true
}

// DialTimeoutDuration returns DialTimeout in milliseconds as a duration.
func (c ReceiverConfig) DialTimeoutDuration() time.Duration {
	return time.Duration(c.DialTimeout) * time.Millisecond
}

// PacerDuration returns PacerInterval as a duration.
func (c ReceiverConfig) PacerDuration() time.Duration {
	return time.Duration(c.PacerInterval) * time.Millisecond
}

// HealthDuration returns HealthInterval as a duration.
func (c ReceiverConfig) HealthDuration() time.Duration {
	return time.Duration(c.HealthInterval) * time.Millisecond
}

// SettleDuration is how long one-shot commands wait for status replies.
func (c ReceiverConfig) SettleDuration() time.Duration {
	return time.Duration(c.Settle) * time.Millisecond
}

// ZonesConfig holds per-zone volume limits and the zone driven by volume keys.
type ZonesConfig struct {
	Zone1Limit   float64 `toml:"zone1_limit"`
	Zone2Limit   float64 `toml:"zone2_limit"`
	Zone3Limit   float64 `toml:"zone3_limit"`
	Selected     string  `toml:"selected_zone"`
	Step         float64 `toml:"step"`
}

// DiscoveryConfig holds mDNS browsing settings.
type DiscoveryConfig struct {
	Service string `toml:"service"`
	Domain  string `toml:"domain"`
	Timeout int    `toml:"timeout"`
}

// Services splits the comma-separated service list.
func (c DiscoveryConfig) Services() []string {
	var out []string
	for _, s := range strings.Split(c.Service, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// TimeoutDuration returns Timeout in seconds as a duration.
func (c DiscoveryConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}
