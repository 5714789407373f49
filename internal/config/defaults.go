package config

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Receiver: ReceiverConfig{
			Port:           23,
			DialTimeout:    5000,
			PacerInterval:  10,
			HealthInterval: 10000,
			Settle:         750,
		},
		Zones: ZonesConfig{
			Zone1Limit: 80,
			Zone2Limit: 80,
			Zone3Limit: 80,
			Selected:   "main",
			Step:       1,
		},
		Discovery: DiscoveryConfig{
			Service: "_http._tcp",
			Domain:  "local.",
			Timeout: 5,
		},
		TUI: TUIConfig{
			Theme: "auto",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Receiver
	if c.Receiver.Port == 0 {
		c.Receiver.Port = d.Receiver.Port
	}
	if c.Receiver.DialTimeout == 0 {
		c.Receiver.DialTimeout = d.Receiver.DialTimeout
	}
	if c.Receiver.PacerInterval == 0 {
		c.Receiver.PacerInterval = d.Receiver.PacerInterval
	}
	if c.Receiver.HealthInterval == 0 {
		c.Receiver.HealthInterval = d.Receiver.HealthInterval
	}
	if c.Receiver.Settle == 0 {
		c.Receiver.Settle = d.Receiver.Settle
	}

	// Zones
	if c.Zones.Zone1Limit == 0 {
		c.Zones.Zone1Limit = d.Zones.Zone1Limit
	}
	if c.Zones.Zone2Limit == 0 {
		c.Zones.Zone2Limit = d.Zones.Zone2Limit
	}
	if c.Zones.Zone3Limit == 0 {
		c.Zones.Zone3Limit = d.Zones.Zone3Limit
	}
	if c.Zones.Selected == "" {
		c.Zones.Selected = d.Zones.Selected
	}
	if c.Zones.Step == 0 {
		c.Zones.Step = d.Zones.Step
	}

	// Discovery
	if c.Discovery.Service == "" {
		c.Discovery.Service = d.Discovery.Service
	}
	if c.Discovery.Domain == "" {
		c.Discovery.Domain = d.Discovery.Domain
	}
	if c.Discovery.Timeout == 0 {
		c.Discovery.Timeout = d.Discovery.Timeout
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}
