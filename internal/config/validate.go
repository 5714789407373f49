package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tessro/telepath/internal/core"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Receiver.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("receiver: %w", err))
	}
	if err := c.Zones.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("zones: %w", err))
	}
	if err := c.Discovery.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("discovery: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks ReceiverConfig for errors.
func (c *ReceiverConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.DialTimeout < 0 || c.PacerInterval < 0 || c.HealthInterval < 0 || c.Settle < 0 {
		return errors.New("intervals must be non-negative")
	}
	if strings.ContainsAny(c.Address, " /") {
		return fmt.Errorf("invalid address: %q", c.Address)
	}
	return nil
}

// Validate checks ZonesConfig for errors.
func (c *ZonesConfig) Validate() error {
	for i, limit := range []float64{c.Zone1Limit, c.Zone2Limit, c.Zone3Limit} {
		if limit < 0 || limit > core.DefaultMaxVolume {
			return fmt.Errorf("zone%d_limit must be between 0 and %v", i+1, core.DefaultMaxVolume)
		}
	}
	if c.Selected != "" {
		if _, err := core.ParseZone(c.Selected); err != nil {
			return fmt.Errorf("invalid selected_zone: %s (must be main, 2, or 3)", c.Selected)
		}
	}
	if c.Step < 0 {
		return errors.New("step must be non-negative")
	}
	return nil
}

// Validate checks DiscoveryConfig for errors.
func (c *DiscoveryConfig) Validate() error {
	for _, svc := range c.Services() {
		if !strings.HasPrefix(svc, "_") {
			return fmt.Errorf("invalid service: %s (expected a form like _http._tcp)", svc)
		}
	}
	if c.Timeout < 0 {
		return errors.New("timeout must be non-negative")
	}
	return nil
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	switch c.Theme {
	case "", "auto", "dark", "light":
		// valid
	default:
		return fmt.Errorf("invalid theme: %s (must be auto, dark, or light)", c.Theme)
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
