package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.telepathrc, $XDG_CONFIG_HOME/telepath/config.toml, ~/.config/telepath/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	// Try loading from file
	path := FindConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// FindConfigFile returns the first existing config file path, or "".
func FindConfigFile() string {
	for _, p := range searchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DefaultPath is where 'config init' writes a new file.
func DefaultPath() string {
	paths := searchPaths()
	if len(paths) == 0 {
		return ""
	}
	return paths[len(paths)-1]
}

func searchPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	paths := []string{
		filepath.Join(home, ".telepathrc"),
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return append(paths, filepath.Join(xdgConfig, "telepath", "config.toml"))
}

// Save writes cfg as TOML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Receiver
	if v := os.Getenv("TELEPATH_RECEIVER_ADDRESS"); v != "" {
		cfg.Receiver.Address = v
	}
	if v := os.Getenv("TELEPATH_RECEIVER_NAME"); v != "" {
		cfg.Receiver.Name = v
	}
	if v := os.Getenv("TELEPATH_RECEIVER_PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Receiver.Port = i
		}
	}

	// Zones
	if v := os.Getenv("TELEPATH_ZONES_SELECTED_ZONE"); v != "" {
		cfg.Zones.Selected = v
	}

	// Discovery
	if v := os.Getenv("TELEPATH_DISCOVERY_SERVICE"); v != "" {
		cfg.Discovery.Service = v
	}
	if v := os.Getenv("TELEPATH_DISCOVERY_TIMEOUT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Discovery.Timeout = i
		}
	}

	// TUI
	if v := os.Getenv("TELEPATH_TUI_THEME"); v != "" {
		cfg.TUI.Theme = v
	}

	// Log
	if v := os.Getenv("TELEPATH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TELEPATH_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
