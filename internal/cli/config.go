package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tessro/telepath/internal/config"
	telerrors "github.com/tessro/telepath/internal/errors"
)

const configHeader = "# Telepath Configuration\n# https://github.com/tessro/telepath\n\n"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing telepath configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration, including defaults and environment overrides.`,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE:  runConfigPath,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long:  `Open the configuration file in your default editor.`,
	RunE:  runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  `Create a new configuration file with default values.`,
	RunE:  runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Supported keys:
  receiver.address          Receiver host or IP
  receiver.name             Display name for the receiver
  receiver.port             Control port (default 23)
  receiver.dial_timeout     Connect timeout in milliseconds
  receiver.pacer_interval   Volume send interval in milliseconds
  receiver.health_interval  Liveness check interval in milliseconds
  receiver.settle           Wait for status replies, in milliseconds
  zones.zone1_limit         Main zone volume limit (0-98)
  zones.zone2_limit         Zone 2 volume limit (0-98)
  zones.zone3_limit         Zone 3 volume limit (0-98)
  zones.selected_zone       Zone driven by volume keys (main, 2, 3)
  zones.step                Volume step for --up/--down and the dashboard
  discovery.service         mDNS service types, comma separated
  discovery.domain          mDNS domain
  discovery.timeout         Browse time in seconds
  tui.theme                 auto, dark or light
  log.level                 debug, info, warn or error
  log.file                  Log file (default: stderr)

Examples:
  telepath config set receiver.address 192.168.1.40
  telepath config set zones.zone2_limit 55`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetReceiverCmd = &cobra.Command{
	Use:   "set-receiver",
	Short: "Interactively choose the configured receiver",
	Long:  `Shows a picker of saved and discovered receivers and writes the choice to the config file.`,
	RunE:  runConfigSetReceiver,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetReceiverCmd)
	rootCmd.AddCommand(configCmd)
}

// keyKinds lists settable keys and their TOML value types.
var keyKinds = map[string]string{
	"receiver.address":         "string",
	"receiver.name":            "string",
	"receiver.port":            "int",
	"receiver.dial_timeout":    "int",
	"receiver.pacer_interval":  "int",
	"receiver.health_interval": "int",
	"receiver.settle":          "int",
	"zones.zone1_limit":        "float",
	"zones.zone2_limit":        "float",
	"zones.zone3_limit":        "float",
	"zones.selected_zone":      "string",
	"zones.step":               "float",
	"discovery.service":        "string",
	"discovery.domain":         "string",
	"discovery.timeout":        "int",
	"tui.theme":                "string",
	"log.level":                "string",
	"log.file":                 "string",
}

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := config.FindConfigFile(); p != "" {
		return p
	}
	if p := config.DefaultPath(); p != "" {
		return p
	}
	return ".telepathrc"
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if JSONOutput() {
		return printJSON(cfg)
	}

	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := getConfigPath()
	_, err := os.Stat(path)
	return report(map[string]any{"path": path, "exists": err == nil}, path)
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", configPath, telerrors.ErrConfigNotFound)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"nano", "vim", "vi", "notepad"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	return editorCmd.Run()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	if err := writeConfigFile(configPath, config.Default()); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "created", "path": configPath})
	}
	fmt.Printf("Created config file: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'telepath receivers' to find receivers on your network")
	fmt.Println("  2. Run 'telepath receivers select' or set receiver.address in the config file")
	return nil
}

// writeConfigFile encodes v with the standard header.
func writeConfigFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	encoder := toml.NewEncoder(&buf)
	encoder.Indent = "  "
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// typedValue converts value to the TOML type expected for key.
func typedValue(key, value string) (any, error) {
	kind, ok := keyKinds[key]
	if !ok {
		return nil, fmt.Errorf("unknown key %q. Run 'telepath config set --help' for the list", key)
	}

	switch kind {
	case "int":
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("value must be an integer for %s", key)
		}
		return i, nil
	case "float":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("value must be a number for %s", key)
		}
		return f, nil
	default:
		return value, nil
	}
}

// setConfigValue updates key in the file at path, keeping other settings,
// and refuses values that would make the file invalid.
func setConfigValue(path, key, value string) error {
	typed, err := typedValue(key, value)
	if err != nil {
		return err
	}

	rawConfig := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if _, err := toml.Decode(string(data), &rawConfig); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config: %w", err)
	}

	section, field, _ := strings.Cut(key, ".")
	sectionMap, ok := rawConfig[section].(map[string]any)
	if !ok {
		sectionMap = make(map[string]any)
		rawConfig[section] = sectionMap
	}
	sectionMap[field] = typed

	// Round-trip through the schema to validate
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(rawConfig); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	var check config.Config
	if _, err := toml.Decode(buf.String(), &check); err != nil {
		return fmt.Errorf("%w: %w", telerrors.ErrInvalidConfig, err)
	}
	check.ApplyDefaults()
	if err := check.Validate(); err != nil {
		return fmt.Errorf("%w: %w", telerrors.ErrInvalidConfig, err)
	}

	return writeConfigFile(path, rawConfig)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	if err := setConfigValue(getConfigPath(), key, value); err != nil {
		return err
	}

	return report(
		map[string]any{"status": "updated", "key": key, "value": value},
		fmt.Sprintf("Set %s = %s", key, value),
	)
}

func runConfigSetReceiver(cmd *cobra.Command, args []string) error {
	storage, saved, err := openPrefs()
	if err != nil {
		return err
	}

	receivers := scan(cmd, storage, saved).Receivers()
	if len(receivers) == 0 {
		return telerrors.WithSuggestion(telerrors.ErrReceiverNotFound,
			"Add one with 'telepath receivers add <address>'")
	}

	var options []huh.Option[string]
	for _, r := range receivers {
		label := r.DisplayName()
		if r.Name != "" {
			label = fmt.Sprintf("%s (%s)", r.Name, r.Address)
		}
		if r.Address == cfg.Receiver.Address {
			label += " [current]"
		}
		options = append(options, huh.NewOption(label, r.Address))
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select receiver").
				Description("Used when --receiver is not given").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("selection cancelled: %w", err)
	}

	path := getConfigPath()
	if err := setConfigValue(path, "receiver.address", selected); err != nil {
		return err
	}
	for _, r := range receivers {
		if r.Address == selected && r.Name != "" {
			if err := setConfigValue(path, "receiver.name", r.Name); err != nil {
				return err
			}
		}
	}

	fmt.Printf("Receiver set to %s\n", selected)
	return nil
}
