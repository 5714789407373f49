package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tessro/telepath/internal/avr"
	"github.com/tessro/telepath/internal/core"
	telerrors "github.com/tessro/telepath/internal/errors"
	"github.com/tessro/telepath/internal/wizard"
)

var powerCmd = &cobra.Command{
	Use:       "power [on|off|toggle]",
	Short:     "Turn the receiver on or put it in standby",
	Long:      `Controls global receiver power. Without an argument the power state is toggled.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off", "toggle"},
	RunE:      runPower,
}

var zoneCmd = &cobra.Command{
	Use:   "zone <zone> [on|off|toggle]",
	Short: "Turn a zone on or off",
	Long: `Controls power for a single zone.

Zones are main, 2 and 3. Without a state the zone is toggled; a zone
that has not reported yet is turned on.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runZone,
}

var muteCmd = &cobra.Command{
	Use:   "mute <zone> [on|off|toggle]",
	Short: "Mute or unmute a zone",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runMute,
}

var (
	volumeUp   bool
	volumeDown bool
	volumeStep float64
)

var volumeCmd = &cobra.Command{
	Use:   "volume <zone> [level]",
	Short: "Show, set or adjust zone volume",
	Long: `Show, set or adjust the volume of a zone.

Levels are on the receiver's own scale (0-98). The main zone accepts
half steps; zones 2 and 3 round to whole steps. Levels above the zone
limit in the config file are clamped.

Examples:
  telepath volume main         # Show main zone volume
  telepath volume main 45.5    # Set main zone volume
  telepath volume 2 --up       # Raise zone 2 by one step
  telepath volume 2 --down --step 5`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runVolume,
}

var inputCmd = &cobra.Command{
	Use:   "input <zone> [device]",
	Short: "Select the input for a zone",
	Long: `Routes an input device to a zone. Without a device, a picker is shown
when running in a terminal.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInput,
}

func init() {
	volumeCmd.Flags().BoolVar(&volumeUp, "up", false, "raise volume by one step")
	volumeCmd.Flags().BoolVar(&volumeDown, "down", false, "lower volume by one step")
	volumeCmd.Flags().Float64Var(&volumeStep, "step", 0, "step size for --up/--down (default: zones.step)")
	volumeCmd.MarkFlagsMutuallyExclusive("up", "down")

	rootCmd.AddCommand(powerCmd)
	rootCmd.AddCommand(zoneCmd)
	rootCmd.AddCommand(muteCmd)
	rootCmd.AddCommand(volumeCmd)
	rootCmd.AddCommand(inputCmd)
}

// switchArg is an optional on/off/toggle argument.
type switchArg int

const (
	switchToggle switchArg = iota
	switchOn
	switchOff
)

func parseSwitch(args []string, i int) (switchArg, error) {
	if len(args) <= i {
		return switchToggle, nil
	}
	switch strings.ToLower(args[i]) {
	case "toggle":
		return switchToggle, nil
	case "on", "true", "1":
		return switchOn, nil
	case "off", "false", "0", "standby":
		return switchOff, nil
	}
	return switchToggle, fmt.Errorf("invalid state %q (expected on, off or toggle)", args[i])
}

// withConnection connects, runs fn, then flushes queued volume and returns
// the last known state before disconnecting.
func withConnection(ctx context.Context, fn func(*avr.Connection) error) (core.ReceiverState, error) {
	conn, err := connect(ctx)
	if err != nil {
		return core.ReceiverState{}, err
	}
	defer conn.Stop()

	if err := fn(conn); err != nil {
		return core.ReceiverState{}, err
	}
	if err := flush(ctx, conn); err != nil {
		return core.ReceiverState{}, err
	}
	return conn.Snapshot(), nil
}

func report(result map[string]any, text string) error {
	if JSONOutput() {
		return printJSON(result)
	}
	fmt.Println(text)
	return nil
}

func runPower(cmd *cobra.Command, args []string) error {
	sw, err := parseSwitch(args, 0)
	if err != nil {
		return err
	}

	var on bool
	_, err = withConnection(cmd.Context(), func(conn *avr.Connection) error {
		switch sw {
		case switchToggle:
			snap := conn.Snapshot()
			on = !snap.GlobalPower
		default:
			on = sw == switchOn
		}
		return conn.SetPower(on)
	})
	if err != nil {
		return fmt.Errorf("failed to set power: %w", err)
	}

	text := "⏻ Receiver on"
	if !on {
		text = "⏾ Receiver standby"
	}
	return report(map[string]any{"power": on}, text)
}

func runZone(cmd *cobra.Command, args []string) error {
	z, err := parseZoneArg(args[0])
	if err != nil {
		return err
	}
	sw, err := parseSwitch(args, 1)
	if err != nil {
		return err
	}

	var on bool
	_, err = withConnection(cmd.Context(), func(conn *avr.Connection) error {
		switch sw {
		case switchToggle:
			snap := conn.Snapshot()
			zs, ok := snap.Zone(z)
			on = !ok || !zs.Powered
		default:
			on = sw == switchOn
		}
		return conn.SetZonePower(z, on)
	})
	if err != nil {
		return fmt.Errorf("failed to set %s power: %w", z, err)
	}

	return report(
		map[string]any{"zone": z.String(), "powered": on},
		fmt.Sprintf("%s %s %s", StatusIcon(on), z, OnOff(on)),
	)
}

func runMute(cmd *cobra.Command, args []string) error {
	z, err := parseZoneArg(args[0])
	if err != nil {
		return err
	}
	sw, err := parseSwitch(args, 1)
	if err != nil {
		return err
	}

	var muted bool
	_, err = withConnection(cmd.Context(), func(conn *avr.Connection) error {
		switch sw {
		case switchToggle:
			snap := conn.Snapshot()
			zs, ok := snap.Zone(z)
			muted = ok && !zs.Muted
		default:
			muted = sw == switchOn
		}
		return conn.SetMute(z, muted)
	})
	if err != nil {
		return fmt.Errorf("failed to set %s mute: %w", z, err)
	}

	text := fmt.Sprintf("🔊 %s unmuted", z)
	if muted {
		text = fmt.Sprintf("🔇 %s muted", z)
	}
	return report(map[string]any{"zone": z.String(), "muted": muted}, text)
}

func runVolume(cmd *cobra.Command, args []string) error {
	z, err := parseZoneArg(args[0])
	if err != nil {
		return err
	}

	var level float64
	hasLevel := len(args) == 2
	if hasLevel {
		level, err = strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("%q: %w", args[1], telerrors.ErrInvalidVolume)
		}
		if volumeUp || volumeDown {
			return fmt.Errorf("cannot combine a level with --up or --down")
		}
	}

	step := volumeStep
	if step <= 0 {
		step = cfg.Zones.Step
	}

	var target float64
	snap, err := withConnection(cmd.Context(), func(conn *avr.Connection) error {
		st := conn.Snapshot()
		zs, ok := st.Zone(z)
		switch {
		case hasLevel:
			target = core.ClampVolume(core.Quantize(z, level), conn.Ceiling(z))
			return conn.EnqueueVolume(z, level)
		case volumeUp, volumeDown:
			if !ok {
				return fmt.Errorf("%s has not reported its volume: %w", z, telerrors.ErrNotConnected)
			}
			delta := step
			if volumeDown {
				delta = -step
			}
			target = core.ClampVolume(core.Quantize(z, zs.Volume+delta), conn.Ceiling(z))
			return conn.StepVolume(z, delta)
		default:
			if !ok {
				return fmt.Errorf("%s has not reported its volume: %w", z, telerrors.ErrNotConnected)
			}
			target = zs.Volume
			return nil
		}
	})
	if err != nil {
		return fmt.Errorf("volume: %w", err)
	}

	result := map[string]any{"zone": z.String(), "volume": target}
	text := fmt.Sprintf("%s volume %s", z, FormatVolume(target))
	if snap.MaxVolume != nil && *snap.MaxVolume > 0 {
		result["max_volume"] = *snap.MaxVolume
		text = fmt.Sprintf("%s volume %s %s", z, VolumeBar(target / *snap.MaxVolume, 20), FormatVolume(target))
	}
	return report(result, text)
}

func runInput(cmd *cobra.Command, args []string) error {
	z, err := parseZoneArg(args[0])
	if err != nil {
		return err
	}

	var dev core.InputDevice
	if len(args) == 2 {
		dev, err = core.ParseInputDevice(args[1])
		if err != nil {
			return fmt.Errorf("%w: %w", telerrors.ErrInvalidInput, err)
		}
	} else {
		if !wizard.IsTerminal() || JSONOutput() {
			return fmt.Errorf("no input given: %w", telerrors.ErrInvalidInput)
		}
		dev, err = pickInput(z)
		if err != nil {
			return err
		}
	}

	_, err = withConnection(cmd.Context(), func(conn *avr.Connection) error {
		return conn.SetInputDevice(z, dev)
	})
	if err != nil {
		return fmt.Errorf("failed to set input: %w", err)
	}

	return report(
		map[string]any{"zone": z.String(), "input": string(dev)},
		fmt.Sprintf("🎛 %s → %s", z, strings.ToUpper(string(dev))),
	)
}

func pickInput(z core.ZoneID) (core.InputDevice, error) {
	options := make([]huh.Option[core.InputDevice], 0, len(core.InputDevices))
	for _, d := range core.InputDevices {
		options = append(options, huh.NewOption(strings.ToUpper(string(d)), d))
	}

	var selected core.InputDevice
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[core.InputDevice]().
				Title(fmt.Sprintf("Select input for %s", z)).
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("selection cancelled: %w", err)
	}
	return selected, nil
}
