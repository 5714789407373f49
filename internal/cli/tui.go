package cli

import (
	"github.com/spf13/cobra"

	"github.com/tessro/telepath/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Launch interactive dashboard",
	Long: `Launch the interactive terminal dashboard.

The dashboard shows every zone side by side with live power, mute,
volume and input, updated as the receiver reports changes.

Keyboard shortcuts:
  q, Esc       Quit
  ?            Help
  Tab          Next zone
  p            Receiver power
  o            Zone power
  m            Mute
  +/-          Volume up/down
  i            Next input`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	conn, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer conn.Stop()

	return tui.Run(conn, tui.Options{
		Step:  cfg.Zones.Step,
		Zone:  cfg.Zones.SelectedZone(),
		Theme: cfg.TUI.Theme,
	})
}
