package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/telepath/internal/core"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show receiver status",
	Long:  `Connects to the receiver and shows power, mute, volume and input for every zone it reports.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type zoneStatus struct {
	Zone    string  `json:"zone"`
	Powered bool    `json:"powered"`
	Muted   bool    `json:"muted"`
	Volume  float64 `json:"volume"`
	Input   string  `json:"input,omitempty"`
}

type statusResult struct {
	Receiver  core.Endpoint `json:"receiver"`
	Connected bool          `json:"connected"`
	Demo      bool          `json:"demo,omitempty"`
	Power     bool          `json:"power"`
	MaxVolume *float64      `json:"max_volume,omitempty"`
	Zones     []zoneStatus  `json:"zones"`
}

func newStatusResult(ep core.Endpoint, st core.ReceiverState) statusResult {
	res := statusResult{
		Receiver:  ep,
		Connected: st.Connected,
		Demo:      st.Demo,
		Power:     st.GlobalPower,
		MaxVolume: st.MaxVolume,
		Zones:     []zoneStatus{},
	}
	for _, z := range st.ActiveZones() {
		zs, _ := st.Zone(z)
		input := ""
		if st.Inputs[z] != core.InputSelect {
			input = string(st.Inputs[z])
		}
		res.Zones = append(res.Zones, zoneStatus{
			Zone:    z.String(),
			Powered: zs.Powered,
			Muted:   zs.Muted,
			Volume:  zs.Volume,
			Input:   input,
		})
	}
	return res
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Stop()

	res := newStatusResult(conn.Endpoint(), conn.Snapshot())
	if JSONOutput() {
		return printJSON(res)
	}
	writeStatus(os.Stdout, res)
	return nil
}

func writeStatus(w io.Writer, res statusResult) {
	power := "standby"
	if res.Power {
		power = "on"
	}
	fmt.Fprintf(w, "%s %s (%s)\n", StatusIcon(res.Power), res.Receiver.DisplayName(), power)
	if res.MaxVolume != nil {
		fmt.Fprintf(w, "  max volume %s\n", FormatVolume(*res.MaxVolume))
	}

	if len(res.Zones) == 0 {
		fmt.Fprintln(w, "\nNo zones reported")
		return
	}

	fmt.Fprintln(w)
	t := NewTableWriter(w, "ZONE", "POWER", "MUTE", "VOLUME", "", "INPUT")
	for _, z := range res.Zones {
		bar := ""
		if res.MaxVolume != nil && *res.MaxVolume > 0 {
			bar = VolumeBar(z.Volume / *res.MaxVolume, 20)
		}
		input := z.Input
		if input == "" {
			input = "-"
		}
		t.Row(
			z.Zone,
			StatusIcon(z.Powered)+" "+OnOff(z.Powered),
			OnOff(z.Muted),
			FormatVolume(z.Volume),
			bar,
			strings.ToUpper(input),
		)
	}
	t.Flush()
}
