package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tessro/telepath/internal/core"
	"github.com/tessro/telepath/internal/discovery"
	telerrors "github.com/tessro/telepath/internal/errors"
	"github.com/tessro/telepath/internal/prefs"
	"github.com/tessro/telepath/internal/wizard"
)

var (
	receiversNoScan bool
	forgetAll       bool
)

var receiversCmd = &cobra.Command{
	Use:     "receivers",
	Aliases: []string{"receiver", "rx"},
	Short:   "List receivers",
	Long: `Lists receivers found on the local network together with saved ones.
The selected receiver is marked with *.`,
	RunE: runReceiversList,
}

var receiversSelectCmd = &cobra.Command{
	Use:   "select [name|address]",
	Short: "Choose the receiver to control",
	Long: `Saves the receiver used when --receiver is not given.
Without an argument, a picker is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReceiversSelect,
}

var receiversAddCmd = &cobra.Command{
	Use:   "add [address] [name]",
	Short: "Add a receiver by address",
	Long: `Saves a receiver that discovery cannot see. Without arguments, a
prompt asks for the address and an optional name.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runReceiversAdd,
}

var receiversForgetCmd = &cobra.Command{
	Use:   "forget [name|address]",
	Short: "Forget a saved receiver",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReceiversForget,
}

func init() {
	receiversCmd.Flags().BoolVar(&receiversNoScan, "no-scan", false, "only show saved receivers")
	receiversForgetCmd.Flags().BoolVar(&forgetAll, "all", false, "forget every saved receiver")

	receiversCmd.AddCommand(receiversSelectCmd)
	receiversCmd.AddCommand(receiversAddCmd)
	receiversCmd.AddCommand(receiversForgetCmd)
	rootCmd.AddCommand(receiversCmd)
}

// scan browses the network and remembers what it finds. Discovery errors
// are not fatal: saved receivers are still listed.
func scan(cmd *cobra.Command, storage *prefs.Storage, saved *prefs.State) *discovery.Browser {
	b := newBrowser(saved)
	if receiversNoScan {
		return b
	}

	found, err := b.Browse(cmd.Context())
	if err != nil {
		log.Warn("discovery failed", zap.Error(err))
		if !JSONOutput() {
			fmt.Fprintf(os.Stderr, "Discovery failed: %v\n", err)
		}
		return b
	}

	if len(found) > 0 {
		for _, r := range found {
			saved.Remember(r)
		}
		if err := storage.Save(saved); err != nil {
			log.Warn("failed to save receivers", zap.Error(err))
		}
	}
	return b
}

func runReceiversList(cmd *cobra.Command, args []string) error {
	storage, saved, err := openPrefs()
	if err != nil {
		return err
	}

	receivers := scan(cmd, storage, saved).Receivers()

	var selected core.Endpoint
	if saved.Selected != nil {
		selected = *saved.Selected
	}

	if JSONOutput() {
		type entry struct {
			discovery.Receiver
			Selected bool `json:"selected"`
		}
		out := make([]entry, 0, len(receivers))
		for _, r := range receivers {
			out = append(out, entry{Receiver: r, Selected: r.Endpoint.Equal(selected)})
		}
		return printJSON(out)
	}

	if len(receivers) == 0 {
		fmt.Println("No receivers found")
		fmt.Println("\nAdd one with 'telepath receivers add <address>', or try 'telepath --demo status'")
		return nil
	}

	t := NewTable("", "NAME", "ADDRESS", "SOURCE", "SEEN")
	for _, r := range receivers {
		mark := ""
		if r.Endpoint.Equal(selected) {
			mark = "*"
		}
		t.Row(mark, r.DisplayName(), r.Address, receiverSource(r), lastSeen(r.LastSeen))
	}
	t.Flush()
	return nil
}

func receiverSource(r discovery.Receiver) string {
	if r.Manual {
		return "manual"
	}
	if r.Service != "" {
		return r.Service
	}
	return "mdns"
}

func lastSeen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func runReceiversSelect(cmd *cobra.Command, args []string) error {
	storage, saved, err := openPrefs()
	if err != nil {
		return err
	}

	var choice discovery.Receiver
	if len(args) == 1 {
		b := newBrowser(saved)
		r, ok := b.Lookup(args[0])
		if !ok {
			// Unknown names may still be discoverable
			b = scan(cmd, storage, saved)
			r, ok = b.Lookup(args[0])
		}
		if !ok {
			return fmt.Errorf("%q: %w", args[0], telerrors.ErrReceiverNotFound)
		}
		choice = r
	} else {
		receivers := scan(cmd, storage, saved).Receivers()

		var current core.Endpoint
		if saved.Selected != nil {
			current = *saved.Selected
		}
		interactive := wizard.NewInteractive()
		interactive.SetReceivers(receivers, current)
		if !interactive.CanInteract() || JSONOutput() {
			return telerrors.WithSuggestion(telerrors.ErrNoReceiver,
				"Pass a receiver name or address: telepath receivers select <name|address>")
		}

		r, err := interactive.PromptReceiver()
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("selection cancelled")
		}
		choice = *r
	}

	err = storage.Update(func(st *prefs.State) error {
		ep := choice.Endpoint
		st.Selected = &ep
		if !ep.IsDemo() {
			st.Remember(choice)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return report(
		map[string]any{"selected": choice.Endpoint},
		fmt.Sprintf("Selected %s (%s)", choice.DisplayName(), choice.Address),
	)
}

func runReceiversAdd(cmd *cobra.Command, args []string) error {
	storage, err := prefs.NewStorage("")
	if err != nil {
		return err
	}

	var ep core.Endpoint
	switch len(args) {
	case 0:
		interactive := wizard.NewInteractive()
		if !interactive.CanInteract() || JSONOutput() {
			return fmt.Errorf("no address given: %w", telerrors.ErrNoReceiver)
		}
		got, err := interactive.PromptAddress()
		if err != nil {
			return err
		}
		if got == nil {
			return fmt.Errorf("cancelled")
		}
		ep = *got
	case 1:
		ep = core.Endpoint{Address: args[0]}
	default:
		ep = core.Endpoint{Address: args[0], Name: args[1]}
	}

	r := discovery.Receiver{Endpoint: ep, Manual: true, LastSeen: time.Now()}
	err = storage.Update(func(st *prefs.State) error {
		st.Remember(r)
		if st.Selected == nil {
			st.Selected = &ep
		}
		return nil
	})
	if err != nil {
		return err
	}

	return report(
		map[string]any{"added": ep},
		fmt.Sprintf("Added %s (%s)", ep.DisplayName(), ep.Address),
	)
}

func runReceiversForget(cmd *cobra.Command, args []string) error {
	storage, err := prefs.NewStorage("")
	if err != nil {
		return err
	}

	if forgetAll {
		if !storage.Exists() {
			return report(map[string]any{"forgotten": 0}, "Nothing saved")
		}
		if err := storage.Delete(); err != nil {
			return err
		}
		return report(map[string]any{"forgotten": "all"}, "Forgot all saved receivers")
	}

	if len(args) != 1 {
		return fmt.Errorf("give a receiver name or address, or --all")
	}

	var removed bool
	err = storage.Update(func(st *prefs.State) error {
		removed = st.Forget(args[0])
		return nil
	})
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%q: %w", args[0], telerrors.ErrReceiverNotFound)
	}

	return report(map[string]any{"forgotten": args[0]}, fmt.Sprintf("Forgot %s", args[0]))
}
