package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessro/telepath/internal/watch"
)

var (
	watchNoEmoji   bool
	watchTimestamp bool
	watchFormat    string
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"tail", "follow"},
	Short:   "Follow receiver changes in real-time",
	Long: `Stay connected and print receiver changes as they happen.

Events tracked:
  - Connection lost and restored
  - Receiver power
  - Zones appearing, zone power and mute
  - Volume and input changes
  - Maximum volume reports

Template fields: {{.Time}} {{.Emoji}} {{.Type}} {{.Zone}} {{.Volume}} {{.Input}} {{.Message}}`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchNoEmoji, "no-emoji", false, "disable emoji output")
	watchCmd.Flags().BoolVarP(&watchTimestamp, "timestamp", "t", false, "show timestamps")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "", "custom format template")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Stop()

	formatter := watch.NewFormatter(
		watch.WithEmoji(!watchNoEmoji),
		watch.WithTimestamp(watchTimestamp),
		watch.WithTemplate(watchFormat),
		watch.WithJSON(JSONOutput()),
	)

	watcher := watch.NewWatcher(conn)
	defer watcher.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- watcher.Run(ctx)
	}()

	for event := range watcher.Events() {
		fmt.Println(formatter.Format(event))
	}

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
