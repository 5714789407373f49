package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tessro/telepath/internal/config"
	telerrors "github.com/tessro/telepath/internal/errors"
	"github.com/tessro/telepath/internal/logging"
)

var (
	cfgFile      string
	jsonOut      bool
	verbose      bool
	receiverFlag string
	demoFlag     bool

	cfg      *config.Config
	log      = zap.NewNop()
	closeLog = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "telepath",
	Short: "Control a networked AV receiver from the command line",
	Long: `Telepath controls Denon and Marantz receivers over their telnet
control protocol: power, mute, volume and input for every zone.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.telepathrc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&receiverFlag, "receiver", "r", "", "receiver name or address")
	rootCmd.PersistentFlags().BoolVar(&demoFlag, "demo", false, "use the offline demo receiver")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", telerrors.ErrInvalidConfig, err)
	}

	level := cfg.Log.Level
	if verbose {
		level = logging.DebugLevel
	}
	l, closer, err := logging.New(level, cfg.Log.File)
	if err != nil {
		return err
	}
	log, closeLog = l, closer

	return nil
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	closeLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, telerrors.Format(err))
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}
