package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cofoundit/cofoundit-contracts/service"
)

var (
	flagNetwork   string
	flagTimeout   time.Duration
	flagNextGen   bool
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:   "cofoundit",
	Short: "client for the Cofoundit ICO and CFI token contracts",
	Long: `cofoundit deploys, calls and watches the CofounditICO and CofounditToken contracts
from their truffle artifacts, and monitors a running ICO.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(flagLogLevel, flagLogFormat)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagNetwork, "network", service.GetNetworkID(), "deployment record to use, detected from the node when empty")
	pf.DurationVar(&flagTimeout, "timeout", 0, "confirmation timeout, 0 waits forever, defaults to SYNC_TIMEOUT")
	pf.BoolVar(&flagNextGen, "next-gen", service.GetNextGen(), "return receipts and decoded logs of transactions")
	pf.StringVar(&flagLogLevel, "log-level", service.GetLogLevel(), "log level")
	pf.StringVar(&flagLogFormat, "log-format", service.GetLogFormat(), "log format, text or json")
}

// timeoutOverride returns the --timeout value when the flag was given.
func timeoutOverride() (time.Duration, bool) {
	if !rootCmd.PersistentFlags().Changed("timeout") {
		return 0, false
	}
	return flagTimeout, true
}

func setupLogging(level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	log.SetOutput(os.Stderr)
	return nil
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}

	return nil
}
