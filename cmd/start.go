package cmd

import (
	"github.com/cofoundit/cofoundit-contracts/service"
	log "github.com/sirupsen/logrus"

	"github.com/spf13/cobra"
)

func init() {
	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Start the ICO raise monitor",
		Long:  `monitor reads totalEthRaised of the ICO contract after every new block and reports progress and sale events to Slack`,
		RunE:  monitor,
	}

	rootCmd.AddCommand(monitorCmd)
}

func monitor(cmd *cobra.Command, _ []string) error {
	err := service.Start(cmd.Context())
	if err != nil {
		log.Errorf("Monitor terminated with error: %v", err)
	} else {
		log.Infoln("Monitor terminated gracefully")
	}
	return err
}
