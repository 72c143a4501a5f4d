package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cofoundit/cofoundit-contracts/contract"
	"github.com/cofoundit/cofoundit-contracts/service"

	"github.com/ethereum/go-ethereum/event"
)

func init() {
	watchCmd := &cobra.Command{
		Use:   "watch <contract> [event]",
		Short: "Stream decoded events of a contract, all of them when no event is named",
		Args:  cobra.RangeArgs(1, 2),
	}
	watchAddress := addressFlag(watchCmd)
	watchFrom := watchCmd.Flags().Uint64("from-block", 0, "print past events from this block before streaming")
	watchCmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, args[0], false)
		if err != nil {
			return err
		}
		defer s.Close()

		c, err := service.Instance(ctx, s.factory, *watchAddress)
		if err != nil {
			return err
		}

		sink := make(chan *contract.DecodedLog)
		var sub event.Subscription
		if len(args) == 2 {
			ev, err := c.Event(args[1])
			if err != nil {
				return err
			}
			if *watchFrom > 0 {
				past, err := ev.Filter(ctx, *watchFrom, nil)
				if err != nil {
					return err
				}
				printLogs(past)
			}
			sub, err = ev.Watch(ctx, sink)
			if err != nil {
				return err
			}
		} else if sub, err = c.WatchAll(ctx, sink); err != nil {
			return err
		}
		defer sub.Unsubscribe()

		log.Infof("Watching %s at %s", s.factory.Name(), c.Address().Hex())
		for {
			select {
			case <-ctx.Done():
				return nil
			case err := <-sub.Err():
				if err != nil {
					log.Errorf("Subscription error: %v", err)
				}
				return err
			case l := <-sink:
				fmt.Printf("%d %s %s %s\n", l.BlockNumber, l.Event, l.TxHash.Hex(), formatArgs(l.Args))
			}
		}
	}

	rootCmd.AddCommand(watchCmd)
}
