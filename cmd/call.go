package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cofoundit/cofoundit-contracts/binding"
	"github.com/cofoundit/cofoundit-contracts/service"
)

func init() {
	callCmd := &cobra.Command{
		Use:   "call <contract> <function> [args...]",
		Short: "Simulate a function and print its outputs",
		Args:  cobra.MinimumNArgs(2),
	}
	callAddress := addressFlag(callCmd)
	callCmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}
		defer s.Close()

		c, err := service.Instance(cmd.Context(), s.factory, *callAddress)
		if err != nil {
			return err
		}
		out, err := c.Call(cmd.Context(), args[1], toArgs(args[2:])...)
		if err != nil {
			log.Errorf("Failed to call %s: %v", args[1], err)
			return err
		}
		printResult(&binding.Result{Outputs: out})
		return nil
	}

	sendCmd := &cobra.Command{
		Use:   "send <contract> <function> [args...]",
		Short: "Invoke a function, sending a transaction when it is not read-only",
		Args:  cobra.MinimumNArgs(2),
	}
	sendAddress := addressFlag(sendCmd)
	sendValue := sendCmd.Flags().String("value", "", "ETH to send along")
	sendGas := sendCmd.Flags().Uint64("gas", 0, "gas limit, estimated when 0")
	sendCmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), args[0], true)
		if err != nil {
			return err
		}
		defer s.Close()

		c, err := service.Instance(cmd.Context(), s.factory, *sendAddress)
		if err != nil {
			return err
		}
		opts, err := txOptions(*sendValue, *sendGas)
		if err != nil {
			return err
		}
		res, err := c.Invoke(cmd.Context(), args[1], append(toArgs(args[2:]), opts)...)
		if err != nil {
			log.Errorf("Failed to invoke %s: %v", args[1], err)
			return err
		}
		printResult(res)
		return nil
	}

	estimateCmd := &cobra.Command{
		Use:   "estimate <contract> <function> [args...]",
		Short: "Estimate the gas a function call would use",
		Args:  cobra.MinimumNArgs(2),
	}
	estimateAddress := addressFlag(estimateCmd)
	estimateCmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), args[0], true)
		if err != nil {
			return err
		}
		defer s.Close()

		c, err := service.Instance(cmd.Context(), s.factory, *estimateAddress)
		if err != nil {
			return err
		}
		gas, err := c.EstimateGas(cmd.Context(), args[1], toArgs(args[2:])...)
		if err != nil {
			log.Errorf("Failed to estimate %s: %v", args[1], err)
			return err
		}
		fmt.Println(gas)
		return nil
	}

	rootCmd.AddCommand(callCmd, sendCmd, estimateCmd)
}

// txOptions builds per-call options from command-line flags.
func txOptions(value string, gas uint64) (binding.Options, error) {
	opts := binding.Options{Gas: gas}
	if value != "" {
		wei, err := service.EthToWei(value)
		if err != nil {
			return binding.Options{}, err
		}
		opts.Value = wei
	}
	return opts, nil
}
