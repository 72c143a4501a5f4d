package cmd

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cofoundit/cofoundit-contracts/contract"
	"github.com/cofoundit/cofoundit-contracts/service"

	"github.com/ethereum/go-ethereum/common"
)

func init() {
	deployCmd := &cobra.Command{
		Use:   "deploy <contract> [constructor args...]",
		Short: "Deploy a new instance of a contract",
		Args:  cobra.MinimumNArgs(1),
	}
	deployLinks := deployCmd.Flags().StringSlice("link", nil, "library address as Name=0x..., repeatable")
	deployGas := deployCmd.Flags().Uint64("gas", 0, "gas limit, estimated when 0")
	deployCmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), args[0], true)
		if err != nil {
			return err
		}
		defer s.Close()

		links, err := parseLinks(*deployLinks)
		if err != nil {
			return err
		}
		s.factory.LinkLibraries(links)
		if missing := contract.UnresolvedLibraries(s.factory.ResolvedBytecode()); len(missing) > 0 {
			log.Warnf("unlinked libraries: %s", strings.Join(missing, ", "))
		}

		opts, err := txOptions("", *deployGas)
		if err != nil {
			return err
		}
		c, err := s.factory.Deploy(cmd.Context(), append(toArgs(args[1:]), opts)...)
		if err != nil {
			log.Errorf("Failed to deploy %s: %v", s.factory.Name(), err)
			return err
		}
		fmt.Printf("address: %s\ntx: %s\n", c.Address().Hex(), c.TransactionHash().Hex())
		return nil
	}

	contributeCmd := &cobra.Command{
		Use:   "contribute <eth>",
		Short: "Send ETH to the ICO contract",
		Args:  cobra.ExactArgs(1),
	}
	contributeAddress := addressFlag(contributeCmd)
	contributeCmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), "CofounditICO", true)
		if err != nil {
			return err
		}
		defer s.Close()

		address := *contributeAddress
		if address == "" {
			address = service.GetICOAddress()
		}
		ico, err := service.Instance(cmd.Context(), s.factory, address)
		if err != nil {
			return err
		}
		opts, err := txOptions(args[0], 0)
		if err != nil {
			return err
		}
		res, err := ico.Transfer(cmd.Context(), opts)
		if err != nil {
			log.Errorf("Failed to contribute: %v", err)
			return err
		}
		printResult(res)
		return nil
	}

	rootCmd.AddCommand(deployCmd, contributeCmd)
}

func parseLinks(specs []string) (map[string]common.Address, error) {
	links := make(map[string]common.Address, len(specs))
	for _, spec := range specs {
		name, addr, ok := strings.Cut(spec, "=")
		if !ok || name == "" || !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid link %q, expected Name=0x...", spec)
		}
		links[name] = common.HexToAddress(addr)
	}
	return links, nil
}
