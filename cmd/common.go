package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cofoundit/cofoundit-contracts/binding"
	"github.com/cofoundit/cofoundit-contracts/contract"
	"github.com/cofoundit/cofoundit-contracts/service"

	"github.com/ethereum/go-ethereum/ethclient"
)

// loadArtifact resolves an embedded contract name or a path to an artifact file.
func loadArtifact(name string) (*contract.Artifact, error) {
	if a, ok := contract.Builtin(name); ok {
		return a, nil
	}
	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("%q is neither CofounditICO, CofounditToken nor an artifact file", name)
	}
	return contract.LoadArtifact(name)
}

type session struct {
	client  *ethclient.Client
	factory *binding.Factory
}

func (s *session) Close() {
	s.client.Close()
}

// openSession dials the node and configures a factory for the named
// contract. withSigner makes the factory send as the configured signer.
func openSession(ctx context.Context, name string, withSigner bool) (*session, error) {
	artifact, err := loadArtifact(name)
	if err != nil {
		return nil, err
	}

	cfg, err := service.FactoryConfigFromEnv()
	if err != nil {
		return nil, err
	}
	cfg.NetworkID = flagNetwork
	cfg.NextGen = flagNextGen
	if timeout, ok := timeoutOverride(); ok {
		cfg.Timeout = timeout
	}

	client, err := service.Dial(ctx)
	if err != nil {
		return nil, err
	}

	var signer service.Signer
	if withSigner {
		if signer, err = service.NewSigner(ctx); err != nil {
			client.Close()
			log.Errorf("Failed to create signer: %v", err)
			return nil, err
		}
	}

	f, err := service.NewFactory(ctx, artifact, client, signer, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}
	return &session{client: client, factory: f}, nil
}

func addressFlag(cmd *cobra.Command) *string {
	return cmd.Flags().String("address", "", "contract address, defaults to the deployment record")
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}

func toArgs(args []string) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

func printResult(res *binding.Result) {
	if len(res.Outputs) > 0 {
		for _, out := range res.Outputs {
			fmt.Println(formatValue(out))
		}
		return
	}

	fmt.Printf("tx: %s\n", res.TxHash.Hex())
	if res.Receipt == nil {
		return
	}
	status := "success"
	if res.Failed() {
		status = "failed"
	}
	fmt.Printf("block: %s  gas used: %d  status: %s\n", res.Receipt.BlockNumber, res.Receipt.GasUsed, status)
	if len(res.Logs) > 0 {
		printLogs(res.Logs)
	}
}

func printLogs(logs []*contract.DecodedLog) {
	t := newTable()
	t.AppendHeader(table.Row{"Block", "Event", "Args", "Tx"})
	for _, l := range logs {
		t.AppendRow(table.Row{l.BlockNumber, l.Event, formatArgs(l.Args), l.TxHash.Hex()})
	}
	t.Render()
}
