package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cofoundit/cofoundit-contracts/binding"
	"github.com/cofoundit/cofoundit-contracts/contract"

	"github.com/ethereum/go-ethereum/ethclient"
)

// FactoryConfig carries the per-factory settings read from the environment.
type FactoryConfig struct {
	NetworkID    string
	Timeout      time.Duration
	PollInterval time.Duration
	NextGen      bool
}

func FactoryConfigFromEnv() (FactoryConfig, error) {
	timeout, err := GetSyncTimeout()
	if err != nil {
		return FactoryConfig{}, err
	}
	interval, err := GetPollInterval()
	if err != nil {
		return FactoryConfig{}, err
	}
	return FactoryConfig{
		NetworkID:    GetNetworkID(),
		Timeout:      timeout,
		PollInterval: interval,
		NextGen:      GetNextGen(),
	}, nil
}

func Dial(ctx context.Context) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, GetEthEndpoint())
	if err != nil {
		log.Errorf("Failed to connect to the Ethereum client: %v", err)
		return nil, err
	}
	return client, nil
}

// NewFactory configures a factory for artifact on backend. With a signer the
// factory sends as that signer by default.
func NewFactory(ctx context.Context, artifact *contract.Artifact, backend binding.Backend, signer Signer, cfg FactoryConfig) (*binding.Factory, error) {
	f, err := binding.Configure(artifact, cfg.NetworkID,
		binding.WithTimeout(cfg.Timeout),
		binding.WithPollInterval(cfg.PollInterval),
		binding.WithExtendedResults(cfg.NextGen),
	)
	if err != nil {
		log.Errorf("Failed to configure %s: %v", artifact.ContractName, err)
		return nil, err
	}
	f.SetTransport(backend)

	if signer != nil {
		chainID, err := backend.ChainID(ctx)
		if err != nil {
			log.Errorf("Failed to get chain ID: %v", err)
			return nil, err
		}
		f.MergeDefaults(TransactOptions(signer, chainID))
	}
	return f, nil
}

// Instance attaches to address, or to the deployment record of the bound
// network when address is empty.
func Instance(ctx context.Context, f *binding.Factory, address string) (*binding.Client, error) {
	if address != "" {
		return f.Attach(address)
	}
	return f.Deployed(ctx)
}
