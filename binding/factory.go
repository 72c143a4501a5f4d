package binding

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cofoundit/cofoundit-contracts/contract"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	DefaultTimeout      = 240 * time.Second
	DefaultPollInterval = time.Second
)

// Backend is the transport a factory dispatches through. *ethclient.Client
// and the simulated backend's client satisfy it.
type Backend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

type config struct {
	timeout      time.Duration
	pollInterval time.Duration
	extended     bool
}

// FactoryOption tunes a factory at configuration time.
type FactoryOption func(*config)

// WithTimeout bounds the confirmation wait. Zero waits forever.
func WithTimeout(d time.Duration) FactoryOption {
	return func(c *config) { c.timeout = d }
}

// WithPollInterval sets the delay between receipt lookups.
func WithPollInterval(d time.Duration) FactoryOption {
	return func(c *config) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithExtendedResults makes mutating calls return the receipt and the decoded
// logs next to the transaction hash.
func WithExtendedResults(enabled bool) FactoryOption {
	return func(c *config) { c.extended = enabled }
}

// Factory produces clients for one artifact on one network. Its state is
// shared with every client it produced: calls read it when they are
// dispatched, so reconfiguring a factory affects later calls of existing
// clients too.
type Factory struct {
	artifact *contract.Artifact
	cfg      config

	mu          sync.RWMutex
	networkID   string
	detect      bool
	deployment  contract.Deployment
	recordLinks map[string]common.Address
	links       map[string]common.Address
	libEvents   map[common.Hash]abi.Event
	backend     Backend
	defaults    Options
}

// Configure binds a factory to artifact and the deployment record of
// networkID. An empty networkID selects the default record and leaves the
// network to be detected from the transport.
func Configure(artifact *contract.Artifact, networkID string, opts ...FactoryOption) (*Factory, error) {
	if artifact == nil {
		return nil, &ConfigurationError{Reason: "no artifact"}
	}

	f := &Factory{
		artifact: artifact,
		cfg: config{
			timeout:      DefaultTimeout,
			pollInterval: DefaultPollInterval,
		},
		links:     make(map[string]common.Address),
		libEvents: make(map[common.Hash]abi.Event),
	}
	for _, opt := range opts {
		opt(&f.cfg)
	}

	if networkID == "" {
		f.detect = true
		if _, ok := artifact.Networks[contract.DefaultNetwork]; ok {
			if err := f.bindNetwork(contract.DefaultNetwork); err != nil {
				return nil, err
			}
		}
		return f, nil
	}

	if err := f.bindNetwork(networkID); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Factory) bindNetwork(id string) error {
	d, ok := f.artifact.Networks[id]
	if !ok {
		return &ConfigurationError{Contract: f.artifact.ContractName, NetworkID: id}
	}

	links := make(map[string]common.Address, len(d.Links))
	for name, addr := range d.Links {
		if !isHexAddress(addr) {
			return &ConfigurationError{
				Contract:  f.artifact.ContractName,
				NetworkID: id,
				Reason:    fmt.Sprintf("network %s links %s to invalid address %q", id, name, addr),
			}
		}
		links[name] = common.HexToAddress(addr)
	}

	f.networkID = id
	f.deployment = d
	f.recordLinks = links
	return nil
}

// DetectNetwork resolves a pending network id from the transport's chain id.
// Mainnet (chain id 1) also matches the "live" and "default" records.
func (f *Factory) DetectNetwork(ctx context.Context) error {
	f.mu.RLock()
	pending, backend := f.detect, f.backend
	f.mu.RUnlock()

	if !pending {
		return nil
	}
	if backend == nil {
		return fmt.Errorf("%s: %w", f.artifact.ContractName, ErrTransportNotConfigured)
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return err
	}

	id := chainID.String()
	candidates := []string{id}
	if id == "1" {
		candidates = []string{"1", "live", contract.DefaultNetwork}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.detect {
		return nil
	}
	for _, candidate := range candidates {
		if _, ok := f.artifact.Networks[candidate]; ok {
			if err := f.bindNetwork(candidate); err != nil {
				return err
			}
			f.detect = false
			log.WithField("contract", f.artifact.ContractName).Debugf("using artifacts of network %s", candidate)
			return nil
		}
	}
	return &ConfigurationError{Contract: f.artifact.ContractName, NetworkID: id}
}

// SetTransport installs the backend used by Deploy and by every client call.
func (f *Factory) SetTransport(backend Backend) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backend = backend
}

// Artifact returns the artifact backing the factory.
func (f *Factory) Artifact() *contract.Artifact {
	return f.artifact
}

// Name is the contract name of the artifact.
func (f *Factory) Name() string {
	return f.artifact.ContractName
}

// NetworkID returns the bound network id and whether it is still pending detection.
func (f *Factory) NetworkID() (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.networkID, f.detect
}

// Networks lists the network ids the artifact has deployment records for.
func (f *Factory) Networks() []string {
	return f.artifact.NetworkIDs()
}

// MergeDefaults merges opts into the stored defaults and returns the result.
// Per-call options always take precedence over these defaults.
func (f *Factory) MergeDefaults(opts Options) Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaults = f.defaults.Merge(opts)
	return f.defaults
}

// LinkLibrary records the deployed address of a library.
func (f *Factory) LinkLibrary(name string, address common.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[name] = address
}

// LinkLibraries records several library addresses at once.
func (f *Factory) LinkLibraries(links map[string]common.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, addr := range links {
		f.links[name] = addr
	}
}

// LinkFactory links the deployed library behind lib and merges its events,
// so logs the library emits during calls of this contract are decoded.
func (f *Factory) LinkFactory(lib *Factory) error {
	if lib == f {
		return fmt.Errorf("%s cannot link itself", f.Name())
	}
	lib.mu.RLock()
	address := lib.deployment.Address
	lib.mu.RUnlock()

	if !isHexAddress(address) {
		return fmt.Errorf("cannot link %s without an address: %w", lib.Name(), ErrNotDeployed)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[lib.Name()] = common.HexToAddress(address)
	for topic, ev := range lib.eventTable() {
		f.libEvents[topic] = ev
	}
	return nil
}

// ResolvedBytecode is the artifact bytecode with every linked library substituted.
func (f *Factory) ResolvedBytecode() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.resolvedBytecodeLocked()
}

func (f *Factory) resolvedBytecodeLocked() string {
	links := make(map[string]common.Address, len(f.recordLinks)+len(f.links))
	for name, addr := range f.recordLinks {
		links[name] = addr
	}
	for name, addr := range f.links {
		links[name] = addr
	}
	return contract.ResolvedBytecode(f.artifact.Bytecode, links)
}

func (f *Factory) eventTable() map[common.Hash]abi.Event {
	events := f.artifact.Events()

	f.mu.RLock()
	defer f.mu.RUnlock()
	for topic, ev := range f.libEvents {
		if _, ok := events[topic]; !ok {
			events[topic] = ev
		}
	}
	return events
}

// snapshot returns the transport and defaults a call dispatches with.
func (f *Factory) snapshot() (Backend, Options) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.backend, f.defaults
}

func (f *Factory) waiter(backend Backend) *waiter {
	return &waiter{
		backend:  backend,
		interval: f.cfg.pollInterval,
		timeout:  f.cfg.timeout,
		contract: f.artifact.ContractName,
	}
}

// Deploy submits a contract-creation transaction and waits until it is mined.
// The trailing argument may be call options; the rest are constructor arguments.
func (f *Factory) Deploy(ctx context.Context, args ...interface{}) (*Client, error) {
	f.mu.RLock()
	backend, defaults, bytecode := f.backend, f.defaults, f.resolvedBytecodeLocked()
	f.mu.RUnlock()

	name := f.artifact.ContractName
	if backend == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrTransportNotConfigured)
	}
	if f.artifact.Bytecode == "" || f.artifact.Bytecode == "0x" {
		return nil, fmt.Errorf("%s: %w", name, ErrNoBytecode)
	}
	if missing := contract.UnresolvedLibraries(bytecode); len(missing) > 0 {
		return nil, &UnresolvedLibraryError{Contract: name, Libraries: missing}
	}

	params, opts, err := splitOptions(args)
	if err != nil {
		return nil, err
	}
	opts = defaults.Merge(opts)

	params, err = coerceArgs("constructor", f.artifact.ABI.Constructor.Inputs, params)
	if err != nil {
		return nil, err
	}

	code := opts.Data
	if len(code) == 0 {
		code = common.FromHex(bytecode)
	}

	auth, err := opts.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	logger := log.WithField("contract", name)
	address, tx, _, err := bind.DeployContract(auth, f.artifact.ABI, code, backend, params...)
	if err != nil {
		logger.Errorf("Failed to submit deployment: %v", err)
		return nil, err
	}
	logger.Infof("Deployment sent: %s (address %s)", tx.Hash().Hex(), address.Hex())

	receipt, err := f.waiter(backend).wait(ctx, tx.Hash())
	if err != nil {
		return nil, err
	}

	client, ok := deployedClient(f, tx.Hash(), receipt)
	if !ok {
		return nil, &DeploymentFailedError{Contract: name, TxHash: tx.Hash()}
	}
	logger.Infof("Deployed at %s in block %s", client.address.Hex(), receipt.BlockNumber)
	return client, nil
}

// deployedClient builds the client of a mined deployment. A Deploy runs one
// wait and the wait has exactly one outcome, so this happens at most once.
func deployedClient(f *Factory, txHash common.Hash, receipt *types.Receipt) (*Client, bool) {
	if receipt == nil || receipt.Status == types.ReceiptStatusFailed || receipt.ContractAddress == (common.Address{}) {
		return nil, false
	}
	return &Client{factory: f, address: receipt.ContractAddress, txHash: txHash}, true
}

// Attach returns a client for a contract already deployed at address. It
// does not touch the network.
func (f *Factory) Attach(address string) (*Client, error) {
	if !isHexAddress(address) {
		return nil, &InvalidAddressError{Contract: f.artifact.ContractName, Address: address}
	}
	return &Client{factory: f, address: common.HexToAddress(address)}, nil
}

// Deployed attaches to the address recorded for the bound network, detecting
// the network first when it is still pending.
func (f *Factory) Deployed(ctx context.Context) (*Client, error) {
	if err := f.DetectNetwork(ctx); err != nil {
		return nil, err
	}

	f.mu.RLock()
	address := f.deployment.Address
	f.mu.RUnlock()

	if address == "" {
		return nil, fmt.Errorf("%s: %w", f.artifact.ContractName, ErrNotDeployed)
	}
	return f.Attach(address)
}
