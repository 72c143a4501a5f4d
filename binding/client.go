package binding

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	log "github.com/sirupsen/logrus"

	"github.com/cofoundit/cofoundit-contracts/contract"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// Result is the outcome of an invocation. Read-only calls fill Outputs;
// mutating calls fill TxHash, and with extended results also Receipt and Logs.
type Result struct {
	TxHash  common.Hash
	Receipt *types.Receipt
	Logs    []*contract.DecodedLog
	Outputs []interface{}
}

// Failed reports a mined transaction that reverted. It is only known when
// the receipt is part of the result.
func (r *Result) Failed() bool {
	return r.Receipt != nil && r.Receipt.Status == types.ReceiptStatusFailed
}

// Client is a contract instance at a fixed address.
type Client struct {
	factory *Factory
	address common.Address
	txHash  common.Hash
}

// Address is the contract address.
func (c *Client) Address() common.Address {
	return c.address
}

// TransactionHash is the creation transaction when the client came from Deploy.
func (c *Client) TransactionHash() common.Hash {
	return c.txHash
}

// Factory returns the factory the client dispatches through.
func (c *Client) Factory() *Factory {
	return c.factory
}

func (c *Client) bound() (*bind.BoundContract, Backend, Options, error) {
	backend, defaults := c.factory.snapshot()
	if backend == nil {
		return nil, nil, Options{}, fmt.Errorf("%s: %w", c.factory.Name(), ErrTransportNotConfigured)
	}
	bound := bind.NewBoundContract(c.address, c.factory.artifact.ABI, backend, backend, backend)
	return bound, backend, defaults, nil
}

// Method looks a function up in the dispatch table.
func (c *Client) Method(name string) (*Method, error) {
	m, ok := c.factory.artifact.ABI.Methods[name]
	if !ok {
		return nil, &UnknownMethodError{Contract: c.factory.Name(), Name: name, Kind: "function"}
	}
	return &Method{client: c, abi: m}, nil
}

// Invoke calls name the way its mutability asks for, see Method.Invoke.
func (c *Client) Invoke(ctx context.Context, name string, args ...interface{}) (*Result, error) {
	m, err := c.Method(name)
	if err != nil {
		return nil, err
	}
	return m.Invoke(ctx, args...)
}

// Call simulates name without submitting a transaction.
func (c *Client) Call(ctx context.Context, name string, args ...interface{}) ([]interface{}, error) {
	m, err := c.Method(name)
	if err != nil {
		return nil, err
	}
	return m.Call(ctx, args...)
}

// SendTransaction submits name and returns without waiting for it to be mined.
func (c *Client) SendTransaction(ctx context.Context, name string, args ...interface{}) (*types.Transaction, error) {
	m, err := c.Method(name)
	if err != nil {
		return nil, err
	}
	return m.SendTransaction(ctx, args...)
}

// EstimateGas simulates name and returns the gas it would use.
func (c *Client) EstimateGas(ctx context.Context, name string, args ...interface{}) (uint64, error) {
	m, err := c.Method(name)
	if err != nil {
		return 0, err
	}
	return m.EstimateGas(ctx, args...)
}

// Transfer sends opts.Value to the contract's fallback function and waits
// for the transaction to be mined.
func (c *Client) Transfer(ctx context.Context, opts Options) (*Result, error) {
	bound, backend, defaults, err := c.bound()
	if err != nil {
		return nil, err
	}
	merged := defaults.Merge(opts)
	auth, err := merged.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := bound.Transfer(auth)
	if err != nil {
		return nil, err
	}
	log.WithField("contract", c.factory.Name()).Infof("Transfer sent: %s", tx.Hash().Hex())
	return c.confirm(ctx, backend, merged.From, tx)
}

// confirm runs the confirmation wait for tx and shapes the result.
func (c *Client) confirm(ctx context.Context, backend Backend, from common.Address, tx *types.Transaction) (*Result, error) {
	receipt, err := c.factory.waiter(backend).wait(ctx, tx.Hash())
	if err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{"contract": c.factory.Name(), "tx": tx.Hash().Hex()})
	if receipt.Status == types.ReceiptStatusSuccessful {
		logger.Debugf("Transaction successful, gas used: %d", receipt.GasUsed)
	} else {
		logger.Warnf("Transaction failed: %s", revertReason(ctx, backend, from, tx, receipt))
	}

	if !c.factory.cfg.extended {
		return &Result{TxHash: tx.Hash()}, nil
	}
	return &Result{
		TxHash:  tx.Hash(),
		Receipt: receipt,
		Logs:    contract.DecodeLogs(c.factory.eventTable(), receipt.Logs),
	}, nil
}

// revertReason replays a failed transaction on the state it ran against.
func revertReason(ctx context.Context, backend Backend, from common.Address, tx *types.Transaction, receipt *types.Receipt) string {
	var block *big.Int
	if receipt.BlockNumber != nil && receipt.BlockNumber.Sign() > 0 {
		block = new(big.Int).Sub(receipt.BlockNumber, big.NewInt(1))
	}
	msg := ethereum.CallMsg{
		From:  from,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}

	_, err := backend.CallContract(ctx, msg, block)
	if err == nil {
		return "no revert reason returned"
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if hexData, ok := dataErr.ErrorData().(string); ok {
			if reason, uerr := abi.UnpackRevert(common.FromHex(hexData)); uerr == nil {
				return reason
			}
		}
	}
	return err.Error()
}

// Method is a dispatch-table entry bound to a client.
type Method struct {
	client *Client
	abi    abi.Method
}

// Name is the ABI name of the function, suffixed for overloads.
func (m *Method) Name() string {
	return m.abi.Name
}

// Signature is the canonical signature, e.g. transfer(address,uint256).
func (m *Method) Signature() string {
	return m.abi.Sig
}

// ReadOnly reports view, pure and legacy constant functions.
func (m *Method) ReadOnly() bool {
	return m.abi.IsConstant()
}

// ABI returns the go-ethereum method descriptor.
func (m *Method) ABI() abi.Method {
	return m.abi
}

func (m *Method) prepare(args []interface{}) ([]interface{}, Options, error) {
	params, opts, err := splitOptions(args)
	if err != nil {
		return nil, Options{}, err
	}
	params, err = coerceArgs(m.abi.Name, m.abi.Inputs, params)
	if err != nil {
		return nil, Options{}, err
	}
	return params, opts, nil
}

// Invoke performs an eth_call for read-only functions. Mutating functions are
// submitted and waited for.
func (m *Method) Invoke(ctx context.Context, args ...interface{}) (*Result, error) {
	if m.ReadOnly() {
		outputs, err := m.Call(ctx, args...)
		if err != nil {
			return nil, err
		}
		return &Result{Outputs: outputs}, nil
	}

	params, opts, err := m.prepare(args)
	if err != nil {
		return nil, err
	}
	_, backend, defaults, err := m.client.bound()
	if err != nil {
		return nil, err
	}
	merged := defaults.Merge(opts)
	tx, err := m.transact(ctx, merged, params)
	if err != nil {
		return nil, err
	}
	return m.client.confirm(ctx, backend, merged.From, tx)
}

// Call simulates the function whatever its mutability and returns the
// decoded outputs.
func (m *Method) Call(ctx context.Context, args ...interface{}) ([]interface{}, error) {
	params, opts, err := m.prepare(args)
	if err != nil {
		return nil, err
	}
	bound, _, defaults, err := m.client.bound()
	if err != nil {
		return nil, err
	}

	var out []interface{}
	if err := bound.Call(defaults.Merge(opts).callOpts(ctx), &out, m.abi.Name, params...); err != nil {
		return nil, err
	}
	return out, nil
}

// SendTransaction submits the function without waiting for it to be mined.
func (m *Method) SendTransaction(ctx context.Context, args ...interface{}) (*types.Transaction, error) {
	params, opts, err := m.prepare(args)
	if err != nil {
		return nil, err
	}
	_, _, defaults, err := m.client.bound()
	if err != nil {
		return nil, err
	}
	return m.transact(ctx, defaults.Merge(opts), params)
}

func (m *Method) transact(ctx context.Context, opts Options, params []interface{}) (*types.Transaction, error) {
	bound, _, _, err := m.client.bound()
	if err != nil {
		return nil, err
	}
	auth, err := opts.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := bound.Transact(auth, m.abi.Name, params...)
	if err != nil {
		return nil, err
	}
	log.WithField("contract", m.client.factory.Name()).Infof("Transaction sent: %s %s", m.abi.Name, tx.Hash().Hex())
	return tx, nil
}

// EstimateGas simulates the function to obtain a gas estimate.
func (m *Method) EstimateGas(ctx context.Context, args ...interface{}) (uint64, error) {
	params, opts, err := m.prepare(args)
	if err != nil {
		return 0, err
	}
	_, backend, defaults, err := m.client.bound()
	if err != nil {
		return 0, err
	}

	input, err := m.client.factory.artifact.ABI.Pack(m.abi.Name, params...)
	if err != nil {
		return 0, err
	}
	merged := defaults.Merge(opts)
	address := m.client.address
	return backend.EstimateGas(ctx, ethereum.CallMsg{
		From:      merged.From,
		To:        &address,
		Gas:       merged.Gas,
		GasPrice:  merged.GasPrice,
		GasFeeCap: merged.GasFeeCap,
		GasTipCap: merged.GasTipCap,
		Value:     merged.Value,
		Data:      input,
	})
}
