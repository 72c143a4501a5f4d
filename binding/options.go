package binding

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

// Options are the transaction parameters of a single invocation. Zero-valued
// fields are unset and fall back to the factory defaults.
type Options struct {
	From      common.Address
	Signer    bind.SignerFn
	Value     *big.Int
	Gas       uint64
	GasPrice  *big.Int
	GasFeeCap *big.Int
	GasTipCap *big.Int
	Nonce     *big.Int
	// Data replaces the deployment bytecode when set. Ignored by method calls.
	Data []byte
}

// Merge returns o overlaid with every field set in over.
func (o Options) Merge(over Options) Options {
	merged := o
	if over.From != (common.Address{}) {
		merged.From = over.From
	}
	if over.Signer != nil {
		merged.Signer = over.Signer
	}
	if over.Value != nil {
		merged.Value = over.Value
	}
	if over.Gas != 0 {
		merged.Gas = over.Gas
	}
	if over.GasPrice != nil {
		merged.GasPrice = over.GasPrice
	}
	if over.GasFeeCap != nil {
		merged.GasFeeCap = over.GasFeeCap
	}
	if over.GasTipCap != nil {
		merged.GasTipCap = over.GasTipCap
	}
	if over.Nonce != nil {
		merged.Nonce = over.Nonce
	}
	if len(over.Data) > 0 {
		merged.Data = over.Data
	}
	return merged
}

// FromTransactOpts converts go-ethereum transactor options, e.g. the ones
// returned by bind.NewKeyedTransactorWithChainID.
func FromTransactOpts(auth *bind.TransactOpts) Options {
	if auth == nil {
		return Options{}
	}
	return Options{
		From:      auth.From,
		Signer:    auth.Signer,
		Value:     auth.Value,
		Gas:       auth.GasLimit,
		GasPrice:  auth.GasPrice,
		GasFeeCap: auth.GasFeeCap,
		GasTipCap: auth.GasTipCap,
		Nonce:     auth.Nonce,
	}
}

func (o Options) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if o.Signer == nil {
		return nil, ErrMissingSigner
	}
	return &bind.TransactOpts{
		From:      o.From,
		Nonce:     o.Nonce,
		Signer:    o.Signer,
		Value:     o.Value,
		GasPrice:  o.GasPrice,
		GasFeeCap: o.GasFeeCap,
		GasTipCap: o.GasTipCap,
		GasLimit:  o.Gas,
		Context:   ctx,
	}, nil
}

func (o Options) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{From: o.From, Context: ctx}
}

// isBigNumber reports values that are numbers even though they are
// structurally objects.
func isBigNumber(v interface{}) bool {
	switch v.(type) {
	case *big.Int, big.Int, *big.Float, big.Float, *big.Rat, big.Rat, *uint256.Int, uint256.Int:
		return true
	default:
		return false
	}
}

// splitOptions pops the trailing argument when it is call options: an
// Options value or a plain key/value map, never a big-number argument.
func splitOptions(args []interface{}) ([]interface{}, Options, error) {
	if len(args) == 0 {
		return args, Options{}, nil
	}
	last := args[len(args)-1]
	if isBigNumber(last) {
		return args, Options{}, nil
	}

	rest := args[:len(args)-1]
	switch v := last.(type) {
	case Options:
		return rest, v, nil
	case *Options:
		if v == nil {
			return rest, Options{}, nil
		}
		return rest, *v, nil
	case map[string]interface{}:
		opts, err := optionsFromMap(v)
		if err != nil {
			return nil, Options{}, err
		}
		return rest, opts, nil
	default:
		return args, Options{}, nil
	}
}

var optionKeys = map[string]string{
	"from":                 "from",
	"value":                "value",
	"gas":                  "gas",
	"gaslimit":             "gas",
	"gasprice":             "gasPrice",
	"maxfeepergas":         "maxFeePerGas",
	"maxpriorityfeepergas": "maxPriorityFeePerGas",
	"nonce":                "nonce",
	"data":                 "data",
	"signer":               "signer",
}

func optionsFromMap(m map[string]interface{}) (Options, error) {
	var opts Options

	unknown := lo.Filter(lo.Keys(m), func(k string, _ int) bool {
		_, ok := optionKeys[strings.ToLower(k)]
		return !ok
	})
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return opts, fmt.Errorf("unknown transaction options: %s", strings.Join(unknown, ", "))
	}

	for key, raw := range m {
		var err error
		switch optionKeys[strings.ToLower(key)] {
		case "from":
			opts.From, err = toAddress(raw)
		case "value":
			opts.Value, err = toBigInt(raw)
		case "gas":
			var n *big.Int
			if n, err = toBigInt(raw); err == nil {
				if !n.IsUint64() {
					err = fmt.Errorf("out of range: %s", n)
				} else {
					opts.Gas = n.Uint64()
				}
			}
		case "gasPrice":
			opts.GasPrice, err = toBigInt(raw)
		case "maxFeePerGas":
			opts.GasFeeCap, err = toBigInt(raw)
		case "maxPriorityFeePerGas":
			opts.GasTipCap, err = toBigInt(raw)
		case "nonce":
			opts.Nonce, err = toBigInt(raw)
		case "data":
			opts.Data, err = toBytes(raw)
		case "signer":
			switch fn := raw.(type) {
			case bind.SignerFn:
				opts.Signer = fn
			case func(common.Address, *types.Transaction) (*types.Transaction, error):
				opts.Signer = fn
			default:
				err = fmt.Errorf("expected bind.SignerFn, got %T", raw)
			}
		}
		if err != nil {
			return Options{}, fmt.Errorf("option %s: %w", key, err)
		}
	}
	return opts, nil
}
