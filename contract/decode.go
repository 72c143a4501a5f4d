package contract

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DecodedLog is a receipt log entry decoded against its event descriptor.
type DecodedLog struct {
	Event       string
	Address     common.Address
	TxHash      common.Hash
	BlockHash   common.Hash
	BlockNumber uint64
	LogIndex    uint
	Args        map[string]interface{}
	Raw         types.Log
}

// DecodeLog decodes a log using the given event descriptor. Indexed and
// non-indexed arguments end up in the same Args map.
func DecodeLog(ev abi.Event, l types.Log) (*DecodedLog, error) {
	if len(l.Topics) == 0 && !ev.Anonymous {
		return nil, fmt.Errorf("log has no topics, expected %s", ev.Name)
	}

	args := make(map[string]interface{}, len(ev.Inputs))
	if len(l.Data) > 0 {
		if err := ev.Inputs.UnpackIntoMap(args, l.Data); err != nil {
			return nil, fmt.Errorf("unpacking %s data: %w", ev.Name, err)
		}
	}

	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	topics := l.Topics
	if !ev.Anonymous {
		topics = topics[1:]
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(args, indexed, topics); err != nil {
			return nil, fmt.Errorf("parsing %s topics: %w", ev.Name, err)
		}
	}

	return &DecodedLog{
		Event:       ev.Name,
		Address:     l.Address,
		TxHash:      l.TxHash,
		BlockHash:   l.BlockHash,
		BlockNumber: l.BlockNumber,
		LogIndex:    l.Index,
		Args:        args,
		Raw:         l,
	}, nil
}

// DecodeLogs decodes every log whose first topic is a known event. Logs with
// unknown topics are dropped; so are logs that fail to decode.
func DecodeLogs(events map[common.Hash]abi.Event, logs []*types.Log) []*DecodedLog {
	decoded := make([]*DecodedLog, 0, len(logs))
	for _, l := range logs {
		if l == nil || len(l.Topics) == 0 {
			continue
		}
		ev, ok := events[l.Topics[0]]
		if !ok {
			continue
		}
		d, err := DecodeLog(ev, *l)
		if err != nil {
			continue
		}
		decoded = append(decoded, d)
	}
	return decoded
}
