package binding

import (
	"context"
	"math/big"

	log "github.com/sirupsen/logrus"

	"github.com/cofoundit/cofoundit-contracts/contract"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// Event is an event of the contract bound to a client.
type Event struct {
	client *Client
	abi    abi.Event
}

// Event looks an event up by name.
func (c *Client) Event(name string) (*Event, error) {
	ev, ok := c.factory.artifact.ABI.Events[name]
	if !ok {
		return nil, &UnknownMethodError{Contract: c.factory.Name(), Name: name, Kind: "event"}
	}
	return &Event{client: c, abi: ev}, nil
}

// Name is the ABI name of the event.
func (e *Event) Name() string {
	return e.abi.Name
}

// Topic is the signature hash logs of this event carry as their first topic.
func (e *Event) Topic() common.Hash {
	return e.abi.ID
}

// Watch streams decoded logs of this event into sink until the subscription
// is cancelled or ctx is done. Optional query values filter indexed arguments.
func (e *Event) Watch(ctx context.Context, sink chan<- *contract.DecodedLog, query ...[]interface{}) (event.Subscription, error) {
	bound, _, _, err := e.client.bound()
	if err != nil {
		return nil, err
	}
	logs, sub, err := bound.WatchLogs(&bind.WatchOpts{Context: ctx}, e.abi.Name, query...)
	if err != nil {
		return nil, err
	}
	return e.client.pipe(logs, sub, sink, map[common.Hash]abi.Event{e.abi.ID: e.abi}), nil
}

// Filter returns the decoded logs of this event in [from, to]. A nil to
// means up to the latest block.
func (e *Event) Filter(ctx context.Context, from uint64, to *uint64, query ...[]interface{}) ([]*contract.DecodedLog, error) {
	_, backend, _, err := e.client.bound()
	if err != nil {
		return nil, err
	}
	topics, err := abi.MakeTopics(append([][]interface{}{{e.abi.ID}}, query...)...)
	if err != nil {
		return nil, err
	}

	q := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		Addresses: []common.Address{e.client.address},
		Topics:    topics,
	}
	if to != nil {
		q.ToBlock = new(big.Int).SetUint64(*to)
	}
	logs, err := backend.FilterLogs(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]*contract.DecodedLog, 0, len(logs))
	for _, l := range logs {
		decoded, err := contract.DecodeLog(e.abi, l)
		if err != nil {
			log.WithField("contract", e.client.factory.Name()).Debugf("dropping %s log %s: %v", e.abi.Name, l.TxHash.Hex(), err)
			continue
		}
		out = append(out, decoded)
	}
	return out, nil
}

// WatchAll streams every log the contract emits whose topic is in the
// event table, linked libraries included. Other logs are dropped.
func (c *Client) WatchAll(ctx context.Context, sink chan<- *contract.DecodedLog) (event.Subscription, error) {
	_, backend, _, err := c.bound()
	if err != nil {
		return nil, err
	}
	logs := make(chan types.Log)
	sub, err := backend.SubscribeFilterLogs(ctx, ethereum.FilterQuery{Addresses: []common.Address{c.address}}, logs)
	if err != nil {
		return nil, err
	}
	return c.pipe(logs, sub, sink, c.factory.eventTable()), nil
}

// pipe decodes raw logs into sink, mirroring the generated Watch* bindings.
func (c *Client) pipe(logs chan types.Log, sub event.Subscription, sink chan<- *contract.DecodedLog, events map[common.Hash]abi.Event) event.Subscription {
	logger := log.WithField("contract", c.factory.Name())
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case l := <-logs:
				if len(l.Topics) == 0 {
					continue
				}
				ev, ok := events[l.Topics[0]]
				if !ok {
					logger.Debugf("dropping log with unknown topic %s", l.Topics[0].Hex())
					continue
				}
				decoded, err := contract.DecodeLog(ev, l)
				if err != nil {
					logger.Debugf("dropping %s log: %v", ev.Name, err)
					continue
				}
				select {
				case sink <- decoded:
				case err := <-sub.Err():
					return err
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	})
}
