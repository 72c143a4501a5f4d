package binding

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// State is a step of the confirmation wait.
type State int

const (
	Submitted State = iota
	Polling
	Confirmed
	TimedOut
	Failed
)

func (s State) String() string {
	switch s {
	case Submitted:
		return "SUBMITTED"
	case Polling:
		return "POLLING"
	case Confirmed:
		return "CONFIRMED"
	case TimedOut:
		return "TIMED_OUT"
	case Failed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

type receiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// errTxIndexing is how geth answers a receipt query while its transaction
// index is still catching up. The receipt is not available yet.
const errTxIndexing = "transaction indexing is in progress"

// receiptPending reports whether err means the receipt is not available yet.
func receiptPending(err error) bool {
	return errors.Is(err, ethereum.NotFound) || strings.Contains(err.Error(), errTxIndexing)
}

// waiter polls for a transaction receipt. Only a receipt that is not yet
// available is retried; any other transport error ends the wait.
type waiter struct {
	backend  receiptFetcher
	interval time.Duration
	timeout  time.Duration
	contract string

	// observe, when set, sees every state transition.
	observe func(State)
}

func (w *waiter) transition(logger *log.Entry, s State) {
	logger.Debugf("confirmation wait: %s", s)
	if w.observe != nil {
		w.observe(s)
	}
}

func (w *waiter) wait(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	logger := log.WithFields(log.Fields{"contract": w.contract, "tx": txHash.Hex()})
	w.transition(logger, Submitted)

	start := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()

	w.transition(logger, Polling)
	for {
		select {
		case <-ctx.Done():
			logger.Debugf("confirmation wait cancelled: %v", ctx.Err())
			return nil, ctx.Err()
		case <-timer.C:
		}

		receipt, err := w.backend.TransactionReceipt(ctx, txHash)
		if err != nil && !receiptPending(err) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			w.transition(logger, Failed)
			return nil, err
		}
		if err == nil && receipt != nil {
			w.transition(logger, Confirmed)
			return receipt, nil
		}

		if elapsed := time.Since(start); w.timeout > 0 && elapsed > w.timeout {
			w.transition(logger, TimedOut)
			return nil, &TransactionTimeoutError{TxHash: txHash, Elapsed: elapsed}
		}
		timer.Reset(w.interval)
	}
}
