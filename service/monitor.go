package service

import (
	"context"
	"fmt"
	"math/big"

	log "github.com/sirupsen/logrus"

	"github.com/cofoundit/cofoundit-contracts/binding"
	"github.com/cofoundit/cofoundit-contracts/contract"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
)

type headSubscriber interface {
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
}

// RaiseMonitor follows an ICO contract: on every new block it reads how much
// was raised, and it reports the sale's lifecycle events.
type RaiseMonitor struct {
	ico      *binding.Client
	heads    headSubscriber
	notifier Notifier
	step     *big.Int
	state    raiseState
}

func NewRaiseMonitor(ico *binding.Client, heads headSubscriber, notifier Notifier, step *big.Int) *RaiseMonitor {
	return &RaiseMonitor{
		ico:      ico,
		heads:    heads,
		notifier: notifier,
		step:     step,
	}
}

// Start runs the raise monitor configured from the environment until ctx is done.
func Start(ctx context.Context) error {
	client, err := Dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	cfg, err := FactoryConfigFromEnv()
	if err != nil {
		return err
	}
	f, err := NewFactory(ctx, contract.NewCofounditICOArtifact(), client, nil, cfg)
	if err != nil {
		return err
	}
	ico, err := Instance(ctx, f, GetICOAddress())
	if err != nil {
		log.Errorf("Failed to resolve ICO address: %v", err)
		return err
	}

	step, err := EthToWei(GetRaiseAlertStep())
	if err != nil {
		return err
	}

	log.Infof("Monitoring ICO at %s", ico.Address().Hex())
	return NewRaiseMonitor(ico, client, &SlackNotifier{WebhookURL: GetSlackWebhookURL()}, step).Run(ctx)
}

func (m *RaiseMonitor) Run(ctx context.Context) error {
	headerChannel := make(chan *types.Header)
	sub, err := m.heads.SubscribeNewHead(ctx, headerChannel)
	if err != nil {
		log.Errorf("Failed to subscribe to new block headers: %v", err)
		return err
	}
	defer sub.Unsubscribe()

	events := make(chan *contract.DecodedLog)
	eventSub, err := m.ico.WatchAll(ctx, events)
	if err != nil {
		log.Errorf("Failed to subscribe to ICO events: %v", err)
		return err
	}
	defer eventSub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			log.Infoln("Context cancelled, shutting down...")
			return nil
		case err := <-sub.Err():
			log.Errorf("Subscription error: %v", err)
			return err
		case err := <-eventSub.Err():
			log.Errorf("Event subscription error: %v", err)
			return err
		case header := <-headerChannel:
			log.Debugf("New block: %v", header.Number.String())
			if err := m.check(ctx); err != nil {
				log.Errorf("Failed to check ICO raise: %v", err)
			}
		case ev := <-events:
			if err := m.onEvent(ev); err != nil {
				log.Errorf("Failed to report %s: %v", ev.Event, err)
			}
		}
	}
}

func (m *RaiseMonitor) check(ctx context.Context) error {
	raised, err := m.readUint(ctx, "totalEthRaised")
	if err != nil {
		return err
	}
	minToRaise, err := m.readUint(ctx, "minEthToRaise")
	if err != nil {
		return err
	}

	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	kind := shouldAlert(raised, m.state.lastAlertRaised, minToRaise, m.step, m.state.minReached)
	if kind == noAlert {
		return nil
	}
	if kind == minReachedAlert {
		m.state.minReached = true
	}
	m.state.lastAlertRaised = raised

	log.Infof("sent raise alert: ico=%s, raised=%s ETH", m.ico.Address().Hex(), formatBalance(raised))
	if err := m.notifier.Notify(raiseMessage(kind, m.ico.Address(), raised, minToRaise)); err != nil {
		log.Errorf("failed to send slack notification: %v", err)
		return err
	}
	return nil
}

func (m *RaiseMonitor) readUint(ctx context.Context, method string) (*big.Int, error) {
	out, err := m.ico.Call(ctx, method)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s returned %d values", method, len(out))
	}
	n, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s returned %T", method, out[0])
	}
	return n, nil
}

func (m *RaiseMonitor) onEvent(ev *contract.DecodedLog) error {
	var message string
	switch ev.Event {
	case "ICOStarted", "ICOMinTresholdReached":
		message = fmt.Sprintf("ℹ️ %s at block %d: %v", ev.Event, ev.BlockNumber, ev.Args["_message"])
	case "ICOEndedSuccessfuly":
		message = fmt.Sprintf("🎉 ICO ended at block %d, raised %s ETH: %v",
			ev.BlockNumber, formatArg(ev.Args["_amountRaised"]), ev.Args["_message"])
	case "ICOFailed":
		message = fmt.Sprintf("⚠️ ICO failed at block %d, raised %s ETH: %v",
			ev.BlockNumber, formatArg(ev.Args["_ammountRaised"]), ev.Args["_message"])
	case "ErrorSendingETH":
		log.Warnf("ICO could not send %s ETH to %v (tx %s)", formatArg(ev.Args["_amount"]), ev.Args["_from"], ev.TxHash.Hex())
		return nil
	default:
		return nil
	}

	log.Infof("ICO event %s in tx %s", ev.Event, ev.TxHash.Hex())
	return m.notifier.Notify(message)
}

func formatArg(v interface{}) string {
	if n, ok := v.(*big.Int); ok {
		return formatBalance(n)
	}
	return fmt.Sprint(v)
}
