package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ethereum/go-ethereum/common"
)

type alertKind int

const (
	noAlert alertKind = iota
	progressAlert
	minReachedAlert
)

// raiseState remembers what the last alert reported.
type raiseState struct {
	lastAlertRaised *big.Int
	minReached      bool
	mu              sync.Mutex
}

// Notifier delivers alert messages.
type Notifier interface {
	Notify(message string) error
}

// SlackNotifier posts to an incoming webhook. An empty URL only logs.
type SlackNotifier struct {
	WebhookURL string
	Client     *http.Client
}

func (s *SlackNotifier) Notify(message string) error {
	if s.WebhookURL == "" {
		log.Debugf("slack webhook not set, skipping notification")
		return nil
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	return sendSlackNotification(client, s.WebhookURL, message)
}

func sendSlackNotification(client *http.Client, webhookURL, message string) error {
	payload := map[string]string{
		"text": message,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := client.Post(webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack notification failed: %d", resp.StatusCode)
	}

	return nil
}

// EthToWei parses a decimal ETH amount into wei.
func EthToWei(ethAmount string) (*big.Int, error) {
	amountFloat, ok := new(big.Float).SetString(ethAmount)
	if !ok {
		return nil, fmt.Errorf("failed to parse amount: %s", ethAmount)
	}
	amountFloat.Mul(amountFloat, new(big.Float).SetInt64(1e18))
	amountWei, _ := amountFloat.Int(nil)
	return amountWei, nil
}

// shouldAlert decides whether the raised amount is worth a message: once when
// the minimum is first reached, then every time it grew by step since the
// last alert.
func shouldAlert(raised, lastAlertRaised, minToRaise, step *big.Int, wasMinReached bool) alertKind {
	if !wasMinReached && minToRaise != nil && minToRaise.Sign() > 0 && raised.Cmp(minToRaise) >= 0 {
		return minReachedAlert
	}
	if step == nil || step.Sign() <= 0 {
		return noAlert
	}

	last := lastAlertRaised
	if last == nil {
		last = new(big.Int)
	}
	if new(big.Int).Sub(raised, last).Cmp(step) >= 0 {
		return progressAlert
	}
	return noAlert
}

func raiseMessage(kind alertKind, ico common.Address, raised, minToRaise *big.Int) string {
	switch kind {
	case minReachedAlert:
		return fmt.Sprintf("✅ ICO minimum reached.\n *ICO*: %s\n *Raised*: %s ETH\n *Minimum*: %s ETH\n",
			ico.Hex(), formatBalance(raised), formatBalance(minToRaise))
	default:
		return fmt.Sprintf("📈 ICO raise update.\n *ICO*: %s\n *Raised*: %s ETH\n",
			ico.Hex(), formatBalance(raised))
	}
}

func formatBalance(balance *big.Int) string {
	return new(big.Float).Quo(new(big.Float).SetInt(balance), new(big.Float).SetInt64(1e18)).Text('f', 6)
}
