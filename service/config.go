package service

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	endpoint        = "RPC_ENDPOINT"
	privateKey      = "PRIVATE_KEY"
	kmsKeyID        = "KMS_KEY_ID"
	signMode        = "SIGN_MODE"
	networkID       = "NETWORK_ID"
	syncTimeout     = "SYNC_TIMEOUT"
	pollInterval    = "POLL_INTERVAL"
	nextGen         = "NEXT_GEN"
	icoAddress      = "ICO_ADDRESS"
	slackWebhookURL = "SLACK_WEBHOOK_URL"
	raiseAlertStep  = "RAISE_ALERT_STEP"
	logLevel        = "LOG_LEVEL"
	logFormat       = "LOG_FORMAT"
)

func init() {
	godotenv.Load()
}

func getEnvOrPanic(key string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		panic(fmt.Sprintf("env %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, def string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	} else {
		return val
	}
}

func GetEthEndpoint() string {
	return getEnvOrPanic(endpoint)
}

func GetPrivateKey() string {
	return strings.TrimPrefix(getEnvOrPanic(privateKey), "0x")
}

func GetKmsKeyID() string {
	return getEnvOrPanic(kmsKeyID)
}

func GetSignMode() string {
	return getEnvOrDefault(signMode, "local")
}

// GetNetworkID is the deployment record to bind. Empty means detect it from the node.
func GetNetworkID() string {
	return getEnvOrDefault(networkID, "")
}

// GetSyncTimeout is the confirmation wait bound, in seconds. 0 waits forever.
func GetSyncTimeout() (time.Duration, error) {
	raw := getEnvOrDefault(syncTimeout, "240")
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("invalid %s %q", syncTimeout, raw)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func GetPollInterval() (time.Duration, error) {
	raw := getEnvOrDefault(pollInterval, "1s")
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", pollInterval, raw)
	}
	return d, nil
}

// GetNextGen enables extended results: receipts and decoded logs.
func GetNextGen() bool {
	enabled, _ := strconv.ParseBool(getEnvOrDefault(nextGen, "false"))
	return enabled
}

// GetICOAddress overrides the address of the ICO deployment record.
func GetICOAddress() string {
	return getEnvOrDefault(icoAddress, "")
}

// GetSlackWebhookURL returns the alert webhook. Empty disables Slack alerts.
func GetSlackWebhookURL() string {
	return getEnvOrDefault(slackWebhookURL, "")
}

// GetRaiseAlertStep is the ETH amount between two raise progress alerts.
func GetRaiseAlertStep() string {
	return getEnvOrDefault(raiseAlertStep, "1000")
}

func GetLogLevel() string {
	return getEnvOrDefault(logLevel, "info")
}

func GetLogFormat() string {
	return getEnvOrDefault(logFormat, "text")
}
