package binding

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrTransportNotConfigured = errors.New("transport not configured, call SetTransport first")
	ErrNoBytecode             = errors.New("contract bytecode not set, can't deploy new instance")
	ErrMissingSigner          = errors.New("transaction options carry no signer")
	ErrNotDeployed            = errors.New("contract not deployed or address not set")
)

// ConfigurationError reports a network id with no deployment record in the artifact.
type ConfigurationError struct {
	Contract  string
	NetworkID string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s error: %s", e.Contract, e.Reason)
	}
	return fmt.Sprintf("%s error: can't find artifacts for network id '%s'", e.Contract, e.NetworkID)
}

// UnresolvedLibraryError is returned by Deploy while library placeholders
// remain in the bytecode.
type UnresolvedLibraryError struct {
	Contract  string
	Libraries []string
}

func (e *UnresolvedLibraryError) Error() string {
	return fmt.Sprintf("%s contains unresolved libraries. You must deploy and link the following libraries before you can deploy a new version of %s: %s",
		e.Contract, e.Contract, strings.Join(e.Libraries, ", "))
}

// InvalidAddressError is returned by Attach for anything but 0x + 40 hex digits.
type InvalidAddressError struct {
	Contract string
	Address  string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address passed to %s.Attach(): %q", e.Contract, e.Address)
}

// TransactionTimeoutError is returned when no receipt shows up within the
// configured synchronization timeout.
type TransactionTimeoutError struct {
	TxHash  common.Hash
	Elapsed time.Duration
}

func (e *TransactionTimeoutError) Error() string {
	return fmt.Sprintf("transaction %s wasn't processed in %.2f seconds", e.TxHash.Hex(), e.Elapsed.Seconds())
}

// UnknownMethodError is returned when a function or event name is not in the ABI.
type UnknownMethodError struct {
	Contract string
	Name     string
	Kind     string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("%s has no %s named %q", e.Contract, e.Kind, e.Name)
}

// DeploymentFailedError is returned when the creation transaction was mined
// without producing a contract.
type DeploymentFailedError struct {
	Contract string
	TxHash   common.Hash
}

func (e *DeploymentFailedError) Error() string {
	return fmt.Sprintf("%s deployment %s was mined but created no contract", e.Contract, e.TxHash.Hex())
}
