package binding

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/require"
)

// fakeBackend mines every transaction it receives into a receipt right away.
type fakeBackend struct {
	mu sync.Mutex

	chainID  *big.Int
	nonces   map[common.Address]uint64
	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt

	// status of receipts produced for sent transactions.
	status uint64
	// logs returns the receipt logs of tx. Optional.
	logs func(tx *types.Transaction) []*types.Log
	// call answers eth_call. Optional.
	call func(msg ethereum.CallMsg) ([]byte, error)

	calls int

	// filters records every log subscription, latest last.
	filters []logFilter
}

type logFilter struct {
	query ethereum.FilterQuery
	ch    chan<- types.Log
}

func newFakeBackend(chainID int64) *fakeBackend {
	return &fakeBackend{
		chainID:  big.NewInt(chainID),
		nonces:   make(map[common.Address]uint64),
		receipts: make(map[common.Hash]*types.Receipt),
		status:   types.ReceiptStatusSuccessful,
	}
}

func (b *fakeBackend) touch() {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *fakeBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	b.touch()
	return []byte{0x60}, nil
}

func (b *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.touch()
	if b.call == nil {
		return nil, &revertError{reason: "reverted"}
	}
	return b.call(msg)
}

func (b *fakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	b.touch()
	return &types.Header{Number: big.NewInt(1), BaseFee: big.NewInt(1_000_000_000)}, nil
}

func (b *fakeBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	b.touch()
	return []byte{0x60}, nil
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.touch()
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonces[account], nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	b.touch()
	return big.NewInt(2_000_000_000), nil
}

func (b *fakeBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	b.touch()
	return big.NewInt(1_000_000_000), nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	b.touch()
	return 100_000, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.touch()
	from, err := types.Sender(types.LatestSignerForChainID(b.chainID), tx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nonces[from] = tx.Nonce() + 1
	b.sent = append(b.sent, tx)

	receipt := &types.Receipt{
		Status:      b.status,
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(int64(len(b.sent))),
		GasUsed:     21_000,
	}
	if tx.To() == nil && b.status == types.ReceiptStatusSuccessful {
		receipt.ContractAddress = crypto.CreateAddress(from, tx.Nonce())
	}
	if b.logs != nil {
		receipt.Logs = b.logs(tx)
	}
	b.receipts[tx.Hash()] = receipt
	return nil
}

func (b *fakeBackend) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	b.touch()
	return nil, nil
}

func (b *fakeBackend) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	b.touch()
	b.mu.Lock()
	b.filters = append(b.filters, logFilter{query: q, ch: ch})
	b.mu.Unlock()
	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	}), nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.touch()
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.receipts[txHash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (b *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	b.touch()
	return b.chainID, nil
}

func (b *fakeBackend) lastFilter(t *testing.T) logFilter {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.filters, "no log subscription")
	return b.filters[len(b.filters)-1]
}

func (b *fakeBackend) lastSent() *types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sent) == 0 {
		return nil
	}
	return b.sent[len(b.sent)-1]
}

type revertError struct {
	reason string
}

func (e *revertError) Error() string { return "execution reverted: " + e.reason }

// ErrorData is the ABI-encoded Error(string) payload, as a node returns it.
func (e *revertError) ErrorData() interface{} {
	selector := crypto.Keccak256([]byte("Error(string)"))[:4]
	msg := []byte(e.reason)
	data := append([]byte{}, selector...)
	data = append(data, common.LeftPadBytes(big.NewInt(32).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(big.NewInt(int64(len(msg))).Bytes(), 32)...)
	data = append(data, common.RightPadBytes(msg, (len(msg)+31)/32*32)...)
	return common.Bytes2Hex(data)
}

type account struct {
	key  *ecdsa.PrivateKey
	addr common.Address
	opts Options
}

func newAccount(t *testing.T, chainID *big.Int) account {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	require.NoError(t, err)
	return account{key: key, addr: auth.From, opts: FromTransactOpts(auth)}
}
