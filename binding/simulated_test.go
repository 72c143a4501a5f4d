package binding

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/cofoundit/cofoundit-contracts/contract"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mine commits a block every few milliseconds until the test ends.
func mine(t *testing.T, backend *simulated.Backend) {
	t.Helper()
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				backend.Commit()
			}
		}
	}()
	t.Cleanup(func() {
		close(done)
		<-stopped
	})
}

func TestTokenOnSimulatedChain(t *testing.T) {
	if testing.Short() {
		t.Skip("simulated chain")
	}
	chainID := big.NewInt(1337)
	owner := newAccount(t, chainID)
	stranger := newAccount(t, chainID)

	funds := new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))
	backend := simulated.NewBackend(types.GenesisAlloc{
		owner.addr:    {Balance: funds},
		stranger.addr: {Balance: funds},
	})
	t.Cleanup(func() { backend.Close() })
	mine(t, backend)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	f, err := Configure(contract.NewCofounditTokenArtifact(), "",
		WithPollInterval(10*time.Millisecond), WithTimeout(10*time.Second), WithExtendedResults(true))
	require.NoError(t, err)
	f.SetTransport(backend.Client())
	f.MergeDefaults(owner.opts)

	// The owner stands in for the ICO contract so it may mint.
	token, err := f.Deploy(ctx, owner.addr.Hex())
	require.NoError(t, err)
	assert.NotEqual(t, common.Address{}, token.Address())

	out, err := token.Call(ctx, "icoContractAddress")
	require.NoError(t, err)
	assert.Equal(t, owner.addr, out[0])

	out, err = token.Call(ctx, "isRestrictedAddress", token.Address())
	require.NoError(t, err)
	assert.Equal(t, true, out[0])

	mintValue := new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))
	res, err := token.Invoke(ctx, "mintTokens", owner.addr, mintValue, "Test mint")
	require.NoError(t, err)
	require.NotNil(t, res.Receipt)
	assert.False(t, res.Failed())

	mint, ok := lo.Find(res.Logs, func(l *contract.DecodedLog) bool { return l.Event == "Mint" })
	require.True(t, ok)
	assert.Equal(t, owner.addr, mint.Args["_to"])
	assert.Equal(t, 0, mintValue.Cmp(mint.Args["_value"].(*big.Int)))

	res, err = token.Invoke(ctx, "balanceOf", owner.addr)
	require.NoError(t, err)
	assert.Equal(t, 0, mintValue.Cmp(res.Outputs[0].(*big.Int)))

	res, err = token.Invoke(ctx, "totalSupply")
	require.NoError(t, err)
	assert.Equal(t, 0, mintValue.Cmp(res.Outputs[0].(*big.Int)))

	// Only the ICO address may mint; the node rejects the call at estimation.
	_, err = token.Invoke(ctx, "mintTokens", owner.addr, mintValue, "Test mint", stranger.opts)
	assert.Error(t, err)

	logs, err := mustEvent(t, token, "Mint").Filter(ctx, 0, nil)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func mustEvent(t *testing.T, c *Client, name string) *Event {
	t.Helper()
	ev, err := c.Event(name)
	require.NoError(t, err)
	return ev
}
