package contract

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mintLog(t *testing.T, a *Artifact, to common.Address, amount *big.Int) *types.Log {
	t.Helper()
	ev := a.ABI.Events["Mint"]
	data, err := ev.Inputs.NonIndexed().Pack(amount)
	require.NoError(t, err)
	return &types.Log{
		Address:     common.HexToAddress("0x8aa05e06b9f72063aa085dab347b7d037f854d9f"),
		Topics:      []common.Hash{ev.ID, common.BytesToHash(to.Bytes())},
		Data:        data,
		BlockNumber: 7,
		Index:       2,
	}
}

func TestDecodeLog(t *testing.T) {
	a := NewCofounditTokenArtifact()
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	amount := new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))

	l := mintLog(t, a, to, amount)
	d, err := DecodeLog(a.ABI.Events["Mint"], *l)
	require.NoError(t, err)

	assert.Equal(t, "Mint", d.Event)
	assert.Equal(t, uint64(7), d.BlockNumber)
	assert.Equal(t, uint(2), d.LogIndex)
	assert.Equal(t, to, d.Args["_to"])
	assert.Equal(t, 0, amount.Cmp(d.Args["_value"].(*big.Int)))
}

func TestDecodeLogStringArgs(t *testing.T) {
	a := NewCofounditICOArtifact()
	ev := a.ABI.Events["ICOStarted"]
	data, err := ev.Inputs.NonIndexed().Pack(big.NewInt(4000000), "ICO started")
	require.NoError(t, err)

	d, err := DecodeLog(ev, types.Log{Topics: []common.Hash{ev.ID}, Data: data})
	require.NoError(t, err)
	assert.Equal(t, "ICO started", d.Args["_message"])
	assert.Equal(t, int64(4000000), d.Args["_blockNumber"].(*big.Int).Int64())
}

func TestDecodeLogsDropsUnknownTopics(t *testing.T) {
	a := NewCofounditTokenArtifact()
	to := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	logs := []*types.Log{
		{Topics: []common.Hash{common.HexToHash("0xdeadbeef")}, Data: []byte{1}},
		mintLog(t, a, to, big.NewInt(5)),
		{},
		nil,
		{Topics: []common.Hash{a.ABI.Events["Mint"].ID}, Data: []byte{0xff}},
	}

	decoded := DecodeLogs(a.Events(), logs)
	require.Len(t, decoded, 1)
	assert.Equal(t, "Mint", decoded[0].Event)
	assert.Equal(t, to, decoded[0].Args["_to"])
}
