package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedArtifacts(t *testing.T) {
	tests := []struct {
		name     string
		artifact *Artifact
		address  string
		mutating []string
		readOnly []string
		events   []string
	}{
		{
			name:     "CofounditICO",
			artifact: NewCofounditICOArtifact(),
			address:  "0x268454b2b2c6084a04c2fa90ace2a14de2657688",
			mutating: []string{"changeMultisigAddress", "addPresaleContributors", "batchIssueTokens", "claimReservedTokens"},
			readOnly: []string{"startBlock", "endBlock", "totalEthRaised", "isAddressAllowedInPresale", "getCfiEstimation"},
			events:   []string{"ICOStarted", "ICOMinTresholdReached", "ICOEndedSuccessfuly", "ICOFailed", "ErrorSendingETH"},
		},
		{
			name:     "CofounditToken",
			artifact: NewCofounditTokenArtifact(),
			address:  "0x8aa05e06b9f72063aa085dab347b7d037f854d9f",
			mutating: []string{"mintTokens", "transfer", "approve", "freezeTransfersUntil", "changeICOAddress"},
			readOnly: []string{"balanceOf", "totalSupply", "allowance", "isRestrictedAddress", "tokenFrozenUntilBlock"},
			events:   []string{"Mint", "TokenFrozen", "Transfer", "Approval"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.artifact
			assert.Equal(t, tt.name, a.ContractName)
			assert.Equal(t, "3.2.0", a.GeneratedWith)
			assert.True(t, len(a.Bytecode) > 2)
			assert.Equal(t, "0x", a.Bytecode[:2])
			assert.Empty(t, UnresolvedLibraries(a.Bytecode))

			require.Contains(t, a.Networks, DefaultNetwork)
			assert.Equal(t, tt.address, a.Networks[DefaultNetwork].Address)
			assert.Equal(t, []string{DefaultNetwork}, a.NetworkIDs())

			for _, name := range tt.mutating {
				m, ok := a.ABI.Methods[name]
				require.True(t, ok, name)
				assert.False(t, m.IsConstant(), name)
			}
			for _, name := range tt.readOnly {
				m, ok := a.ABI.Methods[name]
				require.True(t, ok, name)
				assert.True(t, m.IsConstant(), name)
			}

			events := a.Events()
			assert.Len(t, events, len(tt.events))
			for _, name := range tt.events {
				ev, ok := a.ABI.Events[name]
				require.True(t, ok, name)
				byTopic, ok := a.Event(ev.ID)
				require.True(t, ok, name)
				assert.Equal(t, name, byTopic.Name)
			}
		})
	}
}

func TestICOArtifactFallbackIsPayable(t *testing.T) {
	a := NewCofounditICOArtifact()
	require.True(t, a.ABI.HasFallback())
	assert.True(t, a.ABI.Fallback.IsPayable())
	assert.Len(t, a.ABI.Constructor.Inputs, 3)
}

func TestTransferTopicMatchesNetworkRecord(t *testing.T) {
	a := NewCofounditTokenArtifact()
	topic := common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

	ev, ok := a.Networks[DefaultNetwork].Events[topic]
	require.True(t, ok)
	assert.Equal(t, "Transfer", ev.Name)
	assert.Equal(t, a.ABI.Events["Transfer"].ID, topic)
}

func TestParseArtifact(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		bytecode string
		wantErr  string
	}{
		{
			name:     "hardhat",
			json:     `{"contractName":"Foo","abi":[{"type":"function","name":"foo","inputs":[],"outputs":[],"stateMutability":"view"}],"bytecode":"0x6001"}`,
			bytecode: "0x6001",
		},
		{
			name:     "foundry",
			json:     `{"abi":[{"type":"event","name":"Ping","inputs":[],"anonymous":false}],"bytecode":{"object":"6002"}}`,
			bytecode: "0x6002",
		},
		{
			name:     "truffle unlinked_binary",
			json:     `{"contract_name":"Foo","abi":[{"type":"function","name":"foo","inputs":[],"outputs":[],"constant":true}],"unlinked_binary":"0x6003"}`,
			bytecode: "0x6003",
		},
		{
			name:    "empty",
			json:    "  ",
			wantErr: "empty",
		},
		{
			name:    "raw abi array",
			json:    `[{"type":"function","name":"foo","inputs":[],"outputs":[]}]`,
			wantErr: "invalid artifact JSON",
		},
		{
			name:    "no abi",
			json:    `{"bytecode":"0x00"}`,
			wantErr: "no \"abi\" array",
		},
		{
			name:    "abi without functions",
			json:    `{"abi":[]}`,
			wantErr: "no functions or events",
		},
		{
			name:    "bad bytecode field",
			json:    `{"abi":[{"type":"function","name":"foo","inputs":[],"outputs":[]}],"bytecode":42}`,
			wantErr: "neither a hex string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseArtifact([]byte(tt.json))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bytecode, a.Bytecode)
			assert.Empty(t, a.Networks)
		})
	}
}

func TestLoadArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "CofounditToken.json")
	require.NoError(t, os.WriteFile(path, CofounditToken, 0o644))

	a, err := LoadArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, "CofounditToken", a.ContractName)

	_, err = LoadArtifact(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read artifact file")
}

func TestBuiltin(t *testing.T) {
	for _, name := range []string{"ico", "CofounditICO", "token", "CofounditToken"} {
		a, ok := Builtin(name)
		require.True(t, ok, name)
		assert.NotNil(t, a)
	}
	_, ok := Builtin("Tenant")
	assert.False(t, ok)
}
