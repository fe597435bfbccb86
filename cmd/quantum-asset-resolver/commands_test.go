package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resolverconfig "github.com/quantumauth-io/quantum-asset-resolver/cmd/quantum-asset-resolver/config"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/chains"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/tezos"
)

func tz1(seed byte) string {
	body := []byte{6, 161, 159}
	for i := 0; i < 20; i++ {
		body = append(body, seed)
	}
	first := sha256.Sum256(body)
	second := sha256.Sum256(first[:])
	return base58.Encode(append(body, second[:4]...))
}

func TestRunTezosExpenses(t *testing.T) {
	a, b := tz1(1), tz1(2)
	file := filepath.Join(t.TempDir(), "group.json")
	group := fmt.Sprintf(`{"contents":[{"kind":"transaction","source":%q,"amount":"99000000","destination":%q}]}`, a, b)
	require.NoError(t, os.WriteFile(file, []byte(group), 0o600))

	out, err := runTezosExpenses(context.Background(), nil, []string{"-account", a, "-file", file})
	require.NoError(t, err)

	ops, ok := out.([]tezos.OperationExpenses)
	require.True(t, ok)
	require.Len(t, ops, 1)
	require.Len(t, ops[0].Expenses, 1)
	assert.Equal(t, b, ops[0].Expenses[0].To)
}

func TestRunTezosExpenses_RejectsBadAccount(t *testing.T) {
	_, err := runTezosExpenses(context.Background(), nil, []string{"-account", "tz1nope"})
	assert.Error(t, err)
}

func TestRun_UnknownCommand(t *testing.T) {
	assert.Equal(t, 2, run(nil))
	assert.Equal(t, 2, run([]string{"launch-rockets"}))
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	cfg, err := resolverconfig.LoadFrom(nil, resolverconfig.EmbeddedConfigYAML)
	require.NoError(t, err)
	svc, err := chains.NewService(cfg.ChainConfig())
	require.NoError(t, err)
	return &app{cfg: cfg, chains: svc}
}

func TestAppNetwork(t *testing.T) {
	a := newTestApp(t)

	cases := map[string]string{
		"":        "ethereum",
		"sepolia": "sepolia",
		"0x89":    "polygon",
		"0X2105":  "base",
		" 0xa4b1": "arbitrum",
	}
	for in, want := range cases {
		got, err := a.network(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := a.network("0xdead")
	assert.ErrorIs(t, err, chains.ErrUnknownNetwork)
}

func TestAppExplorerLink(t *testing.T) {
	a := newTestApp(t)
	token := common.HexToAddress("0x1111111111111111111111111111111111111111")

	assert.Equal(t, "https://etherscan.io/token/"+token.Hex(), a.explorerLink("ethereum", token))
	assert.Equal(t, "https://basescan.org/token/"+token.Hex(), a.explorerLink("base", token))
	assert.Empty(t, a.explorerLink("nowhere", token))
}

func TestRunStandard_UnknownChainID(t *testing.T) {
	a := newTestApp(t)
	_, err := runStandard(context.Background(), a, []string{
		"-network", "0xdead",
		"-asset", "0x1111111111111111111111111111111111111111",
	})
	assert.ErrorIs(t, err, chains.ErrUnknownNetwork)
}
