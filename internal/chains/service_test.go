package chains

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/constants"
)

func testConfig() *AllChainsConfig {
	cfg := &AllChainsConfig{
		Networks: map[string]NetworkConfig{
			"ethereum": {
				ChainID:    1,
				ChainIDHex: "0x1",
				RPCs: []RPC{
					{Name: "Public", URL: "https://eth.example"},
					{Name: "Infura", URL: "https://mainnet.infura.example"},
				},
			},
			"sepolia": {
				ChainID:    11155111,
				ChainIDHex: "0xaa36a7",
				Multicall:  "0x00000000000000000000000000000000000000ca",
				RPCs:       []RPC{{Name: "Public", URL: "https://sepolia.example"}},
			},
			"broken": {ChainID: 5},
		},
	}
	cfg.Normalize()
	return cfg
}

func TestResolveNetworkByName(t *testing.T) {
	s, err := NewService(ChainConfig{Chains: testConfig(), PreferredRPCName: "infura"})
	require.NoError(t, err)

	got, err := s.ResolveNetworkByName("Ethereum")
	require.NoError(t, err)
	require.Equal(t, "Infura", got.RPCName)
	require.Equal(t, common.HexToAddress(constants.Multicall3Addr), got.Multicall)

	got, err = s.ResolveNetworkByName("sepolia")
	require.NoError(t, err)
	require.Equal(t, "Public", got.RPCName)
	require.Equal(t, common.HexToAddress("0xca"), got.Multicall)

	_, err = s.ResolveNetworkByName("broken")
	require.Error(t, err)

	_, err = s.ResolveNetworkByName("polygon")
	require.True(t, errors.Is(err, ErrUnknownNetwork))
}

func TestResolveNetworkByChainIDHex(t *testing.T) {
	s, err := NewService(ChainConfig{Chains: testConfig()})
	require.NoError(t, err)

	got, err := s.ResolveNetworkByChainIDHex("0xAA36A7")
	require.NoError(t, err)
	require.Equal(t, "sepolia", got.NetworkName)

	_, err = s.ResolveNetworkByChainIDHex("0x89")
	require.True(t, errors.Is(err, ErrUnknownNetwork))
}

func TestStaticProvider(t *testing.T) {
	clients := &ChainClients{}
	p := StaticProvider{"ethereum": clients}

	got, err := p.ClientsForNetwork(context.Background(), "ETHEREUM")
	require.NoError(t, err)
	require.Same(t, clients, got)

	_, err = p.ClientsForNetwork(context.Background(), "polygon")
	require.True(t, errors.Is(err, ErrUnknownNetwork))
}

func TestNewServiceRejectsEmptyConfig(t *testing.T) {
	_, err := NewService(ChainConfig{})
	require.Error(t, err)

	_, err = NewService(ChainConfig{Chains: &AllChainsConfig{}})
	require.Error(t, err)
}

func TestNormalizeFillsKnownChains(t *testing.T) {
	cfg := &AllChainsConfig{Networks: map[string]NetworkConfig{
		"base":    {ChainID: 8453},
		"custom":  {ChainIDHex: "0X7A69", Explorer: "http://localhost:4000"},
		"mystery": {ChainID: 999999},
	}}
	cfg.Normalize()

	require.Equal(t, "base", cfg.Networks["base"].Name)
	require.Equal(t, "0x2105", cfg.Networks["base"].ChainIDHex)
	require.Equal(t, "https://basescan.org", cfg.Networks["base"].Explorer)

	require.Equal(t, "0x7a69", cfg.Networks["custom"].ChainIDHex)
	require.Equal(t, "http://localhost:4000", cfg.Networks["custom"].Explorer)

	require.Equal(t, "0xf423f", cfg.Networks["mystery"].ChainIDHex)
	require.Empty(t, cfg.Networks["mystery"].Explorer)

	require.Equal(t, "0x1", NormalizeHex0x(" 0X1 "))
	require.Equal(t, "0xab", NormalizeHex0x("AB"))
	require.Empty(t, NormalizeHex0x(""))
}
