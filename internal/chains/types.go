package chains

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/multicall"
)

type AllChainsConfig struct {
	Networks       map[string]NetworkConfig `json:"networks" yaml:"networks" mapstructure:"networks"`
	DefaultNetwork string                   `json:"defaultNetwork" yaml:"defaultNetwork" mapstructure:"defaultNetwork"`
	PreferredRPC   string                   `json:"preferredRpc" yaml:"preferredRpc" mapstructure:"preferredRpc"`
}

// NetworkConfig describes a network and its RPC endpoints.
type NetworkConfig struct {
	Name       string `json:"name" yaml:"name" mapstructure:"name"`
	ChainID    uint64 `json:"chainId" yaml:"chainId" mapstructure:"chainId"`
	ChainIDHex string `json:"chainIdHex" yaml:"chainIdHex" mapstructure:"chainIdHex"`
	Multicall  string `json:"multicall" yaml:"multicall" mapstructure:"multicall"`
	RPCs       []RPC  `json:"rpcs" yaml:"rpcs" mapstructure:"rpcs"`
	Explorer   string `json:"explorer" yaml:"explorer" mapstructure:"explorer"`
}

type RPC struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	URL  string `json:"url" yaml:"url" mapstructure:"url"`
}

func (mc *AllChainsConfig) Normalize() {
	if mc == nil {
		return
	}
	for name, n := range mc.Networks {
		n.Name = name
		n.fillKnown()
		// write back, map values are copies
		mc.Networks[name] = n
	}
}

// Backend is the read-only call collaborator. *ethclient.Client satisfies it.
type Backend interface {
	ethereum.ContractCaller
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

type ChainClients struct {
	HTTP      Backend
	Multicall multicall.Caller
}

// Provider hands out clients for a named network.
type Provider interface {
	ClientsForNetwork(ctx context.Context, networkName string) (*ChainClients, error)
}

type MulticallMode string

const (
	MulticallAggregate3 MulticallMode = "aggregate3"
	MulticallRPCBatch   MulticallMode = "batch"
)
