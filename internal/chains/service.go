package chains

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/constants"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/multicall"
)

var ErrUnknownNetwork = errors.New("unknown network")

type ChainConfig struct {
	Chains           *AllChainsConfig
	PreferredRPCName string
	MulticallMode    MulticallMode
}

type ResolvedChain struct {
	NetworkName string
	ChainID     uint64
	ChainIDHex  string
	Multicall   common.Address
	Explorer    string

	RPCName string
	URL     string
}

type Service struct {
	cfg              ChainConfig
	mu               sync.Mutex
	clientsByNetwork map[string]*dialedClients
}

type dialedClients struct {
	rpc     *rpc.Client
	clients *ChainClients
}

var _ Provider = (*Service)(nil)

func NewService(cfg ChainConfig) (*Service, error) {
	if cfg.Chains == nil {
		return nil, errors.New("chains config is nil")
	}
	if len(cfg.Chains.Networks) == 0 {
		return nil, errors.New("no networks configured")
	}
	if cfg.MulticallMode == "" {
		cfg.MulticallMode = MulticallAggregate3
	}

	return &Service{
		cfg:              cfg,
		clientsByNetwork: make(map[string]*dialedClients),
	}, nil
}

// ClientsForNetwork returns (and caches) clients for a specific network.
func (s *Service) ClientsForNetwork(ctx context.Context, networkName string) (*ChainClients, error) {
	networkName = strings.TrimSpace(networkName)
	if networkName == "" {
		return nil, errors.New("network name is empty")
	}

	cacheKey := strings.ToLower(networkName)

	s.mu.Lock()
	if existing := s.clientsByNetwork[cacheKey]; existing != nil {
		s.mu.Unlock()
		return existing.clients, nil
	}
	s.mu.Unlock()

	resolved, err := s.ResolveNetworkByName(networkName)
	if err != nil {
		return nil, err
	}

	// Dial outside the lock
	dialed, err := s.dial(ctx, resolved)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing := s.clientsByNetwork[cacheKey]; existing != nil {
		s.mu.Unlock()
		dialed.rpc.Close()
		return existing.clients, nil
	}
	s.clientsByNetwork[cacheKey] = dialed
	s.mu.Unlock()

	log.Info("chain clients ready",
		"network", resolved.NetworkName,
		"rpc", resolved.RPCName,
		"multicallMode", string(s.cfg.MulticallMode),
	)
	return dialed.clients, nil
}

// Close closes all cached clients (call on shutdown).
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, d := range s.clientsByNetwork {
		if d != nil && d.rpc != nil {
			d.rpc.Close()
		}
		delete(s.clientsByNetwork, key)
	}
	return nil
}

func (s *Service) dial(ctx context.Context, chain ResolvedChain) (*dialedClients, error) {
	rc, err := rpc.DialContext(ctx, chain.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %q", chain.NetworkName)
	}
	backend := ethclient.NewClient(rc)

	var mc multicall.Caller
	switch s.cfg.MulticallMode {
	case MulticallRPCBatch:
		mc = multicall.NewRPCBatch(rc)
	default:
		mc = multicall.NewAggregate3(backend, chain.Multicall)
	}

	return &dialedClients{
		rpc:     rc,
		clients: &ChainClients{HTTP: backend, Multicall: mc},
	}, nil
}

func (s *Service) ResolveNetworkByChainIDHex(chainIDHex string) (ResolvedChain, error) {
	chainIDHex = strings.TrimSpace(strings.ToLower(chainIDHex))
	if chainIDHex == "" {
		return ResolvedChain{}, errors.New("chainIdHex is empty")
	}

	for networkName, network := range s.cfg.Chains.Networks {
		if strings.ToLower(strings.TrimSpace(network.ChainIDHex)) != chainIDHex {
			continue
		}
		return s.resolveFromNetworkConfig(networkName, network)
	}

	return ResolvedChain{}, errors.Wrapf(ErrUnknownNetwork, "chainIdHex %q", chainIDHex)
}

func (s *Service) ResolveNetworkByName(networkName string) (ResolvedChain, error) {
	networkName = strings.TrimSpace(networkName)
	if networkName == "" {
		return ResolvedChain{}, errors.New("network name is empty")
	}

	for name, network := range s.cfg.Chains.Networks {
		if strings.EqualFold(name, networkName) {
			return s.resolveFromNetworkConfig(name, network)
		}
	}
	return ResolvedChain{}, errors.Wrapf(ErrUnknownNetwork, "%q", networkName)
}

func (s *Service) resolveFromNetworkConfig(networkName string, network NetworkConfig) (ResolvedChain, error) {
	// pick RPC by preferred name; otherwise first
	var selectedRPC *RPC

	if preferred := strings.TrimSpace(s.cfg.PreferredRPCName); preferred != "" {
		for i := range network.RPCs {
			if strings.EqualFold(strings.TrimSpace(network.RPCs[i].Name), preferred) {
				selectedRPC = &network.RPCs[i]
				break
			}
		}
	}
	if selectedRPC == nil {
		if len(network.RPCs) == 0 {
			return ResolvedChain{}, errors.Newf("network %q has no RPCs configured", networkName)
		}
		selectedRPC = &network.RPCs[0]
	}

	if strings.TrimSpace(selectedRPC.URL) == "" {
		return ResolvedChain{}, errors.Newf("network %q rpc %q url is empty", networkName, selectedRPC.Name)
	}

	mcAddr := strings.TrimSpace(network.Multicall)
	if mcAddr == "" {
		mcAddr = constants.Multicall3Addr
	}
	if !common.IsHexAddress(mcAddr) {
		return ResolvedChain{}, errors.Newf("network %q multicall address %q is invalid", networkName, mcAddr)
	}

	return ResolvedChain{
		NetworkName: networkName,
		ChainID:     network.ChainID,
		ChainIDHex:  network.ChainIDHex,
		Multicall:   common.HexToAddress(mcAddr),
		Explorer:    network.Explorer,
		RPCName:     selectedRPC.Name,
		URL:         selectedRPC.URL,
	}, nil
}
