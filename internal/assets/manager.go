package assets

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/chains"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/constants"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/metadoc"
)

// Manager resolves standards, balances and metadata over injected read-only
// chain clients. It holds no per-asset state.
type Manager struct {
	chainsService    chains.Provider
	documents        metadoc.Fetcher
	multicallTimeout time.Duration
}

type ManagerOption func(*Manager)

// WithMulticallTimeout overrides the batch balance timeout.
func WithMulticallTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.multicallTimeout = d
		}
	}
}

func NewManager(chainsService chains.Provider, documents metadoc.Fetcher, opts ...ManagerOption) (*Manager, error) {
	if chainsService == nil {
		return nil, errors.New("assets: chain provider is nil")
	}
	if documents == nil {
		return nil, errors.New("assets: document fetcher is nil")
	}

	m := &Manager{
		chainsService:    chainsService,
		documents:        documents,
		multicallTimeout: constants.MulticallTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}
