package assets

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/chains"
)

// FetchBalance returns the atomic balance of account for slug. An empty
// standard means "detect it first". Read failures are logged and yield 0.
func (m *Manager) FetchBalance(ctx context.Context, network string, slug AssetSlug, account common.Address, standard AssetStandard) *big.Int {
	// zero address owns nothing, no RPC call
	if account == (common.Address{}) {
		return big.NewInt(0)
	}

	clients, err := m.chainsService.ClientsForNetwork(ctx, network)
	if err != nil || clients == nil || clients.HTTP == nil {
		log.Warn("assets: no client for balance", "network", network, "slug", slug.String(), "error", err)
		return big.NewInt(0)
	}

	if standard == "" {
		standard = m.DetectStandard(ctx, network, slug)
	}

	bal, err := readBalance(ctx, clients.HTTP, slug, account, standard)
	if err != nil {
		log.Warn("assets: balance read failed",
			"network", network,
			"slug", slug.String(),
			"standard", standard.String(),
			"error", err,
		)
		return big.NewInt(0)
	}
	return bal
}

func readBalance(ctx context.Context, backend chains.Backend, slug AssetSlug, account common.Address, standard AssetStandard) (*big.Int, error) {
	if slug.IsNative() || standard == StandardNative {
		wei, err := backend.BalanceAt(ctx, account, nil)
		if err != nil {
			return nil, errors.Wrap(err, "native balance")
		}
		return wei, nil
	}

	switch standard {
	case StandardERC1155:
		out, err := callView(ctx, backend, slug.Contract, ERC1155ABI, "balanceOf", account, slug.tokenIDOrZero())
		if err != nil {
			return nil, err
		}
		return asBigInt(out[0])
	case StandardERC721:
		out, err := callView(ctx, backend, slug.Contract, ERC721ABI, "ownerOf", slug.tokenIDOrZero())
		if err != nil {
			return nil, err
		}
		return ownershipBalance(out[0], account)
	default:
		out, err := callView(ctx, backend, slug.Contract, ERC20ABI, "balanceOf", account)
		if err != nil {
			return nil, err
		}
		return asBigInt(out[0])
	}
}

func asBigInt(v interface{}) (*big.Int, error) {
	n, ok := v.(*big.Int)
	if !ok || n == nil {
		return nil, errors.Newf("expected uint256, got %T", v)
	}
	return n, nil
}

// ownershipBalance turns an ownerOf result into 1 or 0.
func ownershipBalance(v interface{}, account common.Address) (*big.Int, error) {
	owner, ok := v.(common.Address)
	if !ok {
		return nil, errors.Newf("expected address, got %T", v)
	}
	// byte equality on common.Address is the case-insensitive hex comparison
	if owner == account {
		return big.NewInt(1), nil
	}
	return big.NewInt(0), nil
}
