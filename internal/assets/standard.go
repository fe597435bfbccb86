package assets

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"
)

// DetectStandard classifies the asset behind slug. It never fails: anything
// that cannot be classified is StandardUnknown.
func (m *Manager) DetectStandard(ctx context.Context, network string, slug AssetSlug) AssetStandard {
	if slug.IsNative() {
		return StandardNative
	}

	clients, err := m.chainsService.ClientsForNetwork(ctx, network)
	if err != nil || clients == nil || clients.HTTP == nil {
		log.Warn("assets: no client for standard detection", "network", network, "error", err)
		return StandardUnknown
	}

	return DetectContractStandard(ctx, clients.HTTP, slug.Contract)
}

// DetectContractStandard probes ERC165 first, ERC721 strictly before ERC1155,
// then falls back to totalSupply() as a weak ERC20 signal.
func DetectContractStandard(ctx context.Context, backend ethereum.ContractCaller, contract common.Address) AssetStandard {
	is721, err := supportsInterface(ctx, backend, contract, erc721InterfaceID)
	if err == nil {
		is1155, err := supportsInterface(ctx, backend, contract, erc1155InterfaceID)
		if err == nil {
			switch {
			case is1155 && !is721:
				return StandardERC1155
			case is721:
				return StandardERC721
			}
		}
	}

	if _, err := callView(ctx, backend, contract, ERC20ABI, "totalSupply"); err == nil {
		return StandardERC20
	}
	return StandardUnknown
}

func supportsInterface(ctx context.Context, backend ethereum.ContractCaller, contract common.Address, id [4]byte) (bool, error) {
	out, err := callView(ctx, backend, contract, ERC165ABI, "supportsInterface", id)
	if err != nil {
		return false, err
	}
	ok, isBool := out[0].(bool)
	if !isBool {
		return false, errors.Newf("supportsInterface: unexpected output type %T", out[0])
	}
	return ok, nil
}
