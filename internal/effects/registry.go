package effects

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/assets"
)

// DefaultHandlers returns the handler table in priority order. The first
// handler that decodes the payload and passes its predicate wins, so shapes
// shared between standards list the guarded handler before the fallback.
func DefaultHandlers() []Handler {
	return []Handler{
		{
			Name:     "erc20.transfer",
			Standard: assets.StandardERC20,
			Kind:     KindTransfer,
			Method:   newMethod("transfer", []string{"address", "uint256"}, []string{"bool"}),
			Parse:    parseERC20Transfer,
		},
		{
			Name:       "erc721.transferFrom",
			Standard:   assets.StandardERC721,
			Kind:       KindTransfer,
			Method:     newMethod("transferFrom", []string{"address", "address", "uint256"}, nil),
			Applicable: isStandard(assets.StandardERC721),
			Parse:      parseERC721Transfer,
		},
		{
			Name:     "erc20.transferFrom",
			Standard: assets.StandardERC20,
			Kind:     KindTransfer,
			Method:   newMethod("transferFrom", []string{"address", "address", "uint256"}, []string{"bool"}),
			Parse:    parseERC20TransferFrom,
		},
		{
			Name:     "erc721.safeTransferFrom",
			Standard: assets.StandardERC721,
			Kind:     KindTransfer,
			Method:   newMethod("safeTransferFrom", []string{"address", "address", "uint256"}, nil),
			Parse:    parseERC721Transfer,
		},
		{
			Name:     "erc721.safeTransferFromWithData",
			Standard: assets.StandardERC721,
			Kind:     KindTransfer,
			Method:   newMethod("safeTransferFrom", []string{"address", "address", "uint256", "bytes"}, nil),
			Parse:    parseERC721Transfer,
		},
		{
			Name:     "erc1155.safeTransferFrom",
			Standard: assets.StandardERC1155,
			Kind:     KindTransfer,
			Method:   newMethod("safeTransferFrom", []string{"address", "address", "uint256", "uint256", "bytes"}, nil),
			Parse:    parseERC1155Transfer,
		},
		{
			Name:     "erc1155.safeBatchTransferFrom",
			Standard: assets.StandardERC1155,
			Kind:     KindTransfer,
			Method:   newMethod("safeBatchTransferFrom", []string{"address", "address", "uint256[]", "uint256[]", "bytes"}, nil),
			Parse:    parseERC1155BatchTransfer,
		},
		{
			Name:       "erc20.mint",
			Standard:   assets.StandardERC20,
			Kind:       KindMint,
			Method:     newMethod("mint", []string{"address", "uint256"}, nil),
			Applicable: isStandard(assets.StandardERC20),
			Parse:      parseERC20Mint,
		},
		{
			Name:       "erc721.mint",
			Standard:   assets.StandardERC721,
			Kind:       KindMint,
			Method:     newMethod("mint", []string{"address", "uint256"}, nil),
			Applicable: isStandard(assets.StandardERC721),
			Parse:      parseERC721MintWithID,
		},
		{
			Name:       "erc721.mintNext",
			Standard:   assets.StandardERC721,
			Kind:       KindMint,
			Method:     newMethod("mint", []string{"address"}, []string{"uint256"}),
			Applicable: isStandard(assets.StandardERC721),
			Parse:      parseERC721MintSimulated,
		},
		{
			Name:       "erc721.safeMintNext",
			Standard:   assets.StandardERC721,
			Kind:       KindMint,
			Method:     newMethod("safeMint", []string{"address"}, []string{"uint256"}),
			Applicable: isStandard(assets.StandardERC721),
			Parse:      parseERC721MintSimulated,
		},
		{
			Name:     "erc721.safeMint",
			Standard: assets.StandardERC721,
			Kind:     KindMint,
			Method:   newMethod("safeMint", []string{"address", "uint256"}, nil),
			Parse:    parseERC721MintWithID,
		},
		{
			Name:     "erc1155.mint",
			Standard: assets.StandardERC1155,
			Kind:     KindMint,
			Method:   newMethod("mint", []string{"address", "uint256", "uint256", "bytes"}, nil),
			Parse:    parseERC1155Mint,
		},
		{
			Name:     "erc1155.mintBatch",
			Standard: assets.StandardERC1155,
			Kind:     KindMint,
			Method:   newMethod("mintBatch", []string{"address", "uint256[]", "uint256[]", "bytes"}, nil),
			Parse:    parseERC1155MintBatch,
		},
		{
			Name:       "erc20.burn",
			Standard:   assets.StandardERC20,
			Kind:       KindBurn,
			Method:     newMethod("burn", []string{"uint256"}, nil),
			Applicable: isStandard(assets.StandardERC20),
			Parse:      parseERC20Burn,
		},
		{
			Name:       "erc721.burn",
			Standard:   assets.StandardERC721,
			Kind:       KindBurn,
			Method:     newMethod("burn", []string{"uint256"}, nil),
			Applicable: isStandard(assets.StandardERC721),
			Parse:      parseERC721Burn,
		},
		{
			Name:     "erc20.burnFrom",
			Standard: assets.StandardERC20,
			Kind:     KindBurn,
			Method:   newMethod("burnFrom", []string{"address", "uint256"}, nil),
			Parse:    parseERC20BurnFrom,
		},
		{
			Name:     "erc1155.burn",
			Standard: assets.StandardERC1155,
			Kind:     KindBurn,
			Method:   newMethod("burn", []string{"address", "uint256", "uint256"}, nil),
			Parse:    parseERC1155Burn,
		},
		{
			Name:     "erc1155.burnBatch",
			Standard: assets.StandardERC1155,
			Kind:     KindBurn,
			Method:   newMethod("burnBatch", []string{"address", "uint256[]", "uint256[]"}, nil),
			Parse:    parseERC1155BurnBatch,
		},
	}
}

func fungible(in Input) assets.AssetSlug {
	return assets.AssetSlug{Contract: in.Target}
}

func token(in Input, id *big.Int) assets.AssetSlug {
	return assets.NewAssetSlug(in.Target, id)
}

func parseERC20Transfer(_ context.Context, in Input) (assets.EffectMap, error) {
	to, err := argAddress(in.Args, 0)
	if err != nil {
		return nil, err
	}
	amount, err := argUint(in.Args, 1)
	if err != nil {
		return nil, err
	}
	out := effectSet{}
	out.transfer(fungible(in), in.Sender, to, in.Sender, amount, false)
	return assets.EffectMap(out), nil
}

func parseERC20TransferFrom(_ context.Context, in Input) (assets.EffectMap, error) {
	from, to, amount, err := fromToUint(in.Args)
	if err != nil {
		return nil, err
	}
	out := effectSet{}
	out.transfer(fungible(in), from, to, in.Sender, amount, false)
	return assets.EffectMap(out), nil
}

func parseERC721Transfer(_ context.Context, in Input) (assets.EffectMap, error) {
	from, to, id, err := fromToUint(in.Args)
	if err != nil {
		return nil, err
	}
	out := effectSet{}
	out.transfer(token(in, id), from, to, in.Sender, nftUnit, true)
	return assets.EffectMap(out), nil
}

func parseERC1155Transfer(_ context.Context, in Input) (assets.EffectMap, error) {
	from, to, id, err := fromToUint(in.Args)
	if err != nil {
		return nil, err
	}
	amount, err := argUint(in.Args, 3)
	if err != nil {
		return nil, err
	}
	out := effectSet{}
	out.transfer(token(in, id), from, to, in.Sender, amount, false)
	return assets.EffectMap(out), nil
}

func parseERC1155BatchTransfer(_ context.Context, in Input) (assets.EffectMap, error) {
	from, err := argAddress(in.Args, 0)
	if err != nil {
		return nil, err
	}
	to, err := argAddress(in.Args, 1)
	if err != nil {
		return nil, err
	}
	ids, amounts, err := idsAmounts(in.Args, 2)
	if err != nil {
		return nil, err
	}
	out := effectSet{}
	err = eachPair(ids, amounts, func(id, amount *big.Int) {
		out.transfer(token(in, id), from, to, in.Sender, amount, false)
	})
	if err != nil {
		return nil, err
	}
	return assets.EffectMap(out), nil
}

func parseERC20Mint(_ context.Context, in Input) (assets.EffectMap, error) {
	to, err := argAddress(in.Args, 0)
	if err != nil {
		return nil, err
	}
	amount, err := argUint(in.Args, 1)
	if err != nil {
		return nil, err
	}
	out := effectSet{}
	out.mint(fungible(in), to, in.Sender, amount, false)
	return assets.EffectMap(out), nil
}

func parseERC721MintWithID(_ context.Context, in Input) (assets.EffectMap, error) {
	to, err := argAddress(in.Args, 0)
	if err != nil {
		return nil, err
	}
	id, err := argUint(in.Args, 1)
	if err != nil {
		return nil, err
	}
	out := effectSet{}
	out.mint(token(in, id), to, in.Sender, nftUnit, true)
	return assets.EffectMap(out), nil
}

// parseERC721MintSimulated covers auto-increment mints: the id only exists
// in the return value.
func parseERC721MintSimulated(ctx context.Context, in Input) (assets.EffectMap, error) {
	to, err := argAddress(in.Args, 0)
	if err != nil {
		return nil, err
	}
	ret, err := in.Simulate(ctx)
	if err != nil {
		return nil, err
	}
	id, err := argUint(ret, 0)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "mint return value"), ErrSimulationFailed)
	}
	out := effectSet{}
	out.mint(token(in, id), to, in.Sender, nftUnit, true)
	return assets.EffectMap(out), nil
}

func parseERC1155Mint(_ context.Context, in Input) (assets.EffectMap, error) {
	to, err := argAddress(in.Args, 0)
	if err != nil {
		return nil, err
	}
	id, err := argUint(in.Args, 1)
	if err != nil {
		return nil, err
	}
	amount, err := argUint(in.Args, 2)
	if err != nil {
		return nil, err
	}
	out := effectSet{}
	out.mint(token(in, id), to, in.Sender, amount, false)
	return assets.EffectMap(out), nil
}

func parseERC1155MintBatch(_ context.Context, in Input) (assets.EffectMap, error) {
	to, err := argAddress(in.Args, 0)
	if err != nil {
		return nil, err
	}
	ids, amounts, err := idsAmounts(in.Args, 1)
	if err != nil {
		return nil, err
	}
	out := effectSet{}
	err = eachPair(ids, amounts, func(id, amount *big.Int) {
		out.mint(token(in, id), to, in.Sender, amount, false)
	})
	if err != nil {
		return nil, err
	}
	return assets.EffectMap(out), nil
}

func parseERC20Burn(_ context.Context, in Input) (assets.EffectMap, error) {
	amount, err := argUint(in.Args, 0)
	if err != nil {
		return nil, err
	}
	out := effectSet{}
	out.burn(fungible(in), in.Sender, in.Sender, amount, false)
	return assets.EffectMap(out), nil
}

func parseERC721Burn(_ context.Context, in Input) (assets.EffectMap, error) {
	id, err := argUint(in.Args, 0)
	if err != nil {
		return nil, err
	}
	out := effectSet{}
	out.burn(token(in, id), in.Sender, in.Sender, nftUnit, true)
	return assets.EffectMap(out), nil
}

func parseERC20BurnFrom(_ context.Context, in Input) (assets.EffectMap, error) {
	from, err := argAddress(in.Args, 0)
	if err != nil {
		return nil, err
	}
	amount, err := argUint(in.Args, 1)
	if err != nil {
		return nil, err
	}
	out := effectSet{}
	out.burn(fungible(in), from, in.Sender, amount, false)
	return assets.EffectMap(out), nil
}

func parseERC1155Burn(_ context.Context, in Input) (assets.EffectMap, error) {
	from, err := argAddress(in.Args, 0)
	if err != nil {
		return nil, err
	}
	id, err := argUint(in.Args, 1)
	if err != nil {
		return nil, err
	}
	amount, err := argUint(in.Args, 2)
	if err != nil {
		return nil, err
	}
	out := effectSet{}
	out.burn(token(in, id), from, in.Sender, amount, false)
	return assets.EffectMap(out), nil
}

func parseERC1155BurnBatch(_ context.Context, in Input) (assets.EffectMap, error) {
	from, err := argAddress(in.Args, 0)
	if err != nil {
		return nil, err
	}
	ids, amounts, err := idsAmounts(in.Args, 1)
	if err != nil {
		return nil, err
	}
	out := effectSet{}
	err = eachPair(ids, amounts, func(id, amount *big.Int) {
		out.burn(token(in, id), from, in.Sender, amount, false)
	})
	if err != nil {
		return nil, err
	}
	return assets.EffectMap(out), nil
}

func fromToUint(args []interface{}) (from, to common.Address, n *big.Int, err error) {
	if from, err = argAddress(args, 0); err != nil {
		return
	}
	if to, err = argAddress(args, 1); err != nil {
		return
	}
	n, err = argUint(args, 2)
	return
}

func idsAmounts(args []interface{}, start int) ([]*big.Int, []*big.Int, error) {
	ids, err := argUints(args, start)
	if err != nil {
		return nil, nil, err
	}
	amounts, err := argUints(args, start+1)
	if err != nil {
		return nil, nil, err
	}
	return ids, amounts, nil
}
