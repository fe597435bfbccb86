package effects

import (
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/assets"
)

var nftUnit = big.NewInt(1)

// effectSet accumulates signed deltas; repeated slugs are summed.
type effectSet assets.EffectMap

func (e effectSet) add(slug assets.AssetSlug, amount *big.Int, isNFT bool) {
	if amount == nil || amount.Sign() == 0 {
		return
	}
	if cur, ok := e[slug]; ok {
		sum := new(big.Int).Add(cur.AtomicAmount, amount)
		if sum.Sign() == 0 {
			delete(e, slug)
			return
		}
		e[slug] = assets.AssetDelta{AtomicAmount: sum, IsNFT: isNFT}
		return
	}
	e[slug] = assets.AssetDelta{AtomicAmount: new(big.Int).Set(amount), IsNFT: isNFT}
}

// transfer applies the sign rule for a move of amount from -> to, seen by
// account. Self transfers and transfers between two other parties are no-ops.
func (e effectSet) transfer(slug assets.AssetSlug, from, to, account common.Address, amount *big.Int, isNFT bool) {
	if from == to || (from != account && to != account) {
		return
	}
	if from == account {
		e.add(slug, new(big.Int).Neg(amount), isNFT)
		return
	}
	e.add(slug, amount, isNFT)
}

func (e effectSet) mint(slug assets.AssetSlug, to, account common.Address, amount *big.Int, isNFT bool) {
	if to != account {
		return
	}
	e.add(slug, amount, isNFT)
}

func (e effectSet) burn(slug assets.AssetSlug, from, account common.Address, amount *big.Int, isNFT bool) {
	if from != account {
		return
	}
	e.add(slug, new(big.Int).Neg(amount), isNFT)
}

// eachPair walks parallel id/amount arrays, the shape of every ERC1155
// batch call.
func eachPair(ids, amounts []*big.Int, fn func(id, amount *big.Int)) error {
	if len(ids) != len(amounts) {
		return errors.Newf("ids and amounts length mismatch: %d != %d", len(ids), len(amounts))
	}
	for i := range ids {
		fn(ids[i], amounts[i])
	}
	return nil
}

func argAddress(args []interface{}, i int) (common.Address, error) {
	if i >= len(args) {
		return common.Address{}, errors.Newf("missing arg %d", i)
	}
	a, ok := args[i].(common.Address)
	if !ok {
		return common.Address{}, errors.Newf("arg %d: expected address, got %T", i, args[i])
	}
	return a, nil
}

func argUint(args []interface{}, i int) (*big.Int, error) {
	if i >= len(args) {
		return nil, errors.Newf("missing arg %d", i)
	}
	n, ok := args[i].(*big.Int)
	if !ok || n == nil {
		return nil, errors.Newf("arg %d: expected uint256, got %T", i, args[i])
	}
	return n, nil
}

func argUints(args []interface{}, i int) ([]*big.Int, error) {
	if i >= len(args) {
		return nil, errors.Newf("missing arg %d", i)
	}
	n, ok := args[i].([]*big.Int)
	if !ok {
		return nil, errors.Newf("arg %d: expected uint256[], got %T", i, args[i])
	}
	return n, nil
}
