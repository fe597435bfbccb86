package assets

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	holder   = common.HexToAddress("0xAbCdEf0123456789aBcDeF0123456789ABCDEF01")
	stranger = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestFetchBalance_ERC20(t *testing.T) {
	backend := newFakeBackend()
	backend.deploy(tokenAddr).returns(t, ERC20ABI, "balanceOf", big.NewInt(42))
	m := newTestManager(t, backend, nil, nil)

	got := m.FetchBalance(context.Background(), testNetwork, AssetSlug{Contract: tokenAddr}, holder, StandardERC20)
	assert.Equal(t, "42", got.String())
}

func TestFetchBalance_ERC721OwnerIsCaseInsensitive(t *testing.T) {
	backend := newFakeBackend()
	backend.deploy(tokenAddr).returns(t, ERC721ABI, "ownerOf", holder)
	m := newTestManager(t, backend, nil, nil)
	slug := NewAssetSlug(tokenAddr, big.NewInt(9))

	lower := common.HexToAddress("0xabcdef0123456789abcdef0123456789abcdef01")
	assert.Equal(t, "1", m.FetchBalance(context.Background(), testNetwork, slug, lower, StandardERC721).String())
	assert.Equal(t, "0", m.FetchBalance(context.Background(), testNetwork, slug, stranger, StandardERC721).String())
}

func TestFetchBalance_ERC1155PassesTokenID(t *testing.T) {
	backend := newFakeBackend()
	backend.deploy(tokenAddr).on(t, ERC1155ABI, "balanceOf", func(input []byte) ([]byte, error) {
		args, err := ERC1155ABI.Methods["balanceOf"].Inputs.Unpack(input)
		require.NoError(t, err)
		require.Equal(t, holder, args[0].(common.Address))
		require.Equal(t, int64(5), args[1].(*big.Int).Int64())
		return ERC1155ABI.Methods["balanceOf"].Outputs.Pack(big.NewInt(3))
	})
	m := newTestManager(t, backend, nil, nil)

	got := m.FetchBalance(context.Background(), testNetwork, NewAssetSlug(tokenAddr, big.NewInt(5)), holder, StandardERC1155)
	assert.Equal(t, "3", got.String())
}

func TestFetchBalance_Native(t *testing.T) {
	backend := newFakeBackend()
	backend.native[holder] = big.NewInt(1_000_000)
	m := newTestManager(t, backend, nil, nil)

	got := m.FetchBalance(context.Background(), testNetwork, NativeSlug(), holder, "")
	assert.Equal(t, "1000000", got.String())
}

func TestFetchBalance_ZeroAccountMakesNoCall(t *testing.T) {
	backend := newFakeBackend()
	m := newTestManager(t, backend, nil, nil)

	got := m.FetchBalance(context.Background(), testNetwork, AssetSlug{Contract: tokenAddr}, common.Address{}, StandardERC20)
	assert.Zero(t, got.Sign())
	assert.Zero(t, backend.callCount())
}

func TestFetchBalance_DetectsWhenStandardEmpty(t *testing.T) {
	backend := newFakeBackend()
	backend.deploy(tokenAddr).
		supports(t, erc721InterfaceID).
		returns(t, ERC721ABI, "ownerOf", holder)
	m := newTestManager(t, backend, nil, nil)

	got := m.FetchBalance(context.Background(), testNetwork, NewAssetSlug(tokenAddr, big.NewInt(1)), holder, "")
	assert.Equal(t, "1", got.String())
}

func TestFetchBalance_FailureYieldsZero(t *testing.T) {
	backend := newFakeBackend()
	backend.deploy(tokenAddr)
	m := newTestManager(t, backend, nil, nil)

	got := m.FetchBalance(context.Background(), testNetwork, AssetSlug{Contract: tokenAddr}, holder, StandardERC20)
	assert.Zero(t, got.Sign())

	got = m.FetchBalance(context.Background(), "nope", AssetSlug{Contract: tokenAddr}, holder, StandardERC20)
	assert.Zero(t, got.Sign())
}
