package assets

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/multicall"
)

func TestFetchBalancesViaMulticall_PartialFailure(t *testing.T) {
	good := common.HexToAddress("0x3333333333333333333333333333333333333333")
	reverting := common.HexToAddress("0x4444444444444444444444444444444444444444")

	backend := newFakeBackend()
	backend.native[holder] = big.NewInt(100)
	backend.deploy(good).returns(t, ERC20ABI, "balanceOf", big.NewInt(10))
	backend.deploy(reverting)
	m := newTestManager(t, backend, nil, nil)

	goodSlug := AssetSlug{Contract: good}
	badSlug := AssetSlug{Contract: reverting}
	res, err := m.FetchBalancesViaMulticall(context.Background(), testNetwork, holder, []BalanceRequest{
		{Slug: goodSlug, Standard: StandardERC20},
		{Slug: badSlug, Standard: StandardERC20},
		{Slug: NativeSlug(), Standard: StandardNative},
	})
	require.NoError(t, err)

	assert.Len(t, res.Balances, 2)
	assert.Equal(t, "10", res.Balances[goodSlug])
	assert.Equal(t, "100", res.Balances[NativeSlug()])
	require.Len(t, res.Failed, 1)
	assert.Error(t, res.Failed[badSlug])
	_, inBalances := res.Balances[badSlug]
	assert.False(t, inBalances)
}

func TestFetchBalancesViaMulticall_NFTs(t *testing.T) {
	nft := common.HexToAddress("0x5555555555555555555555555555555555555555")
	multi := common.HexToAddress("0x6666666666666666666666666666666666666666")

	backend := newFakeBackend()
	backend.deploy(nft).returns(t, ERC721ABI, "ownerOf", holder)
	backend.deploy(multi).returns(t, ERC1155ABI, "balanceOf", big.NewInt(12))
	m := newTestManager(t, backend, nil, nil)

	owned := NewAssetSlug(nft, big.NewInt(1))
	stack := NewAssetSlug(multi, big.NewInt(2))
	res, err := m.FetchBalancesViaMulticall(context.Background(), testNetwork, holder, []BalanceRequest{
		{Slug: owned, Standard: StandardERC721},
		{Slug: stack, Standard: StandardERC1155},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Failed)
	assert.Equal(t, "1", res.Balances[owned])
	assert.Equal(t, "12", res.Balances[stack])

	res, err = m.FetchBalancesViaMulticall(context.Background(), testNetwork, stranger, []BalanceRequest{
		{Slug: owned, Standard: StandardERC721},
	})
	require.NoError(t, err)
	assert.Equal(t, "0", res.Balances[owned])
}

func TestFetchBalancesViaMulticall_Empty(t *testing.T) {
	backend := newFakeBackend()
	m := newTestManager(t, backend, nil, nil)

	res, err := m.FetchBalancesViaMulticall(context.Background(), testNetwork, holder, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Balances)
	assert.Empty(t, res.Failed)
	assert.Zero(t, backend.callCount())
}

func TestFetchBalancesViaMulticall_TimeoutThrows(t *testing.T) {
	backend := newFakeBackend()
	caller := &fakeCaller{backend: backend, release: make(chan struct{})}
	defer close(caller.release)
	m := newTestManager(t, backend, caller, nil, WithMulticallTimeout(20*time.Millisecond))

	_, err := m.FetchBalancesViaMulticall(context.Background(), testNetwork, holder, []BalanceRequest{
		{Slug: NativeSlug(), Standard: StandardNative},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, multicall.ErrTimeout)
}

func TestFetchBalancesViaMulticall_TimeoutKeepsWaiting(t *testing.T) {
	backend := newFakeBackend()
	backend.native[holder] = big.NewInt(7)
	caller := &fakeCaller{backend: backend, release: make(chan struct{})}
	time.AfterFunc(60*time.Millisecond, func() { close(caller.release) })
	m := newTestManager(t, backend, caller, nil)

	res, err := m.FetchBalancesViaMulticall(context.Background(), testNetwork, holder, []BalanceRequest{
		{Slug: NativeSlug(), Standard: StandardNative},
	}, WithThrowOnTimeout(false), WithBatchTimeout(10*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, "7", res.Balances[NativeSlug()])
}

func TestFetchBalancesViaMulticall_UnknownNetwork(t *testing.T) {
	m := newTestManager(t, newFakeBackend(), nil, nil)
	_, err := m.FetchBalancesViaMulticall(context.Background(), "nope", holder, []BalanceRequest{
		{Slug: NativeSlug(), Standard: StandardNative},
	})
	assert.Error(t, err)
}
