package assets

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/chains"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/multicall"
)

const testNetwork = "testnet"

var errReverted = errors.New("execution reverted")

type methodHandler func(input []byte) ([]byte, error)

// fakeContract dispatches on the 4-byte selector. Unknown selectors revert.
type fakeContract map[[4]byte]methodHandler

type fakeBackend struct {
	mu        sync.Mutex
	contracts map[common.Address]fakeContract
	native    map[common.Address]*big.Int
	calls     int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		contracts: map[common.Address]fakeContract{},
		native:    map[common.Address]*big.Int{},
	}
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	c, ok := f.contracts[*msg.To]
	if !ok {
		// nothing deployed
		return nil, nil
	}
	if len(msg.Data) < 4 {
		return nil, errReverted
	}
	var sel [4]byte
	copy(sel[:], msg.Data[:4])
	h, ok := c[sel]
	if !ok {
		return nil, errReverted
	}
	return h(msg.Data[4:])
}

func (f *fakeBackend) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if wei, ok := f.native[account]; ok {
		return new(big.Int).Set(wei), nil
	}
	return new(big.Int), nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeBackend) deploy(addr common.Address) fakeContract {
	c := fakeContract{}
	f.contracts[addr] = c
	return c
}

func (c fakeContract) on(t *testing.T, parsed abi.ABI, method string, h methodHandler) fakeContract {
	t.Helper()
	m, ok := parsed.Methods[method]
	require.True(t, ok, method)
	var sel [4]byte
	copy(sel[:], m.ID)
	c[sel] = h
	return c
}

func (c fakeContract) returns(t *testing.T, parsed abi.ABI, method string, vals ...interface{}) fakeContract {
	t.Helper()
	out, err := parsed.Methods[method].Outputs.Pack(vals...)
	require.NoError(t, err)
	return c.on(t, parsed, method, func([]byte) ([]byte, error) { return out, nil })
}

// supports answers supportsInterface with true only for ids.
func (c fakeContract) supports(t *testing.T, ids ...[4]byte) fakeContract {
	t.Helper()
	return c.on(t, ERC165ABI, "supportsInterface", func(input []byte) ([]byte, error) {
		var asked [4]byte
		copy(asked[:], input)
		for _, id := range ids {
			if id == asked {
				return ERC165ABI.Methods["supportsInterface"].Outputs.Pack(true)
			}
		}
		return ERC165ABI.Methods["supportsInterface"].Outputs.Pack(false)
	})
}

// fakeCaller executes a batch entry by entry against a fakeBackend. When
// release is set, Aggregate blocks until it is closed.
type fakeCaller struct {
	backend *fakeBackend
	release chan struct{}
}

func (f *fakeCaller) Aggregate(ctx context.Context, calls []multicall.Call) ([]multicall.Result, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	out := make([]multicall.Result, len(calls))
	for i, c := range calls {
		if c.NativeBalanceOf != nil {
			wei, err := f.backend.BalanceAt(ctx, *c.NativeBalanceOf, nil)
			if err != nil {
				out[i] = multicall.Result{Err: err}
				continue
			}
			out[i] = multicall.Result{Success: true, ReturnData: common.LeftPadBytes(wei.Bytes(), 32)}
			continue
		}
		to := c.Target
		data, err := f.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: c.CallData}, nil)
		if err != nil {
			out[i] = multicall.Result{Err: err}
			continue
		}
		out[i] = multicall.Result{Success: true, ReturnData: data}
	}
	return out, nil
}

type fakeDocs map[string]string

func (f fakeDocs) GetJSON(_ context.Context, uri string, v any) error {
	raw, ok := f[uri]
	if !ok {
		return errors.Newf("not found: %s", uri)
	}
	return json.Unmarshal([]byte(raw), v)
}

func newTestManager(t *testing.T, backend *fakeBackend, caller multicall.Caller, docs fakeDocs, opts ...ManagerOption) *Manager {
	t.Helper()
	if caller == nil {
		caller = &fakeCaller{backend: backend}
	}
	if docs == nil {
		docs = fakeDocs{}
	}
	m, err := NewManager(chains.StaticProvider{
		testNetwork: {HTTP: backend, Multicall: caller},
	}, docs, opts...)
	require.NoError(t, err)
	return m
}
