package multicall

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const multicall3ABI = `[
{"inputs":[{"components":[{"name":"target","type":"address"},{"name":"allowFailure","type":"bool"},{"name":"callData","type":"bytes"}],"name":"calls","type":"tuple[]"}],"name":"aggregate3","outputs":[{"components":[{"name":"success","type":"bool"},{"name":"returnData","type":"bytes"}],"name":"returnData","type":"tuple[]"}],"stateMutability":"payable","type":"function"},
{"inputs":[{"name":"addr","type":"address"}],"name":"getEthBalance","outputs":[{"name":"balance","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var parsedMulticall3 = mustParseABI(multicall3ABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

type call3 struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

type call3Result struct {
	Success    bool
	ReturnData []byte
}

// Aggregate3 batches calls through an on-chain Multicall3 contract.
type Aggregate3 struct {
	backend ethereum.ContractCaller
	address common.Address
}

func NewAggregate3(backend ethereum.ContractCaller, address common.Address) *Aggregate3 {
	return &Aggregate3{backend: backend, address: address}
}

func (a *Aggregate3) Address() common.Address { return a.address }

func (a *Aggregate3) Aggregate(ctx context.Context, calls []Call) ([]Result, error) {
	if len(calls) == 0 {
		return []Result{}, nil
	}

	packed := make([]call3, 0, len(calls))
	for i, c := range calls {
		entry := call3{Target: c.Target, AllowFailure: true, CallData: c.CallData}
		if c.NativeBalanceOf != nil {
			data, err := parsedMulticall3.Pack("getEthBalance", *c.NativeBalanceOf)
			if err != nil {
				return nil, errors.Wrapf(err, "multicall: pack getEthBalance #%d", i)
			}
			entry.Target = a.address
			entry.CallData = data
		}
		packed = append(packed, entry)
	}

	data, err := parsedMulticall3.Pack("aggregate3", packed)
	if err != nil {
		return nil, errors.Wrap(err, "multicall: pack aggregate3")
	}

	to := a.address
	raw, err := a.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "multicall: aggregate3 call")
	}

	var decoded []call3Result
	if err := parsedMulticall3.UnpackIntoInterface(&decoded, "aggregate3", raw); err != nil {
		return nil, errors.Wrap(err, "multicall: unpack aggregate3")
	}
	if len(decoded) != len(calls) {
		return nil, errors.Newf("multicall: expected %d results, got %d", len(calls), len(decoded))
	}

	out := make([]Result, len(decoded))
	for i, r := range decoded {
		out[i] = Result{Success: r.Success, ReturnData: r.ReturnData}
		if !r.Success {
			out[i].Err = errors.Newf("multicall: call #%d reverted", i)
		}
	}
	return out, nil
}
