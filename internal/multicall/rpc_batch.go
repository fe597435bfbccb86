package multicall

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// BatchCaller is satisfied by *rpc.Client.
type BatchCaller interface {
	BatchCallContext(ctx context.Context, b []rpc.BatchElem) error
}

// RPCBatch sends every call as its own eth_call inside one JSON-RPC batch.
// Useful on chains without a Multicall3 deployment.
type RPCBatch struct {
	client BatchCaller
}

func NewRPCBatch(client BatchCaller) *RPCBatch {
	return &RPCBatch{client: client}
}

type callArg struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

func (r *RPCBatch) Aggregate(ctx context.Context, calls []Call) ([]Result, error) {
	if len(calls) == 0 {
		return []Result{}, nil
	}

	elems := make([]rpc.BatchElem, len(calls))
	for i, c := range calls {
		if c.NativeBalanceOf != nil {
			elems[i] = rpc.BatchElem{
				Method: "eth_getBalance",
				Args:   []interface{}{*c.NativeBalanceOf, "latest"},
				Result: new(hexutil.Big),
			}
			continue
		}
		elems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args:   []interface{}{callArg{To: c.Target, Data: c.CallData}, "latest"},
			Result: new(hexutil.Bytes),
		}
	}

	if err := r.client.BatchCallContext(ctx, elems); err != nil {
		return nil, errors.Wrap(err, "multicall: rpc batch")
	}

	out := make([]Result, len(elems))
	for i, el := range elems {
		if el.Error != nil {
			out[i] = Result{Err: el.Error}
			continue
		}
		switch v := el.Result.(type) {
		case *hexutil.Big:
			out[i] = Result{Success: true, ReturnData: common.LeftPadBytes((*big.Int)(v).Bytes(), 32)}
		case *hexutil.Bytes:
			out[i] = Result{Success: true, ReturnData: *v}
		}
	}
	return out, nil
}
