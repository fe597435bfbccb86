package multicall

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
)

// ErrTimeout is returned when a batch did not complete within the caller's deadline.
var ErrTimeout = errors.New("multicall: timed out")

// Call is one read-only call inside a batch.
type Call struct {
	Target   common.Address
	CallData []byte

	// NativeBalanceOf, when set, asks for the native balance of that account
	// instead of executing CallData against Target.
	NativeBalanceOf *common.Address
}

// NativeBalanceCall builds a Call reading the native balance of account.
func NativeBalanceCall(account common.Address) Call {
	a := account
	return Call{NativeBalanceOf: &a}
}

// Result is the outcome of one Call. ReturnData is ABI encoded; native balance
// reads are returned as a 32 byte uint256 so every entry decodes the same way.
type Result struct {
	Success    bool
	ReturnData []byte
	Err        error
}

// Caller executes a batch of read-only calls allowing individual failures.
// Results are returned in exactly the order of calls.
type Caller interface {
	Aggregate(ctx context.Context, calls []Call) ([]Result, error)
}
