package effects

import (
	"bytes"
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/assets"
)

var (
	ErrDecodeMismatch   = errors.New("effects: payload does not match call shape")
	ErrSimulationFailed = errors.New("effects: simulation failed")
)

// Call is an unsigned contract call as a wallet would send it.
type Call struct {
	To    common.Address `json:"to"`
	Data  []byte         `json:"data"`
	Value *big.Int       `json:"value,omitempty"`
}

type Kind string

const (
	KindTransfer Kind = "transfer"
	KindMint     Kind = "mint"
	KindBurn     Kind = "burn"
)

// Outcome tags one handler attempt. Only OutcomeApplied ends the search.
type Outcome string

const (
	OutcomeApplied          Outcome = "applied"
	OutcomeDecodeMismatch   Outcome = "decode_mismatch"
	OutcomeDecodeFailed     Outcome = "decode_failed"
	OutcomeNotApplicable    Outcome = "not_applicable"
	OutcomeSimulationFailed Outcome = "simulation_failed"
)

// Simulate dry-runs the call as the sender and returns the decoded outputs.
type Simulate func(ctx context.Context) ([]interface{}, error)

// Input is what a Parse callback sees once the payload decoded.
type Input struct {
	Args     []interface{}
	Simulate Simulate
	Sender   common.Address
	Target   common.Address
}

// Predicate confirms the target is the contract a handler was written for.
type Predicate func(ctx context.Context, t *Target) bool

type ParseFunc func(ctx context.Context, in Input) (assets.EffectMap, error)

// Handler is bound to exactly one call shape.
type Handler struct {
	Name       string
	Standard   assets.AssetStandard
	Kind       Kind
	Method     abi.Method
	Applicable Predicate
	Parse      ParseFunc
}

func (h Handler) decode(data []byte) ([]interface{}, error) {
	if len(data) < 4 || !bytes.Equal(data[:4], h.Method.ID) {
		return nil, ErrDecodeMismatch
	}
	args, err := h.Method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", h.Method.Sig)
	}
	if len(args) != len(h.Method.Inputs) {
		return nil, errors.Newf("decode %s: got %d args", h.Method.Sig, len(args))
	}
	return args, nil
}

// Target is the called contract. Its standard is detected at most once.
type Target struct {
	Address common.Address

	network  string
	detector StandardDetector
	standard assets.AssetStandard
}

func (t *Target) Standard(ctx context.Context) assets.AssetStandard {
	if t.standard == "" {
		t.standard = t.detector.DetectStandard(ctx, t.network, assets.AssetSlug{Contract: t.Address})
	}
	return t.standard
}

func isStandard(s assets.AssetStandard) Predicate {
	return func(ctx context.Context, t *Target) bool {
		return t.Standard(ctx) == s
	}
}

// newMethod builds a method from solidity type names, e.g.
// newMethod("transfer", []string{"address", "uint256"}, []string{"bool"}).
func newMethod(name string, inputs, outputs []string) abi.Method {
	return abi.NewMethod(name, name, abi.Function, "nonpayable", false, false, mustArgs(inputs), mustArgs(outputs))
}

func mustArgs(types []string) abi.Arguments {
	args := make(abi.Arguments, 0, len(types))
	for _, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args
}
