package effects

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/assets"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/chains"
)

// StandardDetector is satisfied by *assets.Manager.
type StandardDetector interface {
	DetectStandard(ctx context.Context, network string, slug assets.AssetSlug) assets.AssetStandard
}

type Attempt struct {
	Handler string  `json:"handler"`
	Outcome Outcome `json:"outcome"`
	Err     error   `json:"-"`
}

// Interpretation is the full trace of one Interpret call.
type Interpretation struct {
	Handler  string           `json:"handler,omitempty"`
	Effects  assets.EffectMap `json:"effects"`
	Attempts []Attempt        `json:"attempts"`
}

type Interpreter struct {
	chainsService chains.Provider
	detector      StandardDetector
	handlers      []Handler
}

type InterpreterOption func(*Interpreter)

// WithHandlers replaces the default handler table. Order is priority.
func WithHandlers(handlers ...Handler) InterpreterOption {
	return func(i *Interpreter) {
		i.handlers = append([]Handler(nil), handlers...)
	}
}

func NewInterpreter(chainsService chains.Provider, detector StandardDetector, opts ...InterpreterOption) (*Interpreter, error) {
	if chainsService == nil {
		return nil, errors.New("effects: chain provider is nil")
	}
	if detector == nil {
		return nil, errors.New("effects: standard detector is nil")
	}
	i := &Interpreter{
		chainsService: chainsService,
		detector:      detector,
		handlers:      DefaultHandlers(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Interpret returns the effect of call on sender's holdings. Unrecognised
// payloads yield an empty map, never an error.
func (i *Interpreter) Interpret(ctx context.Context, network string, call Call, sender common.Address) assets.EffectMap {
	return i.Explain(ctx, network, call, sender).Effects
}

// Explain runs the handler table and records every attempt up to the winner.
func (i *Interpreter) Explain(ctx context.Context, network string, call Call, sender common.Address) Interpretation {
	target := &Target{Address: call.To, network: network, detector: i.detector}
	res := Interpretation{Effects: assets.EffectMap{}}

	for _, h := range i.handlers {
		effects, outcome, err := i.try(ctx, network, h, call, sender, target)
		res.Attempts = append(res.Attempts, Attempt{Handler: h.Name, Outcome: outcome, Err: err})

		if outcome == OutcomeSimulationFailed {
			log.Info("effects: simulation failed",
				"network", network,
				"handler", h.Name,
				"target", call.To.Hex(),
				"error", err,
			)
		}
		if outcome != OutcomeApplied {
			continue
		}

		res.Handler = h.Name
		if effects != nil {
			res.Effects = effects
		}
		return res
	}
	return res
}

func (i *Interpreter) try(ctx context.Context, network string, h Handler, call Call, sender common.Address, target *Target) (assets.EffectMap, Outcome, error) {
	args, err := h.decode(call.Data)
	if err != nil {
		if errors.Is(err, ErrDecodeMismatch) {
			return nil, OutcomeDecodeMismatch, err
		}
		return nil, OutcomeDecodeFailed, err
	}

	if h.Applicable != nil && !h.Applicable(ctx, target) {
		return nil, OutcomeNotApplicable, nil
	}

	in := Input{
		Args:     args,
		Simulate: i.simulator(network, h, call, sender),
		Sender:   sender,
		Target:   call.To,
	}
	effects, err := h.Parse(ctx, in)
	if err != nil {
		if errors.Is(err, ErrSimulationFailed) {
			return nil, OutcomeSimulationFailed, err
		}
		return nil, OutcomeDecodeFailed, err
	}
	return effects, OutcomeApplied, nil
}

// simulator dry-runs the original call from sender and unpacks the handler's
// declared outputs. Nothing runs unless a handler asks for it.
func (i *Interpreter) simulator(network string, h Handler, call Call, sender common.Address) Simulate {
	return func(ctx context.Context) ([]interface{}, error) {
		clients, err := i.chainsService.ClientsForNetwork(ctx, network)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "clients for %q", network), ErrSimulationFailed)
		}
		if clients == nil || clients.HTTP == nil {
			return nil, errors.Mark(errors.Newf("no http client for %q", network), ErrSimulationFailed)
		}

		to := call.To
		raw, err := clients.HTTP.CallContract(ctx, ethereum.CallMsg{
			From:  sender,
			To:    &to,
			Data:  call.Data,
			Value: call.Value,
		}, nil)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "simulate %s", h.Method.Sig), ErrSimulationFailed)
		}

		out, err := h.Method.Outputs.Unpack(raw)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "unpack %s result", h.Method.Sig), ErrSimulationFailed)
		}
		return out, nil
	}
}
