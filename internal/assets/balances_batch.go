package assets

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/multicall"
)

type batchOptions struct {
	throwOnTimeout bool
	timeout        time.Duration
}

type BatchOption func(*batchOptions)

// WithThrowOnTimeout(false) keeps waiting for the batch after the timeout fires.
func WithThrowOnTimeout(v bool) BatchOption {
	return func(o *batchOptions) { o.throwOnTimeout = v }
}

func WithBatchTimeout(d time.Duration) BatchOption {
	return func(o *batchOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

type aggregateOutcome struct {
	results []multicall.Result
	err     error
}

// FetchBalancesViaMulticall reads every request in one allow-failure batch.
// A failing entry lands in Failed without touching its siblings. The only
// batch-level errors are transport failure, context cancellation and, when
// throwOnTimeout is set, multicall.ErrTimeout.
func (m *Manager) FetchBalancesViaMulticall(ctx context.Context, network string, account common.Address, requests []BalanceRequest, opts ...BatchOption) (BalancesBatchResult, error) {
	o := batchOptions{throwOnTimeout: true, timeout: m.multicallTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	out := BalancesBatchResult{
		Balances: make(map[AssetSlug]string, len(requests)),
		Failed:   make(map[AssetSlug]error),
	}
	if len(requests) == 0 {
		return out, nil
	}

	clients, err := m.chainsService.ClientsForNetwork(ctx, network)
	if err != nil {
		return BalancesBatchResult{}, errors.Wrapf(err, "assets: clients for %q", network)
	}
	if clients == nil || clients.Multicall == nil {
		return BalancesBatchResult{}, errors.Newf("assets: no multicall client for %q", network)
	}

	calls := make([]multicall.Call, len(requests))
	for i, req := range requests {
		call, err := buildBalanceCall(req, account)
		if err != nil {
			return BalancesBatchResult{}, errors.Wrapf(err, "assets: build call for %s", req.Slug)
		}
		calls[i] = call
	}

	done := make(chan aggregateOutcome, 1)
	// Not cancelled on timeout: only its result is abandoned.
	go func() {
		res, err := clients.Multicall.Aggregate(ctx, calls)
		done <- aggregateOutcome{results: res, err: err}
	}()

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	var outcome aggregateOutcome
	select {
	case outcome = <-done:
	case <-ctx.Done():
		return BalancesBatchResult{}, ctx.Err()
	case <-timer.C:
		if o.throwOnTimeout {
			log.Warn("assets: multicall balances timed out",
				"network", network,
				"requests", len(requests),
				"timeout", o.timeout.String(),
			)
			return BalancesBatchResult{}, errors.Wrapf(multicall.ErrTimeout, "balances after %s", o.timeout)
		}
		select {
		case outcome = <-done:
		case <-ctx.Done():
			return BalancesBatchResult{}, ctx.Err()
		}
	}

	if outcome.err != nil {
		return BalancesBatchResult{}, errors.Wrap(outcome.err, "assets: multicall balances")
	}
	if len(outcome.results) != len(requests) {
		return BalancesBatchResult{}, errors.Newf("assets: multicall returned %d results for %d requests", len(outcome.results), len(requests))
	}

	for i, req := range requests {
		amount, err := parseBalanceResult(req, account, outcome.results[i])
		if err != nil {
			log.Warn("assets: balance entry failed", "network", network, "slug", req.Slug.String(), "error", err)
			delete(out.Balances, req.Slug)
			out.Failed[req.Slug] = err
			continue
		}
		delete(out.Failed, req.Slug)
		out.Balances[req.Slug] = amount
	}
	return out, nil
}

func buildBalanceCall(req BalanceRequest, account common.Address) (multicall.Call, error) {
	if req.Slug.IsNative() || req.Standard == StandardNative {
		return multicall.NativeBalanceCall(account), nil
	}

	var (
		data []byte
		err  error
	)
	switch req.Standard {
	case StandardERC1155:
		data, err = ERC1155ABI.Pack("balanceOf", account, req.Slug.tokenIDOrZero())
	case StandardERC721:
		data, err = ERC721ABI.Pack("ownerOf", req.Slug.tokenIDOrZero())
	default:
		data, err = ERC20ABI.Pack("balanceOf", account)
	}
	if err != nil {
		return multicall.Call{}, err
	}
	return multicall.Call{Target: req.Slug.Contract, CallData: data}, nil
}

func parseBalanceResult(req BalanceRequest, account common.Address, res multicall.Result) (string, error) {
	if !res.Success {
		if res.Err != nil {
			return "", res.Err
		}
		return "", errors.New("call failed")
	}
	if len(res.ReturnData) == 0 {
		return "", ErrContractNotFound
	}

	if req.Standard == StandardERC721 && !req.Slug.IsNative() {
		out, err := ERC721ABI.Methods["ownerOf"].Outputs.Unpack(res.ReturnData)
		if err != nil {
			return "", errors.Wrap(err, "unpack ownerOf")
		}
		n, err := ownershipBalance(out[0], account)
		if err != nil {
			return "", err
		}
		return n.String(), nil
	}

	// native, ERC20 and ERC1155 all answer with a single uint256
	out, err := ERC20ABI.Methods["balanceOf"].Outputs.Unpack(res.ReturnData)
	if err != nil {
		return "", errors.Wrap(err, "unpack balance")
	}
	n, err := asBigInt(out[0])
	if err != nil {
		return "", err
	}
	return n.String(), nil
}
