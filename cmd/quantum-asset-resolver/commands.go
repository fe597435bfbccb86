package main

import (
	"context"
	"flag"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/assets"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/chains"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/effects"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/tezos"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/utils"
)

const displayFractionDigits = 6

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// network maps the -network flag to a configured network name. A 0x value
// is looked up by chain id.
func (a *app) network(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return a.cfg.DefaultNetwork, nil
	}
	if !strings.HasPrefix(strings.ToLower(name), "0x") {
		return name, nil
	}
	resolved, err := a.chains.ResolveNetworkByChainIDHex(chains.NormalizeHex0x(name))
	if err != nil {
		return "", err
	}
	return resolved.NetworkName, nil
}

// explorerLink is empty when the network has no known explorer.
func (a *app) explorerLink(network string, contract common.Address) string {
	resolved, err := a.chains.ResolveNetworkByName(network)
	if err != nil || resolved.Explorer == "" {
		return ""
	}
	return strings.TrimSuffix(resolved.Explorer, "/") + "/token/" + contract.Hex()
}

func parseAccount(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.Newf("invalid account %q", raw)
	}
	return common.HexToAddress(raw), nil
}

func runStandard(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlagSet("standard")
	network := fs.String("network", "", "network name or 0x chain id (default from config)")
	asset := fs.String("asset", "", "asset slug: 0xcontract or 0xcontract_tokenId")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	slug, err := assets.ParseAssetSlug(*asset)
	if err != nil {
		return nil, err
	}
	net, err := a.network(*network)
	if err != nil {
		return nil, err
	}

	out := map[string]any{
		"network":  net,
		"asset":    slug,
		"standard": a.assets.DetectStandard(ctx, net, slug),
	}
	if !slug.IsNative() {
		if link := a.explorerLink(net, slug.Contract); link != "" {
			out["explorer"] = link
		}
	}
	return out, nil
}

type balanceOutput struct {
	Asset     assets.AssetSlug     `json:"asset"`
	Standard  assets.AssetStandard `json:"standard,omitempty"`
	Atomic    string               `json:"atomic"`
	Formatted string               `json:"formatted,omitempty"`
}

func runBalance(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlagSet("balance")
	network := fs.String("network", "", "network name or 0x chain id (default from config)")
	asset := fs.String("asset", "", "asset slug: 0xcontract or 0xcontract_tokenId")
	account := fs.String("account", "", "holder address")
	standard := fs.String("standard", "", "asset standard; detected when empty")
	decimals := fs.Int("decimals", -1, "decimals for the formatted amount; omitted when negative")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	slug, err := assets.ParseAssetSlug(*asset)
	if err != nil {
		return nil, err
	}
	holder, err := parseAccount(*account)
	if err != nil {
		return nil, err
	}
	net, err := a.network(*network)
	if err != nil {
		return nil, err
	}

	std := assets.AssetStandard(strings.ToLower(*standard))
	amount := a.assets.FetchBalance(ctx, net, slug, holder, std)

	out := balanceOutput{Asset: slug, Standard: std, Atomic: amount.String()}
	if *decimals >= 0 && *decimals <= 255 {
		out.Formatted = utils.FormatUnitsTrim(amount, uint8(*decimals), displayFractionDigits)
	}
	return out, nil
}

type balancesOutput struct {
	Balances map[assets.AssetSlug]string `json:"balances"`
	Failed   map[assets.AssetSlug]string `json:"failed"`
}

func runBalances(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlagSet("balances")
	network := fs.String("network", "", "network name or 0x chain id (default from config)")
	account := fs.String("account", "", "holder address")
	list := fs.String("assets", "", "comma separated SLUG[:STANDARD] entries")
	wait := fs.Bool("wait", false, "keep waiting when the batch exceeds the timeout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	holder, err := parseAccount(*account)
	if err != nil {
		return nil, err
	}
	net, err := a.network(*network)
	if err != nil {
		return nil, err
	}

	var requests []assets.BalanceRequest
	for _, entry := range strings.Split(*list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		rawSlug, rawStandard, _ := strings.Cut(entry, ":")
		slug, err := assets.ParseAssetSlug(rawSlug)
		if err != nil {
			return nil, err
		}
		std := assets.AssetStandard(strings.ToLower(rawStandard))
		if std == "" {
			std = a.assets.DetectStandard(ctx, net, slug)
		}
		requests = append(requests, assets.BalanceRequest{Slug: slug, Standard: std})
	}

	res, err := a.assets.FetchBalancesViaMulticall(ctx, net, holder, requests, assets.WithThrowOnTimeout(!*wait))
	if err != nil {
		return nil, err
	}

	out := balancesOutput{
		Balances: res.Balances,
		Failed:   make(map[assets.AssetSlug]string, len(res.Failed)),
	}
	for slug, ferr := range res.Failed {
		out.Failed[slug] = ferr.Error()
	}
	return out, nil
}

func runMetadata(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlagSet("metadata")
	network := fs.String("network", "", "network name or 0x chain id (default from config)")
	asset := fs.String("asset", "", "asset slug: 0xcontract or 0xcontract_tokenId")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	slug, err := assets.ParseAssetSlug(*asset)
	if err != nil {
		return nil, err
	}
	net, err := a.network(*network)
	if err != nil {
		return nil, err
	}
	return a.assets.FetchAssetMetadata(ctx, net, slug)
}

type effectOutput struct {
	Asset  assets.AssetSlug `json:"asset"`
	Atomic string           `json:"atomic"`
	IsNFT  bool             `json:"isNft"`
}

func runEffects(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlagSet("effects")
	network := fs.String("network", "", "network name or 0x chain id (default from config)")
	from := fs.String("from", "", "sender address, the account effects are computed for")
	to := fs.String("to", "", "called contract")
	data := fs.String("data", "", "hex call data")
	value := fs.String("value", "", "attached wei")
	explain := fs.Bool("explain", false, "print every handler attempt")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	sender, err := parseAccount(*from)
	if err != nil {
		return nil, err
	}
	target, err := parseAccount(*to)
	if err != nil {
		return nil, err
	}
	payload, err := hexutil.Decode(*data)
	if err != nil {
		return nil, errors.Wrap(err, "data")
	}
	call := effects.Call{To: target, Data: payload}
	if *value != "" {
		v, ok := new(big.Int).SetString(*value, 0)
		if !ok {
			return nil, errors.Newf("invalid value %q", *value)
		}
		call.Value = v
	}

	net, err := a.network(*network)
	if err != nil {
		return nil, err
	}
	res := a.interpreter.Explain(ctx, net, call, sender)
	deltas := make([]effectOutput, 0, len(res.Effects))
	for slug, d := range res.Effects {
		deltas = append(deltas, effectOutput{Asset: slug, Atomic: d.AtomicAmount.String(), IsNFT: d.IsNFT})
	}
	if !*explain {
		return deltas, nil
	}
	return map[string]any{
		"handler":  res.Handler,
		"effects":  deltas,
		"attempts": res.Attempts,
	}, nil
}

func runTezosExpenses(_ context.Context, _ *app, args []string) (any, error) {
	fs := newFlagSet("tezos-expenses")
	account := fs.String("account", "", "querying tz/KT address")
	file := fs.String("file", "", "operation group JSON; stdin when empty")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if !tezos.IsValidAddress(*account) {
		return nil, errors.Newf("invalid tezos account %q", *account)
	}

	var (
		raw []byte
		err error
	)
	if *file == "" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(*file)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read operation group")
	}

	group, err := tezos.ParseOperationGroup(raw)
	if err != nil {
		return nil, err
	}
	return tezos.ParseExpenses(group, *account), nil
}
