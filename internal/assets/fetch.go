package assets

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/sourcegraph/conc"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/chains"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/constants"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/metadoc"
)

var (
	ErrUnknownStandard     = errors.New("assets: unknown asset standard")
	ErrMetadataUnavailable = errors.New("assets: metadata unavailable")
	errTokenIDRequired     = errors.New("token id required")
)

// FetchAssetMetadata resolves the standard, then reads its property set.
// Every on-chain property read is independent of the others.
func (m *Manager) FetchAssetMetadata(ctx context.Context, network string, slug AssetSlug) (*Metadata, error) {
	if slug.IsNative() {
		return &Metadata{
			Standard: StandardNative,
			Address:  common.HexToAddress(constants.NativeAddr).Hex(),
			Name:     constants.NativeName,
			Symbol:   constants.NativeSymbol,
			Decimals: constants.NativeDecimals,
		}, nil
	}

	clients, err := m.chainsService.ClientsForNetwork(ctx, network)
	if err != nil {
		return nil, errors.Wrapf(err, "assets: clients for %q", network)
	}
	if clients == nil || clients.HTTP == nil {
		return nil, errors.Newf("assets: no http client for %q", network)
	}

	standard := DetectContractStandard(ctx, clients.HTTP, slug.Contract)

	var md *Metadata
	switch standard {
	case StandardERC20:
		md, err = m.fetchERC20Metadata(ctx, clients.HTTP, slug)
	case StandardERC721:
		md, err = m.fetchERC721Metadata(ctx, clients.HTTP, slug)
	case StandardERC1155:
		md, err = m.fetchERC1155Metadata(ctx, clients.HTTP, slug)
	default:
		return nil, errors.Wrapf(ErrUnknownStandard, "%s on %s", slug, network)
	}
	if err != nil {
		log.Warn("assets: metadata unavailable",
			"network", network,
			"slug", slug.String(),
			"standard", standard.String(),
			"error", err,
		)
		return nil, errors.Mark(err, ErrMetadataUnavailable)
	}
	return md, nil
}

type stringRead struct {
	value string
	err   error
}

// readStrings runs every read concurrently; one failure never blocks another.
func readStrings(ctx context.Context, reads map[string]func(ctx context.Context) (string, error)) map[string]stringRead {
	out := make(map[string]stringRead, len(reads))
	results := make([]stringRead, len(reads))
	keys := make([]string, 0, len(reads))
	for k := range reads {
		keys = append(keys, k)
	}

	var wg conc.WaitGroup
	for i, k := range keys {
		read := reads[k]
		wg.Go(func() {
			v, err := read(ctx)
			results[i] = stringRead{value: v, err: err}
		})
	}
	wg.Wait()

	for i, k := range keys {
		out[k] = results[i]
	}
	return out
}

func (m *Manager) fetchERC20Metadata(ctx context.Context, backend chains.Backend, slug AssetSlug) (*Metadata, error) {
	var decimals uint8
	reads := readStrings(ctx, map[string]func(context.Context) (string, error){
		"name": func(ctx context.Context) (string, error) {
			return callString(ctx, backend, slug.Contract, ERC20ABI, "name")
		},
		"symbol": func(ctx context.Context) (string, error) {
			return callString(ctx, backend, slug.Contract, ERC20ABI, "symbol")
		},
		"decimals": func(ctx context.Context) (string, error) {
			out, err := callView(ctx, backend, slug.Contract, ERC20ABI, "decimals")
			if err != nil {
				return "", err
			}
			d, ok := out[0].(uint8)
			if !ok {
				return "", errors.Newf("decimals: unexpected output type %T", out[0])
			}
			decimals = d
			return "", nil
		},
	})

	// amounts cannot be displayed without decimals
	if err := reads["decimals"].err; err != nil {
		return nil, errors.Wrap(err, "decimals")
	}

	return &Metadata{
		Standard: StandardERC20,
		Address:  slug.Contract.Hex(),
		Name:     reads["name"].value,
		Symbol:   reads["symbol"].value,
		Decimals: decimals,
	}, nil
}

func (m *Manager) fetchERC721Metadata(ctx context.Context, backend chains.Backend, slug AssetSlug) (*Metadata, error) {
	id := slug.TokenIDBig()
	if id == nil {
		return nil, errTokenIDRequired
	}

	reads := readStrings(ctx, map[string]func(context.Context) (string, error){
		"name": func(ctx context.Context) (string, error) {
			return callString(ctx, backend, slug.Contract, ERC721ABI, "name")
		},
		"symbol": func(ctx context.Context) (string, error) {
			return callString(ctx, backend, slug.Contract, ERC721ABI, "symbol")
		},
		"tokenURI": func(ctx context.Context) (string, error) {
			return callString(ctx, backend, slug.Contract, ERC721ABI, "tokenURI", id)
		},
	})

	uri := reads["tokenURI"]
	if uri.err != nil {
		return nil, errors.Wrap(uri.err, "tokenURI")
	}

	doc, err := metadoc.FetchCollectible(ctx, m.documents, uri.value)
	if err != nil {
		return nil, errors.Wrap(err, "collectible document")
	}

	return &Metadata{
		Standard:    StandardERC721,
		Address:     slug.Contract.Hex(),
		TokenID:     slug.TokenID,
		Name:        reads["name"].value,
		Symbol:      reads["symbol"].value,
		MetadataURI: uri.value,
		Document:    doc,
	}, nil
}

func (m *Manager) fetchERC1155Metadata(ctx context.Context, backend chains.Backend, slug AssetSlug) (*Metadata, error) {
	id := slug.TokenIDBig()
	if id == nil {
		return nil, errTokenIDRequired
	}

	reads := readStrings(ctx, map[string]func(context.Context) (string, error){
		"name": func(ctx context.Context) (string, error) {
			return callString(ctx, backend, slug.Contract, ERC1155ABI, "name")
		},
		"symbol": func(ctx context.Context) (string, error) {
			return callString(ctx, backend, slug.Contract, ERC1155ABI, "symbol")
		},
		"uri": func(ctx context.Context) (string, error) {
			return callString(ctx, backend, slug.Contract, ERC1155ABI, "uri", id)
		},
	})

	uri := reads["uri"]
	if uri.err != nil {
		return nil, errors.Wrap(uri.err, "uri")
	}

	doc, resolvedURI, err := metadoc.FetchFirstCollectible(ctx, m.documents, metadoc.ExpandTokenURI(uri.value, id))
	if err != nil {
		return nil, errors.Wrap(err, "collectible document")
	}

	// ERC1155 does not mandate name(); fall back to the document
	name := reads["name"].value
	if name == "" {
		name = doc.Name
	}

	return &Metadata{
		Standard:    StandardERC1155,
		Address:     slug.Contract.Hex(),
		TokenID:     slug.TokenID,
		Name:        name,
		Symbol:      reads["symbol"].value,
		MetadataURI: resolvedURI,
		Document:    doc,
	}, nil
}
