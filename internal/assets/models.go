package assets

import (
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/constants"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/metadoc"
)

type AssetStandard string

const (
	StandardNative  AssetStandard = "native"
	StandardERC20   AssetStandard = "erc20"
	StandardERC721  AssetStandard = "erc721"
	StandardERC1155 AssetStandard = "erc1155"
	StandardUnknown AssetStandard = "unknown"
)

func (s AssetStandard) String() string { return string(s) }

// AssetSlug identifies an asset by contract and optional token id (decimal).
type AssetSlug struct {
	Contract common.Address
	TokenID  string
}

func NewAssetSlug(contract common.Address, tokenID *big.Int) AssetSlug {
	s := AssetSlug{Contract: contract}
	if tokenID != nil {
		s.TokenID = tokenID.String()
	}
	return s
}

func NativeSlug() AssetSlug {
	return AssetSlug{Contract: common.HexToAddress(constants.NativeAddr)}
}

func (s AssetSlug) IsNative() bool {
	return s.Contract == common.HexToAddress(constants.NativeAddr)
}

// TokenIDBig returns the token id, or nil for fungible assets.
func (s AssetSlug) TokenIDBig() *big.Int {
	if s.TokenID == "" {
		return nil
	}
	id, ok := new(big.Int).SetString(s.TokenID, 10)
	if !ok {
		return nil
	}
	return id
}

// tokenIDOrZero is what goes on the wire when a call needs an id.
func (s AssetSlug) tokenIDOrZero() *big.Int {
	if id := s.TokenIDBig(); id != nil {
		return id
	}
	return new(big.Int)
}

func (s AssetSlug) String() string {
	if s.TokenID == "" {
		return s.Contract.Hex()
	}
	return s.Contract.Hex() + "_" + s.TokenID
}

func (s AssetSlug) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *AssetSlug) UnmarshalText(b []byte) error {
	parsed, err := ParseAssetSlug(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseAssetSlug accepts "0xcontract" or "0xcontract_tokenId".
func ParseAssetSlug(raw string) (AssetSlug, error) {
	raw = strings.TrimSpace(raw)
	addr, id, _ := strings.Cut(raw, "_")
	if !common.IsHexAddress(addr) {
		return AssetSlug{}, errors.Newf("assets: invalid slug address %q", raw)
	}
	s := AssetSlug{Contract: common.HexToAddress(addr)}
	if id != "" {
		n, ok := new(big.Int).SetString(id, 10)
		if !ok || n.Sign() < 0 {
			return AssetSlug{}, errors.Newf("assets: invalid slug token id %q", raw)
		}
		s.TokenID = n.String()
	}
	return s, nil
}

// AssetDelta is a signed change in atomic units. NFT deltas are -1, 0 or 1.
type AssetDelta struct {
	AtomicAmount *big.Int `json:"atomicAmount"`
	IsNFT        bool     `json:"isNft"`
}

// EffectMap is the outcome of one decoded call. Empty means no effect on the
// queried account.
type EffectMap map[AssetSlug]AssetDelta

type BalanceRequest struct {
	Slug     AssetSlug     `json:"slug"`
	Standard AssetStandard `json:"standard"`
}

// BalancesBatchResult holds every requested slug in exactly one of its maps.
type BalancesBatchResult struct {
	Balances map[AssetSlug]string `json:"balances"`
	Failed   map[AssetSlug]error  `json:"-"`
}

type Metadata struct {
	Standard AssetStandard `json:"standard"`
	Address  string        `json:"address"`
	TokenID  string        `json:"tokenId,omitempty"`
	Name     string        `json:"name,omitempty"`
	Symbol   string        `json:"symbol,omitempty"`
	Decimals uint8         `json:"decimals"`

	MetadataURI string                       `json:"metadataUri,omitempty"`
	Document    *metadoc.CollectibleDocument `json:"document,omitempty"`
}
