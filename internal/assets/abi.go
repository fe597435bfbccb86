package assets

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/constants"
)

// ErrContractNotFound is returned when a call comes back with no data,
// usually because nothing is deployed at the address.
var ErrContractNotFound = errors.New("assets: contract not found")

const (
	erc165JSON = `[{"inputs":[{"name":"interfaceId","type":"bytes4"}],"name":"supportsInterface","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"}]`

	erc20JSON = `[
{"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

	erc721JSON = `[
{"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"tokenId","type":"uint256"}],"name":"tokenURI","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

	erc1155JSON = `[
{"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"id","type":"uint256"}],"name":"uri","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"account","type":"address"},{"name":"id","type":"uint256"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`
)

var (
	ERC165ABI  = mustParseABI(erc165JSON)
	ERC20ABI   = mustParseABI(erc20JSON)
	ERC721ABI  = mustParseABI(erc721JSON)
	ERC1155ABI = mustParseABI(erc1155JSON)

	erc721InterfaceID  = interfaceID(constants.ERC721InterfaceID)
	erc1155InterfaceID = interfaceID(constants.ERC1155InterfaceID)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

func interfaceID(hex string) [4]byte {
	var id [4]byte
	copy(id[:], hexutil.MustDecode(hex))
	return id
}

// callView packs method, executes it read-only and unpacks the outputs.
func callView(ctx context.Context, backend ethereum.ContractCaller, contract common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s", method)
	}

	to := contract
	raw, err := backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s", method)
	}
	if len(raw) == 0 {
		return nil, errors.Wrapf(ErrContractNotFound, "call %s on %s", method, contract.Hex())
	}

	out, err := parsed.Unpack(method, raw)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s", method)
	}
	if len(out) == 0 {
		return nil, errors.Newf("unpack %s: no outputs", method)
	}
	return out, nil
}

func callString(ctx context.Context, backend ethereum.ContractCaller, contract common.Address, parsed abi.ABI, method string, args ...interface{}) (string, error) {
	out, err := callView(ctx, backend, contract, parsed, method, args...)
	if err != nil {
		return "", err
	}
	s, ok := out[0].(string)
	if !ok {
		return "", errors.Newf("%s: unexpected output type %T", method, out[0])
	}
	return s, nil
}
