package constants

import "time"

const (
	AppName    = "quantum-asset-resolver"
	ConfigFile = "config.yaml"
	EnvPrefix  = "QAR"

	NativeAddr = "0x0000000000000000000000000000000000000000"

	// Canonical Multicall3 deployment, identical on most EVM chains.
	Multicall3Addr = "0xcA11bde05977b3631167028862bE2a173976CA11"

	// ERC165 interface ids.
	ERC721InterfaceID  = "0x80ac58cd"
	ERC1155InterfaceID = "0xd9b67a26"

	MulticallTimeout = 30 * time.Second

	DefaultIPFSGateway      = "https://ipfs.io/ipfs/"
	DefaultDocumentTimeout  = 15 * time.Second
	DefaultMaxDocumentBytes = 2 << 20
	DefaultDocumentRPS      = 5

	NativeDecimals = 18
	NativeSymbol   = "ETH"
	NativeName     = "Ether"

	// Micheline descent never follows more than this many nested nodes.
	MaxMichelineDepth = 32
)
