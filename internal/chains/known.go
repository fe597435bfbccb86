package chains

import (
	"strconv"
	"strings"
)

// Block explorers keyed by lowercase 0x chain id.
var knownExplorers = map[string]string{
	"0x1":      "https://etherscan.io",
	"0xaa36a7": "https://sepolia.etherscan.io",
	"0x4268":   "https://holesky.etherscan.io",

	"0xa4b1":  "https://arbiscan.io",
	"0x66eee": "https://sepolia.arbiscan.io",

	"0xa":      "https://optimistic.etherscan.io",
	"0xaa37dc": "https://sepolia-optimistic.etherscan.io",

	"0x2105":  "https://basescan.org",
	"0x14a34": "https://sepolia.basescan.org",

	"0x89": "https://polygonscan.com",

	"0x82750": "https://scrollscan.com",
	"0x8274f": "https://sepolia.scrollscan.com",
}

// NormalizeHex0x lowercases s and forces a single 0x prefix.
func NormalizeHex0x(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	return "0x" + strings.TrimPrefix(s, "0x")
}

// fillKnown completes ChainIDHex from ChainID and a missing explorer from
// the table of well-known chains.
func (n *NetworkConfig) fillKnown() {
	n.ChainIDHex = NormalizeHex0x(n.ChainIDHex)
	if n.ChainIDHex == "" && n.ChainID != 0 {
		n.ChainIDHex = "0x" + strconv.FormatUint(n.ChainID, 16)
	}
	if n.Explorer != "" {
		return
	}
	n.Explorer = knownExplorers[n.ChainIDHex]
}
