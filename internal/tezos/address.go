package tezos

import (
	"bytes"
	"crypto/sha256"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	addressPayloadLen = 20
	checksumLen       = 4
)

// Base58 version prefixes of implicit accounts, originated contracts and
// smart rollups.
var addressPrefixes = map[string][]byte{
	"tz1": {6, 161, 159},
	"tz2": {6, 161, 161},
	"tz3": {6, 161, 164},
	"tz4": {6, 161, 166},
	"KT1": {2, 90, 121},
	"sr1": {6, 124, 117},
}

// IsValidAddress reports whether s is a base58check encoded account or
// contract address. An entrypoint suffix ("KT1...%transfer") is ignored.
func IsValidAddress(s string) bool {
	s, _, _ = strings.Cut(s, "%")
	if len(s) < 3 {
		return false
	}
	prefix, ok := addressPrefixes[s[:3]]
	if !ok {
		return false
	}

	raw, err := base58.Decode(s)
	if err != nil || len(raw) != len(prefix)+addressPayloadLen+checksumLen {
		return false
	}
	if !bytes.HasPrefix(raw, prefix) {
		return false
	}

	body, sum := raw[:len(raw)-checksumLen], raw[len(raw)-checksumLen:]
	return bytes.Equal(sum, checksum(body))
}

func checksum(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:checksumLen]
}
