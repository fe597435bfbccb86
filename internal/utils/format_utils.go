package utils

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatUnitsTrim converts an atomic amount to a human string:
// - divides by 10^decimals
// - truncates to maxFrac decimal places
// - removes trailing zeros
//
// Examples:
//
//	amount=1234500000000000000, decimals=18 -> "1.2345"
//	amount=1000000000000000000, decimals=18 -> "1"
//	amount=1, decimals=18, maxFrac=18 -> "0.000000000000000001"
func FormatUnitsTrim(amount *big.Int, decimals uint8, maxFrac int) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}
	if maxFrac < 0 {
		maxFrac = 0
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).Truncate(int32(maxFrac)).String()
}
