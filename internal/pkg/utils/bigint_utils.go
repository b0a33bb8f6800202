package utils

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBigInt renders base units as a decimal string without trailing zeros.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBigInt(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}
	s := decimal.NewFromBigInt(amount, -int32(decimals)).StringFixed(int32(decimals))
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "" || s == "-0" {
		return "0"
	}
	return s
}

// WeiToGwei converts a gas price to gwei.
func WeiToGwei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -9)
}

// GweiToWei converts gwei to wei, truncating below 1 wei.
func GweiToWei(gwei decimal.Decimal) *big.Int {
	return gwei.Shift(9).BigInt()
}

// MulFloat returns floor(v * factor). Used for randomized fee padding.
func MulFloat(v *big.Int, factor float64) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return decimal.NewFromBigInt(v, 0).Mul(decimal.NewFromFloat(factor)).BigInt()
}
