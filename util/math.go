package util

import (
	"math"
	"math/big"
)

// AddUint64 returns a+b and reports whether the sum fits in uint64.
func AddUint64(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

// SubUint64 returns a-b and reports whether the difference is non-negative.
func SubUint64(a, b uint64) (uint64, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}

// Pow10 returns 10^n as big.Int.
func Pow10(n uint) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// BigToUint64 converts v to uint64 and reports whether it fits.
// Negative values never fit.
func BigToUint64(v *big.Int) (uint64, bool) {
	if v.Sign() < 0 || v.BitLen() > 64 {
		return 0, false
	}
	return v.Uint64(), true
}
