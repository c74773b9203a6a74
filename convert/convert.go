package convert

import (
	"errors"
	"fmt"
	"math/big"
	"vaultd/asset"
	"vaultd/util"
)

// ErrInvalidOracleReading is returned when the price source reports a
// non-positive, stale, or otherwise unusable rate.
var ErrInvalidOracleReading = errors.New("invalid oracle reading")

// PriceOracle supplies the current native currency exchange rate and
// the number of decimals it is scaled by.
type PriceOracle interface {
	LatestRate() (rate int64, precision uint, err error)
}

// Converter turns native-precision amounts into accounting values
// (6 decimals). Only the native currency has a live oracle path; every
// other asset is valued through a fixed 1:1 peg. A real per-asset price
// feed is a known simplification, not planned for this core.
type Converter struct {
	oracle PriceOracle
}

// New returns a converter backed by the given price oracle.
func New(oracle PriceOracle) *Converter {
	return &Converter{oracle: oracle}
}

// ValueOf converts amount of assetID into accounting units. A zero
// amount always converts to zero without consulting the oracle.
func (c *Converter) ValueOf(assetID string, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, nil
	}

	if asset.IsNative(assetID) {
		return c.nativeValue(amount)
	}

	return peggedValue(amount), nil
}

func (c *Converter) nativeValue(amount uint64) (uint64, error) {
	rate, precision, err := c.oracle.LatestRate()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidOracleReading, err)
	}

	if rate <= 0 {
		return 0, fmt.Errorf("%w: rate=%d", ErrInvalidOracleReading, rate)
	}

	// value = amount * rate * 10^6 / 10^(18+precision),
	// multiplied out in full before the division to keep precision.
	v := new(big.Int).SetUint64(amount)
	v.Mul(v, big.NewInt(rate))
	v.Mul(v, util.Pow10(asset.AccountingDecimals))
	v.Div(v, util.Pow10(asset.NativeDecimals+precision))

	value, ok := util.BigToUint64(v)
	if !ok {
		panic(fmt.Sprintf("accounting value overflow: amount=%d rate=%d precision=%d",
			amount, rate, precision))
	}

	return value, nil
}

// peggedValue rescales a pegged asset amount from the assumed peg
// precision down to accounting precision.
func peggedValue(amount uint64) uint64 {
	v := new(big.Int).SetUint64(amount)

	diff := asset.PegDecimals - asset.AccountingDecimals
	if diff >= 0 {
		v.Div(v, util.Pow10(uint(diff)))
	} else {
		v.Mul(v, util.Pow10(uint(-diff)))
	}

	value, ok := util.BigToUint64(v)
	if !ok {
		panic(fmt.Sprintf("accounting value overflow: pegged amount=%d", amount))
	}

	return value
}
