// Package fixedpoint implements scaled-integer arithmetic for price and
// percentage math. Values are integers implicitly multiplied by 10^18, so
// conversions between currency, percent and unit denominations never touch
// floating point.
package fixedpoint

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// MultiplierExp is the power of ten every ScaledValue is scaled by.
const MultiplierExp = 18

// Multiplier returns the scaling constant 10^18 as a fresh big.Int.
func Multiplier() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(MultiplierExp), nil)
}

// ScaledValue is an integer scaled by 10^18. The zero value represents 0.
type ScaledValue struct {
	raw *big.Int
}

// New adopts an already-scaled raw integer. A nil raw yields the zero value.
func New(raw *big.Int) ScaledValue {
	if raw == nil {
		return ScaledValue{}
	}
	return ScaledValue{raw: new(big.Int).Set(raw)}
}

// Zero returns the zero ScaledValue.
func Zero() ScaledValue {
	return ScaledValue{}
}

// Scale converts a plain integer into its scaled representation.
func Scale(v *big.Int) ScaledValue {
	if v == nil {
		return ScaledValue{}
	}
	return ScaledValue{raw: new(big.Int).Mul(v, Multiplier())}
}

// ScaleInt64 converts a plain int64 into its scaled representation.
func ScaleInt64(v int64) ScaledValue {
	return Scale(big.NewInt(v))
}

// FromDecimal converts a boundary decimal (prices and amounts arriving from
// external data) into a ScaledValue. The conversion happens exactly once at
// the boundary; fractional digits beyond 10^-18 are truncated toward zero.
func FromDecimal(d decimal.Decimal) ScaledValue {
	return ScaledValue{raw: d.Shift(MultiplierExp).BigInt()}
}

// FromMinorUnits converts an on-chain minor-unit amount (an ERC20 balance,
// allowance or transfer figure) into a ScaledValue, given the token's
// decimals. Decimals outside [0, MultiplierExp] yield zero.
func FromMinorUnits(amount *big.Int, decimals int32) ScaledValue {
	if amount == nil || decimals < 0 || decimals > MultiplierExp {
		return ScaledValue{}
	}
	shift := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(MultiplierExp-decimals)), nil)
	return ScaledValue{raw: new(big.Int).Mul(amount, shift)}
}

// MinorUnits converts the value into on-chain minor units for a token with
// the given decimals, truncating toward zero. Decimals outside
// [0, MultiplierExp] yield zero.
func (s ScaledValue) MinorUnits(decimals int32) *big.Int {
	if s.raw == nil || decimals < 0 || decimals > MultiplierExp {
		return new(big.Int)
	}
	shift := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(MultiplierExp-decimals)), nil)
	return new(big.Int).Quo(s.raw, shift)
}

// Raw returns a copy of the underlying scaled integer.
func (s ScaledValue) Raw() *big.Int {
	if s.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(s.raw)
}

// Unscale returns the unscaled integer part, truncating toward zero.
func (s ScaledValue) Unscale() *big.Int {
	if s.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Quo(s.raw, Multiplier())
}

// Decimal returns the value as a decimal for display. Not for arithmetic.
func (s ScaledValue) Decimal() decimal.Decimal {
	if s.raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(s.raw, -MultiplierExp)
}

// Float64 returns the display value. Not for arithmetic.
func (s ScaledValue) Float64() float64 {
	f, _ := s.Decimal().Float64()
	return f
}

// String formats the value for display.
func (s ScaledValue) String() string {
	return s.Decimal().String()
}

// Sign reports the sign of the value: -1, 0 or +1.
func (s ScaledValue) Sign() int {
	if s.raw == nil {
		return 0
	}
	return s.raw.Sign()
}

// IsZero reports whether the value is zero.
func (s ScaledValue) IsZero() bool {
	return s.Sign() == 0
}

// Cmp compares s and other, returning -1, 0 or +1.
func (s ScaledValue) Cmp(other ScaledValue) int {
	return s.Raw().Cmp(other.Raw())
}

// Add returns s + other.
func (s ScaledValue) Add(other ScaledValue) ScaledValue {
	return ScaledValue{raw: new(big.Int).Add(s.Raw(), other.Raw())}
}

// MulInt multiplies a scaled value by a plain integer, preserving the scale.
func (s ScaledValue) MulInt(n *big.Int) ScaledValue {
	if s.raw == nil || n == nil {
		return ScaledValue{}
	}
	return ScaledValue{raw: new(big.Int).Mul(s.raw, n)}
}

// DivInt divides a scaled value by a plain integer, preserving the scale and
// truncating toward zero. A zero or nil denominator yields zero.
func (s ScaledValue) DivInt(n *big.Int) ScaledValue {
	if s.raw == nil || n == nil || n.Sign() == 0 {
		return ScaledValue{}
	}
	return ScaledValue{raw: new(big.Int).Quo(s.raw, n)}
}

// Div returns the scaled ratio s/other. A zero denominator yields zero.
func (s ScaledValue) Div(other ScaledValue) ScaledValue {
	return ScaledValue{raw: DivideWithPrecision(s.Raw(), other.Raw())}
}

// Reciprocal returns 1/s as a ScaledValue. A zero value yields zero.
func (s ScaledValue) Reciprocal() ScaledValue {
	if s.raw == nil {
		return ScaledValue{}
	}
	// 1/(raw/10^18) scaled = 10^18 * 10^18 / raw.
	return ScaledValue{raw: DivideWithPrecision(Multiplier(), s.raw)}
}

// DivideWithPrecision returns (numerator * 10^18) / denominator, widening
// before the multiply so the intermediate cannot overflow. A zero denominator
// returns 0 rather than an error: a just-created asset with no orders yet must
// render as "0", not crash while data is still loading.
func DivideWithPrecision(numerator, denominator *big.Int) *big.Int {
	if numerator == nil || denominator == nil || denominator.Sign() == 0 {
		return new(big.Int)
	}
	widened := new(big.Int).Mul(numerator, Multiplier())
	return widened.Quo(widened, denominator)
}
