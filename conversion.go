package fractionmarket

import (
	"math/big"

	"github.com/fractionlabs/fraction-market-sdk-go/fixedpoint"
)

// hundred is the percent denominator shared by all conversions.
var hundred = big.NewInt(100)

// ConversionResult carries every denomination of one (asset, sell order)
// pair's pricing. All quantities are derived from the order's per-percent
// prices, the asset's total supply and the order's units for sale, and are
// internally consistent: each "per-X" value is the scaled reciprocal of its
// "X-per" counterpart, re-derived from the same raw values.
type ConversionResult struct {
	// Whole-asset price (100% of supply).
	TotalPriceUSD   fixedpoint.ScaledValue
	TotalPriceToken fixedpoint.ScaledValue

	// Price of the order's remaining units.
	TotalSalePriceUSD   fixedpoint.ScaledValue
	TotalSalePriceToken fixedpoint.ScaledValue

	// PricePerUnitUSD and PricePerUnitToken are display values. The on-chain
	// figure is derived from PricePerUnitToken at the chain boundary via
	// ScaledValue.MinorUnits with the settlement currency's decimals; not
	// every settlement currency carries 18 of them.
	PricePerUnitUSD   fixedpoint.ScaledValue
	PricePerUnitToken fixedpoint.ScaledValue

	PricePerPercentUSD   fixedpoint.ScaledValue
	PricePerPercentToken fixedpoint.ScaledValue

	// UnitsPerPercent is totalSupply/100 with floor semantics. Zero when the
	// supply is under 100 units; per-unit prices are then the defined zero
	// value and the asset cannot be priced per unit.
	UnitsPerPercent *big.Int
	UnitsPerUSD     fixedpoint.ScaledValue
	UnitsPerToken   fixedpoint.ScaledValue

	PercentPerUnit  fixedpoint.ScaledValue
	PercentPerUSD   fixedpoint.ScaledValue
	PercentPerToken fixedpoint.ScaledValue
}

// FromPercentPrices derives the full ConversionResult for one sell order.
// It is pure and deterministic: the entire path is scaled-integer arithmetic,
// and every degenerate input (zero supply, zero price) resolves to a zero
// value rather than an error so callers can always render "0".
func FromPercentPrices(pricePerPercentUSD, pricePerPercentToken fixedpoint.ScaledValue, totalSupply, unitsForSale *big.Int) ConversionResult {
	if totalSupply == nil {
		totalSupply = new(big.Int)
	}
	if unitsForSale == nil {
		unitsForSale = new(big.Int)
	}

	unitsPerPercent := new(big.Int).Quo(totalSupply, hundred)

	pricePerUnitUSD := pricePerPercentUSD.DivInt(unitsPerPercent)
	pricePerUnitToken := pricePerPercentToken.DivInt(unitsPerPercent)

	return ConversionResult{
		TotalPriceUSD:   pricePerPercentUSD.MulInt(hundred),
		TotalPriceToken: pricePerPercentToken.MulInt(hundred),

		TotalSalePriceUSD:   pricePerUnitUSD.MulInt(unitsForSale),
		TotalSalePriceToken: pricePerUnitToken.MulInt(unitsForSale),

		PricePerUnitUSD:   pricePerUnitUSD,
		PricePerUnitToken: pricePerUnitToken,

		PricePerPercentUSD:   pricePerPercentUSD,
		PricePerPercentToken: pricePerPercentToken,

		UnitsPerPercent: unitsPerPercent,
		UnitsPerUSD:     fixedpoint.Scale(unitsPerPercent).Div(pricePerPercentUSD),
		UnitsPerToken:   fixedpoint.Scale(unitsPerPercent).Div(pricePerPercentToken),

		PercentPerUnit:  fixedpoint.New(fixedpoint.DivideWithPrecision(big.NewInt(1), unitsPerPercent)),
		PercentPerUSD:   pricePerPercentUSD.Reciprocal(),
		PercentPerToken: pricePerPercentToken.Reciprocal(),
	}
}

// FromOrder derives the ConversionResult for an order against its asset's
// total supply.
func FromOrder(asset *Asset, order *SellOrder) ConversionResult {
	if asset == nil || order == nil {
		return ConversionResult{}
	}
	return FromPercentPrices(order.PricePerPercentUSD, order.PricePerPercentToken, asset.TotalSupply, order.UnitsForSale)
}

// UnitsFromAmount converts a target amount (in USD, token or percent, with
// pricePerPercent quoted in the matching denomination) into a whole unit
// count: floor((amount / pricePerPercent) * (totalSupply / 100)).
//
// The path is integer-only. An off-by-one unit multiplied by a large supply
// is real money, so no floating-point intermediate is permitted here. A
// non-positive price or supply returns 0, never a negative count.
func UnitsFromAmount(amount fixedpoint.ScaledValue, totalSupply *big.Int, pricePerPercent fixedpoint.ScaledValue) *big.Int {
	if pricePerPercent.Sign() <= 0 || totalSupply == nil || totalSupply.Sign() <= 0 {
		return new(big.Int)
	}

	unitsPerPercent := new(big.Int).Quo(totalSupply, hundred)

	// amount and pricePerPercent share the 10^18 scale, so the ratio of raw
	// values needs no rescaling before the floor division.
	units := new(big.Int).Mul(amount.Raw(), unitsPerPercent)
	units.Quo(units, pricePerPercent.Raw())

	if units.Sign() < 0 {
		return new(big.Int)
	}
	return units
}

// ValidatePurchase is the single choke point every purchase-amount entry mode
// funnels through before a pipeline may start. It returns nil when the
// request is purchasable and a *PurchaseRejectedError otherwise.
func ValidatePurchase(requestedUnits, availableUnits, buyerBalanceUnits *big.Int) error {
	if requestedUnits == nil || requestedUnits.Sign() <= 0 {
		return &PurchaseRejectedError{Reason: RejectNonPositiveUnits}
	}
	if availableUnits == nil || requestedUnits.Cmp(availableUnits) > 0 {
		return &PurchaseRejectedError{Reason: RejectExceedsAvailable}
	}
	if buyerBalanceUnits == nil || requestedUnits.Cmp(buyerBalanceUnits) > 0 {
		return &PurchaseRejectedError{Reason: RejectInsufficientBalance}
	}
	return nil
}
