package fractionmarket

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractionlabs/fraction-market-sdk-go/fixedpoint"
)

func TestFromPercentPrices(t *testing.T) {
	// 100M units of supply, $10 per percent, 5 WETH per percent, 3M units
	// offered for sale.
	totalSupply := big.NewInt(100_000_000)
	unitsForSale := big.NewInt(3_000_000)
	ppUSD := fixedpoint.ScaleInt64(10)
	ppToken := fixedpoint.ScaleInt64(5)

	conv := FromPercentPrices(ppUSD, ppToken, totalSupply, unitsForSale)

	assert.Equal(t, big.NewInt(1_000_000), conv.UnitsPerPercent)
	assert.Equal(t, "1000", conv.TotalPriceUSD.String())
	assert.Equal(t, "500", conv.TotalPriceToken.String())

	// $10 per percent over 1M units per percent is $0.00001 per unit.
	assert.Equal(t, "0.00001", conv.PricePerUnitUSD.String())
	assert.Equal(t, "0.000005", conv.PricePerUnitToken.String())

	// At the chain boundary the per-unit price becomes whole minor units:
	// 0.000005 WETH is 5e12 wei, and 0.00001 of a 6-decimal token is 10.
	assert.Equal(t, big.NewInt(5_000_000_000_000), conv.PricePerUnitToken.MinorUnits(18))
	assert.Equal(t, big.NewInt(10), conv.PricePerUnitUSD.MinorUnits(6))

	// 3M units at $0.00001 each.
	assert.Equal(t, "30", conv.TotalSalePriceUSD.String())
	assert.Equal(t, "15", conv.TotalSalePriceToken.String())

	// Reciprocal pairs stay consistent: units per USD * price per unit = 1.
	assert.Equal(t, "100000", conv.UnitsPerUSD.String())
	assert.Equal(t, "0.1", conv.PercentPerUSD.String())
	assert.Equal(t, "0.2", conv.PercentPerToken.String())
}

func TestFromPercentPricesDegenerate(t *testing.T) {
	ppUSD := fixedpoint.ScaleInt64(10)

	t.Run("nil supply", func(t *testing.T) {
		conv := FromPercentPrices(ppUSD, ppUSD, nil, nil)
		assert.True(t, conv.PricePerUnitUSD.IsZero())
		assert.Equal(t, 0, conv.UnitsPerPercent.Sign())
	})

	t.Run("supply under one percent unit", func(t *testing.T) {
		conv := FromPercentPrices(ppUSD, ppUSD, big.NewInt(99), big.NewInt(10))
		assert.Equal(t, 0, conv.UnitsPerPercent.Sign())
		assert.True(t, conv.PricePerUnitUSD.IsZero())
		assert.True(t, conv.PercentPerUnit.IsZero())
	})

	t.Run("zero price", func(t *testing.T) {
		conv := FromPercentPrices(fixedpoint.Zero(), fixedpoint.Zero(), big.NewInt(100_000_000), big.NewInt(1))
		assert.True(t, conv.UnitsPerUSD.IsZero())
		assert.True(t, conv.PercentPerUSD.IsZero())
	})
}

func TestUnitsFromAmount(t *testing.T) {
	totalSupply := big.NewInt(100_000_000)
	ppUSD := fixedpoint.ScaleInt64(10)

	// $25 at $10 per percent buys 2.5 percent, i.e. 2.5M units.
	units := UnitsFromAmount(fixedpoint.ScaleInt64(25), totalSupply, ppUSD)
	assert.Equal(t, big.NewInt(2_500_000), units)

	// $0.000033 buys 3.3 units; fractional results floor toward zero.
	units = UnitsFromAmount(fixedpoint.FromDecimal(decimal.RequireFromString("0.000033")), totalSupply, ppUSD)
	assert.Equal(t, big.NewInt(3), units)

	t.Run("zero price", func(t *testing.T) {
		units := UnitsFromAmount(fixedpoint.ScaleInt64(25), totalSupply, fixedpoint.Zero())
		assert.Equal(t, 0, units.Sign())
	})

	t.Run("nil supply", func(t *testing.T) {
		units := UnitsFromAmount(fixedpoint.ScaleInt64(25), nil, ppUSD)
		assert.Equal(t, 0, units.Sign())
	})

	t.Run("negative amount", func(t *testing.T) {
		units := UnitsFromAmount(fixedpoint.ScaleInt64(-25), totalSupply, ppUSD)
		assert.Equal(t, 0, units.Sign())
	})
}

// Buying units for an amount and pricing those units again must recover the
// amount to within one unit's price; the floor in UnitsFromAmount is the only
// permitted loss.
func TestUnitsFromAmountRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		supply int64
		price  string
		amount string
	}{
		{"exact", 100_000_000, "10", "25"},
		{"sub unit remainder", 100_000_000, "10", "0.000033"},
		{"awkward price", 12_345_600, "7.77", "123.456"},
		{"amount under one unit", 100, "3", "2"},
		{"large amount", 100_000_000, "0.25", "987654.321"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			price := fixedpoint.FromDecimal(decimal.RequireFromString(tc.price))
			amount := fixedpoint.FromDecimal(decimal.RequireFromString(tc.amount))
			supply := big.NewInt(tc.supply)
			unitsPerPercent := new(big.Int).Quo(supply, big.NewInt(100))

			units := UnitsFromAmount(amount, supply, price)

			reconstructed := new(big.Int).Mul(price.Raw(), units)
			reconstructed.Quo(reconstructed, unitsPerPercent)
			diff := new(big.Int).Sub(amount.Raw(), reconstructed)

			perUnitCeil := new(big.Int).Sub(unitsPerPercent, big.NewInt(1))
			perUnitCeil.Add(perUnitCeil, price.Raw())
			perUnitCeil.Quo(perUnitCeil, unitsPerPercent)

			assert.True(t, diff.Sign() >= 0, "reconstructed amount %s overshoots %s", reconstructed, amount.Raw())
			assert.True(t, diff.Cmp(perUnitCeil) <= 0, "lost %s, more than one unit's price %s", diff, perUnitCeil)
		})
	}
}

func TestValidatePurchase(t *testing.T) {
	available := big.NewInt(1_000_000)
	balance := big.NewInt(500_000)

	t.Run("ok", func(t *testing.T) {
		assert.NoError(t, ValidatePurchase(big.NewInt(500_000), available, balance))
	})

	t.Run("boundary equals both limits", func(t *testing.T) {
		n := big.NewInt(42)
		assert.NoError(t, ValidatePurchase(n, n, n))
	})

	t.Run("non-positive", func(t *testing.T) {
		err := ValidatePurchase(big.NewInt(0), available, balance)
		var rejected *PurchaseRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, RejectNonPositiveUnits, rejected.Reason)

		err = ValidatePurchase(nil, available, balance)
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, RejectNonPositiveUnits, rejected.Reason)
	})

	t.Run("exceeds available", func(t *testing.T) {
		err := ValidatePurchase(big.NewInt(1_000_001), available, balance)
		var rejected *PurchaseRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, RejectExceedsAvailable, rejected.Reason)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		err := ValidatePurchase(big.NewInt(600_000), available, balance)
		var rejected *PurchaseRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, RejectInsufficientBalance, rejected.Reason)
	})
}
