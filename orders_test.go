package fractionmarket

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractionlabs/fraction-market-sdk-go/fixedpoint"
)

// Order ids are the 32-byte exchange order hashes, hex-encoded.
const (
	orderIDCheap       = "0x00000000000000000000000000000000000000000000000000000000000000a1"
	orderIDPricey      = "0x00000000000000000000000000000000000000000000000000000000000000a2"
	orderIDInvalidated = "0x00000000000000000000000000000000000000000000000000000000000000a3"
	orderIDOtherChain  = "0x00000000000000000000000000000000000000000000000000000000000000a4"
)

func testAsset() *Asset {
	return &Asset{
		ID:          "asset-1",
		TokenID:     "7",
		Collection:  "0x1000000000000000000000000000000000000001",
		TotalSupply: big.NewInt(100_000_000),
		Orders: []SellOrder{
			{
				ID:                   orderIDCheap,
				AssetID:              "asset-1",
				PricePerPercentUSD:   fixedpoint.ScaleInt64(10),
				PricePerPercentToken: fixedpoint.ScaleInt64(5),
				UnitsForSale:         big.NewInt(1_000_000),
				Currency:             CurrencyUSDC,
				ChainScope:           ChainIDPolygonAmoy,
			},
			{
				ID:                   orderIDPricey,
				AssetID:              "asset-1",
				PricePerPercentUSD:   fixedpoint.ScaleInt64(20),
				PricePerPercentToken: fixedpoint.ScaleInt64(10),
				UnitsForSale:         big.NewInt(5_000_000),
				Currency:             CurrencyUSDC,
				ChainScope:           ChainIDPolygonAmoy,
			},
			{
				ID:                   orderIDInvalidated,
				AssetID:              "asset-1",
				PricePerPercentUSD:   fixedpoint.ScaleInt64(1),
				PricePerPercentToken: fixedpoint.ScaleInt64(1),
				UnitsForSale:         big.NewInt(9_000_000),
				Currency:             CurrencyUSDC,
				ChainScope:           ChainIDPolygonAmoy,
				Invalidated:          true,
			},
			{
				ID:                   orderIDOtherChain,
				AssetID:              "asset-1",
				PricePerPercentUSD:   fixedpoint.ScaleInt64(2),
				PricePerPercentToken: fixedpoint.ScaleInt64(1),
				UnitsForSale:         big.NewInt(9_000_000),
				Currency:             CurrencyUSDC,
				ChainScope:           ChainIDPolygonMainnet,
			},
		},
	}
}

func TestSelectOrderCheapestCoveringRequest(t *testing.T) {
	asset := testAsset()

	selected, err := SelectOrder(asset, "", big.NewInt(500_000), ChainIDPolygonAmoy)
	require.NoError(t, err)
	assert.Equal(t, orderIDCheap, selected.Order.ID)
	assert.Equal(t, big.NewInt(500_000), selected.PurchasableUnits)

	// The cheap order cannot cover 2M units; the pricier one can.
	selected, err = SelectOrder(asset, "", big.NewInt(2_000_000), ChainIDPolygonAmoy)
	require.NoError(t, err)
	assert.Equal(t, orderIDPricey, selected.Order.ID)
}

func TestSelectOrderByID(t *testing.T) {
	asset := testAsset()

	selected, err := SelectOrder(asset, orderIDPricey, big.NewInt(500_000), ChainIDPolygonAmoy)
	require.NoError(t, err)
	assert.Equal(t, orderIDPricey, selected.Order.ID)

	t.Run("named order too small", func(t *testing.T) {
		_, err := SelectOrder(asset, orderIDCheap, big.NewInt(2_000_000), ChainIDPolygonAmoy)
		var rejected *PurchaseRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, RejectExceedsAvailable, rejected.Reason)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := SelectOrder(asset, "order-nope", big.NewInt(1), ChainIDPolygonAmoy)
		assert.ErrorIs(t, err, ErrOrderUnavailable)
	})
}

func TestSelectOrderSkipsUnusableOrders(t *testing.T) {
	asset := testAsset()

	// The invalidated order and the other-chain order are the cheapest on
	// paper but must never be chosen.
	selected, err := SelectOrder(asset, "", big.NewInt(500_000), ChainIDPolygonAmoy)
	require.NoError(t, err)
	assert.Equal(t, orderIDCheap, selected.Order.ID)

	_, err = SelectOrder(asset, orderIDInvalidated, big.NewInt(1), ChainIDPolygonAmoy)
	assert.ErrorIs(t, err, ErrOrderUnavailable)

	_, err = SelectOrder(asset, orderIDOtherChain, big.NewInt(1), ChainIDPolygonAmoy)
	assert.ErrorIs(t, err, ErrOrderUnavailable)
}

func TestSelectOrderBadInputs(t *testing.T) {
	asset := testAsset()

	_, err := SelectOrder(nil, "", big.NewInt(1), ChainIDPolygonAmoy)
	var invalid *InvalidParamError
	assert.ErrorAs(t, err, &invalid)

	var rejected *PurchaseRejectedError
	_, err = SelectOrder(asset, "", nil, ChainIDPolygonAmoy)
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, RejectNonPositiveUnits, rejected.Reason)

	_, err = SelectOrder(asset, "", big.NewInt(-5), ChainIDPolygonAmoy)
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, RejectNonPositiveUnits, rejected.Reason)
}

func TestOrderHashFromID(t *testing.T) {
	hash, err := orderHashFromID(orderIDCheap)
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash(orderIDCheap), hash)

	var apiErr *MarketAPIError
	for name, id := range map[string]string{
		"not hex":   "order-cheap",
		"no prefix": "00000000000000000000000000000000000000000000000000000000000000a1",
		"too short": "0xa1",
		"too long":  orderIDCheap + "ff",
		"all zero":  "0x0000000000000000000000000000000000000000000000000000000000000000",
		"empty":     "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := orderHashFromID(id)
			require.ErrorAs(t, err, &apiErr)
			assert.ErrorIs(t, err, ErrMarketAPI)
		})
	}
}
