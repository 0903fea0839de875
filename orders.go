package fractionmarket

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SelectedOrder pairs the chosen sell order with the unit count the caller
// may actually purchase from it.
type SelectedOrder struct {
	Order            *SellOrder
	PurchasableUnits *big.Int
}

// SelectOrder resolves the caller's requested unit count against an asset's
// open sell orders. Invalidated orders and orders scoped to another chain are
// never selectable. When orderID is empty the cheapest order (by per-percent
// USD price) that can cover the request is chosen; otherwise the named order
// must still exist and fit.
func SelectOrder(asset *Asset, orderID string, requestedUnits *big.Int, chainScope ChainID) (*SelectedOrder, error) {
	if asset == nil {
		return nil, &InvalidParamError{Message: "asset is required"}
	}
	if requestedUnits == nil || requestedUnits.Sign() <= 0 {
		return nil, &PurchaseRejectedError{Reason: RejectNonPositiveUnits}
	}

	var chosen *SellOrder
	for i := range asset.Orders {
		order := &asset.Orders[i]
		if order.Invalidated || order.ChainScope != chainScope {
			continue
		}
		if orderID != "" {
			if order.ID == orderID {
				chosen = order
				break
			}
			continue
		}
		if order.UnitsForSale == nil || order.UnitsForSale.Cmp(requestedUnits) < 0 {
			continue
		}
		if chosen == nil || order.PricePerPercentUSD.Cmp(chosen.PricePerPercentUSD) < 0 {
			chosen = order
		}
	}

	if chosen == nil {
		return nil, ErrOrderUnavailable
	}
	if chosen.UnitsForSale == nil || chosen.UnitsForSale.Cmp(requestedUnits) < 0 {
		return nil, &PurchaseRejectedError{Reason: RejectExceedsAvailable}
	}

	return &SelectedOrder{
		Order:            chosen,
		PurchasableUnits: new(big.Int).Set(requestedUnits),
	}, nil
}

// orderHashFromID decodes a sell order's id into the 32-byte exchange hash it
// must carry. The id is the on-chain order hash; anything that does not decode
// to exactly 32 non-zero bytes is marketplace data corruption, and executing
// against a defaulted hash would trade the wrong order.
func orderHashFromID(id string) (common.Hash, error) {
	raw, err := hexutil.Decode(id)
	if err != nil {
		return common.Hash{}, &MarketAPIError{Message: "malformed order id " + id + ": " + err.Error()}
	}
	if len(raw) != common.HashLength {
		return common.Hash{}, &MarketAPIError{Message: "malformed order id " + id + ": not 32 bytes"}
	}
	hash := common.BytesToHash(raw)
	if hash == (common.Hash{}) {
		return common.Hash{}, &MarketAPIError{Message: "malformed order id " + id + ": zero hash"}
	}
	return hash, nil
}
