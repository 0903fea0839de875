package fractionmarket

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fractionlabs/fraction-market-sdk-go/chain"
	"github.com/fractionlabs/fraction-market-sdk-go/fixedpoint"
	"github.com/fractionlabs/fraction-market-sdk-go/pipeline"
)

// ListingParams describes one listing run. PricePerPercent is quoted in the
// settlement currency; the per-unit on-chain price is derived from it and the
// asset's total supply.
type ListingParams struct {
	AssetID         string
	PricePerPercent decimal.Decimal
	Currency        Currency
	UnitsForSale    *big.Int
	Expiration      int64
}

// NewListingRun builds the listing pipeline for the given request. The two
// approval steps are skipped individually when the wallet already granted
// them, so a seller who listed before goes straight to the signature.
func (c *Client) NewListingRun(params ListingParams) (*pipeline.Run, error) {
	if err := c.checkPrerequisites(); err != nil {
		return nil, err
	}
	if params.AssetID == "" {
		return nil, &InvalidParamError{Message: "asset id is required"}
	}
	if params.UnitsForSale == nil || params.UnitsForSale.Sign() <= 0 {
		return nil, &InvalidParamError{Message: "units for sale must be positive"}
	}
	pricePerPercent := fixedpoint.FromDecimal(params.PricePerPercent)
	if pricePerPercent.Sign() <= 0 {
		return nil, &InvalidParamError{Message: "price per percent must be positive"}
	}
	token, err := c.currencyToken(params.Currency)
	if err != nil {
		return nil, err
	}

	units := new(big.Int).Set(params.UnitsForSale)

	steps := []pipeline.Step{
		newStep(StepBuildOrder, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				asset, err := c.api.GetAsset(params.AssetID)
				if err != nil {
					return err
				}

				conv := FromPercentPrices(fixedpoint.Zero(), pricePerPercent, asset.TotalSupply, units)
				if conv.UnitsPerPercent.Sign() == 0 {
					return &InvalidParamError{Message: "asset supply is too small to price per unit"}
				}
				perUnitMinor := conv.PricePerUnitToken.MinorUnits(c.currencyDecimals(params.Currency))
				if perUnitMinor.Sign() <= 0 {
					return &InvalidParamError{Message: "price per unit rounds below one minor unit"}
				}

				expiration := "0"
				if params.Expiration > 0 {
					expiration = new(big.Int).SetInt64(params.Expiration).String()
				}

				maker := c.signer.SignerAddress()
				rc.Set(ctxAsset, asset)
				rc.Set(ctxCollection, common.HexToAddress(asset.Collection))
				rc.Set(ctxCurrencyToken, token)
				rc.Set(ctxOrderData, &chain.SaleOrderData{
					Maker:        maker.Hex(),
					Collection:   asset.Collection,
					TokenID:      asset.TokenID,
					UnitsForSale: units.String(),
					PricePerUnit: perUnitMinor.String(),
					Currency:     token.Hex(),
					Expiration:   expiration,
				})

				tmApproved, err := c.signer.IsTransferManagerApproved(ctx, maker)
				if err != nil {
					return err
				}
				collApproved, err := c.signer.IsCollectionApproved(ctx, common.HexToAddress(asset.Collection), maker)
				if err != nil {
					return err
				}
				rc.Set(ctxTMApproved, tmApproved)
				rc.Set(ctxCollApproved, collApproved)
				return nil
			},
		),
		newStep(StepApproveTransferMgr, pipeline.Required,
			func(rc *pipeline.Context) bool { return rc.Bool(ctxTMApproved) },
			func(ctx context.Context, rc *pipeline.Context) error {
				tx, err := c.signer.ApproveTransferManager(ctx)
				if err != nil {
					return err
				}
				_, err = c.signer.WaitMined(ctx, tx.Hash())
				return err
			},
		),
		newStep(StepApproveCollection, pipeline.Required,
			func(rc *pipeline.Context) bool { return rc.Bool(ctxCollApproved) },
			func(ctx context.Context, rc *pipeline.Context) error {
				collection, err := contextAddress(rc, ctxCollection)
				if err != nil {
					return err
				}
				tx, err := c.signer.ApproveCollection(ctx, collection)
				if err != nil {
					return err
				}
				_, err = c.signer.WaitMined(ctx, tx.Hash())
				return err
			},
		),
		newStep(StepSignOrder, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				v, ok := rc.Value(ctxOrderData)
				if !ok {
					return errMissingContext(ctxOrderData)
				}
				data, ok := v.(*chain.SaleOrderData)
				if !ok {
					return errMissingContext(ctxOrderData)
				}
				signed, err := c.signer.SignSaleOrder(data)
				if err != nil {
					return err
				}
				rc.Set(ctxSignedOrder, signed)
				return nil
			},
		),
		newStep(StepPublishOrder, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				signed, err := contextSignedOrder(rc)
				if err != nil {
					return err
				}
				listingID, err := c.api.RegisterOrder(signed)
				if err != nil {
					return err
				}
				rc.Set(ctxListingID, listingID)
				return nil
			},
		),
		c.feeStep(StepListingFee, func(rc *pipeline.Context) (common.Address, error) {
			return contextAddress(rc, ctxCurrencyToken)
		}),
	}

	return pipeline.NewRun(pipeline.Pipeline{Name: "listing", Steps: steps}, c.log), nil
}

// ListingResult returns the marketplace order id of a successful listing run.
func ListingResult(run *pipeline.Run) (string, bool) {
	id := run.Context().String(ctxListingID)
	return id, id != ""
}
