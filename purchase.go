package fractionmarket

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fractionlabs/fraction-market-sdk-go/fixedpoint"
	"github.com/fractionlabs/fraction-market-sdk-go/pipeline"
)

// PurchaseParams describes one purchase run. OrderID is optional; when empty
// the cheapest open order covering RequestedUnits is selected.
type PurchaseParams struct {
	AssetID        string
	OrderID        string
	RequestedUnits *big.Int
}

// NewPurchaseRun builds the purchase pipeline for the given request. The run
// is returned idle; the caller drives it with Start, Retry and Cancel.
//
// The availability and balance checks execute again inside the run even when
// the caller already went through ValidatePurchaseAmount, because orders move
// between the quote and the click.
func (c *Client) NewPurchaseRun(params PurchaseParams) (*pipeline.Run, error) {
	if err := c.checkPrerequisites(); err != nil {
		return nil, err
	}
	if params.AssetID == "" {
		return nil, &InvalidParamError{Message: "asset id is required"}
	}
	if params.RequestedUnits == nil || params.RequestedUnits.Sign() <= 0 {
		return nil, &PurchaseRejectedError{Reason: RejectNonPositiveUnits}
	}

	requested := new(big.Int).Set(params.RequestedUnits)

	steps := []pipeline.Step{
		newStep(StepResolveOrders, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				asset, err := c.api.GetAsset(params.AssetID)
				if err != nil {
					return err
				}
				rc.Set(ctxAsset, asset)
				return nil
			},
		),
		newStep(StepValidateOrder, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				asset, err := contextAsset(rc)
				if err != nil {
					return err
				}
				selected, err := SelectOrder(asset, params.OrderID, requested, c.chainID)
				if err != nil {
					return err
				}
				orderHash, err := orderHashFromID(selected.Order.ID)
				if err != nil {
					return err
				}
				token, err := c.currencyToken(selected.Order.Currency)
				if err != nil {
					return err
				}
				decimals := c.currencyDecimals(selected.Order.Currency)
				balanceMinor, err := c.signer.ERC20BalanceOf(ctx, token, c.signer.SignerAddress())
				if err != nil {
					return err
				}
				balance := fixedpoint.FromMinorUnits(balanceMinor, decimals)
				balanceUnits := UnitsFromAmount(balance, asset.TotalSupply, selected.Order.PricePerPercentToken)
				if err := ValidatePurchase(requested, selected.Order.UnitsForSale, balanceUnits); err != nil {
					return err
				}

				conv := FromOrder(asset, selected.Order)
				perUnitMinor := conv.PricePerUnitToken.MinorUnits(decimals)
				if perUnitMinor.Sign() <= 0 {
					return &MarketAPIError{Message: "order " + selected.Order.ID + " prices below one minor unit"}
				}
				totalPrice := new(big.Int).Mul(perUnitMinor, requested)

				rc.Set(ctxOrder, selected.Order)
				rc.Set(ctxOrderHash, orderHash)
				rc.Set(ctxCurrencyToken, token)
				rc.Set(ctxTotalPrice, totalPrice)
				return nil
			},
		),
		newStep(StepApproveSpend, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				token, err := contextAddress(rc, ctxCurrencyToken)
				if err != nil {
					return err
				}
				total := rc.BigInt(ctxTotalPrice)
				if total == nil {
					return errMissingContext(ctxTotalPrice)
				}
				allowance, err := c.signer.ERC20Allowance(ctx, token, c.signer.SignerAddress(), c.exchangeAddr)
				if err != nil {
					return err
				}
				if allowance.Cmp(total) >= 0 {
					return nil
				}
				tx, err := c.signer.ApproveSpend(ctx, token, total)
				if err != nil {
					return err
				}
				rc.Set(ctxApproveTx, tx.Hash())
				return nil
			},
		),
		newStep(StepWaitApproval, pipeline.Required,
			// The allowance may already have covered the total, in which case
			// no approval transaction was sent.
			func(rc *pipeline.Context) bool {
				_, ok := rc.Value(ctxApproveTx)
				return !ok
			},
			func(ctx context.Context, rc *pipeline.Context) error {
				hash, err := contextHash(rc, ctxApproveTx)
				if err != nil {
					return err
				}
				_, err = c.signer.WaitMined(ctx, hash)
				return err
			},
		),
		newStep(StepExecuteTrade, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				orderHash, err := contextHash(rc, ctxOrderHash)
				if err != nil {
					return err
				}
				total := rc.BigInt(ctxTotalPrice)
				if total == nil {
					return errMissingContext(ctxTotalPrice)
				}
				tx, err := c.signer.ExecuteOrder(ctx, orderHash, requested, total)
				if err != nil {
					return err
				}
				rc.Set(ctxTradeTx, tx.Hash())
				return nil
			},
		),
		newStep(StepWaitTrade, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				hash, err := contextHash(rc, ctxTradeTx)
				if err != nil {
					return err
				}
				_, err = c.signer.WaitMined(ctx, hash)
				return err
			},
		),
		c.feeStep(StepPurchaseFee, func(rc *pipeline.Context) (common.Address, error) {
			return contextAddress(rc, ctxCurrencyToken)
		}),
	}

	return pipeline.NewRun(pipeline.Pipeline{Name: "purchase", Steps: steps}, c.log), nil
}

// PurchaseResult returns the confirmed trade transaction of a successful
// purchase run.
func PurchaseResult(run *pipeline.Run) (*TransactionResult, bool) {
	return TxHashResult(run, ctxTradeTx)
}
