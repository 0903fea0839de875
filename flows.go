package fractionmarket

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fractionlabs/fraction-market-sdk-go/chain"
	"github.com/fractionlabs/fraction-market-sdk-go/pipeline"
)

// Run-context keys shared by the pipeline instances.
const (
	ctxAsset         = "asset"
	ctxOrder         = "order"
	ctxOrderHash     = "order_hash"
	ctxTotalPrice    = "total_price"
	ctxCurrencyToken = "currency_token"
	ctxCollection    = "collection"
	ctxApproveTx     = "approve_tx"
	ctxTradeTx       = "trade_tx"
	ctxOrderData     = "order_data"
	ctxSignedOrder   = "signed_order"
	ctxListingID     = "listing_id"
	ctxTMApproved    = "transfer_manager_approved"
	ctxCollApproved  = "collection_approved"
	ctxPriorID       = "prior_attestation_id"
	ctxAttestTx      = "attest_tx"
	ctxArtwork       = "artwork"
	ctxGeoPoints     = "geo_points"
	ctxGeodataURI    = "geodata_uri"
	ctxImageURI      = "image_uri"
	ctxMetadataURI   = "metadata_uri"
	ctxMintTx        = "mint_tx"
)

// newStep assembles a pipeline step from the registry's display metadata.
func newStep(key string, mode pipeline.Mode, skip func(*pipeline.Context) bool, run func(ctx context.Context, rc *pipeline.Context) error) pipeline.Step {
	info := StepInfoFor(key)
	return pipeline.Step{
		Key:                key,
		Mode:               mode,
		FailureTitle:       info.FailureTitle,
		FailureDescription: info.FailureDescription,
		Skip:               skip,
		Run:                run,
	}
}

func errMissingContext(key string) error {
	return fmt.Errorf("run context missing %s", key)
}

func contextAsset(rc *pipeline.Context) (*Asset, error) {
	v, ok := rc.Value(ctxAsset)
	if !ok {
		return nil, fmt.Errorf("run context missing asset")
	}
	asset, ok := v.(*Asset)
	if !ok {
		return nil, fmt.Errorf("run context asset has wrong type %T", v)
	}
	return asset, nil
}

func contextOrder(rc *pipeline.Context) (*SellOrder, error) {
	v, ok := rc.Value(ctxOrder)
	if !ok {
		return nil, fmt.Errorf("run context missing order")
	}
	order, ok := v.(*SellOrder)
	if !ok {
		return nil, fmt.Errorf("run context order has wrong type %T", v)
	}
	return order, nil
}

func contextHash(rc *pipeline.Context, key string) (common.Hash, error) {
	v, ok := rc.Value(key)
	if !ok {
		return common.Hash{}, fmt.Errorf("run context missing %s", key)
	}
	hash, ok := v.(common.Hash)
	if !ok {
		return common.Hash{}, fmt.Errorf("run context %s has wrong type %T", key, v)
	}
	return hash, nil
}

func contextAddress(rc *pipeline.Context, key string) (common.Address, error) {
	v, ok := rc.Value(key)
	if !ok {
		return common.Address{}, fmt.Errorf("run context missing %s", key)
	}
	addr, ok := v.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("run context %s has wrong type %T", key, v)
	}
	return addr, nil
}

func contextSignedOrder(rc *pipeline.Context) (*chain.SignedSaleOrder, error) {
	v, ok := rc.Value(ctxSignedOrder)
	if !ok {
		return nil, fmt.Errorf("run context missing signed order")
	}
	signed, ok := v.(*chain.SignedSaleOrder)
	if !ok {
		return nil, fmt.Errorf("run context signed order has wrong type %T", v)
	}
	return signed, nil
}

// TxHashResult extracts the transaction hash a finished run stored under the
// given context key, for rendering a confirmation view.
func TxHashResult(run *pipeline.Run, key string) (*TransactionResult, bool) {
	v, ok := run.Context().Value(key)
	if !ok {
		return nil, false
	}
	hash, ok := v.(common.Hash)
	if !ok {
		return nil, false
	}
	return &TransactionResult{TxHash: hash.Hex()}, true
}

// feeStep builds the best-effort platform-fee step shared by the purchase,
// listing and mint pipelines. The fee must never fail an otherwise-successful
// run; the pipeline loop enforces that via the BestEffort mode.
func (c *Client) feeStep(key string, token func(rc *pipeline.Context) (common.Address, error)) pipeline.Step {
	return newStep(key, pipeline.BestEffort,
		func(rc *pipeline.Context) bool { return c.platformFee.Sign() == 0 },
		func(ctx context.Context, rc *pipeline.Context) error {
			addr, err := token(rc)
			if err != nil {
				return err
			}
			tx, err := c.signer.TransferFee(ctx, addr, new(big.Int).Set(c.platformFee))
			if err != nil {
				return err
			}
			_, err = c.signer.WaitMined(ctx, tx.Hash())
			return err
		},
	)
}
