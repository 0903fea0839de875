package fractionmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/fractionlabs/fraction-market-sdk-go/pipeline"
)

// MintParams describes one mint run. Geodata is the raw coordinate document
// supplied by the caller; it is validated, stored and referenced from the
// token metadata.
type MintParams struct {
	Name        string
	Description string
	TotalSupply *big.Int
	Geodata     []byte
}

// ParseGeodata decodes and validates a geodata document: a non-empty JSON
// array of {lat, lng} points within coordinate bounds.
func ParseGeodata(raw []byte) ([]GeoPoint, error) {
	var points []GeoPoint
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, &InvalidParamError{Message: fmt.Sprintf("geodata is not a coordinate array: %v", err)}
	}
	if len(points) == 0 {
		return nil, &InvalidParamError{Message: "geodata must contain at least one coordinate"}
	}
	for i, p := range points {
		if p.Latitude < -90 || p.Latitude > 90 {
			return nil, &InvalidParamError{Message: fmt.Sprintf("geodata point %d: latitude %v out of range", i, p.Latitude)}
		}
		if p.Longitude < -180 || p.Longitude > 180 {
			return nil, &InvalidParamError{Message: fmt.Sprintf("geodata point %d: longitude %v out of range", i, p.Longitude)}
		}
	}
	return points, nil
}

// NewMintRun builds the mint pipeline. A renderer must be configured; the
// artwork is generated first so a rendering failure costs no gas and no
// storage.
func (c *Client) NewMintRun(params MintParams) (*pipeline.Run, error) {
	if err := c.checkPrerequisites(); err != nil {
		return nil, err
	}
	if c.renderer == nil {
		return nil, &InvalidParamError{Message: "a renderer is required to mint"}
	}
	if params.Name == "" {
		return nil, &InvalidParamError{Message: "name is required"}
	}
	if params.TotalSupply == nil || params.TotalSupply.Sign() <= 0 {
		return nil, &InvalidParamError{Message: "total supply must be positive"}
	}
	if len(params.Geodata) == 0 {
		return nil, &InvalidParamError{Message: "geodata is required"}
	}

	totalSupply := new(big.Int).Set(params.TotalSupply)

	steps := []pipeline.Step{
		newStep(StepGenerateArtwork, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				artwork, err := c.renderer.Render(ctx, params.Name, params.Geodata)
				if err != nil {
					return err
				}
				if len(artwork) == 0 {
					return &InvalidParamError{Message: "renderer produced no artwork"}
				}
				rc.Set(ctxArtwork, artwork)
				return nil
			},
		),
		newStep(StepParseGeodata, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				points, err := ParseGeodata(params.Geodata)
				if err != nil {
					return err
				}
				rc.Set(ctxGeoPoints, points)
				return nil
			},
		),
		newStep(StepUploadGeodata, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				geodataURI, err := c.api.Upload(params.Name+"-geodata.json", params.Geodata)
				if err != nil {
					return err
				}
				rc.Set(ctxGeodataURI, geodataURI)

				v, ok := rc.Value(ctxArtwork)
				if !ok {
					return errMissingContext(ctxArtwork)
				}
				artwork, _ := v.([]byte)
				imageURI, err := c.api.Upload(params.Name+"-artwork.png", artwork)
				if err != nil {
					return err
				}
				rc.Set(ctxImageURI, imageURI)
				return nil
			},
		),
		newStep(StepBuildMetadata, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				v, ok := rc.Value(ctxGeoPoints)
				if !ok {
					return errMissingContext(ctxGeoPoints)
				}
				points, _ := v.([]GeoPoint)

				meta := MintMetadata{
					Name:        params.Name,
					Description: params.Description,
					ImageURI:    rc.String(ctxImageURI),
					GeodataURI:  rc.String(ctxGeodataURI),
					TotalSupply: totalSupply.String(),
					Coordinates: points,
				}
				if meta.ImageURI == "" || meta.GeodataURI == "" {
					return errMissingContext(ctxImageURI)
				}

				doc, err := json.Marshal(meta)
				if err != nil {
					return err
				}
				metadataURI, err := c.api.Upload(params.Name+"-metadata.json", doc)
				if err != nil {
					return err
				}
				rc.Set(ctxMetadataURI, metadataURI)
				return nil
			},
		),
		newStep(StepSubmitMint, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				metadataURI := rc.String(ctxMetadataURI)
				if metadataURI == "" {
					return errMissingContext(ctxMetadataURI)
				}
				tx, err := c.signer.Mint(ctx, c.signer.SignerAddress(), totalSupply, metadataURI)
				if err != nil {
					return err
				}
				rc.Set(ctxMintTx, tx.Hash())
				return nil
			},
		),
		newStep(StepWaitMint, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				hash, err := contextHash(rc, ctxMintTx)
				if err != nil {
					return err
				}
				if _, err := c.signer.WaitMined(ctx, hash); err != nil {
					return err
				}
				c.notifyMinted(params.Name, hash)
				return nil
			},
		),
		c.feeStep(StepMintFee, func(rc *pipeline.Context) (common.Address, error) {
			return c.currencyToken(CurrencyUSDC)
		}),
	}

	return pipeline.NewRun(pipeline.Pipeline{Name: "mint", Steps: steps}, c.log), nil
}

// notifyMinted records the mint with the marketplace, fire and forget. The
// mint already succeeded on-chain; a lost notification must not surface as a
// run failure.
func (c *Client) notifyMinted(name string, txHash common.Hash) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.log.Warn("mint notification panicked", zap.Any("panic", r))
			}
		}()
		if err := c.api.Notify("asset_minted", map[string]interface{}{
			"name":    name,
			"tx_hash": txHash.Hex(),
		}); err != nil {
			c.log.Warn("mint notification failed", zap.Error(err))
		}
	}()
}

// MintResult returns the confirmed mint transaction of a successful run.
func MintResult(run *pipeline.Run) (*TransactionResult, bool) {
	return TxHashResult(run, ctxMintTx)
}
