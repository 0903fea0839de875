package fractionmarket

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fractionlabs/fraction-market-sdk-go/pipeline"
)

// AttestationParams describes one attestation run. PriorAttestationID links
// the new attestation to an earlier one; leave it empty for a first
// attestation.
type AttestationParams struct {
	AssetID            string
	ClaimHash          string
	PriorAttestationID string
}

// NewAttestationRun builds the attestation pipeline. The wallet check runs
// both here and as the first step: failing it here refuses to hand out a run
// at all, while the step keeps a retried run honest after a wallet change.
func (c *Client) NewAttestationRun(params AttestationParams) (*pipeline.Run, error) {
	if err := c.checkPrerequisites(); err != nil {
		return nil, err
	}
	if params.AssetID == "" {
		return nil, &InvalidParamError{Message: "asset id is required"}
	}
	claimHash := common.HexToHash(params.ClaimHash)
	if claimHash == (common.Hash{}) {
		return nil, &InvalidParamError{Message: "claim hash is required"}
	}

	steps := []pipeline.Step{
		newStep(StepCheckPrereqs, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				return c.checkPrerequisites()
			},
		),
		newStep(StepFetchPrior, pipeline.Required,
			func(rc *pipeline.Context) bool { return params.PriorAttestationID == "" },
			func(ctx context.Context, rc *pipeline.Context) error {
				prior, err := c.api.GetAttestation(params.PriorAttestationID)
				if err != nil {
					return err
				}
				// A vanished prior is not fatal; the attestation simply
				// stands alone.
				if prior != nil {
					rc.Set(ctxPriorID, common.HexToHash(prior.ID))
				}
				return nil
			},
		),
		newStep(StepSubmitAttest, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				var priorID common.Hash
				if v, ok := rc.Value(ctxPriorID); ok {
					priorID, _ = v.(common.Hash)
				}
				tx, err := c.signer.SubmitAttestation(ctx, claimHash, priorID)
				if err != nil {
					return err
				}
				rc.Set(ctxAttestTx, tx.Hash())
				return nil
			},
		),
		newStep(StepWaitAttest, pipeline.Required, nil,
			func(ctx context.Context, rc *pipeline.Context) error {
				hash, err := contextHash(rc, ctxAttestTx)
				if err != nil {
					return err
				}
				_, err = c.signer.WaitMined(ctx, hash)
				return err
			},
		),
	}

	return pipeline.NewRun(pipeline.Pipeline{Name: "attestation", Steps: steps}, c.log), nil
}

// AttestationResult returns the confirmed attestation transaction of a
// successful run.
func AttestationResult(run *pipeline.Run) (*TransactionResult, bool) {
	return TxHashResult(run, ctxAttestTx)
}
