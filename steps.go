package fractionmarket

// StepInfo is the display metadata for one pipeline step. FailureTitle and
// FailureDescription describe what going wrong at this particular step means;
// the same technical error reads differently at an approval step than at the
// final signature.
type StepInfo struct {
	Key                string
	Title              string
	Description        string
	FailureTitle       string
	FailureDescription string
}

// Step keys for the purchase pipeline.
const (
	StepResolveOrders = "purchase.resolve_orders"
	StepValidateOrder = "purchase.validate_order"
	StepApproveSpend  = "purchase.approve_spend"
	StepWaitApproval  = "purchase.wait_approval"
	StepExecuteTrade  = "purchase.execute_trade"
	StepWaitTrade     = "purchase.wait_trade"
	StepPurchaseFee   = "purchase.platform_fee"
)

// Step keys for the listing pipeline.
const (
	StepBuildOrder         = "listing.build_order"
	StepApproveTransferMgr = "listing.approve_transfer_manager"
	StepApproveCollection  = "listing.approve_collection"
	StepSignOrder          = "listing.sign_order"
	StepPublishOrder       = "listing.publish_order"
	StepListingFee         = "listing.platform_fee"
)

// Step keys for the attestation pipeline.
const (
	StepCheckPrereqs = "attestation.check_prerequisites"
	StepFetchPrior   = "attestation.fetch_prior"
	StepSubmitAttest = "attestation.submit"
	StepWaitAttest   = "attestation.wait_confirmation"
)

// Step keys for the mint pipeline.
const (
	StepGenerateArtwork = "mint.generate_artwork"
	StepParseGeodata    = "mint.parse_geodata"
	StepUploadGeodata   = "mint.upload_geodata"
	StepBuildMetadata   = "mint.build_metadata"
	StepSubmitMint      = "mint.submit"
	StepWaitMint        = "mint.wait_confirmation"
	StepMintFee         = "mint.platform_fee"
)

// StepRegistry maps every step key to its display metadata. Consumed by the
// pipeline definitions and exposed so a progress list can render titles
// without duplicating them.
var StepRegistry = map[string]StepInfo{
	StepResolveOrders: {
		Key:                StepResolveOrders,
		Title:              "Fetching open orders",
		Description:        "Loading the asset's current sell orders.",
		FailureTitle:       "Could not load orders",
		FailureDescription: "The marketplace did not return the asset's open orders. Check your connection and retry.",
	},
	StepValidateOrder: {
		Key:                StepValidateOrder,
		Title:              "Checking availability",
		Description:        "Confirming the selected order still covers your requested amount.",
		FailureTitle:       "Order no longer available",
		FailureDescription: "The selected sell order was filled or cancelled. Go back and choose a new amount.",
	},
	StepApproveSpend: {
		Key:                StepApproveSpend,
		Title:              "Approving payment",
		Description:        "Granting the exchange a spending allowance for the purchase total.",
		FailureTitle:       "Approval not granted",
		FailureDescription: "The spend approval was rejected or failed on-chain. Retry to sign the approval again.",
	},
	StepWaitApproval: {
		Key:                StepWaitApproval,
		Title:              "Waiting for approval",
		Description:        "Waiting for the spend approval to be confirmed on-chain.",
		FailureTitle:       "Approval not confirmed",
		FailureDescription: "The approval transaction was not confirmed. Retry to keep waiting for it.",
	},
	StepExecuteTrade: {
		Key:                StepExecuteTrade,
		Title:              "Executing trade",
		Description:        "Submitting the purchase to the exchange contract.",
		FailureTitle:       "Trade not executed",
		FailureDescription: "The trade transaction was rejected or reverted. Your approval is still in place; retry the trade.",
	},
	StepWaitTrade: {
		Key:                StepWaitTrade,
		Title:              "Waiting for confirmation",
		Description:        "Waiting for the trade to be confirmed on-chain.",
		FailureTitle:       "Trade not confirmed",
		FailureDescription: "The trade transaction was not confirmed. Retry to keep waiting for it.",
	},
	StepPurchaseFee: {
		Key:         StepPurchaseFee,
		Title:       "Supporting the platform",
		Description: "Sending an optional platform fee.",
	},

	StepBuildOrder: {
		Key:                StepBuildOrder,
		Title:              "Preparing listing",
		Description:        "Building the sale order from your chosen price and currency.",
		FailureTitle:       "Could not prepare listing",
		FailureDescription: "The sale order could not be prepared. Check the price and retry.",
	},
	StepApproveTransferMgr: {
		Key:                StepApproveTransferMgr,
		Title:              "Approving transfer manager",
		Description:        "Authorizing the marketplace transfer manager for your wallet.",
		FailureTitle:       "Transfer manager not approved",
		FailureDescription: "The transfer manager approval was rejected or failed. Retry to sign it again.",
	},
	StepApproveCollection: {
		Key:                StepApproveCollection,
		Title:              "Approving collection",
		Description:        "Authorizing transfers for this asset's collection.",
		FailureTitle:       "Collection not approved",
		FailureDescription: "The collection approval was rejected or failed. Retry to sign it again.",
	},
	StepSignOrder: {
		Key:                StepSignOrder,
		Title:              "Signing order",
		Description:        "Signing the sale order with your wallet. This is free of gas.",
		FailureTitle:       "Order not signed",
		FailureDescription: "The order signature was rejected. Retry to sign the order again.",
	},
	StepPublishOrder: {
		Key:                StepPublishOrder,
		Title:              "Publishing listing",
		Description:        "Registering the signed order with the marketplace.",
		FailureTitle:       "Listing not published",
		FailureDescription: "The signed order could not be registered. Retry to publish it again.",
	},
	StepListingFee: {
		Key:         StepListingFee,
		Title:       "Supporting the platform",
		Description: "Sending an optional platform fee.",
	},

	StepCheckPrereqs: {
		Key:                StepCheckPrereqs,
		Title:              "Checking wallet",
		Description:        "Verifying the connected wallet and chain.",
		FailureTitle:       "Wallet check failed",
		FailureDescription: "Connect a wallet on a supported chain, then retry.",
	},
	StepFetchPrior: {
		Key:                StepFetchPrior,
		Title:              "Looking up prior attestation",
		Description:        "Fetching the referenced attestation, if any.",
		FailureTitle:       "Lookup failed",
		FailureDescription: "The prior attestation could not be fetched. Retry the lookup.",
	},
	StepSubmitAttest: {
		Key:                StepSubmitAttest,
		Title:              "Submitting attestation",
		Description:        "Sending the attestation transaction.",
		FailureTitle:       "Attestation not submitted",
		FailureDescription: "The attestation transaction was rejected or failed. Retry to submit it again.",
	},
	StepWaitAttest: {
		Key:                StepWaitAttest,
		Title:              "Waiting for confirmation",
		Description:        "Waiting for the attestation to be confirmed on-chain.",
		FailureTitle:       "Attestation not confirmed",
		FailureDescription: "The attestation transaction was not confirmed. Retry to keep waiting for it.",
	},

	StepGenerateArtwork: {
		Key:                StepGenerateArtwork,
		Title:              "Generating artwork",
		Description:        "Rendering the asset's visual artifact.",
		FailureTitle:       "Artwork not generated",
		FailureDescription: "The artwork could not be rendered. Retry the generation.",
	},
	StepParseGeodata: {
		Key:                StepParseGeodata,
		Title:              "Validating geodata",
		Description:        "Parsing and validating the attached geodata.",
		FailureTitle:       "Invalid geodata",
		FailureDescription: "The geodata could not be validated. Go back and correct the file.",
	},
	StepUploadGeodata: {
		Key:                StepUploadGeodata,
		Title:              "Uploading geodata",
		Description:        "Storing the geodata durably.",
		FailureTitle:       "Upload failed",
		FailureDescription: "The geodata upload did not complete. Retry the upload.",
	},
	StepBuildMetadata: {
		Key:                StepBuildMetadata,
		Title:              "Assembling metadata",
		Description:        "Building and validating the token metadata.",
		FailureTitle:       "Metadata invalid",
		FailureDescription: "The metadata could not be assembled. Retry after the earlier uploads complete.",
	},
	StepSubmitMint: {
		Key:                StepSubmitMint,
		Title:              "Minting",
		Description:        "Sending the mint transaction.",
		FailureTitle:       "Mint not submitted",
		FailureDescription: "The mint transaction was rejected or failed. Retry to submit it again.",
	},
	StepWaitMint: {
		Key:                StepWaitMint,
		Title:              "Waiting for confirmation",
		Description:        "Waiting for the mint to be confirmed on-chain.",
		FailureTitle:       "Mint not confirmed",
		FailureDescription: "The mint transaction was not confirmed. Retry to keep waiting for it.",
	},
	StepMintFee: {
		Key:         StepMintFee,
		Title:       "Supporting the platform",
		Description: "Sending an optional platform fee.",
	},
}

// StepInfoFor returns the display metadata for a step key. Unknown keys get
// an empty StepInfo carrying the key so a progress list never renders blank.
func StepInfoFor(key string) StepInfo {
	if info, ok := StepRegistry[key]; ok {
		return info
	}
	return StepInfo{Key: key, Title: key}
}
