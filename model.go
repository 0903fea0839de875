package fractionmarket

import (
	"math/big"

	"github.com/fractionlabs/fraction-market-sdk-go/fixedpoint"
)

// Currency identifies the settlement token a sell order is quoted in.
type Currency string

const (
	CurrencyUSDC Currency = "USDC"
	CurrencyWETH Currency = "WETH"
)

// Asset is a fractionalizable on-chain asset. TotalSupply is fixed at mint
// and is the denominator for every percent/unit conversion on this asset.
type Asset struct {
	ID          string
	TokenID     string
	Collection  string
	TotalSupply *big.Int
	Orders      []SellOrder
}

// SellOrder is an open offer to sell part of an asset, quoted per percent of
// total supply. An invalidated order must never be selectable.
type SellOrder struct {
	ID                   string
	AssetID              string
	Seller               string
	PricePerPercentUSD   fixedpoint.ScaledValue
	PricePerPercentToken fixedpoint.ScaledValue
	UnitsForSale         *big.Int
	Currency             Currency
	ChainScope           ChainID
	Invalidated          bool
}

// TransactionResult represents the result of a blockchain transaction
type TransactionResult struct {
	TxHash string
}

// Attestation is an on-chain claim about an asset, optionally chained to a
// prior attestation for deduplication and linking.
type Attestation struct {
	ID        string
	AssetID   string
	Attester  string
	ClaimHash string
	PriorID   string
	TxHash    string
}

// GeoPoint is one coordinate of the auxiliary geodata attached at mint time.
type GeoPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// MintMetadata is the metadata document assembled by the mint pipeline and
// uploaded alongside the artwork.
type MintMetadata struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ImageURI    string     `json:"image"`
	GeodataURI  string     `json:"geodata"`
	TotalSupply string     `json:"total_supply"`
	Coordinates []GeoPoint `json:"coordinates,omitempty"`
}
