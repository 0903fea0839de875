package fractionmarket

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/fractionlabs/fraction-market-sdk-go/chain"
	"github.com/fractionlabs/fraction-market-sdk-go/fixedpoint"
)

// MarketAPI is the marketplace query and registration capability. All calls
// are fallible; the pipelines treat them as opaque external operations.
type MarketAPI interface {
	GetAsset(assetID string) (*Asset, error)
	RegisterOrder(signed *chain.SignedSaleOrder) (string, error)
	GetAttestation(attestationID string) (*Attestation, error)
	Upload(name string, data []byte) (string, error)
	Notify(event string, payload map[string]interface{}) error
}

// Signer is the externally-supplied signing and node capability. Every method
// that submits a transaction is irreversible once it lands on-chain.
type Signer interface {
	SignerAddress() common.Address
	ERC20BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error)
	ERC20Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	ApproveSpend(ctx context.Context, token common.Address, amount *big.Int) (*types.Transaction, error)
	TransferFee(ctx context.Context, token common.Address, amount *big.Int) (*types.Transaction, error)
	ExecuteOrder(ctx context.Context, orderHash [32]byte, units, maxPrice *big.Int) (*types.Transaction, error)
	IsTransferManagerApproved(ctx context.Context, owner common.Address) (bool, error)
	ApproveTransferManager(ctx context.Context) (*types.Transaction, error)
	IsCollectionApproved(ctx context.Context, collection, owner common.Address) (bool, error)
	ApproveCollection(ctx context.Context, collection common.Address) (*types.Transaction, error)
	SubmitAttestation(ctx context.Context, claimHash, priorID [32]byte) (*types.Transaction, error)
	Mint(ctx context.Context, to common.Address, totalSupply *big.Int, metadataURI string) (*types.Transaction, error)
	SignSaleOrder(data *chain.SaleOrderData) (*chain.SignedSaleOrder, error)
	SaleOrderHash(signed *chain.SignedSaleOrder) ([32]byte, error)
	WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Renderer generates the visual artifact attached to a mint. Rendering is an
// external concern; the SDK only moves its output to durable storage.
type Renderer interface {
	Render(ctx context.Context, name string, geodata []byte) ([]byte, error)
}

// Client is the main SDK client
type Client struct {
	api            MarketAPI
	signer         Signer
	renderer       Renderer
	chainID        ChainID
	currencyTokens map[Currency]common.Address
	exchangeAddr   common.Address
	platformFee *big.Int
	log            *zap.Logger

	caller *chain.Caller
}

// ClientConfig holds configuration for creating a Client
type ClientConfig struct {
	Host           string
	APIKey         string
	ChainID        ChainID
	RPCURL         string
	PrivateKey     string
	Contracts      ContractAddresses
	PlatformFee *big.Int
	Renderer       Renderer
	Logger         *zap.Logger
}

// NewClient creates a new fraction marketplace SDK client
func NewClient(config ClientConfig) (*Client, error) {
	if !IsSupportedChain(config.ChainID) {
		return nil, ErrUnsupportedChain
	}

	// Use default contract addresses if not provided
	contracts := DefaultContractAddresses[config.ChainID]
	if config.Contracts.Exchange != "" {
		contracts.Exchange = config.Contracts.Exchange
	}
	if config.Contracts.TransferManager != "" {
		contracts.TransferManager = config.Contracts.TransferManager
	}
	if config.Contracts.FeeCollector != "" {
		contracts.FeeCollector = config.Contracts.FeeCollector
	}
	if config.Contracts.Registry != "" {
		contracts.Registry = config.Contracts.Registry
	}
	if config.Contracts.Minter != "" {
		contracts.Minter = config.Contracts.Minter
	}

	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.PlatformFee == nil {
		config.PlatformFee = new(big.Int)
	}

	caller, err := chain.NewCaller(chain.Config{
		RPCURL:          config.RPCURL,
		PrivateKeyHex:   config.PrivateKey,
		ChainID:         int64(config.ChainID),
		Exchange:        contracts.Exchange,
		TransferManager: contracts.TransferManager,
		FeeCollector:    contracts.FeeCollector,
		Registry:        contracts.Registry,
		Minter:          contracts.Minter,
	})
	if err != nil {
		return nil, err
	}

	currencyTokens := make(map[Currency]common.Address)
	for currency, addr := range DefaultCurrencyTokens[config.ChainID] {
		currencyTokens[currency] = common.HexToAddress(addr)
	}

	return &Client{
		api:            NewAPIClient(config.Host, config.APIKey, config.ChainID),
		signer:         caller,
		renderer:       config.Renderer,
		chainID:        config.ChainID,
		currencyTokens: currencyTokens,
		exchangeAddr:   common.HexToAddress(contracts.Exchange),
		platformFee: new(big.Int).Set(config.PlatformFee),
		log:            config.Logger,
		caller:         caller,
	}, nil
}

// Close closes the client and cleans up resources
func (c *Client) Close() {
	if c.caller != nil {
		c.caller.Close()
	}
}

// currencyToken resolves a currency to its ERC20 contract on this chain.
func (c *Client) currencyToken(currency Currency) (common.Address, error) {
	addr, ok := c.currencyTokens[currency]
	if !ok {
		return common.Address{}, &InvalidParamError{Message: "unsupported currency: " + string(currency)}
	}
	return addr, nil
}

// currencyDecimals returns the ERC20 decimals of a settlement currency.
func (c *Client) currencyDecimals(currency Currency) int32 {
	if dec, ok := CurrencyDecimals[currency]; ok {
		return dec
	}
	return fixedpoint.MultiplierExp
}

// checkPrerequisites blocks entry into any pipeline when the wallet or chain
// is not usable. These are precondition errors, not step failures.
func (c *Client) checkPrerequisites() error {
	if c.signer == nil {
		return ErrWalletNotConnected
	}
	if !IsSupportedChain(c.chainID) {
		return ErrUnsupportedChain
	}
	return nil
}

// ValidatePurchaseAmount is the pre-start choke point for the purchase flow:
// it resolves the asset, selects the order, derives the buyer's balance in
// units and funnels everything through ValidatePurchase. It returns the
// selection so the caller can render the quote it validated.
func (c *Client) ValidatePurchaseAmount(ctx context.Context, assetID, orderID string, requestedUnits *big.Int) (*SelectedOrder, error) {
	if err := c.checkPrerequisites(); err != nil {
		return nil, err
	}

	asset, err := c.api.GetAsset(assetID)
	if err != nil {
		return nil, err
	}

	selected, err := SelectOrder(asset, orderID, requestedUnits, c.chainID)
	if err != nil {
		return nil, err
	}

	token, err := c.currencyToken(selected.Order.Currency)
	if err != nil {
		return nil, err
	}

	balanceMinor, err := c.signer.ERC20BalanceOf(ctx, token, c.signer.SignerAddress())
	if err != nil {
		return nil, err
	}

	balance := fixedpoint.FromMinorUnits(balanceMinor, c.currencyDecimals(selected.Order.Currency))
	balanceUnits := UnitsFromAmount(balance, asset.TotalSupply, selected.Order.PricePerPercentToken)
	if err := ValidatePurchase(requestedUnits, selected.Order.UnitsForSale, balanceUnits); err != nil {
		return nil, err
	}

	return selected, nil
}
