package chain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// SaleOrderData represents the inputs for building a sale order. All numeric
// fields are decimal strings of on-chain minor units.
type SaleOrderData struct {
	Maker        string
	Collection   string
	TokenID      string
	UnitsForSale string
	PricePerUnit string
	Currency     string
	Expiration   string
	Nonce        string
}

// SaleOrder is the canonical order structure the exchange verifies.
type SaleOrder struct {
	Salt         string
	Maker        string
	Collection   string
	TokenID      string
	UnitsForSale string
	PricePerUnit string
	Currency     string
	Expiration   string
	Nonce        string
}

// SignedSaleOrder represents a sale order with its signature
type SignedSaleOrder struct {
	Order     *SaleOrder
	Signature string
}

// Hash returns the EIP712 sign hash of the order for the given domain; the
// exchange addresses orders by this hash.
func (s *SignedSaleOrder) Hash(chainID *big.Int, exchangeAddr common.Address) ([32]byte, error) {
	typed, err := OrderToTypedData(s.Order)
	if err != nil {
		return [32]byte{}, err
	}
	domain := NewEIP712Domain(chainID, exchangeAddr)
	return CreateOrderSignHash(domain, typed), nil
}

// OrderBuilder builds and signs sale orders
type OrderBuilder struct {
	exchangeAddr common.Address
	chainID      *big.Int
	signer       *ecdsa.PrivateKey
}

// NewOrderBuilder creates a new OrderBuilder
func NewOrderBuilder(exchangeAddr string, chainID int64, signer *ecdsa.PrivateKey) *OrderBuilder {
	return &OrderBuilder{
		exchangeAddr: common.HexToAddress(exchangeAddr),
		chainID:      big.NewInt(chainID),
		signer:       signer,
	}
}

// BuildOrder builds a sale order from SaleOrderData
func (ob *OrderBuilder) BuildOrder(data *SaleOrderData) (*SaleOrder, error) {
	if err := ob.validateInputs(data); err != nil {
		return nil, err
	}

	if data.Expiration == "" {
		data.Expiration = "0"
	}
	if data.Nonce == "" {
		data.Nonce = "0"
	}

	return &SaleOrder{
		Salt:         generateSalt(),
		Maker:        normalizeAddress(data.Maker),
		Collection:   normalizeAddress(data.Collection),
		TokenID:      data.TokenID,
		UnitsForSale: data.UnitsForSale,
		PricePerUnit: data.PricePerUnit,
		Currency:     normalizeAddress(data.Currency),
		Expiration:   data.Expiration,
		Nonce:        data.Nonce,
	}, nil
}

// BuildSignedOrder builds and signs a sale order
func (ob *OrderBuilder) BuildSignedOrder(data *SaleOrderData) (*SignedSaleOrder, error) {
	order, err := ob.BuildOrder(data)
	if err != nil {
		return nil, err
	}

	signature, err := ob.SignOrder(order)
	if err != nil {
		return nil, err
	}

	return &SignedSaleOrder{
		Order:     order,
		Signature: signature,
	}, nil
}

// SignOrder signs a sale order using EIP712 typed data
func (ob *OrderBuilder) SignOrder(order *SaleOrder) (string, error) {
	typed, err := OrderToTypedData(order)
	if err != nil {
		return "", err
	}

	domain := NewEIP712Domain(ob.chainID, ob.exchangeAddr)
	hash := CreateOrderSignHash(domain, typed)

	signature, err := crypto.Sign(hash.Bytes(), ob.signer)
	if err != nil {
		return "", fmt.Errorf("failed to sign order: %w", err)
	}

	// Add recovery ID
	signature[64] += 27

	return fmt.Sprintf("0x%x", signature), nil
}

func (ob *OrderBuilder) validateInputs(data *SaleOrderData) error {
	if data.Maker == "" {
		return fmt.Errorf("maker is required")
	}
	if data.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	if data.TokenID == "" {
		return fmt.Errorf("tokenId is required")
	}
	if data.UnitsForSale == "" {
		return fmt.Errorf("unitsForSale is required")
	}
	if data.PricePerUnit == "" {
		return fmt.Errorf("pricePerUnit is required")
	}
	if data.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	return nil
}

func generateSalt() string {
	// The salt only needs uniqueness; a UUID's 128 bits are plenty.
	id := uuid.New()
	return new(big.Int).SetBytes(id[:]).String()
}

func normalizeAddress(addr string) string {
	return common.HexToAddress(addr).Hex()
}
