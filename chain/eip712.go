package chain

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EIP712 related errors
var (
	ErrInvalidOrderSalt    = errors.New("invalid order salt")
	ErrInvalidTokenID      = errors.New("invalid token ID")
	ErrInvalidUnitsForSale = errors.New("invalid units for sale")
	ErrInvalidUnitPrice    = errors.New("invalid unit price")
)

// EIP712 domain constants for the fraction exchange
const (
	EIP712DomainName    = "Fraction Exchange"
	EIP712DomainVersion = "1"
)

// Pre-computed type hashes using keccak256
var (
	// EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)
	EIP712DomainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)",
	))

	// SaleOrder(uint256 salt,address maker,address collection,uint256 tokenId,uint256 unitsForSale,uint256 pricePerUnit,address currency,uint256 expiration,uint256 nonce)
	SaleOrderTypeHash = crypto.Keccak256Hash([]byte(
		"SaleOrder(uint256 salt,address maker,address collection,uint256 tokenId,uint256 unitsForSale,uint256 pricePerUnit,address currency,uint256 expiration,uint256 nonce)",
	))
)

// EIP712Domain represents the EIP712 domain separator data
type EIP712Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// NewEIP712Domain creates a new EIP712Domain with the standard values
func NewEIP712Domain(chainID *big.Int, verifyingContract common.Address) *EIP712Domain {
	return &EIP712Domain{
		Name:              EIP712DomainName,
		Version:           EIP712DomainVersion,
		ChainID:           chainID,
		VerifyingContract: verifyingContract,
	}
}

// Hash computes the EIP712 domain separator hash
func (d *EIP712Domain) Hash() common.Hash {
	nameHash := crypto.Keccak256Hash([]byte(d.Name))
	versionHash := crypto.Keccak256Hash([]byte(d.Version))

	bytes32Type, _ := abi.NewType("bytes32", "", nil)
	uint256Type, _ := abi.NewType("uint256", "", nil)
	addressType, _ := abi.NewType("address", "", nil)

	arguments := abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: bytes32Type}, // nameHash
		{Type: bytes32Type}, // versionHash
		{Type: uint256Type}, // chainId
		{Type: addressType}, // verifyingContract
	}

	encoded, err := arguments.Pack(
		EIP712DomainTypeHash,
		nameHash,
		versionHash,
		d.ChainID,
		d.VerifyingContract,
	)
	if err != nil {
		panic("failed to encode domain separator: " + err.Error())
	}

	return crypto.Keccak256Hash(encoded)
}

// SaleOrderTypedData represents the sale order data for EIP712 hashing
type SaleOrderTypedData struct {
	Salt         *big.Int
	Maker        common.Address
	Collection   common.Address
	TokenID      *big.Int
	UnitsForSale *big.Int
	PricePerUnit *big.Int
	Currency     common.Address
	Expiration   *big.Int
	Nonce        *big.Int
}

// Hash computes the struct hash for the sale order
func (o *SaleOrderTypedData) Hash() common.Hash {
	bytes32Type, _ := abi.NewType("bytes32", "", nil)
	addressType, _ := abi.NewType("address", "", nil)
	uint256Type, _ := abi.NewType("uint256", "", nil)

	arguments := abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: uint256Type}, // salt
		{Type: addressType}, // maker
		{Type: addressType}, // collection
		{Type: uint256Type}, // tokenId
		{Type: uint256Type}, // unitsForSale
		{Type: uint256Type}, // pricePerUnit
		{Type: addressType}, // currency
		{Type: uint256Type}, // expiration
		{Type: uint256Type}, // nonce
	}

	encoded, err := arguments.Pack(
		SaleOrderTypeHash,
		o.Salt,
		o.Maker,
		o.Collection,
		o.TokenID,
		o.UnitsForSale,
		o.PricePerUnit,
		o.Currency,
		o.Expiration,
		o.Nonce,
	)
	if err != nil {
		panic("failed to encode sale order struct: " + err.Error())
	}

	return crypto.Keccak256Hash(encoded)
}

// CreateOrderSignHash creates the final EIP712 hash to be signed:
// keccak256("\x19\x01" ++ domainSeparator ++ structHash)
func CreateOrderSignHash(domain *EIP712Domain, order *SaleOrderTypedData) common.Hash {
	domainSeparator := domain.Hash()
	structHash := order.Hash()

	prefix := []byte{0x19, 0x01}

	data := make([]byte, 0, 2+32+32)
	data = append(data, prefix...)
	data = append(data, domainSeparator.Bytes()...)
	data = append(data, structHash.Bytes()...)

	return crypto.Keccak256Hash(data)
}

// OrderToTypedData converts a SaleOrder to SaleOrderTypedData for EIP712 hashing
func OrderToTypedData(order *SaleOrder) (*SaleOrderTypedData, error) {
	salt, ok := new(big.Int).SetString(order.Salt, 10)
	if !ok {
		return nil, ErrInvalidOrderSalt
	}

	tokenID, ok := new(big.Int).SetString(order.TokenID, 10)
	if !ok {
		return nil, ErrInvalidTokenID
	}

	unitsForSale, ok := new(big.Int).SetString(order.UnitsForSale, 10)
	if !ok {
		return nil, ErrInvalidUnitsForSale
	}

	pricePerUnit, ok := new(big.Int).SetString(order.PricePerUnit, 10)
	if !ok {
		return nil, ErrInvalidUnitPrice
	}

	expiration, ok := new(big.Int).SetString(order.Expiration, 10)
	if !ok {
		expiration = big.NewInt(0)
	}

	nonce, ok := new(big.Int).SetString(order.Nonce, 10)
	if !ok {
		nonce = big.NewInt(0)
	}

	return &SaleOrderTypedData{
		Salt:         salt,
		Maker:        common.HexToAddress(order.Maker),
		Collection:   common.HexToAddress(order.Collection),
		TokenID:      tokenID,
		UnitsForSale: unitsForSale,
		PricePerUnit: pricePerUnit,
		Currency:     common.HexToAddress(order.Currency),
		Expiration:   expiration,
		Nonce:        nonce,
	}, nil
}
