package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ERC20 ABI JSON for allowance, approve, transfer and balance functions
const erc20ABIJSON = `[
	{
		"constant": true,
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "spender", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "to", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "transfer",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [{"name": "owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	}
]`

// Exchange ABI JSON for order execution
const exchangeABIJSON = `[
	{
		"constant": false,
		"inputs": [
			{"name": "orderHash", "type": "bytes32"},
			{"name": "units", "type": "uint256"},
			{"name": "maxPrice", "type": "uint256"}
		],
		"name": "executeOrder",
		"outputs": [],
		"type": "function"
	}
]`

// Collection ABI JSON for operator approvals on the fraction token contract
const collectionABIJSON = `[
	{
		"constant": true,
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "operator", "type": "address"}
		],
		"name": "isApprovedForAll",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "operator", "type": "address"},
			{"name": "approved", "type": "bool"}
		],
		"name": "setApprovalForAll",
		"outputs": [],
		"type": "function"
	}
]`

// Registry ABI JSON for transfer-manager operator approvals and attestations
const registryABIJSON = `[
	{
		"constant": true,
		"inputs": [{"name": "owner", "type": "address"}],
		"name": "isOperatorApproved",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [],
		"name": "approveOperator",
		"outputs": [],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "claimHash", "type": "bytes32"},
			{"name": "priorId", "type": "bytes32"}
		],
		"name": "attest",
		"outputs": [],
		"type": "function"
	}
]`

// Minter ABI JSON for minting a fractionalized asset
const minterABIJSON = `[
	{
		"constant": false,
		"inputs": [
			{"name": "to", "type": "address"},
			{"name": "totalSupply", "type": "uint256"},
			{"name": "uri", "type": "string"}
		],
		"name": "mint",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	}
]`

// GetERC20ABI returns the parsed ERC20 ABI
func GetERC20ABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic("failed to parse ERC20 ABI: " + err.Error())
	}
	return parsed
}

// GetExchangeABI returns the parsed exchange ABI
func GetExchangeABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(exchangeABIJSON))
	if err != nil {
		panic("failed to parse exchange ABI: " + err.Error())
	}
	return parsed
}

// GetCollectionABI returns the parsed collection ABI
func GetCollectionABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(collectionABIJSON))
	if err != nil {
		panic("failed to parse collection ABI: " + err.Error())
	}
	return parsed
}

// GetRegistryABI returns the parsed registry ABI
func GetRegistryABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(registryABIJSON))
	if err != nil {
		panic("failed to parse registry ABI: " + err.Error())
	}
	return parsed
}

// GetMinterABI returns the parsed minter ABI
func GetMinterABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(minterABIJSON))
	if err != nil {
		panic("failed to parse minter ABI: " + err.Error())
	}
	return parsed
}
