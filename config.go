package fractionmarket

// ChainID represents a blockchain chain ID
type ChainID int

const (
	ChainIDPolygonMainnet ChainID = 137 // Polygon PoS mainnet
	ChainIDPolygonAmoy    ChainID = 80002
)

// SupportedChainIDs lists all supported chain IDs
var SupportedChainIDs = []ChainID{ChainIDPolygonMainnet, ChainIDPolygonAmoy}

// ContractAddresses holds contract addresses for each chain
type ContractAddresses struct {
	Exchange        string
	TransferManager string
	FeeCollector    string
	Registry        string
	Minter          string
}

// DefaultContractAddresses maps chain IDs to their contract addresses
var DefaultContractAddresses = map[ChainID]ContractAddresses{
	ChainIDPolygonMainnet: {
		Exchange:        "0x59728544B08AB483533076417FbBB2fD0B17CE3a",
		TransferManager: "0xf42aa99F011A1fA7CDA90E5E98b277E306BcA83e",
		FeeCollector:    "0x5924A28caAF1cc016617874a2f0C3710d881f3c1",
		Registry:        "0x2F141Ce366a2462f02cEA3D12CF93E4DCa49e4Fd",
		Minter:          "0xd07dc4262BCDbf85190C01c996b4C06a461d2430",
	},
	ChainIDPolygonAmoy: {
		Exchange:        "0x35443f2c0D22c5801b11b50C587b3bc6A5a4c8fA",
		TransferManager: "0x132817CB9d2Fa17b5a4E29Fed95b15dcc0D4eB3e",
		FeeCollector:    "0x7C8BaafA542c57fF9B2B90612bf8aB9E86e22C09",
		Registry:        "0x16baF0dE678E52367adC69fD067E5eDd1D33e2bF",
		Minter:          "0x1F7E3bD6eAb6D1b7a0Fd5b0B3fFb10D4cD9E6dA2",
	},
}

// DefaultCurrencyTokens maps each settlement currency to its ERC20 contract
// per chain.
var DefaultCurrencyTokens = map[ChainID]map[Currency]string{
	ChainIDPolygonMainnet: {
		CurrencyUSDC: "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
		CurrencyWETH: "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619",
	},
	ChainIDPolygonAmoy: {
		CurrencyUSDC: "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582",
		CurrencyWETH: "0x52eF3d68BaB452a294342DC3e5f464d7f610f72E",
	},
}

// CurrencyDecimals maps each settlement currency to its ERC20 decimals.
// Balances, allowances and prices cross the chain boundary in these minor
// units; USDC carries 6 decimals, not 18.
var CurrencyDecimals = map[Currency]int32{
	CurrencyUSDC: 6,
	CurrencyWETH: 18,
}

// IsSupportedChain reports whether the marketplace is deployed on chainID.
func IsSupportedChain(chainID ChainID) bool {
	for _, supported := range SupportedChainIDs {
		if chainID == supported {
			return true
		}
	}
	return false
}
