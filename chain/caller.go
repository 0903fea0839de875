package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Caller handles blockchain contract interactions for the marketplace:
// ERC20 allowances and transfers, order execution on the exchange, operator
// approvals, attestations and mints.
type Caller struct {
	client          *ethclient.Client
	privateKey      *ecdsa.PrivateKey
	chainID         int64
	exchangeAddr    common.Address
	transferMgrAddr common.Address
	feeCollector    common.Address
	registryAddr    common.Address
	minterAddr      common.Address
	orderBuilder    *OrderBuilder
}

// Config holds the addresses and credentials a Caller needs.
type Config struct {
	RPCURL          string
	PrivateKeyHex   string
	ChainID         int64
	Exchange        string
	TransferManager string
	FeeCollector    string
	Registry        string
	Minter          string
}

// NewCaller creates a new Caller instance
func NewCaller(cfg Config) (*Caller, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(cfg.PrivateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &Caller{
		client:          client,
		privateKey:      privateKey,
		chainID:         cfg.ChainID,
		exchangeAddr:    common.HexToAddress(cfg.Exchange),
		transferMgrAddr: common.HexToAddress(cfg.TransferManager),
		feeCollector:    common.HexToAddress(cfg.FeeCollector),
		registryAddr:    common.HexToAddress(cfg.Registry),
		minterAddr:      common.HexToAddress(cfg.Minter),
		orderBuilder:    NewOrderBuilder(cfg.Exchange, cfg.ChainID, privateKey),
	}, nil
}

// SignSaleOrder builds and signs a sale order off-chain using EIP712 typed
// data. Signing is free of gas and does not touch the node.
func (c *Caller) SignSaleOrder(data *SaleOrderData) (*SignedSaleOrder, error) {
	return c.orderBuilder.BuildSignedOrder(data)
}

// SaleOrderHash returns the EIP712 hash the exchange addresses an order by.
func (c *Caller) SaleOrderHash(signed *SignedSaleOrder) ([32]byte, error) {
	return signed.Hash(big.NewInt(c.chainID), c.exchangeAddr)
}

// SignerAddress returns the address of the signer
func (c *Caller) SignerAddress() common.Address {
	publicKey := c.privateKey.Public()
	publicKeyECDSA, _ := publicKey.(*ecdsa.PublicKey)
	return crypto.PubkeyToAddress(*publicKeyECDSA)
}

// FeeCollectorAddress returns the platform fee collector address.
func (c *Caller) FeeCollectorAddress() common.Address {
	return c.feeCollector
}

// CheckGasBalance checks if the signer has enough gas tokens
func (c *Caller) CheckGasBalance(ctx context.Context, estimatedGas uint64) error {
	signerAddr := c.SignerAddress()
	balance, err := c.client.BalanceAt(ctx, signerAddr, nil)
	if err != nil {
		return fmt.Errorf("failed to get balance: %w", err)
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get gas price: %w", err)
	}

	// Add 20% safety margin
	estimatedGasWithMargin := new(big.Int).Mul(big.NewInt(int64(estimatedGas)), big.NewInt(120))
	estimatedGasWithMargin.Div(estimatedGasWithMargin, big.NewInt(100))

	required := new(big.Int).Mul(estimatedGasWithMargin, gasPrice)

	if balance.Cmp(required) < 0 {
		return fmt.Errorf("insufficient gas balance: signer %s has %s, needs approximately %s",
			signerAddr.Hex(),
			balance.String(),
			required.String(),
		)
	}

	return nil
}

// ERC20Allowance returns the ERC20 allowance for owner to spender
func (c *Caller) ERC20Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	erc20ABI := GetERC20ABI()
	data, err := erc20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return nil, err
	}

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: data,
	}, nil)
	if err != nil {
		return nil, err
	}

	var allowance *big.Int
	if err := erc20ABI.UnpackIntoInterface(&allowance, "allowance", result); err != nil {
		return nil, err
	}

	return allowance, nil
}

// ERC20BalanceOf returns the ERC20 balance for an account
func (c *Caller) ERC20BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	erc20ABI := GetERC20ABI()
	data, err := erc20ABI.Pack("balanceOf", account)
	if err != nil {
		return nil, err
	}

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: data,
	}, nil)
	if err != nil {
		return nil, err
	}

	var balance *big.Int
	if err := erc20ABI.UnpackIntoInterface(&balance, "balanceOf", result); err != nil {
		return nil, err
	}

	return balance, nil
}

// ApproveSpend grants the exchange a spending allowance of amount on token.
func (c *Caller) ApproveSpend(ctx context.Context, token common.Address, amount *big.Int) (*types.Transaction, error) {
	if err := c.CheckGasBalance(ctx, 100000); err != nil {
		return nil, err
	}

	erc20ABI := GetERC20ABI()
	data, err := erc20ABI.Pack("approve", c.exchangeAddr, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack approve: %w", err)
	}

	return c.sendContractTx(ctx, token, data, 100000)
}

// TransferFee sends an ERC20 platform fee to the fee collector.
func (c *Caller) TransferFee(ctx context.Context, token common.Address, amount *big.Int) (*types.Transaction, error) {
	if err := c.CheckGasBalance(ctx, 80000); err != nil {
		return nil, err
	}

	erc20ABI := GetERC20ABI()
	data, err := erc20ABI.Pack("transfer", c.feeCollector, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transfer: %w", err)
	}

	return c.sendContractTx(ctx, token, data, 80000)
}

// ExecuteOrder submits the trade call for a published sell order.
func (c *Caller) ExecuteOrder(ctx context.Context, orderHash [32]byte, units, maxPrice *big.Int) (*types.Transaction, error) {
	if err := c.CheckGasBalance(ctx, 300000); err != nil {
		return nil, err
	}

	exchangeABI := GetExchangeABI()
	data, err := exchangeABI.Pack("executeOrder", orderHash, units, maxPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to pack executeOrder: %w", err)
	}

	return c.sendContractTx(ctx, c.exchangeAddr, data, 300000)
}

// IsTransferManagerApproved checks whether owner has authorized the
// marketplace transfer manager.
func (c *Caller) IsTransferManagerApproved(ctx context.Context, owner common.Address) (bool, error) {
	registryABI := GetRegistryABI()
	data, err := registryABI.Pack("isOperatorApproved", owner)
	if err != nil {
		return false, err
	}

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.registryAddr,
		Data: data,
	}, nil)
	if err != nil {
		return false, err
	}

	var approved bool
	if err := registryABI.UnpackIntoInterface(&approved, "isOperatorApproved", result); err != nil {
		return false, err
	}

	return approved, nil
}

// ApproveTransferManager authorizes the marketplace transfer manager for the
// signer's wallet.
func (c *Caller) ApproveTransferManager(ctx context.Context) (*types.Transaction, error) {
	if err := c.CheckGasBalance(ctx, 100000); err != nil {
		return nil, err
	}

	registryABI := GetRegistryABI()
	data, err := registryABI.Pack("approveOperator")
	if err != nil {
		return nil, fmt.Errorf("failed to pack approveOperator: %w", err)
	}

	return c.sendContractTx(ctx, c.registryAddr, data, 100000)
}

// IsCollectionApproved checks whether the transfer manager is an approved
// operator on the asset's collection contract.
func (c *Caller) IsCollectionApproved(ctx context.Context, collection, owner common.Address) (bool, error) {
	collectionABI := GetCollectionABI()
	data, err := collectionABI.Pack("isApprovedForAll", owner, c.transferMgrAddr)
	if err != nil {
		return false, err
	}

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &collection,
		Data: data,
	}, nil)
	if err != nil {
		return false, err
	}

	var approved bool
	if err := collectionABI.UnpackIntoInterface(&approved, "isApprovedForAll", result); err != nil {
		return false, err
	}

	return approved, nil
}

// ApproveCollection approves the transfer manager as operator on a collection.
func (c *Caller) ApproveCollection(ctx context.Context, collection common.Address) (*types.Transaction, error) {
	if err := c.CheckGasBalance(ctx, 100000); err != nil {
		return nil, err
	}

	collectionABI := GetCollectionABI()
	data, err := collectionABI.Pack("setApprovalForAll", c.transferMgrAddr, true)
	if err != nil {
		return nil, fmt.Errorf("failed to pack setApprovalForAll: %w", err)
	}

	return c.sendContractTx(ctx, collection, data, 100000)
}

// SubmitAttestation sends the attestation transaction, linking to a prior
// attestation when priorID is non-zero.
func (c *Caller) SubmitAttestation(ctx context.Context, claimHash, priorID [32]byte) (*types.Transaction, error) {
	if err := c.CheckGasBalance(ctx, 150000); err != nil {
		return nil, err
	}

	registryABI := GetRegistryABI()
	data, err := registryABI.Pack("attest", claimHash, priorID)
	if err != nil {
		return nil, fmt.Errorf("failed to pack attest: %w", err)
	}

	return c.sendContractTx(ctx, c.registryAddr, data, 150000)
}

// Mint submits the mint transaction for a new fractionalized asset.
func (c *Caller) Mint(ctx context.Context, to common.Address, totalSupply *big.Int, metadataURI string) (*types.Transaction, error) {
	if err := c.CheckGasBalance(ctx, 400000); err != nil {
		return nil, err
	}

	minterABI := GetMinterABI()
	data, err := minterABI.Pack("mint", to, totalSupply, metadataURI)
	if err != nil {
		return nil, fmt.Errorf("failed to pack mint: %w", err)
	}

	return c.sendContractTx(ctx, c.minterAddr, data, 400000)
}

// WaitMined waits for a transaction receipt and validates its status. It has
// no internal deadline of its own beyond the receipt poll window: blockchain
// confirmation can legitimately take as long as the caller's context allows.
func (c *Caller) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	for {
		receipt, err := c.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return nil, fmt.Errorf("transaction reverted: %s", txHash.Hex())
			}
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for transaction receipt %s: %w", txHash.Hex(), ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
}

// sendContractTx builds, signs and sends a contract call transaction.
func (c *Caller) sendContractTx(ctx context.Context, to common.Address, callData []byte, gasLimit uint64) (*types.Transaction, error) {
	chainID, err := c.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	nonce, err := c.client.PendingNonceAt(ctx, c.SignerAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	tx := types.NewTransaction(
		nonce,
		to,
		big.NewInt(0),
		gasLimit,
		gasPrice,
		callData,
	)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(chainID), c.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	return signedTx, nil
}

// Close closes the Ethereum client connection
func (c *Caller) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
