package workflowengine

import (
	"context"

	"github.com/aquanode/aqua-engine/model"
)

type walletBlockConfig struct {
	Chain           string `mapstructure:"chain"`
	Network         string `mapstructure:"network"`
	WalletAddress   string `mapstructure:"walletAddress"`
	TokenType       string `mapstructure:"tokenType"`
	TokenAddress    string `mapstructure:"tokenAddress"`
	Limit           int    `mapstructure:"limit"`
	TransactionType string `mapstructure:"transactionType"`
	IncludeNFTs     *bool  `mapstructure:"includeNFTs"`
	IncludeTokens   *bool  `mapstructure:"includeTokens"`
}

func (c *walletBlockConfig) requireWalletAndChain() error {
	if c.WalletAddress == "" {
		return NewMissingRequiredFieldError("walletAddress")
	}
	if c.Chain == "" {
		return NewMissingRequiredFieldError("chain")
	}
	return nil
}

// walletBalanceRunner delegates to the per-chain provider and tags the
// balance map so downstream paths like `previous.balance.native.formatted`
// stay stable across chains.
type walletBalanceRunner struct {
	wallets WalletRegistry
}

func (r *walletBalanceRunner) Type() model.BlockType    { return model.BlockTypeWalletBalance }
func (r *walletBalanceRunner) FailureMode() FailureMode { return FailureModeThrows }

func (r *walletBalanceRunner) Run(ctx context.Context, block *model.Block, ec *ExecutionContext) (BlockOutput, error) {
	var cfg walletBlockConfig
	if err := decodeBlockConfig(block, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.requireWalletAndChain(); err != nil {
		return nil, err
	}

	provider, err := r.wallets.Provider(cfg.Chain, cfg.Network)
	if err != nil {
		return nil, err
	}

	tokenType := cfg.TokenType
	if tokenType == "" {
		tokenType = "All Tokens"
	}

	balance, err := provider.GetWalletBalance(ctx, cfg.WalletAddress, tokenType, cfg.TokenAddress)
	if err != nil {
		return nil, err
	}

	return BlockOutput{
		"type":      "wallet_balance",
		"chain":     cfg.Chain,
		"address":   cfg.WalletAddress,
		"balance":   balance,
		"tokenType": tokenType,
	}, nil
}

type walletTransactionRunner struct {
	wallets WalletRegistry
}

func (r *walletTransactionRunner) Type() model.BlockType    { return model.BlockTypeWalletTransaction }
func (r *walletTransactionRunner) FailureMode() FailureMode { return FailureModeThrows }

func (r *walletTransactionRunner) Run(ctx context.Context, block *model.Block, ec *ExecutionContext) (BlockOutput, error) {
	var cfg walletBlockConfig
	if err := decodeBlockConfig(block, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.requireWalletAndChain(); err != nil {
		return nil, err
	}

	provider, err := r.wallets.Provider(cfg.Chain, cfg.Network)
	if err != nil {
		return nil, err
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = 10
	}
	txType := cfg.TransactionType
	if txType == "" {
		txType = "All"
	}

	transactions, err := provider.GetWalletTransactions(ctx, cfg.WalletAddress, limit, txType)
	if err != nil {
		return nil, err
	}

	return BlockOutput{
		"type":         "wallet_transactions",
		"chain":        cfg.Chain,
		"address":      cfg.WalletAddress,
		"transactions": transactions,
		"count":        len(transactions),
	}, nil
}

type walletNFTRunner struct {
	wallets WalletRegistry
}

func (r *walletNFTRunner) Type() model.BlockType    { return model.BlockTypeWalletNFT }
func (r *walletNFTRunner) FailureMode() FailureMode { return FailureModeThrows }

func (r *walletNFTRunner) Run(ctx context.Context, block *model.Block, ec *ExecutionContext) (BlockOutput, error) {
	var cfg walletBlockConfig
	if err := decodeBlockConfig(block, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.requireWalletAndChain(); err != nil {
		return nil, err
	}

	provider, err := r.wallets.Provider(cfg.Chain, cfg.Network)
	if err != nil {
		return nil, err
	}

	includeNFTs := cfg.IncludeNFTs == nil || *cfg.IncludeNFTs
	includeTokens := cfg.IncludeTokens == nil || *cfg.IncludeTokens

	data, err := provider.GetWalletNFTsAndTokens(ctx, cfg.WalletAddress, includeNFTs, includeTokens)
	if err != nil {
		return nil, err
	}

	return BlockOutput{
		"type":    "wallet_nft_tokens",
		"chain":   cfg.Chain,
		"address": cfg.WalletAddress,
		"data":    data,
	}, nil
}
