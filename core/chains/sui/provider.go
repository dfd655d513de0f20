package sui

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aquanode/aqua-engine/core/workflowengine"
	"github.com/aquanode/aqua-engine/pkg/logger"
)

const (
	suiCoinType = "0x2::sui::SUI"

	// MIST is the smallest SUI unit.
	mistPerSui = 1_000_000_000
)

var mistDivisor = decimal.NewFromInt(mistPerSui)

// TransactionSigner is the capability a wallet handle must provide before
// stake or swap blocks can run on Sui. The provider builds transaction bytes
// through the fullnode and hands them to the signer; it never holds keys.
type TransactionSigner interface {
	workflowengine.WalletHandle
	SignTransactionBlock(ctx context.Context, txBytesB64 string) (signatureB64 string, err error)
}

type Config struct {
	RPCURL string
	Logger logger.Logger
}

// Provider implements the wallet capability contract against a Sui fullnode.
type Provider struct {
	rpc    *rpcClient
	logger logger.Logger
}

func NewProvider(cfg Config) *Provider {
	endpoint := cfg.RPCURL
	if endpoint == "" {
		endpoint = DefaultMainnetRPC
	}

	return &Provider{
		rpc:    newRPCClient(endpoint),
		logger: logger.EnsureLogger(cfg.Logger),
	}
}

type coinBalance struct {
	CoinType     string `json:"coinType"`
	TotalBalance string `json:"totalBalance"`
}

func (p *Provider) GetWalletBalance(ctx context.Context, address, tokenType, tokenAddress string) (map[string]any, error) {
	var native coinBalance
	if err := p.rpc.call(ctx, "suix_getBalance", []any{address, suiCoinType}, &native); err != nil {
		return nil, err
	}

	result := map[string]any{
		"native": formatCoinBalance(native),
	}

	switch {
	case tokenAddress != "":
		var token coinBalance
		if err := p.rpc.call(ctx, "suix_getBalance", []any{address, tokenAddress}, &token); err != nil {
			return nil, err
		}
		result["tokens"] = []any{formatCoinBalance(token)}
	case tokenType == "" || tokenType == "All Tokens":
		var all []coinBalance
		if err := p.rpc.call(ctx, "suix_getAllBalances", []any{address}, &all); err != nil {
			return nil, err
		}
		tokens := make([]any, 0, len(all))
		for _, b := range all {
			if b.CoinType == suiCoinType {
				continue
			}
			tokens = append(tokens, formatCoinBalance(b))
		}
		result["tokens"] = tokens
	default:
		result["tokens"] = []any{}
	}

	return result, nil
}

// formatCoinBalance shapes one coin balance; Sui coins use 9 decimals.
func formatCoinBalance(b coinBalance) map[string]any {
	raw, err := decimal.NewFromString(b.TotalBalance)
	if err != nil {
		raw = decimal.Zero
	}

	return map[string]any{
		"coinType":  b.CoinType,
		"symbol":    coinSymbol(b.CoinType),
		"balance":   b.TotalBalance,
		"formatted": raw.Div(mistDivisor).StringFixed(4),
	}
}

// coinSymbol extracts the trailing struct name of a coin type, e.g.
// "0x2::sui::SUI" yields "SUI".
func coinSymbol(coinType string) string {
	parts := strings.Split(coinType, "::")
	return parts[len(parts)-1]
}

type transactionBlocksPage struct {
	Data []struct {
		Digest      string `json:"digest"`
		TimestampMs string `json:"timestampMs"`
		Effects     *struct {
			Status struct {
				Status string `json:"status"`
			} `json:"status"`
			GasUsed struct {
				ComputationCost string `json:"computationCost"`
			} `json:"gasUsed"`
		} `json:"effects"`
	} `json:"data"`
}

func (p *Provider) GetWalletTransactions(ctx context.Context, address string, limit int, transactionType string) ([]map[string]any, error) {
	filter := map[string]any{"FromAddress": address}
	if transactionType == "Received" {
		filter = map[string]any{"ToAddress": address}
	}

	var page transactionBlocksPage
	err := p.rpc.call(ctx, "suix_queryTransactionBlocks", []any{
		map[string]any{
			"filter":  filter,
			"options": map[string]any{"showEffects": true},
		},
		nil,   // cursor
		limit,
		true, // descending, newest first
	}, &page)
	if err != nil {
		return nil, err
	}

	transactions := make([]map[string]any, 0, len(page.Data))
	for _, tx := range page.Data {
		entry := map[string]any{
			"hash":      tx.Digest,
			"timestamp": tx.TimestampMs,
		}
		if tx.Effects != nil {
			entry["status"] = tx.Effects.Status.Status
			entry["gasUsed"] = tx.Effects.GasUsed.ComputationCost
		}
		transactions = append(transactions, entry)
	}
	return transactions, nil
}

type ownedObjectsPage struct {
	Data []struct {
		Data struct {
			ObjectID string         `json:"objectId"`
			Type     string         `json:"type"`
			Display  map[string]any `json:"display"`
		} `json:"data"`
	} `json:"data"`
}

func (p *Provider) GetWalletNFTsAndTokens(ctx context.Context, address string, includeNFTs, includeTokens bool) (map[string]any, error) {
	var page ownedObjectsPage
	err := p.rpc.call(ctx, "suix_getOwnedObjects", []any{
		address,
		map[string]any{
			"options": map[string]any{"showType": true, "showDisplay": true},
		},
	}, &page)
	if err != nil {
		return nil, err
	}

	nfts := []any{}
	tokens := []any{}
	for _, obj := range page.Data {
		isCoin := strings.HasPrefix(obj.Data.Type, "0x2::coin::Coin<")
		switch {
		case isCoin && includeTokens:
			tokens = append(tokens, map[string]any{
				"objectId": obj.Data.ObjectID,
				"coinType": strings.TrimSuffix(strings.TrimPrefix(obj.Data.Type, "0x2::coin::Coin<"), ">"),
			})
		case !isCoin && includeNFTs:
			nfts = append(nfts, map[string]any{
				"objectId": obj.Data.ObjectID,
				"type":     obj.Data.Type,
				"display":  obj.Data.Display,
			})
		}
	}

	result := map[string]any{}
	if includeNFTs {
		result["nfts"] = nfts
	}
	if includeTokens {
		result["tokens"] = tokens
	}
	return result, nil
}

type coinMetadata struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    int    `json:"decimals"`
	Description string `json:"description"`
	IconURL     string `json:"iconUrl"`
}

func (p *Provider) GetTokenInfo(ctx context.Context, tokenAddress string, includePrice, includeMetrics bool) (map[string]any, error) {
	var meta coinMetadata
	if err := p.rpc.call(ctx, "suix_getCoinMetadata", []any{tokenAddress}, &meta); err != nil {
		return nil, err
	}

	info := map[string]any{
		"coinType":    tokenAddress,
		"name":        meta.Name,
		"symbol":      meta.Symbol,
		"decimals":    meta.Decimals,
		"description": meta.Description,
		"iconUrl":     meta.IconURL,
	}

	if includeMetrics {
		var supply struct {
			Value string `json:"value"`
		}
		if err := p.rpc.call(ctx, "suix_getTotalSupply", []any{tokenAddress}, &supply); err == nil {
			info["totalSupply"] = supply.Value
		}
	}

	return info, nil
}

type transactionBytes struct {
	TxBytes string `json:"txBytes"`
}

func (p *Provider) Stake(ctx context.Context, cfg workflowengine.StakeConfig, wallet workflowengine.WalletHandle) (map[string]any, error) {
	signer, ok := wallet.(TransactionSigner)
	if !ok {
		return nil, fmt.Errorf("wallet for Sui cannot sign transactions")
	}

	amount, err := suiToMist(cfg.Amount)
	if err != nil {
		return nil, err
	}
	validator := cfg.Validator
	if validator == "" {
		return nil, workflowengine.NewMissingRequiredFieldError("validator")
	}

	var tx transactionBytes
	err = p.rpc.call(ctx, "unsafe_requestAddStake", []any{
		signer.Address(),
		nil, // let the node pick the coins
		amount,
		validator,
		nil,        // gas object
		"50000000", // gas budget in MIST
	}, &tx)
	if err != nil {
		return nil, err
	}

	return p.signAndExecute(ctx, signer, tx.TxBytes)
}

func (p *Provider) Swap(ctx context.Context, cfg workflowengine.SwapConfig, wallet workflowengine.WalletHandle) (map[string]any, error) {
	signer, ok := wallet.(TransactionSigner)
	if !ok {
		return nil, fmt.Errorf("wallet for Sui cannot sign transactions")
	}
	if cfg.FromToken == "" || cfg.ToToken == "" {
		return nil, workflowengine.NewMissingRequiredFieldError("fromToken")
	}

	amount, err := suiToMist(cfg.Amount)
	if err != nil {
		return nil, err
	}

	// Pay-all style transfer into the DEX router entry function. The router
	// package is resolved by the host; without one we cannot route the swap.
	if cfg.DEX == "" {
		return nil, fmt.Errorf("no DEX router configured for Sui swaps")
	}

	var tx transactionBytes
	err = p.rpc.call(ctx, "unsafe_moveCall", []any{
		signer.Address(),
		cfg.DEX,
		"router",
		"swap_exact_input",
		[]any{cfg.FromToken, cfg.ToToken},
		[]any{amount, slippageBps(cfg.Slippage)},
		nil,
		"50000000",
	}, &tx)
	if err != nil {
		return nil, err
	}

	return p.signAndExecute(ctx, signer, tx.TxBytes)
}

func (p *Provider) signAndExecute(ctx context.Context, signer TransactionSigner, txBytes string) (map[string]any, error) {
	signature, err := signer.SignTransactionBlock(ctx, txBytes)
	if err != nil {
		return nil, fmt.Errorf("wallet refused to sign: %w", err)
	}

	var result struct {
		Digest  string `json:"digest"`
		Effects *struct {
			Status struct {
				Status string `json:"status"`
				Error  string `json:"error"`
			} `json:"status"`
			GasUsed struct {
				ComputationCost string `json:"computationCost"`
			} `json:"gasUsed"`
		} `json:"effects"`
	}
	err = p.rpc.call(ctx, "sui_executeTransactionBlock", []any{
		txBytes,
		[]string{signature},
		map[string]any{"showEffects": true},
		"WaitForLocalExecution",
	}, &result)
	if err != nil {
		return nil, err
	}

	receipt := map[string]any{
		"hash":   result.Digest,
		"status": "success",
	}
	if result.Effects != nil {
		receipt["status"] = result.Effects.Status.Status
		receipt["gasUsed"] = result.Effects.GasUsed.ComputationCost
		if result.Effects.Status.Error != "" {
			receipt["error"] = result.Effects.Status.Error
		}
	}
	return receipt, nil
}

// suiToMist converts a human SUI amount string to MIST.
func suiToMist(amount string) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() || d.IsZero() {
		return "", fmt.Errorf("amount must be positive, got %q", amount)
	}
	return d.Mul(mistDivisor).Truncate(0).String(), nil
}

func slippageBps(slippage float64) string {
	if slippage <= 0 {
		slippage = 0.5
	}
	return decimal.NewFromFloat(slippage).Mul(decimal.NewFromInt(100)).Truncate(0).String()
}
