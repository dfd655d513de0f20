package sapphire

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/aquanode/aqua-engine/core/workflowengine"
	"github.com/aquanode/aqua-engine/pkg/logger"
)

const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

var erc20ABI = mustParseABI(erc20ABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// txHistoryScanDepth bounds how many recent blocks the transaction history
// fallback walks. Sapphire has no indexer API, so history is best effort.
const txHistoryScanDepth = 200

// TransactionSigner is the capability a wallet handle must provide before
// stake or swap blocks can run on Sapphire.
type TransactionSigner interface {
	workflowengine.WalletHandle
	SignTransaction(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// PriceLookup augments token info with a USD price when available.
type PriceLookup interface {
	TokenPrice(ctx context.Context, contract string) (float64, error)
}

type Config struct {
	Network string
	RPCURL  string
	Prices  PriceLookup
	Logger  logger.Logger
}

// Provider implements the wallet capability contract against an Oasis
// Sapphire EVM endpoint.
type Provider struct {
	network Network
	prices  PriceLookup
	logger  logger.Logger

	dialMu sync.Mutex
	client *ethclient.Client
}

func NewProvider(cfg Config) (*Provider, error) {
	network, err := NetworkByName(cfg.Network)
	if err != nil {
		return nil, err
	}
	if cfg.RPCURL != "" {
		network.RPCURL = cfg.RPCURL
	}

	return &Provider{
		network: network,
		prices:  cfg.Prices,
		logger:  logger.EnsureLogger(cfg.Logger),
	}, nil
}

// WithNetwork returns a provider bound to the named network, so blocks can
// target testnet while the default stays mainnet.
func (p *Provider) WithNetwork(network string) (workflowengine.WalletProvider, error) {
	if network == "" || network == p.network.nameKey() {
		return p, nil
	}
	return NewProvider(Config{Network: network, Prices: p.prices, Logger: p.logger})
}

func (n Network) nameKey() string {
	if n.ChainID != nil && n.ChainID.Int64() == 23295 {
		return "testnet"
	}
	return "mainnet"
}

func (p *Provider) dial() (*ethclient.Client, error) {
	p.dialMu.Lock()
	defer p.dialMu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	client, err := ethclient.Dial(p.network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("cannot dial %s: %w", p.network.RPCURL, err)
	}
	p.client = client
	return client, nil
}

func (p *Provider) GetWalletBalance(ctx context.Context, address, tokenType, tokenAddress string) (map[string]any, error) {
	client, err := p.dial()
	if err != nil {
		return nil, err
	}

	wei, err := client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"native": map[string]any{
			"symbol":    p.network.Symbol,
			"balance":   wei.String(),
			"formatted": formatUnits(wei, 18),
		},
		"network": p.network.Name,
	}

	if tokenAddress != "" {
		token, err := p.erc20Balance(ctx, client, address, tokenAddress)
		if err != nil {
			return nil, err
		}
		result["tokens"] = []any{token}
	} else {
		// ERC-20 discovery needs an indexer; token queries go through the
		// Token API blocks instead.
		result["tokens"] = []any{}
	}

	return result, nil
}

func (p *Provider) erc20Balance(ctx context.Context, client *ethclient.Client, owner, contract string) (map[string]any, error) {
	contractAddr := common.HexToAddress(contract)

	var balance *big.Int
	if err := p.callERC20(ctx, client, contractAddr, "balanceOf", &balance, common.HexToAddress(owner)); err != nil {
		return nil, err
	}

	var decimals uint8 = 18
	p.callERC20(ctx, client, contractAddr, "decimals", &decimals)
	var symbol string
	p.callERC20(ctx, client, contractAddr, "symbol", &symbol)

	return map[string]any{
		"contract":  contract,
		"symbol":    symbol,
		"balance":   balance.String(),
		"formatted": formatUnits(balance, int32(decimals)),
	}, nil
}

// callERC20 packs, executes, and unpacks a single read-only contract call.
func (p *Provider) callERC20(ctx context.Context, client *ethclient.Client, contract common.Address, method string, out any, args ...any) error {
	input, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return err
	}

	raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: input}, nil)
	if err != nil {
		return err
	}

	results, err := erc20ABI.Unpack(method, raw)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("empty result for %s", method)
	}

	switch target := out.(type) {
	case **big.Int:
		v, ok := results[0].(*big.Int)
		if !ok {
			return fmt.Errorf("unexpected result type for %s", method)
		}
		*target = v
	case *uint8:
		v, ok := results[0].(uint8)
		if !ok {
			return fmt.Errorf("unexpected result type for %s", method)
		}
		*target = v
	case *string:
		v, ok := results[0].(string)
		if !ok {
			return fmt.Errorf("unexpected result type for %s", method)
		}
		*target = v
	default:
		return fmt.Errorf("unsupported output type for %s", method)
	}
	return nil
}

// GetWalletTransactions walks recent blocks for transfers touching the
// address. Bounded and best effort; a confidential EVM exposes no account
// transaction index.
func (p *Provider) GetWalletTransactions(ctx context.Context, address string, limit int, transactionType string) ([]map[string]any, error) {
	client, err := p.dial()
	if err != nil {
		return nil, err
	}

	head, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	var floor uint64
	if head > txHistoryScanDepth {
		floor = head - txHistoryScanDepth
	}

	target := common.HexToAddress(address)
	transactions := make([]map[string]any, 0, limit)

	for n := head; n > floor && len(transactions) < limit; n-- {
		block, err := client.BlockByNumber(ctx, new(big.Int).SetUint64(n))
		if err != nil {
			return nil, err
		}

		for _, tx := range block.Transactions() {
			if len(transactions) >= limit {
				break
			}

			sender, err := types.Sender(types.LatestSignerForChainID(p.network.ChainID), tx)
			if err != nil {
				continue
			}

			sent := sender == target
			received := tx.To() != nil && *tx.To() == target
			if !matchesTransactionType(transactionType, sent, received) {
				continue
			}

			entry := map[string]any{
				"hash":        tx.Hash().Hex(),
				"blockNumber": n,
				"timestamp":   block.Time(),
				"from":        sender.Hex(),
				"value":       formatUnits(tx.Value(), 18),
			}
			if tx.To() != nil {
				entry["to"] = tx.To().Hex()
			}
			if sent {
				entry["direction"] = "sent"
			} else {
				entry["direction"] = "received"
			}
			transactions = append(transactions, entry)
		}
	}

	return transactions, nil
}

func matchesTransactionType(transactionType string, sent, received bool) bool {
	switch transactionType {
	case "Sent":
		return sent
	case "Received":
		return received
	default:
		return sent || received
	}
}

func (p *Provider) GetWalletNFTsAndTokens(ctx context.Context, address string, includeNFTs, includeTokens bool) (map[string]any, error) {
	// Sapphire has no on-chain enumeration for NFTs either; report the
	// shape with empty collections so downstream paths stay resolvable.
	result := map[string]any{"network": p.network.Name}
	if includeNFTs {
		result["nfts"] = []any{}
	}
	if includeTokens {
		result["tokens"] = []any{}
	}
	return result, nil
}

func (p *Provider) GetTokenInfo(ctx context.Context, tokenAddress string, includePrice, includeMetrics bool) (map[string]any, error) {
	client, err := p.dial()
	if err != nil {
		return nil, err
	}

	contractAddr := common.HexToAddress(tokenAddress)

	var name, symbol string
	var decimals uint8 = 18
	if err := p.callERC20(ctx, client, contractAddr, "symbol", &symbol); err != nil {
		return nil, fmt.Errorf("not an ERC-20 contract: %w", err)
	}
	p.callERC20(ctx, client, contractAddr, "name", &name)
	p.callERC20(ctx, client, contractAddr, "decimals", &decimals)

	info := map[string]any{
		"contract": tokenAddress,
		"name":     name,
		"symbol":   symbol,
		"decimals": decimals,
		"network":  p.network.Name,
	}

	if includeMetrics {
		var totalSupply *big.Int
		if err := p.callERC20(ctx, client, contractAddr, "totalSupply", &totalSupply); err == nil {
			info["totalSupply"] = formatUnits(totalSupply, int32(decimals))
		}
	}

	if includePrice && p.prices != nil {
		if price, err := p.prices.TokenPrice(ctx, tokenAddress); err == nil {
			info["usdPrice"] = price
		} else {
			p.logger.Debug("price lookup failed", "contract", tokenAddress, "error", err)
		}
	}

	return info, nil
}

func (p *Provider) Stake(ctx context.Context, cfg workflowengine.StakeConfig, wallet workflowengine.WalletHandle) (map[string]any, error) {
	signer, ok := wallet.(TransactionSigner)
	if !ok {
		return nil, fmt.Errorf("wallet for %s cannot sign transactions", p.network.Name)
	}

	pool := cfg.StakingPool
	if pool == "" {
		pool = cfg.Validator
	}
	if pool == "" {
		return nil, workflowengine.NewMissingRequiredFieldError("stakingPool")
	}

	value, err := parseUnits(cfg.Amount, 18)
	if err != nil {
		return nil, err
	}

	to := common.HexToAddress(pool)
	return p.sendTransaction(ctx, signer, &to, value, nil)
}

func (p *Provider) Swap(ctx context.Context, cfg workflowengine.SwapConfig, wallet workflowengine.WalletHandle) (map[string]any, error) {
	signer, ok := wallet.(TransactionSigner)
	if !ok {
		return nil, fmt.Errorf("wallet for %s cannot sign transactions", p.network.Name)
	}
	if cfg.DEX == "" {
		return nil, fmt.Errorf("no DEX router configured for %s swaps", p.network.Name)
	}
	if cfg.ToToken == "" {
		return nil, workflowengine.NewMissingRequiredFieldError("toToken")
	}

	value, err := parseUnits(cfg.Amount, 18)
	if err != nil {
		return nil, err
	}

	router := common.HexToAddress(cfg.DEX)
	calldata, err := routerABI.Pack("swapExactETHForTokens",
		big.NewInt(0), // minimum out is enforced by slippage checks upstream
		[]common.Address{common.HexToAddress(cfg.ToToken)},
		common.HexToAddress(signer.Address()),
		deadline())
	if err != nil {
		return nil, err
	}

	return p.sendTransaction(ctx, signer, &router, value, calldata)
}

func (p *Provider) sendTransaction(ctx context.Context, signer TransactionSigner, to *common.Address, value *big.Int, data []byte) (map[string]any, error) {
	client, err := p.dial()
	if err != nil {
		return nil, err
	}

	from := common.HexToAddress(signer.Address())
	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, err
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From: from, To: to, Value: value, Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("transaction would revert: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := signer.SignTransaction(ctx, tx, p.network.ChainID)
	if err != nil {
		return nil, fmt.Errorf("wallet refused to sign: %w", err)
	}

	if err := client.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}

	receipt, err := waitMined(ctx, client, signed.Hash())
	if err != nil {
		return nil, err
	}

	status := "success"
	if receipt.Status != types.ReceiptStatusSuccessful {
		status = "failed"
	}

	return map[string]any{
		"hash":        signed.Hash().Hex(),
		"status":      status,
		"gasUsed":     receipt.GasUsed,
		"blockNumber": receipt.BlockNumber.Uint64(),
		"explorer":    p.network.BlockExplorer + "/tx/" + signed.Hash().Hex(),
	}, nil
}

// formatUnits renders a raw integer amount with the given decimals, fixed to
// 4 fractional digits.
func formatUnits(raw *big.Int, decimals int32) string {
	if raw == nil {
		return "0.0000"
	}
	return decimal.NewFromBigInt(raw, -decimals).StringFixed(4)
}

// parseUnits converts a human amount string into raw integer units.
func parseUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() || d.IsZero() {
		return nil, fmt.Errorf("amount must be positive, got %q", amount)
	}
	return d.Shift(decimals).BigInt(), nil
}
