package workflowengine

import (
	"context"
	"errors"
	"time"
)

// Test doubles for the capability providers. They live in the package (not
// in _test files) so integration-style tests elsewhere can reuse them.

type fakeWalletHandle struct {
	address string
}

func (w *fakeWalletHandle) Address() string { return w.address }

// NewFakeWalletHandle returns a wallet handle stub for tests.
func NewFakeWalletHandle(address string) WalletHandle {
	return &fakeWalletHandle{address: address}
}

// FakeWalletProvider replays canned payloads and records calls.
type FakeWalletProvider struct {
	Balance      map[string]any
	Transactions []map[string]any
	NFTData      map[string]any
	TokenInfo    map[string]any
	StakeReceipt map[string]any
	SwapReceipt  map[string]any
	Err          error

	Calls []string
}

func (f *FakeWalletProvider) GetWalletBalance(ctx context.Context, address, tokenType, tokenAddress string) (map[string]any, error) {
	f.Calls = append(f.Calls, "balance")
	return f.Balance, f.Err
}

func (f *FakeWalletProvider) GetWalletTransactions(ctx context.Context, address string, limit int, transactionType string) ([]map[string]any, error) {
	f.Calls = append(f.Calls, "transactions")
	return f.Transactions, f.Err
}

func (f *FakeWalletProvider) GetWalletNFTsAndTokens(ctx context.Context, address string, includeNFTs, includeTokens bool) (map[string]any, error) {
	f.Calls = append(f.Calls, "nfts")
	return f.NFTData, f.Err
}

func (f *FakeWalletProvider) GetTokenInfo(ctx context.Context, tokenAddress string, includePrice, includeMetrics bool) (map[string]any, error) {
	f.Calls = append(f.Calls, "tokeninfo")
	return f.TokenInfo, f.Err
}

func (f *FakeWalletProvider) Stake(ctx context.Context, cfg StakeConfig, wallet WalletHandle) (map[string]any, error) {
	f.Calls = append(f.Calls, "stake")
	return f.StakeReceipt, f.Err
}

func (f *FakeWalletProvider) Swap(ctx context.Context, cfg SwapConfig, wallet WalletHandle) (map[string]any, error) {
	f.Calls = append(f.Calls, "swap")
	return f.SwapReceipt, f.Err
}

// FakeWalletRegistry maps chain names to fake providers.
type FakeWalletRegistry struct {
	Providers map[string]WalletProvider
}

func (f *FakeWalletRegistry) Provider(chain, network string) (WalletProvider, error) {
	p, ok := f.Providers[chain]
	if !ok {
		return nil, NewMissingCapabilityError(chain)
	}
	return p, nil
}

// FakeAIProvider returns a canned explanation payload, or the standard
// fallback shape when Fail is set.
type FakeAIProvider struct {
	Response map[string]any
	Fail     bool

	Prompts  []string
	Contexts []map[string]any
}

func (f *FakeAIProvider) GenerateExplanation(ctx context.Context, prompt string, contextData map[string]any) map[string]any {
	f.Prompts = append(f.Prompts, prompt)
	f.Contexts = append(f.Contexts, contextData)

	if f.Fail {
		return map[string]any{
			"success":         false,
			"error":           "ai provider unavailable",
			"explanation":     "AI analysis is currently unavailable.",
			"insights":        []any{},
			"recommendations": []any{},
			"confidence":      0.0,
			"model":           "gemini-pro",
			"timestamp":       time.Now().UTC().Format(time.RFC3339),
		}
	}
	if f.Response != nil {
		return f.Response
	}
	return map[string]any{
		"success":         true,
		"explanation":     "ok",
		"insights":        []any{"insight"},
		"recommendations": []any{"recommendation"},
		"confidence":      0.9,
		"model":           "gemini-pro",
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	}
}

// FakeEmailProvider records the resolved message it was handed.
type FakeEmailProvider struct {
	Result EmailResult
	Err    error

	Sent []EmailMessage
}

func (f *FakeEmailProvider) Send(ctx context.Context, msg EmailMessage) (EmailResult, error) {
	f.Sent = append(f.Sent, msg)
	if f.Err != nil {
		return EmailResult{}, f.Err
	}
	return f.Result, nil
}

// FakeIndexingProvider replays one payload for every query kind.
type FakeIndexingProvider struct {
	Payload map[string]any
	Err     error

	Queries []IndexingQuery
}

func (f *FakeIndexingProvider) result(q IndexingQuery) (map[string]any, error) {
	f.Queries = append(f.Queries, q)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Payload, nil
}

func (f *FakeIndexingProvider) BalancesByAddress(ctx context.Context, address string, q IndexingQuery) (map[string]any, error) {
	return f.result(q)
}
func (f *FakeIndexingProvider) TransferEvents(ctx context.Context, q IndexingQuery) (map[string]any, error) {
	return f.result(q)
}
func (f *FakeIndexingProvider) TokenHolders(ctx context.Context, contract string, q IndexingQuery) (map[string]any, error) {
	return f.result(q)
}
func (f *FakeIndexingProvider) TokenMetadata(ctx context.Context, contract, networkID string) (map[string]any, error) {
	return f.result(IndexingQuery{Contract: contract, NetworkID: networkID})
}
func (f *FakeIndexingProvider) LiquidityPools(ctx context.Context, q IndexingQuery) (map[string]any, error) {
	return f.result(q)
}
func (f *FakeIndexingProvider) SwapEvents(ctx context.Context, q IndexingQuery) (map[string]any, error) {
	return f.result(q)
}
func (f *FakeIndexingProvider) NFTActivities(ctx context.Context, q IndexingQuery) (map[string]any, error) {
	return f.result(q)
}
func (f *FakeIndexingProvider) NFTCollection(ctx context.Context, contract, networkID string) (map[string]any, error) {
	return f.result(IndexingQuery{Contract: contract, NetworkID: networkID})
}

// FakeCoinInfoProvider replays one pool snapshot.
type FakeCoinInfoProvider struct {
	Snapshot map[string]any
	Err      error
}

func (f *FakeCoinInfoProvider) PoolSnapshot(ctx context.Context, poolAddress string) (map[string]any, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Snapshot, nil
}

// newTestEngine wires an engine with fakes suitable for most tests.
func newTestEngine() (*Engine, *FakeWalletProvider, *FakeEmailProvider, *FakeAIProvider, *FakeIndexingProvider) {
	wallet := &FakeWalletProvider{
		Balance: map[string]any{
			"native": map[string]any{"symbol": "SUI", "balance": "50000000000", "formatted": "50.0000"},
		},
		Transactions: []map[string]any{{"hash": "0x1"}, {"hash": "0x2"}},
		NFTData:      map[string]any{"tokens": []any{}, "nfts": []any{}},
		TokenInfo:    map[string]any{"symbol": "AQUA", "decimals": 9},
		StakeReceipt: map[string]any{"hash": "0xstake", "status": "success"},
		SwapReceipt:  map[string]any{"hash": "0xswap", "status": "success"},
	}
	email := &FakeEmailProvider{Result: EmailResult{Success: true, ID: "m1"}}
	ai := &FakeAIProvider{}
	indexing := &FakeIndexingProvider{Payload: map[string]any{"data": []any{map[string]any{"amount": "1"}}}}

	engine := NewEngine(Dependencies{
		Wallets: &FakeWalletRegistry{Providers: map[string]WalletProvider{
			"Sui":            wallet,
			"Oasis Sapphire": wallet,
		}},
		AI:       ai,
		Email:    email,
		Indexing: indexing,
		CoinInfo: &FakeCoinInfoProvider{Snapshot: map[string]any{"pairName": "USDC/WETH"}},
	})

	return engine, wallet, email, ai, indexing
}

// errProvider is a registry that always fails, for capability error tests.
type errWalletRegistry struct{}

func (errWalletRegistry) Provider(chain, network string) (WalletProvider, error) {
	return nil, errors.New("registry offline")
}
