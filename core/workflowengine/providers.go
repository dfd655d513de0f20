package workflowengine

import "context"

// WalletHandle is an opaque, host-owned signer for one chain. The engine
// never mutates a handle, it only forwards it to the chain provider that
// knows how to use it.
type WalletHandle interface {
	Address() string
}

// StakeConfig carries the stake block configuration forwarded to a chain
// provider. Amount stays a string so providers can apply their own decimal
// handling.
type StakeConfig struct {
	Chain        string `mapstructure:"chain"`
	Amount       string `mapstructure:"amount"`
	TokenAddress string `mapstructure:"tokenAddress"`
	Validator    string `mapstructure:"validator"`
	StakingPool  string `mapstructure:"stakingPool"`
	Network      string `mapstructure:"network"`
}

// SwapConfig carries the swap block configuration forwarded to a chain
// provider.
type SwapConfig struct {
	Chain     string  `mapstructure:"chain"`
	Amount    string  `mapstructure:"amount"`
	FromToken string  `mapstructure:"fromToken"`
	ToToken   string  `mapstructure:"toToken"`
	Slippage  float64 `mapstructure:"slippage"`
	DEX       string  `mapstructure:"dex"`
	Network   string  `mapstructure:"network"`
}

// WalletProvider is the per-chain capability contract. Result payloads are
// JSON-like value trees so the field resolver can walk them.
type WalletProvider interface {
	GetWalletBalance(ctx context.Context, address, tokenType, tokenAddress string) (map[string]any, error)
	GetWalletTransactions(ctx context.Context, address string, limit int, transactionType string) ([]map[string]any, error)
	GetWalletNFTsAndTokens(ctx context.Context, address string, includeNFTs, includeTokens bool) (map[string]any, error)
	GetTokenInfo(ctx context.Context, tokenAddress string, includePrice, includeMetrics bool) (map[string]any, error)
	Stake(ctx context.Context, cfg StakeConfig, wallet WalletHandle) (map[string]any, error)
	Swap(ctx context.Context, cfg SwapConfig, wallet WalletHandle) (map[string]any, error)
}

// WalletRegistry resolves a chain name (plus an optional per-chain network
// override) to a provider. Unknown chains must yield a typed error, never a
// nil provider.
type WalletRegistry interface {
	Provider(chain, network string) (WalletProvider, error)
}

// AIProvider generates a structured explanation. It must never fail from the
// engine's perspective: internal errors are reported through the returned
// payload (success=false plus a human readable fallback explanation).
type AIProvider interface {
	GenerateExplanation(ctx context.Context, prompt string, contextData map[string]any) map[string]any
}

// EmailMessage is the resolved message handed to the relay. All template
// interpolation happens before it is built.
type EmailMessage struct {
	To       string
	Cc       string
	Bcc      string
	From     string
	Subject  string
	Body     string
	UseHTML  bool
	Provider string
	DryRun   bool
}

type EmailResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	DryRun  bool   `json:"dryRun"`
	Error   string `json:"error,omitempty"`
}

type EmailProvider interface {
	Send(ctx context.Context, msg EmailMessage) (EmailResult, error)
}

// IndexingQuery is the flat parameter object shared by Token API style
// queries. Zero values mean "let the provider default".
type IndexingQuery struct {
	NetworkID      string `mapstructure:"networkId"`
	StartTime      int64  `mapstructure:"startTime"`
	EndTime        int64  `mapstructure:"endTime"`
	OrderBy        string `mapstructure:"orderBy"`
	OrderDirection string `mapstructure:"orderDirection"`
	Limit          int    `mapstructure:"limit"`
	Page           int    `mapstructure:"page"`

	// Optional filters, forwarded verbatim when set.
	Address     string `mapstructure:"address"`
	Contract    string `mapstructure:"contract"`
	Protocol    string `mapstructure:"protocol"`
	FromAddress string `mapstructure:"from"`
	ToAddress   string `mapstructure:"to"`
}

// IndexingProvider is the token/transfer/swap/NFT data API. Each method
// returns the provider's `{data: [...]}` payload or raises on transport
// failure; the corresponding block runners downgrade those errors to
// reported failures.
type IndexingProvider interface {
	BalancesByAddress(ctx context.Context, address string, q IndexingQuery) (map[string]any, error)
	TransferEvents(ctx context.Context, q IndexingQuery) (map[string]any, error)
	TokenHolders(ctx context.Context, contract string, q IndexingQuery) (map[string]any, error)
	TokenMetadata(ctx context.Context, contract, networkID string) (map[string]any, error)
	LiquidityPools(ctx context.Context, q IndexingQuery) (map[string]any, error)
	SwapEvents(ctx context.Context, q IndexingQuery) (map[string]any, error)
	NFTActivities(ctx context.Context, q IndexingQuery) (map[string]any, error)
	NFTCollection(ctx context.Context, contract, networkID string) (map[string]any, error)
}
