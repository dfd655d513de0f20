package workflowengine

import (
	"context"
	"strings"

	"github.com/aquanode/aqua-engine/model"
)

// CoinInfoProvider backs the coin-symbol variant of the token info block: a
// DEX pool snapshot (pair name, price, 24h change, volume, TVL) for a fixed
// pool address.
type CoinInfoProvider interface {
	PoolSnapshot(ctx context.Context, poolAddress string) (map[string]any, error)
}

// coinPoolAddresses is the fixed symbol to Uniswap V3 pool mapping used when
// a block selects a coin instead of a token address.
var coinPoolAddresses = map[string]string{
	"eth":  "0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640",
	"pepe": "0xcee31c846cbf003f4ceb5bbd234cba03c6e940c7",
	"shib": "0x2f62f2b4c5fcd7570a709dec05d68ea19c82a9ec",
}

type tokenInfoConfig struct {
	Chain          string `mapstructure:"chain"`
	Network        string `mapstructure:"network"`
	TokenAddress   string `mapstructure:"tokenAddress"`
	Coin           string `mapstructure:"coin"`
	IncludePrice   *bool  `mapstructure:"includePrice"`
	IncludeMetrics *bool  `mapstructure:"includeMetrics"`
}

type tokenInfoRunner struct {
	wallets  WalletRegistry
	coinInfo CoinInfoProvider
}

func (r *tokenInfoRunner) Type() model.BlockType    { return model.BlockTypeTokenInfo }
func (r *tokenInfoRunner) FailureMode() FailureMode { return FailureModeThrows }

func (r *tokenInfoRunner) Run(ctx context.Context, block *model.Block, ec *ExecutionContext) (BlockOutput, error) {
	var cfg tokenInfoConfig
	if err := decodeBlockConfig(block, &cfg); err != nil {
		return nil, err
	}

	if cfg.Coin != "" {
		return r.runCoinVariant(ctx, cfg)
	}

	if cfg.TokenAddress == "" {
		return nil, NewMissingRequiredFieldError("tokenAddress")
	}
	if cfg.Chain == "" {
		return nil, NewMissingRequiredFieldError("chain")
	}

	provider, err := r.wallets.Provider(cfg.Chain, cfg.Network)
	if err != nil {
		return nil, err
	}

	includePrice := cfg.IncludePrice == nil || *cfg.IncludePrice
	includeMetrics := cfg.IncludeMetrics == nil || *cfg.IncludeMetrics

	tokenInfo, err := provider.GetTokenInfo(ctx, cfg.TokenAddress, includePrice, includeMetrics)
	if err != nil {
		return nil, err
	}

	return BlockOutput{
		"type":         "token_info",
		"chain":        cfg.Chain,
		"tokenAddress": cfg.TokenAddress,
		"tokenInfo":    tokenInfo,
	}, nil
}

func (r *tokenInfoRunner) runCoinVariant(ctx context.Context, cfg tokenInfoConfig) (BlockOutput, error) {
	coin := strings.ToLower(cfg.Coin)
	poolAddress, ok := coinPoolAddresses[coin]
	if !ok {
		return nil, NewStructuredError(ErrCodeMissingCapability,
			"unsupported coin: "+coin,
			map[string]interface{}{"coin": coin})
	}

	if r.coinInfo == nil {
		return nil, NewMissingCapabilityError("coininfo")
	}

	snapshot, err := r.coinInfo.PoolSnapshot(ctx, poolAddress)
	if err != nil {
		return nil, err
	}

	return BlockOutput{
		"type":        "token_info",
		"coin":        strings.ToUpper(coin),
		"poolAddress": poolAddress,
		"tokenInfo":   snapshot,
	}, nil
}
