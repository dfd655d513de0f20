package coininfo

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aquanode/aqua-engine/pkg/graphql"
	"github.com/aquanode/aqua-engine/pkg/logger"
)

const poolQuery = `
query ($id: ID!) {
	pool(id: $id) {
		token0 { symbol }
		token1 { symbol }
		token0Price
		totalValueLockedUSD
	}
	poolDayDatas(first: 2, orderBy: date, orderDirection: desc, where: { pool: $id }) {
		date
		token0Price
		volumeUSD
	}
}`

type poolResponse struct {
	Pool struct {
		Token0 struct {
			Symbol string `json:"symbol"`
		} `json:"token0"`
		Token1 struct {
			Symbol string `json:"symbol"`
		} `json:"token1"`
		Token0Price         string `json:"token0Price"`
		TotalValueLockedUSD string `json:"totalValueLockedUSD"`
	} `json:"pool"`
	PoolDayDatas []struct {
		Date        int64  `json:"date"`
		Token0Price string `json:"token0Price"`
		VolumeUSD   string `json:"volumeUSD"`
	} `json:"poolDayDatas"`
}

// Service reads DEX pool snapshots from the Uniswap V3 subgraph. It backs
// the coin-symbol variant of token info blocks.
type Service struct {
	client *graphql.Client
	logger logger.Logger
}

func NewService(subgraphURL string, lg logger.Logger) (*Service, error) {
	lg = logger.EnsureLogger(lg)

	client, err := graphql.NewClient(subgraphURL, func(s string) {
		lg.Debug("subgraph", "message", s)
	})
	if err != nil {
		return nil, err
	}

	return &Service{client: client, logger: lg}, nil
}

// PoolSnapshot returns the pair name, spot price, 24h change, 24h volume,
// and TVL for a pool.
func (s *Service) PoolSnapshot(ctx context.Context, poolAddress string) (map[string]any, error) {
	req := graphql.NewRequest(poolQuery)
	req.Var("id", poolAddress)

	var resp poolResponse
	if err := s.client.Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("subgraph query failed: %w", err)
	}
	if resp.Pool.Token0.Symbol == "" && resp.Pool.Token1.Symbol == "" {
		return nil, fmt.Errorf("pool %s not found in subgraph", poolAddress)
	}

	currentPrice := parseDecimal(resp.Pool.Token0Price)
	tvl := parseDecimal(resp.Pool.TotalValueLockedUSD)

	volume24h := decimal.Zero
	priceChange24h := decimal.Zero
	if len(resp.PoolDayDatas) > 0 {
		volume24h = parseDecimal(resp.PoolDayDatas[0].VolumeUSD)
	}
	if len(resp.PoolDayDatas) > 1 {
		previous := parseDecimal(resp.PoolDayDatas[1].Token0Price)
		if !previous.IsZero() {
			priceChange24h = currentPrice.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100))
		}
	}

	return map[string]any{
		"pairName":       resp.Pool.Token0.Symbol + "/" + resp.Pool.Token1.Symbol,
		"currentPrice":   currentPrice.InexactFloat64(),
		"priceChange24h": priceChange24h.Round(2).InexactFloat64(),
		"volume24h":      volume24h.Round(2).InexactFloat64(),
		"tvl":            tvl.Round(2).InexactFloat64(),
	}, nil
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
