// Package pricing fetches USD spot prices from the CoinGecko simple price
// API. Chain providers use it to augment token info when the block asks for
// a price.
package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/aquanode/aqua-engine/pkg/logger"
)

const (
	DefaultEndpoint = "https://api.coingecko.com/api/v3"

	// DefaultPlatform is the CoinGecko asset platform id used for contract
	// lookups when none is configured.
	DefaultPlatform = "oasis-sapphire"
)

type Config struct {
	Endpoint string
	APIKey   string
	Platform string
	Logger   logger.Logger
}

type Client struct {
	resty    *resty.Client
	platform string
	logger   logger.Logger
}

func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	platform := cfg.Platform
	if platform == "" {
		platform = DefaultPlatform
	}

	r := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		r.SetHeader("x-cg-demo-api-key", cfg.APIKey)
	}

	return &Client{
		resty:    r,
		platform: platform,
		logger:   logger.EnsureLogger(cfg.Logger),
	}
}

// TokenPrice returns the USD price for a token contract on the configured
// platform.
func (c *Client) TokenPrice(ctx context.Context, contract string) (float64, error) {
	contract = strings.ToLower(strings.TrimSpace(contract))
	if contract == "" {
		return 0, fmt.Errorf("contract address is required")
	}

	var prices map[string]map[string]float64
	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"contract_addresses": contract,
			"vs_currencies":      "usd",
		}).
		SetResult(&prices).
		Get("/simple/token_price/" + c.platform)
	if err != nil {
		return 0, fmt.Errorf("coingecko request failed: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("coingecko returned status %d", resp.StatusCode())
	}

	entry, ok := prices[contract]
	if !ok {
		return 0, fmt.Errorf("no price listed for %s", contract)
	}
	price, ok := entry["usd"]
	if !ok {
		return 0, fmt.Errorf("no usd quote for %s", contract)
	}
	return price, nil
}

// CoinPrice returns the USD price for a CoinGecko coin id, e.g. "sui".
func (c *Client) CoinPrice(ctx context.Context, coinID string) (float64, error) {
	coinID = strings.ToLower(strings.TrimSpace(coinID))
	if coinID == "" {
		return 0, fmt.Errorf("coin id is required")
	}

	var prices map[string]map[string]float64
	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":           coinID,
			"vs_currencies": "usd",
		}).
		SetResult(&prices).
		Get("/simple/price")
	if err != nil {
		return 0, fmt.Errorf("coingecko request failed: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("coingecko returned status %d", resp.StatusCode())
	}

	entry, ok := prices[coinID]
	if !ok {
		return 0, fmt.Errorf("no price listed for %s", coinID)
	}
	return entry["usd"], nil
}
