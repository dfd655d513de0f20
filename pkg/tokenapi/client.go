package tokenapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/go-resty/resty/v2"

	"github.com/aquanode/aqua-engine/core/workflowengine"
	"github.com/aquanode/aqua-engine/pkg/logger"
)

const (
	DefaultEndpoint = "https://token-api.thegraph.com"

	defaultLimit = 10
	maxLimit     = 1000

	metadataCacheTTL = 5 * time.Minute
)

// balanceNetworks are the EVM networks the balances endpoint accepts.
var balanceNetworks = map[string]bool{
	"arbitrum-one": true,
	"avalanche":    true,
	"base":         true,
	"bsc":          true,
	"mainnet":      true,
	"matic":        true,
	"optimism":     true,
	"unichain":     true,
}

type Config struct {
	Endpoint string
	APIKey   string
	Logger   logger.Logger
}

// Client queries The Graph Token API. It satisfies the engine's indexing
// provider contract; token metadata responses are cached in-process since
// they change rarely and workflows tend to poll them.
type Client struct {
	resty  *resty.Client
	cache  *bigcache.BigCache
	logger logger.Logger
}

func NewClient(cfg Config) (*Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	r := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		r.SetAuthToken(cfg.APIKey)
	}

	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(metadataCacheTTL))
	if err != nil {
		return nil, err
	}

	return &Client{
		resty:  r,
		cache:  cache,
		logger: logger.EnsureLogger(cfg.Logger),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string) (map[string]any, error) {
	var payload map[string]any

	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&payload).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("token api request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("token api returned status %d: %s", resp.StatusCode(), resp.String())
	}

	return payload, nil
}

// queryParams normalizes the shared pagination and ordering parameters.
func queryParams(q workflowengine.IndexingQuery) map[string]string {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	params := map[string]string{
		"network_id": networkOrDefault(q.NetworkID),
		"limit":      strconv.Itoa(limit),
		"page":       strconv.Itoa(page),
	}
	if q.StartTime > 0 {
		params["startTime"] = strconv.FormatInt(q.StartTime, 10)
	}
	if q.EndTime > 0 {
		params["endTime"] = strconv.FormatInt(q.EndTime, 10)
	}
	if q.OrderBy != "" {
		params["orderBy"] = q.OrderBy
	}
	if q.OrderDirection != "" {
		params["orderDirection"] = q.OrderDirection
	}
	return params
}

func networkOrDefault(networkID string) string {
	if networkID == "" {
		return "mainnet"
	}
	return networkID
}

func (c *Client) BalancesByAddress(ctx context.Context, address string, q workflowengine.IndexingQuery) (map[string]any, error) {
	network := networkOrDefault(q.NetworkID)
	if !balanceNetworks[network] {
		return nil, fmt.Errorf("network %s is not supported for balance queries", network)
	}

	return c.get(ctx, "/balances/evm/"+address, queryParams(q))
}

func (c *Client) TransferEvents(ctx context.Context, q workflowengine.IndexingQuery) (map[string]any, error) {
	params := queryParams(q)
	if q.Address != "" {
		params["address"] = q.Address
	}
	if q.Contract != "" {
		params["contract"] = q.Contract
	}
	if q.FromAddress != "" {
		params["from"] = q.FromAddress
	}
	if q.ToAddress != "" {
		params["to"] = q.ToAddress
	}

	return c.get(ctx, "/transfers/evm", params)
}

func (c *Client) TokenHolders(ctx context.Context, contract string, q workflowengine.IndexingQuery) (map[string]any, error) {
	return c.get(ctx, "/holders/evm/"+contract, queryParams(q))
}

func (c *Client) TokenMetadata(ctx context.Context, contract, networkID string) (map[string]any, error) {
	network := networkOrDefault(networkID)
	cacheKey := "meta:" + network + ":" + contract

	if cached, err := c.cache.Get(cacheKey); err == nil {
		var payload map[string]any
		if err := json.Unmarshal(cached, &payload); err == nil {
			return payload, nil
		}
	}

	payload, err := c.get(ctx, "/tokens/evm/"+contract, map[string]string{"network_id": network})
	if err != nil {
		return nil, err
	}

	if body, err := json.Marshal(payload); err == nil {
		if err := c.cache.Set(cacheKey, body); err != nil {
			c.logger.Debug("cannot cache token metadata", "contract", contract, "error", err)
		}
	}

	return payload, nil
}

func (c *Client) LiquidityPools(ctx context.Context, q workflowengine.IndexingQuery) (map[string]any, error) {
	params := queryParams(q)
	if q.Contract != "" {
		params["token"] = q.Contract
	}
	if q.Protocol != "" {
		params["protocol"] = q.Protocol
	}

	return c.get(ctx, "/pools/evm", params)
}

func (c *Client) SwapEvents(ctx context.Context, q workflowengine.IndexingQuery) (map[string]any, error) {
	params := queryParams(q)
	if q.Address != "" {
		params["caller"] = q.Address
	}
	if q.Contract != "" {
		params["pool"] = q.Contract
	}
	if q.Protocol != "" {
		params["protocol"] = q.Protocol
	}

	return c.get(ctx, "/swaps/evm", params)
}

func (c *Client) NFTActivities(ctx context.Context, q workflowengine.IndexingQuery) (map[string]any, error) {
	params := queryParams(q)
	if q.Address != "" {
		params["any"] = q.Address
	}
	if q.Contract != "" {
		params["contract"] = q.Contract
	}

	return c.get(ctx, "/nft/activities/evm", params)
}

func (c *Client) NFTCollection(ctx context.Context, contract, networkID string) (map[string]any, error) {
	return c.get(ctx, "/nft/collections/evm/"+contract, map[string]string{
		"network_id": networkOrDefault(networkID),
	})
}
