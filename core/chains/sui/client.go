package sui

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultMainnetRPC = "https://fullnode.mainnet.sui.io"

// rpcClient is a minimal Sui JSON-RPC 2.0 client.
type rpcClient struct {
	resty *resty.Client
	reqID uint64
}

func newRPCClient(endpoint string) *rpcClient {
	return &rpcClient{
		resty: resty.New().
			SetBaseURL(endpoint).
			SetTimeout(30 * time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("sui rpc error %d: %s", e.Code, e.Message)
}

func (c *rpcClient) call(ctx context.Context, method string, params []any, result any) error {
	if params == nil {
		params = []any{}
	}

	var rpcResp rpcResponse
	resp, err := c.resty.R().
		SetContext(ctx).
		SetBody(rpcRequest{
			JSONRPC: "2.0",
			ID:      atomic.AddUint64(&c.reqID, 1),
			Method:  method,
			Params:  params,
		}).
		SetResult(&rpcResp).
		Post("")
	if err != nil {
		return fmt.Errorf("sui rpc request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sui rpc returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result == nil {
		return nil
	}

	return json.Unmarshal(rpcResp.Result, result)
}
