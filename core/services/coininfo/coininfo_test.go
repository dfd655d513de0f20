package coininfo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func subgraphStub(t *testing.T, pool string, dayDatas string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Variables["id"] != "0xpool" {
			t.Errorf("unexpected pool id: %v", req.Variables["id"])
		}
		fmt.Fprintf(w, `{"data":{"pool":%s,"poolDayDatas":%s}}`, pool, dayDatas)
	}))
}

func TestPoolSnapshot(t *testing.T) {
	srv := subgraphStub(t,
		`{"token0":{"symbol":"WETH"},"token1":{"symbol":"USDC"},"token0Price":"3000","totalValueLockedUSD":"1234567.891"}`,
		`[{"date":1756512000,"token0Price":"3000","volumeUSD":"500000.123"},{"date":1756425600,"token0Price":"2400","volumeUSD":"400000"}]`,
	)
	defer srv.Close()

	svc, err := NewService(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	snap, err := svc.PoolSnapshot(context.Background(), "0xpool")
	if err != nil {
		t.Fatalf("PoolSnapshot: %v", err)
	}

	if snap["pairName"] != "WETH/USDC" {
		t.Errorf("unexpected pair name: %v", snap["pairName"])
	}
	if snap["currentPrice"] != 3000.0 {
		t.Errorf("unexpected price: %v", snap["currentPrice"])
	}
	// 2400 -> 3000 is a 25% move.
	if math.Abs(snap["priceChange24h"].(float64)-25) > 1e-9 {
		t.Errorf("unexpected 24h change: %v", snap["priceChange24h"])
	}
	if snap["volume24h"] != 500000.12 {
		t.Errorf("unexpected volume: %v", snap["volume24h"])
	}
	if snap["tvl"] != 1234567.89 {
		t.Errorf("unexpected tvl: %v", snap["tvl"])
	}
}

func TestPoolSnapshotNoHistory(t *testing.T) {
	srv := subgraphStub(t,
		`{"token0":{"symbol":"ROSE"},"token1":{"symbol":"USDT"},"token0Price":"0.08","totalValueLockedUSD":"1000"}`,
		`[]`,
	)
	defer srv.Close()

	svc, err := NewService(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	snap, err := svc.PoolSnapshot(context.Background(), "0xpool")
	if err != nil {
		t.Fatalf("PoolSnapshot: %v", err)
	}
	if snap["priceChange24h"] != 0.0 || snap["volume24h"] != 0.0 {
		t.Errorf("missing history should zero the 24h fields, got %+v", snap)
	}
}

func TestPoolSnapshotUnknownPool(t *testing.T) {
	srv := subgraphStub(t, `{"token0":{"symbol":""},"token1":{"symbol":""},"token0Price":"0","totalValueLockedUSD":"0"}`, `[]`)
	defer srv.Close()

	svc, err := NewService(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if _, err := svc.PoolSnapshot(context.Background(), "0xpool"); err == nil {
		t.Fatal("expected error for unknown pool")
	}
}
