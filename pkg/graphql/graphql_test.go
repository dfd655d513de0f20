package graphql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRunDecodesData(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"pool": map[string]any{"id": "0xpool", "feeTier": "500"},
			},
		})
	}))
	defer server.Close()

	sb := &strings.Builder{}
	client, err := NewClient(server.URL, func(s string) { sb.WriteString(s) })
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	req := NewRequest(`query ($id: ID!) { pool(id: $id) { id feeTier } }`)
	req.Var("id", "0xpool")

	var resp struct {
		Pool struct {
			ID      string `json:"id"`
			FeeTier string `json:"feeTier"`
		} `json:"pool"`
	}
	if err := client.Run(context.Background(), req, &resp); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if resp.Pool.ID != "0xpool" || resp.Pool.FeeTier != "500" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if gotBody["query"] == "" {
		t.Error("query was not sent")
	}
	vars, _ := gotBody["variables"].(map[string]any)
	if vars["id"] != "0xpool" {
		t.Errorf("variables were not sent: %v", gotBody["variables"])
	}
	if sb.Len() == 0 {
		t.Error("log callback was never invoked")
	}
}

func TestRunSurfacesGraphErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"message": "field does not exist"}},
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	var resp map[string]any
	err = client.Run(context.Background(), NewRequest(`{ nope }`), &resp)
	if err == nil {
		t.Fatal("expected graphql error")
	}
	if !strings.Contains(err.Error(), "field does not exist") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	var resp map[string]any
	if err := client.Run(context.Background(), NewRequest(`{ ok }`), &resp); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	if _, err := NewClient("", nil); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}
