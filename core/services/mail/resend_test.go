package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aquanode/aqua-engine/core/workflowengine"
)

func TestSendDeliversMessage(t *testing.T) {
	var gotAuth string
	var gotBody sendRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "email-123"})
	}))
	defer server.Close()

	svc := NewResendService(Config{Endpoint: server.URL, APIKey: "re_test"})
	result, err := svc.Send(context.Background(), workflowengine.EmailMessage{
		To:      "a@example.com, b@example.com",
		Subject: "Balance alert",
		Body:    "You hold 50 SUI",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if !result.Success || result.ID != "email-123" {
		t.Errorf("unexpected result: %+v", result)
	}
	if gotAuth != "Bearer re_test" {
		t.Errorf("unexpected auth: %q", gotAuth)
	}
	if len(gotBody.To) != 2 || gotBody.To[1] != "b@example.com" {
		t.Errorf("recipient list not split: %v", gotBody.To)
	}
	if gotBody.From != DefaultFrom {
		t.Errorf("from should default: %q", gotBody.From)
	}
	if gotBody.Text != "You hold 50 SUI" || gotBody.HTML != "" {
		t.Errorf("plain text body expected: %+v", gotBody)
	}
}

func TestSendHTMLBody(t *testing.T) {
	var gotBody sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "email-1"})
	}))
	defer server.Close()

	svc := NewResendService(Config{Endpoint: server.URL})
	_, err := svc.Send(context.Background(), workflowengine.EmailMessage{
		To: "a@example.com", Subject: "s", Body: "<b>hi</b>", UseHTML: true,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotBody.HTML != "<b>hi</b>" || gotBody.Text != "" {
		t.Errorf("html body expected: %+v", gotBody)
	}
}

func TestSendDryRunSkipsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("dry run must not reach the relay")
	}))
	defer server.Close()

	svc := NewResendService(Config{Endpoint: server.URL})
	result, err := svc.Send(context.Background(), workflowengine.EmailMessage{
		To: "a@example.com", Subject: "s", Body: "b", DryRun: true,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !result.Success || !result.DryRun {
		t.Errorf("unexpected result: %+v", result)
	}
	if !strings.HasPrefix(result.ID, "dry-run-") {
		t.Errorf("dry run id expected: %q", result.ID)
	}
}

func TestSendForceDryRunOverridesBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("forced dry run must not reach the relay")
	}))
	defer server.Close()

	svc := NewResendService(Config{Endpoint: server.URL, ForceDryRun: true})
	result, err := svc.Send(context.Background(), workflowengine.EmailMessage{
		To: "a@example.com", Subject: "s", Body: "b", DryRun: false,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !result.DryRun {
		t.Errorf("forced dry run ignored: %+v", result)
	}
}

func TestSendRelayRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{"message": "invalid to address", "name": "validation_error"})
	}))
	defer server.Close()

	svc := NewResendService(Config{Endpoint: server.URL})
	result, err := svc.Send(context.Background(), workflowengine.EmailMessage{
		To: "nope", Subject: "s", Body: "b",
	})
	if err != nil {
		t.Fatalf("rejections should report, not error: %v", err)
	}
	if result.Success || result.Error != "invalid to address" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestSendNoRecipients(t *testing.T) {
	svc := NewResendService(Config{})
	result, err := svc.Send(context.Background(), workflowengine.EmailMessage{
		To: "  ,  ", Subject: "s", Body: "b",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if result.Success {
		t.Errorf("empty recipient list should fail: %+v", result)
	}
}
