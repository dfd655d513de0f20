package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func geminiReply(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
}

func TestGenerateExplanationParsesSections(t *testing.T) {
	var gotPath string
	var gotBody generateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiReply(
			"EXPLANATION: Your SUI balance grew by 5% this week.\n" +
				"INSIGHTS:\n- Balance trending up\n- No outgoing transfers\n" +
				"RECOMMENDATIONS:\n- Consider staking idle SUI\n" +
				"CONFIDENCE: 0.85"))
	}))
	defer server.Close()

	svc := NewGeminiService(Config{Endpoint: server.URL, APIKey: "k", Model: "gemini-pro"})
	result := svc.GenerateExplanation(context.Background(), "How is my portfolio?", map[string]any{
		"portfolio": map[string]any{"nativeBalances": map[string]any{"SUI": 50.0}},
	})

	if gotPath != "/v1beta/models/gemini-pro:generateContent" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	sent := gotBody.Contents[0].Parts[0].Text
	if !strings.Contains(sent, "How is my portfolio?") {
		t.Error("prompt missing from request")
	}
	if !strings.Contains(sent, `"SUI":50`) {
		t.Error("context data missing from request")
	}

	if result["success"] != true {
		t.Fatalf("expected success, got %v", result)
	}
	if result["explanation"] != "Your SUI balance grew by 5% this week." {
		t.Errorf("unexpected explanation: %q", result["explanation"])
	}
	insights, _ := result["insights"].([]any)
	if len(insights) != 2 || insights[0] != "Balance trending up" {
		t.Errorf("unexpected insights: %v", insights)
	}
	recommendations, _ := result["recommendations"].([]any)
	if len(recommendations) != 1 || recommendations[0] != "Consider staking idle SUI" {
		t.Errorf("unexpected recommendations: %v", recommendations)
	}
	if result["confidence"] != 0.85 {
		t.Errorf("unexpected confidence: %v", result["confidence"])
	}
}

func TestGenerateExplanationUnstructuredText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiReply("The market looks calm today."))
	}))
	defer server.Close()

	svc := NewGeminiService(Config{Endpoint: server.URL})
	result := svc.GenerateExplanation(context.Background(), "Summarize", nil)

	if result["success"] != true {
		t.Fatalf("expected success, got %v", result)
	}
	if result["explanation"] != "The market looks calm today." {
		t.Errorf("whole text should become the explanation: %q", result["explanation"])
	}
	// Sections the model skipped get placeholder content.
	if insights, _ := result["insights"].([]any); len(insights) == 0 {
		t.Error("insights placeholder missing")
	}
	if result["confidence"] != 0.5 {
		t.Errorf("confidence should default to 0.5: %v", result["confidence"])
	}
}

func TestGenerateExplanationFallbackOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := NewGeminiService(Config{Endpoint: server.URL})
	result := svc.GenerateExplanation(context.Background(), "Summarize", nil)

	if result["success"] != false {
		t.Fatalf("expected fallback payload, got %v", result)
	}
	explanation, _ := result["explanation"].(string)
	if !strings.Contains(explanation, "currently unavailable") {
		t.Errorf("fallback explanation missing: %q", explanation)
	}
	if result["confidence"] != 0.0 {
		t.Errorf("fallback confidence should be 0: %v", result["confidence"])
	}
	if result["model"] != DefaultModel {
		t.Errorf("fallback should carry the model name: %v", result["model"])
	}
}

func TestGenerateExplanationEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer server.Close()

	svc := NewGeminiService(Config{Endpoint: server.URL})
	result := svc.GenerateExplanation(context.Background(), "Summarize", nil)

	if result["success"] != false {
		t.Fatalf("empty candidates should fall back: %v", result)
	}
}
