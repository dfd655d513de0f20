package ai

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/aquanode/aqua-engine/pkg/logger"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com"
	DefaultModel    = "gemini-pro"
)

// The model is asked to answer in a fixed section layout so the response can
// be parsed without a structured-output API.
const responseFormat = `Respond in exactly this format:
EXPLANATION: <one or two paragraphs explaining the situation in plain language>
INSIGHTS:
- <insight>
- <insight>
RECOMMENDATIONS:
- <recommendation>
- <recommendation>
CONFIDENCE: <a number between 0 and 1>`

const analystPreamble = "You are a DeFi portfolio analyst. Explain on-chain data for a non-expert. Be concrete, cite the numbers you were given, and never invent data that is not in the context."

var (
	explanationRe     = regexp.MustCompile(`(?s)EXPLANATION:\s*(.*?)\s*(?:INSIGHTS:|RECOMMENDATIONS:|CONFIDENCE:|$)`)
	insightsRe        = regexp.MustCompile(`(?s)INSIGHTS:\s*(.*?)\s*(?:RECOMMENDATIONS:|CONFIDENCE:|$)`)
	recommendationsRe = regexp.MustCompile(`(?s)RECOMMENDATIONS:\s*(.*?)\s*(?:CONFIDENCE:|$)`)
	confidenceRe      = regexp.MustCompile(`CONFIDENCE:\s*([0-9.]+)`)
)

type Config struct {
	Endpoint string
	APIKey   string
	Model    string
	Logger   logger.Logger
}

// GeminiService generates structured portfolio explanations. It never
// returns an error to the caller: any failure degrades to a success=false
// payload with a human-readable fallback, so a flaky model cannot take a
// workflow down.
type GeminiService struct {
	resty  *resty.Client
	apiKey string
	model  string
	logger logger.Logger
}

func NewGeminiService(cfg Config) *GeminiService {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &GeminiService{
		resty: resty.New().
			SetBaseURL(endpoint).
			SetTimeout(60 * time.Second),
		apiKey: cfg.APIKey,
		model:  model,
		logger: logger.EnsureLogger(cfg.Logger),
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *GeminiService) GenerateExplanation(ctx context.Context, prompt string, contextData map[string]any) map[string]any {
	text, err := s.generate(ctx, s.buildPrompt(prompt, contextData))
	if err != nil {
		s.logger.Error("gemini request failed, returning fallback", "error", err)
		return s.fallback(err.Error())
	}

	return s.parse(text)
}

func (s *GeminiService) buildPrompt(prompt string, contextData map[string]any) string {
	var sb strings.Builder
	sb.WriteString(analystPreamble)
	sb.WriteString("\n\n")

	if len(contextData) > 0 {
		if body, err := json.Marshal(contextData); err == nil {
			sb.WriteString("Context data:\n")
			sb.Write(body)
			sb.WriteString("\n\n")
		}
	}

	sb.WriteString("Question: ")
	sb.WriteString(prompt)
	sb.WriteString("\n\n")
	sb.WriteString(responseFormat)
	return sb.String()
}

func (s *GeminiService) generate(ctx context.Context, prompt string) (string, error) {
	var result generateResponse

	resp, err := s.resty.R().
		SetContext(ctx).
		SetQueryParam("key", s.apiKey).
		SetBody(generateRequest{
			Contents: []content{{Parts: []part{{Text: prompt}}}},
		}).
		SetResult(&result).
		Post("/v1beta/models/" + s.model + ":generateContent")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", &apiError{status: resp.StatusCode(), body: resp.String()}
	}
	if result.Error != nil {
		return "", &apiError{body: result.Error.Message}
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", &apiError{body: "empty response from model"}
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	if e.status > 0 {
		return "gemini: status " + strconv.Itoa(e.status) + ": " + e.body
	}
	return "gemini: " + e.body
}

// parse splits the model output into the fixed sections. A response that does
// not follow the layout at all still yields a usable payload: the whole text
// becomes the explanation.
func (s *GeminiService) parse(text string) map[string]any {
	explanation := strings.TrimSpace(text)
	if m := explanationRe.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "" {
		explanation = strings.TrimSpace(m[1])
	}

	insights := parseBullets(insightsRe, text)
	recommendations := parseBullets(recommendationsRe, text)

	confidence := 0.5
	if m := confidenceRe.FindStringSubmatch(text); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil && f >= 0 && f <= 1 {
			confidence = f
		}
	}

	if len(insights) == 0 {
		insights = []any{"No specific insights were extracted from the analysis."}
	}
	if len(recommendations) == 0 {
		recommendations = []any{"Review the explanation above and monitor your positions."}
	}

	return map[string]any{
		"success":         true,
		"explanation":     explanation,
		"insights":        insights,
		"recommendations": recommendations,
		"confidence":      confidence,
		"model":           s.model,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	}
}

func parseBullets(re *regexp.Regexp, text string) []any {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	var items []any
	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

func (s *GeminiService) fallback(reason string) map[string]any {
	return map[string]any{
		"success":         false,
		"error":           reason,
		"explanation":     "AI analysis is currently unavailable. Your workflow data was collected successfully; try running the analysis again later.",
		"insights":        []any{},
		"recommendations": []any{},
		"confidence":      0.0,
		"model":           s.model,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	}
}
