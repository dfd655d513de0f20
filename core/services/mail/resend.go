package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/oklog/ulid/v2"

	"github.com/aquanode/aqua-engine/core/workflowengine"
	"github.com/aquanode/aqua-engine/pkg/logger"
)

const (
	DefaultEndpoint = "https://api.resend.com"
	DefaultFrom     = "AquaNode <notifications@aquanode.io>"
)

type Config struct {
	Endpoint    string
	APIKey      string
	FromAddress string

	// ForceDryRun suppresses all outgoing mail regardless of what a block
	// asks for. Set from config in non-production environments.
	ForceDryRun bool

	Logger logger.Logger
}

// ResendService delivers workflow notification emails through the Resend
// HTTP API.
type ResendService struct {
	resty       *resty.Client
	fromAddress string
	forceDryRun bool
	logger      logger.Logger
}

func NewResendService(cfg Config) *ResendService {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	from := cfg.FromAddress
	if from == "" {
		from = DefaultFrom
	}

	return &ResendService{
		resty: resty.New().
			SetBaseURL(endpoint).
			SetTimeout(30 * time.Second).
			SetAuthToken(cfg.APIKey),
		fromAddress: from,
		forceDryRun: cfg.ForceDryRun,
		logger:      logger.EnsureLogger(cfg.Logger),
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Cc      []string `json:"cc,omitempty"`
	Bcc     []string `json:"bcc,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type sendResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

func (s *ResendService) Send(ctx context.Context, msg workflowengine.EmailMessage) (workflowengine.EmailResult, error) {
	recipients := splitRecipients(msg.To)
	if len(recipients) == 0 {
		return workflowengine.EmailResult{Success: false, Error: "no valid recipients"}, nil
	}

	if msg.DryRun || s.forceDryRun {
		s.logger.Info("dry run, suppressing email",
			"to", msg.To, "subject", msg.Subject)
		return workflowengine.EmailResult{
			Success: true,
			ID:      "dry-run-" + ulid.Make().String(),
			DryRun:  true,
		}, nil
	}

	from := msg.From
	if from == "" {
		from = s.fromAddress
	}

	body := sendRequest{
		From:    from,
		To:      recipients,
		Cc:      splitRecipients(msg.Cc),
		Bcc:     splitRecipients(msg.Bcc),
		Subject: msg.Subject,
	}
	if msg.UseHTML {
		body.HTML = msg.Body
	} else {
		body.Text = msg.Body
	}

	var result sendResponse
	var apiErr errorResponse

	resp, err := s.resty.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return workflowengine.EmailResult{}, fmt.Errorf("resend request failed: %w", err)
	}
	if resp.IsError() {
		message := apiErr.Message
		if message == "" {
			message = fmt.Sprintf("resend returned status %d", resp.StatusCode())
		}
		return workflowengine.EmailResult{Success: false, Error: message}, nil
	}

	s.logger.Info("email sent", "message_id", result.ID, "to", msg.To)
	return workflowengine.EmailResult{Success: true, ID: result.ID}, nil
}

// splitRecipients turns a comma separated recipient string into a clean list.
func splitRecipients(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var recipients []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			recipients = append(recipients, part)
		}
	}
	return recipients
}
