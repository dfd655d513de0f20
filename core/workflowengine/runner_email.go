package workflowengine

import (
	"context"

	"github.com/aquanode/aqua-engine/model"
)

type sendEmailConfig struct {
	To       string `mapstructure:"to"`
	Cc       string `mapstructure:"cc"`
	Bcc      string `mapstructure:"bcc"`
	From     string `mapstructure:"from"`
	Subject  string `mapstructure:"subject"`
	Body     string `mapstructure:"body"`
	UseHTML  bool   `mapstructure:"useHtml"`
	Provider string `mapstructure:"provider"`
	DryRun   *bool  `mapstructure:"dryRun"`
}

// sendEmailRunner interpolates every string field against the run context
// before handing the message to the relay. Relay failures are reported in
// the result payload so a broken notification does not kill the workflow.
type sendEmailRunner struct {
	email EmailProvider
}

func (r *sendEmailRunner) Type() model.BlockType    { return model.BlockTypeSendEmail }
func (r *sendEmailRunner) FailureMode() FailureMode { return FailureModeReports }

func (r *sendEmailRunner) Run(ctx context.Context, block *model.Block, ec *ExecutionContext) (BlockOutput, error) {
	var cfg sendEmailConfig
	if err := decodeBlockConfig(block, &cfg); err != nil {
		return nil, err
	}
	if cfg.To == "" {
		return nil, NewMissingRequiredFieldError("to")
	}
	if cfg.Subject == "" {
		return nil, NewMissingRequiredFieldError("subject")
	}
	if cfg.Body == "" {
		return nil, NewMissingRequiredFieldError("body")
	}

	provider := cfg.Provider
	if provider == "" {
		provider = "Resend"
	}
	dryRun := cfg.DryRun == nil || *cfg.DryRun

	msg := EmailMessage{
		To:       Interpolate(cfg.To, ec),
		Cc:       Interpolate(cfg.Cc, ec),
		Bcc:      Interpolate(cfg.Bcc, ec),
		From:     Interpolate(cfg.From, ec),
		Subject:  Interpolate(cfg.Subject, ec),
		Body:     Interpolate(cfg.Body, ec),
		UseHTML:  cfg.UseHTML,
		Provider: provider,
		DryRun:   dryRun,
	}

	result, err := r.email.Send(ctx, msg)
	if err != nil {
		return BlockOutput{
			"type":   "send_email",
			"status": "failed",
			"to":     msg.To,
			"error":  err.Error(),
		}, nil
	}
	if !result.Success {
		return BlockOutput{
			"type":   "send_email",
			"status": "failed",
			"to":     msg.To,
			"error":  result.Error,
		}, nil
	}

	return BlockOutput{
		"type":      "send_email",
		"status":    "sent",
		"to":        msg.To,
		"subject":   msg.Subject,
		"messageId": result.ID,
		"dryRun":    result.DryRun,
	}, nil
}
