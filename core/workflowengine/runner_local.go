package workflowengine

import (
	"context"

	"github.com/aquanode/aqua-engine/model"
)

// embeddedWalletRunner and cronjobRunner are configuration-echo blocks: the
// actual wallet connection and scheduling are owned by the host, not the
// engine, so during a run they only assert shape and report their status.

type embeddedWalletConfig struct {
	Chain       string `mapstructure:"chain"`
	AutoConnect bool   `mapstructure:"autoConnect"`
}

type embeddedWalletRunner struct{}

func (r *embeddedWalletRunner) Type() model.BlockType    { return model.BlockTypeEmbeddedWallet }
func (r *embeddedWalletRunner) FailureMode() FailureMode { return FailureModeThrows }

func (r *embeddedWalletRunner) Run(ctx context.Context, block *model.Block, ec *ExecutionContext) (BlockOutput, error) {
	var cfg embeddedWalletConfig
	if err := decodeBlockConfig(block, &cfg); err != nil {
		return nil, err
	}

	return BlockOutput{
		"type":        "embedded_wallet",
		"chain":       cfg.Chain,
		"status":      "initialized",
		"autoConnect": cfg.AutoConnect,
	}, nil
}

type cronjobConfig struct {
	Interval int   `mapstructure:"interval"`
	Enabled  *bool `mapstructure:"enabled"`
	MaxRuns  int   `mapstructure:"maxRuns"`
}

type cronjobRunner struct{}

func (r *cronjobRunner) Type() model.BlockType    { return model.BlockTypeCronjob }
func (r *cronjobRunner) FailureMode() FailureMode { return FailureModeThrows }

func (r *cronjobRunner) Run(ctx context.Context, block *model.Block, ec *ExecutionContext) (BlockOutput, error) {
	var cfg cronjobConfig
	if err := decodeBlockConfig(block, &cfg); err != nil {
		return nil, err
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 5
	}
	enabled := cfg.Enabled == nil || *cfg.Enabled
	maxRuns := cfg.MaxRuns
	if maxRuns < 0 {
		maxRuns = 0
	}

	return BlockOutput{
		"type":     "cronjob",
		"interval": interval,
		"enabled":  enabled,
		"maxRuns":  maxRuns,
		"status":   "configured",
	}, nil
}
