package cmd

import (
	"fmt"

	"github.com/aquanode/aqua-engine/core/chains"
	"github.com/aquanode/aqua-engine/core/chains/sapphire"
	"github.com/aquanode/aqua-engine/core/chains/sui"
	"github.com/aquanode/aqua-engine/core/config"
	"github.com/aquanode/aqua-engine/core/services/ai"
	"github.com/aquanode/aqua-engine/core/services/coininfo"
	"github.com/aquanode/aqua-engine/core/services/mail"
	"github.com/aquanode/aqua-engine/core/services/pricing"
	"github.com/aquanode/aqua-engine/core/workflowengine"
	"github.com/aquanode/aqua-engine/pkg/logger"
	"github.com/aquanode/aqua-engine/pkg/tokenapi"
)

// buildDependencies wires every capability provider from the loaded config.
func buildDependencies(cfg *config.Config, lg logger.Logger) (workflowengine.Dependencies, error) {
	prices := pricing.NewClient(pricing.Config{
		Endpoint: cfg.Pricing.Endpoint,
		APIKey:   cfg.Pricing.APIKey,
		Platform: cfg.Pricing.Platform,
		Logger:   lg,
	})

	registry := chains.NewRegistry()
	registry.Register(chains.ChainSui, sui.NewProvider(sui.Config{
		RPCURL: cfg.Chains.Sui.RPCURL,
		Logger: lg,
	}))

	sapphireProvider, err := sapphire.NewProvider(sapphire.Config{
		Network: cfg.Chains.Sapphire.Network,
		RPCURL:  cfg.Chains.Sapphire.RPCURL,
		Prices:  prices,
		Logger:  lg,
	})
	if err != nil {
		return workflowengine.Dependencies{}, fmt.Errorf("cannot build sapphire provider: %w", err)
	}
	registry.Register(chains.ChainSapphire, sapphireProvider)

	indexing, err := tokenapi.NewClient(tokenapi.Config{
		Endpoint: cfg.TokenAPI.Endpoint,
		APIKey:   cfg.TokenAPI.APIKey,
		Logger:   lg,
	})
	if err != nil {
		return workflowengine.Dependencies{}, fmt.Errorf("cannot build token api client: %w", err)
	}

	coinInfo, err := coininfo.NewService(cfg.CoinInfo.SubgraphURL, lg)
	if err != nil {
		return workflowengine.Dependencies{}, fmt.Errorf("cannot build coin info service: %w", err)
	}

	return workflowengine.Dependencies{
		Wallets: registry,
		AI: ai.NewGeminiService(ai.Config{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
			Logger: lg,
		}),
		Email: mail.NewResendService(mail.Config{
			APIKey:      cfg.Resend.APIKey,
			FromAddress: cfg.Resend.FromAddress,
			ForceDryRun: cfg.ResendDryRun(),
			Logger:      lg,
		}),
		Indexing: indexing,
		CoinInfo: coinInfo,
		Logger:   lg,
	}, nil
}

func mustLoadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	lg, err := logger.NewZapLogger(cfg.Environment)
	if err != nil {
		return nil, nil, err
	}

	return cfg, lg, nil
}
