package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/aquanode/aqua-engine/pkg/logger"
)

// Config is the full engine configuration, read once at process start.
type Config struct {
	Environment logger.LogLevel `yaml:"environment"`

	HTTP      HTTPConfig      `yaml:"http"`
	Storage   StorageConfig   `yaml:"storage"`
	Chains    ChainsConfig    `yaml:"chains"`
	TokenAPI  TokenAPIConfig  `yaml:"token_api"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Resend    ResendConfig    `yaml:"resend"`
	CoinInfo  CoinInfoConfig  `yaml:"coin_info"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type HTTPConfig struct {
	BindAddress string `yaml:"bind_address" validate:"required"`
	JWTSecret   string `yaml:"jwt_secret"`
}

type StorageConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type ChainConfig struct {
	RPCURL  string `yaml:"rpc_url"`
	Network string `yaml:"network"`
}

type ChainsConfig struct {
	Sui      ChainConfig `yaml:"sui"`
	Sapphire ChainConfig `yaml:"sapphire"`
}

type TokenAPIConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type ResendConfig struct {
	APIKey      string `yaml:"api_key"`
	FromAddress string `yaml:"from_address"`
	DryRun      *bool  `yaml:"dry_run"`
}

type CoinInfoConfig struct {
	SubgraphURL string `yaml:"subgraph_url"`
}

type PricingConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Platform string `yaml:"platform"`
}

type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads and validates the YAML config at path. Missing optional
// sections fall back to defaults; a missing file is an error.
func Load(path string) (*Config, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(body, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Default returns a config that can run the engine locally with every
// external provider in dry-run or unauthenticated mode.
func Default() *Config {
	return &Config{
		Environment: logger.Development,
		HTTP: HTTPConfig{
			BindAddress: ":8080",
		},
		Storage: StorageConfig{
			Path: "/tmp/aqua-engine",
		},
		Chains: ChainsConfig{
			Sui: ChainConfig{
				RPCURL:  "https://fullnode.mainnet.sui.io",
				Network: "mainnet",
			},
			Sapphire: ChainConfig{
				Network: "mainnet",
			},
		},
		TokenAPI: TokenAPIConfig{
			Endpoint: "https://token-api.thegraph.com",
		},
		Gemini: GeminiConfig{
			Model: "gemini-pro",
		},
		CoinInfo: CoinInfoConfig{
			SubgraphURL: "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v3",
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
		},
	}
}

// ResendDryRun reports whether outgoing email should be suppressed. Dry run
// is the default; it must be switched off explicitly.
func (c *Config) ResendDryRun() bool {
	return c.Resend.DryRun == nil || *c.Resend.DryRun
}
