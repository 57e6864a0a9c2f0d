package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Source mode selects where the campaign id set comes from.
const (
	SourceModeChain    = "chain"
	SourceModeRegistry = "registry"
)

// DeploymentConfig represents deployments.json: the addresses of the
// contracts this oracle settles against.
type DeploymentConfig struct {
	ChainID   int64 `json:"chainId"`
	Contracts struct {
		Marketplace     string `json:"Marketplace"`
		SettlementToken string `json:"SettlementToken"`
	} `json:"contracts"`
}

// AppConfig ties together deployment info, chain credentials, and service
// settings. Missing required values are a startup failure, never a runtime
// retry condition.
type AppConfig struct {
	Deployment DeploymentConfig
	Chain      ChainConfig
	Registry   RegistryConfig
	Service    ServiceConfig
}

type ChainConfig struct {
	RPCURL         string
	PrivateKey     string
	ReceiptTimeout time.Duration
}

type RegistryConfig struct {
	BaseURL   string
	APIKey    string
	SourceTag string
}

type ServiceConfig struct {
	SourceMode   string
	PollInterval time.Duration
	ShareBps     int64
	OpsAddr      string
	PostgresDSN  string
}

const defaultDeploymentsPath = "deployments.json"

// Load aggregates configuration from disk and environment.
func Load() (*AppConfig, error) {
	deploymentsPath := envOr("DEPLOYMENTS_PATH", defaultDeploymentsPath)
	deployCfg, err := loadDeployments(deploymentsPath)
	if err != nil {
		return nil, fmt.Errorf("load deployments: %w", err)
	}

	cfg := &AppConfig{
		Deployment: *deployCfg,
		Chain: ChainConfig{
			RPCURL:         envOr("RPC_URL", ""),
			PrivateKey:     envOr("PRIVATE_KEY", ""),
			ReceiptTimeout: time.Duration(envOrInt("RECEIPT_TIMEOUT_SECONDS", 120)) * time.Second,
		},
		Registry: RegistryConfig{
			BaseURL:   envOr("REGISTRY_BASE_URL", ""),
			APIKey:    envOr("REGISTRY_API_KEY", ""),
			SourceTag: envOr("REGISTRY_SOURCE_TAG", "settlement-oracle"),
		},
		Service: ServiceConfig{
			SourceMode:   envOr("SOURCE_MODE", SourceModeChain),
			PollInterval: time.Duration(envOrInt("POLL_INTERVAL_SECONDS", 10)) * time.Second,
			ShareBps:     int64(envOrInt("SETTLEMENT_SHARE_BPS", 9000)),
			OpsAddr:      envOr("OPS_ADDR", ":9090"),
			PostgresDSN:  envOr("POSTGRES_DSN", ""),
		},
	}

	// Env wins over the deployments file for contract addresses.
	cfg.Deployment.Contracts.Marketplace = envOr("MARKETPLACE_ADDRESS", cfg.Deployment.Contracts.Marketplace)
	cfg.Deployment.Contracts.SettlementToken = envOr("TOKEN_ADDRESS", cfg.Deployment.Contracts.SettlementToken)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Chain.RPCURL == "" {
		return errors.New("RPC_URL is required")
	}
	if c.Chain.PrivateKey == "" {
		return errors.New("PRIVATE_KEY is required")
	}
	if c.Deployment.Contracts.Marketplace == "" {
		return errors.New("marketplace address is required (deployments.json or MARKETPLACE_ADDRESS)")
	}
	if c.Deployment.Contracts.SettlementToken == "" {
		return errors.New("settlement token address is required (deployments.json or TOKEN_ADDRESS)")
	}
	switch c.Service.SourceMode {
	case SourceModeChain:
	case SourceModeRegistry:
		if c.Registry.BaseURL == "" {
			return errors.New("REGISTRY_BASE_URL is required in registry mode")
		}
		if c.Registry.APIKey == "" {
			return errors.New("REGISTRY_API_KEY is required in registry mode")
		}
	default:
		return fmt.Errorf("unknown SOURCE_MODE %q", c.Service.SourceMode)
	}
	if c.Service.ShareBps <= 0 || c.Service.ShareBps > 10_000 {
		return fmt.Errorf("SETTLEMENT_SHARE_BPS must be in (0, 10000], got %d", c.Service.ShareBps)
	}
	return nil
}

// loadDeployments reads the deployments file; a missing file is tolerated so
// that pure-env deployments (addresses via MARKETPLACE_ADDRESS/TOKEN_ADDRESS)
// need no files on disk.
func loadDeployments(path string) (*DeploymentConfig, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &DeploymentConfig{}, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg DeploymentConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envOr(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return fallback
}
