// Package config provides YAML configuration file loading and validation.
// It handles environment variable expansion, .env loading, environment
// overrides and ensures all required configuration fields are present.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. HYPERS_POLL_INTERVAL.
const EnvPrefix = "HYPERS"

// Config represents the root configuration structure loaded from YAML.
type Config struct {
	Providers []Provider `yaml:"providers"` // RPC endpoints serving the Blast chain
	Defaults  Defaults   `yaml:"defaults"`
	Contracts Contracts  `yaml:"contracts"`
	ABI       ABI        `yaml:"abi"`
	Price     Price      `yaml:"price"`
	Dashboard Dashboard  `yaml:"dashboard"`
	Logging   Logging    `yaml:"logging"`
}

// Provider represents a single RPC endpoint configuration.
// Each provider can have its own timeout, or it will inherit from Defaults.
type Provider struct {
	Name    string        `yaml:"name"`
	URL     string        `yaml:"url"` // supports ${VAR} env expansion
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Defaults contains transport settings shared by all providers.
type Defaults struct {
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	MaxRetries   int           `yaml:"max_retries" envconfig:"MAX_RETRIES"`
	ProbeSamples int           `yaml:"probe_samples" envconfig:"PROBE_SAMPLES"`
}

// Contracts holds the on-chain addresses the dashboard reads from.
type Contracts struct {
	Token     string `yaml:"token" envconfig:"TOKEN_CONTRACT"`
	Gas       string `yaml:"gas" envconfig:"GAS_CONTRACT"`
	Multicall string `yaml:"multicall" envconfig:"MULTICALL_CONTRACT"`
}

// ABI locates the two schema documents. An empty value selects the copy
// embedded in the binary; otherwise a file path or http(s) URL.
type ABI struct {
	Token string `yaml:"token" envconfig:"TOKEN_ABI"`
	Gas   string `yaml:"gas" envconfig:"GAS_ABI"`
}

// Price configures the ETH/USD oracle sources.
type Price struct {
	CoinGeckoURL     string        `yaml:"coingecko_url" envconfig:"COINGECKO_URL"`
	CryptoCompareURL string        `yaml:"cryptocompare_url" envconfig:"CRYPTOCOMPARE_URL"`
	RefreshInterval  time.Duration `yaml:"refresh_interval" envconfig:"PRICE_INTERVAL"`
	MinInterval      time.Duration `yaml:"min_interval" envconfig:"PRICE_MIN_INTERVAL"` // per-source request spacing
}

// Dashboard configures the poll loop and block window.
type Dashboard struct {
	PollInterval   time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL"`
	ForwardWindow  int           `yaml:"forward_window" envconfig:"FORWARD_WINDOW"`
	PageSize       int           `yaml:"page_size" envconfig:"PAGE_SIZE"`
	MinerBatchSize int           `yaml:"miner_batch_size" envconfig:"MINER_BATCH_SIZE"`
}

// Logging configures the logrus logger.
type Logging struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"` // text or json
}

// Default returns the configuration used by the reference dashboard.
func Default() *Config {
	return &Config{
		Providers: []Provider{{Name: "blast", URL: "https://rpc.blast.io"}},
		Defaults: Defaults{
			Timeout:      10 * time.Second,
			MaxRetries:   2,
			ProbeSamples: 3,
		},
		Contracts: Contracts{
			Token:     "0xF8797dB8a9EeD416Ca14e8dFaEde2BF4E1aabFC3",
			Gas:       "0x4300000000000000000000000000000000000002",
			Multicall: "0xcA11bde05977b3631167028862bE2a173976CA11",
		},
		Price: Price{
			CoinGeckoURL:     "https://api.coingecko.com/api/v3/simple/price?ids=ethereum&vs_currencies=usd",
			CryptoCompareURL: "https://min-api.cryptocompare.com/data/price?fsym=ETH&tsyms=USD",
			RefreshInterval:  60 * time.Second,
			MinInterval:      5 * time.Second,
		},
		Dashboard: Dashboard{
			PollInterval:   time.Second,
			ForwardWindow:  10,
			PageSize:       5,
			MinerBatchSize: 100,
		},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Validate validates the configuration and applies provider defaults.
// It may emit warnings (to stderr) for suspicious values but does not fail on warnings.
func (c *Config) Validate() error {
	if c.Defaults.Timeout <= 0 {
		return fmt.Errorf("defaults.timeout is required")
	}
	if c.Defaults.MaxRetries < 0 {
		return fmt.Errorf("defaults.max_retries must be >= 0")
	}
	if c.Defaults.ProbeSamples <= 0 {
		return fmt.Errorf("defaults.probe_samples must be > 0")
	}
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider is required")
	}

	for name, addr := range map[string]string{
		"contracts.token":     c.Contracts.Token,
		"contracts.gas":       c.Contracts.Gas,
		"contracts.multicall": c.Contracts.Multicall,
	} {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("%s: invalid address %q", name, addr)
		}
	}

	if c.Price.CoinGeckoURL == "" || c.Price.CryptoCompareURL == "" {
		return fmt.Errorf("price: both coingecko_url and cryptocompare_url are required")
	}
	if c.Price.RefreshInterval <= 0 {
		return fmt.Errorf("price.refresh_interval must be > 0")
	}
	if c.Dashboard.PollInterval <= 0 {
		return fmt.Errorf("dashboard.poll_interval must be > 0")
	}
	if c.Dashboard.ForwardWindow <= 0 || c.Dashboard.PageSize <= 0 {
		return fmt.Errorf("dashboard.forward_window and dashboard.page_size must be > 0")
	}
	if c.Dashboard.MinerBatchSize <= 0 {
		return fmt.Errorf("dashboard.miner_batch_size must be > 0")
	}

	warnTimeout := func(scope string, d time.Duration) {
		const low = 500 * time.Millisecond
		const high = 2 * time.Minute
		if d > 0 && d < low {
			fmt.Fprintf(os.Stderr, "Warning: %s timeout is very low (%s); requests may fail under normal network jitter\n", scope, d)
		}
		if d > high {
			fmt.Fprintf(os.Stderr, "Warning: %s timeout is very high (%s); a stuck cycle blocks the dashboard that long\n", scope, d)
		}
	}
	warnTimeout("defaults", c.Defaults.Timeout)

	for i := range c.Providers {
		p := &c.Providers[i]
		if p.Timeout == 0 {
			p.Timeout = c.Defaults.Timeout
		}
		if p.URL == "" {
			return fmt.Errorf("provider %s: url is required", p.Name)
		}
		u, err := url.Parse(p.URL)
		if err != nil {
			return fmt.Errorf("provider %s: invalid url: %w", p.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("provider %s: invalid url scheme %q (expected http or https)", p.Name, u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("provider %s: invalid url (missing host)", p.Name)
		}
		warnTimeout(fmt.Sprintf("provider %s", p.Name), p.Timeout)
	}

	return nil
}

// Load reads a YAML configuration file on top of Default(), expands ${VAR}
// references, applies HYPERS_* environment overrides and validates the result.
// An empty path skips the file and uses the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	sections := []interface{}{&cfg.Defaults, &cfg.Contracts, &cfg.ABI, &cfg.Price, &cfg.Dashboard, &cfg.Logging}
	for _, s := range sections {
		if err := envconfig.Process(EnvPrefix, s); err != nil {
			return fmt.Errorf("failed to apply environment: %w", err)
		}
	}
	return nil
}
