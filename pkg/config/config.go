package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/saramaebee/devrev-mcp/engine/core"
	"github.com/spf13/viper"
)

const (
	defaultConfigFileName = "devrev-mcp"
	defaultConfigType     = "yaml"
	defaultBaseURL        = "https://api.devrev.ai"

	// APIKeyEnvVar supplies the bearer token; it is never written to
	// the config file.
	APIKeyEnvVar = "DEVREV_API_KEY"
)

// Config represents the application configuration
type Config struct {
	DevRev   DevRevConfig   `mapstructure:"devrev" yaml:"devrev"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Retry    RetryConfig    `mapstructure:"retry" yaml:"retry"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
}

// DevRevConfig represents upstream API connection configuration
type DevRevConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string        `mapstructure:"api_key" yaml:"-"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// CacheConfig bounds the in-memory enrichment cache
type CacheConfig struct {
	MaxEntries int `mapstructure:"max_entries" yaml:"max_entries"`
}

// RetryConfig configures backoff for transient upstream failures
type RetryConfig struct {
	MaxAttempts  uint          `mapstructure:"max_attempts" yaml:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay" yaml:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
}

// DownloadConfig configures the artifact download tool
type DownloadConfig struct {
	// Dir is the default destination when a tool call omits one
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DevRev: DevRevConfig{
			BaseURL: defaultBaseURL,
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			MaxEntries: 500,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
		},
		Download: DownloadConfig{
			Dir: ".",
		},
	}
}

// Load loads configuration from a file, falling back to defaults when
// no file exists. The API key always comes from the environment.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		candidate := filepath.Join(".", defaultConfigFileName+"."+defaultConfigType)
		if _, err := os.Stat(candidate); err == nil {
			configPath = candidate
		}
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, core.NewError(
				fmt.Errorf("config file %s does not exist", configPath),
				core.ErrorCodeConfigInvalid,
				nil,
			)
		}

		v := viper.New()
		v.SetConfigFile(configPath)
		v.SetConfigType(defaultConfigType)
		v.SetEnvPrefix("DEVREV_MCP")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if cfg.DevRev.APIKey == "" {
		cfg.DevRev.APIKey = os.Getenv(APIKeyEnvVar)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid. The API key is checked
// separately by RequireAPIKey so read-only commands (version, init) work
// without credentials.
func (c *Config) Validate() error {
	if c.DevRev.BaseURL == "" {
		return validationError("devrev.base_url", "base URL cannot be empty")
	}
	if !strings.HasPrefix(c.DevRev.BaseURL, "http://") && !strings.HasPrefix(c.DevRev.BaseURL, "https://") {
		return validationError("devrev.base_url", "base URL must be an http(s) URL")
	}
	if c.DevRev.Timeout <= 0 {
		return validationError("devrev.timeout", "timeout must be positive")
	}
	if c.Cache.MaxEntries <= 0 {
		return validationError("cache.max_entries", "max_entries must be positive")
	}
	if c.Retry.MaxAttempts == 0 {
		return validationError("retry.max_attempts", "max_attempts must be at least 1")
	}
	if c.Retry.InitialDelay <= 0 || c.Retry.MaxDelay < c.Retry.InitialDelay {
		return validationError("retry", "delays must be positive and max_delay >= initial_delay")
	}
	return nil
}

// RequireAPIKey fails when no credential is configured
func (c *Config) RequireAPIKey() error {
	if c.DevRev.APIKey == "" {
		return core.NewError(
			fmt.Errorf("API authentication not configured: set %s", APIKeyEnvVar),
			core.ErrorCodeConfigInvalid,
			nil,
		)
	}
	return nil
}

func validationError(field, message string) error {
	return core.NewError(
		fmt.Errorf("%s: %s", field, message),
		core.ErrorCodeConfigInvalid,
		map[string]any{"field": field},
	)
}
