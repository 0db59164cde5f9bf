package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port           int      `mapstructure:"port"`
	LogLevel       string   `mapstructure:"log_level"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	DatabaseDriver string `mapstructure:"database_driver"` // sqlite | postgres
	DatabasePath   string `mapstructure:"database_path"`   // sqlite file path
	DatabaseDSN    string `mapstructure:"database_dsn"`    // postgres connection string

	JWTSecret string `mapstructure:"jwt_secret"`

	PlatformBaseURL    string `mapstructure:"platform_base_url"` // agent platform API
	PlatformAPIKey     string `mapstructure:"platform_api_key"`
	PlatformTimeoutSec int    `mapstructure:"platform_timeout_sec"`
	PlatformRetries    int    `mapstructure:"platform_retries"`

	RequestTimeoutSec  int `mapstructure:"request_timeout_sec"` // HTTP read/write; 0 = server default
	ShutdownTimeoutSec int `mapstructure:"shutdown_timeout_sec"`

	OTLPEndpoint string `mapstructure:"otlp_endpoint"` // empty = tracing disabled

	OIDCEnabled      bool   `mapstructure:"oidc_enabled"`
	OIDCIssuerURL    string `mapstructure:"oidc_issuer_url"`
	OIDCClientID     string `mapstructure:"oidc_client_id"`
	OIDCClientSecret string `mapstructure:"oidc_client_secret"`
	OIDCRedirectURL  string `mapstructure:"oidc_redirect_url"`
	OIDCScopes       string `mapstructure:"oidc_scopes"`       // comma-separated
	OIDCGroupClaim   string `mapstructure:"oidc_group_claim"`  // claim carrying group names
	OIDCRoleMapping  string `mapstructure:"oidc_role_mapping"` // JSON map of IdP group -> role
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/sentriq/")
	viper.AddConfigPath("$HOME/.sentriq")
	viper.AddConfigPath(".")

	// Defaults
	viper.SetDefault("port", 8080)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("allowed_origins", []string{"*"})
	viper.SetDefault("database_driver", "sqlite")
	viper.SetDefault("database_path", "./sentriq.db")
	viper.SetDefault("database_dsn", "")
	viper.SetDefault("jwt_secret", "")
	viper.SetDefault("platform_base_url", "http://localhost:9200")
	viper.SetDefault("platform_api_key", "")
	viper.SetDefault("platform_timeout_sec", 10)
	viper.SetDefault("platform_retries", 3)
	viper.SetDefault("request_timeout_sec", 30)
	viper.SetDefault("shutdown_timeout_sec", 15)
	viper.SetDefault("otlp_endpoint", "")
	viper.SetDefault("oidc_enabled", false)
	viper.SetDefault("oidc_issuer_url", "")
	viper.SetDefault("oidc_client_id", "")
	viper.SetDefault("oidc_client_secret", "")
	viper.SetDefault("oidc_redirect_url", "")
	viper.SetDefault("oidc_scopes", "openid,profile,email")
	viper.SetDefault("oidc_group_claim", "groups")
	viper.SetDefault("oidc_role_mapping", "")

	// Environment variables
	viper.SetEnvPrefix("SENTRIQ")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot serve requests safely.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseDriver == "postgres" && c.DatabaseDSN == "" {
		return fmt.Errorf("database_dsn is required for the postgres driver")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("jwt_secret must be at least 32 characters")
	}
	return nil
}
