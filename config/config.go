package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	CatalogAPI CatalogAPIConfig `mapstructure:"catalog_api"`
	Scraper    ScraperConfig
	Resolver   ResolverConfig
	Store      StoreConfig
	Refresh    RefreshConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogAPIConfig holds the structured product API configuration
type CatalogAPIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// ScraperConfig holds page-metadata scraper configuration
type ScraperConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// ResolverConfig holds identifier resolver configuration
type ResolverConfig struct {
	RedirectTimeout time.Duration `mapstructure:"redirect_timeout"`
	MaxRedirectHops int           `mapstructure:"max_redirect_hops"`
	LinkCacheTTL    time.Duration `mapstructure:"link_cache_ttl"`
}

// StoreConfig holds persistence configuration
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// RefreshConfig holds batch-refresh configuration
type RefreshConfig struct {
	Workers int `mapstructure:"workers"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shelfgear/")

	// Environment variable settings
	v.SetEnvPrefix("SHELFGEAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"https://*.shelfgear.app"})

	// Product API defaults. The empty api_key default registers the key so
	// the env var binds; validation rejects it if it stays empty.
	v.SetDefault("catalog_api.api_key", "")
	v.SetDefault("catalog_api.base_url", "https://productdata.shelfgear.app")

	// Scraper defaults
	v.SetDefault("scraper.timeout", "20s")

	// Resolver defaults
	v.SetDefault("resolver.redirect_timeout", "10s")
	v.SetDefault("resolver.max_redirect_hops", 4)
	v.SetDefault("resolver.link_cache_ttl", "24h")

	// Store defaults
	v.SetDefault("store.path", "shelfgear.db")

	// Refresh defaults
	v.SetDefault("refresh.workers", 4)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.CatalogAPI.APIKey == "" {
		return fmt.Errorf("product API key is required (set SHELFGEAR_CATALOG_API_API_KEY)")
	}

	if config.Store.Path == "" {
		return fmt.Errorf("store path must not be empty")
	}

	if config.Resolver.MaxRedirectHops < 1 || config.Resolver.MaxRedirectHops > 10 {
		return fmt.Errorf("resolver max_redirect_hops must be between 1 and 10, got: %d", config.Resolver.MaxRedirectHops)
	}

	return nil
}
