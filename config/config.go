package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "PROPOSAL"

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Refinement RefinementConfig
	Cache      CacheConfig
	Matching   MatchingConfig
	Catalog    CatalogConfig
	Storage    StorageConfig
	Quote      QuoteConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RefinementConfig holds the optional LLM refinement provider configuration
type RefinementConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Provider          string        `mapstructure:"provider"` // "gemini" or "openai"
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Debug             bool          `mapstructure:"debug"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type      string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL  string        `mapstructure:"redis_url"`
	TTL       time.Duration `mapstructure:"ttl"` // 0 keeps results for the process lifetime
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// MatchingConfig holds deterministic matching configuration
type MatchingConfig struct {
	MaxMatches         int  `mapstructure:"max_matches"`
	MinScore           int  `mapstructure:"min_score"`
	EnableDebugLogging bool `mapstructure:"enable_debug_logging"`
}

// CatalogConfig points at the product catalog file (CSV or XLSX)
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// StorageConfig holds proposal persistence configuration
type StorageConfig struct {
	Type       string `mapstructure:"type"` // "memory" or "sqlite"
	SQLitePath string `mapstructure:"sqlite_path"`
}

// QuoteConfig holds pricing configuration
type QuoteConfig struct {
	TaxRate      float64 `mapstructure:"tax_rate"`
	NumberPrefix string  `mapstructure:"number_prefix"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/proposal-agent/")

	// Environment variable settings: server.port -> PROPOSAL_SERVER_PORT
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Comma separated lists from the environment arrive as a single element
	config.Server.AllowedOrigins = splitList(config.Server.AllowedOrigins)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads KEY=VALUE pairs from ./.env without overriding variables already set.
// A missing file is not an error.
func loadEnvFile() error {
	const path = ".env"
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	// Refinement defaults
	v.SetDefault("refinement.enabled", false)
	v.SetDefault("refinement.provider", "gemini")
	v.SetDefault("refinement.api_key", "")
	v.SetDefault("refinement.base_url", "")
	v.SetDefault("refinement.model", "")
	v.SetDefault("refinement.timeout", "15s")
	v.SetDefault("refinement.requests_per_minute", 60)
	v.SetDefault("refinement.debug", false)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "0s")
	v.SetDefault("cache.key_prefix", "proposal:analysis:")

	// Matching defaults
	v.SetDefault("matching.max_matches", 5)
	v.SetDefault("matching.min_score", 1)
	v.SetDefault("matching.enable_debug_logging", false)

	// Catalog defaults
	v.SetDefault("catalog.path", "data/products.csv")

	// Storage defaults
	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.sqlite_path", "proposals.db")

	// Quote defaults
	v.SetDefault("quote.tax_rate", 0.0825)
	v.SetDefault("quote.number_prefix", "BC-SEQ-")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Refinement.Enabled {
		if config.Refinement.APIKey == "" {
			return fmt.Errorf("refinement API key is required when refinement is enabled (set PROPOSAL_REFINEMENT_API_KEY)")
		}
		if p := config.Refinement.Provider; p != "gemini" && p != "openai" {
			return fmt.Errorf("refinement provider must be 'gemini' or 'openai', got: %s", p)
		}
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Storage.Type != "memory" && config.Storage.Type != "sqlite" {
		return fmt.Errorf("storage type must be 'memory' or 'sqlite', got: %s", config.Storage.Type)
	}

	if config.Storage.Type == "sqlite" && config.Storage.SQLitePath == "" {
		return fmt.Errorf("SQLite path is required when storage type is 'sqlite'")
	}

	if config.Matching.MaxMatches < 1 {
		return fmt.Errorf("matching.max_matches must be at least 1, got: %d", config.Matching.MaxMatches)
	}

	if config.Quote.TaxRate < 0 || config.Quote.TaxRate >= 1 {
		return fmt.Errorf("quote.tax_rate must be in [0, 1), got: %v", config.Quote.TaxRate)
	}

	if config.Log.Format != "json" && config.Log.Format != "console" {
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	return nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
