package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the post factory service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Session   SessionConfig   `mapstructure:"session"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug             bool          `mapstructure:"debug"`
	LogLevel          string        `mapstructure:"log_level"`
	MaxProcessingTime time.Duration `mapstructure:"max_processing_time"`
	MaxConcurrentRuns int           `mapstructure:"max_concurrent_runs"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LLMConfig configures the copywriting model provider
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // openai
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ToolsConfig configures the external tool adapters
type ToolsConfig struct {
	Scraper ScraperConfig `mapstructure:"scraper"`
	Search  SearchConfig  `mapstructure:"search"`
	Vision  VisionConfig  `mapstructure:"vision"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

// ScraperConfig configures the listing scraper
type ScraperConfig struct {
	Type      string        `mapstructure:"type"` // chromedp
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxImages int           `mapstructure:"max_images"`
}

// SearchConfig configures the web search tool used for site enrichment
type SearchConfig struct {
	Provider string        `mapstructure:"provider"` // serper, brave
	APIKey   string        `mapstructure:"api_key"`
	Results  int           `mapstructure:"results"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// VisionConfig configures the image annotation tool
type VisionConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Endpoint    string        `mapstructure:"endpoint"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Parallelism int           `mapstructure:"parallelism"`
}

// CacheConfig configures the optional redis cache for vision results.
// Leaving the address empty disables caching.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// SessionConfig configures the session store
type SessionConfig struct {
	Path      string `mapstructure:"path"`       // sqlite file; falls back to memory when unusable
	MaxEvents int    `mapstructure:"max_events"` // per-session event log compaction threshold
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func (c ScraperConfig) Validate() error {
	if c.Type != "" && c.Type != "chromedp" {
		return fmt.Errorf("tools.scraper.type must be chromedp, got %q", c.Type)
	}
	return nil
}

func (c SearchConfig) Validate() error {
	switch c.Provider {
	case "", "serper", "brave":
		return nil
	}
	return fmt.Errorf("tools.search.provider must be serper or brave, got %q", c.Provider)
}

// LoadConfig loads config from file (optional) plus POSTFACTORY_* env overrides
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.max_processing_time", 10*time.Minute)
	viper.SetDefault("general.max_concurrent_runs", 4)
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.max_tokens", 2000)
	viper.SetDefault("llm.timeout", 120*time.Second)
	viper.SetDefault("tools.scraper.type", "chromedp")
	viper.SetDefault("tools.scraper.timeout", 45*time.Second)
	viper.SetDefault("tools.scraper.max_images", 12)
	viper.SetDefault("tools.search.provider", "serper")
	viper.SetDefault("tools.search.results", 5)
	viper.SetDefault("tools.search.timeout", 15*time.Second)
	viper.SetDefault("tools.vision.endpoint", "https://vision.googleapis.com/v1/images:annotate")
	viper.SetDefault("tools.vision.timeout", 20*time.Second)
	viper.SetDefault("tools.vision.parallelism", 4)
	viper.SetDefault("tools.cache.ttl", 24*time.Hour)
	viper.SetDefault("session.path", "data/sessions.db")
	viper.SetDefault("session.max_events", 200)
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("POSTFACTORY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine (defaults + env); an unreadable explicit file is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	if err := config.Tools.Scraper.Validate(); err != nil {
		panic(err)
	}
	if err := config.Tools.Search.Validate(); err != nil {
		panic(err)
	}
	return &config
}
