package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultWatchlist is the liquid/volatile universe screened when no watchlist is configured.
var DefaultWatchlist = []string{
	"AAPL", "TSLA", "NVDA", "AMD", "META", "GOOGL", "MSFT", "AMZN",
	"NFLX", "BA", "JPM", "GS", "XOM", "PFE", "DIS", "COIN", "GME", "AMC",
}

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Screening struct {
		Watchlist    []string      `yaml:"watchlist"`
		TopN         int           `yaml:"top_n"`
		LookbackBars int           `yaml:"lookback_bars"`
		Concurrency  int           `yaml:"concurrency"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"screening"`
	Market struct {
		Provider             string        `yaml:"provider"`
		BaseURL              string        `yaml:"base_url"`
		DataDir              string        `yaml:"data_dir"`
		Timeout              time.Duration `yaml:"timeout"`
		MaxRequestsPerMinute int           `yaml:"max_requests_per_minute"`
		Cache                struct {
			Backend    string        `yaml:"backend"`
			HistoryTTL time.Duration `yaml:"history_ttl"`
			OptionsTTL time.Duration `yaml:"options_ttl"`
		} `yaml:"cache"`
	} `yaml:"market"`
	Earnings struct {
		Provider    string             `yaml:"provider"`
		URLTemplate string             `yaml:"url_template"`
		Timeout     time.Duration      `yaml:"timeout"`
		Static      map[string]float64 `yaml:"static"`
	} `yaml:"earnings"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"kafka"`
	API struct {
		RateLimit struct {
			Capacity     int     `yaml:"capacity"`
			RefillPerSec float64 `yaml:"refill_per_sec"`
		} `yaml:"rate_limit"`
	} `yaml:"api"`
}

// Default returns a configuration that runs without a config file.
func Default() *Config {
	c := &Config{}
	c.Metrics.Enabled = true
	c.applyDefaults()
	return c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, fills defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads .env (if present), the YAML file (if present) and applies
// environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	var (
		c   *Config
		err error
	)
	if path != "" {
		c, err = Load(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	if c == nil {
		c = Default()
	}

	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Screening.Watchlist = strings.Split(v, ",")
	}
	if v := os.Getenv("TOP_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Screening.TopN = n
		}
	}
	if v := os.Getenv("MARKET_PROVIDER"); v != "" {
		c.Market.Provider = v
	}
	if v := os.Getenv("MARKET_BASE_URL"); v != "" {
		c.Market.BaseURL = v
	}
	if v := os.Getenv("MARKET_DATA_DIR"); v != "" {
		c.Market.DataDir = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if len(c.Screening.Watchlist) == 0 {
		c.Screening.Watchlist = append([]string(nil), DefaultWatchlist...)
	}
	if c.Screening.TopN == 0 {
		c.Screening.TopN = 5
	}
	if c.Screening.LookbackBars == 0 {
		c.Screening.LookbackBars = 60
	}
	if c.Screening.Concurrency == 0 {
		c.Screening.Concurrency = 6
	}
	if c.Screening.Timeout == 0 {
		c.Screening.Timeout = 20 * time.Second
	}
	if c.Market.Provider == "" {
		c.Market.Provider = "http"
	}
	if c.Market.BaseURL == "" {
		c.Market.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Market.Timeout == 0 {
		c.Market.Timeout = 10 * time.Second
	}
	if c.Market.MaxRequestsPerMinute == 0 {
		c.Market.MaxRequestsPerMinute = 120
	}
	if c.Market.Cache.Backend == "" {
		c.Market.Cache.Backend = "memory"
	}
	if c.Market.Cache.HistoryTTL == 0 {
		c.Market.Cache.HistoryTTL = 5 * time.Minute
	}
	if c.Market.Cache.OptionsTTL == 0 {
		c.Market.Cache.OptionsTTL = 5 * time.Minute
	}
	if c.Earnings.Provider == "" {
		c.Earnings.Provider = "none"
	}
	if c.Earnings.Timeout == 0 {
		c.Earnings.Timeout = 5 * time.Second
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "volscreen"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "volscreen.results"
	}
	if c.Kafka.RequiredAcks == 0 {
		c.Kafka.RequiredAcks = -1
	}
	if c.Kafka.Compression == "" {
		c.Kafka.Compression = "gzip"
	}
	if c.Kafka.WriteTimeout == 0 {
		c.Kafka.WriteTimeout = 5 * time.Second
	}
	if c.API.RateLimit.Capacity == 0 {
		c.API.RateLimit.Capacity = 10
	}
	if c.API.RateLimit.RefillPerSec == 0 {
		c.API.RateLimit.RefillPerSec = 2
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Screening.TopN < 1 {
		return fmt.Errorf("screening.top_n must be >= 1, got %d", c.Screening.TopN)
	}
	if c.Screening.LookbackBars < 2 {
		return fmt.Errorf("screening.lookback_bars must be >= 2, got %d", c.Screening.LookbackBars)
	}
	if c.Screening.Concurrency < 1 {
		return fmt.Errorf("screening.concurrency must be >= 1, got %d", c.Screening.Concurrency)
	}
	switch c.Market.Provider {
	case "http":
		if c.Market.BaseURL == "" {
			return fmt.Errorf("market.base_url is required for the http provider")
		}
	case "csv":
		if c.Market.DataDir == "" {
			return fmt.Errorf("market.data_dir is required for the csv provider")
		}
	default:
		return fmt.Errorf("market.provider must be 'http' or 'csv', got '%s'", c.Market.Provider)
	}
	switch c.Market.Cache.Backend {
	case "none", "memory", "redis", "layered":
	default:
		return fmt.Errorf("market.cache.backend must be one of none, memory, redis, layered, got '%s'", c.Market.Cache.Backend)
	}
	switch c.Earnings.Provider {
	case "none", "static":
	case "html":
		if !strings.Contains(c.Earnings.URLTemplate, "%s") {
			return fmt.Errorf("earnings.url_template must contain %%s for the html provider")
		}
	default:
		return fmt.Errorf("earnings.provider must be one of none, html, static, got '%s'", c.Earnings.Provider)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
