package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"RegimeWatch/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"500ms"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Feed struct {
		Symbol           string        `yaml:"symbol" default:"BTCUSDT" validate:"required"`
		WebSocketURL     string        `yaml:"websocket_url" default:"wss://stream.binance.com:9443" validate:"required"`
		DepthSpeed       string        `yaml:"depth_speed" default:"100ms" validate:"oneof=100ms 1000ms"`
		MaxRetries       int           `yaml:"max_retries" default:"5" validate:"gte=1"`
		RetryDelay       time.Duration `yaml:"retry_delay" default:"1s"`
		HandshakeTimeout time.Duration `yaml:"handshake_timeout" default:"10s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		PingInterval     time.Duration `yaml:"ping_interval" default:"15s"`
		QueueSize        int           `yaml:"queue_size" default:"4096" validate:"gte=1"`
	} `yaml:"feed"`
	Buffer struct {
		Minutes      int `yaml:"minutes" default:"5" validate:"gte=1"`
		DepthPerSec  int `yaml:"depth_per_sec" default:"10" validate:"gte=1"`
		TradesPerSec int `yaml:"trades_per_sec" default:"50" validate:"gte=1"`
	} `yaml:"buffer"`
	Engine struct {
		Interval    time.Duration `yaml:"interval" default:"1s"`
		SampleDT    float64       `yaml:"sample_dt" default:"0.1" validate:"gt=0"`
		WindowShort int           `yaml:"window_short" default:"60" validate:"gte=1"`
		WindowLong  int           `yaml:"window_long" default:"300" validate:"gte=1"`
		OFIWindow   int           `yaml:"ofi_window" default:"10" validate:"gte=1"`
		Alpha       float64       `yaml:"alpha" default:"0.1" validate:"gt=0,lte=1"`
		HistorySize int           `yaml:"history_size" default:"3600" validate:"gte=1"`
	} `yaml:"engine"`
	Regime struct {
		MuEps     float64 `yaml:"mu_eps" default:"0.00001"`
		SigmaLow  float64 `yaml:"sigma_low" default:"0.001"`
		SigmaMed  float64 `yaml:"sigma_med" default:"0.01"`
		SigmaHigh float64 `yaml:"sigma_high" default:"0.05"`
		KappaCrit float64 `yaml:"kappa_crit" default:"1.0"`
	} `yaml:"regime"`
	Alerts struct {
		RetryDelay time.Duration `yaml:"retry_delay" default:"1s"`
		Timeout    time.Duration `yaml:"timeout" default:"5s"`
		QueueSize  int           `yaml:"queue_size" default:"64" validate:"gte=1"`
		Burst      float64       `yaml:"burst" default:"5"`
		PerMinute  float64       `yaml:"per_minute" default:"6"`
	} `yaml:"alerts"`
	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Webhook struct {
		Enabled bool              `yaml:"enabled"`
		URL     string            `yaml:"url"`
		Headers map[string]string `yaml:"headers"`
	} `yaml:"webhook"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"regimewatch.transitions"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=gzip snappy lz4 zstd"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
	} `yaml:"kafka"`
	Snapshot struct {
		Backend string        `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
		TTL     time.Duration `yaml:"ttl" default:"1m"`
		Prefix  string        `yaml:"prefix" default:"regimewatch"`
	} `yaml:"snapshot"`
	Redis struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size" default:"10"`
	} `yaml:"redis"`
}

var validate = validator.New()

// Default returns a configuration populated only from struct defaults.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, applies defaults for missing keys and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOL"); v != "" {
		c.Feed.Symbol = v
	}
	if v := os.Getenv("FEED_WS_URL"); v != "" {
		c.Feed.WebSocketURL = v
	}
	if v := os.Getenv("FEED_MAX_RETRIES"); v != "" {
		c.Feed.MaxRetries = util.ParseIntDefault(v, c.Feed.MaxRetries)
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Feed.RetryDelay <= 0 {
		return fmt.Errorf("feed.retry_delay must be positive")
	}
	if c.Engine.Interval <= 0 {
		return fmt.Errorf("engine.interval must be positive")
	}
	if !(c.Regime.SigmaLow <= c.Regime.SigmaMed && c.Regime.SigmaMed <= c.Regime.SigmaHigh) {
		return fmt.Errorf("regime thresholds must satisfy sigma_low <= sigma_med <= sigma_high")
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id are required when telegram is enabled")
	}
	if c.Webhook.Enabled && c.Webhook.URL == "" {
		return fmt.Errorf("webhook.url is required when webhook is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}

// DepthCapacity is the depth ring size for the configured window.
func (c *Config) DepthCapacity() int {
	return c.Buffer.Minutes * 60 * c.Buffer.DepthPerSec
}

// TradeCapacity is the trade ring size for the configured window.
func (c *Config) TradeCapacity() int {
	return c.Buffer.Minutes * 60 * c.Buffer.TradesPerSec
}
