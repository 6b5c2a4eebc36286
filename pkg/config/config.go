package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SourceConfig describes one external data source endpoint.
type SourceConfig struct {
	Name            string        `yaml:"name"`
	URL             string        `yaml:"url"`
	APIKey          string        `yaml:"api_key"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	ResponseTimeout time.Duration `yaml:"response_timeout"`
	Confidence      int           `yaml:"confidence"`
	// UnitShares is the share count per creation/redemption unit for the
	// tracked instrument (50,000 for SPY).
	UnitShares int64 `yaml:"unit_shares"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
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
	Collector struct {
		Enabled  bool          `yaml:"enabled"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"collector"`
	Sources struct {
		Primary SourceConfig   `yaml:"primary"`
		Backups []SourceConfig `yaml:"backups"`
	} `yaml:"sources"`
	Compute struct {
		Workers   int `yaml:"workers"`
		QueueSize int `yaml:"queue_size"`
	} `yaml:"compute"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Cache struct {
		Enabled   bool          `yaml:"enabled"`
		Host      string        `yaml:"host"`
		Port      int           `yaml:"port"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		Prefix    string        `yaml:"prefix"`
		LatestTTL time.Duration `yaml:"latest_ttl"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		MaxAttempts  int           `yaml:"max_attempts"`
	} `yaml:"kafka"`
	WebSocket struct {
		Path         string        `yaml:"path"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"websocket"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. A .env file next to the binary is honored when present.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load() // optional

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		for i := range c.Sources.Backups {
			if c.Sources.Backups[i].Name == "ALPHA_VANTAGE" {
				c.Sources.Backups[i].APIKey = v
			}
		}
	}
	if v := os.Getenv("COLLECT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Collector.Interval = d
		}
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Host = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Collector.Interval <= 0 {
		c.Collector.Interval = 5 * time.Minute
	}
	if c.Compute.Workers <= 0 {
		c.Compute.Workers = 4
	}
	if c.Compute.QueueSize <= 0 {
		c.Compute.QueueSize = 64
	}
	if c.WebSocket.Path == "" {
		c.WebSocket.Path = "/ws/spy"
	}
	if c.WebSocket.WriteTimeout <= 0 {
		c.WebSocket.WriteTimeout = 10 * time.Second
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "fundflow"
	}
	if c.Cache.LatestTTL <= 0 {
		c.Cache.LatestTTL = time.Minute
	}
	if c.Sources.Primary.UnitShares <= 0 {
		c.Sources.Primary.UnitShares = 50000
	}
	for i := range c.Sources.Backups {
		if c.Sources.Backups[i].UnitShares <= 0 {
			c.Sources.Backups[i].UnitShares = 50000
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Sources.Primary.Name == "" {
		return fmt.Errorf("sources.primary.name is required")
	}
	if c.Sources.Primary.URL == "" {
		return fmt.Errorf("sources.primary.url is required")
	}
	for i, b := range c.Sources.Backups {
		if b.Name == "" || b.URL == "" {
			return fmt.Errorf("sources.backups[%d] must set name and url", i)
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka is enabled")
	}
	return nil
}
