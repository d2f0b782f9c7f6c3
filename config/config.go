package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Search    SearchConfig    `yaml:"search"`
	Inventory InventoryConfig `yaml:"inventory"`
	Worker    WorkerConfig    `yaml:"worker"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers         []string `yaml:"brokers"`
	SeatEventsTopic string   `yaml:"seat_events_topic"`
	GroupID         string   `yaml:"group_id"`
}

// SearchConfig drives the flight search filter builder.
type SearchConfig struct {
	PriceCeiling    int    `yaml:"price_ceiling"`
	Timezone        string `yaml:"timezone"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

func (s SearchConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// Location resolves Timezone; departure times are stored in this zone.
func (s SearchConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

type InventoryConfig struct {
	LockTimeoutMs         int `yaml:"lock_timeout_ms"`
	OperationTimeoutMs    int `yaml:"operation_timeout_ms"`
	IdempotencyTTLSeconds int `yaml:"idempotency_ttl_seconds"`
}

func (i InventoryConfig) LockTimeout() time.Duration {
	return time.Duration(i.LockTimeoutMs) * time.Millisecond
}

func (i InventoryConfig) OperationTimeout() time.Duration {
	return time.Duration(i.OperationTimeoutMs) * time.Millisecond
}

func (i InventoryConfig) IdempotencyTTL() time.Duration {
	return time.Duration(i.IdempotencyTTLSeconds) * time.Second
}

type WorkerConfig struct {
	GaugeIntervalSeconds int    `yaml:"gauge_interval_seconds"`
	MetricsAddress       string `yaml:"metrics_address"`
}

func (w WorkerConfig) GaugeInterval() time.Duration {
	return time.Duration(w.GaugeIntervalSeconds) * time.Second
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":9090"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "flightbooking-worker"
	}
	if c.Search.PriceCeiling == 0 {
		c.Search.PriceCeiling = 20000
	}
	if c.Search.Timezone == "" {
		c.Search.Timezone = "UTC"
	}
	if c.Inventory.LockTimeoutMs == 0 {
		c.Inventory.LockTimeoutMs = 3000
	}
	if c.Inventory.OperationTimeoutMs == 0 {
		c.Inventory.OperationTimeoutMs = 10000
	}
	if c.Inventory.IdempotencyTTLSeconds == 0 {
		c.Inventory.IdempotencyTTLSeconds = 600
	}
	if c.Worker.GaugeIntervalSeconds == 0 {
		c.Worker.GaugeIntervalSeconds = 15
	}
	if c.Worker.MetricsAddress == "" {
		c.Worker.MetricsAddress = ":9101"
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Search.PriceCeiling < 0 {
		errs = append(errs, errors.New("search.price_ceiling must be >= 0"))
	}
	if _, err := c.Search.Location(); err != nil {
		errs = append(errs, fmt.Errorf("search.timezone: %w", err))
	}
	if c.Search.CacheTTLSeconds < 0 {
		errs = append(errs, errors.New("search.cache_ttl_seconds must be >= 0"))
	}
	if c.Inventory.LockTimeoutMs < 0 || c.Inventory.OperationTimeoutMs < 0 {
		errs = append(errs, errors.New("inventory timeouts must be >= 0"))
	}
	if c.Inventory.OperationTimeoutMs > 0 && c.Inventory.LockTimeoutMs > c.Inventory.OperationTimeoutMs {
		errs = append(errs, errors.New("inventory.lock_timeout_ms must not exceed operation_timeout_ms"))
	}
	return errors.Join(errs...)
}
