package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"offerwatch/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Logging     logging.Config    `mapstructure:"logging"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Vendors     []VendorConfig    `mapstructure:"vendors"`
	VendorHTTP  VendorHTTPConfig  `mapstructure:"vendor_http"`
	Breaker     BreakerConfig     `mapstructure:"breaker"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Queue       QueueConfig       `mapstructure:"queue"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Alerting    AlertingConfig    `mapstructure:"alerting"`
	Export      ExportConfig      `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// RedisConfig covers the shared key/value store and job broker. An empty
// addr disables Redis; the cache degrades to its in-process fallback and
// queueing becomes a no-op.
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// VendorConfig declares one upstream vendor endpoint.
type VendorConfig struct {
	ID      string `mapstructure:"id"`
	Format  string `mapstructure:"format"`
	BaseURL string `mapstructure:"base_url"`
}

// VendorHTTPConfig bounds each vendor call.
type VendorHTTPConfig struct {
	Retries            int           `mapstructure:"retries"`
	AttemptTimeout     time.Duration `mapstructure:"attempt_timeout"`
	RetryDelay         time.Duration `mapstructure:"retry_delay"`
	ExponentialBackoff bool          `mapstructure:"exponential_backoff"`
}

// BreakerConfig governs per-vendor circuit breakers.
type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
}

// AggregationConfig tunes the vendor fan-out.
type AggregationConfig struct {
	FreshnessWindow time.Duration `mapstructure:"freshness_window"`
}

// CacheConfig sets the product view cache behaviour.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// QueueConfig sets refresh job delivery behaviour.
type QueueConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	DequeueTimeout time.Duration `mapstructure:"dequeue_timeout"`
}

// SchedulerConfig governs the periodic bulk refresh.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToInterval bool          `mapstructure:"align_to_interval"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// AlertingConfig defines price-move alert thresholds and routing.
type AlertingConfig struct {
	Enabled      bool           `mapstructure:"enabled"`
	ThresholdPct float64        `mapstructure:"threshold_pct"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes Telegram delivery parameters.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OFFERWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.Vendors) == 0 {
		cfg.Vendors = defaultVendors()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "offerwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("redis.dial_timeout", "3s")

	v.SetDefault("vendor_http.retries", 2)
	v.SetDefault("vendor_http.attempt_timeout", "2s")
	v.SetDefault("vendor_http.retry_delay", "200ms")
	v.SetDefault("vendor_http.exponential_backoff", true)

	v.SetDefault("breaker.failure_threshold", 3)
	v.SetDefault("breaker.cooldown", "30s")

	v.SetDefault("aggregation.freshness_window", "10m")

	v.SetDefault("cache.ttl", "120s")

	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.dequeue_timeout", "5s")

	v.SetDefault("scheduler.interval", "30m")
	v.SetDefault("scheduler.align_to_interval", true)
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.threshold_pct", 5.0)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 10000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

// defaultVendors points at the local mock vendor server so a bare checkout
// works end to end.
func defaultVendors() []VendorConfig {
	return []VendorConfig{
		{ID: "vendor-a", Format: "alpha", BaseURL: "http://localhost:3000/mock/vendor-a"},
		{ID: "vendor-b", Format: "beta", BaseURL: "http://localhost:3000/mock/vendor-b"},
		{ID: "vendor-c", Format: "gamma", BaseURL: "http://localhost:3000/mock/vendor-c"},
	}
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.VendorHTTP.Retries < 0 {
		return fmt.Errorf("vendor_http.retries cannot be negative")
	}
	if c.VendorHTTP.AttemptTimeout <= 0 {
		return fmt.Errorf("vendor_http.attempt_timeout must be greater than zero")
	}
	if c.Breaker.FailureThreshold <= 0 {
		return fmt.Errorf("breaker.failure_threshold must be greater than zero")
	}
	if c.Breaker.Cooldown <= 0 {
		return fmt.Errorf("breaker.cooldown must be greater than zero")
	}
	if c.Aggregation.FreshnessWindow <= 0 {
		return fmt.Errorf("aggregation.freshness_window must be greater than zero")
	}
	if c.Queue.MaxAttempts <= 0 {
		return fmt.Errorf("queue.max_attempts must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Alerting.ThresholdPct < 0 {
		return fmt.Errorf("alerting.threshold_pct cannot be negative")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required when telegram is enabled")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required when telegram is enabled")
		}
	}
	seen := make(map[string]struct{}, len(c.Vendors))
	for _, vend := range c.Vendors {
		if vend.ID == "" {
			return fmt.Errorf("vendors[].id is required")
		}
		if _, dup := seen[vend.ID]; dup {
			return fmt.Errorf("duplicate vendor id %q", vend.ID)
		}
		seen[vend.ID] = struct{}{}
		if vend.BaseURL == "" {
			return fmt.Errorf("vendor %s: base_url is required", vend.ID)
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
