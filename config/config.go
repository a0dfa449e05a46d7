package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// HTTP application
	App AppConfig `mapstructure:"app"`

	// Logging
	Log LogConfig `mapstructure:"log"`

	// Storage backend selection
	Storage StorageConfig `mapstructure:"storage"`

	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`

	// Authentication
	Auth AuthConfig `mapstructure:"auth"`

	// Monetization
	Earnings   EarningsConfig   `mapstructure:"earnings"`
	Withdrawal WithdrawalConfig `mapstructure:"withdrawal"`
	Redirect   RedirectConfig   `mapstructure:"redirect"`
	RateTable  RateTableConfig  `mapstructure:"rate_table"`

	// Abuse protection
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Fraud     FraudConfig     `mapstructure:"fraud"`
}

type AppConfig struct {
	Env     string `mapstructure:"env"`
	Listen  string `mapstructure:"listen"`
	BaseURL string `mapstructure:"base_url"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Encoding   string `mapstructure:"encoding"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Port              int    `mapstructure:"port"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	MonitorPort int    `mapstructure:"monitor_port"`
}

type PrometheusConfig struct {
	Port           int    `mapstructure:"port"`
	Retention      string `mapstructure:"retention"`
	ScrapeInterval string `mapstructure:"scrape_interval"`
	Target         string `mapstructure:"target"`
}

type AuthConfig struct {
	JWTSecret   string   `mapstructure:"jwt_secret"`
	Issuer      string   `mapstructure:"issuer"`
	AdminEmails []string `mapstructure:"admin_emails"`
}

type EarningsConfig struct {
	DefaultCountry string `mapstructure:"default_country"`
	CountryHeader  string `mapstructure:"country_header"`
	MobileMarker   string `mapstructure:"mobile_marker"`
}

type WithdrawalConfig struct {
	MinimumAmount string `mapstructure:"minimum_amount"`
}

type RedirectConfig struct {
	// AttributionMode is "sync" (fail-closed) or "async" (JetStream).
	AttributionMode string `mapstructure:"attribution_mode"`
}

type RateTableConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

type FraudConfig struct {
	DedupWindow time.Duration `mapstructure:"dedup_window"`
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	AttributionSync  = "sync"
	AttributionAsync = "async"
)

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Redirect.AttributionMode {
	case AttributionSync, AttributionAsync:
	default:
		return fmt.Errorf("config: unknown attribution mode %q", c.Redirect.AttributionMode)
	}
	if c.Redirect.AttributionMode == AttributionAsync && c.Storage.Driver == StorageDriverMemory {
		return fmt.Errorf("config: async attribution requires the postgres storage driver")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret is required")
	}
	return nil
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.listen", ":8080")
	v.SetDefault("app.base_url", "http://localhost:8080")

	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)

	v.SetDefault("storage.driver", StorageDriverPostgres)

	v.SetDefault("prometheus.port", 9090)

	v.SetDefault("auth.issuer", "")

	v.SetDefault("earnings.default_country", "US")
	v.SetDefault("earnings.country_header", "CF-IPCountry")
	v.SetDefault("earnings.mobile_marker", "Mobile")

	v.SetDefault("withdrawal.minimum_amount", "10.00")

	v.SetDefault("redirect.attribution_mode", AttributionSync)

	v.SetDefault("rate_table.refresh_interval", 30*time.Second)

	v.SetDefault("rate_limit.max_requests", 100)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("fraud.dedup_window", 0)
}

func bindEnvVars(v *viper.Viper) {
	// Application
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.listen", "APP_LISTEN")
	v.BindEnv("app.base_url", "APP_BASE_URL")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.file", "LOG_FILE")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")
	v.BindEnv("nats.monitor_port", "NATS_MONITOR_PORT")

	// Prometheus
	v.BindEnv("prometheus.port", "PROM_PORT")
	v.BindEnv("prometheus.retention", "PROM_RETENTION")
	v.BindEnv("prometheus.scrape_interval", "PROM_SCRAPE_INTERVAL")
	v.BindEnv("prometheus.target", "PROM_TARGET")

	// Auth
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.issuer", "JWT_ISSUER")
	v.BindEnv("auth.admin_emails", "AUTH_ADMIN_EMAILS")

	// Monetization
	v.BindEnv("redirect.attribution_mode", "ATTRIBUTION_MODE")
	v.BindEnv("withdrawal.minimum_amount", "WITHDRAWAL_MINIMUM_AMOUNT")
	v.BindEnv("fraud.dedup_window", "FRAUD_DEDUP_WINDOW")
}
