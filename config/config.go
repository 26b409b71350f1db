package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// HTTP server
	Server ServerConfig `mapstructure:"server"`

	// Durable route backend (remote REST tabular store)
	Backend BackendConfig `mapstructure:"backend"`

	// Redirect behaviour
	Redirect RedirectConfig `mapstructure:"redirect"`

	// Write authentication
	Auth AuthConfig `mapstructure:"auth"`

	// Startup seeding of the fallback store
	Seed SeedConfig `mapstructure:"seed"`

	// Redis (rate limiting)
	Redis RedisConfig `mapstructure:"redis"`

	// PostgreSQL (scan analytics)
	Postgres PostgresConfig `mapstructure:"postgres"`

	// NATS (scan event stream)
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// Production reports whether this deployment is designated production.
func (c ServerConfig) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Table   string `mapstructure:"table"`
}

// Configured reports whether the durable backend should be used at all; it
// requires both the base URL and the access key.
func (c BackendConfig) Configured() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

type RedirectConfig struct {
	DefaultURL        string `mapstructure:"default_url"`
	BlockPrivateHosts bool   `mapstructure:"block_private_hosts"`
	AllowedHosts      string `mapstructure:"allowed_hosts"`
	NegativeGuard     bool   `mapstructure:"negative_guard"`
}

// Hosts splits the comma-separated allow-list, dropping empty entries.
func (c RedirectConfig) Hosts() []string {
	if c.AllowedHosts == "" {
		return nil
	}
	var hosts []string
	for _, h := range strings.Split(c.AllowedHosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

type AuthConfig struct {
	WriteToken        string `mapstructure:"write_token"`
	AllowUnauthWrites bool   `mapstructure:"allow_unauth_writes"`
}

type SeedConfig struct {
	File string `mapstructure:"file"`
	JSON string `mapstructure:"json"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Configured reports whether rate limiting should be wired.
func (c RedisConfig) Configured() bool {
	return c.Host != ""
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Port     int    `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32  `mapstructure:"max_conns"`
	MinConns        int32  `mapstructure:"min_conns"`
	MaxConnLifetime string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime string `mapstructure:"max_conn_idle_time"`
}

// Configured reports whether the scan analytics store should be wired.
func (c PostgresConfig) Configured() bool {
	return c.Host != "" && c.Database != ""
}

type NATSConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// Configured reports whether the scan event stream should be wired.
func (c NATSConfig) Configured() bool {
	return c.Host != ""
}

type PrometheusConfig struct {
	Port int `mapstructure:"port"`
}

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

	// Preserve flat env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.env", "development")
	v.SetDefault("backend.table", "qr_routes")
	v.SetDefault("redirect.block_private_hosts", true)
	v.SetDefault("redirect.negative_guard", true)
	v.SetDefault("prometheus.port", 9090)
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.env", "APP_ENV")

	// Durable backend
	v.BindEnv("backend.base_url", "QR_BACKEND_URL")
	v.BindEnv("backend.api_key", "QR_BACKEND_KEY")
	v.BindEnv("backend.table", "QR_BACKEND_TABLE")

	// Redirect behaviour
	v.BindEnv("redirect.default_url", "QR_DEFAULT_REDIRECT")
	v.BindEnv("redirect.block_private_hosts", "QR_BLOCK_PRIVATE_HOSTS")
	v.BindEnv("redirect.allowed_hosts", "QR_ALLOWED_HOSTS")
	v.BindEnv("redirect.negative_guard", "QR_NEGATIVE_GUARD")

	// Write authentication
	v.BindEnv("auth.write_token", "QR_WRITE_TOKEN")
	v.BindEnv("auth.allow_unauth_writes", "QR_ALLOW_UNAUTH_WRITES")

	// Seeding
	v.BindEnv("seed.file", "QR_SEED_FILE")
	v.BindEnv("seed.json", "QR_SEED_JSON")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")

	// Prometheus
	v.BindEnv("prometheus.port", "PROM_PORT")
}
