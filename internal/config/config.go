// Package config loads service configuration from an optional YAML file and
// P2PDESK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/xtrntr/p2pdesk/internal/auth"
	"github.com/xtrntr/p2pdesk/internal/fee"
	"github.com/xtrntr/p2pdesk/internal/logging"
	"github.com/xtrntr/p2pdesk/internal/models"
)

const envPrefix = "P2PDESK"

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Orders    OrdersConfig    `mapstructure:"orders"`
	Fee       FeeConfig       `mapstructure:"fee"`
	Events    EventsConfig    `mapstructure:"events"`
	Log       logging.Config  `mapstructure:"log"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	StaticDir       string        `mapstructure:"static_dir"` // admin pages
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	Driver      string `mapstructure:"driver"` // memory, postgres
	PostgresURL string `mapstructure:"postgres_url"`
	Migrations  string `mapstructure:"migrations"` // applied on startup with the postgres driver
	BlobPath    string `mapstructure:"blob_path"`  // sqlite file; empty keeps blobs in memory
	Seed        bool   `mapstructure:"seed"`       // load the starting catalog into memory storage
}

type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	AdminEmail        string        `mapstructure:"admin_email"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	SecureCookies     bool          `mapstructure:"secure_cookies"`
}

type OrdersConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// FeeConfig carries amounts as strings so they parse exactly.
type FeeConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Percentage string `mapstructure:"percentage"`
	MinFee     string `mapstructure:"min_fee"`
	MaxFee     string `mapstructure:"max_fee"`
}

type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"` // empty disables the bridge
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"` // empty disables tracing
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.static_dir", "web/admin")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.postgres_url", "")
	v.SetDefault("storage.migrations", "migrations/001_init.sql")
	v.SetDefault("storage.blob_path", "")
	v.SetDefault("storage.seed", true)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.admin_email", "")
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("auth.session_ttl", 24*time.Hour)
	v.SetDefault("auth.secure_cookies", false)

	v.SetDefault("orders.sweep_interval", 30*time.Second)

	v.SetDefault("fee.enabled", true)
	v.SetDefault("fee.percentage", "1")
	v.SetDefault("fee.min_fee", "")
	v.SetDefault("fee.max_fee", "")

	v.SetDefault("events.buffer_size", 64)

	d := logging.DefaultConfig()
	v.SetDefault("log.level", d.Level)
	v.SetDefault("log.console", d.Console)
	v.SetDefault("log.json", d.JSON)
	v.SetDefault("log.file_path", d.FilePath)
	v.SetDefault("log.max_size", d.MaxSize)
	v.SetDefault("log.max_backups", d.MaxBackups)
	v.SetDefault("log.max_age", d.MaxAge)

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "p2pdesk")

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "p2pdesk")
	v.SetDefault("telemetry.sample_ratio", 1.0)
}

// Load reads path (if non-empty) and applies environment overrides such as
// P2PDESK_AUTH_JWT_SECRET.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return errors.New("storage.postgres_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (must be 'memory' or 'postgres')", c.Storage.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required (set P2PDESK_AUTH_JWT_SECRET)")
	}
	if c.Orders.SweepInterval <= 0 {
		return errors.New("orders.sweep_interval must be positive")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return errors.New("telemetry.sample_ratio must be between 0 and 1")
	}

	feeCfg, err := c.Fee.Model()
	if err != nil {
		return err
	}
	return fee.Validate(feeCfg)
}

// Model converts the fee settings into a fee configuration.
func (f FeeConfig) Model() (models.FeeConfig, error) {
	out := models.FeeConfig{Enabled: f.Enabled, Percentage: decimal.Zero}
	if f.Percentage != "" {
		p, err := decimal.NewFromString(f.Percentage)
		if err != nil {
			return out, fmt.Errorf("fee.percentage: %w", err)
		}
		out.Percentage = p
	}
	var err error
	if out.MinFee, err = optionalDecimal("fee.min_fee", f.MinFee); err != nil {
		return out, err
	}
	if out.MaxFee, err = optionalDecimal("fee.max_fee", f.MaxFee); err != nil {
		return out, err
	}
	return out, nil
}

func optionalDecimal(name, s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%s: %w", name, err)
	}
	return decimal.NewNullDecimal(d), nil
}

// Service converts the settings for auth.NewAuthService.
func (a AuthConfig) Service() auth.Config {
	return auth.Config{
		Secret:            a.JWTSecret,
		TokenTTL:          a.TokenTTL,
		AdminEmail:        a.AdminEmail,
		AdminPasswordHash: a.AdminPasswordHash,
		SessionTTL:        a.SessionTTL,
	}
}
