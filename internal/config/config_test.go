package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("P2PDESK_AUTH_JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.True(t, cfg.Storage.Seed)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 30*time.Second, cfg.Orders.SweepInterval)
	assert.Equal(t, "info", cfg.Log.Level)

	fee, err := cfg.Fee.Model()
	require.NoError(t, err)
	assert.True(t, fee.Enabled)
	assert.True(t, fee.Percentage.Equal(decimal.NewFromInt(1)))
	assert.False(t, fee.MinFee.Valid)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p2pdesk.yaml")
	content := `
server:
  addr: ":9090"
storage:
  driver: postgres
  postgres_url: postgres://localhost/p2pdesk
auth:
  jwt_secret: from-file
fee:
  percentage: "0.5"
  min_fee: "1"
  max_fee: "50"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("P2PDESK_SERVER_ADDR", ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr, "environment overrides the file")
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)

	fee, err := cfg.Fee.Model()
	require.NoError(t, err)
	assert.True(t, fee.Percentage.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, fee.MaxFee.Decimal.Equal(decimal.NewFromInt(50)))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Storage: StorageConfig{Driver: "memory"},
			Auth:    AuthConfig{JWTSecret: "s"},
			Orders:  OrdersConfig{SweepInterval: time.Second},
			Fee:     FeeConfig{Enabled: true, Percentage: "1"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"Valid", func(c *Config) {}, false},
		{"UnknownDriver", func(c *Config) { c.Storage.Driver = "mysql" }, true},
		{"PostgresWithoutURL", func(c *Config) { c.Storage.Driver = "postgres" }, true},
		{"MissingSecret", func(c *Config) { c.Auth.JWTSecret = "" }, true},
		{"ZeroSweep", func(c *Config) { c.Orders.SweepInterval = 0 }, true},
		{"BadPercentage", func(c *Config) { c.Fee.Percentage = "abc" }, true},
		{"NegativePercentage", func(c *Config) { c.Fee.Percentage = "-1" }, true},
		{"MinAboveMax", func(c *Config) { c.Fee.MinFee, c.Fee.MaxFee = "10", "5" }, true},
		{"SampleRatio", func(c *Config) { c.Telemetry.SampleRatio = 2 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
