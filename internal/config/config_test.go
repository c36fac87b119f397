package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "memory", cfg.DatabaseDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 1024, cfg.NotifyQueueSize)
	assert.False(t, cfg.RabbitMQEnabled)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Empty(t, cfg.AdminPassword)
	assert.False(t, cfg.SeedDemoData)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", ":9090")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("DATABASE_DSN", "file:apexify.db")
	t.Setenv("JWT_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "file:apexify.db", cfg.DatabaseDSN)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
}

func TestValidate(t *testing.T) {
	base := Config{DatabaseDriver: "memory", JWTSecret: "s", JWTTTL: time.Hour, NotifyQueueSize: 1}

	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.DatabaseDriver = "postgres" }, wantErr: "DATABASE_DSN"},
		{name: "unknown driver", mutate: func(c *Config) { c.DatabaseDriver = "mysql" }, wantErr: "unsupported"},
		{name: "empty secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "short admin password", mutate: func(c *Config) { c.AdminPassword = "abc" }, wantErr: "ADMIN_PASSWORD"},
		{name: "zero queue", mutate: func(c *Config) { c.NotifyQueueSize = 0 }, wantErr: "NOTIFY_QUEUE_SIZE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			if tc.mutate != nil {
				tc.mutate(&cfg)
			}
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
