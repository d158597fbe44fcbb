package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, []string{"https://app.bloodlink.example", "https://admin.bloodlink.example"}, cfg.Server.AllowedOrigins)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, "bloodlink", cfg.Database.Postgres.Database)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "bloodlink-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, 1440*time.Hour, cfg.Auth.Session.RefreshTTL)
	require.Equal(t, 64, cfg.Auth.Session.RefreshLength)

	require.True(t, cfg.Storage.S3.Enabled)
	require.Equal(t, "bloodlink-avatars", cfg.Storage.S3.Bucket)
	require.Equal(t, "eu-west-1", cfg.Storage.S3.Region)
	require.True(t, cfg.Storage.S3.UsePathStyle)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)

	require.Equal(t, 14, cfg.Maintenance.PostRetentionDays)
	require.Equal(t, "@every 30m", cfg.Maintenance.SessionSchedule)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 15*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, 48, cfg.Auth.Session.RefreshLength)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.Equal(t, "@hourly", cfg.Maintenance.SessionSchedule)
}

func TestApplyRuntimeDefaultsGeneratesSecret(t *testing.T) {
	cfg := &Config{}
	generated, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.True(t, generated["auth.jwt.secret"])
	require.NotEmpty(t, cfg.Auth.JWT.Secret)

	again, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Empty(t, again)
}
