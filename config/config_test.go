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

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 300, cfg.Timeline.HomeTimelineCacheMax)
	assert.Equal(t, 100, cfg.Timeline.RemoteUserTimelineCacheMax)
	assert.Equal(t, 7*24*time.Hour, cfg.Timeline.KeyTTL)
	assert.Equal(t, 4, cfg.Fanout.Workers)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TIMELINE_REDIS_ADDR", "cache:6380")
	t.Setenv("TIMELINE_DATABASE_DRIVER", "sqlite")
	t.Setenv("TIMELINE_TIMELINE_HOME_TIMELINE_CACHE_MAX", "800")
	t.Setenv("TIMELINE_SENTRY_DSN", "https://key@sentry.example.com/1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 800, cfg.Timeline.HomeTimelineCacheMax)
	assert.Equal(t, "https://key@sentry.example.com/1", cfg.Sentry.DSN)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("TIMELINE_DATABASE_DRIVER", "mysql")

	_, err := Load()
	assert.Error(t, err)
}
