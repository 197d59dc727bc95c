package config

import (
	"testing"
	"time"

	"decisionsim/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"STAGE_SET", "STORAGE_DRIVER", "STORAGE_PATH", "DATABASE_URL", "COLLECTOR_URL",
		"COLLECTOR_TIMEOUT", "SYNC_POLICY", "PORT", "COLLECTOR_PORT", "GIN_MODE", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "acao", cfg.Stages.Set)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "./data", cfg.Storage.Path)
	assert.Equal(t, 10*time.Second, cfg.Collector.Timeout)
	assert.Equal(t, SyncGated, cfg.Collector.SyncPolicy)
	assert.True(t, cfg.Collector.Offline())
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadCollector(t *testing.T) {
	clearEnv(t)
	t.Setenv("COLLECTOR_URL", "https://example.test/api/")
	t.Setenv("COLLECTOR_TIMEOUT", "3s")
	t.Setenv("SYNC_POLICY", "Optimistic")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/api", cfg.Collector.URL)
	assert.Equal(t, 3*time.Second, cfg.Collector.Timeout)
	assert.Equal(t, SyncOptimistic, cfg.Collector.SyncPolicy)
	assert.False(t, cfg.Collector.Offline())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"unknown driver":       {"STORAGE_DRIVER", "mongo"},
		"bad timeout":          {"COLLECTOR_TIMEOUT", "soon"},
		"bad sync policy":      {"SYNC_POLICY", "eventual"},
		"non numeric port":     {"PORT", "http"},
		"postgres without url": {"STORAGE_DRIVER", "postgres"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(env[0], env[1])

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
