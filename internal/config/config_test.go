package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, "https://www.goodreads.com", cfg.CatalogURL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 20*time.Second, cfg.DetailTimeout)
	assert.Equal(t, 4, cfg.MaxInFlight)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.TorProxyAddr)
	assert.Empty(t, cfg.TelegramToken)
	assert.Empty(t, cfg.LogFile)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"CATALOG_URL":    "http://catalog.local:8081/",
		"TOR_PROXY":      " 127.0.0.1:9050 ",
		"HTTP_TIMEOUT":   "1m",
		"DETAIL_TIMEOUT": "5s",
		"MAX_IN_FLIGHT":  "8",
		"TELEGRAM_TOKEN": "123:abc",
		"HTTP_ADDR":      "127.0.0.1:9000",
		"LOG_LEVEL":      "DEBUG",
		"LOG_FILE":       "logs/bookscout.log",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://catalog.local:8081", cfg.CatalogURL)
	assert.Equal(t, "127.0.0.1:9050", cfg.TorProxyAddr)
	assert.Equal(t, time.Minute, cfg.HTTPTimeout)
	assert.Equal(t, 5*time.Second, cfg.DetailTimeout)
	assert.Equal(t, 8, cfg.MaxInFlight)
	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, filepath.IsAbs(cfg.LogFile))
	assert.Equal(t, "bookscout.log", filepath.Base(cfg.LogFile))
}

func TestFromEnvInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"relative catalog url": {"CATALOG_URL": "/search"},
		"bad timeout":          {"HTTP_TIMEOUT": "soon"},
		"negative timeout":     {"DETAIL_TIMEOUT": "-1s"},
		"zero in flight":       {"MAX_IN_FLIGHT": "0"},
		"non numeric":          {"MAX_IN_FLIGHT": "many"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(envOf(env))
			assert.Error(t, err)
		})
	}
}
