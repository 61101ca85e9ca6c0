package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ZUVY_API_URL", "ZUVY_LLM_API_URL", "ZUVY_DB", "ZUVY_LOG_LEVEL", "ZUVY_LOG_FORMAT",
		"ZUVY_LOG_FILE", "ZUVY_HTTP_TIMEOUT", "ZUVY_SERVE_ADDR", "ZUVY_JWT_SECRET",
		"ZUVY_REDIS_URL", "ZUVY_KAFKA_BROKERS", "ZUVY_KAFKA_TOPIC", "ZUVY_LLM_PROVIDER",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.APIURL)
	assert.Equal(t, cfg.APIURL, cfg.LLMAPIURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.LLMEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ZUVY_API_URL", "https://api.example.com")
	t.Setenv("ZUVY_LLM_API_URL", "https://llm.example.com")
	t.Setenv("ZUVY_HTTP_TIMEOUT", "5s")
	t.Setenv("ZUVY_LOG_LEVEL", "DEBUG")
	t.Setenv("ZUVY_KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, "https://llm.example.com", cfg.LLMAPIURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.LLMEnabled())
	assert.Equal(t, "openai", cfg.LLM.Provider)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ZUVY_API_URL=https://file.example.com\n"), 0o600))
	// The file never overrides a variable that is already set, even to "".
	require.NoError(t, os.Unsetenv("ZUVY_API_URL"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com", cfg.APIURL)
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string][2]string{
		"bad url":      {"ZUVY_API_URL", "not a url"},
		"bad level":    {"ZUVY_LOG_LEVEL", "loud"},
		"bad timeout":  {"ZUVY_HTTP_TIMEOUT", "soon"},
		"zero timeout": {"ZUVY_HTTP_TIMEOUT", "0s"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLogPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	cfg := Default()
	p, err := cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "zuvy", "zuvy.log"), p)

	cfg.LogFile = "/var/log/z.log"
	p, err = cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, "/var/log/z.log", p)
}
