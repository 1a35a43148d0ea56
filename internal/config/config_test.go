package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("AI_GATEWAY_API_KEY", "")
	t.Setenv("LOVABLE_API_KEY", "")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddress())
	assert.Equal(t, DefaultGatewayURL, cfg.GatewayURL)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, "gateway", cfg.Provider)
	assert.Equal(t, 60*time.Second, cfg.UpstreamTimeout)
	assert.True(t, cfg.DedupInFlight)
	assert.Equal(t, "log", cfg.Diagnostics.Sink)
	assert.False(t, cfg.HasCredential())
}

func TestLoadFromEnv_LegacyKeyFallback(t *testing.T) {
	t.Setenv("AI_GATEWAY_API_KEY", "")
	t.Setenv("LOVABLE_API_KEY", "legacy-key")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.APIKey)
	assert.True(t, cfg.HasCredential())

	t.Setenv("AI_GATEWAY_API_KEY", "primary-key")
	cfg, err = LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "primary-key", cfg.APIKey)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("UPSTREAM_TIMEOUT", "5s")
	t.Setenv("DEDUP_INFLIGHT", "false")
	t.Setenv("DIAGNOSTICS_SINK", "Kafka")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
	assert.False(t, cfg.DedupInFlight)
	assert.Equal(t, "kafka", cfg.Diagnostics.Sink)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Diagnostics.KafkaBrokers)
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric port", "PORT", "http"},
		{"port out of range", "PORT", "70000"},
		{"negative body size", "MAX_REQUEST_BODY_SIZE", "-1"},
		{"gateway url without host", "AI_GATEWAY_URL", "not a url"},
		{"gateway url with bad scheme", "AI_GATEWAY_URL", "ftp://example.com/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestValidate_StubSkipsGatewayChecks(t *testing.T) {
	cfg := &Config{
		Port:               "8080",
		MaxRequestBodySize: 1024,
		RequestTimeout:     time.Second,
		UpstreamTimeout:    time.Second,
		Provider:           "stub",
	}
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv_BlankLegacyKeyIsNoCredential(t *testing.T) {
	t.Setenv("AI_GATEWAY_API_KEY", "")
	t.Setenv("LOVABLE_API_KEY", "  \t ")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Empty(t, cfg.APIKey)
	assert.False(t, cfg.HasCredential())
}
