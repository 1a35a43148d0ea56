package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultGatewayURL = "https://ai.gateway.lovable.dev/v1/chat/completions"
	DefaultModel      = "google/gemini-2.5-flash"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	LogLevel           string

	// Upstream AI provider
	Provider        string
	GatewayURL      string
	APIKey          string
	Model           string
	UpstreamTimeout time.Duration
	DedupInFlight   bool

	Diagnostics DiagnosticsConfig
}

// DiagnosticsConfig selects where full model output is captured when it
// breaks the response contract.
type DiagnosticsConfig struct {
	Sink string

	AzureAccountName string
	AzureAccountKey  string
	AzureContainer   string

	S3Bucket string
	S3Prefix string

	KafkaBrokers []string
	KafkaTopic   string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// HasCredential reports whether the provider API key is present. A missing key
// does not stop the server; requests fail with a configuration error instead.
func (c *Config) HasCredential() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// LoadFromEnv reads configuration from the process environment, after merging
// an optional .env file from the working directory.
func LoadFromEnv() (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 90*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 20*1024*1024), // 20MB of base64
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),

		Provider:        strings.ToLower(getEnvOrDefault("AI_PROVIDER", "gateway")),
		GatewayURL:      getEnvOrDefault("AI_GATEWAY_URL", DefaultGatewayURL),
		APIKey:          getEnvOrDefault("AI_GATEWAY_API_KEY", strings.TrimSpace(os.Getenv("LOVABLE_API_KEY"))),
		Model:           getEnvOrDefault("AI_MODEL", DefaultModel),
		UpstreamTimeout: parseDurationOrDefault("UPSTREAM_TIMEOUT", 60*time.Second),
		DedupInFlight:   parseBoolOrDefault("DEDUP_INFLIGHT", true),

		Diagnostics: DiagnosticsConfig{
			Sink:             strings.ToLower(getEnvOrDefault("DIAGNOSTICS_SINK", "log")),
			AzureAccountName: os.Getenv("AZURE_STORAGE_ACCOUNT"),
			AzureAccountKey:  os.Getenv("AZURE_STORAGE_KEY"),
			AzureContainer:   getEnvOrDefault("AZURE_DIAGNOSTICS_CONTAINER", "model-diagnostics"),
			S3Bucket:         os.Getenv("S3_DIAGNOSTICS_BUCKET"),
			S3Prefix:         getEnvOrDefault("S3_DIAGNOSTICS_PREFIX", "diagnostics/"),
			KafkaBrokers:     parseListOrDefault("KAFKA_BROKERS", nil),
			KafkaTopic:       getEnvOrDefault("KAFKA_DIAGNOSTICS_TOPIC", "monument-contract-drift"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail at first use
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.UpstreamTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, upstream=%s)",
			c.RequestTimeout, c.UpstreamTimeout)
	}
	if c.Provider == "gateway" {
		u, err := url.Parse(c.GatewayURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("invalid AI_GATEWAY_URL: %q", c.GatewayURL)
		}
		if strings.TrimSpace(c.Model) == "" {
			return fmt.Errorf("AI_MODEL must not be empty")
		}
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
