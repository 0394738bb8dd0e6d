package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load("config-test")

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultDirectoryEntitySet, cfg.DirectoryEntitySet)
	assert.Equal(t, DefaultTokenExpiryMargin, cfg.TokenExpiryMargin)
	assert.Equal(t, DefaultRateLimitRequests, cfg.RateLimitRequests)
	assert.False(t, cfg.SubmitSimulate)
	assert.False(t, cfg.DirectoryConfigured())
	assert.Empty(t, cfg.KafkaBrokers)
	assert.NotNil(t, cfg.Client)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvSubmitSimulate, "true")
	t.Setenv(EnvDirectoryBaseURL, "https://org.example.com/")
	t.Setenv(EnvDirectoryTenantID, "tenant")
	t.Setenv(EnvDirectoryClientID, "client")
	t.Setenv(EnvDirectoryClientSecret, "secret")
	t.Setenv(EnvRateLimitWindow, "2m")
	t.Setenv(EnvRateLimitRequests, "not-a-number")
	t.Setenv(EnvKafkaBrokers, " kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv(EnvTrustedProxies, "10.0.0.0/8, 192.0.2.5")

	cfg := Load("config-test")

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.SubmitSimulate)
	assert.Equal(t, "https://org.example.com", cfg.DirectoryBaseURL)
	assert.True(t, cfg.DirectoryConfigured())
	assert.Equal(t, 2*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, DefaultRateLimitRequests, cfg.RateLimitRequests)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.5"}, cfg.TrustedProxies)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = "0" }, "Port must be between"},
		{"relative webhook", func(c *Config) { c.SubmitWebhookURL = "/submit?sig=abc" }, "SUBMIT_WEBHOOK_URL must be an absolute"},
		{"bad mongo scheme", func(c *Config) { c.MongoURI = "postgres://u:p@host" }, "MongoURI must start with"},
		{"kafka without topic", func(c *Config) {
			c.KafkaBrokers = []string{"k:9092"}
			c.KafkaSubmissionTopic = ""
		}, "KafkaSubmissionTopic cannot be empty"},
		{"bad trusted proxy", func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/99"} }, "TrustedProxies"},
		{"zero window", func(c *Config) { c.RateLimitWindow = 0 }, "RateLimitWindow must be positive"},
		{"zero limit", func(c *Config) { c.RateLimitRequests = 0 }, "RateLimitRequests must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load("config-test")
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRedaction(t *testing.T) {
	assert.Equal(t, "mongodb://***:***@db:27017", redactMongoURI("mongodb://user:pass@db:27017"))
	assert.Equal(t, "https://flow.example.com/trigger?***", redactURL("https://flow.example.com/trigger?sig=secret"))
	assert.Equal(t, "https://flow.example.com", redactURL("https://flow.example.com"))
}
