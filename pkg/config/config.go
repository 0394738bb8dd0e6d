package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"attorneyvisit/pkg/client"
	"attorneyvisit/pkg/logger"
	"attorneyvisit/pkg/middleware"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	SubmitWebhookURL    string
	SubmitWebhookSecret string
	SubmitSimulate      bool

	DirectoryBaseURL      string
	DirectoryAuthorityURL string
	DirectoryTenantID     string
	DirectoryClientID     string
	DirectoryClientSecret string
	DirectoryEntitySet    string
	TokenExpiryMargin     time.Duration

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout  time.Duration
	UpstreamTimeout time.Duration
	IdempotencyTTL  time.Duration
	MaxRequestSize  int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	CORSAllowedOrigin string
	TrustedProxies    []string
	FacilitiesFile    string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	KafkaBrokers         []string
	KafkaSubmissionTopic string

	Log    *logger.Logger
	Client *client.Client
}

// Load reads an optional .env file, then the process environment. Credentials
// for the workflow endpoint, the directory service and the model are optional
// here; each feature reports its own configuration error at request time.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnvStr(EnvPort, DefaultPort),

		SubmitWebhookURL:    getEnvStr(EnvSubmitWebhookURL, ""),
		SubmitWebhookSecret: getEnvStr(EnvSubmitWebhookSecret, ""),
		SubmitSimulate:      getEnvBool(EnvSubmitSimulate, false),

		DirectoryBaseURL:      strings.TrimSuffix(getEnvStr(EnvDirectoryBaseURL, ""), "/"),
		DirectoryAuthorityURL: strings.TrimSuffix(getEnvStr(EnvDirectoryAuthorityURL, DefaultDirectoryAuthorityURL), "/"),
		DirectoryTenantID:     getEnvStr(EnvDirectoryTenantID, ""),
		DirectoryClientID:     getEnvStr(EnvDirectoryClientID, ""),
		DirectoryClientSecret: getEnvStr(EnvDirectoryClientSecret, ""),
		DirectoryEntitySet:    getEnvStr(EnvDirectoryEntitySet, DefaultDirectoryEntitySet),
		TokenExpiryMargin:     getEnvDuration(EnvTokenExpiryMargin, DefaultTokenExpiryMargin),

		GeminiAPIKey:  getEnvStr(EnvGeminiAPIKey, ""),
		GeminiModel:   getEnvStr(EnvGeminiModel, DefaultGeminiModel),
		GeminiBaseURL: strings.TrimSuffix(getEnvStr(EnvGeminiBaseURL, DefaultGeminiBaseURL), "/"),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout:  getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		UpstreamTimeout: getEnvDuration(EnvUpstreamTimeout, DefaultUpstreamTimeout),
		IdempotencyTTL:  getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize:  getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		CORSAllowedOrigin: getEnvStr(EnvCORSAllowedOrigin, DefaultCORSAllowedOrigin),
		TrustedProxies:    getEnvList(EnvTrustedProxies),
		FacilitiesFile:    getEnvStr(EnvFacilitiesFile, ""),

		MongoURI:          getEnvStr(EnvMongoURI, ""),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		KafkaBrokers:         getEnvList(EnvKafkaBrokers),
		KafkaSubmissionTopic: getEnvStr(EnvKafkaSubmissionTopic, DefaultKafkaSubmissionTopic),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	if cfg.MongoURI == "" {
		return
	}
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) DirectoryConfigured() bool {
	return cfg.DirectoryBaseURL != "" && cfg.DirectoryTenantID != "" &&
		cfg.DirectoryClientID != "" && cfg.DirectoryClientSecret != ""
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	for name, raw := range map[string]string{
		EnvSubmitWebhookURL:      cfg.SubmitWebhookURL,
		EnvDirectoryBaseURL:      cfg.DirectoryBaseURL,
		EnvDirectoryAuthorityURL: cfg.DirectoryAuthorityURL,
		EnvGeminiBaseURL:         cfg.GeminiBaseURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("%s must be an absolute http(s) URL, got: %s", name, redactURL(raw)))
		}
	}

	if cfg.DirectoryEntitySet == "" {
		errors = append(errors, "DirectoryEntitySet cannot be empty")
	}

	if cfg.MongoURI != "" && !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoURI != "" && cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty when MongoURI is set")
	}
	if _, err := middleware.ParseTrustedProxies(cfg.TrustedProxies); err != nil {
		errors = append(errors, fmt.Sprintf("TrustedProxies: %v", err))
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSubmissionTopic == "" {
		errors = append(errors, "KafkaSubmissionTopic cannot be empty when KafkaBrokers is set")
	}

	for name, d := range map[string]time.Duration{
		"TokenExpiryMargin": cfg.TokenExpiryMargin,
		"MongoConnTimeout":  cfg.MongoConnTimeout,
		"RateLimitWindow":   cfg.RateLimitWindow,
		"RequestTimeout":    cfg.RequestTimeout,
		"UpstreamTimeout":   cfg.UpstreamTimeout,
		"IdempotencyTTL":    cfg.IdempotencyTTL,
		"ReadTimeout":       cfg.ReadTimeout,
		"WriteTimeout":      cfg.WriteTimeout,
		"IdleTimeout":       cfg.IdleTimeout,
		"ShutdownTimeout":   cfg.ShutdownTimeout,
	} {
		if d <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"submit_webhook_set", cfg.SubmitWebhookURL != "",
		"submit_webhook_secret_set", cfg.SubmitWebhookSecret != "",
		"submit_simulate", cfg.SubmitSimulate,
		"directory_base_url", cfg.DirectoryBaseURL,
		"directory_entity_set", cfg.DirectoryEntitySet,
		"directory_configured", cfg.DirectoryConfigured(),
		"token_expiry_margin", cfg.TokenExpiryMargin,
		"gemini_key_set", cfg.GeminiAPIKey != "",
		"gemini_model", cfg.GeminiModel,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"upstream_timeout", cfg.UpstreamTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"cors_allowed_origin", cfg.CORSAllowedOrigin,
		"trusted_proxies", cfg.TrustedProxies,
		"facilities_file", cfg.FacilitiesFile,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"kafka_brokers", cfg.KafkaBrokers,
		"kafka_submission_topic", cfg.KafkaSubmissionTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

// redactURL drops the query string, which for workflow triggers carries the
// signature.
func redactURL(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i] + "?***"
	}
	return raw
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}
