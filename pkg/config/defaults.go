package config

import "time"

const (
	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultDirectoryAuthorityURL = "https://login.microsoftonline.com"
	DefaultDirectoryEntitySet    = "custodyrecords"
	DefaultTokenExpiryMargin     = 60 * time.Second

	DefaultGeminiModel   = "gemini-2.5-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 60 * time.Second

	DefaultRequestTimeout  = 30 * time.Second
	DefaultUpstreamTimeout = 15 * time.Second
	DefaultIdempotencyTTL  = 10 * time.Minute
	DefaultMaxRequestSize  = 64 * 1024 // 64KB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 35 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultCORSAllowedOrigin = "*"

	DefaultMongoDatabaseName = "attorney_visits"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultKafkaSubmissionTopic = "attorney-visit-submissions"
)
