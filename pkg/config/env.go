package config

const (
	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvSubmitWebhookURL    = "SUBMIT_WEBHOOK_URL"
	EnvSubmitWebhookSecret = "SUBMIT_WEBHOOK_SECRET"
	EnvSubmitSimulate      = "SUBMIT_SIMULATE"

	EnvDirectoryBaseURL      = "DIRECTORY_BASE_URL"
	EnvDirectoryAuthorityURL = "DIRECTORY_AUTHORITY_URL"
	EnvDirectoryTenantID     = "DIRECTORY_TENANT_ID"
	EnvDirectoryClientID     = "DIRECTORY_CLIENT_ID"
	EnvDirectoryClientSecret = "DIRECTORY_CLIENT_SECRET"
	EnvDirectoryEntitySet    = "DIRECTORY_ENTITY_SET"
	EnvTokenExpiryMargin     = "TOKEN_EXPIRY_MARGIN"

	EnvGeminiAPIKey  = "GEMINI_API_KEY"
	EnvGeminiModel   = "GEMINI_MODEL"
	EnvGeminiBaseURL = "GEMINI_BASE_URL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout  = "REQUEST_TIMEOUT"
	EnvUpstreamTimeout = "UPSTREAM_TIMEOUT"
	EnvIdempotencyTTL  = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize  = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvCORSAllowedOrigin = "CORS_ALLOWED_ORIGIN"
	EnvTrustedProxies    = "TRUSTED_PROXIES"
	EnvFacilitiesFile    = "FACILITIES_FILE"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvKafkaBrokers         = "KAFKA_BROKERS"
	EnvKafkaSubmissionTopic = "KAFKA_SUBMISSION_TOPIC"
)
