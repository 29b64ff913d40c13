package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort        = "PORT"
	EnvLogLevel    = "LOG_LEVEL"
	EnvLogFormat   = "LOG_FORMAT"
	EnvEnvironment = "ENVIRONMENT"

	EnvRedisURL = "REDIS_URL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout     = "REQUEST_TIMEOUT"
	EnvTransactionTimeout = "TRANSACTION_TIMEOUT"
	EnvIdempotencyTTL     = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize     = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvNotificationsEnabled  = "NOTIFICATIONS_ENABLED"
	EnvBookingEventsTopic    = "BOOKING_EVENTS_TOPIC"
	EnvNotificationsDLQTopic = "NOTIFICATIONS_DLQ_TOPIC"
	EnvNotificationsGroupID  = "NOTIFICATIONS_GROUP_ID"
	EnvNotifyTimeout         = "NOTIFY_TIMEOUT"
	EnvNotifyRetries         = "NOTIFY_RETRIES"

	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
)
