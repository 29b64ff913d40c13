package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultMongoDatabaseName = "roomly"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort        = "8080"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultEnvironment = "development"

	DefaultRedisURL = ""

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout     = 30 * time.Second
	DefaultTransactionTimeout = 10 * time.Second
	DefaultIdempotencyTTL     = 24 * time.Hour
	DefaultMaxRequestSize     = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultNotificationsEnabled  = false
	DefaultBookingEventsTopic    = "booking-events"
	DefaultNotificationsDLQTopic = "booking-events-dlq"
	DefaultNotificationsGroupID  = "roomly-notifications"
	DefaultNotifyTimeout         = 5 * time.Second
	DefaultNotifyRetries         = 3

	DefaultOTLPEndpoint = ""
)
