package config

import "time"

const (
	DefaultEnvironment = EnvironmentDevelopment

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "venivici"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort      = "5000"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultAllowedOrigins = "http://localhost:3000"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultPaystackBaseURL  = "https://api.paystack.co"
	DefaultPaystackCurrency = "NGN"
	DefaultPaystackChannels = "card,bank_transfer,ussd"
	DefaultPaystackTimeout  = 15 * time.Second
	MinPaystackTimeout      = 10 * time.Second
	MaxPaystackTimeout      = 30 * time.Second

	DefaultNotificationMode   = NotificationModeLog
	DefaultSMTPHost           = "smtp.gmail.com"
	DefaultSMTPPort           = 587
	DefaultNotificationsTopic = "booking-notifications"
	DefaultNotificationsDLQ   = "booking-notifications-dlq"
	DefaultNotifierGroupID    = "notifier"

	DefaultSweepSchedule  = "@every 10m"
	DefaultSweepMinAge    = 15 * time.Minute
	DefaultSweepBatchSize = 50
)
