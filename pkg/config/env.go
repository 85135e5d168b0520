package config

const (
	EnvEnvironment = "APP_ENV"

	EnvMongoURI          = "MONGODB_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvAllowedOrigins = "CORS_ALLOWED_ORIGINS"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvPaystackSecretKey     = "PAYSTACK_SECRET_KEY"
	EnvPaystackWebhookSecret = "PAYSTACK_WEBHOOK_SECRET"
	EnvPaystackBaseURL       = "PAYSTACK_BASE_URL"
	EnvPaystackCallbackURL   = "PAYSTACK_CALLBACK_URL"
	EnvPaystackCurrency      = "PAYSTACK_CURRENCY"
	EnvPaystackChannels      = "PAYSTACK_CHANNELS"
	EnvPaystackTimeout       = "PAYSTACK_TIMEOUT"

	EnvNotificationMode   = "NOTIFICATION_MODE"
	EnvSMTPHost           = "SMTP_HOST"
	EnvSMTPPort           = "SMTP_PORT"
	EnvEmailUser          = "EMAIL_USER"
	EnvEmailPass          = "EMAIL_PASS"
	EnvEmailFrom          = "EMAIL_FROM"
	EnvNotificationsTopic = "KAFKA_NOTIFICATIONS_TOPIC"
	EnvNotificationsDLQ   = "KAFKA_NOTIFICATIONS_DLQ_TOPIC"
	EnvNotifierGroupID    = "KAFKA_NOTIFIER_GROUP_ID"

	EnvSweepSchedule  = "PAYMENT_SWEEP_SCHEDULE"
	EnvSweepMinAge    = "PAYMENT_SWEEP_MIN_AGE"
	EnvSweepBatchSize = "PAYMENT_SWEEP_BATCH"
)

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"

	NotificationModeLog   = "log"
	NotificationModeSMTP  = "smtp"
	NotificationModeKafka = "kafka"
)
