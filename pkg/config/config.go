package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"venivici/pkg/client"
	"venivici/pkg/logger"
)

const SweepDisabled = "off"

type PaystackConfig struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	CallbackURL   string
	Currency      string
	Channels      []string
	Timeout       time.Duration
}

type NotificationConfig struct {
	Mode     string
	SMTPHost string
	SMTPPort int
	Username string
	Password string
	From     string
	Topic    string
	DLQTopic string
	GroupID  string
}

type SweepConfig struct {
	Schedule  string
	MinAge    time.Duration
	BatchSize int
}

type Config struct {
	Environment string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port      string
	LogLevel  string
	LogFormat string

	AllowedOrigins []string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Paystack      PaystackConfig
	Notifications NotificationConfig
	Sweep         SweepConfig

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	// .env is optional, real deployments inject the environment directly
	_ = godotenv.Load()

	cfg := FromEnv()
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   serviceName,
	})
	cfg.Client = client.NewClient()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv reads the configuration without validating it or building a logger.
func FromEnv() *Config {
	secretKey := getEnvStr(EnvPaystackSecretKey, "")
	emailUser := getEnvStr(EnvEmailUser, "")

	return &Config{
		Environment: strings.ToLower(getEnvStr(EnvEnvironment, DefaultEnvironment)),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port:      getEnvStr(EnvPort, DefaultPort),
		LogLevel:  getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat: getEnvStr(EnvLogFormat, DefaultLogFormat),

		AllowedOrigins: getEnvList(EnvAllowedOrigins, DefaultAllowedOrigins),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Paystack: PaystackConfig{
			SecretKey: secretKey,
			// Paystack signs webhooks with the account secret key unless told otherwise
			WebhookSecret: getEnvStr(EnvPaystackWebhookSecret, secretKey),
			BaseURL:       strings.TrimRight(getEnvStr(EnvPaystackBaseURL, DefaultPaystackBaseURL), "/"),
			CallbackURL:   getEnvStr(EnvPaystackCallbackURL, ""),
			Currency:      getEnvStr(EnvPaystackCurrency, DefaultPaystackCurrency),
			Channels:      getEnvList(EnvPaystackChannels, DefaultPaystackChannels),
			Timeout:       getEnvDuration(EnvPaystackTimeout, DefaultPaystackTimeout),
		},

		Notifications: NotificationConfig{
			Mode:     strings.ToLower(getEnvStr(EnvNotificationMode, DefaultNotificationMode)),
			SMTPHost: getEnvStr(EnvSMTPHost, DefaultSMTPHost),
			SMTPPort: getEnvNum(EnvSMTPPort, DefaultSMTPPort),
			Username: emailUser,
			Password: getEnvStr(EnvEmailPass, ""),
			From:     getEnvStr(EnvEmailFrom, emailUser),
			Topic:    getEnvStr(EnvNotificationsTopic, DefaultNotificationsTopic),
			DLQTopic: getEnvStr(EnvNotificationsDLQ, DefaultNotificationsDLQ),
			GroupID:  getEnvStr(EnvNotifierGroupID, DefaultNotifierGroupID),
		},

		Sweep: SweepConfig{
			Schedule:  getEnvStr(EnvSweepSchedule, DefaultSweepSchedule),
			MinAge:    getEnvDuration(EnvSweepMinAge, DefaultSweepMinAge),
			BatchSize: getEnvNum(EnvSweepBatchSize, DefaultSweepBatchSize),
		},
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) IsProduction() bool {
	return cfg.Environment == EnvironmentProduction || cfg.Environment == "prod"
}

// WebhookVerificationEnabled reports whether inbound provider webhooks are authenticated.
func (cfg *Config) WebhookVerificationEnabled() bool {
	return cfg.Paystack.WebhookSecret != ""
}

func (cfg *Config) SweepEnabled() bool {
	return cfg.Sweep.Schedule != "" && cfg.Sweep.Schedule != SweepDisabled
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	errors = append(errors, cfg.validatePaystack()...)
	errors = append(errors, cfg.validateNotifications()...)
	errors = append(errors, cfg.validateSweep()...)

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) validatePaystack() []string {
	var errors []string
	p := cfg.Paystack

	if cfg.IsProduction() {
		if p.SecretKey == "" {
			errors = append(errors, fmt.Sprintf("%s is required when %s=%s", EnvPaystackSecretKey, EnvEnvironment, cfg.Environment))
		}
		if p.WebhookSecret == "" {
			errors = append(errors, fmt.Sprintf("%s (or %s) is required when %s=%s", EnvPaystackWebhookSecret, EnvPaystackSecretKey, EnvEnvironment, cfg.Environment))
		}
	}

	if !strings.HasPrefix(p.BaseURL, "http://") && !strings.HasPrefix(p.BaseURL, "https://") {
		errors = append(errors, fmt.Sprintf("PaystackBaseURL must be an http(s) URL, got: %s", p.BaseURL))
	}
	if len(p.Currency) != 3 {
		errors = append(errors, fmt.Sprintf("PaystackCurrency must be a 3-letter ISO code, got: %s", p.Currency))
	}
	if len(p.Channels) == 0 {
		errors = append(errors, "PaystackChannels must list at least one channel")
	}
	if p.Timeout < MinPaystackTimeout || p.Timeout > MaxPaystackTimeout {
		errors = append(errors, fmt.Sprintf("PaystackTimeout must be between %s and %s, got: %s", MinPaystackTimeout, MaxPaystackTimeout, p.Timeout))
	}

	return errors
}

func (cfg *Config) validateNotifications() []string {
	var errors []string
	n := cfg.Notifications

	modes := []string{NotificationModeLog, NotificationModeSMTP, NotificationModeKafka}
	if !slices.Contains(modes, n.Mode) {
		errors = append(errors, fmt.Sprintf("NotificationMode must be one of %v, got: %s", modes, n.Mode))
	}

	if n.Mode == NotificationModeSMTP {
		if n.Username == "" || n.Password == "" {
			errors = append(errors, fmt.Sprintf("%s and %s are required when %s=%s", EnvEmailUser, EnvEmailPass, EnvNotificationMode, n.Mode))
		}
		if n.SMTPPort < 1 || n.SMTPPort > 65535 {
			errors = append(errors, fmt.Sprintf("SMTPPort must be between 1 and 65535, got: %d", n.SMTPPort))
		}
	}

	if n.Mode == NotificationModeKafka && n.Topic == "" {
		errors = append(errors, "NotificationsTopic cannot be empty when notifications go through Kafka")
	}

	return errors
}

func (cfg *Config) validateSweep() []string {
	if !cfg.SweepEnabled() {
		return nil
	}

	var errors []string
	if _, err := cron.ParseStandard(cfg.Sweep.Schedule); err != nil {
		errors = append(errors, fmt.Sprintf("PaymentSweepSchedule is not a valid cron spec: %v", err))
	}
	if cfg.Sweep.MinAge <= 0 {
		errors = append(errors, fmt.Sprintf("PaymentSweepMinAge must be positive, got: %s", cfg.Sweep.MinAge))
	}
	if cfg.Sweep.BatchSize <= 0 {
		errors = append(errors, fmt.Sprintf("PaymentSweepBatch must be positive, got: %d", cfg.Sweep.BatchSize))
	}
	return errors
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"environment", cfg.Environment,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"allowed_origins", cfg.AllowedOrigins,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"paystack_base_url", cfg.Paystack.BaseURL,
		"paystack_secret_set", cfg.Paystack.SecretKey != "",
		"paystack_webhook_secret_set", cfg.Paystack.WebhookSecret != "",
		"paystack_currency", cfg.Paystack.Currency,
		"paystack_timeout", cfg.Paystack.Timeout,
		"notification_mode", cfg.Notifications.Mode,
		"payment_sweep_schedule", cfg.Sweep.Schedule,
	)

	if !cfg.WebhookVerificationEnabled() {
		cfg.Log.Warn("Paystack webhook secret is not configured, webhooks will be accepted without signature verification",
			"environment", cfg.Environment,
		)
	}
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	var out []string
	for _, item := range strings.Split(getEnvStr(key, fallback), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
