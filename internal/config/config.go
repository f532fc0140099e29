package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	// Server configuration
	Port        int    `json:"port"`
	Environment string `json:"environment"`

	// MongoDB configuration
	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`

	// Redis configuration
	RedisURI      string        `json:"redis_uri"`
	RedisPassword string        `json:"redis_password"`
	RedisDB       int           `json:"redis_db"`
	RedisTTL      time.Duration `json:"redis_ttl"`

	// Collection names
	UserCollection                string `json:"mongo_user_collection"`
	VerificationSessionCollection string `json:"mongo_verification_session_collection"`
	VehicleCollection             string `json:"mongo_vehicle_collection"`
	AuditLogCollection            string `json:"mongo_audit_log_collection"`

	// Onboarding configuration
	VerificationSessionTTL time.Duration `json:"verification_session_ttl"`
	ResetOTPTTL            time.Duration `json:"reset_otp_ttl"`
	LoginAttemptsPerMinute int           `json:"login_attempts_per_minute"`

	// Credential configuration
	JWTSecret string        `json:"-"`
	JWTIssuer string        `json:"jwt_issuer"`
	JWTExpiry time.Duration `json:"jwt_expiry"`

	// Mail relay configuration
	MailerEnabled  bool          `json:"mailer_enabled"`
	MailerBaseURL  string        `json:"mailer_base_url"`
	MailerUsername string        `json:"mailer_username"`
	MailerPassword string        `json:"-"`
	MailerFrom     string        `json:"mailer_from"`
	MailerTimeout  time.Duration `json:"mailer_timeout"`
	MailRatePerMin int           `json:"mail_rate_per_minute"`

	// Blob storage configuration
	StorageBaseURL string        `json:"storage_base_url"`
	StorageAPIKey  string        `json:"-"`
	StorageTimeout time.Duration `json:"storage_timeout"`

	// Audit trail configuration
	AuditLogsEnabled bool `json:"audit_logs_enabled"`
	AuditWorkers     int  `json:"audit_workers"`
	AuditBufferSize  int  `json:"audit_buffer_size"`

	// Tracing configuration
	TracingEnabled  bool   `json:"tracing_enabled"`
	TracingEndpoint string `json:"tracing_endpoint"`
}

var (
	AppConfig *Config
)

// LoadConfig loads configuration from environment variables
func LoadConfig() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	redisTTL, err := time.ParseDuration(getEnvOrDefault("REDIS_TTL", "60m"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_TTL: %w", err)
	}

	sessionTTL, err := time.ParseDuration(getEnvOrDefault("VERIFICATION_SESSION_TTL", "10m"))
	if err != nil {
		return fmt.Errorf("invalid VERIFICATION_SESSION_TTL: %w", err)
	}

	resetOTPTTL, err := time.ParseDuration(getEnvOrDefault("RESET_OTP_TTL", "10m"))
	if err != nil {
		return fmt.Errorf("invalid RESET_OTP_TTL: %w", err)
	}

	jwtExpiry, err := time.ParseDuration(getEnvOrDefault("JWT_EXPIRY", "1h"))
	if err != nil {
		return fmt.Errorf("invalid JWT_EXPIRY: %w", err)
	}

	mailerTimeout, err := time.ParseDuration(getEnvOrDefault("MAILER_TIMEOUT", "5s"))
	if err != nil {
		return fmt.Errorf("invalid MAILER_TIMEOUT: %w", err)
	}

	storageTimeout, err := time.ParseDuration(getEnvOrDefault("STORAGE_TIMEOUT", "30s"))
	if err != nil {
		return fmt.Errorf("invalid STORAGE_TIMEOUT: %w", err)
	}

	loginAttempts, err := strconv.Atoi(getEnvOrDefault("LOGIN_ATTEMPTS_PER_MINUTE", "10"))
	if err != nil {
		return fmt.Errorf("invalid LOGIN_ATTEMPTS_PER_MINUTE: %w", err)
	}

	mailRatePerMin, err := strconv.Atoi(getEnvOrDefault("MAIL_RATE_PER_MINUTE", "120"))
	if err != nil {
		return fmt.Errorf("invalid MAIL_RATE_PER_MINUTE: %w", err)
	}

	auditWorkers, err := strconv.Atoi(getEnvOrDefault("AUDIT_WORKERS", "2"))
	if err != nil {
		return fmt.Errorf("invalid AUDIT_WORKERS: %w", err)
	}

	auditBufferSize, err := strconv.Atoi(getEnvOrDefault("AUDIT_BUFFER_SIZE", "1000"))
	if err != nil {
		return fmt.Errorf("invalid AUDIT_BUFFER_SIZE: %w", err)
	}

	// JWT secret is required; every credential in the system is signed with it
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}

	AppConfig = &Config{
		// Server configuration
		Port:        port,
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		// MongoDB configuration
		MongoURI:      getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnvOrDefault("MONGODB_DATABASE", "onboarding"),

		// Redis configuration
		RedisURI:      getEnvOrDefault("REDIS_URI", "redis://localhost:6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		RedisTTL:      redisTTL,

		// Collection names
		UserCollection:                getEnvOrDefault("MONGODB_USER_COLLECTION", "users"),
		VerificationSessionCollection: getEnvOrDefault("MONGODB_VERIFICATION_SESSION_COLLECTION", "verification_sessions"),
		VehicleCollection:             getEnvOrDefault("MONGODB_VEHICLE_COLLECTION", "vehicles"),
		AuditLogCollection:            getEnvOrDefault("MONGODB_AUDIT_LOG_COLLECTION", "audit_logs"),

		// Onboarding configuration
		VerificationSessionTTL: sessionTTL,
		ResetOTPTTL:            resetOTPTTL,
		LoginAttemptsPerMinute: loginAttempts,

		// Credential configuration
		JWTSecret: jwtSecret,
		JWTIssuer: getEnvOrDefault("JWT_ISSUER", "onboarding-api"),
		JWTExpiry: jwtExpiry,

		// Mail relay configuration
		MailerEnabled:  getEnvOrDefault("MAILER_ENABLED", "true") == "true",
		MailerBaseURL:  getEnvOrDefault("MAILER_BASE_URL", ""),
		MailerUsername: getEnvOrDefault("MAILER_USERNAME", ""),
		MailerPassword: getEnvOrDefault("MAILER_PASSWORD", ""),
		MailerFrom:     getEnvOrDefault("MAILER_FROM", "no-reply@ridelink.app"),
		MailRatePerMin: mailRatePerMin,
		MailerTimeout:  mailerTimeout,

		// Blob storage configuration
		StorageBaseURL: getEnvOrDefault("STORAGE_BASE_URL", ""),
		StorageAPIKey:  getEnvOrDefault("STORAGE_API_KEY", ""),
		StorageTimeout: storageTimeout,

		// Audit trail configuration
		AuditLogsEnabled: getEnvOrDefault("AUDIT_LOGS_ENABLED", "true") == "true",
		AuditWorkers:     auditWorkers,
		AuditBufferSize:  auditBufferSize,

		// Tracing configuration
		TracingEnabled:  getEnvOrDefault("TRACING_ENABLED", "false") == "true",
		TracingEndpoint: getEnvOrDefault("TRACING_ENDPOINT", "localhost:4317"),
	}

	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
