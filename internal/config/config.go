package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort   string
	AppEnv    string
	LogLevel  string
	LogFormat string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTSecret       string
	PasswordPepper  string
	OTPLength       int
	OTPTTL          time.Duration
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	NotifyTimeout   time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SNSRegion    string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users           string
	UserIdentifiers string
	UserOTPs        string
	UserTokens      string
	Todos           string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:           getEnv("DYNAMO_TABLE_USERS", "users"),
			UserIdentifiers: getEnv("DYNAMO_TABLE_USER_IDENTIFIERS", "user_identifiers"),
			UserOTPs:        getEnv("DYNAMO_TABLE_USER_OTPS", "user_otps"),
			UserTokens:      getEnv("DYNAMO_TABLE_USER_TOKENS", "user_tokens"),
			Todos:           getEnv("DYNAMO_TABLE_TODOS", "todos"),
		},
		JWTSecret:       getEnv("JWT_SECRET", ""),
		PasswordPepper:  getEnv("PASSWORD_PEPPER", ""),
		OTPLength:       getEnvInt("OTP_LENGTH", 6),
		OTPTTL:          getEnvDuration("OTP_TTL", 5*time.Minute),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		NotifyTimeout:   getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
		SMTPHost:        getEnv("SMTP_HOST", "localhost"),
		SMTPPort:        getEnvInt("SMTP_PORT", 1025),
		SMTPFrom:        getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SNSRegion:       getEnv("SNS_REGION", "us-east-1"),
		AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// Validate reports configuration that would make the auth flows unsafe or unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.PasswordPepper == "" {
		errs = append(errs, errors.New("PASSWORD_PEPPER is required"))
	}
	if c.OTPLength < 4 || c.OTPLength > 10 {
		errs = append(errs, errors.New("OTP_LENGTH must be between 4 and 10"))
	}
	if c.OTPTTL <= 0 || c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("OTP_TTL, ACCESS_TOKEN_TTL and REFRESH_TOKEN_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
