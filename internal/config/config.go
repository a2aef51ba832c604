package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	// ConnectAttempts and ConnectBackoff bound the wait for Postgres at startup.
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	CookieName   string
	CookieSecure bool
}

// RetentionConfig controls the periodic cleanup of the audit log and archiving of expired documents.
type RetentionConfig struct {
	Enabled        bool
	AuditRetention time.Duration
	Interval       time.Duration
}

// UploadConfig limits accepted uploads.
type UploadConfig struct {
	MaxBytes     int64
	AvatarURLTTL time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	TimeZone    string
	CORSOrigins string
	Database    DatabaseConfig
	MinIO       MinIOConfig
	Auth        AuthConfig
	Retention   RetentionConfig
	Upload      UploadConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:8080"),
		Port:        getEnv("PORT", "8080"), // default only for non-sensitive value
		TimeZone:    getEnv("APP_TIMEZONE", "UTC"),
		CORSOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			ConnectAttempts:    getEnvInt("DB_CONNECT_ATTEMPTS", 5),
			ConnectBackoff:     getEnvDuration("DB_CONNECT_BACKOFF", 2*time.Second),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			TokenTTL:     getEnvDuration("SESSION_TTL", 24*time.Hour),
			CookieName:   getEnv("SESSION_COOKIE", "session"),
			CookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),
		},
		Retention: RetentionConfig{
			Enabled:        getEnvBool("RETENTION_ENABLED", true),
			AuditRetention: getEnvDuration("AUDIT_RETENTION", 2*time.Hour),
			Interval:       getEnvDuration("RETENTION_INTERVAL", 20*time.Minute),
		},
		Upload: UploadConfig{
			MaxBytes:     int64(getEnvInt("UPLOAD_MAX_BYTES", 50<<20)),
			AvatarURLTTL: getEnvDuration("AVATAR_URL_TTL", 15*time.Minute),
		},
	}
}

// Location resolves the configured time zone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
