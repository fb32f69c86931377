package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Required variables are enforced by must()
// and missing values cause the program to exit with a fatal log message.
type Config struct {
	Env    string // application environment (e.g. "dev", "prod")
	Port   string // HTTP port to listen on
	Origin string // public origin used in email links

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	DBMaxOpenConns       int // connection pool ceiling
	DBMaxIdleConns       int // idle connections kept around
	DBConnMaxLifetimeMin int // connection recycle age in minutes

	JWTSecret         string // secret used to sign access tokens
	AccessTTLMin      int    // access token time-to-live in minutes
	RefreshTTLDays    int    // refresh session time-to-live in days
	NotifyTokenTTLSec int    // notification token time-to-live in seconds
	BcryptCost        int    // bcrypt cost for password hashing

	SMTPHost     string // SMTP server host (empty disables sending)
	SMTPPort     string // SMTP server port
	SMTPEmail    string // sender address and SMTP login
	SMTPPassword string // SMTP password

	S3Region   string // object storage region
	S3Bucket   string // bucket holding offer attachments
	S3Endpoint string // custom endpoint for S3-compatible storage (optional)
	S3KeyID    string // access key id (empty disables presigning)
	S3Secret   string // secret access key
}

// Load reads configuration values from environment variables.
func Load() Config {
	return Config{
		Env:    must("APP_ENV"),
		Port:   must("APP_PORT"),
		Origin: envOr("APP_ORIGIN", "http://localhost:8000"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		DBMaxOpenConns:       envIntOr("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:       envIntOr("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetimeMin: envIntOr("DB_CONN_MAX_LIFETIME_MIN", 30),

		JWTSecret:         must("JWT_SECRET"),
		AccessTTLMin:      mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:    mustInt("REFRESH_TOKEN_TTL_DAYS"),
		NotifyTokenTTLSec: envIntOr("NOTIFY_TOKEN_TTL_SEC", 120),
		BcryptCost:        mustInt("BCRYPT_COST"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     envOr("SMTP_PORT", "465"),
		SMTPEmail:    os.Getenv("SMTP_EMAIL"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),

		S3Region:   os.Getenv("S3_REGION"),
		S3Bucket:   os.Getenv("S3_BUCKET"),
		S3Endpoint: os.Getenv("S3_ENDPOINT"),
		S3KeyID:    os.Getenv("S3_ACCESS_KEY_ID"),
		S3Secret:   os.Getenv("S3_SECRET_ACCESS_KEY"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
