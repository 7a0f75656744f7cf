package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	MigrationsPath string

	JWTSecret string
	JWTIssuer string

	RateLimit          string // ulule/limiter formatted, e.g. "200-M"
	CORSAllowedOrigins []string
	PosthogAPIKey      string

	// Idempotency-Key replay store. An empty RedisURL selects the in-memory store.
	RedisURL       string
	IdempotencyTTL time.Duration

	Blob BlobConfig
}

// BlobConfig selects where transmission artifacts are written.
type BlobConfig struct {
	Driver      string // fs, s3 or memory
	FSRoot      string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("RATE_LIMIT", "200-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("POSTHOG_API_KEY", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("BLOB_DRIVER", "fs")
	v.SetDefault("BLOB_FS_ROOT", "./data/artifacts")
	v.SetDefault("BLOB_S3_BUCKET", "")
	v.SetDefault("BLOB_S3_REGION", "us-east-1")
	v.SetDefault("BLOB_S3_ENDPOINT", "")
	v.SetDefault("BLOB_S3_PATH_STYLE", false)

	// Actual environment variables override .env values and defaults.
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:    v.GetString("PGSQL_URL"),
		Port:           v.GetString("PORT"),
		IsProduction:   v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:  v.GetBool("ENABLE_DB_CHECK"),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		JWTIssuer:      v.GetString("JWT_ISSUER"),
		RateLimit:      v.GetString("RATE_LIMIT"),
		PosthogAPIKey:  v.GetString("POSTHOG_API_KEY"),
		RedisURL:       v.GetString("REDIS_URL"),
		Blob: BlobConfig{
			Driver:      strings.ToLower(v.GetString("BLOB_DRIVER")),
			FSRoot:      v.GetString("BLOB_FS_ROOT"),
			S3Bucket:    v.GetString("BLOB_S3_BUCKET"),
			S3Region:    v.GetString("BLOB_S3_REGION"),
			S3Endpoint:  v.GetString("BLOB_S3_ENDPOINT"),
			S3PathStyle: v.GetBool("BLOB_S3_PATH_STYLE"),
		},
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	ttlStr := v.GetString("IDEMPOTENCY_TTL")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil || ttl <= 0 {
		ttl = 24 * time.Hour
		log.Printf("Warning: Invalid value for IDEMPOTENCY_TTL ('%s'). Defaulting to %s.\n", ttlStr, ttl)
	}
	cfg.IdempotencyTTL = ttl

	switch cfg.Blob.Driver {
	case "fs", "s3", "memory":
	default:
		log.Printf("Warning: Unknown BLOB_DRIVER ('%s'). Defaulting to fs.\n", cfg.Blob.Driver)
		cfg.Blob.Driver = "fs"
	}
	if cfg.Blob.Driver == "s3" && cfg.Blob.S3Bucket == "" {
		log.Println("Warning: BLOB_DRIVER is s3 but BLOB_S3_BUCKET is not set.")
	}

	return cfg, nil
}
