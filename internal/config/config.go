package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Sink backends.
const (
	SinkSQL       = "sql"
	SinkPathstore = "pathstore"
	SinkNone      = "none"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Logging
	LogLevel  string
	LogFormat string

	// Persistence
	Sink            string
	DBDriver        string
	DBDSN           string
	PathstoreURL    string
	PathstoreAPIKey string

	// Google Docs
	GDocsEnabled      bool
	GoogleCredentials string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Parsing
	ParseIntro      bool
	IntroFontFamily string
	IntroFontSize   float64
	ReadBooks       bool
}

// Load reads .env (when present) and the environment.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("TAFSIRGEST_API_KEY"),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "json"),

		Sink:            strings.ToLower(envOr("SINK", SinkSQL)),
		DBDriver:        envOr("DB_DRIVER", "sqlite3"),
		DBDSN:           envOr("DB_DSN", "tafsirgest.db"),
		PathstoreURL:    envOr("PATHSTORE_URL", "http://localhost:8080"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),

		GDocsEnabled:      envBool("GDOCS_ENABLED", true),
		GoogleCredentials: envOr("GOOGLE_APPLICATION_CREDENTIALS_JSON", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		ParseIntro:      envBool("PARSE_INTRO", true),
		IntroFontFamily: envOr("INTRO_FONT_FAMILY", "Montserrat"),
		IntroFontSize:   envFloat("INTRO_FONT_SIZE", 16),
		ReadBooks:       envBool("READ_BOOKS", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.IntroFontSize <= 0 {
		cfg.IntroFontSize = 16
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("TAFSIRGEST_API_KEY is required")
	}
	switch c.Sink {
	case SinkSQL:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required when SINK=sql")
		}
		if c.DBDriver != "sqlite3" && c.DBDriver != "pgx" {
			return fmt.Errorf("DB_DRIVER must be sqlite3 or pgx, got %q", c.DBDriver)
		}
	case SinkPathstore:
		if c.PathstoreAPIKey == "" {
			return fmt.Errorf("PATHSTORE_API_KEY is required when SINK=pathstore")
		}
	case SinkNone:
	default:
		return fmt.Errorf("SINK must be sql, pathstore or none, got %q", c.Sink)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
