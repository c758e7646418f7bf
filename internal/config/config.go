package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// MatchMode selects how candidate discovery guards against double booking.
type MatchMode string

const (
	// MatchModeSpecified filters candidates once and writes matches without
	// further guard; concurrent requests may double-book a candidate.
	MatchModeSpecified MatchMode = "specified"
	// MatchModeSerialized locks the (user, date, meal type) slots of the
	// requester and every candidate in ascending user id, then re-checks each
	// candidate inside the match transaction.
	MatchModeSerialized MatchMode = "serialized"
)

type Config struct {
	Environment string
	LogLevel    string
	HTTPAddr    string
	DBDSN       string

	Timezone  *time.Location
	MatchMode MatchMode

	CORSAllowedOrigins []string
	MaxUploadBytes     int64

	OpenAIAPIKey  string
	OpenAIAPIBase string
	OpenAIModel   string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicBaseURL   string
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work the same
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}

	return FromEnv(os.Getenv)
}

// FromEnv builds the config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Environment:       get("ENV", "development"),
		LogLevel:          get("LOG_LEVEL", ""),
		HTTPAddr:          get("HTTP_ADDR", ":8080"),
		DBDSN:             get("DB_DSN", ""),
		OpenAIAPIKey:      get("OPENAI_API_KEY", ""),
		OpenAIAPIBase:     get("OPENAI_API_BASE", ""),
		OpenAIModel:       get("OPENAI_MODEL", "gpt-4o-mini"),
		S3Bucket:          get("S3_BUCKET", ""),
		S3Region:          get("S3_REGION", "auto"),
		S3Endpoint:        get("S3_ENDPOINT", ""),
		S3AccessKeyID:     get("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: get("S3_SECRET_ACCESS_KEY", ""),
		S3PublicBaseURL:   strings.TrimRight(get("S3_PUBLIC_BASE_URL", ""), "/"),
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	tzName := get("TIMEZONE", "Asia/Seoul")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}
	cfg.Timezone = loc

	switch mode := MatchMode(get("MATCH_MODE", string(MatchModeSerialized))); mode {
	case MatchModeSpecified, MatchModeSerialized:
		cfg.MatchMode = mode
	default:
		return nil, fmt.Errorf("invalid MATCH_MODE %q: want %q or %q", mode, MatchModeSpecified, MatchModeSerialized)
	}

	for _, origin := range strings.Split(get("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	maxUpload, err := strconv.ParseInt(get("MAX_UPLOAD_BYTES", "10485760"), 10, 64)
	if err != nil || maxUpload <= 0 {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES %q", getenv("MAX_UPLOAD_BYTES"))
	}
	cfg.MaxUploadBytes = maxUpload

	if cfg.S3Bucket != "" && cfg.S3PublicBaseURL == "" {
		return nil, fmt.Errorf("S3_PUBLIC_BASE_URL is required when S3_BUCKET is set")
	}

	return cfg, nil
}

// AnalyzerEnabled reports whether image analysis goes to the OpenAI API.
func (c *Config) AnalyzerEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// ImageStoreEnabled reports whether uploads go to an object store.
func (c *Config) ImageStoreEnabled() bool {
	return c.S3Bucket != ""
}
