// Package config loads the service configuration from the environment and the candidate
// profile from YAML. Both are read once at startup.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	AppVersion  string `env:"APP_VERSION" envDefault:"dev"`
	Env         string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`
	ProfilePath string `env:"PROFILE_PATH" envDefault:"profile.yaml"`
	Timezone    string `env:"ANALYTICS_TIMEZONE" envDefault:"UTC"`

	GenAI    GenAI
	Qdrant   Qdrant
	Redis    Redis
	Cache    Cache
	Logs     Logs
	Pipeline Pipeline
}

type GenAI struct {
	APIKey         string        `env:"GEMINI_API_KEY"`
	Project        string        `env:"GOOGLE_CLOUD_PROJECT"`
	Location       string        `env:"GOOGLE_CLOUD_LOCATION" envDefault:"us-central1"`
	Model          string        `env:"GENERATION_MODEL" envDefault:"gemini-2.5-flash"`
	FallbackModel  string        `env:"FALLBACK_MODEL" envDefault:"gemini-2.0-flash"`
	EmbeddingModel string        `env:"EMBEDDING_MODEL" envDefault:"text-embedding-004"`
	EmbeddingDim   uint64        `env:"EMBEDDING_DIM" envDefault:"768"`
	Temperature    float32       `env:"GENERATION_TEMPERATURE" envDefault:"0.7"`
	Timeout        time.Duration `env:"GENERATION_TIMEOUT" envDefault:"25s"`
	MaxRetries     int           `env:"GENERATION_MAX_RETRIES" envDefault:"2"`
}

type Qdrant struct {
	Host       string  `env:"QDRANT_HOST" envDefault:"localhost"`
	Port       int     `env:"QDRANT_PORT" envDefault:"6334"`
	Collection string  `env:"QDRANT_COLLECTION" envDefault:"profile"`
	MinScore   float32 `env:"QDRANT_MIN_SCORE" envDefault:"0.3"`
}

// Redis is optional; an empty Addr disables rate limiting.
type Redis struct {
	Addr          string        `env:"REDIS_ADDR"`
	QuestionLimit int           `env:"QUESTION_LIMIT" envDefault:"30"`
	Window        time.Duration `env:"QUESTION_WINDOW" envDefault:"1h"`
}

type Cache struct {
	TTL              time.Duration `env:"CACHE_TTL" envDefault:"1h"`
	CleanupThreshold int           `env:"CACHE_CLEANUP_THRESHOLD" envDefault:"100"`
	SweepInterval    time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"10m"`
}

type Logs struct {
	MaxLogs           int           `env:"MAX_LOGS" envDefault:"1000"`
	Retention         time.Duration `env:"LOG_RETENTION" envDefault:"720h"`
	RetentionInterval time.Duration `env:"LOG_RETENTION_INTERVAL" envDefault:"1h"`
	ArchivePath       string        `env:"LOG_ARCHIVE_PATH"`
	ArchiveQueue      int           `env:"LOG_ARCHIVE_QUEUE" envDefault:"256"`
}

type Pipeline struct {
	TopK int `env:"RETRIEVAL_TOP_K" envDefault:"5"`
}

// ConfigError names the setting that failed validation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// LoadDotEnv loads env files without overriding variables already set. Callers treat a
// missing file as a warning and fall back to the process environment.
func LoadDotEnv(files ...string) error {
	return godotenv.Load(files...)
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Port == "":
		return &ConfigError{Field: "PORT", Reason: "must be set"}
	case c.Pipeline.TopK <= 0:
		return &ConfigError{Field: "RETRIEVAL_TOP_K", Reason: "must be positive"}
	case c.Cache.TTL <= 0:
		return &ConfigError{Field: "CACHE_TTL", Reason: "must be positive"}
	case c.Cache.CleanupThreshold <= 0:
		return &ConfigError{Field: "CACHE_CLEANUP_THRESHOLD", Reason: "must be positive"}
	case c.Logs.MaxLogs <= 0:
		return &ConfigError{Field: "MAX_LOGS", Reason: "must be positive"}
	case c.Logs.Retention < 0:
		return &ConfigError{Field: "LOG_RETENTION", Reason: "must not be negative"}
	case c.Redis.Addr != "" && c.Redis.Window <= 0:
		return &ConfigError{Field: "QUESTION_WINDOW", Reason: "must be positive when REDIS_ADDR is set"}
	}
	return nil
}

// Location resolves the zone used for the hourly analytics histogram.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, &ConfigError{Field: "ANALYTICS_TIMEZONE", Reason: err.Error()}
	}
	return loc, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
