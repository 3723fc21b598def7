package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Environment string
	LogLevel    zerolog.Level
	HTTPTimeout time.Duration
	MaxRetries  int

	// Feed source; the first non-empty of path, URL and S3 object wins
	FeedName     string
	FeedPath     string
	FeedURL      string
	FeedS3Bucket string
	FeedS3Key    string
	FeedsConfig  string

	IndexKind            string
	IndexGridCellDegrees float64
	ResolveWorkers       int
	Port                 string
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

// WithMaxRetries sets how often feed downloads are retried
func WithMaxRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.MaxRetries = retries
		}
	}
}

// WithFeedSource sets the feed name and where to load it from
func WithFeedSource(name, path, url, s3Bucket, s3Key string) Option {
	return func(c *Config) {
		c.FeedName = name
		c.FeedPath = path
		c.FeedURL = url
		c.FeedS3Bucket = s3Bucket
		c.FeedS3Key = s3Key
	}
}

// WithFeedsConfig points at a YAML file listing several feeds
func WithFeedsConfig(path string) Option {
	return func(c *Config) {
		c.FeedsConfig = path
	}
}

// WithIndex selects the spatial index kind and grid cell size
func WithIndex(kind string, cellDegrees float64) Option {
	return func(c *Config) {
		c.IndexKind = kind
		if cellDegrees > 0 {
			c.IndexGridCellDegrees = cellDegrees
		}
	}
}

// WithResolveWorkers sets the size of the per-stop worker pool
func WithResolveWorkers(workers int) Option {
	return func(c *Config) {
		if workers > 0 {
			c.ResolveWorkers = workers
		}
	}
}

func WithPort(port string) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:          "production",
		LogLevel:             zerolog.InfoLevel,
		HTTPTimeout:          10 * time.Second,
		MaxRetries:           3,
		FeedName:             "default",
		IndexKind:            "grid",
		IndexGridCellDegrees: 0.01,
		ResolveWorkers:       4,
		Port:                 "8080",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

// FeedSource returns the feed settings as a FeedConfig
func (c *Config) FeedSource() FeedConfig {
	return FeedConfig{
		Name:     c.FeedName,
		Path:     c.FeedPath,
		URL:      c.FeedURL,
		S3Bucket: c.FeedS3Bucket,
		S3Key:    c.FeedS3Key,
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	return New(
		WithEnvironment(getEnvOrDefault("ENV", "production")),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", 10*time.Second)),
		WithMaxRetries(getEnvInt("HTTP_MAX_RETRIES", 3)),
		WithFeedSource(
			getEnvOrDefault("FEED_NAME", "default"),
			os.Getenv("FEED_PATH"),
			os.Getenv("FEED_URL"),
			os.Getenv("FEED_S3_BUCKET"),
			os.Getenv("FEED_S3_KEY"),
		),
		WithFeedsConfig(os.Getenv("FEEDS_CONFIG")),
		WithIndex(getEnvOrDefault("INDEX_KIND", "grid"), getFloatEnvOrDefault("INDEX_GRID_CELL_DEGREES", 0.01)),
		WithResolveWorkers(getEnvInt("RESOLVE_WORKERS", 4)),
		WithPort(getEnvOrDefault("PORT", "8080")),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnvOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Warn().Str("key", key).Msg("Invalid float value in environment variable, using default")
	}
	return defaultValue
}
