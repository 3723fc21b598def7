package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// CacheConfig holds all cache-related configuration
type CacheConfig struct {
	// Spatial index cache, one entry per graph version
	IndexLRUSize int

	// Stop times LRU settings
	PatternLRUSize       int
	PatternLRUTTLMinutes int

	// DynamoDB Cache settings
	DynamoTTLDays   int
	DynamoTableName string
	// DynamoEndpoint points at a local DynamoDB; empty means the AWS default
	DynamoEndpoint string

	// General settings
	EnableLRUCache    bool
	EnableDynamoCache bool
}

const (
	// Default values
	defaultIndexLRUSize         = 4
	defaultPatternLRUSize       = 5000
	defaultPatternLRUTTLMinutes = 15
	defaultDynamoTTLDays        = 2
	defaultDynamoTableName      = "stop-times-cache"
)

// GetCacheConfig returns the cache configuration from environment variables or defaults
func GetCacheConfig() *CacheConfig {
	config := &CacheConfig{
		IndexLRUSize:         getEnvInt("CACHE_INDEX_LRU_SIZE", defaultIndexLRUSize),
		PatternLRUSize:       getEnvInt("CACHE_PATTERN_LRU_SIZE", defaultPatternLRUSize),
		PatternLRUTTLMinutes: getEnvInt("CACHE_PATTERN_LRU_TTL_MINUTES", defaultPatternLRUTTLMinutes),
		DynamoTTLDays:        getEnvInt("CACHE_DYNAMO_TTL_DAYS", defaultDynamoTTLDays),
		DynamoTableName:      getEnvOrDefault("CACHE_DYNAMO_TABLE", defaultDynamoTableName),
		DynamoEndpoint:       os.Getenv("DYNAMODB_ENDPOINT"),
		EnableLRUCache:       getEnvBool("CACHE_ENABLE_LRU", true),
		EnableDynamoCache:    getEnvBool("CACHE_ENABLE_DYNAMO", false),
	}

	log.Debug().
		Int("IndexLRUSize", config.IndexLRUSize).
		Int("PatternLRUSize", config.PatternLRUSize).
		Int("PatternLRUTTLMinutes", config.PatternLRUTTLMinutes).
		Int("DynamoTTLDays", config.DynamoTTLDays).
		Str("DynamoTableName", config.DynamoTableName).
		Str("DynamoEndpoint", config.DynamoEndpoint).
		Bool("EnableLRUCache", config.EnableLRUCache).
		Bool("EnableDynamoCache", config.EnableDynamoCache).
		Msg("Cache configuration loaded")

	return config
}

// Helper methods for the CacheConfig struct
func (c *CacheConfig) GetPatternLRUTTL() time.Duration {
	return time.Duration(c.PatternLRUTTLMinutes) * time.Minute
}

func (c *CacheConfig) GetDynamoTTL() time.Duration {
	return time.Duration(c.DynamoTTLDays) * 24 * time.Hour
}

// Helper functions to get environment variables with defaults
func getEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Msg("Invalid integer value in environment variable, using default")
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, exists := os.LookupEnv(key); exists {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
