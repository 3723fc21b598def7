package config

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var envMutex sync.Mutex

var cacheEnvVars = []string{
	"CACHE_INDEX_LRU_SIZE",
	"CACHE_PATTERN_LRU_SIZE",
	"CACHE_PATTERN_LRU_TTL_MINUTES",
	"CACHE_DYNAMO_TTL_DAYS",
	"CACHE_DYNAMO_TABLE",
	"CACHE_ENABLE_LRU",
	"CACHE_ENABLE_DYNAMO",
	"DYNAMODB_ENDPOINT",
}

// clearEnv unsets the given variables and restores them when the test ends
func clearEnv(t *testing.T, keys []string) {
	t.Helper()

	envMutex.Lock()
	defer envMutex.Unlock()

	original := make(map[string]string)
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			original[k] = v
		}
		if err := os.Unsetenv(k); err != nil {
			t.Fatalf("Failed to clear environment: %v", err)
		}
	}

	t.Cleanup(func() {
		envMutex.Lock()
		defer envMutex.Unlock()
		for _, k := range keys {
			if v, ok := original[k]; ok {
				_ = os.Setenv(k, v)
			} else {
				_ = os.Unsetenv(k)
			}
		}
	})
}

func TestGetCacheConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(*testing.T, *CacheConfig)
	}{
		{
			name:    "default configuration",
			envVars: map[string]string{},
			check: func(t *testing.T, c *CacheConfig) {
				assert.Equal(t, defaultIndexLRUSize, c.IndexLRUSize)
				assert.Equal(t, defaultPatternLRUSize, c.PatternLRUSize)
				assert.Equal(t, time.Duration(defaultPatternLRUTTLMinutes)*time.Minute, c.GetPatternLRUTTL())
				assert.Equal(t, defaultDynamoTableName, c.DynamoTableName)
				assert.True(t, c.EnableLRUCache)
				assert.False(t, c.EnableDynamoCache)
			},
		},
		{
			name: "custom configuration",
			envVars: map[string]string{
				"CACHE_PATTERN_LRU_SIZE":        "200",
				"CACHE_PATTERN_LRU_TTL_MINUTES": "30",
				"CACHE_DYNAMO_TABLE":            "custom-table",
				"CACHE_ENABLE_DYNAMO":           "yes",
			},
			check: func(t *testing.T, c *CacheConfig) {
				assert.Equal(t, 200, c.PatternLRUSize)
				assert.Equal(t, 30*time.Minute, c.GetPatternLRUTTL())
				assert.Equal(t, "custom-table", c.DynamoTableName)
				assert.True(t, c.EnableDynamoCache)
			},
		},
		{
			name: "dynamo TTL override",
			envVars: map[string]string{
				"CACHE_DYNAMO_TTL_DAYS": "14",
			},
			check: func(t *testing.T, c *CacheConfig) {
				assert.Equal(t, 14*24*time.Hour, c.GetDynamoTTL())
			},
		},
		{
			name: "disabled LRU cache",
			envVars: map[string]string{
				"CACHE_ENABLE_LRU": "false",
			},
			check: func(t *testing.T, c *CacheConfig) {
				assert.False(t, c.EnableLRUCache)
			},
		},
		{
			name: "invalid numeric values",
			envVars: map[string]string{
				"CACHE_INDEX_LRU_SIZE":   "invalid",
				"CACHE_PATTERN_LRU_SIZE": "not_a_number",
			},
			check: func(t *testing.T, c *CacheConfig) {
				// Should fall back to defaults
				assert.Equal(t, defaultIndexLRUSize, c.IndexLRUSize)
				assert.Equal(t, defaultPatternLRUSize, c.PatternLRUSize)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t, cacheEnvVars)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			tt.check(t, GetCacheConfig())
		})
	}
}
