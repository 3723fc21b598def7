package models

import (
	"fmt"
	"time"
)

// StopTimesRecord represents the cached scheduled patterns for a stop and service date
type StopTimesRecord struct {
	CacheKey    string             `dynamodbav:"cacheKey"` // feedVersion#stopId
	ServiceDate string             `dynamodbav:"serviceDate"`
	FeedVersion string             `dynamodbav:"feedVersion"`
	StopID      string             `dynamodbav:"stopId"`
	Patterns    []ScheduledPattern `dynamodbav:"patterns"`
	LastUpdated int64              `dynamodbav:"lastUpdated"`
	TTL         int64              `dynamodbav:"ttl"`
}

// StopTimesCacheKey builds the partition key for a feed version and stop
func StopTimesCacheKey(feedVersion, stopID string) string {
	return fmt.Sprintf("%s#%s", feedVersion, stopID)
}

// Validate checks if a StopTimesRecord's fields are valid
func (r *StopTimesRecord) Validate() error {
	if r.StopID == "" {
		return fmt.Errorf("stop ID is required")
	}

	if r.FeedVersion == "" {
		return fmt.Errorf("feed version is required")
	}

	if r.CacheKey != StopTimesCacheKey(r.FeedVersion, r.StopID) {
		return fmt.Errorf("cache key %q does not match feed version and stop", r.CacheKey)
	}

	if _, err := ParseServiceDate(r.ServiceDate, time.UTC); err != nil {
		return fmt.Errorf("invalid service date: %w", err)
	}

	for i, pattern := range r.Patterns {
		if pattern.Descriptor == "" {
			return fmt.Errorf("pattern at index %d has no descriptor", i)
		}
		for j := 1; j < len(pattern.Trips); j++ {
			if pattern.Trips[j].Departure() < pattern.Trips[j-1].Departure() {
				return fmt.Errorf("pattern %q trips are not ordered at index %d", pattern.Descriptor, j)
			}
		}
	}

	return nil
}
