package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/nextdeparture/internal/config"
	"github.com/bbernstein/nextdeparture/internal/models"
)

// VersionedTimetable is a timetable tied to one immutable feed snapshot
type VersionedTimetable interface {
	models.TimetableStore
	Version() string
}

// StopTimesStore is the second cache layer behind the in-memory LRU
type StopTimesStore interface {
	GetStopTimes(ctx context.Context, feedVersion, stopID, serviceDate string) (*models.StopTimesRecord, error)
	SaveStopTimes(ctx context.Context, record models.StopTimesRecord) error
}

// patternEntry wraps the cached patterns with an expiry
type patternEntry struct {
	Patterns  []models.ScheduledPattern
	ExpiresAt time.Time
}

// PatternCache is a TimetableStore that checks an LRU, then an optional
// persistent store, before asking the feed itself
type PatternCache struct {
	source VersionedTimetable
	lru    *lru.Cache[string, *patternEntry]
	store  StopTimesStore
	ttl    time.Duration
	clock  clock

	lruHits     atomic.Uint64
	lruMisses   atomic.Uint64
	storeHits   atomic.Uint64
	storeMisses atomic.Uint64
}

// NewPatternCache wraps source. store may be nil; the LRU is skipped when disabled in cacheConfig.
func NewPatternCache(source VersionedTimetable, store StopTimesStore, cacheConfig *config.CacheConfig) (*PatternCache, error) {
	if cacheConfig == nil {
		cacheConfig = config.GetCacheConfig()
	}

	c := &PatternCache{
		source: source,
		store:  store,
		ttl:    cacheConfig.GetPatternLRUTTL(),
		clock:  systemClock{},
	}

	if cacheConfig.EnableLRUCache {
		lruCache, err := lru.New[string, *patternEntry](cacheConfig.PatternLRUSize)
		if err != nil {
			return nil, fmt.Errorf("creating LRU cache: %w", err)
		}
		c.lru = lruCache
	}

	return c, nil
}

func getCacheKey(feedVersion, stopID, serviceDate string) string {
	return fmt.Sprintf("%s:%s", models.StopTimesCacheKey(feedVersion, stopID), serviceDate)
}

func (c *PatternCache) Version() string {
	return c.source.Version()
}

// StopTimesForStop rejects malformed keys before any lookup, so a bad key
// never reaches either cache layer
func (c *PatternCache) StopTimesForStop(ctx context.Context, stopID, serviceDateKey string) ([]models.ScheduledPattern, error) {
	if _, err := models.ParseServiceDate(serviceDateKey, time.UTC); err != nil {
		return nil, err
	}

	version := c.source.Version()
	key := getCacheKey(version, stopID, serviceDateKey)

	if c.lru != nil {
		if entry, ok := c.lru.Get(key); ok {
			if c.clock.Now().Before(entry.ExpiresAt) {
				c.lruHits.Add(1)
				return entry.Patterns, nil
			}
			// Entry expired, remove it
			c.lru.Remove(key)
		}
		c.lruMisses.Add(1)
	}

	if c.store != nil {
		record, err := c.store.GetStopTimes(ctx, version, stopID, serviceDateKey)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("stop_id", stopID).Msg("Stop times cache read failed")
		case record != nil:
			c.storeHits.Add(1)
			c.remember(key, record.Patterns)
			return record.Patterns, nil
		default:
			c.storeMisses.Add(1)
		}
	}

	patterns, err := c.source.StopTimesForStop(ctx, stopID, serviceDateKey)
	if err != nil {
		return nil, err
	}

	c.remember(key, patterns)

	if c.store != nil {
		record := models.StopTimesRecord{
			CacheKey:    models.StopTimesCacheKey(version, stopID),
			ServiceDate: serviceDateKey,
			FeedVersion: version,
			StopID:      stopID,
			Patterns:    patterns,
		}
		if err := c.store.SaveStopTimes(ctx, record); err != nil {
			log.Warn().Err(err).Str("stop_id", stopID).Msg("Stop times cache write failed")
		}
	}

	return patterns, nil
}

func (c *PatternCache) remember(key string, patterns []models.ScheduledPattern) {
	if c.lru == nil {
		return
	}
	c.lru.Add(key, &patternEntry{
		Patterns:  patterns,
		ExpiresAt: c.clock.Now().Add(c.ttl),
	})
}

// GetCacheStats returns statistics about cache hits and misses
func (c *PatternCache) GetCacheStats() map[string]uint64 {
	return map[string]uint64{
		"lru_hits":     c.lruHits.Load(),
		"lru_misses":   c.lruMisses.Load(),
		"store_hits":   c.storeHits.Load(),
		"store_misses": c.storeMisses.Load(),
	}
}
