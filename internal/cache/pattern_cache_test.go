package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbernstein/nextdeparture/internal/config"
	"github.com/bbernstein/nextdeparture/internal/models"
)

type mockTimetable struct {
	version string
	mu      sync.Mutex
	calls   int
	fn      func(stopID, key string) ([]models.ScheduledPattern, error)
}

func (m *mockTimetable) Version() string {
	return m.version
}

func (m *mockTimetable) StopTimesForStop(_ context.Context, stopID, key string) ([]models.ScheduledPattern, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fn != nil {
		return m.fn(stopID, key)
	}
	return []models.ScheduledPattern{{Descriptor: "1 to A from B"}}, nil
}

func (m *mockTimetable) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockStopTimesStore struct {
	getFunc  func(ctx context.Context, feedVersion, stopID, serviceDate string) (*models.StopTimesRecord, error)
	saveFunc func(ctx context.Context, record models.StopTimesRecord) error
}

func (m *mockStopTimesStore) GetStopTimes(ctx context.Context, feedVersion, stopID, serviceDate string) (*models.StopTimesRecord, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, feedVersion, stopID, serviceDate)
	}
	return nil, nil
}

func (m *mockStopTimesStore) SaveStopTimes(ctx context.Context, record models.StopTimesRecord) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, record)
	}
	return nil
}

func TestPatternCache_LRUHitAndExpiry(t *testing.T) {
	source := &mockTimetable{version: "v1"}
	c, err := NewPatternCache(source, nil, testCacheConfig)
	require.NoError(t, err)
	clk := &fakeClock{now: time.Unix(1705300000, 0)}
	c.clock = clk

	ctx := context.Background()
	_, err = c.StopTimesForStop(ctx, "STOP-1", "20240115")
	require.NoError(t, err)
	_, err = c.StopTimesForStop(ctx, "STOP-1", "20240115")
	require.NoError(t, err)
	assert.Equal(t, 1, source.Calls())

	// a different service date is a different entry
	_, err = c.StopTimesForStop(ctx, "STOP-1", "20240116")
	require.NoError(t, err)
	assert.Equal(t, 2, source.Calls())

	clk.Advance(16 * time.Minute)
	_, err = c.StopTimesForStop(ctx, "STOP-1", "20240115")
	require.NoError(t, err)
	assert.Equal(t, 3, source.Calls())

	stats := c.GetCacheStats()
	assert.Equal(t, uint64(1), stats["lru_hits"])
	assert.Equal(t, uint64(3), stats["lru_misses"])
}

func TestPatternCache_RejectsMalformedKey(t *testing.T) {
	source := &mockTimetable{version: "v1"}
	c, err := NewPatternCache(source, nil, testCacheConfig)
	require.NoError(t, err)

	for _, key := range []string{"", "2024-01-15", "20241345", "abcdefgh"} {
		_, err := c.StopTimesForStop(context.Background(), "STOP-1", key)
		var dateErr *models.DateParseError
		assert.ErrorAs(t, err, &dateErr, key)
	}
	assert.Equal(t, 0, source.Calls())
}

func TestPatternCache_StoreLayer(t *testing.T) {
	ctx := context.Background()

	t.Run("store hit skips source", func(t *testing.T) {
		source := &mockTimetable{version: "v1"}
		store := &mockStopTimesStore{
			getFunc: func(ctx context.Context, feedVersion, stopID, serviceDate string) (*models.StopTimesRecord, error) {
				assert.Equal(t, "v1", feedVersion)
				record := createTestStopTimesRecord()
				return &record, nil
			},
		}
		c, err := NewPatternCache(source, store, testCacheConfig)
		require.NoError(t, err)

		patterns, err := c.StopTimesForStop(ctx, "STOP-1", "20240115")
		require.NoError(t, err)
		require.Len(t, patterns, 1)
		assert.Equal(t, "21 to Ruoholahti from Kamppi", patterns[0].Descriptor)
		assert.Equal(t, 0, source.Calls())
		assert.Equal(t, uint64(1), c.GetCacheStats()["store_hits"])
	})

	t.Run("store miss saves source result", func(t *testing.T) {
		source := &mockTimetable{version: "v2"}
		var saved *models.StopTimesRecord
		store := &mockStopTimesStore{
			saveFunc: func(ctx context.Context, record models.StopTimesRecord) error {
				saved = &record
				return nil
			},
		}
		c, err := NewPatternCache(source, store, testCacheConfig)
		require.NoError(t, err)

		_, err = c.StopTimesForStop(ctx, "STOP-9", "20240115")
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "v2#STOP-9", saved.CacheKey)
		assert.Equal(t, "20240115", saved.ServiceDate)
		assert.NoError(t, saved.Validate())
	})

	t.Run("store failures fall through to source", func(t *testing.T) {
		source := &mockTimetable{version: "v1"}
		store := &mockStopTimesStore{
			getFunc: func(ctx context.Context, feedVersion, stopID, serviceDate string) (*models.StopTimesRecord, error) {
				return nil, errors.New("unavailable")
			},
			saveFunc: func(ctx context.Context, record models.StopTimesRecord) error {
				return errors.New("unavailable")
			},
		}
		c, err := NewPatternCache(source, store, testCacheConfig)
		require.NoError(t, err)

		patterns, err := c.StopTimesForStop(ctx, "STOP-1", "20240115")
		require.NoError(t, err)
		assert.Len(t, patterns, 1)
		assert.Equal(t, 1, source.Calls())
	})
}

func TestPatternCache_SourceErrorNotCached(t *testing.T) {
	fail := true
	source := &mockTimetable{
		version: "v1",
		fn: func(stopID, key string) ([]models.ScheduledPattern, error) {
			if fail {
				return nil, errors.New("boom")
			}
			return nil, nil
		},
	}
	c, err := NewPatternCache(source, nil, testCacheConfig)
	require.NoError(t, err)

	_, err = c.StopTimesForStop(context.Background(), "STOP-1", "20240115")
	require.Error(t, err)

	fail = false
	_, err = c.StopTimesForStop(context.Background(), "STOP-1", "20240115")
	require.NoError(t, err)
	assert.Equal(t, 2, source.Calls())
}

func TestPatternCache_LRUDisabled(t *testing.T) {
	source := &mockTimetable{version: "v1"}
	cfg := &config.CacheConfig{EnableLRUCache: false}
	c, err := NewPatternCache(source, nil, cfg)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.StopTimesForStop(context.Background(), "STOP-1", "20240115")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, source.Calls())
}
