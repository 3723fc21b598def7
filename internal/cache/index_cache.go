package cache

import (
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/nextdeparture/internal/config"
	"github.com/bbernstein/nextdeparture/internal/models"
	"github.com/bbernstein/nextdeparture/internal/spatial"
)

// IndexCache holds the spatial index of recent graph snapshots. Each
// snapshot's index is built at most once, on first use.
type IndexCache struct {
	lru         *lru.Cache[string, spatial.Index[models.Vertex]]
	kind        spatial.Kind
	cellDegrees float64
	clock       clock

	mu     sync.Mutex
	builds int
}

func NewIndexCache(cacheConfig *config.CacheConfig, kind spatial.Kind, cellDegrees float64) (*IndexCache, error) {
	if cacheConfig == nil {
		cacheConfig = config.GetCacheConfig()
	}

	size := cacheConfig.IndexLRUSize
	if size <= 0 {
		size = 1
	}

	lruCache, err := lru.New[string, spatial.Index[models.Vertex]](size)
	if err != nil {
		return nil, fmt.Errorf("creating LRU cache: %w", err)
	}

	return &IndexCache{
		lru:         lruCache,
		kind:        kind,
		cellDegrees: cellDegrees,
		clock:       systemClock{},
	}, nil
}

// IndexFor returns the index of graph, building it if this version has not been seen
func (c *IndexCache) IndexFor(graph models.GraphStore) (spatial.Index[models.Vertex], error) {
	version := graph.Version()
	if idx, ok := c.lru.Get(version); ok {
		return idx, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// another caller may have built it while we waited
	if idx, ok := c.lru.Get(version); ok {
		return idx, nil
	}

	start := c.clock.Now()
	vertices := graph.Vertices()
	idx, err := spatial.BuildFromVertices(c.kind, c.cellDegrees, vertices)
	if err != nil {
		return nil, fmt.Errorf("building index for graph %s: %w", version, err)
	}

	c.lru.Add(version, idx)
	c.builds++

	log.Info().
		Str("graph_version", version).
		Str("index_kind", string(c.kind)).
		Int("vertex_count", len(vertices)).
		Dur("elapsed", c.clock.Now().Sub(start)).
		Msg("Built spatial index")

	return idx, nil
}

// Builds reports how many indexes have been built
func (c *IndexCache) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}
