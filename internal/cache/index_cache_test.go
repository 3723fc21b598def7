package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbernstein/nextdeparture/internal/config"
	"github.com/bbernstein/nextdeparture/internal/geo"
	"github.com/bbernstein/nextdeparture/internal/models"
	"github.com/bbernstein/nextdeparture/internal/spatial"
)

type stubGraph struct {
	version  string
	vertices []models.Vertex
}

func (g *stubGraph) Version() string { return g.version }
func (g *stubGraph) Vertices() []models.Vertex { return g.vertices }
func (g *stubGraph) TimeZone() *time.Location { return time.UTC }

func testVertices() []models.Vertex {
	return []models.Vertex{
		{ID: "a", Kind: models.VertexKindPatternDepart, Coordinate: models.Coordinate{Latitude: 60.17, Longitude: 24.941}},
		{ID: "b", Kind: models.VertexKindTransitStop, Coordinate: models.Coordinate{Latitude: 60.171, Longitude: 24.942}},
	}
}

func TestIndexCache_BuildsOncePerVersion(t *testing.T) {
	c, err := NewIndexCache(&config.CacheConfig{IndexLRUSize: 2}, spatial.KindTree, 0)
	require.NoError(t, err)

	graph := &stubGraph{version: "v1", vertices: testVertices()}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.IndexFor(graph)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Builds())

	idx, err := c.IndexFor(graph)
	require.NoError(t, err)
	got, err := idx.Query(geo.EnvelopeAround(models.Coordinate{Latitude: 60.17, Longitude: 24.941}, 500))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// a reloaded feed gets a new version and a new index
	_, err = c.IndexFor(&stubGraph{version: "v2", vertices: testVertices()[:1]})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Builds())
}

func TestIndexCache_UnknownKind(t *testing.T) {
	c, err := NewIndexCache(&config.CacheConfig{}, spatial.Kind("bogus"), 0)
	require.NoError(t, err)

	_, err = c.IndexFor(&stubGraph{version: "v1"})
	assert.Error(t, err)
	assert.Equal(t, 0, c.Builds())
}
