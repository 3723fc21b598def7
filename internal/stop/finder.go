package stop

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/bbernstein/nextdeparture/internal/geo"
	"github.com/bbernstein/nextdeparture/internal/models"
)

// IndexedFinder finds stops with a coarse envelope query against the graph's
// spatial index followed by an exact great-circle distance check
type IndexedFinder struct {
	graph   models.GraphStore
	indexes IndexProvider
}

func NewIndexedFinder(graph models.GraphStore, indexes IndexProvider) *IndexedFinder {
	return &IndexedFinder{
		graph:   graph,
		indexes: indexes,
	}
}

// FindNearbyStops returns every pattern-departure vertex within radiusMeters of
// center, nearest first. The radius is clamped to [0, 5000] meters. Vertices
// sharing a position and name are all returned.
func (f *IndexedFinder) FindNearbyStops(ctx context.Context, center models.Coordinate, radiusMeters float64) ([]models.StopCandidate, error) {
	radius := models.ClampRadius(radiusMeters)

	idx, err := f.indexes.IndexFor(f.graph)
	if err != nil {
		return nil, fmt.Errorf("getting spatial index: %w", err)
	}

	var vertices []models.Vertex
	for _, env := range geo.EnvelopesAround(center, radius) {
		found, err := idx.Query(env)
		if err != nil {
			return nil, fmt.Errorf("querying spatial index: %w", err)
		}
		vertices = append(vertices, found...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	zone := f.graph.TimeZone()
	candidates := make([]models.StopCandidate, 0, len(vertices))
	for _, v := range vertices {
		if !v.DepartureCapable() {
			continue
		}
		distance := geo.DistanceMeters(center, v.Coordinate)
		if !(distance <= radius) {
			continue
		}
		candidates = append(candidates, models.NewStopCandidate(v, zone, distance))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	log.Debug().
		Float64("lat", center.Latitude).
		Float64("lon", center.Longitude).
		Float64("radius", radius).
		Int("envelope_count", len(vertices)).
		Int("candidate_count", len(candidates)).
		Msg("Found nearby stops")

	return candidates, nil
}
