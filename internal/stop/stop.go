package stop

import (
	"context"

	"github.com/bbernstein/nextdeparture/internal/models"
	"github.com/bbernstein/nextdeparture/internal/spatial"
)

// Finder defines the interface for finding departure-capable stops near a point
type Finder interface {
	FindNearbyStops(ctx context.Context, center models.Coordinate, radiusMeters float64) ([]models.StopCandidate, error)
}

// IndexProvider hands out the spatial index of a graph snapshot
type IndexProvider interface {
	IndexFor(graph models.GraphStore) (spatial.Index[models.Vertex], error)
}
