package spatial

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/bbernstein/nextdeparture/internal/geo"
	"github.com/bbernstein/nextdeparture/internal/models"
)

// BuildFromVertices scans every vertex once and indexes it by its point envelope
func BuildFromVertices(kind Kind, cellDegrees float64, vertices []models.Vertex) (Index[models.Vertex], error) {
	switch kind {
	case KindTree:
		tree := NewTreeIndex[models.Vertex]()
		for _, v := range vertices {
			if err := tree.Insert(geo.PointEnvelope(v.Coordinate), v); err != nil {
				return nil, fmt.Errorf("inserting vertex %s: %w", v.ID, err)
			}
		}
		if err := tree.Build(); err != nil {
			return nil, fmt.Errorf("building tree index: %w", err)
		}
		log.Debug().Int("vertex_count", tree.Len()).Msg("Built tree index")
		return tree, nil
	case KindGrid, "":
		grid := NewGridIndex[models.Vertex](cellDegrees)
		for _, v := range vertices {
			if err := grid.Insert(geo.PointEnvelope(v.Coordinate), v); err != nil {
				return nil, fmt.Errorf("inserting vertex %s: %w", v.ID, err)
			}
		}
		log.Debug().Int("vertex_count", grid.Len()).Float64("cell_degrees", grid.cellSize).Msg("Built grid index")
		return grid, nil
	default:
		return nil, fmt.Errorf("unknown spatial index kind: %q", kind)
	}
}
