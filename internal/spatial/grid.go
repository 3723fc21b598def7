package spatial

import (
	"math"
	"sort"
	"sync"

	"github.com/paulmach/orb"
)

// DefaultCellDegrees is roughly one kilometer of latitude
const DefaultCellDegrees = 0.01

// entries spanning more cells than this are kept in a separate list
const maxCellsPerEntry = 1024

type cellKey struct {
	x, y int64
}

// GridIndex is a hash grid that accepts inserts at any time and needs no build step
type GridIndex[T any] struct {
	mu       sync.RWMutex
	cellSize float64
	cells    map[cellKey][]int
	oversize []int
	entries  []entry[T]
}

func NewGridIndex[T any](cellDegrees float64) *GridIndex[T] {
	if cellDegrees <= 0 {
		cellDegrees = DefaultCellDegrees
	}
	return &GridIndex[T]{
		cellSize: cellDegrees,
		cells:    make(map[cellKey][]int),
	}
}

func (g *GridIndex[T]) Insert(env orb.Bound, item T) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := len(g.entries)
	g.entries = append(g.entries, entry[T]{env: env, item: item})

	minX, minY, maxX, maxY := g.cellRange(env)
	if (maxX-minX+1)*(maxY-minY+1) > maxCellsPerEntry {
		g.oversize = append(g.oversize, id)
		return nil
	}
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			key := cellKey{x, y}
			g.cells[key] = append(g.cells[key], id)
		}
	}
	return nil
}

func (g *GridIndex[T]) Query(env orb.Bound) ([]T, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[int]struct{})
	collect := func(ids []int) {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			if g.entries[id].env.Intersects(env) {
				seen[id] = struct{}{}
			}
		}
	}

	minX, minY, maxX, maxY := g.cellRange(env)
	if span := (maxX - minX + 1) * (maxY - minY + 1); span > int64(len(g.cells)) {
		// cheaper to walk the occupied cells than the query range
		for key, ids := range g.cells {
			if key.x >= minX && key.x <= maxX && key.y >= minY && key.y <= maxY {
				collect(ids)
			}
		}
	} else {
		for x := minX; x <= maxX; x++ {
			for y := minY; y <= maxY; y++ {
				collect(g.cells[cellKey{x, y}])
			}
		}
	}
	collect(g.oversize)

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	results := make([]T, len(ids))
	for i, id := range ids {
		results[i] = g.entries[id].item
	}
	return results, nil
}

func (g *GridIndex[T]) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

func (g *GridIndex[T]) cellRange(env orb.Bound) (minX, minY, maxX, maxY int64) {
	minX = int64(math.Floor(env.Min[0] / g.cellSize))
	minY = int64(math.Floor(env.Min[1] / g.cellSize))
	maxX = int64(math.Floor(env.Max[0] / g.cellSize))
	maxY = int64(math.Floor(env.Max[1] / g.cellSize))
	return minX, minY, maxX, maxY
}
