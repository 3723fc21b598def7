package spatial

import (
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

// TreeIndex is an R-tree loaded in bulk. Entries are staged by Insert and
// become queryable only after Build.
type TreeIndex[T any] struct {
	mu      sync.RWMutex
	entries []entry[T]
	tree    *rtree.RTree
	built   bool
}

func NewTreeIndex[T any]() *TreeIndex[T] {
	return &TreeIndex[T]{}
}

func (t *TreeIndex[T]) Insert(env orb.Bound, item T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.built {
		return ErrSealed
	}
	t.entries = append(t.entries, entry[T]{env: env, item: item})
	return nil
}

// Build loads all staged entries into the tree. It may only be called once.
func (t *TreeIndex[T]) Build() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.built {
		return ErrSealed
	}

	tree := &rtree.RTree{}
	for i, e := range t.entries {
		tree.Insert(
			[2]float64{e.env.Min[0], e.env.Min[1]},
			[2]float64{e.env.Max[0], e.env.Max[1]},
			i,
		)
	}
	t.tree = tree
	t.built = true
	return nil
}

func (t *TreeIndex[T]) Query(env orb.Bound) ([]T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.built {
		return nil, &NotBuiltError{Staged: len(t.entries)}
	}

	var ids []int
	t.tree.Search(
		[2]float64{env.Min[0], env.Min[1]},
		[2]float64{env.Max[0], env.Max[1]},
		func(min, max [2]float64, data interface{}) bool {
			if id, ok := data.(int); ok {
				ids = append(ids, id)
			}
			return true
		},
	)
	sort.Ints(ids)

	results := make([]T, len(ids))
	for i, id := range ids {
		results[i] = t.entries[id].item
	}
	return results, nil
}

func (t *TreeIndex[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
