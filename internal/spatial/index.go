// Package spatial provides envelope indexes over graph vertices.
//
// Queries return every entry whose stored envelope intersects the query
// envelope. Results are a superset of what a caller usually wants, so exact
// distance checks belong to the caller.
package spatial

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// Index is a bulk or incrementally loaded envelope index
type Index[T any] interface {
	Insert(env orb.Bound, item T) error
	Query(env orb.Bound) ([]T, error)
	Len() int
}

type Kind string

const (
	KindGrid Kind = "grid"
	KindTree Kind = "tree"
)

// ErrSealed is returned when inserting into a tree index after Build
var ErrSealed = errors.New("spatial index is already built")

// NotBuiltError is returned when a tree index is queried before Build
type NotBuiltError struct {
	Staged int
}

func (e *NotBuiltError) Error() string {
	return fmt.Sprintf("spatial index queried before build (%d entries staged)", e.Staged)
}

// ParseKind validates an index kind name; empty means grid
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindGrid:
		return KindGrid, nil
	case KindTree:
		return KindTree, nil
	default:
		return "", fmt.Errorf("unknown spatial index kind: %q", s)
	}
}

type entry[T any] struct {
	env  orb.Bound
	item T
}
