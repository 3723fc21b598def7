package gtfs

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/bbernstein/nextdeparture/internal/models"
)

// Snapshot pairs a feed with the timetable store requests should use for it,
// usually a cache in front of the feed
type Snapshot struct {
	Feed      *Feed
	Timetable models.TimetableStore
}

// TimetableWrapper builds the timetable store for a freshly loaded feed
type TimetableWrapper func(feed *Feed) (models.TimetableStore, error)

// Registry holds the current snapshot of every loaded feed. Replacing a feed
// swaps its snapshot; requests already holding the old one keep using it.
type Registry struct {
	mu       sync.RWMutex
	feeds    map[string]Snapshot
	fallback string
	wrap     TimetableWrapper
}

// NewRegistry creates an empty registry. wrap may be nil, in which case the
// feed serves its own timetable.
func NewRegistry(wrap TimetableWrapper) *Registry {
	return &Registry{
		feeds: make(map[string]Snapshot),
		wrap:  wrap,
	}
}

// Put installs feed under its name. The first feed installed becomes the fallback.
func (r *Registry) Put(feed *Feed) error {
	snapshot := Snapshot{Feed: feed, Timetable: feed}
	if r.wrap != nil {
		timetable, err := r.wrap(feed)
		if err != nil {
			return fmt.Errorf("wrapping timetable for feed %s: %w", feed.Name(), err)
		}
		snapshot.Timetable = timetable
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	previous, replaced := r.feeds[feed.Name()]
	r.feeds[feed.Name()] = snapshot
	if r.fallback == "" {
		r.fallback = feed.Name()
	}

	event := log.Info().Str("feed", feed.Name()).Str("version", feed.Version())
	if replaced {
		event = event.Str("previous_version", previous.Feed.Version())
	}
	event.Msg("Installed feed")

	return nil
}

// Get returns the snapshot for name, or the fallback feed when name is
// empty or unknown
func (r *Registry) Get(name string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if snapshot, ok := r.feeds[name]; ok {
		return snapshot, true
	}
	if snapshot, ok := r.feeds[r.fallback]; ok {
		return snapshot, true
	}
	return Snapshot{}, false
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.feeds))
	for name := range r.feeds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
