// Package gtfs turns a static GTFS feed into the graph vertices and
// per-stop timetables used by the departure search.
package gtfs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	remoteGtfs "github.com/jamespfennell/gtfs"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/nextdeparture/internal/models"
)

// Feed is an immutable snapshot of one parsed GTFS feed. It implements both
// models.GraphStore and models.TimetableStore.
type Feed struct {
	name     string
	version  string
	zone     *time.Location
	vertices []models.Vertex
	stops    map[string][]*pattern
	services map[string]*serviceCalendar
	stats    Stats
}

// Stats summarizes a feed for logging
type Stats struct {
	Stops    int `json:"stops"`
	Patterns int `json:"patterns"`
	Trips    int `json:"trips"`
	Vertices int `json:"vertices"`
}

// pattern is the sequence of stops shared by trips of one route
type pattern struct {
	descriptor string
	departures []scheduledDeparture // ordered by departure
}

type scheduledDeparture struct {
	tripID    string
	serviceID string
	seconds   int64 // since service day start
}

type ParseOption func(*parseOptions)

type parseOptions struct {
	zone *time.Location
}

// WithTimeZone overrides the agency time zone declared in the feed
func WithTimeZone(zone *time.Location) ParseOption {
	return func(o *parseOptions) {
		o.zone = zone
	}
}

// Parse reads a zipped static GTFS feed
func Parse(name string, data []byte, opts ...ParseOption) (*Feed, error) {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	static, err := remoteGtfs.ParseStatic(data, remoteGtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("parsing GTFS feed %s: %w", name, err)
	}

	zone := o.zone
	if zone == nil {
		zone = agencyZone(static.Agencies)
	}

	f := &Feed{
		name:     name,
		version:  feedVersion(data, zone),
		zone:     zone,
		stops:    make(map[string][]*pattern),
		services: make(map[string]*serviceCalendar, len(static.Services)),
	}

	for i := range static.Services {
		svc := &static.Services[i]
		f.services[svc.Id] = newServiceCalendar(svc)
	}

	f.buildVertices(static)

	log.Info().
		Str("feed", name).
		Str("version", f.version).
		Str("time_zone", zone.String()).
		Int("stop_count", f.stats.Stops).
		Int("pattern_count", f.stats.Patterns).
		Int("trip_count", f.stats.Trips).
		Int("warning_count", len(static.Warnings)).
		Msg("Parsed GTFS feed")

	return f, nil
}

// feedVersion hashes the feed bytes together with the zone service days are
// computed in, since the same bytes read in another zone give other departures
func feedVersion(data []byte, zone *time.Location) string {
	h := sha256.New()
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(zone.String()))
	return hex.EncodeToString(h.Sum(nil)[:8])
}

func agencyZone(agencies []remoteGtfs.Agency) *time.Location {
	for _, a := range agencies {
		if a.Timezone == "" {
			continue
		}
		loc, err := time.LoadLocation(a.Timezone)
		if err != nil {
			log.Warn().Str("time_zone", a.Timezone).Err(err).Msg("Unknown agency time zone")
			continue
		}
		return loc
	}
	return time.UTC
}

// buildVertices groups trips into patterns and emits one transit-stop vertex
// per located stop plus one pattern-departure vertex per (pattern, stop)
func (f *Feed) buildVertices(static *remoteGtfs.Static) {
	stopZones := make(map[string]*time.Location)
	for i := range static.Stops {
		stop := &static.Stops[i]
		if stop.Latitude == nil || stop.Longitude == nil {
			continue
		}
		var loc *time.Location
		if stop.Timezone != "" {
			if l, err := time.LoadLocation(stop.Timezone); err == nil {
				loc = l
			}
		}
		stopZones[stop.Id] = loc
		f.vertices = append(f.vertices, models.Vertex{
			ID:         "stop:" + stop.Id,
			Kind:       models.VertexKindTransitStop,
			Coordinate: models.Coordinate{Latitude: *stop.Latitude, Longitude: *stop.Longitude},
			Name:       stop.Name,
			StopID:     stop.Id,
			Location:   loc,
		})
		f.stats.Stops++
	}

	type patternStops struct {
		descriptor string
		stops      []*remoteGtfs.Stop
		departures [][]scheduledDeparture // per stop position
	}
	patterns := make(map[string]*patternStops)
	var order []string

	for i := range static.Trips {
		trip := &static.Trips[i]
		if trip.Service == nil || len(trip.StopTimes) < 2 {
			continue
		}

		stopTimes := make([]remoteGtfs.ScheduledStopTime, len(trip.StopTimes))
		copy(stopTimes, trip.StopTimes)
		sort.SliceStable(stopTimes, func(a, b int) bool {
			return stopTimes[a].StopSequence < stopTimes[b].StopSequence
		})

		key := patternKey(trip, stopTimes)
		ps, ok := patterns[key]
		if !ok {
			stops := make([]*remoteGtfs.Stop, len(stopTimes))
			for j := range stopTimes {
				stops[j] = stopTimes[j].Stop
			}
			ps = &patternStops{
				descriptor: describe(trip.Route, stops),
				stops:      stops,
				departures: make([][]scheduledDeparture, len(stops)-1),
			}
			patterns[key] = ps
			order = append(order, key)
		}

		// nothing departs from the last stop
		for j := 0; j < len(stopTimes)-1; j++ {
			ps.departures[j] = append(ps.departures[j], scheduledDeparture{
				tripID:    trip.ID,
				serviceID: trip.Service.Id,
				seconds:   int64(stopTimes[j].DepartureTime / time.Second),
			})
		}
		f.stats.Trips++
	}

	for n, key := range order {
		ps := patterns[key]
		for j, departures := range ps.departures {
			stop := ps.stops[j]
			if stop == nil || stop.Latitude == nil || stop.Longitude == nil {
				continue
			}

			sort.SliceStable(departures, func(a, b int) bool {
				return departures[a].seconds < departures[b].seconds
			})
			f.stops[stop.Id] = append(f.stops[stop.Id], &pattern{
				descriptor: ps.descriptor,
				departures: departures,
			})
			f.vertices = append(f.vertices, models.Vertex{
				ID:         fmt.Sprintf("depart:%d:%d:%s", n, j, stop.Id),
				Kind:       models.VertexKindPatternDepart,
				Coordinate: models.Coordinate{Latitude: *stop.Latitude, Longitude: *stop.Longitude},
				Name:       stop.Name,
				StopID:     stop.Id,
				Location:   stopZones[stop.Id],
			})
		}
		f.stats.Patterns++
	}

	f.stats.Vertices = len(f.vertices)
}

func patternKey(trip *remoteGtfs.ScheduledTrip, stopTimes []remoteGtfs.ScheduledStopTime) string {
	var b strings.Builder
	if trip.Route != nil {
		b.WriteString(trip.Route.Id)
	}
	for _, st := range stopTimes {
		b.WriteByte('|')
		if st.Stop != nil {
			b.WriteString(st.Stop.Id)
		}
	}
	return b.String()
}

// describe renders "<route> to <last stop> from <first stop>"
func describe(route *remoteGtfs.Route, stops []*remoteGtfs.Stop) string {
	name := "?"
	if route != nil {
		switch {
		case route.ShortName != "":
			name = route.ShortName
		case route.LongName != "":
			name = route.LongName
		default:
			name = route.Id
		}
	}

	stopName := func(s *remoteGtfs.Stop) string {
		if s == nil {
			return "?"
		}
		return s.Name
	}
	return fmt.Sprintf("%s to %s from %s", name, stopName(stops[len(stops)-1]), stopName(stops[0]))
}

func (f *Feed) Name() string {
	return f.name
}

// Version is derived from the feed content, so reloading identical bytes keeps it
func (f *Feed) Version() string {
	return f.version
}

func (f *Feed) Vertices() []models.Vertex {
	return f.vertices
}

func (f *Feed) TimeZone() *time.Location {
	return f.zone
}

func (f *Feed) Stats() Stats {
	return f.stats
}

// StopTimesForStop lists the patterns serving stopID with the trips running
// on the given YYYYMMDD service date
func (f *Feed) StopTimesForStop(ctx context.Context, stopID, serviceDateKey string) ([]models.ScheduledPattern, error) {
	date, err := models.ParseServiceDate(serviceDateKey, f.zone)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dayStart := models.ServiceDayStart(date).Unix()
	weekday := date.Weekday()

	var result []models.ScheduledPattern
	for _, p := range f.stops[stopID] {
		scheduled := models.ScheduledPattern{Descriptor: p.descriptor}
		for _, d := range p.departures {
			svc, ok := f.services[d.serviceID]
			if !ok || !svc.activeOn(serviceDateKey, weekday) {
				continue
			}
			scheduled.Trips = append(scheduled.Trips, models.TripDeparture{
				TripID:             d.tripID,
				ServiceDayStart:    dayStart,
				ScheduledDeparture: d.seconds,
			})
		}
		if len(scheduled.Trips) > 0 {
			result = append(result, scheduled)
		}
	}

	return result, nil
}
