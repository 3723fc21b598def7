package departure

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bbernstein/nextdeparture/internal/models"
)

// Resolver finds the next departure of each line serving a stop
type Resolver struct {
	timetable models.TimetableStore
}

func NewResolver(timetable models.TimetableStore) *Resolver {
	return &Resolver{
		timetable: timetable,
	}
}

// Resolve returns line descriptor -> formatted next departure for one stop.
// Lines with nothing after threshold are absent from the map.
func (r *Resolver) Resolve(ctx context.Context, stop models.StopCandidate, threshold int64, filter *string) (map[string]string, error) {
	departures, err := r.NextByLine(ctx, stop, threshold, filter)
	if err != nil {
		return nil, err
	}

	lineAndTime := make(map[string]string, len(departures))
	for _, d := range departures {
		lineAndTime[d.Line] = d.Formatted
	}
	return lineAndTime, nil
}

// NextByLine returns the earliest departure strictly after threshold for
// every matching line, ordered by line
func (r *Resolver) NextByLine(ctx context.Context, stop models.StopCandidate, threshold int64, filter *string) ([]models.LineDeparture, error) {
	loc := stop.Location
	if loc == nil {
		loc = time.UTC
	}

	key := models.FormatServiceDate(time.Unix(threshold, 0).In(loc))

	patterns, err := r.timetable.StopTimesForStop(ctx, stop.StopID, key)
	if err != nil {
		var dateErr *models.DateParseError
		if errors.As(err, &dateErr) {
			return nil, &ServiceDateError{StopID: stop.StopID, Key: key, Err: err}
		}
		return nil, fmt.Errorf("loading stop times for %s: %w", stop.StopID, err)
	}

	earliest := make(map[string]int64)
	for _, pattern := range patterns {
		if !MatchesLine(filter, pattern.Descriptor) {
			continue
		}
		for _, trip := range pattern.Trips {
			departure := trip.Departure()
			if departure <= threshold {
				continue
			}
			if current, ok := earliest[pattern.Descriptor]; !ok || departure < current {
				earliest[pattern.Descriptor] = departure
			}
			// trips are ordered, so the first one after threshold is the next
			break
		}
	}

	departures := make([]models.LineDeparture, 0, len(earliest))
	for line, departure := range earliest {
		departures = append(departures, models.LineDeparture{
			Line:      line,
			Departure: departure,
			Formatted: FormatDeparture(departure, loc),
		})
	}
	sort.Slice(departures, func(i, j int) bool {
		return departures[i].Line < departures[j].Line
	})

	log.Trace().
		Str("stop_id", stop.StopID).
		Str("service_date", key).
		Int("pattern_count", len(patterns)).
		Int("line_count", len(departures)).
		Msg("Resolved departures")

	return departures, nil
}

// FormatDeparture renders an epoch time in loc, e.g. "Mon Jan 15 10:00:00 EET 2024"
func FormatDeparture(epoch int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(epoch, 0).In(loc).Format(time.UnixDate)
}
