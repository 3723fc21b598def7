package departure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/bbernstein/nextdeparture/internal/models"
	"github.com/bbernstein/nextdeparture/internal/stop"
)

const defaultWorkers = 4

// Service answers next-departure searches
type Service struct {
	finder   stop.Finder
	resolver *Resolver
	workers  int
}

type Option func(*Service)

// WithWorkers sets how many stops are resolved concurrently
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func NewService(finder stop.Finder, timetable models.TimetableStore, opts ...Option) *Service {
	s := &Service{
		finder:   finder,
		resolver: NewResolver(timetable),
		workers:  defaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// stopOutcome is the resolution of one candidate stop
type stopOutcome struct {
	lineAndTime map[string]string
	err         error
}

// NextDepartures finds stops around the request coordinate and the next
// departure per line at each. The returned response is never nil; when the
// error is non-nil the response carries only the error message and the
// echoed parameters.
func (s *Service) NextDepartures(ctx context.Context, req models.SearchRequest) (*models.NextDepartureResponse, error) {
	resp := models.NewNextDepartureResponse(req.Parameters)

	if !req.TimeResolved {
		resp.Fail(MsgUnresolvedTime)
		return resp, NewParameterError(MsgUnresolvedTime)
	}

	candidates, err := s.finder.FindNearbyStops(ctx, req.Coordinate, req.RadiusMeters)
	if err != nil {
		resp.Fail(MsgResolution)
		return resp, fmt.Errorf("finding nearby stops: %w", err)
	}

	stops := DedupStops(candidates)
	threshold := req.Threshold()
	outcomes := s.resolveAll(ctx, stops, threshold, req.LineFilter)

	for i, outcome := range outcomes {
		if outcome.err != nil {
			var dateErr *ServiceDateError
			if errors.As(outcome.err, &dateErr) {
				resp.Fail(MsgDateConversion)
			} else {
				resp.Fail(MsgResolution)
			}
			log.Error().
				Err(outcome.err).
				Str("stop_id", stops[i].StopID).
				Msg("Departure resolution failed")
			return resp, outcome.err
		}
		if len(outcome.lineAndTime) == 0 {
			continue
		}
		resp.AddResult(models.NextDepartureResult{
			Lat:         stops[i].Coordinate.Latitude,
			Lng:         stops[i].Coordinate.Longitude,
			StopName:    stops[i].Name,
			LineAndTime: outcome.lineAndTime,
		})
	}

	log.Debug().
		Int("candidate_count", len(candidates)).
		Int("stop_count", len(stops)).
		Int("result_count", resp.Count).
		Int64("threshold", threshold).
		Msg("Resolved next departures")

	return resp, nil
}

// resolveAll resolves stops on a fixed pool of workers. Outcomes are indexed
// like stops. Once a stop fails, stops after it are skipped, but every stop
// before it is still resolved so the lowest failing index is deterministic.
func (s *Service) resolveAll(ctx context.Context, stops []models.StopCandidate, threshold int64, filter *string) []stopOutcome {
	outcomes := make([]stopOutcome, len(stops))
	if len(stops) == 0 {
		return outcomes
	}

	var firstFailure atomic.Int64
	firstFailure.Store(int64(len(stops)))

	work := make(chan int, len(stops))
	for i := range stops {
		work <- i
	}
	close(work)

	workers := s.workers
	if workers > len(stops) {
		workers = len(stops)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				if int64(i) > firstFailure.Load() {
					continue
				}

				var outcome stopOutcome
				if err := ctx.Err(); err != nil {
					outcome.err = err
				} else {
					outcome.lineAndTime, outcome.err = s.resolver.Resolve(ctx, stops[i], threshold, filter)
				}
				outcomes[i] = outcome

				if outcome.err != nil {
					for {
						current := firstFailure.Load()
						if int64(i) >= current || firstFailure.CompareAndSwap(current, int64(i)) {
							break
						}
					}
				}
			}
		}()
	}
	wg.Wait()

	return outcomes
}

// DedupStops drops candidates describing the same stop as an earlier one,
// keeping the first occurrence
func DedupStops(candidates []models.StopCandidate) []models.StopCandidate {
	seen := make(map[models.StopKey]struct{}, len(candidates))
	stops := make([]models.StopCandidate, 0, len(candidates))
	for _, c := range candidates {
		key := c.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		stops = append(stops, c)
	}
	return stops
}
