package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/nextdeparture/internal/api"
	"github.com/bbernstein/nextdeparture/internal/departure"
	"github.com/bbernstein/nextdeparture/internal/gtfs"
	"github.com/bbernstein/nextdeparture/internal/stop"
)

// RouterParam is the path parameter naming the feed to search
const RouterParam = "routerId"

// FeedRegistry hands out the current snapshot of a feed by router name
type FeedRegistry interface {
	Get(name string) (gtfs.Snapshot, bool)
}

// cacheStats is implemented by timetables that count cache hits
type cacheStats interface {
	GetCacheStats() map[string]uint64
}

type DeparturesHandler struct {
	feeds   FeedRegistry
	indexes stop.IndexProvider
	workers int
	now     func() time.Time
}

func NewDeparturesHandler(feeds FeedRegistry, indexes stop.IndexProvider, workers int) *DeparturesHandler {
	return &DeparturesHandler{
		feeds:   feeds,
		indexes: indexes,
		workers: workers,
		now:     time.Now,
	}
}

func (h *DeparturesHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	routerID := request.PathParameters[RouterParam]

	snapshot, ok := h.feeds.Get(routerID)
	if !ok {
		return api.Error("Unknown router: "+routerID, http.StatusNotFound)
	}

	req, err := api.ParseSearchRequest(request.QueryStringParameters, h.now())
	if err != nil {
		return api.Error(err.Error(), api.StatusFor(err))
	}

	// Each request resolves against the snapshot it started with, even if the feed is replaced meanwhile
	finder := stop.NewIndexedFinder(snapshot.Feed, h.indexes)
	service := departure.NewService(finder, snapshot.Timetable, departure.WithWorkers(h.workers))

	resp, err := service.NextDepartures(ctx, req)
	if err != nil {
		log.Error().
			Err(err).
			Str("router", routerID).
			Str("feed_version", snapshot.Feed.Version()).
			Msg("Error finding next departures")
		return api.Respond(resp, api.StatusFor(err))
	}

	event := log.Info().
		Str("router", routerID).
		Int("count", resp.Count)
	if stats, ok := snapshot.Timetable.(cacheStats); ok {
		for name, value := range stats.GetCacheStats() {
			event = event.Uint64(name, value)
		}
	}
	event.Msg("Handled next departure request")

	return api.Success(resp)
}
