package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/bbernstein/nextdeparture/internal/cache"
	"github.com/bbernstein/nextdeparture/internal/config"
	"github.com/bbernstein/nextdeparture/internal/gtfs"
	"github.com/bbernstein/nextdeparture/internal/handler"
	"github.com/bbernstein/nextdeparture/internal/models"
	"github.com/bbernstein/nextdeparture/internal/spatial"
	"github.com/bbernstein/nextdeparture/pkg/http/client"
)

// App is the wired next-departure service shared by the Lambda, the local
// server and the CLI
type App struct {
	Registry *gtfs.Registry
	Indexes  *cache.IndexCache
	Handler  *handler.DeparturesHandler

	httpClient client.Interface
	s3Client   gtfs.S3Client
	store      cache.StopTimesStore
}

type Option func(*App)

// WithHTTPClient replaces the client used for URL feeds
func WithHTTPClient(c client.Interface) Option {
	return func(a *App) {
		a.httpClient = c
	}
}

// WithS3Client replaces the client used for S3 feeds
func WithS3Client(c gtfs.S3Client) Option {
	return func(a *App) {
		a.s3Client = c
	}
}

// WithStopTimesStore sets the shared stop-times store behind every pattern cache
func WithStopTimesStore(store cache.StopTimesStore) Option {
	return func(a *App) {
		a.store = store
	}
}

// New loads every configured feed and wires the request handler. Feeds come
// from the FEEDS_CONFIG file when set, otherwise from the single FEED_* source.
func New(ctx context.Context, cfg *config.Config, cacheConfig *config.CacheConfig, opts ...Option) (*App, error) {
	if cacheConfig == nil {
		cacheConfig = config.GetCacheConfig()
	}

	a := &App{}
	for _, opt := range opts {
		opt(a)
	}

	if a.httpClient == nil {
		a.httpClient = client.New(client.Options{
			Timeout:    cfg.HTTPTimeout,
			MaxRetries: cfg.MaxRetries,
		})
	}

	if a.store == nil && cacheConfig.EnableDynamoCache {
		dynamoClient, err := cache.NewDynamoClient(ctx, cacheConfig)
		if err != nil {
			return nil, fmt.Errorf("creating DynamoDB client: %w", err)
		}
		a.store = cache.NewDynamoPatternStore(dynamoClient, cacheConfig)
	}

	feeds, err := feedConfigs(cfg)
	if err != nil {
		return nil, err
	}

	store := a.store
	a.Registry = gtfs.NewRegistry(func(feed *gtfs.Feed) (models.TimetableStore, error) {
		return cache.NewPatternCache(feed, store, cacheConfig)
	})

	for _, feedConfig := range feeds {
		if err := a.LoadFeed(ctx, feedConfig); err != nil {
			return nil, err
		}
	}

	kind, err := spatial.ParseKind(cfg.IndexKind)
	if err != nil {
		return nil, err
	}

	a.Indexes, err = cache.NewIndexCache(cacheConfig, kind, cfg.IndexGridCellDegrees)
	if err != nil {
		return nil, fmt.Errorf("creating index cache: %w", err)
	}

	a.Handler = handler.NewDeparturesHandler(a.Registry, a.Indexes, cfg.ResolveWorkers)

	log.Info().
		Strs("feeds", a.Registry.Names()).
		Str("index", string(kind)).
		Bool("dynamo_cache", a.store != nil).
		Msg("Next departure service ready")

	return a, nil
}

// LoadFeed fetches and parses one feed and installs it in the registry,
// replacing any feed of the same name
func (a *App) LoadFeed(ctx context.Context, feedConfig config.FeedConfig) error {
	if feedConfig.S3Bucket != "" && feedConfig.Path == "" && feedConfig.URL == "" && a.s3Client == nil {
		s3Client, err := gtfs.NewS3Client(ctx)
		if err != nil {
			return fmt.Errorf("creating S3 client: %w", err)
		}
		a.s3Client = s3Client
	}

	source, err := gtfs.SourceFor(feedConfig, a.httpClient, a.s3Client)
	if err != nil {
		return err
	}

	feed, err := gtfs.Load(ctx, feedConfig, source)
	if err != nil {
		return err
	}

	stats := feed.Stats()
	log.Info().
		Str("feed", feed.Name()).
		Int("stops", stats.Stops).
		Int("patterns", stats.Patterns).
		Int("trips", stats.Trips).
		Int("vertices", stats.Vertices).
		Msg("Feed statistics")

	return a.Registry.Put(feed)
}

func feedConfigs(cfg *config.Config) ([]config.FeedConfig, error) {
	if cfg.FeedsConfig == "" {
		return []config.FeedConfig{cfg.FeedSource()}, nil
	}

	file, err := config.LoadFeedsFile(cfg.FeedsConfig)
	if err != nil {
		return nil, fmt.Errorf("loading feeds config: %w", err)
	}
	return file.Feeds, nil
}
