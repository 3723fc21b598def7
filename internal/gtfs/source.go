package gtfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	appconfig "github.com/bbernstein/nextdeparture/internal/config"
	"github.com/bbernstein/nextdeparture/pkg/http/client"
)

// Source fetches the raw bytes of a zipped GTFS feed
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

type FileSource struct {
	Path string
}

func (s *FileSource) Fetch(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading feed file: %w", err)
	}
	return data, nil
}

func (s *FileSource) String() string {
	return "file://" + s.Path
}

type HTTPSource struct {
	URL    string
	Client client.Interface
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	resp, err := s.Client.Get(ctx, s.URL)
	if err != nil {
		return nil, fmt.Errorf("downloading feed: %w", err)
	}
	return resp.Body, nil
}

func (s *HTTPSource) String() string {
	return s.URL
}

// S3Client defines the interface for S3 operations we need
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Source struct {
	Bucket string
	Key    string
	Client S3Client
}

func (s *S3Source) Fetch(ctx context.Context) ([]byte, error) {
	if s.Bucket == "" {
		return nil, fmt.Errorf("empty bucket name")
	}

	result, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting feed from S3: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			log.Error().Err(err).Msg("Error closing S3 object body")
		}
	}(result.Body)

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("reading S3 object body: %w", err)
	}
	return data, nil
}

func (s *S3Source) String() string {
	return fmt.Sprintf("s3://%s/%s", s.Bucket, s.Key)
}

// NewS3Client creates an S3 client from the default AWS configuration
func NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

// SourceFor picks the source a feed config describes: path, then URL, then S3.
// s3Client is only needed for S3 feeds.
func SourceFor(feed appconfig.FeedConfig, httpClient client.Interface, s3Client S3Client) (Source, error) {
	switch {
	case feed.Path != "":
		return &FileSource{Path: feed.Path}, nil
	case feed.URL != "":
		if httpClient == nil {
			return nil, fmt.Errorf("feed %s: no HTTP client for %s", feed.Name, feed.URL)
		}
		return &HTTPSource{URL: feed.URL, Client: httpClient}, nil
	case feed.S3Bucket != "":
		if s3Client == nil {
			return nil, fmt.Errorf("feed %s: no S3 client for s3://%s/%s", feed.Name, feed.S3Bucket, feed.S3Key)
		}
		return &S3Source{Bucket: feed.S3Bucket, Key: feed.S3Key, Client: s3Client}, nil
	default:
		return nil, fmt.Errorf("feed %s has no source", feed.Name)
	}
}

// Load fetches and parses a feed. The feed config's time zone, when set,
// overrides the agency zone.
func Load(ctx context.Context, feed appconfig.FeedConfig, source Source) (*Feed, error) {
	start := time.Now()

	data, err := source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching feed %s from %s: %w", feed.Name, source, err)
	}

	var opts []ParseOption
	if feed.TimeZone != "" {
		zone, err := time.LoadLocation(feed.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("loading time zone for feed %s: %w", feed.Name, err)
		}
		opts = append(opts, WithTimeZone(zone))
	}

	parsed, err := Parse(feed.Name, data, opts...)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("feed", feed.Name).
		Str("source", source.String()).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("Loaded GTFS feed")

	return parsed, nil
}
