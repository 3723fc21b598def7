package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bbernstein/nextdeparture/internal/api"
	"github.com/bbernstein/nextdeparture/internal/app"
	"github.com/bbernstein/nextdeparture/internal/config"
)

const examples = `  nextdep --feed hsl.zip --lat 60.1699 --lon 24.9384 --buffer 300
  nextdep --feeds-config feeds.yaml --router hsl --lat 60.17 --lon 24.94 --line 21`

type options struct {
	feedPath    string
	feedURL     string
	s3Bucket    string
	s3Key       string
	feedsConfig string
	router      string
	index       string
	workers     int
	logLevel    string

	lat    float64
	lon    float64
	buffer float64
	time   string
	offset int
	line   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "nextdep",
		Short:        "Print the next departure per line at stops near a point",
		Example:      examples,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.feedPath, "feed", "", "path to a GTFS zip")
	flags.StringVar(&opts.feedURL, "url", "", "URL of a GTFS zip")
	flags.StringVar(&opts.s3Bucket, "s3-bucket", "", "S3 bucket holding a GTFS zip")
	flags.StringVar(&opts.s3Key, "s3-key", "", "S3 key of the GTFS zip")
	flags.StringVar(&opts.feedsConfig, "feeds-config", "", "YAML file listing several feeds")
	flags.StringVar(&opts.router, "router", "", "feed to search when several are loaded")
	flags.StringVar(&opts.index, "index", config.New().IndexKind, "spatial index kind: grid or tree")
	flags.IntVar(&opts.workers, "workers", 0, "stops resolved concurrently")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	flags.Float64Var(&opts.lat, api.ParamLat, 0, "latitude of the search point")
	flags.Float64Var(&opts.lon, api.ParamLon, 0, "longitude of the search point")
	flags.Float64Var(&opts.buffer, api.ParamBuffer, 0, "search radius in meters (default 500, at most 5000)")
	flags.StringVar(&opts.time, api.ParamTime, "", "reference time in epoch seconds (default now)")
	flags.IntVar(&opts.offset, "offset", 0, "minutes added to the reference time (default 30)")
	flags.StringVar(&opts.line, "line", "", "only lines whose description contains this text")

	_ = cmd.MarkFlagRequired(api.ParamLat)
	_ = cmd.MarkFlagRequired(api.ParamLon)

	return cmd
}

// queryParams renders the flags the user set as request parameters
func queryParams(cmd *cobra.Command, opts *options) map[string]string {
	flags := cmd.Flags()
	params := map[string]string{
		api.ParamLat: strconv.FormatFloat(opts.lat, 'f', -1, 64),
		api.ParamLon: strconv.FormatFloat(opts.lon, 'f', -1, 64),
	}
	if flags.Changed(api.ParamBuffer) {
		params[api.ParamBuffer] = strconv.FormatFloat(opts.buffer, 'f', -1, 64)
	}
	if flags.Changed(api.ParamTime) {
		params[api.ParamTime] = opts.time
	}
	if flags.Changed("offset") {
		params[api.ParamTimeOffset] = strconv.Itoa(opts.offset)
	}
	if flags.Changed("line") {
		params[api.ParamLineNumber] = opts.line
	}
	return params
}

func run(cmd *cobra.Command, opts *options) error {
	cfg := config.New(
		config.WithLogLevel(opts.logLevel),
		config.WithFeedSource("default", opts.feedPath, opts.feedURL, opts.s3Bucket, opts.s3Key),
		config.WithFeedsConfig(opts.feedsConfig),
		config.WithIndex(opts.index, 0),
		config.WithResolveWorkers(opts.workers),
	)
	cfg.InitializeLogging()

	cacheConfig := config.GetCacheConfig()
	cacheConfig.EnableDynamoCache = false

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, cacheConfig)
	if err != nil {
		return err
	}

	resp, err := a.Handler.HandleRequest(ctx, events.APIGatewayProxyRequest{
		PathParameters:        map[string]string{"routerId": opts.router},
		QueryStringParameters: queryParams(cmd, opts),
	})
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, []byte(resp.Body), "", "  "); err != nil {
		return fmt.Errorf("formatting response: %w", err)
	}
	out.WriteByte('\n')
	if _, err := cmd.OutOrStdout().Write(out.Bytes()); err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search failed with status %d", resp.StatusCode)
	}
	return nil
}

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
