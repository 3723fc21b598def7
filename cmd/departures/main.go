package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/nextdeparture/internal/app"
	"github.com/bbernstein/nextdeparture/internal/config"
)

type requestHandler interface {
	HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

var (
	handler     requestHandler
	setupOnce   sync.Once
	initHandler = defaultInitHandler
)

func defaultInitHandler(ctx context.Context) (requestHandler, error) {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	log.Info().Str("env", cfg.Environment).Msg("Environment")

	a, err := app.New(ctx, cfg, config.GetCacheConfig())
	if err != nil {
		return nil, fmt.Errorf("initializing next departure service: %w", err)
	}
	return a.Handler, nil
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if handler == nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error": "Handler not initialized"}`,
		}, fmt.Errorf("handler not initialized")
	}

	log.Debug().
		Str("path", request.Path).
		Str("router", request.PathParameters["routerId"]).
		Msg("Handling Lambda request")

	return handler.HandleRequest(ctx, request)
}

// InitializeService loads the feeds once per Lambda container
func InitializeService() error {
	var initError error
	setupOnce.Do(func() {
		log.Debug().Msg("Initializing next departure service...")
		var err error
		handler, err = initHandler(context.Background())
		if err != nil {
			initError = fmt.Errorf("failed to initialize handler: %w", err)
			log.Error().Err(err).Msg("Failed to initialize handler")
			return
		}
		log.Debug().Msg("Next departure service initialized successfully")
	})
	return initError
}

func main() {
	if err := InitializeService(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize service")
	}
	lambda.Start(handleRequest)
}
