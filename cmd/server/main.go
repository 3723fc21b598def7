package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/nextdeparture/internal/api"
	"github.com/bbernstein/nextdeparture/internal/app"
	"github.com/bbernstein/nextdeparture/internal/config"
)

const shutdownTimeout = 10 * time.Second

type requestHandler interface {
	HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

type routerLister interface {
	Names() []string
}

type routersResponse struct {
	Routers []string `json:"routers"`
}

func newRouter(h requestHandler, routers routerLister) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/routers", func(w http.ResponseWriter, req *http.Request) {
		resp, _ := api.Success(routersResponse{Routers: routers.Names()})
		writeResponse(w, resp)
	}).Methods(http.MethodGet)
	r.Handle("/routers/{routerId}/nextDepartureTime", adapt(h)).Methods(http.MethodGet)
	return r
}

// adapt serves an API Gateway style handler over plain HTTP
func adapt(h requestHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := make(map[string]string)
		for key, values := range r.URL.Query() {
			if len(values) > 0 {
				query[key] = values[0]
			}
		}

		request := events.APIGatewayProxyRequest{
			HTTPMethod:            r.Method,
			Path:                  r.URL.Path,
			PathParameters:        mux.Vars(r),
			QueryStringParameters: query,
		}

		resp, err := h.HandleRequest(r.Context(), request)
		if err != nil {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("Handler failed")
			resp, _ = api.Error("Internal Server Error", http.StatusInternalServerError)
		}
		writeResponse(w, resp)
	})
}

func writeResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write([]byte(resp.Body)); err != nil {
		log.Warn().Err(err).Msg("Error writing response")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	a, err := app.New(ctx, cfg, config.GetCacheConfig())
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(a.Handler, a.Registry),
		ReadHeaderTimeout: cfg.HTTPTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
