package issuer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/coinagedev/coinage/issuer/knobs"
	"github.com/coinagedev/coinage/issuer/middleware"
)

// Server assembles the issuer's HTTP surface: the versioned API behind the
// middleware chain, with readiness and metrics endpoints outside it.
type Server struct {
	config      *Config
	handlers    *Handlers
	knobs       knobs.Knobs
	rateLimiter *middleware.RateLimiter
	httpServer  *http.Server
}

func NewServer(config *Config, service *Service, knobsService knobs.Knobs) (*Server, error) {
	s := &Server{
		config:   config,
		handlers: NewHandlers(service, config),
		knobs:    knobsService,
	}
	if config.RateLimit.Enabled {
		limiter, err := middleware.NewRateLimiter(config, middleware.WithKnobs(knobsService))
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		s.rateLimiter = limiter
	}
	s.httpServer = &http.Server{
		Addr:    config.Listen,
		Handler: s.Handler(),
	}
	return s, nil
}

// Handler builds the full request pipeline. Exposed so tests can drive the
// server through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/assets", s.handlers.CreateAsset)
	api.HandleFunc("GET /v1/assets", s.handlers.ListAssets)
	api.HandleFunc("GET /v1/assets/{symbol}", s.handlers.GetAsset)
	api.HandleFunc("POST /v1/assets/{symbol}/mint", s.handlers.Mint)
	api.HandleFunc("POST /v1/assets/{symbol}/burn", s.handlers.Burn)
	api.HandleFunc("POST /v1/assets/{symbol}/freeze", s.handlers.Freeze)
	api.HandleFunc("POST /v1/assets/{symbol}/thaw", s.handlers.Thaw)
	api.HandleFunc("GET /v1/assets/{symbol}/frozen", s.handlers.FrozenAddresses)
	api.HandleFunc("GET /v1/assets/{symbol}/frozen/{address}", s.handlers.FrozenStatus)
	api.HandleFunc("POST /v1/assets/{symbol}/metadata", s.handlers.UpdateMetadata)
	api.HandleFunc("GET /v1/audit", s.handlers.Audit)

	var handler http.Handler = api
	if s.rateLimiter != nil {
		handler = s.rateLimiter.Middleware()(handler)
	}
	handler = middleware.BodyLimitMiddleware(s.knobs)(handler)
	handler = middleware.PanicRecoveryMiddleware(s.config.DetailedErrors)(handler)
	handler = middleware.RequestLogMiddleware(s.knobs)(handler)

	mux := http.NewServeMux()
	mux.Handle("/-/ready", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", otelhttp.NewHandler(handler, "server"))
	return mux
}

// Start serves until Shutdown or listener failure. Orderly shutdown maps to
// nil.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
