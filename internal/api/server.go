package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/snarg/tts-engine/internal/azure"
	"github.com/snarg/tts-engine/internal/config"
	"github.com/snarg/tts-engine/internal/metrics"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(cfg *config.Config, b Synthesizer, version string, startTime time.Time, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(CORS)
	r.Use(metrics.InstrumentHandler)

	tts := &ttsHandler{broker: b, subscribeToken: cfg.SubscribeAuthToken}
	synthRoutes := map[azure.Kind]string{
		azure.KindEdgeFree:     "/api/tts-ms-edge",
		azure.KindPreviewFree:  "/api/tts-ms-preview",
		azure.KindSubscription: "/api/tts-ms-subscribe",
	}
	for kind, route := range synthRoutes {
		if !b.Enabled(kind) {
			continue
		}
		h := tts.handle(kind)
		r.Get(route, h)
		r.Post(route, h)
	}

	catalog := &catalogHandler{broker: b}
	r.Get("/api/list", catalog.handleList)
	r.Get("/api/ms-tts/informant/{backend}", catalog.handleInformants)
	r.Get("/api/ms-tts/style/{backend}/{voice}", catalog.handleStyles)
	r.Get("/api/ms-tts/quality", catalog.handleQualities)

	health := NewHealthHandler(b, version, startTime)
	r.Get("/api/v1/health", health.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
