// SPDX-License-Identifier: MIT

// Package api is the gateway's HTTP surface: the JSON API, live-stream and
// transcode handlers, playlist generation and static file serving.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zapgate/zapgate/internal/channels"
	"github.com/zapgate/zapgate/internal/config"
	"github.com/zapgate/zapgate/internal/log"
	"github.com/zapgate/zapgate/internal/store"
)

// EndpointSource yields the companion tuner service's current base URL.
type EndpointSource interface {
	BaseURL() (string, bool)
}

// Recorder is the scheduler surface the API needs for status and manual stop.
type Recorder interface {
	StopRecording(recordingID int64) bool
	ActiveCount() int
	ActiveRecordingIDs() []int64
}

// Config holds the server's wiring.
type Config struct {
	Addr       string
	PublicDir  string
	FFmpegPath string
	Version    string
}

// Server dispatches inbound connections. It holds no per-request state;
// handlers block on their own I/O and the connection closes after one
// exchange.
type Server struct {
	cfg        Config
	store      *store.Store
	settings   *config.Settings
	channels   *channels.Manager
	endpoints  EndpointSource
	recorder   Recorder
	httpServer *http.Server
	logger     zerolog.Logger
}

// New assembles the server and its routes.
func New(cfg Config, st *store.Store, settings *config.Settings, ch *channels.Manager, endpoints EndpointSource, recorder Recorder) *Server {
	s := &Server{
		cfg:       cfg,
		store:     st,
		settings:  settings,
		channels:  ch,
		endpoints: endpoints,
		recorder:  recorder,
		logger:    log.WithComponent("api"),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(closeConnection)
	r.Use(s.logRequest)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/version", s.handleVersion)
		r.Get("/config", s.handleConfigGet)
		r.Get("/recordings", s.handleRecordingsList)
		r.Get("/timers", s.handleTimersList)
		r.Get("/guide", s.handleGuide)
		r.Get("/channels", s.handleChannelsList)
		r.Get("/play/*", s.handlePlay)

		// Mutations are rate limited per client address.
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(60, time.Minute))
			r.Post("/config", s.handleConfigUpdate)
			r.Post("/timers", s.handleTimerCreate)
			r.Delete("/timers/{id}", s.handleTimerDelete)
			r.Delete("/recordings/{id}", s.handleRecordingDelete)
			r.Post("/recordings/{id}/stop", s.handleRecordingStop)
		})
	})

	r.Get("/stream/{channel}", s.handleStream)
	r.Get("/transcode/*", s.handleTranscode)
	r.Get("/playlist.m3u", s.handlePlaylist)
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.NotFound(s.serveStatic)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      0, // streaming responses have no deadline
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s
}

// Handler exposes the routed handler, for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// closeConnection marks every response non-persistent: one request per
// connection, as media players expect from this gateway.
func closeConnection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Connection", "close")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Msg("request")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
