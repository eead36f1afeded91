// SPDX-License-Identifier: MIT
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zapgate/zapgate/internal/store"
	"github.com/zapgate/zapgate/internal/transcode"
)

// handleStream serves a live transcode of a channel using the persisted
// default backend/codec.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	if channel == "" {
		writeError(w, http.StatusBadRequest, "no channel specified")
		return
	}

	base, ok := s.endpoints.BaseURL()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "tuner service not discovered yet")
		return
	}

	backend, codec := s.settings.Defaults()
	cfg := transcode.Config{Backend: backend, Codec: codec}
	s.serveTranscode(w, r, fmt.Sprintf("%s/stream/%s", base, channel), cfg)
}

// handleTranscode serves a live transcode configured by free-form path
// tokens: /transcode/{backend}/{codec}/{b<kbps>}/{ac6}/{channel}, in any
// order.
func (s *Server) handleTranscode(w http.ResponseWriter, r *http.Request) {
	tokens := transcode.SplitPath(chi.URLParam(r, "*"))
	cfg, channel := transcode.ParseTokens(tokens, transcode.DefaultConfig())

	base, ok := s.endpoints.BaseURL()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "tuner service not discovered yet")
		return
	}
	if channel == "" {
		writeError(w, http.StatusBadRequest, "no channel specified")
		return
	}

	s.logger.Info().
		Str("channel", channel).
		Str("backend", string(cfg.Backend)).
		Str("codec", string(cfg.Codec)).
		Int("bitrate_kbps", cfg.BitrateKbps).
		Bool("surround", cfg.Surround51).
		Msg("transcode request")

	s.serveTranscode(w, r, fmt.Sprintf("%s/stream/%s", base, channel), cfg)
}

// handlePlay transcodes a stored recording: /api/play/{id}/{...tokens...}.
// The leading numeric token is the recording id; the rest use the shared
// token grammar.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	tokens := transcode.SplitPath(chi.URLParam(r, "*"))

	var id int64
	if len(tokens) > 0 {
		if parsed, err := strconv.ParseInt(tokens[0], 10, 64); err == nil {
			id = parsed
			tokens = tokens[1:]
		}
	}
	if id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	cfg, _ := transcode.ParseTokens(tokens, transcode.DefaultConfig())

	path, err := s.store.RecordingPath(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recording not found")
			return
		}
		s.logger.Error().Err(err).Int64("id", id).Msg("recording lookup failed")
		writeError(w, http.StatusInternalServerError, "cannot load recording")
		return
	}

	s.logger.Info().Int64("id", id).Str("path", path).Msg("playing recording")
	s.serveTranscode(w, r, path, cfg)
}

// serveTranscode spawns the encoder for input and relays its output to the
// client until disconnect. A spawn failure is reported before any stream
// bytes are sent; a relay write failure is a normal disconnect.
func (s *Server) serveTranscode(w http.ResponseWriter, r *http.Request, input string, cfg transcode.Config) {
	job, err := transcode.Start(r.Context(), s.cfg.FFmpegPath, input, cfg)
	if err != nil {
		s.logger.Error().Err(err).Str("input", input).Msg("encoder startup failed")
		writeError(w, http.StatusInternalServerError, "encoder failed to start")
		return
	}
	defer job.Shutdown()

	w.Header().Set("Content-Type", cfg.ContentType())
	w.WriteHeader(http.StatusOK)

	if err := job.Relay(w); err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("relay ended with error")
	}
}
