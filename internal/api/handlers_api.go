// SPDX-License-Identifier: MIT
package api

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapgate/zapgate/internal/channels"
	"github.com/zapgate/zapgate/internal/store"
)

// statusResponse is the /api/status payload.
type statusResponse struct {
	Status           string  `json:"status"`
	Version          string  `json:"version"`
	Backend          string  `json:"backend"`
	Codec            string  `json:"codec"`
	ActiveRecordings int     `json:"active_recordings"`
	ActiveIDs        []int64 `json:"active_ids"`
}

// configRequest is the lenient /api/config mutation body. Missing or
// unrecognised fields leave the stored defaults untouched.
type configRequest struct {
	Backend string `json:"backend"`
	Codec   string `json:"codec"`
}

// timerRequest is the lenient /api/timers creation body. Times are
// milliseconds since the Unix epoch; absent fields default to zero/empty.
type timerRequest struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	ChannelNum string `json:"channel_num"`
	StartTime  int64  `json:"start_time"`
	EndTime    int64  `json:"end_time"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	backend, codec := s.settings.Defaults()
	writeJSON(w, http.StatusOK, statusResponse{
		Status:           "ok",
		Version:          s.cfg.Version,
		Backend:          string(backend),
		Codec:            string(codec),
		ActiveRecordings: s.recorder.ActiveCount(),
		ActiveIDs:        s.recorder.ActiveRecordingIDs(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.cfg.Version})
}

func (s *Server) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	backend, codec := s.settings.Defaults()
	writeJSON(w, http.StatusOK, map[string]string{
		"backend": string(backend),
		"codec":   string(codec),
	})
}

func (s *Server) handleConfigUpdate(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	decodeLenient(r, &req)

	if err := s.settings.Update(req.Backend, req.Codec); err != nil {
		s.logger.Error().Err(err).Msg("cannot persist settings")
		writeError(w, http.StatusInternalServerError, "cannot save configuration")
		return
	}
	writeSuccess(w)
}

func (s *Server) handleRecordingsList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.Recordings(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("recordings query failed")
		writeError(w, http.StatusInternalServerError, "cannot list recordings")
		return
	}
	if recs == nil {
		recs = []store.Recording{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleRecordingDelete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if id == 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	// Best effort unlink; a recording row without a file is still deletable.
	if path, err := s.store.RecordingPath(r.Context(), id); err == nil && path != "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", path).Msg("cannot unlink recording file")
		}
	}

	if err := s.store.DeleteRecording(r.Context(), id); err != nil {
		s.logger.Error().Err(err).Int64("id", id).Msg("recording delete failed")
		writeError(w, http.StatusInternalServerError, "cannot delete recording")
		return
	}
	writeSuccess(w)
}

func (s *Server) handleRecordingStop(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if id == 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if !s.recorder.StopRecording(id) {
		writeError(w, http.StatusNotFound, "recording not found or not active")
		return
	}
	writeSuccess(w)
}

func (s *Server) handleTimersList(w http.ResponseWriter, r *http.Request) {
	timers, err := s.store.Timers(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("timers query failed")
		writeError(w, http.StatusInternalServerError, "cannot list timers")
		return
	}
	if timers == nil {
		timers = []store.Timer{}
	}
	writeJSON(w, http.StatusOK, timers)
}

func (s *Server) handleTimerCreate(w http.ResponseWriter, r *http.Request) {
	var req timerRequest
	decodeLenient(r, &req)

	id, err := s.store.AddTimer(r.Context(), store.Timer{
		Type:       req.Type,
		Title:      req.Title,
		ChannelNum: req.ChannelNum,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("timer insert failed")
		writeError(w, http.StatusInternalServerError, "cannot create timer")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

func (s *Server) handleTimerDelete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if id == 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.DeleteTimer(r.Context(), id); err != nil {
		s.logger.Error().Err(err).Int64("id", id).Msg("timer delete failed")
		writeError(w, http.StatusInternalServerError, "cannot delete timer")
		return
	}
	writeSuccess(w)
}

func (s *Server) handleGuide(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UnixMilli()
	start := queryInt64(r, "start", now)
	end := queryInt64(r, "end", now+24*time.Hour.Milliseconds())

	programs, err := s.store.Guide(r.Context(), start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("guide query failed")
		writeError(w, http.StatusInternalServerError, "cannot load guide")
		return
	}
	if programs == nil {
		programs = []store.Program{}
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleChannelsList(w http.ResponseWriter, r *http.Request) {
	list := s.channels.List()
	if list == nil {
		list = []channels.Channel{}
	}
	writeJSON(w, http.StatusOK, list)
}

// pathID parses the {id} route parameter, returning 0 for anything that is
// not a positive integer. Handlers reject 0 as invalid.
func pathID(r *http.Request) int64 {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func queryInt64(r *http.Request, key string, def int64) int64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
