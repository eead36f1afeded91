// SPDX-License-Identifier: MIT
package api

import (
	"net/http"
	"strconv"

	"github.com/zapgate/zapgate/internal/playlist"
	"github.com/zapgate/zapgate/internal/transcode"
)

// handlePlaylist generates an M3U playlist with one entry per channel,
// pointing at the transcode endpoint. Query parameters backend, codec,
// bitrate and ac6 select the encode flags baked into the URLs.
func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var cfg transcode.Config
	if b, ok := transcode.ParseBackend(q.Get("backend")); ok {
		cfg.Backend = b
	}
	if c, ok := transcode.ParseCodec(q.Get("codec")); ok {
		cfg.Codec = c
	}
	if kbps, err := strconv.Atoi(q.Get("bitrate")); err == nil && kbps > 0 {
		cfg.BitrateKbps = kbps
	}
	if ac6, err := strconv.Atoi(q.Get("ac6")); err == nil && ac6 != 0 {
		cfg.Surround51 = true
	}

	host := r.Host
	if host == "" {
		host = "localhost:3000"
	}

	w.Header().Set("Content-Type", playlist.ContentType)
	w.WriteHeader(http.StatusOK)
	if err := playlist.WriteM3U(w, host, playlist.FlagPath(cfg), s.channels.List()); err != nil {
		s.logger.Warn().Err(err).Msg("playlist write aborted")
	}
}
