// SPDX-License-Identifier: MIT
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/zapgate/zapgate/internal/log"
	"github.com/zapgate/zapgate/internal/transcode"
)

// Settings holds the user-tunable transcoding defaults, persisted as a small
// key=value file. Reads and writes go through a mutex so concurrent API
// handlers always observe a consistent pair.
type Settings struct {
	mu      sync.RWMutex
	path    string
	backend transcode.Backend
	codec   transcode.Codec
	logger  zerolog.Logger
}

const (
	keyBackend = "TRANSCODE_BACKEND"
	keyCodec   = "TRANSCODE_CODEC"
)

// LoadSettings reads the settings file at path, falling back to the defaults
// (software/h264) when the file is missing or a value is unrecognised.
// A missing file is not an error.
func LoadSettings(path string) *Settings {
	s := &Settings{
		path:    path,
		backend: transcode.BackendSoftware,
		codec:   transcode.CodecH264,
		logger:  log.WithComponent("settings"),
	}

	f, err := os.Open(path) // #nosec G304 -- operator-supplied settings path
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", path).Msg("cannot read settings file, using defaults")
		}
		return s
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case keyBackend:
			if b, ok := transcode.ParseBackend(value); ok {
				s.backend = b
			} else {
				s.logger.Warn().Str("value", value).Msg("unknown backend in settings file, keeping default")
			}
		case keyCodec:
			if c, ok := transcode.ParseCodec(value); ok {
				s.codec = c
			} else {
				s.logger.Warn().Str("value", value).Msg("unknown codec in settings file, keeping default")
			}
		}
	}

	return s
}

// Defaults returns the currently configured backend and codec.
func (s *Settings) Defaults() (transcode.Backend, transcode.Codec) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend, s.codec
}

// Update replaces the stored defaults and persists them. Empty or
// unrecognised values leave the corresponding field untouched.
func (s *Settings) Update(backend, codec string) error {
	s.mu.Lock()
	if b, ok := transcode.ParseBackend(backend); ok {
		s.backend = b
	}
	if c, ok := transcode.ParseCodec(codec); ok {
		s.codec = c
	}
	content := fmt.Sprintf("%s=%s\n%s=%s\n", keyBackend, s.backend, keyCodec, s.codec)
	path := s.path
	s.mu.Unlock()

	if err := renameio.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
