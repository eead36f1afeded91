// SPDX-License-Identifier: MIT
package channels

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/zapgate/zapgate/internal/log"
)

// Manager caches the parsed channel list and invalidates the cache when the
// underlying file changes. List never fails: a missing or unreadable file
// yields an empty list.
type Manager struct {
	mu     sync.RWMutex
	path   string
	cached []Channel
	loaded bool
	logger zerolog.Logger
}

// NewManager creates a manager for the channel list at path.
func NewManager(path string) *Manager {
	return &Manager{
		path:   path,
		logger: log.WithComponent("channels"),
	}
}

// List returns the channel list, reloading from disk if the cache was
// invalidated. The returned slice must not be mutated.
func (m *Manager) List() []Channel {
	m.mu.RLock()
	if m.loaded {
		cached := m.cached
		m.mu.RUnlock()
		return cached
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		return m.cached
	}

	parsed, err := Parse(m.path)
	if err != nil {
		m.logger.Warn().Err(err).Str("path", m.path).Msg("channel list unavailable")
		parsed = nil
	} else {
		m.logger.Info().Int("count", len(parsed)).Str("path", m.path).Msg("loaded channel list")
	}
	m.cached = parsed
	m.loaded = true
	return m.cached
}

// Invalidate drops the cache so the next List reloads from disk.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.loaded = false
	m.cached = nil
	m.mu.Unlock()
}

// Watch invalidates the cache whenever the channel list file is rewritten.
// It returns once the watcher is installed; watching a path whose directory
// does not exist is reported as an error.
func (m *Manager) Watch(done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(m.path); err != nil {
		// Fall back to watching nothing rather than failing startup: the
		// file may simply not exist yet.
		m.logger.Warn().Err(err).Str("path", m.path).Msg("cannot watch channel list")
		_ = watcher.Close()
		return nil
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Remove) {
					m.logger.Debug().Str("op", ev.Op.String()).Msg("channel list changed, invalidating cache")
					m.Invalidate()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				m.logger.Warn().Err(err).Msg("channel list watcher error")
			}
		}
	}()

	return nil
}
