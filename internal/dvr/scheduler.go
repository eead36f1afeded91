// SPDX-License-Identifier: MIT

// Package dvr schedules, supervises and stops capture subprocesses for
// persisted timers.
package dvr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zapgate/zapgate/internal/log"
	"github.com/zapgate/zapgate/internal/metrics"
	"github.com/zapgate/zapgate/internal/store"
)

// Store is the subset of the recording store the scheduler needs.
type Store interface {
	PendingTimers(ctx context.Context, now int64) ([]store.Timer, error)
	AddRecording(ctx context.Context, r store.Recording) (int64, error)
	FinishRecording(ctx context.Context, id, endTime int64, status string) error
	DeleteTimer(ctx context.Context, id int64) error
}

// CaptureStarter spawns a capture subprocess for a stream URL and output
// path. Production wiring uses transcode.StartCapture.
type CaptureStarter func(ctx context.Context, streamURL, outPath string) (Capture, error)

// Clock abstracts wall-clock reads for tests.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Scheduler polls the store for due timers, starts captures against the
// gateway's own stream endpoint and supervises them to their deadlines.
type Scheduler struct {
	Interval time.Duration

	store        Store
	registry     *Registry
	startCapture CaptureStarter
	clock        Clock
	selfBaseURL  string // the gateway's own address, so stream resolution is reused
	recDir       string
	logger       zerolog.Logger
}

// NewScheduler wires a scheduler against the store and registry. selfBaseURL
// is the gateway's own HTTP address; captures record from /stream/ on it so
// the discovery client's endpoint resolution is reused.
func NewScheduler(st Store, reg *Registry, start CaptureStarter, selfBaseURL, recDir string) *Scheduler {
	return &Scheduler{
		Interval:     10 * time.Second,
		store:        st,
		registry:     reg,
		startCapture: start,
		clock:        RealClock{},
		selfBaseURL:  selfBaseURL,
		recDir:       recDir,
		logger:       log.WithComponent("dvr"),
	}
}

// SetClock replaces the wall clock, for tests.
func (s *Scheduler) SetClock(c Clock) { s.clock = c }

// Run executes the poll loop until ctx is cancelled. One failed iteration
// never stops the loop.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.Interval).Msg("scheduler started")
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		s.poll(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopping")
			s.stopAll(context.Background())
			return
		case <-ticker.C:
		}
	}
}

// poll runs one scheduler iteration: start due timers, then reap slots whose
// deadline passed or whose subprocess died.
func (s *Scheduler) poll(ctx context.Context) {
	now := s.clock.Now()
	nowMs := now.UnixMilli()

	timers, err := s.store.PendingTimers(ctx, nowMs)
	if err != nil {
		s.logger.Error().Err(err).Msg("pending timer query failed, skipping iteration")
	} else {
		for _, t := range timers {
			if s.registry.Has(t.ID) {
				continue
			}
			s.startTimer(ctx, t, nowMs)
		}
	}

	for _, slot := range s.registry.Snapshot() {
		switch {
		case !now.Before(slot.End):
			s.finishSlot(ctx, slot, nowMs)
		case slot.capture.Exited():
			s.failSlot(ctx, slot, nowMs)
		}
	}
}

func (s *Scheduler) startTimer(ctx context.Context, t store.Timer, nowMs int64) {
	if s.registry.Count() >= s.registry.capacity {
		s.logger.Warn().
			Int64("timer_id", t.ID).
			Int("capacity", s.registry.capacity).
			Msg("registry full, deferring recording start")
		return
	}

	if err := os.MkdirAll(s.recDir, 0o755); err != nil {
		s.logger.Error().Err(err).Str("dir", s.recDir).Msg("cannot create recordings directory")
		return
	}
	outPath := filepath.Join(s.recDir, fmt.Sprintf("%s-%d.mp4", sanitizeTitle(t.Title), nowMs))

	// Recording row first, so an observer never sees a slot without one.
	recID, err := s.store.AddRecording(ctx, store.Recording{
		Title:       t.Title,
		ChannelName: t.ChannelNum,
		StartTime:   nowMs,
		FilePath:    outPath,
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("timer_id", t.ID).Msg("cannot create recording row")
		return
	}

	streamURL := fmt.Sprintf("%s/stream/%s", s.selfBaseURL, t.ChannelNum)
	capture, err := s.startCapture(ctx, streamURL, outPath)
	if err != nil {
		s.logger.Error().Err(err).Int64("timer_id", t.ID).Msg("capture spawn failed")
		if ferr := s.store.FinishRecording(ctx, recID, nowMs, store.StatusFailed); ferr != nil {
			s.logger.Error().Err(ferr).Int64("recording_id", recID).Msg("cannot mark recording failed")
		}
		return
	}

	slot := Slot{
		TimerID:     t.ID,
		RecordingID: recID,
		End:         time.UnixMilli(t.EndTime),
		Path:        outPath,
	}
	if err := s.registry.Insert(slot, capture); err != nil {
		// Capacity raced away between the check and the insert.
		s.logger.Warn().Err(err).Int64("timer_id", t.ID).Msg("cannot register capture, stopping it")
		capture.Stop()
		if ferr := s.store.FinishRecording(ctx, recID, nowMs, store.StatusFailed); ferr != nil {
			s.logger.Error().Err(ferr).Int64("recording_id", recID).Msg("cannot mark recording failed")
		}
		return
	}

	s.logger.Info().
		Int64("timer_id", t.ID).
		Int64("recording_id", recID).
		Str("title", t.Title).
		Str("channel", t.ChannelNum).
		Str("path", outPath).
		Msg("recording started")
}

// finishSlot stops a capture whose deadline passed, finalizes the recording
// row and deletes the one-shot timer. Stop happens before the timer delete
// so an observer never sees a deleted timer with a running capture.
func (s *Scheduler) finishSlot(ctx context.Context, slot Slot, nowMs int64) {
	s.logger.Info().
		Int64("recording_id", slot.RecordingID).
		Msg("recording deadline reached, stopping capture")

	slot.capture.Stop()

	if err := s.store.FinishRecording(ctx, slot.RecordingID, nowMs, store.StatusCompleted); err != nil {
		s.logger.Error().Err(err).Int64("recording_id", slot.RecordingID).Msg("cannot finalize recording row")
	}
	s.registry.Remove(slot.TimerID)
	if err := s.store.DeleteTimer(ctx, slot.TimerID); err != nil {
		s.logger.Error().Err(err).Int64("timer_id", slot.TimerID).Msg("cannot delete completed timer")
	}
	metrics.RecordingsFinishedTotal.WithLabelValues(store.StatusCompleted).Inc()
}

// failSlot clears a slot whose subprocess exited before its deadline.
func (s *Scheduler) failSlot(ctx context.Context, slot Slot, nowMs int64) {
	s.logger.Warn().
		Int64("recording_id", slot.RecordingID).
		Str("path", slot.Path).
		Msg("capture process died before its deadline")

	if err := s.store.FinishRecording(ctx, slot.RecordingID, nowMs, store.StatusFailed); err != nil {
		s.logger.Error().Err(err).Int64("recording_id", slot.RecordingID).Msg("cannot mark recording failed")
	}
	s.registry.Remove(slot.TimerID)
	if err := s.store.DeleteTimer(ctx, slot.TimerID); err != nil {
		s.logger.Error().Err(err).Int64("timer_id", slot.TimerID).Msg("cannot delete failed timer")
	}
	metrics.RecordingsFinishedTotal.WithLabelValues(store.StatusFailed).Inc()
}

// StopRecording stops an active capture by recording id. The slot is freed;
// timer and recording rows are left for the caller to finalize. A second
// call for the same id reports not found.
func (s *Scheduler) StopRecording(recordingID int64) bool {
	slot, capture, ok := s.registry.TakeByRecording(recordingID)
	if !ok {
		return false
	}
	s.logger.Info().
		Int64("recording_id", recordingID).
		Str("path", slot.Path).
		Msg("stopping recording on request")
	capture.Stop()
	return true
}

// ActiveCount returns the number of running captures.
func (s *Scheduler) ActiveCount() int { return s.registry.Count() }

// ActiveRecordingIDs returns the recording ids of all running captures.
func (s *Scheduler) ActiveRecordingIDs() []int64 { return s.registry.RecordingIDs() }

// stopAll terminates every remaining capture during shutdown.
func (s *Scheduler) stopAll(ctx context.Context) {
	nowMs := s.clock.Now().UnixMilli()
	for _, slot := range s.registry.Snapshot() {
		slot.capture.Stop()
		if err := s.store.FinishRecording(ctx, slot.RecordingID, nowMs, store.StatusCompleted); err != nil {
			s.logger.Error().Err(err).Int64("recording_id", slot.RecordingID).Msg("cannot finalize recording row")
		}
		s.registry.Remove(slot.TimerID)
	}
}

// sanitizeTitle makes a timer title safe for use in a filename.
func sanitizeTitle(title string) string {
	if title == "" {
		return "recording"
	}
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', 0:
			return '_'
		}
		return r
	}, title)
	return strings.ReplaceAll(replaced, "..", "_")
}
