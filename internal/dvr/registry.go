// SPDX-License-Identifier: MIT
package dvr

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/zapgate/zapgate/internal/metrics"
)

// ErrRegistryFull is returned when every slot is occupied.
var ErrRegistryFull = errors.New("dvr: active recording registry is full")

// Capture is the subprocess handle a slot supervises. The concrete type is
// transcode.Capture; tests substitute fakes.
type Capture interface {
	Exited() bool
	Stop()
}

// Slot is the in-memory record of one running capture.
type Slot struct {
	TimerID     int64
	RecordingID int64
	End         time.Time
	Path        string
	capture     Capture
}

// Registry owns the bounded set of active recording slots. Every access goes
// through its mutex; the lock is held only for the in-memory operation,
// never across a subprocess spawn or wait.
type Registry struct {
	mu       sync.Mutex
	capacity int
	slots    map[int64]*Slot // keyed by timer id
}

// NewRegistry creates a registry with the given slot capacity.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = 16
	}
	return &Registry{
		capacity: capacity,
		slots:    make(map[int64]*Slot),
	}
}

// Insert registers a capture under its timer id. It fails with
// ErrRegistryFull when no slot is free.
func (r *Registry) Insert(slot Slot, capture Capture) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.slots) >= r.capacity {
		return ErrRegistryFull
	}
	slot.capture = capture
	r.slots[slot.TimerID] = &slot
	metrics.RecordingsActive.Set(float64(len(r.slots)))
	return nil
}

// Has reports whether a timer already has an active slot.
func (r *Registry) Has(timerID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.slots[timerID]
	return ok
}

// Remove clears a slot by timer id.
func (r *Registry) Remove(timerID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.slots, timerID)
	metrics.RecordingsActive.Set(float64(len(r.slots)))
}

// TakeByRecording removes and returns the slot matching a recording id. The
// returned capture is stopped by the caller outside the lock.
func (r *Registry) TakeByRecording(recordingID int64) (Slot, Capture, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for timerID, slot := range r.slots {
		if slot.RecordingID == recordingID {
			delete(r.slots, timerID)
			metrics.RecordingsActive.Set(float64(len(r.slots)))
			return *slot, slot.capture, true
		}
	}
	return Slot{}, nil, false
}

// Snapshot returns copies of all occupied slots with their captures.
func (r *Registry) Snapshot() []Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Slot, 0, len(r.slots))
	for _, slot := range r.slots {
		out = append(out, *slot)
	}
	return out
}

// Count returns the number of active recordings.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// RecordingIDs returns the sorted ids of all active recordings.
func (r *Registry) RecordingIDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.slots))
	for _, slot := range r.slots {
		ids = append(ids, slot.RecordingID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
