// SPDX-License-Identifier: MIT
package dvr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCapacity(t *testing.T) {
	r := NewRegistry(2)

	require.NoError(t, r.Insert(Slot{TimerID: 1, RecordingID: 10}, &fakeCapture{}))
	require.NoError(t, r.Insert(Slot{TimerID: 2, RecordingID: 20}, &fakeCapture{}))
	assert.ErrorIs(t, r.Insert(Slot{TimerID: 3, RecordingID: 30}, &fakeCapture{}), ErrRegistryFull)

	r.Remove(1)
	assert.NoError(t, r.Insert(Slot{TimerID: 3, RecordingID: 30}, &fakeCapture{}))
}

func TestRegistryDefaultCapacity(t *testing.T) {
	r := NewRegistry(0)
	for i := int64(1); i <= 16; i++ {
		require.NoError(t, r.Insert(Slot{TimerID: i, RecordingID: i}, &fakeCapture{}))
	}
	assert.ErrorIs(t, r.Insert(Slot{TimerID: 17, RecordingID: 17}, &fakeCapture{}), ErrRegistryFull)
}

func TestRegistryTakeByRecording(t *testing.T) {
	r := NewRegistry(4)
	cap1 := &fakeCapture{}
	end := time.UnixMilli(5000)
	require.NoError(t, r.Insert(Slot{TimerID: 1, RecordingID: 10, End: end, Path: "/rec/a.mp4"}, cap1))

	slot, capture, ok := r.TakeByRecording(10)
	require.True(t, ok)
	assert.Equal(t, int64(1), slot.TimerID)
	assert.Equal(t, "/rec/a.mp4", slot.Path)
	assert.Same(t, cap1, capture)
	assert.Equal(t, 0, r.Count())

	_, _, ok = r.TakeByRecording(10)
	assert.False(t, ok)
}

func TestRegistryRecordingIDsSorted(t *testing.T) {
	r := NewRegistry(4)
	require.NoError(t, r.Insert(Slot{TimerID: 1, RecordingID: 30}, &fakeCapture{}))
	require.NoError(t, r.Insert(Slot{TimerID: 2, RecordingID: 10}, &fakeCapture{}))
	require.NoError(t, r.Insert(Slot{TimerID: 3, RecordingID: 20}, &fakeCapture{}))

	assert.Equal(t, []int64{10, 20, 30}, r.RecordingIDs())
}
