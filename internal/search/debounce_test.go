package search

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		d.Schedule(func() { calls.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return calls.Load() == 1
	}, time.Second, 10*time.Millisecond)

	// No second firing afterwards
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var calls atomic.Int32
	d.Schedule(func() { calls.Add(1) })
	assert.True(t, d.Pending())

	d.Cancel()
	assert.False(t, d.Pending())

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestDebouncerFlushRunsImmediately(t *testing.T) {
	d := NewDebouncer(time.Hour)

	var calls atomic.Int32
	d.Schedule(func() { calls.Add(1) })

	d.Flush()
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, d.Pending())

	// Flush with nothing pending is a no-op
	d.Flush()
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebouncerLatestCallbackWins(t *testing.T) {
	d := NewDebouncer(time.Hour)

	var got atomic.Int32
	d.Schedule(func() { got.Store(1) })
	d.Schedule(func() { got.Store(2) })

	d.Flush()
	assert.Equal(t, int32(2), got.Load())
}
