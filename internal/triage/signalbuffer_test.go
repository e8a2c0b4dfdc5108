package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalBufferEviction(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	buf := NewSignalBuffer(3)

	for i := 0; i < 5; i++ {
		buf.Push(base.Add(time.Duration(i)*100*time.Millisecond), float64(i))
	}

	require.Equal(t, 3, buf.Len())
	require.Equal(t, 3, buf.Cap())

	snapshot := buf.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, []float64{2, 3, 4}, buf.Values(), "oldest samples should be evicted first")
	assert.True(t, snapshot[0].T.Before(snapshot[2].T), "snapshot must be ordered oldest first")
}

func TestSignalBufferSampleRate(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	buf := NewSignalBuffer(100)
	for i := 0; i < 11; i++ {
		buf.Push(base.Add(time.Duration(i)*100*time.Millisecond), 0)
	}

	assert.InDelta(t, 10.0, buf.SampleRate(), 1e-9)
	assert.Equal(t, time.Second, buf.Span())
}

func TestSignalBufferEmpty(t *testing.T) {
	t.Parallel()

	buf := NewSignalBuffer(10)
	assert.Equal(t, 0, buf.Len())
	assert.Empty(t, buf.Snapshot())
	assert.Equal(t, time.Duration(0), buf.Span())
	assert.Equal(t, 0.0, buf.SampleRate())
}

func TestSignalBufferEqualTimestampsAllowed(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	buf := NewSignalBuffer(4)
	buf.Push(base, 1)
	buf.Push(base, 2) // Non-decreasing, not strictly increasing
	require.Equal(t, 2, buf.Len())
}

func TestSignalBufferContractViolations(t *testing.T) {
	t.Parallel()

	t.Run("non-positive capacity panics", func(t *testing.T) {
		assert.Panics(t, func() { NewSignalBuffer(0) })
		assert.Panics(t, func() { NewSignalBuffer(-5) })
	})

	t.Run("time going backwards panics", func(t *testing.T) {
		base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		buf := NewSignalBuffer(10)
		buf.Push(base, 1)
		assert.Panics(t, func() { buf.Push(base.Add(-time.Second), 2) })
	})
}
