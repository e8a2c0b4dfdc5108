package triage

import (
	"fmt"
	"time"
)

// Sample is a single timestamped scalar observation.
type Sample struct {
	T time.Time
	V float64
}

// SignalBuffer is a fixed-capacity FIFO buffer of timestamped samples.
// Push evicts the oldest sample once the buffer is full. Timestamps must
// be monotonically non-decreasing; feeding time backwards into a buffer
// is a contract violation and panics.
//
// SignalBuffer is pure data with no policy; the estimators decide what
// the samples mean.
type SignalBuffer struct {
	samples []Sample
	head    int // Index of the oldest sample
	length  int
}

// NewSignalBuffer creates a buffer holding at most capacity samples.
// Panics if capacity is not positive.
func NewSignalBuffer(capacity int) *SignalBuffer {
	if capacity <= 0 {
		panic(fmt.Sprintf("triage: SignalBuffer capacity must be positive, got %d", capacity))
	}
	return &SignalBuffer{samples: make([]Sample, capacity)}
}

// Push appends a sample, evicting the oldest one if the buffer is full.
func (b *SignalBuffer) Push(t time.Time, v float64) {
	if b.length > 0 {
		last := b.samples[(b.head+b.length-1)%len(b.samples)]
		if t.Before(last.T) {
			panic(fmt.Sprintf("triage: SignalBuffer timestamps must be non-decreasing (%v after %v)", t, last.T))
		}
	}
	if b.length < len(b.samples) {
		b.samples[(b.head+b.length)%len(b.samples)] = Sample{T: t, V: v}
		b.length++
		return
	}
	b.samples[b.head] = Sample{T: t, V: v}
	b.head = (b.head + 1) % len(b.samples)
}

// Len returns the number of samples currently buffered.
func (b *SignalBuffer) Len() int { return b.length }

// Cap returns the buffer capacity.
func (b *SignalBuffer) Cap() int { return len(b.samples) }

// Snapshot returns the buffered samples, oldest first. The returned slice
// is freshly allocated, so callers may hold on to it across ticks.
func (b *SignalBuffer) Snapshot() []Sample {
	out := make([]Sample, b.length)
	for i := 0; i < b.length; i++ {
		out[i] = b.samples[(b.head+i)%len(b.samples)]
	}
	return out
}

// Values returns just the sample values, oldest first.
func (b *SignalBuffer) Values() []float64 {
	out := make([]float64, b.length)
	for i := 0; i < b.length; i++ {
		out[i] = b.samples[(b.head+i)%len(b.samples)].V
	}
	return out
}

// Span returns the elapsed time between the oldest and newest sample.
// Zero when fewer than two samples are buffered.
func (b *SignalBuffer) Span() time.Duration {
	if b.length < 2 {
		return 0
	}
	oldest := b.samples[b.head]
	newest := b.samples[(b.head+b.length-1)%len(b.samples)]
	return newest.T.Sub(oldest.T)
}

// SampleRate estimates the buffer's sampling rate in Hz from the elapsed
// span. Returns 0 when it cannot be estimated.
func (b *SignalBuffer) SampleRate() float64 {
	span := b.Span()
	if span <= 0 {
		return 0
	}
	return float64(b.length-1) / span.Seconds()
}
