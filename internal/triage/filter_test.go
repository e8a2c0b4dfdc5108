package triage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sine generates n samples of a sine at freqHz sampled at sampleRate.
func sine(freqHz, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freqHz * float64(i) / sampleRate)
	}
	return out
}

func rms(series []float64) float64 {
	var sum float64
	for _, v := range series {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(series)))
}

func TestBandPassResponse(t *testing.T) {
	t.Parallel()

	const sampleRate = 10.0
	filter, err := newBandPass(0.1, 0.7, sampleRate)
	require.NoError(t, err)

	t.Run("passband frequency passes", func(t *testing.T) {
		in := sine(0.3, sampleRate, 500)
		out := filter.Apply(in)
		assert.Greater(t, rms(out), 0.8*rms(in), "0.3 Hz should pass nearly unattenuated")
	})

	t.Run("sub-band drift is attenuated", func(t *testing.T) {
		in := sine(0.02, sampleRate, 500)
		out := filter.Apply(in)
		assert.Less(t, rms(out), 0.2*rms(in), "0.02 Hz drift should be strongly attenuated")
	})

	t.Run("above-band motion is attenuated", func(t *testing.T) {
		in := sine(2.0, sampleRate, 500)
		out := filter.Apply(in)
		assert.Less(t, rms(out), 0.3*rms(in), "2 Hz motion should be strongly attenuated")
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		in := sine(0.3, sampleRate, 50)
		first := in[10]
		filter.Apply(in)
		assert.Equal(t, first, in[10])
	})
}

func TestBandPassDesignErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name            string
		low, high, rate float64
	}{
		{"zero sample rate", 0.1, 0.7, 0},
		{"band above Nyquist", 0.1, 0.7, 1.0},
		{"inverted band", 0.7, 0.1, 10},
		{"zero low cutoff", 0, 0.7, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newBandPass(tc.low, tc.high, tc.rate)
			assert.Error(t, err)
		})
	}
}
