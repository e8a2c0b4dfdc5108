package triage

import (
	"fmt"
	"math"
)

// bandPass is a digital band-pass filter built as a cascade of one
// second-order Butterworth high-pass section at the low cutoff and one
// second-order Butterworth low-pass section at the high cutoff. Each
// section is a biquad derived with the bilinear transform (Q = 1/sqrt2),
// giving 12 dB/octave rolloff on each side of the passband.
type bandPass struct {
	sections []biquad
}

// biquad is a single second-order IIR section in direct form II
// transposed. Coefficients are normalized so a0 == 1.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// newBandPass designs a band-pass filter for the given cutoff band and
// sampling rate. Errors when the band does not fit inside (0, Nyquist):
// with very slow or very short buffers there is no meaningful passband
// and the caller should degrade instead of filtering.
func newBandPass(lowHz, highHz, sampleRate float64) (*bandPass, error) {
	nyquist := sampleRate / 2
	if sampleRate <= 0 {
		return nil, fmt.Errorf("band-pass design: sample rate %.3f Hz is not positive", sampleRate)
	}
	if lowHz <= 0 || highHz <= lowHz || highHz >= nyquist {
		return nil, fmt.Errorf("band-pass design: band [%.3f, %.3f] Hz does not fit below Nyquist %.3f Hz", lowHz, highHz, nyquist)
	}
	return &bandPass{
		sections: []biquad{
			highPassSection(lowHz, sampleRate),
			lowPassSection(highHz, sampleRate),
		},
	}, nil
}

// Apply filters the series and returns a new slice. The filter is run
// forward only; the group delay is irrelevant here because downstream
// analysis is spectral, not time-of-arrival.
func (f *bandPass) Apply(in []float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	for s := range f.sections {
		sec := f.sections[s]
		var z1, z2 float64
		for i, x := range out {
			y := sec.b0*x + z1
			z1 = sec.b1*x - sec.a1*y + z2
			z2 = sec.b2*x - sec.a2*y
			out[i] = y
		}
	}
	return out
}

// butterQ is the quality factor of a second-order Butterworth section.
var butterQ = 1 / math.Sqrt2

// lowPassSection designs a Butterworth low-pass biquad with cutoff f0.
func lowPassSection(f0, sampleRate float64) biquad {
	w0 := 2 * math.Pi * f0 / sampleRate
	cosw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * butterQ)
	a0 := 1 + alpha
	return biquad{
		b0: (1 - cosw) / 2 / a0,
		b1: (1 - cosw) / a0,
		b2: (1 - cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

// highPassSection designs a Butterworth high-pass biquad with cutoff f0.
func highPassSection(f0, sampleRate float64) biquad {
	w0 := 2 * math.Pi * f0 / sampleRate
	cosw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * butterQ)
	a0 := 1 + alpha
	return biquad{
		b0: (1 + cosw) / 2 / a0,
		b1: -(1 + cosw) / a0,
		b2: (1 + cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}
