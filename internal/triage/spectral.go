package triage

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// SpectralConfig holds tuning parameters for breathing-rate extraction.
type SpectralConfig struct {
	// MinSamples is the minimum buffer length before any estimate is
	// attempted (~3s of data at 10 Hz).
	MinSamples int

	// BandLowHz and BandHighHz bound the physiological breathing band
	// (6-42 breaths/min).
	BandLowHz  float64
	BandHighHz float64

	// ConfidenceMin gates numeric rate reporting. Below it the estimator
	// degrades to an amplitude presence heuristic rather than reporting
	// a precise-looking rate off a noisy spectrum.
	ConfidenceMin float64

	// AmplitudeMin is the peak-to-peak threshold, in normalized position
	// units, for the presence heuristic.
	AmplitudeMin float64
}

// DefaultSpectralConfig returns the documented defaults. ConfidenceMin
// and AmplitudeMin were inherited from the prototype and are exposed in
// the tuning config for recalibration.
func DefaultSpectralConfig() SpectralConfig {
	return SpectralConfig{
		MinSamples:    30,
		BandLowHz:     0.1,
		BandHighHz:    0.7,
		ConfidenceMin: 0.3,
		AmplitudeMin:  0.01,
	}
}

// BreathingEstimate is the output of the spectral estimator. RRbpm and
// Breathing are nil when the buffer holds too little data to say
// anything. Confidence is the in-band peak-to-mean magnitude ratio; it
// is 0 when no spectral estimate was possible.
type BreathingEstimate struct {
	RRbpm      *float64
	Breathing  *bool
	Confidence float64
}

// SpectralEstimator extracts a breathing rate from a buffer of chest
// position samples: band-pass filter to the breathing band, real FFT,
// in-band peak pick, with a confidence gate guarding against reporting a
// rate when the peak is not separated from the noise floor.
type SpectralEstimator struct {
	cfg SpectralConfig
}

// NewSpectralEstimator creates an estimator with the given tuning.
func NewSpectralEstimator(cfg SpectralConfig) *SpectralEstimator {
	return &SpectralEstimator{cfg: cfg}
}

// Estimate analyses the buffer. It never fails: data sparsity and
// low-confidence spectra surface as nil fields, not errors.
func (e *SpectralEstimator) Estimate(buf *SignalBuffer) BreathingEstimate {
	if buf == nil || buf.Len() < e.cfg.MinSamples {
		return BreathingEstimate{}
	}
	sampleRate := buf.SampleRate()
	if sampleRate <= 0 {
		return BreathingEstimate{}
	}

	// Remove the DC offset so the filter settles on signal, not on the
	// absolute chest position in the frame.
	series := buf.Values()
	mean := stat.Mean(series, nil)
	for i := range series {
		series[i] -= mean
	}

	filter, err := newBandPass(e.cfg.BandLowHz, e.cfg.BandHighHz, sampleRate)
	if err != nil {
		// Sampling too slow for the breathing band: no spectral estimate
		// is possible, fall straight through to the presence heuristic.
		return e.presenceFallback(series, 0)
	}
	filtered := filter.Apply(series)

	peakHz, confidence, ok := dominantFrequency(filtered, sampleRate, e.cfg.BandLowHz, e.cfg.BandHighHz)
	if !ok || confidence < e.cfg.ConfidenceMin {
		return e.presenceFallback(filtered, confidence)
	}

	rr := math.Round(peakHz * 60)
	breathing := true
	return BreathingEstimate{RRbpm: &rr, Breathing: &breathing, Confidence: confidence}
}

// presenceFallback reports the coarser breathing presence signal from the
// peak-to-peak amplitude of the (filtered) series.
func (e *SpectralEstimator) presenceFallback(series []float64, confidence float64) BreathingEstimate {
	lo, hi := series[0], series[0]
	for _, v := range series {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	breathing := (hi - lo) > e.cfg.AmplitudeMin
	return BreathingEstimate{Breathing: &breathing, Confidence: confidence}
}

// dominantFrequency computes a real FFT of the series and picks the bin
// with maximum magnitude whose frequency lies in [lowHz, highHz].
// Confidence is peak magnitude over mean in-band magnitude. Returns
// ok=false when no bin falls inside the band or the band is silent.
func dominantFrequency(series []float64, sampleRate, lowHz, highHz float64) (peakHz, confidence float64, ok bool) {
	fft := fourier.NewFFT(len(series))
	coeffs := fft.Coefficients(nil, series)

	var (
		peakMag float64
		sumMag  float64
		inBand  int
	)
	for i := 1; i < len(coeffs); i++ {
		freq := fft.Freq(i) * sampleRate
		if freq < lowHz || freq > highHz {
			continue
		}
		mag := cmplx.Abs(coeffs[i])
		sumMag += mag
		inBand++
		if mag > peakMag {
			peakMag = mag
			peakHz = freq
		}
	}
	if inBand == 0 || sumMag == 0 {
		return 0, 0, false
	}
	return peakHz, peakMag / (sumMag / float64(inBand)), true
}
