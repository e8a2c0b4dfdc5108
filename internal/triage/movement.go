package triage

import "gonum.org/v1/gonum/stat"

// MovementConfig holds thresholds for the activity classifier, in
// normalized-coordinate units per second.
type MovementConfig struct {
	// MinSamples is the minimum number of velocity samples before a
	// label other than "unknown" is produced.
	MinSamples int

	// PurposefulAvg and PurposefulMax must both be exceeded for the
	// "purposeful" label.
	PurposefulAvg float64
	PurposefulMax float64

	// LowAvg separates "low" from "none".
	LowAvg float64
}

// DefaultMovementConfig returns the documented defaults (~5s of velocity
// history at 10 Hz).
func DefaultMovementConfig() MovementConfig {
	return MovementConfig{
		MinSamples:    10,
		PurposefulAvg: 0.01,
		PurposefulMax: 0.02,
		LowAvg:        0.005,
	}
}

// MovementClassifier buckets a velocity buffer into a discrete activity
// label.
type MovementClassifier struct {
	cfg MovementConfig
}

// NewMovementClassifier creates a classifier with the given thresholds.
func NewMovementClassifier(cfg MovementConfig) *MovementClassifier {
	return &MovementClassifier{cfg: cfg}
}

// Classify labels the track's recent movement. Buffers below MinSamples
// yield "unknown" rather than a guess.
func (c *MovementClassifier) Classify(buf *SignalBuffer) MovementLabel {
	if buf == nil || buf.Len() < c.cfg.MinSamples {
		return MovementUnknown
	}

	velocities := buf.Values()
	avg := stat.Mean(velocities, nil)
	max := velocities[0]
	for _, v := range velocities {
		if v > max {
			max = v
		}
	}

	switch {
	case avg > c.cfg.PurposefulAvg && max > c.cfg.PurposefulMax:
		return MovementPurposeful
	case avg > c.cfg.LowAvg:
		return MovementLow
	default:
		return MovementNone
	}
}
