// Package sim generates synthetic detection batches so the pipeline can
// be exercised without the upstream vision model. Each scripted patient
// breathes as a sinusoidal oscillation of the bounding box centroid,
// optionally wanders (movement), and can disappear during scripted
// occlusion windows.
package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/rescue-lens/triage.report/internal/triage"
)

// PatientScript describes one synthetic patient.
type PatientScript struct {
	// Name labels the scenario in logs and tests.
	Name string

	// BBox is the baseline bounding box in normalized coordinates.
	BBox triage.Rect

	// BreathingRateBPM is the scripted respiratory rate. Zero means the
	// patient is not breathing.
	BreathingRateBPM float64

	// BreathingAmplitude is the peak vertical excursion of the box, in
	// normalized units. Typical chest motion is a fraction of a percent
	// of frame height.
	BreathingAmplitude float64

	// WalkSpeed is the horizontal drift speed in normalized units per
	// second. Zero keeps the patient in place.
	WalkSpeed float64

	// Score is the reported detector confidence.
	Score float64

	// Occlusions are half-open intervals, measured from scenario start,
	// during which the patient produces no detection.
	Occlusions []Window
}

// Window is a half-open time interval [From, To) from scenario start.
type Window struct {
	From time.Duration
	To   time.Duration
}

func (w Window) contains(elapsed time.Duration) bool {
	return elapsed >= w.From && elapsed < w.To
}

// Scenario produces detection batches for a set of scripted patients.
// With the same seed and tick times it replays identically.
type Scenario struct {
	Patients []PatientScript

	start time.Time
	rng   *rand.Rand

	// Jitter is the uniform positional noise applied to every box edge,
	// simulating detector instability.
	Jitter float64
}

// NewScenario creates a scenario starting at start with deterministic
// noise from seed.
func NewScenario(start time.Time, seed int64, patients ...PatientScript) *Scenario {
	return &Scenario{
		Patients: patients,
		start:    start,
		rng:      rand.New(rand.NewSource(seed)),
		Jitter:   0.002,
	}
}

// DetectionsAt returns the detection batch for the given instant.
// Occluded patients are simply absent, exactly as a vision model would
// report them.
func (s *Scenario) DetectionsAt(now time.Time) []triage.Detection {
	elapsed := now.Sub(s.start)
	detections := make([]triage.Detection, 0, len(s.Patients))

	for _, p := range s.Patients {
		if p.occluded(elapsed) {
			continue
		}

		bbox := p.BBox
		bbox.X += p.WalkSpeed * elapsed.Seconds()

		// Breathing: sinusoidal vertical oscillation of the whole box.
		if p.BreathingRateBPM > 0 && p.BreathingAmplitude > 0 {
			freq := p.BreathingRateBPM / 60
			bbox.Y += p.BreathingAmplitude * math.Sin(2*math.Pi*freq*elapsed.Seconds())
		}

		bbox.X += s.noise()
		bbox.Y += s.noise()
		bbox.W += s.noise()
		bbox.H += s.noise()
		if bbox.W < 0 {
			bbox.W = 0
		}
		if bbox.H < 0 {
			bbox.H = 0
		}

		detections = append(detections, triage.Detection{BBox: bbox, Score: p.Score})
	}

	return detections
}

func (p PatientScript) occluded(elapsed time.Duration) bool {
	for _, w := range p.Occlusions {
		if w.contains(elapsed) {
			return true
		}
	}
	return false
}

func (s *Scenario) noise() float64 {
	if s.Jitter <= 0 {
		return 0
	}
	return (s.rng.Float64()*2 - 1) * s.Jitter
}

// DefaultScenario scripts a small mass-casualty scene: a steady walker,
// a still patient breathing normally, a rapid breather, and a patient
// with no chest motion at all.
func DefaultScenario(start time.Time, seed int64) *Scenario {
	return NewScenario(start, seed,
		PatientScript{
			Name:               "walker",
			BBox:               triage.Rect{X: 0.05, Y: 0.2, W: 0.1, H: 0.3},
			BreathingRateBPM:   16,
			BreathingAmplitude: 0.004,
			WalkSpeed:          0.01,
			Score:              0.9,
		},
		PatientScript{
			Name:               "resting",
			BBox:               triage.Rect{X: 0.4, Y: 0.5, W: 0.12, H: 0.25},
			BreathingRateBPM:   14,
			BreathingAmplitude: 0.005,
			Score:              0.85,
		},
		PatientScript{
			Name:               "tachypneic",
			BBox:               triage.Rect{X: 0.7, Y: 0.3, W: 0.1, H: 0.28},
			BreathingRateBPM:   36,
			BreathingAmplitude: 0.004,
			Score:              0.8,
		},
		PatientScript{
			Name:  "apneic",
			BBox:  triage.Rect{X: 0.75, Y: 0.7, W: 0.1, H: 0.2},
			Score: 0.75,
		},
	)
}
