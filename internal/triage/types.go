package triage

import "time"

// Category is a START-style triage category.
type Category string

const (
	CategoryRed     Category = "RED"
	CategoryYellow  Category = "YELLOW"
	CategoryGreen   Category = "GREEN"
	CategoryBlack   Category = "BLACK"
	CategoryUnknown Category = "UNKNOWN"
)

// ValidCategory reports whether c is one of the five triage categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryRed, CategoryYellow, CategoryGreen, CategoryBlack, CategoryUnknown:
		return true
	}
	return false
}

// MovementLabel is the discrete activity classification for a track.
type MovementLabel string

const (
	MovementPurposeful MovementLabel = "purposeful"
	MovementLow        MovementLabel = "low"
	MovementNone       MovementLabel = "none"
	MovementUnknown    MovementLabel = "unknown"
)

// Point is a 2D point in normalized frame coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmark is a single pose landmark with a per-point visibility score,
// as produced by the upstream pose model.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Rect is an axis-aligned rectangle in normalized [0,1] frame coordinates.
// W and H are non-negative.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the centroid of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Area returns the rectangle area. Zero for degenerate boxes.
func (r Rect) Area() float64 {
	if r.W <= 0 || r.H <= 0 {
		return 0
	}
	return r.W * r.H
}

// Detection is one per-frame person detection from the upstream vision
// model. Detections are ephemeral: the tracker copies what it needs and
// never retains a reference past the tick that delivered it.
type Detection struct {
	BBox      Rect       `json:"bbox"`
	Landmarks []Landmark `json:"landmarks,omitempty"`
	Score     float64    `json:"score"`
}

// TrackID is a stable identity for a physically contiguous detection
// sequence. IDs are allocated monotonically and never reused within a
// process lifetime.
type TrackID int64

// Track is the persistent per-person entity owned by the Tracker.
// All mutation happens inside Tracker.Update; callers receive copies.
type Track struct {
	ID        TrackID
	BBox      Rect
	Centroid  Point
	Landmarks []Landmark
	Score     float64

	CreatedAt  time.Time
	LastSeenAt time.Time

	// Breathing holds chest vertical-position samples; Movement holds
	// instantaneous centroid speed samples.
	Breathing *SignalBuffer
	Movement  *SignalBuffer
}

// PatientState is the per-tick derived physiological snapshot for one
// track. It is a value: recomputed every tick, never mutated in place.
type PatientState struct {
	ID        TrackID       `json:"id"`
	BBox      Rect          `json:"bbox"`
	RRbpm     *float64      `json:"rr_bpm"`
	Breathing *bool         `json:"breathing"`
	Movement  MovementLabel `json:"movement"`
	SignalQ   float64       `json:"signal_q"`
	DetConf   float64       `json:"det_conf"`
	TS        time.Time     `json:"ts"`
}

// TriageDecision is the per-tick classification output for one track.
type TriageDecision struct {
	ID         TrackID   `json:"id"`
	Category   Category  `json:"category"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
	TS         time.Time `json:"ts"`
}

// OverrideRecord is a human-supplied triage category for a track. Once
// present it takes absolute precedence over the rule engine until
// explicitly cleared; it does not expire on its own.
type OverrideRecord struct {
	TrackID    TrackID   `json:"id"`
	Category   Category  `json:"category"`
	Reason     string    `json:"reason"`
	DoctorName string    `json:"doctor_name,omitempty"`
	TS         time.Time `json:"ts"`
}

// Patient pairs the derived state and decision for one track in a tick
// snapshot.
type Patient struct {
	State    PatientState   `json:"state"`
	Decision TriageDecision `json:"decision"`
}

// PersistentPatient is a last-known Patient from the persistent store,
// annotated with whether the track was seen at the most recent tick.
type PersistentPatient struct {
	Patient
	OutOfFrame bool `json:"out_of_frame"`
}
