package triage

import (
	"fmt"
	"time"
)

// PipelineConfig bundles the tuning for every pipeline stage.
type PipelineConfig struct {
	Tracker  TrackerConfig
	Spectral SpectralConfig
	Movement MovementConfig

	// SignalQFullScale maps the spectral peak-to-mean confidence ratio
	// onto the [0,1] signal quality reported in PatientState: a ratio at
	// or above this value counts as fully clean.
	SignalQFullScale float64
}

// DefaultPipelineConfig returns defaults for all stages.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Tracker:          DefaultTrackerConfig(),
		Spectral:         DefaultSpectralConfig(),
		Movement:         DefaultMovementConfig(),
		SignalQFullScale: 5.0,
	}
}

// Snapshot is the output of one tick: the assessed patients matched this
// tick, in ascending track-ID order. It contains values only; mutating a
// snapshot never touches pipeline state.
type Snapshot struct {
	Patients []Patient `json:"patients"`
	TS       time.Time `json:"ts"`
}

// CategoryCounts maps triage categories to patient counts.
type CategoryCounts map[Category]int

// Pipeline drives one assessment cycle: tracker update, per-track signal
// extraction, rule classification. It owns the tracker, the estimators
// and the override registry.
//
// The pipeline is tick-driven and single-writer: the host scheduler
// calls Tick at whatever cadence it likes (wall-clock timestamps, not a
// fixed period, drive all expiry), and must not call any method
// concurrently with Tick. It holds no timers, goroutines or I/O, so
// teardown is dropping the reference.
type Pipeline struct {
	tracker   *Tracker
	spectral  *SpectralEstimator
	movement  *MovementClassifier
	rules     *TriageClassifier
	overrides map[TrackID]OverrideRecord

	// last holds the most recent assessment per track still in the
	// persistent store, for last-known rendering of out-of-frame
	// patients.
	last     map[TrackID]Patient
	lastTick time.Time

	signalQFullScale float64
}

// NewPipeline assembles a pipeline from the given configuration.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	fullScale := cfg.SignalQFullScale
	if fullScale <= 0 {
		fullScale = DefaultPipelineConfig().SignalQFullScale
	}
	return &Pipeline{
		tracker:          NewTracker(cfg.Tracker),
		spectral:         NewSpectralEstimator(cfg.Spectral),
		movement:         NewMovementClassifier(cfg.Movement),
		rules:            NewTriageClassifier(),
		overrides:        make(map[TrackID]OverrideRecord),
		last:             make(map[TrackID]Patient),
		signalQFullScale: fullScale,
	}
}

// Tick ingests one detection batch and returns the resulting snapshot.
// Timestamps must be non-decreasing across calls; feeding time backwards
// is a contract violation and panics.
func (p *Pipeline) Tick(detections []Detection, now time.Time) Snapshot {
	if now.Before(p.lastTick) {
		panic(fmt.Sprintf("triage: Tick timestamps must be non-decreasing (%v after %v)", now, p.lastTick))
	}
	p.lastTick = now

	tracks := p.tracker.Update(detections, now)

	snapshot := Snapshot{TS: now, Patients: make([]Patient, 0, len(tracks))}
	for _, track := range tracks {
		state := p.assess(track, now)
		decision := p.rules.Classify(state, p.overrideFor(track.ID))
		patient := Patient{State: state, Decision: decision}
		p.last[track.ID] = patient
		snapshot.Patients = append(snapshot.Patients, patient)
	}

	p.prune()
	return snapshot
}

// assess builds the derived patient state for one track.
func (p *Pipeline) assess(track *Track, now time.Time) PatientState {
	estimate := p.spectral.Estimate(track.Breathing)

	signalQ := estimate.Confidence / p.signalQFullScale
	if signalQ > 1 {
		signalQ = 1
	}
	if signalQ < 0 {
		signalQ = 0
	}

	return PatientState{
		ID:        track.ID,
		BBox:      track.BBox,
		RRbpm:     estimate.RRbpm,
		Breathing: estimate.Breathing,
		Movement:  p.movement.Classify(track.Movement),
		SignalQ:   signalQ,
		DetConf:   track.Score,
		TS:        now,
	}
}

// prune drops last-known assessments and overrides for tracks that have
// left the persistent store entirely.
func (p *Pipeline) prune() {
	alive := make(map[TrackID]bool, p.tracker.PersistentLen())
	for _, track := range p.tracker.PersistentTracks() {
		alive[track.ID] = true
	}
	for id := range p.last {
		if !alive[id] {
			delete(p.last, id)
		}
	}
	for id := range p.overrides {
		if !alive[id] {
			delete(p.overrides, id)
		}
	}
}

// SetOverride registers a human override for a track, replacing any
// prior override for that track. Errors on an invalid category; unknown
// track IDs are accepted so an override can be staged for a patient
// currently out of frame.
func (p *Pipeline) SetOverride(rec OverrideRecord) error {
	if !ValidCategory(rec.Category) {
		return fmt.Errorf("invalid override category %q", rec.Category)
	}
	p.overrides[rec.TrackID] = rec
	return nil
}

// ClearOverride removes the override for a track. Reports whether one
// was present.
func (p *Pipeline) ClearOverride(id TrackID) bool {
	_, ok := p.overrides[id]
	delete(p.overrides, id)
	return ok
}

// Override returns the active override for a track, if any.
func (p *Pipeline) Override(id TrackID) (OverrideRecord, bool) {
	rec, ok := p.overrides[id]
	return rec, ok
}

func (p *Pipeline) overrideFor(id TrackID) *OverrideRecord {
	if rec, ok := p.overrides[id]; ok {
		return &rec
	}
	return nil
}

// PersistentPatients returns last-known assessments for every track in
// the persistent store, including out-of-frame ones, in ascending
// track-ID order. A track counts as out of frame when any time has
// passed since it was last matched.
func (p *Pipeline) PersistentPatients(now time.Time) []PersistentPatient {
	tracks := p.tracker.PersistentTracks()
	out := make([]PersistentPatient, 0, len(tracks))
	for _, track := range tracks {
		patient, ok := p.last[track.ID]
		if !ok {
			continue
		}
		out = append(out, PersistentPatient{
			Patient:    patient,
			OutOfFrame: now.Sub(track.LastSeenAt) > 0,
		})
	}
	return out
}

// Stats counts the latest decision per persistent patient by category.
func (p *Pipeline) Stats() CategoryCounts {
	counts := make(CategoryCounts)
	for _, patient := range p.last {
		counts[patient.Decision.Category]++
	}
	return counts
}
