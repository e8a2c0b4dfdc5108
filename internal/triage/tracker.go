package triage

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// TrackerConfig holds configuration for the identity tracker.
type TrackerConfig struct {
	// IOUThreshold is the minimum overlap for a detection to claim an
	// existing track.
	IOUThreshold float64

	// ActiveTTL is how long an unmatched track stays in the active set.
	// It must span several ticks so a short occlusion or walk out of
	// frame does not break identity.
	ActiveTTL time.Duration

	// PersistentTTL is how long a track is retained in the persistent
	// store after it was last seen, so downstream consumers can render
	// last-known state for out-of-frame patients.
	PersistentTTL time.Duration

	// BreathingCapacity and MovementCapacity size the per-track signal
	// buffers (~15s and ~5s at 10 Hz).
	BreathingCapacity int
	MovementCapacity  int
}

// DefaultTrackerConfig returns production-default tracker parameters.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		IOUThreshold:      0.3,
		ActiveTTL:         30 * time.Second,
		PersistentTTL:     5 * time.Minute,
		BreathingCapacity: 150,
		MovementCapacity:  50,
	}
}

// Tracker associates per-frame detections into persistent tracks using
// greedy IOU assignment. Greedy (not optimal bipartite) matching is a
// deliberate choice: at the expected scale of at most tens of patients
// it behaves identically to Hungarian assignment in practice and keeps
// tie-breaking trivial to reason about.
//
// The tracker owns two maps: the active set, holding tracks eligible for
// matching, and the persistent store, which additionally retains tracks
// through activeTTL expiry until persistentTTL elapses. A track object
// is shared between both maps, so a track surviving a short occlusion
// keeps its buffers and last known physiological state.
//
// Tracker is not safe for concurrent use; per the pipeline's concurrency
// model there is exactly one logical writer.
type Tracker struct {
	active     map[TrackID]*Track
	persistent map[TrackID]*Track
	nextID     TrackID
	cfg        TrackerConfig
}

// NewTracker creates a tracker. Panics if the configured buffer
// capacities are not positive.
func NewTracker(cfg TrackerConfig) *Tracker {
	if cfg.BreathingCapacity <= 0 || cfg.MovementCapacity <= 0 {
		panic(fmt.Sprintf("triage: tracker buffer capacities must be positive, got %d/%d",
			cfg.BreathingCapacity, cfg.MovementCapacity))
	}
	return &Tracker{
		active:     make(map[TrackID]*Track),
		persistent: make(map[TrackID]*Track),
		nextID:     1,
		cfg:        cfg,
	}
}

// Update processes one detection batch and returns the tracks matched or
// created this tick, in ascending ID order.
func (t *Tracker) Update(detections []Detection, now time.Time) []*Track {
	// Step 1: age out stale tracks. Active-set expiry uses a strict
	// comparison so repeating a tick at the same timestamp is a no-op.
	for id, track := range t.active {
		if now.Sub(track.LastSeenAt) > t.cfg.ActiveTTL {
			delete(t.active, id)
		}
	}
	for id, track := range t.persistent {
		if now.Sub(track.LastSeenAt) > t.cfg.PersistentTTL {
			delete(t.persistent, id)
		}
	}

	// Step 2: greedy IOU association. Candidate tracks are scanned in
	// ascending ID order so ties go to the longest-lived track and the
	// outcome does not depend on map iteration order.
	candidates := t.sortedActive()
	claimed := make(map[TrackID]bool)
	result := make([]*Track, 0, len(detections))

	for _, det := range detections {
		var best *Track
		bestIOU := t.cfg.IOUThreshold
		for _, track := range candidates {
			if claimed[track.ID] {
				continue
			}
			if iou := IOU(det.BBox, track.BBox); iou > bestIOU {
				best = track
				bestIOU = iou
			}
		}

		if best != nil {
			claimed[best.ID] = true
			t.applyMatch(best, det, now)
			result = append(result, best)
			continue
		}

		// Step 3: unmatched detections spawn new tracks. Zero-area boxes
		// land here too: their IOU against everything is 0.
		track := t.newTrack(det, now)
		result = append(result, track)
	}

	// Unmatched active tracks are deliberately left untouched; they stay
	// matchable until activeTTL elapses, which is what carries a patient
	// through occlusion.

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// applyMatch folds a matched detection into the track and appends signal
// samples.
func (t *Tracker) applyMatch(track *Track, det Detection, now time.Time) {
	prevCentroid := track.Centroid
	prevSeen := track.LastSeenAt

	track.BBox = det.BBox
	track.Centroid = det.BBox.Center()
	track.Landmarks = det.Landmarks
	track.Score = det.Score
	track.LastSeenAt = now

	// Chest proxy: vertical centroid position. Breathing shows up as a
	// sub-pixel oscillation of the box around a slowly moving baseline;
	// the band-pass filter strips the baseline.
	track.Breathing.Push(now, track.Centroid.Y)

	// Instantaneous speed from centroid displacement. Skipped when no
	// time elapsed since the previous observation.
	if dt := now.Sub(prevSeen).Seconds(); dt > 0 {
		dx := track.Centroid.X - prevCentroid.X
		dy := track.Centroid.Y - prevCentroid.Y
		track.Movement.Push(now, math.Hypot(dx, dy)/dt)
	}
}

// newTrack allocates a fresh track for an unmatched detection. IDs are
// monotonic and never reused within a process lifetime.
func (t *Tracker) newTrack(det Detection, now time.Time) *Track {
	track := &Track{
		ID:         t.nextID,
		BBox:       det.BBox,
		Centroid:   det.BBox.Center(),
		Landmarks:  det.Landmarks,
		Score:      det.Score,
		CreatedAt:  now,
		LastSeenAt: now,
		Breathing:  NewSignalBuffer(t.cfg.BreathingCapacity),
		Movement:   NewSignalBuffer(t.cfg.MovementCapacity),
	}
	t.nextID++
	t.active[track.ID] = track
	t.persistent[track.ID] = track
	return track
}

// sortedActive returns the active tracks in ascending ID order.
func (t *Tracker) sortedActive() []*Track {
	tracks := make([]*Track, 0, len(t.active))
	for _, track := range t.active {
		tracks = append(tracks, track)
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].ID < tracks[j].ID })
	return tracks
}

// ActiveTracks returns the current active set in ascending ID order,
// including tracks unmatched this tick but within activeTTL.
func (t *Tracker) ActiveTracks() []*Track {
	return t.sortedActive()
}

// PersistentTracks returns every track still in the persistent store in
// ascending ID order, including tracks that have aged out of the active
// set.
func (t *Tracker) PersistentTracks() []*Track {
	tracks := make([]*Track, 0, len(t.persistent))
	for _, track := range t.persistent {
		tracks = append(tracks, track)
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].ID < tracks[j].ID })
	return tracks
}

// ActiveLen returns the number of tracks in the active set.
func (t *Tracker) ActiveLen() int { return len(t.active) }

// PersistentLen returns the number of tracks in the persistent store.
func (t *Tracker) PersistentLen() int { return len(t.persistent) }
