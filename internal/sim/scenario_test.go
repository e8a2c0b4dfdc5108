package sim

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescue-lens/triage.report/internal/triage"
)

func TestScenarioIsDeterministic(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	replay := func() [][]triage.Detection {
		sc := DefaultScenario(start, 42)
		var batches [][]triage.Detection
		for i := 0; i < 20; i++ {
			batches = append(batches, sc.DetectionsAt(start.Add(time.Duration(i)*100*time.Millisecond)))
		}
		return batches
	}

	if diff := cmp.Diff(replay(), replay()); diff != "" {
		t.Errorf("replays diverged (-first +second):\n%s", diff)
	}
}

func TestScenarioOcclusionWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sc := NewScenario(start, 1, PatientScript{
		Name:  "hidden",
		BBox:  triage.Rect{X: 0.2, Y: 0.2, W: 0.1, H: 0.2},
		Score: 0.9,
		Occlusions: []Window{
			{From: 2 * time.Second, To: 4 * time.Second},
		},
	})

	assert.Len(t, sc.DetectionsAt(start), 1)
	assert.Len(t, sc.DetectionsAt(start.Add(2*time.Second)), 0, "window start is inclusive")
	assert.Len(t, sc.DetectionsAt(start.Add(3*time.Second)), 0)
	assert.Len(t, sc.DetectionsAt(start.Add(4*time.Second)), 1, "window end is exclusive")
}

func TestScenarioBreathingOscillation(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sc := NewScenario(start, 1, PatientScript{
		Name:               "breather",
		BBox:               triage.Rect{X: 0.3, Y: 0.4, W: 0.1, H: 0.2},
		BreathingRateBPM:   15, // 0.25 Hz, 4s period
		BreathingAmplitude: 0.01,
		Score:              0.9,
	})
	sc.Jitter = 0

	// One second into a 4s period the sine is at its positive peak.
	atPeak := sc.DetectionsAt(start.Add(time.Second))
	require.Len(t, atPeak, 1)
	assert.InDelta(t, 0.41, atPeak[0].BBox.Y, 1e-9)

	// Three seconds in it is at the negative peak.
	atTrough := sc.DetectionsAt(start.Add(3 * time.Second))
	require.Len(t, atTrough, 1)
	assert.InDelta(t, 0.39, atTrough[0].BBox.Y, 1e-9)
}

func TestScenarioWalkDrift(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sc := NewScenario(start, 1, PatientScript{
		Name:      "walker",
		BBox:      triage.Rect{X: 0.1, Y: 0.2, W: 0.1, H: 0.3},
		WalkSpeed: 0.02,
		Score:     0.9,
	})
	sc.Jitter = 0

	after := sc.DetectionsAt(start.Add(5 * time.Second))
	require.Len(t, after, 1)
	assert.InDelta(t, 0.2, after[0].BBox.X, 1e-9)
}

func TestScenarioJitterStaysBounded(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sc := NewScenario(start, 7, PatientScript{
		Name:  "still",
		BBox:  triage.Rect{X: 0.5, Y: 0.5, W: 0.1, H: 0.2},
		Score: 0.9,
	})

	for i := 0; i < 100; i++ {
		dets := sc.DetectionsAt(start.Add(time.Duration(i) * 100 * time.Millisecond))
		require.Len(t, dets, 1)
		box := dets[0].BBox
		assert.InDelta(t, 0.5, box.X, sc.Jitter+1e-9)
		assert.InDelta(t, 0.5, box.Y, sc.Jitter+1e-9)
		assert.GreaterOrEqual(t, box.W, 0.0)
		assert.GreaterOrEqual(t, box.H, 0.0)
	}
}

func TestDefaultScenarioDrivesPipeline(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sc := DefaultScenario(start, 42)
	sc.Jitter = 0 // exact boxes keep the spectral expectations sharp
	p := triage.NewPipeline(triage.DefaultPipelineConfig())

	var snap triage.Snapshot
	for i := 0; i < 200; i++ {
		now := start.Add(time.Duration(i) * 100 * time.Millisecond)
		snap = p.Tick(sc.DetectionsAt(now), now)
	}

	// Four scripted patients, none occluded: four stable tracks.
	require.Len(t, snap.Patients, 4)
	byID := map[triage.TrackID]triage.Patient{}
	for _, patient := range snap.Patients {
		byID[patient.State.ID] = patient
	}
	require.Len(t, byID, 4)

	// The apneic patient shows no chest motion and must classify RED.
	apneic := byID[4]
	require.NotNil(t, apneic.State.Breathing)
	assert.False(t, *apneic.State.Breathing)
	assert.Equal(t, triage.CategoryRed, apneic.Decision.Category)
	assert.Equal(t, "No breathing detected", apneic.Decision.Reason)

	// The tachypneic patient breathes at 36 bpm, over the critical bound.
	tachypneic := byID[3]
	require.NotNil(t, tachypneic.State.RRbpm)
	assert.InDelta(t, 36, *tachypneic.State.RRbpm, 2)
	assert.Equal(t, triage.CategoryRed, tachypneic.Decision.Category)
}
