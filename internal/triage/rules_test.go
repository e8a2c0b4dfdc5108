package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func TestClassifyRuleTable(t *testing.T) {
	cases := []struct {
		name           string
		state          PatientState
		wantCategory   Category
		wantConfidence float64
		wantReason     string
	}{
		{
			name:           "not breathing",
			state:          PatientState{Breathing: boolPtr(false)},
			wantCategory:   CategoryRed,
			wantConfidence: 0.9,
			wantReason:     "No breathing detected",
		},
		{
			name:           "tachypnea",
			state:          PatientState{Breathing: boolPtr(true), RRbpm: floatPtr(34), Movement: MovementLow},
			wantCategory:   CategoryRed,
			wantConfidence: 0.9,
			wantReason:     "Critical breathing rate: 34 bpm",
		},
		{
			name:           "bradypnea",
			state:          PatientState{Breathing: boolPtr(true), RRbpm: floatPtr(6), Movement: MovementLow},
			wantCategory:   CategoryRed,
			wantConfidence: 0.9,
			wantReason:     "Critical breathing rate: 6 bpm",
		},
		{
			name:           "elevated rate",
			state:          PatientState{Breathing: boolPtr(true), RRbpm: floatPtr(28), Movement: MovementLow},
			wantCategory:   CategoryYellow,
			wantConfidence: 0.8,
			wantReason:     "Abnormal breathing rate",
		},
		{
			name:           "depressed rate",
			state:          PatientState{Breathing: boolPtr(true), RRbpm: floatPtr(10), Movement: MovementLow},
			wantCategory:   CategoryYellow,
			wantConfidence: 0.8,
			wantReason:     "Abnormal breathing rate",
		},
		{
			name:           "normal rate with movement",
			state:          PatientState{Breathing: boolPtr(true), RRbpm: floatPtr(16), Movement: MovementPurposeful},
			wantCategory:   CategoryGreen,
			wantConfidence: 0.7,
			wantReason:     "Normal breathing rate",
		},
		{
			name:           "breathing without a rate",
			state:          PatientState{Breathing: boolPtr(true), Movement: MovementLow},
			wantCategory:   CategoryGreen,
			wantConfidence: 0.7,
			wantReason:     "Breathing detected",
		},
		{
			name:           "no data",
			state:          PatientState{Movement: MovementUnknown},
			wantCategory:   CategoryYellow,
			wantConfidence: 0.5,
			wantReason:     "Breathing status unknown",
		},
		{
			name:           "normal rate but motionless",
			state:          PatientState{Breathing: boolPtr(true), RRbpm: floatPtr(16), Movement: MovementNone},
			wantCategory:   CategoryYellow,
			wantConfidence: 0.7,
			wantReason:     "Normal breathing rate - No movement detected",
		},
	}

	c := NewTriageClassifier()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(tc.state, nil)
			assert.Equal(t, tc.wantCategory, got.Category)
			assert.InDelta(t, tc.wantConfidence, got.Confidence, 1e-9)
			assert.Equal(t, tc.wantReason, got.Reason)
		})
	}
}

func TestClassifyOverrideWins(t *testing.T) {
	c := NewTriageClassifier()
	state := PatientState{
		ID:        7,
		Breathing: boolPtr(false), // Would be RED under the rules
		Movement:  MovementNone,
		TS:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	override := &OverrideRecord{TrackID: 7, Category: CategoryBlack, Reason: "Deceased, confirmed on scene"}

	got := c.Classify(state, override)
	assert.Equal(t, CategoryBlack, got.Category)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, "Deceased, confirmed on scene", got.Reason)
	assert.Equal(t, state.TS, got.TS)

	// Clearing the override reverts to rule output on the next call.
	reverted := c.Classify(state, nil)
	assert.Equal(t, CategoryRed, reverted.Category)
}

func TestClassifyOverrideSkipsMovementAdjustment(t *testing.T) {
	c := NewTriageClassifier()
	state := PatientState{Breathing: boolPtr(true), RRbpm: floatPtr(16), Movement: MovementNone}
	override := &OverrideRecord{Category: CategoryGreen, Reason: "Walked to treatment area"}

	got := c.Classify(state, override)
	assert.Equal(t, CategoryGreen, got.Category, "human judgment is not second-guessed")
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewTriageClassifier()
	state := PatientState{Breathing: boolPtr(true), RRbpm: floatPtr(22), Movement: MovementLow}
	assert.Equal(t, c.Classify(state, nil), c.Classify(state, nil))
}
