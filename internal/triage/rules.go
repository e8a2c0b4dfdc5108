package triage

import "fmt"

// Rule-engine confidence levels. These express how strongly each rule's
// evidence supports its category, not the signal quality (that is
// PatientState.SignalQ).
const (
	overrideConfidence = 1.0
	criticalConfidence = 0.9
	abnormalConfidence = 0.8
	normalConfidence   = 0.7
	unknownConfidence  = 0.5
)

// Respiratory-rate bounds in breaths per minute, per the START protocol
// approximation.
const (
	rrCriticalHigh = 30.0
	rrCriticalLow  = 8.0
	rrAbnormalHigh = 25.0
	rrAbnormalLow  = 12.0
)

// TriageClassifier maps a patient state (plus an optional human
// override) to a triage decision. It is a pure, total function: every
// input produces a decision, and equal inputs produce equal decisions.
type TriageClassifier struct{}

// NewTriageClassifier creates the rule engine.
func NewTriageClassifier() *TriageClassifier {
	return &TriageClassifier{}
}

// Classify evaluates the triage rules in priority order, first match
// wins. A present override bypasses every rule: human authority is
// absolute until the override is explicitly cleared.
func (c *TriageClassifier) Classify(state PatientState, override *OverrideRecord) TriageDecision {
	decision := TriageDecision{ID: state.ID, TS: state.TS}

	if override != nil {
		decision.Category = override.Category
		decision.Confidence = overrideConfidence
		decision.Reason = override.Reason
		return decision
	}

	decision.Category, decision.Confidence, decision.Reason = c.applyRules(state)

	// Post-adjustment: a motionless GREEN is suspicious enough to pull
	// back for reassessment.
	if decision.Category == CategoryGreen && state.Movement == MovementNone {
		decision.Category = CategoryYellow
		decision.Reason += " - No movement detected"
	}

	return decision
}

// applyRules runs the START-style rule table on the extracted signals.
func (c *TriageClassifier) applyRules(state PatientState) (Category, float64, string) {
	if state.Breathing != nil && !*state.Breathing {
		return CategoryRed, criticalConfidence, "No breathing detected"
	}

	if state.RRbpm != nil {
		rr := *state.RRbpm
		switch {
		case rr > rrCriticalHigh || rr < rrCriticalLow:
			return CategoryRed, criticalConfidence, fmt.Sprintf("Critical breathing rate: %.0f bpm", rr)
		case rr > rrAbnormalHigh || rr < rrAbnormalLow:
			return CategoryYellow, abnormalConfidence, "Abnormal breathing rate"
		default:
			return CategoryGreen, normalConfidence, "Normal breathing rate"
		}
	}

	if state.Breathing != nil && *state.Breathing {
		return CategoryGreen, normalConfidence, "Breathing detected"
	}

	// No rate and breathing status unknown: the insufficient-data path.
	return CategoryYellow, unknownConfidence, "Breathing status unknown"
}
