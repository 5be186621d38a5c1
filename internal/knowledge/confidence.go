package knowledge

import "github.com/antigravity-dev/triads-runtime/internal/graphstore"

// confidenceActiveThreshold is the cutoff at or above which a freshly extracted
// lesson is marked active rather than needs_validation (spec §4.5
// "Confidence & status").
const confidenceActiveThreshold = 0.70

// basePriorityConfidence and the bonuses below resolve spec §9's Open
// Question about the confidence function: the example pack has no
// off-the-shelf scoring model to borrow, so this package documents its own
// bounded, deterministic mapping instead of inventing an opaque one. The
// mapping is monotone in all three inputs and capped to keep room for
// outcome-tracking feedback to still move the needle after creation.
var basePriorityConfidence = map[graphstore.Priority]float64{
	graphstore.PriorityCritical: 0.60,
	graphstore.PriorityHigh:     0.50,
	graphstore.PriorityMedium:   0.40,
	graphstore.PriorityLow:      0.30,
}

var detectionBonus = map[DetectionMethod]float64{
	DetectionExplicit:        0.20,
	DetectionUserCorrection:  0.15,
	DetectionRepeatedMistake: 0.10,
}

const repetitionBonusPerOccurrence = 0.05
const maxRepetitionBonusOccurrences = 5
const maxInitialConfidence = 0.98

// InitialConfidence computes the starting confidence for a just-detected
// lesson from its assigned priority, detection method, and repetition_count
// (spec §4.5). It is monotone non-decreasing in priority severity, in
// detection strength, and in repetition count, and is capped below 1.0 so
// later Bayesian outcome feedback has room to move it.
func InitialConfidence(priority graphstore.Priority, method DetectionMethod, repetitionCount int) float64 {
	conf := basePriorityConfidence[priority] + detectionBonus[method]

	reps := repetitionCount
	if reps > maxRepetitionBonusOccurrences {
		reps = maxRepetitionBonusOccurrences
	}
	if reps > 0 {
		conf += float64(reps) * repetitionBonusPerOccurrence
	}

	if conf > maxInitialConfidence {
		conf = maxInitialConfidence
	}
	return conf
}

// DeriveStatus maps a confidence value to the node lifecycle status per
// spec §4.5: active at or above the threshold, needs_validation otherwise.
func DeriveStatus(confidence float64) graphstore.Status {
	if confidence >= confidenceActiveThreshold {
		return graphstore.StatusActive
	}
	return graphstore.StatusNeedsValidation
}

// NewOutcomeTracking returns the zero-valued outcome counters every newly
// detected ProcessKnowledge node starts with (spec §4.5 "Bayesian outcome
// counters are initialized to zero").
func NewOutcomeTracking() graphstore.OutcomeTracking {
	return graphstore.OutcomeTracking{}
}
