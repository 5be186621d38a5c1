package workflow

import "fmt"

// ValidationResult is the Validator's output (spec §4.4).
type ValidationResult struct {
	Valid           bool            `json:"valid"`
	Violations      []string        `json:"violations,omitempty"`
	Warnings        []string        `json:"warnings,omitempty"`
	SkippedTriads   []string        `json:"skipped_triads,omitempty"`
	Backward        bool            `json:"backward,omitempty"`
	RequiredTriad   string          `json:"required_triad,omitempty"`
	EnforcementMode EnforcementMode `json:"enforcement_mode"`
}

// KnownTriads is supplied by the caller (triad-discovery over the
// filesystem) so the Validator can check that the requested triad actually
// exists on disk, not just in the schema (spec §4.4 step 2).
type KnownTriads map[string]bool

// Validate runs the six-step check from spec §4.4 against instance,
// requestedTriad, and optional metrics.
func Validate(schema *Schema, instance *Instance, requestedTriad string, known KnownTriads, metrics map[string]interface{}) ValidationResult {
	result := ValidationResult{
		Valid:           true,
		EnforcementMode: schema.EnforcementModeFor(requestedTriad),
	}

	requestedIdx := schema.IndexOf(requestedTriad)
	if requestedIdx < 0 {
		result.Valid = false
		result.Violations = append(result.Violations, fmt.Sprintf("triad %q is not defined in the workflow schema", requestedTriad))
		return result
	}

	if known != nil && !known[requestedTriad] {
		result.Valid = false
		result.Violations = append(result.Violations, fmt.Sprintf("triad %q has no corresponding directory on disk", requestedTriad))
	}

	latestIdx := instance.LatestCompletedIndex(schema)

	for i := latestIdx + 1; i < requestedIdx; i++ {
		triad := schema.Triads[i]
		if triad.Optional || instance.HasCompleted(triad.ID) {
			continue
		}
		result.SkippedTriads = append(result.SkippedTriads, triad.ID)
		result.Warnings = append(result.Warnings, fmt.Sprintf("triad %q has not been completed", triad.ID))
	}

	if requestedIdx < latestIdx {
		result.Backward = true
		result.Warnings = append(result.Warnings, fmt.Sprintf("moving backward to %q from a later completed triad", requestedTriad))
	}

	for _, cr := range schema.ConditionalRequirements {
		if cr.BeforeTriad != requestedTriad {
			continue
		}
		if instance.HasCompleted(cr.GateTriad) {
			continue
		}
		if !conditionSatisfied(cr.Condition, metrics) {
			continue
		}
		result.Valid = false
		result.RequiredTriad = cr.GateTriad
		result.Violations = append(result.Violations, fmt.Sprintf("triad %q requires %q to complete first", requestedTriad, cr.GateTriad))
	}

	if len(result.Violations) > 0 {
		result.Valid = false
	}
	return result
}

// conditionSatisfied reports whether the instance's metrics meet one
// ConditionalRequirement's Condition (spec §4.4 "Condition evaluation"); a
// met condition makes the gate triad required. A nil metrics map or an
// unknown condition kind meets nothing, so no conditional rule fires
// (graceful degradation).
func conditionSatisfied(cond Condition, metrics map[string]interface{}) bool {
	if metrics == nil {
		return false
	}

	switch cond.Kind {
	case "content_created":
		return meetsQuantity(metrics, "content_created", cond.Units, cond.Quantity)
	case "components_modified":
		return meetsQuantity(metrics, "components_modified", "", cond.Quantity)
	case "complexity":
		actual, ok := metricComplexity(metrics)
		if !ok {
			return false
		}
		return complexityRank[actual] >= complexityRank[cond.Complexity]
	default:
		return false
	}
}

func meetsQuantity(metrics map[string]interface{}, key, wantUnits string, threshold float64) bool {
	raw, ok := metrics[key]
	if !ok {
		return false
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return false
	}
	if wantUnits != "" {
		units, _ := m["units"].(string)
		if units != wantUnits {
			return false
		}
	}
	qty, ok := toFloat(m["quantity"])
	if !ok {
		return false
	}
	return qty >= threshold
}

func metricComplexity(metrics map[string]interface{}) (Complexity, bool) {
	raw, ok := metrics["complexity"]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	c := Complexity(s)
	if _, known := complexityRank[c]; !known {
		return "", false
	}
	return c, true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
