package workflow

import (
	"fmt"
	"strings"
)

// EnforcementResult is the Enforcer's output (spec §4.4).
type EnforcementResult struct {
	Allowed           bool       `json:"allowed"`
	Message           string     `json:"message"`
	RequiresReason    bool       `json:"requires_reason"`
	RecordedDeviation *Deviation `json:"recorded_deviation,omitempty"`
}

// EnforceInput carries the call-site hints the Enforcer needs beyond the
// ValidationResult (spec §4.4 "Enforcer").
type EnforceInput struct {
	FromTriad  string
	ToTriad    string
	User       string
	SkipReason string
	ForceSkip  bool
}

const minEmergencyReasonLen = 20

// Enforce applies the mode semantics from spec §4.4 to a ValidationResult,
// producing an allow/deny decision and, when the transition departs from
// strict sequential order, a Deviation to record.
func Enforce(vr ValidationResult, in EnforceInput) EnforcementResult {
	reason := strings.TrimSpace(in.SkipReason)

	switch vr.EnforcementMode {
	case ModeStrict:
		return enforceStrict(vr, in, reason)
	case ModeRecommended:
		return enforceRecommended(vr, in, reason)
	default: // ModeOptional
		return enforceOptional(vr, in, reason)
	}
}

func enforceStrict(vr ValidationResult, in EnforceInput, reason string) EnforcementResult {
	if vr.Valid && len(vr.SkippedTriads) == 0 {
		return EnforcementResult{Allowed: true, Message: "transition is valid"}
	}

	if in.ForceSkip && len(reason) >= minEmergencyReasonLen {
		dev := Deviation{
			Type:      "emergency_override",
			FromTriad: in.FromTriad,
			ToTriad:   in.ToTriad,
			Skipped:   vr.SkippedTriads,
			Reason:    reason,
			User:      in.User,
		}
		return EnforcementResult{
			Allowed:           true,
			Message:           fmt.Sprintf("emergency override recorded for move to %q", in.ToTriad),
			RecordedDeviation: &dev,
		}
	}

	msg := strictBlockMessage(vr)
	return EnforcementResult{
		Allowed:        false,
		Message:        msg,
		RequiresReason: true,
	}
}

func strictBlockMessage(vr ValidationResult) string {
	if vr.RequiredTriad != "" {
		return fmt.Sprintf("strict mode requires %q to complete before this transition", vr.RequiredTriad)
	}
	if len(vr.SkippedTriads) > 0 {
		return fmt.Sprintf("strict mode requires completing %s first; force_skip with a reason of at least %d characters overrides this", strings.Join(vr.SkippedTriads, ", "), minEmergencyReasonLen)
	}
	return "strict mode blocks this transition"
}

func enforceRecommended(vr ValidationResult, in EnforceInput, reason string) EnforcementResult {
	if vr.Valid && len(vr.SkippedTriads) == 0 {
		return EnforcementResult{Allowed: true, Message: "transition is valid"}
	}

	if reason == "" {
		return EnforcementResult{
			Allowed:        false,
			Message:        "this transition skips required triads; provide a skip_reason to proceed",
			RequiresReason: true,
		}
	}

	dev := Deviation{
		Type:      classifyDeviation(vr),
		FromTriad: in.FromTriad,
		ToTriad:   in.ToTriad,
		Skipped:   vr.SkippedTriads,
		Reason:    reason,
		User:      in.User,
	}
	return EnforcementResult{
		Allowed:           true,
		Message:           fmt.Sprintf("transition allowed with recorded deviation (%s)", dev.Type),
		RecordedDeviation: &dev,
	}
}

func enforceOptional(vr ValidationResult, in EnforceInput, reason string) EnforcementResult {
	if vr.Valid && len(vr.SkippedTriads) == 0 {
		return EnforcementResult{Allowed: true, Message: "transition is valid"}
	}

	dev := Deviation{
		Type:      classifyDeviation(vr),
		FromTriad: in.FromTriad,
		ToTriad:   in.ToTriad,
		Skipped:   vr.SkippedTriads,
		Reason:    reason,
		User:      in.User,
	}
	return EnforcementResult{
		Allowed:           true,
		Message:           "transition allowed (optional enforcement mode)",
		RecordedDeviation: &dev,
	}
}

// classifyDeviation picks a deviation type from the ValidationResult shape,
// per spec §4.4 "recommended" mode classification.
func classifyDeviation(vr ValidationResult) string {
	if vr.RequiredTriad != "" {
		return "gate_skip"
	}
	if len(vr.SkippedTriads) > 0 {
		return "skip_forward"
	}
	return "skip_backward"
}
