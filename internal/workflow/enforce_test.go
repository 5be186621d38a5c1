package workflow

import "testing"

func TestEnforce_ValidTransitionAlwaysAllowedRegardlessOfMode(t *testing.T) {
	for _, mode := range []EnforcementMode{ModeStrict, ModeRecommended, ModeOptional} {
		vr := ValidationResult{Valid: true, EnforcementMode: mode}
		result := Enforce(vr, EnforceInput{FromTriad: "discovery", ToTriad: "build"})
		if !result.Allowed {
			t.Errorf("mode %s: expected valid transition to be allowed", mode)
		}
		if result.RecordedDeviation != nil {
			t.Errorf("mode %s: expected no deviation for a clean transition", mode)
		}
	}
}

func TestEnforceStrict_BlocksWithoutForceSkip(t *testing.T) {
	vr := ValidationResult{Valid: false, EnforcementMode: ModeStrict, SkippedTriads: []string{"discovery"}}
	result := Enforce(vr, EnforceInput{ToTriad: "build"})
	if result.Allowed {
		t.Fatalf("expected strict mode to block without force_skip")
	}
	if !result.RequiresReason {
		t.Fatalf("expected RequiresReason to be set")
	}
}

func TestEnforceStrict_ForceSkipRequiresLongReason(t *testing.T) {
	vr := ValidationResult{Valid: false, EnforcementMode: ModeStrict, SkippedTriads: []string{"discovery"}}

	short := Enforce(vr, EnforceInput{ToTriad: "build", ForceSkip: true, SkipReason: "too short"})
	if short.Allowed {
		t.Fatalf("expected strict mode to reject a reason under the minimum length")
	}

	long := Enforce(vr, EnforceInput{ToTriad: "build", ForceSkip: true, SkipReason: "production incident requires skipping discovery entirely"})
	if !long.Allowed {
		t.Fatalf("expected strict mode to allow emergency override with a sufficiently long reason")
	}
	if long.RecordedDeviation == nil || long.RecordedDeviation.Type != "emergency_override" {
		t.Fatalf("expected an emergency_override deviation to be recorded, got %+v", long.RecordedDeviation)
	}
}

func TestEnforceRecommended_RequiresNonEmptyReason(t *testing.T) {
	vr := ValidationResult{Valid: false, EnforcementMode: ModeRecommended, SkippedTriads: []string{"discovery"}}

	blocked := Enforce(vr, EnforceInput{ToTriad: "build"})
	if blocked.Allowed {
		t.Fatalf("expected recommended mode to require a reason")
	}

	allowed := Enforce(vr, EnforceInput{ToTriad: "build", SkipReason: "prioritizing a hotfix"})
	if !allowed.Allowed {
		t.Fatalf("expected recommended mode to allow with any non-empty reason")
	}
	if allowed.RecordedDeviation == nil || allowed.RecordedDeviation.Type != "skip_forward" {
		t.Fatalf("expected skip_forward deviation, got %+v", allowed.RecordedDeviation)
	}
}

func TestEnforceRecommended_GateSkipClassification(t *testing.T) {
	vr := ValidationResult{Valid: false, EnforcementMode: ModeRecommended, RequiredTriad: "verify"}
	result := Enforce(vr, EnforceInput{ToTriad: "ship", SkipReason: "accepted risk"})
	if result.RecordedDeviation == nil || result.RecordedDeviation.Type != "gate_skip" {
		t.Fatalf("expected gate_skip deviation, got %+v", result.RecordedDeviation)
	}
}

func TestEnforceOptional_AlwaysAllowsButRecordsDeviation(t *testing.T) {
	vr := ValidationResult{Valid: false, EnforcementMode: ModeOptional, SkippedTriads: []string{"discovery"}}
	result := Enforce(vr, EnforceInput{ToTriad: "build"})
	if !result.Allowed {
		t.Fatalf("expected optional mode to always allow")
	}
	if result.RecordedDeviation == nil {
		t.Fatalf("expected optional mode to still record a deviation")
	}
}

func TestEnforceOptional_BackwardMoveClassifiedAsSkipBackward(t *testing.T) {
	vr := ValidationResult{Valid: false, EnforcementMode: ModeOptional, Backward: true}
	result := Enforce(vr, EnforceInput{ToTriad: "discovery"})
	if result.RecordedDeviation == nil || result.RecordedDeviation.Type != "skip_backward" {
		t.Fatalf("expected skip_backward deviation, got %+v", result.RecordedDeviation)
	}
}
