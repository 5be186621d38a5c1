package router

import "testing"

func TestHoldForConfirmation_SetsSolePendingIntent(t *testing.T) {
	st := &State{}
	HoldForConfirmation(st, TrainingDecision{TriadID: "design", Confidence: 0.8, Reasoning: "best match"})

	if len(st.PendingIntents) != 1 || st.PendingIntents[0].TriadID != "design" {
		t.Fatalf("expected sole pending intent for design, got %+v", st.PendingIntents)
	}
}

func TestConfirmPending_AppliesAndCountsConfirmation(t *testing.T) {
	st := &State{}
	HoldForConfirmation(st, TrainingDecision{TriadID: "implementation", Confidence: 0.9})

	triad := ConfirmPending(st)
	if triad != "implementation" {
		t.Fatalf("expected implementation, got %q", triad)
	}
	if st.TrainingModeConfirmations != 1 {
		t.Fatalf("expected confirmation count 1, got %d", st.TrainingModeConfirmations)
	}
	if len(st.PendingIntents) != 0 {
		t.Fatalf("expected pending intents cleared, got %+v", st.PendingIntents)
	}
}

func TestConfirmPending_NothingPendingReturnsEmpty(t *testing.T) {
	st := &State{}
	if triad := ConfirmPending(st); triad != "" {
		t.Fatalf("expected empty string with nothing pending, got %q", triad)
	}
	if st.TrainingModeConfirmations != 0 {
		t.Fatalf("expected no confirmation recorded")
	}
}

func TestRejectPending_ClearsWithoutCounting(t *testing.T) {
	st := &State{}
	HoldForConfirmation(st, TrainingDecision{TriadID: "design"})

	RejectPending(st)
	if len(st.PendingIntents) != 0 {
		t.Fatalf("expected pending intents cleared")
	}
	if st.TrainingModeConfirmations != 0 {
		t.Fatalf("rejection should not count as a confirmation")
	}
}
