package router

import (
	"testing"
	"time"
)

func TestInGracePeriod_WithinTurnWindow(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	st := &State{ActiveTriad: "design", TurnCount: 2, ConversationStart: &start}
	now := start.Add(1 * time.Minute)

	if !InGracePeriod(st, GraceConfig{Turns: 5, Minutes: 8}, now, "validate this idea") {
		t.Fatalf("expected grace period to hold within turn window")
	}
}

func TestInGracePeriod_BypassExitsEarly(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	st := &State{ActiveTriad: "design", TurnCount: 1, ConversationStart: &start}
	now := start.Add(1 * time.Minute)

	if InGracePeriod(st, GraceConfig{Turns: 5, Minutes: 8}, now, "let's switch to implementation") {
		t.Fatalf("expected explicit bypass phrase to exit grace period")
	}
}

func TestInGracePeriod_ExpiresAfterWindow(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	st := &State{ActiveTriad: "design", TurnCount: 6, ConversationStart: &start}
	now := start.Add(20 * time.Minute)

	if InGracePeriod(st, GraceConfig{Turns: 5, Minutes: 8}, now, "what next") {
		t.Fatalf("expected grace period to expire after both turns and minutes lapse")
	}
}

func TestInGracePeriod_NoActiveTriad(t *testing.T) {
	st := &State{}
	if InGracePeriod(st, GraceConfig{Turns: 5, Minutes: 8}, time.Now(), "anything") {
		t.Fatalf("no active triad should never be in grace period")
	}
}

func TestBypasses_MultiIntentConnector(t *testing.T) {
	if !Bypasses("fix the bug and then write a test for it") {
		t.Fatalf("expected multi-intent connector to bypass grace")
	}
}

func TestBypasses_PlainPromptDoesNotBypass(t *testing.T) {
	if Bypasses("please add a new field to the user model") {
		t.Fatalf("plain prompt should not bypass grace")
	}
}

func TestActivateContinueCancel(t *testing.T) {
	st := &State{}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	Activate(st, "design", now)
	if st.ActiveTriad != "design" || st.TurnCount != 1 {
		t.Fatalf("Activate did not set expected state: %+v", st)
	}

	Continue(st, now.Add(time.Minute))
	if st.TurnCount != 2 {
		t.Fatalf("Continue did not increment turn count: %+v", st)
	}

	Cancel(st, now.Add(2*time.Minute))
	if st.ActiveTriad != "" || st.TurnCount != 0 {
		t.Fatalf("Cancel did not clear active triad: %+v", st)
	}
}
