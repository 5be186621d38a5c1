package router

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testProfiles() []TriadProfile {
	return []TriadProfile{
		NewTriadProfile("implementation", "write code for a feature", []string{"implement the login endpoint", "add a new API handler"}),
		NewTriadProfile("design", "design system architecture", []string{"design the database schema", "sketch the component diagram"}),
	}
}

func newTestRouter(t *testing.T, disambiguator Disambiguator, manual ManualSelector, trainingMode bool) *Router {
	t.Helper()
	dir := t.TempDir()
	return &Router{
		Profiles:      testProfiles(),
		Disambiguator: disambiguator,
		ManualSelect:  manual,
		States:        NewStateStore(filepath.Join(dir, "router_state.json")),
		Telemetry:     NewTelemetryWriter(filepath.Join(dir, "router_telemetry.jsonl"), 0),
		Config: Config{
			ConfidenceThreshold: 0.70,
			AmbiguityThreshold:  0.10,
			Grace:               GraceConfig{Turns: DefaultGraceTurns, Minutes: DefaultGraceMinutes},
			LLMTimeout:          time.Second,
			TrainingMode:        trainingMode,
		},
		Now: func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestRoute_HighConfidenceRoutesImmediatelyWithoutDisambiguator(t *testing.T) {
	r := newTestRouter(t, nil, nil, false)

	d, err := r.Route(context.Background(), "sess-1", "implement OAuth2 refresh token flow", nil)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if d.TriadID != "implementation" || d.Method != MethodSemantic {
		t.Fatalf("expected immediate semantic route to implementation, got %+v", d)
	}

	st, err := r.States.Load("sess-1")
	if err != nil {
		t.Fatalf("Load state: %v", err)
	}
	if st.ActiveTriad != "implementation" {
		t.Fatalf("expected state to record active triad, got %+v", st)
	}
}

func TestRoute_GracePeriodKeepsActiveTriadWithoutRerouting(t *testing.T) {
	r := newTestRouter(t, nil, nil, false)

	first, err := r.Route(context.Background(), "sess-1", "implement OAuth2 refresh token flow", nil)
	if err != nil {
		t.Fatalf("Route 1: %v", err)
	}

	second, err := r.Route(context.Background(), "sess-1", "now add a unit test for it", nil)
	if err != nil {
		t.Fatalf("Route 2: %v", err)
	}
	if second.Method != MethodGracePeriod || second.TriadID != first.TriadID {
		t.Fatalf("expected grace period continuation, got %+v", second)
	}

	st, err := r.States.Load("sess-1")
	if err != nil {
		t.Fatalf("Load state: %v", err)
	}
	if st.TurnCount != 2 {
		t.Fatalf("expected turn count to advance to 2, got %d", st.TurnCount)
	}
}

func TestRoute_ExplicitOverrideBypassesSemanticScoring(t *testing.T) {
	r := newTestRouter(t, nil, nil, false)

	d, err := r.Route(context.Background(), "sess-1", "switch to design", nil)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if d.TriadID != "design" || d.Method != MethodManual {
		t.Fatalf("expected explicit override to design, got %+v", d)
	}
}

func TestRoute_AmbiguousPromptFallsThroughToLLM(t *testing.T) {
	d := &fakeDisambiguator{responses: []DisambiguationResponse{{TriadID: "design", Reasoning: "architecture focused"}}}
	r := newTestRouter(t, d, nil, false)

	decision, err := r.Route(context.Background(), "sess-1", "let's work on the thing", nil)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if decision.Method != MethodLLM || decision.TriadID != "design" {
		t.Fatalf("expected LLM disambiguation to design, got %+v", decision)
	}
}

func TestRoute_ManualFallbackWhenDisambiguatorUnavailable(t *testing.T) {
	manual := func(ctx context.Context, candidates []Candidate) (string, bool) {
		return "implementation", true
	}
	r := newTestRouter(t, nil, manual, false)

	decision, err := r.Route(context.Background(), "sess-1", "let's work on the thing", nil)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if decision.Method != MethodManual || decision.TriadID != "implementation" {
		t.Fatalf("expected manual fallback to implementation, got %+v", decision)
	}
}

func TestRoute_CancelledWhenNoFallbackAvailable(t *testing.T) {
	r := newTestRouter(t, nil, nil, false)

	decision, err := r.Route(context.Background(), "sess-1", "let's work on the thing", nil)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if !decision.Cancelled || decision.Method != MethodCancelled {
		t.Fatalf("expected cancellation with no LLM or manual fallback, got %+v", decision)
	}
}

func TestRoute_TrainingModeHoldsDecisionAsPendingIntent(t *testing.T) {
	r := newTestRouter(t, nil, nil, true)

	decision, err := r.Route(context.Background(), "sess-1", "implement OAuth2 refresh token flow", nil)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if decision.TriadID != "implementation" {
		t.Fatalf("expected decision computed for implementation, got %+v", decision)
	}

	st, err := r.States.Load("sess-1")
	if err != nil {
		t.Fatalf("Load state: %v", err)
	}
	if st.ActiveTriad != "" {
		t.Fatalf("training mode must not activate the triad immediately, got %+v", st)
	}
	if len(st.PendingIntents) != 1 || st.PendingIntents[0].TriadID != "implementation" {
		t.Fatalf("expected pending intent for implementation, got %+v", st.PendingIntents)
	}

	confirmed, err := r.States.WithLock("sess-1", func(fresh *State) {
		triad := ConfirmPending(fresh)
		Activate(fresh, triad, r.now())
	})
	if err != nil {
		t.Fatalf("WithLock confirm: %v", err)
	}
	if confirmed.ActiveTriad != "implementation" || confirmed.TrainingModeConfirmations != 1 {
		t.Fatalf("expected confirmation to activate triad, got %+v", confirmed)
	}
}

func TestExplainDecision_Variants(t *testing.T) {
	cases := []struct {
		name string
		d    Decision
	}{
		{"cancelled", Decision{Cancelled: true, Method: MethodCancelled}},
		{"grace", Decision{TriadID: "design", Method: MethodGracePeriod}},
		{"manual", Decision{TriadID: "design", Method: MethodManual}},
		{"semantic", Decision{TriadID: "design", Method: MethodSemantic, Confidence: 0.9}},
		{"llm", Decision{TriadID: "design", Method: MethodLLM, Reasoning: "fits architecture work"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExplainDecision(tc.d); got == "" {
				t.Fatalf("expected non-empty explanation for %s", tc.name)
			}
		})
	}
}
