package router

import (
	"context"
	"strings"
	"time"
)

// ManualSelector presents candidates to a human and returns their choice,
// or ok=false if they cancel (spec §4.3 step 4 "Manual selection").
type ManualSelector func(ctx context.Context, candidates []Candidate) (triadID string, ok bool)

// Config bundles the Router's tunable thresholds (spec §4.3, overridable
// per spec §6's CLAUDE_ROUTER_* environment variables).
type Config struct {
	ConfidenceThreshold float64
	AmbiguityThreshold  float64
	Grace               GraceConfig
	LLMTimeout          time.Duration
	TrainingMode        bool
}

// Router ties the semantic scorer, grace-period state machine, LLM
// disambiguation, manual fallback, and telemetry into the single pipeline
// described by spec §4.3.
type Router struct {
	Profiles      []TriadProfile
	Disambiguator Disambiguator
	ManualSelect  ManualSelector
	States        *StateStore
	Telemetry     *TelemetryWriter
	Config        Config
	Now           func() time.Time
}

func (r *Router) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Router) knownTriads() map[string]bool {
	ids := make(map[string]bool, len(r.Profiles))
	for _, p := range r.Profiles {
		ids[p.TriadID] = true
	}
	return ids
}

// explicitOverrideStrip matches Bypasses' "/switch"/"switch to" openers
// but additionally extracts the target triad named after them.
var explicitOverrideStrip = []string{"/switch", "/route", "switch to", "let's switch to", "lets switch to"}

// parseExplicitOverride looks for a prompt that names a known triad
// directly after an explicit switch command (spec §4.3 preference order,
// "explicit override").
func (r *Router) parseExplicitOverride(prompt string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(prompt))
	for _, prefix := range explicitOverrideStrip {
		if !strings.HasPrefix(lower, prefix) {
			continue
		}
		rest := strings.TrimSpace(lower[len(prefix):])
		rest = strings.TrimPrefix(rest, "to")
		rest = strings.TrimSpace(rest)
		for id := range r.knownTriads() {
			if strings.HasPrefix(rest, strings.ToLower(id)) {
				return id, true
			}
		}
	}
	return "", false
}

// Route runs the full pipeline for one user prompt within sessionID and
// returns the resulting Decision, recording telemetry and persisting the
// updated Router State. Network-bound work (LLM disambiguation) happens
// outside any held state lock, per spec §9 "no lock is held across a
// network call"; the state read that informs grace-period/override choices
// is a best-effort snapshot, and the final transition is applied under an
// exclusive lock when the decision is saved.
func (r *Router) Route(ctx context.Context, sessionID, prompt string, recentConversation []string) (Decision, error) {
	start := r.now()

	st, err := r.States.Load(sessionID)
	if err != nil {
		return Decision{}, err
	}

	var decision Decision
	var transition func(*State)

	if triad, ok := r.parseExplicitOverride(prompt); ok {
		decision = Decision{TriadID: triad, Confidence: 1.0, Method: MethodManual}
		transition = func(fresh *State) { Activate(fresh, triad, r.now()) }
	} else if InGracePeriod(st, r.Config.Grace, start, prompt) {
		decision = Decision{TriadID: st.ActiveTriad, Confidence: 1.0, Method: MethodGracePeriod}
		transition = func(fresh *State) { Continue(fresh, r.now()) }
	} else {
		decision, transition = r.runPipeline(ctx, prompt, recentConversation)
	}

	if r.Config.TrainingMode && (decision.Method == MethodSemantic || decision.Method == MethodLLM) {
		// Training mode holds an automatic (semantic or LLM) decision as a
		// pending intent instead of
		// activating it; a caller applies it for real via ConfirmPending
		// once the user approves (spec §9 "training_mode_confirmations").
		transition = func(fresh *State) {
			HoldForConfirmation(fresh, TrainingDecision{
				TriadID: decision.TriadID, Confidence: decision.Confidence,
				Method: decision.Method, Reasoning: decision.Reasoning,
			})
		}
	}

	if _, err := r.States.WithLock(sessionID, transition); err != nil {
		return decision, err
	}

	if r.Telemetry != nil {
		r.Telemetry.Append(Record{
			Timestamp:     r.now(),
			PromptSnippet: TruncatePrompt(prompt),
			Triad:         decision.TriadID,
			Confidence:    decision.Confidence,
			Method:        decision.Method,
			LatencyMS:     r.now().Sub(start).Milliseconds(),
		})
	}

	return decision, nil
}

// runPipeline implements spec §4.3 steps 1-4: semantic scoring, threshold
// check, LLM disambiguation, and manual-selection fallback.
func (r *Router) runPipeline(ctx context.Context, prompt string, recentConversation []string) (Decision, func(*State)) {
	now := r.now()
	candidates := SemanticRoute(prompt, r.Profiles)

	td := CheckThreshold(candidates, r.Config.ConfidenceThreshold, r.Config.AmbiguityThreshold)
	if td.Immediate {
		d := Decision{TriadID: td.Top.TriadID, Confidence: td.Top.Score, Method: MethodSemantic}
		return d, func(fresh *State) { Activate(fresh, d.TriadID, now) }
	}

	timeout := r.Config.LLMTimeout
	if timeout <= 0 {
		timeout = 2000 * time.Millisecond
	}
	if resp, ok := RunDisambiguation(ctx, r.Disambiguator, timeout, prompt, candidates, recentConversation); ok {
		d := Decision{TriadID: resp.TriadID, Confidence: scoreFor(candidates, resp.TriadID), Method: MethodLLM, Reasoning: resp.Reasoning}
		return d, func(fresh *State) { Activate(fresh, d.TriadID, now) }
	}

	if r.ManualSelect != nil {
		if triadID, ok := r.ManualSelect(ctx, candidates); ok {
			d := Decision{TriadID: triadID, Confidence: 1.0, Method: MethodManual}
			return d, func(fresh *State) { Activate(fresh, d.TriadID, now) }
		}
	}

	d := Decision{Cancelled: true, Method: MethodCancelled}
	return d, func(fresh *State) { Cancel(fresh, now) }
}

func scoreFor(candidates []Candidate, triadID string) float64 {
	for _, c := range candidates {
		if c.TriadID == triadID {
			return c.Score
		}
	}
	if len(candidates) > 0 {
		return candidates[0].Score
	}
	return 0
}
