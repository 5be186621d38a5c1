package router

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// DisambiguationRequest carries the top-3 candidates and recent context for
// the LLM disambiguation call (spec §4.3 step 3).
type DisambiguationRequest struct {
	Prompt             string
	Candidates         []Candidate
	RecentConversation []string
}

// DisambiguationResponse is the LLM's answer: a chosen triad id plus its
// stated reasoning (spec §4.3 "first line = triad id; remainder = reasoning").
type DisambiguationResponse struct {
	TriadID   string
	Reasoning string
}

// Disambiguator is the seam a concrete LLM backend implements. The host LLM
// runtime may supply its own; internal/router/llmclient.go provides one
// real, swappable implementation over the Anthropic Messages API (SPEC_FULL
// §2 domain stack; spec §1 "the host LLM runtime that invokes hooks and agents"
// is out of scope — the interface is the boundary, not a mandate to reach
// the network in tests).
type Disambiguator interface {
	Disambiguate(ctx context.Context, req DisambiguationRequest) (DisambiguationResponse, error)
}

// retry schedule from spec §4.3 step 3: "Retry on transient errors with
// exponential backoff (500ms, 1000ms; rate-limit backoff 1000ms, 2000ms); do
// not retry on auth errors."
var transientBackoff = []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond}
var rateLimitBackoff = []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond}

// Sleep is overridable by tests so the retry schedule doesn't slow down the
// suite.
var Sleep = time.Sleep

const topNForDisambiguation = 3

// RunDisambiguation executes spec §4.3 step 3 in full: it calls d with the
// top-3 candidates, retries per the schedule above, and falls back to the
// highest semantic score if its answer can't be parsed/matched. When the
// call itself fails (auth error, or retries exhausted) it returns ok=false,
// so the Router moves on to manual selection.
func RunDisambiguation(ctx context.Context, d Disambiguator, timeout time.Duration, prompt string, candidates []Candidate, recentConversation []string) (DisambiguationResponse, bool) {
	if d == nil || len(candidates) == 0 {
		return DisambiguationResponse{}, false
	}
	top3 := candidates
	if len(top3) > topNForDisambiguation {
		top3 = top3[:topNForDisambiguation]
	}
	req := DisambiguationRequest{Prompt: prompt, Candidates: top3, RecentConversation: recentConversation}

	attempt := 0
	for {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		resp, err := d.Disambiguate(callCtx, req)
		cancel()
		if err == nil {
			parsed, ok := parseDisambiguation(resp, top3)
			if ok {
				return parsed, true
			}
			return fallbackToHighest(top3), true
		}

		if errors.Is(err, ErrAuth) {
			break
		}

		var nextSchedule []time.Duration
		if errors.Is(err, ErrRateLimited) {
			nextSchedule = rateLimitBackoff
		} else {
			nextSchedule = transientBackoff
		}
		if attempt >= len(nextSchedule) {
			break
		}
		Sleep(nextSchedule[attempt])
		attempt++
	}

	return DisambiguationResponse{}, false
}

// parseDisambiguation implements "Parse: first line = triad id; remainder =
// reasoning. If unparseable, match substring against candidates; if still
// ambiguous, fall back to the highest semantic score."
func parseDisambiguation(resp DisambiguationResponse, candidates []Candidate) (DisambiguationResponse, bool) {
	if resp.TriadID != "" && candidateIDs(candidates)[resp.TriadID] {
		return resp, true
	}

	lines := strings.SplitN(strings.TrimSpace(resp.Reasoning), "\n", 2)
	if len(lines) == 0 {
		return DisambiguationResponse{}, false
	}
	first := strings.TrimSpace(lines[0])
	reasoning := ""
	if len(lines) > 1 {
		reasoning = strings.TrimSpace(lines[1])
	}

	ids := candidateIDs(candidates)
	if ids[first] {
		return DisambiguationResponse{TriadID: first, Reasoning: reasoning}, true
	}

	// Substring match: the model may have wrapped the id in prose.
	lowerFirst := strings.ToLower(first)
	var matched string
	matches := 0
	for id := range ids {
		if strings.Contains(lowerFirst, strings.ToLower(id)) {
			matched = id
			matches++
		}
	}
	if matches == 1 {
		return DisambiguationResponse{TriadID: matched, Reasoning: reasoning}, true
	}
	return DisambiguationResponse{}, false
}

func candidateIDs(candidates []Candidate) map[string]bool {
	ids := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		ids[c.TriadID] = true
	}
	return ids
}

func fallbackToHighest(candidates []Candidate) DisambiguationResponse {
	if len(candidates) == 0 {
		return DisambiguationResponse{}
	}
	return DisambiguationResponse{TriadID: candidates[0].TriadID, Reasoning: "fallback to highest semantic score"}
}

// FormatCandidatesForPrompt renders candidates as a numbered list, suitable
// for embedding in an LLM prompt body — a small helper shared by concrete
// Disambiguator implementations.
func FormatCandidatesForPrompt(candidates []Candidate) string {
	var b strings.Builder
	for i, c := range candidates {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(c.TriadID)
		b.WriteString("\n")
	}
	return b.String()
}
