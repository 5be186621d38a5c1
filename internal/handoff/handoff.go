// Package handoff implements the Handoff Pipeline (C6): it turns one
// agent's raw output into a bounded [AGENT_CONTEXT] block for the next
// agent in a triad, and detects human-in-the-loop gates (spec §4.6).
// Grounded on the teacher's internal/team package for role/stage handoff
// text generation and internal/learner/reporter.go for the discipline of
// building a bounded summary instead of forwarding raw data.
package handoff

import (
	"strings"

	"github.com/antigravity-dev/triads-runtime/internal/blocks"
)

// maxBulletsPerSection and maxBulletRunes bound the context block's size
// independent of how much raw output the agent produced (spec §4.6
// invariant: "bounded by the number and length of extracted bullets; full
// tool output is never forwarded").
const (
	maxBulletsPerSection = 8
	maxBulletRunes       = 240
)

// Context is the handoff pipeline's output: the structured content of an
// [AGENT_CONTEXT] block (spec §3 tag inventory).
type Context struct {
	FromAgent        string
	ToAgent          string
	GraphUpdateCount int
	KeyFindings      []string
	Decisions        []string
	OpenQuestions    []string
	Recommendations  []string
}

// Build extracts bounded context from an agent's full output for handoff to
// toAgent (spec §4.6). It never includes the output's full text, only a
// graph-update count and trimmed/truncated bullet lists.
func Build(output, fromAgent, toAgent string) Context {
	sections := blocks.ExtractSections(output)

	ctx := Context{
		FromAgent:        fromAgent,
		ToAgent:          toAgent,
		GraphUpdateCount: len(blocks.ExtractGraphUpdates(output)),
		KeyFindings:      boundSection(sections[blocks.SectionKeyFindings]),
		Decisions:        boundSection(sections[blocks.SectionDecisions]),
		OpenQuestions:    boundSection(sections[blocks.SectionOpenQuestions]),
		Recommendations:  boundSection(sections[blocks.SectionRecommendations]),
	}
	return ctx
}

func boundSection(items []string) []string {
	if len(items) > maxBulletsPerSection {
		items = items[:maxBulletsPerSection]
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = truncateBullet(item)
	}
	return out
}

func truncateBullet(s string) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= maxBulletRunes {
		return string(runes)
	}
	return string(runes[:maxBulletRunes]) + "…"
}

// Format renders ctx as the "[AGENT_CONTEXT]...[/AGENT_CONTEXT]" text block
// a handoff caller hands to the next agent, reusing the Block Extractor's
// own AgentContext renderer (spec §3's tag inventory; the same shape parses
// back out via blocks.ParseAgentContext on the receiving end).
func Format(ctx Context) string {
	return blocks.FormatAgentContext(blocks.AgentContext{
		From:             ctx.FromAgent,
		To:               ctx.ToAgent,
		GraphUpdateCount: ctx.GraphUpdateCount,
		Sections: map[blocks.Section][]string{
			blocks.SectionKeyFindings:     ctx.KeyFindings,
			blocks.SectionDecisions:       ctx.Decisions,
			blocks.SectionOpenQuestions:   ctx.OpenQuestions,
			blocks.SectionRecommendations: ctx.Recommendations,
		},
	})
}
