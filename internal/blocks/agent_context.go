package blocks

import (
	"fmt"
	"strconv"
	"strings"
)

// AgentContext is the structured payload carried by an
// "[AGENT_CONTEXT]...[/AGENT_CONTEXT]" block: both an input (a prior
// handoff) and an output (the Handoff Pipeline's bounded summary), per spec
// §4.2/§4.6.
type AgentContext struct {
	From             string
	To               string
	GraphUpdateCount int
	Sections         map[Section][]string
}

var sectionOrder = []struct {
	section Section
	heading string
}{
	{SectionKeyFindings, "Key Findings"},
	{SectionDecisions, "Decisions"},
	{SectionOpenQuestions, "Open Questions"},
	{SectionRecommendations, "Recommendations"},
}

// ParseAgentContext parses the first AGENT_CONTEXT block in text, if any.
func ParseAgentContext(text string) (*AgentContext, bool) {
	raw := extractBlocks(text, "AGENT_CONTEXT")
	if len(raw) == 0 {
		return nil, false
	}
	body := raw[0]

	ctx := &AgentContext{Sections: ExtractSections(body)}
	for _, line := range strings.Split(body, "\n") {
		m := keyValueLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		switch strings.ToLower(m[1]) {
		case "from":
			ctx.From = strings.TrimSpace(m[2])
		case "to":
			ctx.To = strings.TrimSpace(m[2])
		case "graph_update_count":
			if n, err := strconv.Atoi(strings.TrimSpace(m[2])); err == nil {
				ctx.GraphUpdateCount = n
			}
		}
	}
	return ctx, true
}

// FormatAgentContext renders an AgentContext back into its block form. The
// rendering is bounded: it carries only the counts and bullet text already
// present on ctx, never raw tool output (spec §4.6 invariant).
func FormatAgentContext(ctx AgentContext) string {
	var b strings.Builder
	b.WriteString("[AGENT_CONTEXT]\n")
	fmt.Fprintf(&b, "from: %s\n", ctx.From)
	fmt.Fprintf(&b, "to: %s\n", ctx.To)
	fmt.Fprintf(&b, "graph_update_count: %d\n", ctx.GraphUpdateCount)

	for _, s := range sectionOrder {
		items := ctx.Sections[s.section]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n", s.heading)
		for _, item := range items {
			fmt.Fprintf(&b, "- %s\n", item)
		}
	}
	b.WriteString("[/AGENT_CONTEXT]\n")
	return b.String()
}
