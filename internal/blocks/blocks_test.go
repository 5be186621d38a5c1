package blocks

import "testing"

func TestExtractGraphUpdates_ParsesMultipleBlocks(t *testing.T) {
	text := `Some narration.

[GRAPH_UPDATE]
type: add_node
id: node_001
label: OAuth refresh flow
node_type: Finding
confidence: 0.82
[/GRAPH_UPDATE]

More narration.

[GRAPH_UPDATE]
type: add_edge
source: node_001
target: node_002
key: depends_on
[/GRAPH_UPDATE]
`
	updates := ExtractGraphUpdates(text)
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d: %+v", len(updates), updates)
	}
	if updates[0].Op != OpAddNode {
		t.Fatalf("expected add_node, got %s", updates[0].Op)
	}
	if updates[0].Field("id") != "node_001" {
		t.Fatalf("expected id node_001, got %q", updates[0].Field("id"))
	}
	conf, ok := updates[0].Confidence()
	if !ok || conf != 0.82 {
		t.Fatalf("expected confidence 0.82, got %v ok=%v", conf, ok)
	}
	if updates[1].Op != OpAddEdge || updates[1].Field("source") != "node_001" {
		t.Fatalf("unexpected second update: %+v", updates[1])
	}
}

func TestExtractGraphUpdates_SkipsMalformedBlocks(t *testing.T) {
	text := `[GRAPH_UPDATE]
type: not_a_real_op
id: x
[/GRAPH_UPDATE]
`
	updates := ExtractGraphUpdates(text)
	if len(updates) != 0 {
		t.Fatalf("expected malformed block to be skipped, got %+v", updates)
	}
}

func TestExtractGraphUpdates_EmptyTextReturnsEmpty(t *testing.T) {
	if updates := ExtractGraphUpdates(""); len(updates) != 0 {
		t.Fatalf("expected no updates for empty text, got %+v", updates)
	}
}

func TestExtractPreFlightChecks_ParsesChecklistAndStatus(t *testing.T) {
	text := `[PRE_FLIGHT_CHECK]
node_id: node_001
verification_status: PASSED
- tests pass: ✅ all green
- docs updated: ❌ missing changelog entry
[/PRE_FLIGHT_CHECK]
`
	checks := ExtractPreFlightChecks(text)
	if len(checks) != 1 {
		t.Fatalf("expected 1 check, got %d", len(checks))
	}
	c := checks[0]
	if c.NodeID != "node_001" {
		t.Fatalf("expected node_id node_001, got %q", c.NodeID)
	}
	if len(c.ChecklistItems) != 2 {
		t.Fatalf("expected 2 checklist items, got %d: %+v", len(c.ChecklistItems), c.ChecklistItems)
	}
	if !c.ChecklistItems[0].Passed {
		t.Fatalf("expected first item to pass: %+v", c.ChecklistItems[0])
	}
	if c.ChecklistItems[1].Passed {
		t.Fatalf("expected second item to fail: %+v", c.ChecklistItems[1])
	}
	if c.AllPassed() {
		t.Fatal("expected AllPassed to be false given a failing item, despite claimed PASSED status")
	}
}

func TestExtractProcessKnowledge_ParsesTriggerConditionsAndChecklist(t *testing.T) {
	text := `[PROCESS_KNOWLEDGE]
type: Concept
label: Bump version before tagging a release
priority: CRITICAL
process_type: checklist
trigger_conditions.tool_names: ["Write", "Edit"]
trigger_conditions.file_patterns: ["**/VERSION", "**/package.json"]
- bump the VERSION file (required: true, file: VERSION)
- update CHANGELOG.md (required: false)
[/PROCESS_KNOWLEDGE]
`
	pks := ExtractProcessKnowledge(text)
	if len(pks) != 1 {
		t.Fatalf("expected 1 process knowledge block, got %d", len(pks))
	}
	pk := pks[0]
	if pk.Priority != "CRITICAL" || pk.ProcessType != "checklist" {
		t.Fatalf("unexpected fields: %+v", pk)
	}
	if len(pk.ToolNames) != 2 || pk.ToolNames[0] != "Write" {
		t.Fatalf("expected parsed tool_names, got %+v", pk.ToolNames)
	}
	if len(pk.Checklist) != 2 {
		t.Fatalf("expected 2 checklist items, got %+v", pk.Checklist)
	}
	if !pk.Checklist[0].Required || pk.Checklist[0].File != "VERSION" {
		t.Fatalf("expected first checklist item required with file VERSION, got %+v", pk.Checklist[0])
	}
	if pk.Checklist[1].Required {
		t.Fatalf("expected second checklist item to default to not required, got %+v", pk.Checklist[1])
	}
}

func TestExtractHITL_WellFormedBlock(t *testing.T) {
	text := "[HITL_REQUIRED]\nPlease confirm before deploying to production.\n[/HITL_REQUIRED]\n"
	prompt, found := ExtractHITL(text)
	if !found {
		t.Fatal("expected HITL block to be found")
	}
	if prompt != "Please confirm before deploying to production." {
		t.Fatalf("unexpected prompt: %q", prompt)
	}
}

func TestExtractHITL_FallbackWithoutClosingTag(t *testing.T) {
	text := "[HITL_REQUIRED]\nConfirm the migration plan.\n\nUnrelated trailing narration."
	prompt, found := ExtractHITL(text)
	if !found {
		t.Fatal("expected fallback HITL detection to find a gate")
	}
	if prompt != "Confirm the migration plan." {
		t.Fatalf("unexpected fallback prompt: %q", prompt)
	}
}

func TestExtractHITL_AbsentMeansNoGate(t *testing.T) {
	if _, found := ExtractHITL("nothing special here"); found {
		t.Fatal("expected no HITL gate when tag is absent")
	}
}

func TestExtractSections_ParsesAllFourKinds(t *testing.T) {
	text := `## Key Findings
- the cache stampedes under load
- retries are unbounded

## Decisions
1. adopt a token bucket limiter

## Open Questions
* should retries be capped per-request or per-session?

## Recommendations
- add jitter to the backoff schedule
`
	sections := ExtractSections(text)
	if len(sections[SectionKeyFindings]) != 2 {
		t.Fatalf("expected 2 key findings, got %+v", sections[SectionKeyFindings])
	}
	if len(sections[SectionDecisions]) != 1 || sections[SectionDecisions][0] != "adopt a token bucket limiter" {
		t.Fatalf("unexpected decisions: %+v", sections[SectionDecisions])
	}
	if len(sections[SectionOpenQuestions]) != 1 {
		t.Fatalf("expected 1 open question, got %+v", sections[SectionOpenQuestions])
	}
	if len(sections[SectionRecommendations]) != 1 {
		t.Fatalf("expected 1 recommendation, got %+v", sections[SectionRecommendations])
	}
}

func TestAgentContext_RoundTripsThroughFormat(t *testing.T) {
	ctx := AgentContext{
		From:             "design",
		To:               "implementation",
		GraphUpdateCount: 3,
		Sections: map[Section][]string{
			SectionKeyFindings: {"the API needs pagination"},
			SectionDecisions:   {"use cursor-based pagination"},
		},
	}

	rendered := FormatAgentContext(ctx)
	parsed, ok := ParseAgentContext(rendered)
	if !ok {
		t.Fatal("expected formatted context to parse back")
	}
	if parsed.From != ctx.From || parsed.To != ctx.To || parsed.GraphUpdateCount != ctx.GraphUpdateCount {
		t.Fatalf("round trip mismatch: %+v vs %+v", parsed, ctx)
	}
	if len(parsed.Sections[SectionKeyFindings]) != 1 || parsed.Sections[SectionKeyFindings][0] != "the API needs pagination" {
		t.Fatalf("expected key findings to round trip, got %+v", parsed.Sections[SectionKeyFindings])
	}
}
