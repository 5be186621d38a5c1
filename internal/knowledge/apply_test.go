package knowledge

import (
	"testing"
	"time"

	"github.com/antigravity-dev/triads-runtime/internal/blocks"
	"github.com/antigravity-dev/triads-runtime/internal/graphstore"
)

func testStore(t *testing.T) *graphstore.Store {
	t.Helper()
	return graphstore.New(t.TempDir(), 0)
}

const sampleUpdateWithCheck = `
[PRE_FLIGHT_CHECK]
node_id: finding-1
verification_status: PASSED
- schema validated: ✅
- tests run: ✅
[/PRE_FLIGHT_CHECK]

[GRAPH_UPDATE]
type: add_node
node_id: finding-1
node_type: Finding
label: API handler returns 500 on empty body
triad: implementation
[/GRAPH_UPDATE]
`

func TestApplyUpdates_AddsNodeWithPassingCheck(t *testing.T) {
	store := testStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	result, err := ApplyUpdates(store, now, sampleUpdateWithCheck, "implementer", nil)
	if err != nil {
		t.Fatalf("ApplyUpdates: %v", err)
	}
	if len(result.Violations) != 0 {
		t.Fatalf("expected no violations, got %+v", result.Violations)
	}
	if result.AppliedBy["implementation"] != 1 {
		t.Fatalf("expected 1 applied update to implementation, got %+v", result.AppliedBy)
	}

	g, err := store.Load("implementation", false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.NodeByID("finding-1") == nil {
		t.Fatalf("expected finding-1 node to be persisted")
	}
}

const sampleUpdateMissingCheck = `
[GRAPH_UPDATE]
type: add_node
node_id: finding-2
node_type: Finding
label: Unverified claim
triad: implementation
[/GRAPH_UPDATE]
`

func TestApplyUpdates_MissingPreFlightCheckProducesViolationButStillApplies(t *testing.T) {
	store := testStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	result, err := ApplyUpdates(store, now, sampleUpdateMissingCheck, "implementer", nil)
	if err != nil {
		t.Fatalf("ApplyUpdates: %v", err)
	}
	if len(result.Violations) != 1 {
		t.Fatalf("expected one violation for missing pre-flight check, got %+v", result.Violations)
	}
	if result.AppliedBy["implementation"] != 1 {
		t.Fatalf("expected violation not to block application, got %+v", result.AppliedBy)
	}
}

func TestApplyUpdates_DuplicateNodeIsSkipped(t *testing.T) {
	store := testStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := ApplyUpdates(store, now, sampleUpdateWithCheck, "implementer", nil); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	result, err := ApplyUpdates(store, now, sampleUpdateWithCheck, "implementer", nil)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if result.AppliedBy["implementation"] != 0 {
		t.Fatalf("expected duplicate add_node to be skipped, got %+v", result.AppliedBy)
	}
}

func TestApplyUpdates_TriadResolutionFallsBackThroughSteps(t *testing.T) {
	store := testStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	text := `
[PRE_FLIGHT_CHECK]
node_id: design-7
verification_status: PASSED
[/PRE_FLIGHT_CHECK]

[GRAPH_UPDATE]
type: add_node
node_id: design-7
node_type: Decision
label: Use event sourcing for the ledger
[/GRAPH_UPDATE]
`
	result, err := ApplyUpdates(store, now, text, "architect", func(agent string) (string, bool) {
		if agent == "architect" {
			return "design", true
		}
		return "", false
	})
	if err != nil {
		t.Fatalf("ApplyUpdates: %v", err)
	}
	if result.AppliedBy["design"] != 1 {
		t.Fatalf("expected created_by lookup to route to design triad, got %+v", result.AppliedBy)
	}
}

func TestApplyUpdates_UnknownOpTypeIsSkippedAsWarning(t *testing.T) {
	store := testStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// ExtractGraphUpdates itself filters unknown op types per spec §4.2's
	// forgiving parse, so a well-formed op through ApplyUpdates yields no
	// warnings, and applyOne's defensive default is exercised below via a
	// directly constructed update bypassing the extractor.
	text := `
[GRAPH_UPDATE]
type: add_node
node_id: finding-9
node_type: Finding
label: Something
[/GRAPH_UPDATE]
`
	result, err := ApplyUpdates(store, now, text, "implementer", nil)
	if err != nil {
		t.Fatalf("ApplyUpdates: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings for a well-formed op, got %v", result.Warnings)
	}

	g := graphstore.NewGraph("general", now)
	applied, warning := applyOne(g, blocks.GraphUpdate{Op: "rename_node"}, "implementer", now)
	if applied || warning == "" {
		t.Fatalf("expected unknown op to be skipped with a warning, got applied=%v warning=%q", applied, warning)
	}
}

func TestResolveTriad_NodeIDPrefixConvention(t *testing.T) {
	store := testStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	text := `
[PRE_FLIGHT_CHECK]
node_id: deployment-3
verification_status: PASSED
[/PRE_FLIGHT_CHECK]

[GRAPH_UPDATE]
type: add_node
node_id: deployment-3
node_type: Finding
label: Rollback plan verified
[/GRAPH_UPDATE]
`
	result, err := ApplyUpdates(store, now, text, "deployer", nil)
	if err != nil {
		t.Fatalf("ApplyUpdates: %v", err)
	}
	if result.AppliedBy["deployment"] != 1 {
		t.Fatalf("expected node-id prefix to route to deployment triad, got %+v", result.AppliedBy)
	}
}

func TestApplyUpdates_DefaultTriadFallback(t *testing.T) {
	store := testStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	text := `
[GRAPH_UPDATE]
type: add_node
node_id: ungrouped1
node_type: Finding
label: No triad hints at all
[/GRAPH_UPDATE]
`
	result, err := ApplyUpdates(store, now, text, "", nil)
	if err != nil {
		t.Fatalf("ApplyUpdates: %v", err)
	}
	if result.AppliedBy[defaultTriadFallback] != 1 {
		t.Fatalf("expected default triad fallback, got %+v", result.AppliedBy)
	}
}

func TestApplyUpdates_AddEdgeSkipsDuplicateTriple(t *testing.T) {
	store := testStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	base := `
[PRE_FLIGHT_CHECK]
node_id: a
verification_status: PASSED
[/PRE_FLIGHT_CHECK]
[GRAPH_UPDATE]
type: add_node
node_id: a
node_type: Entity
label: A
triad: general
[/GRAPH_UPDATE]
[PRE_FLIGHT_CHECK]
node_id: b
verification_status: PASSED
[/PRE_FLIGHT_CHECK]
[GRAPH_UPDATE]
type: add_node
node_id: b
node_type: Entity
label: B
triad: general
[/GRAPH_UPDATE]
[GRAPH_UPDATE]
type: add_edge
source: a
target: b
key: relates_to
triad: general
[/GRAPH_UPDATE]
`
	if _, err := ApplyUpdates(store, now, base, "agent", nil); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	edgeOnly := `
[GRAPH_UPDATE]
type: add_edge
source: a
target: b
key: relates_to
triad: general
[/GRAPH_UPDATE]
`
	result, err := ApplyUpdates(store, now, edgeOnly, "agent", nil)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if result.AppliedBy["general"] != 0 {
		t.Fatalf("expected duplicate edge triple to be skipped, got %+v", result.AppliedBy)
	}

	g, err := store.Load("general", false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(g.Links) != 1 {
		t.Fatalf("expected exactly one link, got %d", len(g.Links))
	}
}
