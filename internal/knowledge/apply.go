package knowledge

import (
	"fmt"
	"strings"
	"time"

	"github.com/antigravity-dev/triads-runtime/internal/blocks"
	"github.com/antigravity-dev/triads-runtime/internal/graphstore"
)

// Violation is a quality-gate finding surfaced to the caller, never an
// applied-or-not gate: apply-updates always applies the update even when it
// produces a violation (spec §4.5 "Apply anyway").
type Violation struct {
	NodeID  string
	Field   string
	Message string
}

// ApplyResult summarizes one apply-updates pass.
type ApplyResult struct {
	Violations []Violation
	AppliedBy  map[string]int // triad -> count of updates applied to it
	Warnings   []string       // unknown update types, logged and ignored
}

// TriadLookup resolves the owning triad for an agent name (spec §4.5 step 3,
// "lookup by created_by agent name") — typically backed by workflow schema
// or team-role configuration.
type TriadLookup func(agentName string) (triad string, ok bool)

// ApplyUpdates runs the Knowledge Handler's apply-updates subroutine (spec
// §4.5): it extracts [GRAPH_UPDATE] and [PRE_FLIGHT_CHECK] blocks from text,
// quality-gates each update against its matching pre-flight check, groups
// updates by triad, and applies them sequentially via store. agentName is
// the agent attributed with producing text (used for created_by and the
// created_by lookup step); lookup may be nil.
func ApplyUpdates(store *graphstore.Store, now time.Time, text, agentName string, lookup TriadLookup) (ApplyResult, error) {
	updates := blocks.ExtractGraphUpdates(text)
	checks := blocks.ExtractPreFlightChecks(text)
	checksByNode := make(map[string]blocks.PreFlightCheck, len(checks))
	for _, c := range checks {
		checksByNode[c.NodeID] = c
	}

	result := ApplyResult{AppliedBy: make(map[string]int)}

	byTriad := make(map[string][]blocks.GraphUpdate)
	var order []string
	for _, u := range updates {
		result.Violations = append(result.Violations, qualityGate(u, checksByNode)...)

		triad := resolveTriad(u, agentName, lookup)
		if _, seen := byTriad[triad]; !seen {
			order = append(order, triad)
		}
		byTriad[triad] = append(byTriad[triad], u)
	}

	for _, triad := range order {
		g, err := store.Load(triad, true)
		if err != nil {
			return result, fmt.Errorf("knowledge: loading graph for %s: %w", triad, err)
		}

		for _, u := range byTriad[triad] {
			applied, warning := applyOne(g, u, agentName, now)
			if warning != "" {
				result.Warnings = append(result.Warnings, warning)
				continue
			}
			if applied {
				result.AppliedBy[triad]++
			}
		}

		if result.AppliedBy[triad] > 0 {
			if err := store.Save(triad, g); err != nil {
				return result, fmt.Errorf("knowledge: saving graph for %s: %w", triad, err)
			}
		}
	}

	return result, nil
}

// qualityGate implements spec §4.5 step 2: a matching pre-flight check by
// node_id is required; its absence, a non-PASSED status, a failed checklist
// item, or a claimed-but-contradicted PASSED all produce a Violation. The
// check's items are not compared against any list of required items, so an
// item missing from the check is not reported. The update is still applied
// regardless (violations are reporting-only, not enforcement).
func qualityGate(u blocks.GraphUpdate, checksByNode map[string]blocks.PreFlightCheck) []Violation {
	nodeID := u.Field("node_id")
	if nodeID == "" {
		nodeID = u.Field("id")
	}
	if nodeID == "" {
		return nil
	}

	check, ok := checksByNode[nodeID]
	if !ok {
		return []Violation{{NodeID: nodeID, Field: "pre_flight_check", Message: "no matching pre-flight check found"}}
	}

	var violations []Violation
	if !strings.EqualFold(check.VerificationStatus, "PASSED") {
		violations = append(violations, Violation{NodeID: nodeID, Field: "verification_status", Message: "verification_status is not PASSED"})
	} else {
		for _, item := range check.ChecklistItems {
			if !item.Passed {
				violations = append(violations, Violation{NodeID: nodeID, Field: "checklist", Message: fmt.Sprintf("checklist item %q failed", item.Name)})
			}
		}
		if !check.AllPassed() {
			violations = append(violations, Violation{NodeID: nodeID, Field: "verification_status", Message: "status claims PASSED but checklist items failed"})
		}
	}
	return violations
}

// resolveTriad implements spec §4.5 step 3's preference order: explicit
// "triad" field, created_by agent lookup, node-id prefix convention
// ("<triad>-...") then a fixed default.
func resolveTriad(u blocks.GraphUpdate, agentName string, lookup TriadLookup) string {
	if triad := u.Field("triad"); triad != "" {
		return triad
	}
	if lookup != nil {
		if triad, ok := lookup(agentName); ok && triad != "" {
			return triad
		}
	}
	id := u.Field("node_id")
	if id == "" {
		id = u.Field("id")
	}
	if idx := strings.Index(id, "-"); idx > 0 {
		return id[:idx]
	}
	return defaultTriadFallback
}

// applyOne mutates g according to u (spec §4.5 step 4). Returns applied=true
// if a change was made, or a non-empty warning for an unrecognized op.
func applyOne(g *graphstore.Graph, u blocks.GraphUpdate, agentName string, now time.Time) (applied bool, warning string) {
	switch u.Op {
	case blocks.OpAddNode:
		return applyAddNode(g, u, agentName, now), ""
	case blocks.OpUpdateNode:
		return applyUpdateNode(g, u, agentName, now), ""
	case blocks.OpAddEdge:
		return applyAddEdge(g, u, now), ""
	case blocks.OpUpdateEdge:
		return applyUpdateEdge(g, u, now), ""
	default:
		return false, fmt.Sprintf("unknown graph update type %q ignored", string(u.Op))
	}
}

func applyAddNode(g *graphstore.Graph, u blocks.GraphUpdate, agentName string, now time.Time) bool {
	id := u.Field("node_id")
	if id == "" {
		id = u.Field("id")
	}
	if id == "" || g.NodeByID(id) != nil {
		return false
	}

	node := graphstore.Node{
		ID:          id,
		Type:        graphstore.NodeType(u.Field("node_type")),
		Label:       u.Field("label"),
		Description: u.Field("description"),
		Evidence:    u.Field("evidence"),
		CreatedBy:   agentName,
		CreatedAt:   now,
		UpdatedBy:   agentName,
		UpdatedAt:   now,
	}
	if conf, ok := u.Confidence(); ok {
		node.Confidence = &conf
	}
	if p := u.Field("priority"); p != "" {
		priority := graphstore.Priority(strings.ToUpper(p))
		node.Priority = &priority
	}
	if s := u.Field("status"); s != "" {
		status := graphstore.Status(s)
		node.Status = &status
	}

	g.Nodes = append(g.Nodes, node)
	return true
}

func applyUpdateNode(g *graphstore.Graph, u blocks.GraphUpdate, agentName string, now time.Time) bool {
	id := u.Field("node_id")
	if id == "" {
		id = u.Field("id")
	}
	node := g.NodeByID(id)
	if node == nil {
		return false
	}

	for key, value := range u.Fields {
		switch key {
		case "node_id", "id", "type", "triad", "node_type":
			continue
		case "label":
			node.Label = value
		case "description":
			node.Description = value
		case "evidence":
			node.Evidence = value
		case "confidence":
			if conf, ok := coerceFloat(value); ok {
				node.Confidence = &conf
			}
		case "priority":
			priority := graphstore.Priority(strings.ToUpper(value))
			node.Priority = &priority
		case "status":
			status := graphstore.Status(value)
			node.Status = &status
		}
	}
	node.UpdatedBy = agentName
	node.UpdatedAt = now
	return true
}

func applyAddEdge(g *graphstore.Graph, u blocks.GraphUpdate, now time.Time) bool {
	source := u.Field("source")
	target := u.Field("target")
	key := u.Field("key")
	if source == "" || target == "" {
		return false
	}
	if g.LinkIndex(source, target, key) >= 0 {
		return false
	}
	g.Links = append(g.Links, graphstore.Link{
		Source:    source,
		Target:    target,
		Key:       key,
		Rationale: u.Field("rationale"),
		CreatedAt: now,
		UpdatedAt: now,
	})
	return true
}

func applyUpdateEdge(g *graphstore.Graph, u blocks.GraphUpdate, now time.Time) bool {
	source := u.Field("source")
	target := u.Field("target")
	key := u.Field("key")
	idx := g.LinkIndex(source, target, key)
	if idx < 0 {
		return false
	}
	if rationale := u.Field("rationale"); rationale != "" {
		g.Links[idx].Rationale = rationale
	}
	g.Links[idx].UpdatedAt = now
	return true
}

func coerceFloat(s string) (float64, bool) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%g", &f)
	if err != nil {
		return 0, false
	}
	return f, true
}
