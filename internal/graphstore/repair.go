package graphstore

import "time"

// RepairAction describes one corrective step taken during repair.
type RepairAction struct {
	Kind   string `json:"kind"` // "drop_edge", "drop_node", "clamp_confidence", "recount"
	Detail string `json:"detail"`
}

// RepairResult reports what repair did, best-effort (spec §4.1 "Failures").
type RepairResult struct {
	Actions []RepairAction `json:"actions"`
}

// Repair drops edges whose endpoints don't exist, drops nodes missing
// required fields, and rewrites the meta counters. It is idempotent:
// Repair(Repair(g)) produces no further actions and Validate(Repair(g)) is
// valid (spec §8 property 3).
func Repair(g *Graph, now time.Time) RepairResult {
	var result RepairResult

	kept := g.Nodes[:0:0]
	ids := make(map[string]bool, len(g.Nodes))
	seenIDs := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" || n.Label == "" || n.Type == "" || !allowedNodeTypes[n.Type] {
			result.Actions = append(result.Actions, RepairAction{
				Kind:   "drop_node",
				Detail: "node missing required fields or has an invalid type: " + n.ID,
			})
			continue
		}
		if seenIDs[n.ID] {
			result.Actions = append(result.Actions, RepairAction{Kind: "drop_node", Detail: "duplicate node id: " + n.ID})
			continue
		}
		if n.Confidence != nil && (*n.Confidence < 0 || *n.Confidence > 1) {
			clamped := clamp01(*n.Confidence)
			n.Confidence = &clamped
			result.Actions = append(result.Actions, RepairAction{Kind: "clamp_confidence", Detail: "clamped confidence for node: " + n.ID})
		}
		seenIDs[n.ID] = true
		ids[n.ID] = true
		kept = append(kept, n)
	}
	g.Nodes = kept

	keptLinks := g.Links[:0:0]
	seenLinks := make(map[string]bool, len(g.Links))
	for _, l := range g.Links {
		if !ids[l.Source] || !ids[l.Target] || l.Key == "" {
			result.Actions = append(result.Actions, RepairAction{
				Kind:   "drop_edge",
				Detail: "edge has a dangling endpoint or empty key: " + l.Source + "->" + l.Target,
			})
			continue
		}
		triple := l.Source + "\x00" + l.Target + "\x00" + l.Key
		if seenLinks[triple] {
			result.Actions = append(result.Actions, RepairAction{Kind: "drop_edge", Detail: "duplicate edge: " + triple})
			continue
		}
		seenLinks[triple] = true
		keptLinks = append(keptLinks, l)
	}
	g.Links = keptLinks

	if g.Meta.NodeCount != len(g.Nodes) || g.Meta.EdgeCount != len(g.Links) {
		result.Actions = append(result.Actions, RepairAction{Kind: "recount", Detail: "rewrote node_count/edge_count"})
	}
	g.syncMeta(now)

	return result
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
