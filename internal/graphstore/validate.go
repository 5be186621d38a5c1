package graphstore

import "fmt"

// Violation describes one invariant failure found while validating a graph.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationResult reports every invariant violation found, not just the
// first — the original's corruption-prevention pass collects all errors in
// one sweep (SPEC_FULL §4 "Supplemented features").
type ValidationResult struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
}

// Validate checks the invariants from spec §3/§4.1:
//   - required node fields {id, type, label}
//   - type must be in the allowed set
//   - confidence in [0,1] when present
//   - edge endpoints resolvable within the same graph
//   - node_count/edge_count match len(nodes)/len(links)
func Validate(g *Graph) ValidationResult {
	var violations []Violation

	seenIDs := make(map[string]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		field := fmt.Sprintf("nodes[%d]", i)
		if n.ID == "" {
			violations = append(violations, Violation{field + ".id", "node id is required"})
		} else if seenIDs[n.ID] {
			violations = append(violations, Violation{field + ".id", fmt.Sprintf("duplicate node id %q", n.ID)})
		} else {
			seenIDs[n.ID] = true
		}
		if n.Label == "" {
			violations = append(violations, Violation{field + ".label", "node label is required"})
		}
		if n.Type == "" {
			violations = append(violations, Violation{field + ".type", "node type is required"})
		} else if !allowedNodeTypes[n.Type] {
			violations = append(violations, Violation{field + ".type", fmt.Sprintf("node type %q is not allowed", n.Type)})
		}
		if n.Confidence != nil && (*n.Confidence < 0 || *n.Confidence > 1) {
			violations = append(violations, Violation{field + ".confidence", fmt.Sprintf("confidence %v out of [0,1]", *n.Confidence)})
		}
	}

	seenLinks := make(map[string]bool, len(g.Links))
	for i, l := range g.Links {
		field := fmt.Sprintf("links[%d]", i)
		if l.Source == "" || l.Target == "" || l.Key == "" {
			violations = append(violations, Violation{field, "link requires source, target, and key"})
			continue
		}
		if !seenIDs[l.Source] {
			violations = append(violations, Violation{field + ".source", fmt.Sprintf("source node %q does not exist", l.Source)})
		}
		if !seenIDs[l.Target] {
			violations = append(violations, Violation{field + ".target", fmt.Sprintf("target node %q does not exist", l.Target)})
		}
		triple := l.Source + "\x00" + l.Target + "\x00" + l.Key
		if seenLinks[triple] {
			violations = append(violations, Violation{field, fmt.Sprintf("duplicate link (%s,%s,%s)", l.Source, l.Target, l.Key)})
		}
		seenLinks[triple] = true
	}

	if g.Meta.NodeCount != len(g.Nodes) {
		violations = append(violations, Violation{"_meta.node_count", fmt.Sprintf("meta node_count %d does not match %d nodes", g.Meta.NodeCount, len(g.Nodes))})
	}
	if g.Meta.EdgeCount != len(g.Links) {
		violations = append(violations, Violation{"_meta.edge_count", fmt.Sprintf("meta edge_count %d does not match %d links", g.Meta.EdgeCount, len(g.Links))})
	}

	return ValidationResult{Valid: len(violations) == 0, Violations: violations}
}
