package blocks

import "strings"

// GraphUpdateOp enumerates the four mutation kinds a GRAPH_UPDATE block may
// carry (spec §4.2).
type GraphUpdateOp string

const (
	OpAddNode    GraphUpdateOp = "add_node"
	OpUpdateNode GraphUpdateOp = "update_node"
	OpAddEdge    GraphUpdateOp = "add_edge"
	OpUpdateEdge GraphUpdateOp = "update_edge"
)

// GraphUpdate is one parsed "[GRAPH_UPDATE]...[/GRAPH_UPDATE]" block. Op
// comes from the block's "type:" line; everything else is carried as loose
// fields so the Knowledge Handler (which knows the node/edge schema) decides
// how to interpret them.
type GraphUpdate struct {
	Op     GraphUpdateOp
	Fields map[string]string
	Lists  map[string][]string
}

// Field returns the named field, or "" if absent.
func (u GraphUpdate) Field(key string) string {
	return u.Fields[strings.ToLower(key)]
}

// Confidence returns the block's "confidence:" field coerced to a float, if
// present and parseable.
func (u GraphUpdate) Confidence() (float64, bool) {
	v, ok := u.Fields["confidence"]
	if !ok {
		return 0, false
	}
	return coerceFloat(v)
}

// ExtractGraphUpdates returns every GRAPH_UPDATE block found in text, in
// document order. Blocks whose "type:" line is missing or not one of the
// four known operations are skipped (forgiving parse, spec §4.2/§7).
func ExtractGraphUpdates(text string) []GraphUpdate {
	var updates []GraphUpdate
	for _, body := range extractBlocks(text, "GRAPH_UPDATE") {
		pb := parseBlockBody(body)
		op := GraphUpdateOp(strings.ToLower(pb.fields["type"]))
		switch op {
		case OpAddNode, OpUpdateNode, OpAddEdge, OpUpdateEdge:
		default:
			continue
		}
		delete(pb.fields, "type")
		updates = append(updates, GraphUpdate{Op: op, Fields: pb.fields, Lists: pb.listFields})
	}
	return updates
}
