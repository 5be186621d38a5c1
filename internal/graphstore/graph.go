// Package graphstore implements the per-triad knowledge graph persistence
// layer (spec §3 "Graph", §4.1 Graph Store). Each triad owns one JSON file;
// writes are atomic, validated, and backed up before being replaced.
package graphstore

import "time"

// NodeType enumerates the allowed node types (spec §3).
type NodeType string

const (
	NodeEntity      NodeType = "Entity"
	NodeFinding     NodeType = "Finding"
	NodeConcept     NodeType = "Concept"
	NodeUncertainty NodeType = "Uncertainty"
	NodeDecision    NodeType = "Decision"
)

// Priority enumerates ProcessKnowledge priorities.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Status enumerates node lifecycle status.
type Status string

const (
	StatusActive           Status = "active"
	StatusNeedsValidation   Status = "needs_validation"
	StatusDeprecated        Status = "deprecated"
)

// allowedNodeTypes is the validation set from spec §3/§4.1.
var allowedNodeTypes = map[NodeType]bool{
	NodeEntity:      true,
	NodeFinding:     true,
	NodeConcept:     true,
	NodeUncertainty: true,
	NodeDecision:    true,
}

// Node is one vertex in a triad's graph.
type Node struct {
	ID          string    `json:"id"`
	Type        NodeType  `json:"type"`
	Label       string    `json:"label"`
	Description string    `json:"description,omitempty"`
	Confidence  *float64  `json:"confidence,omitempty"`
	Evidence    string    `json:"evidence,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedBy   string    `json:"updated_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
	Priority    *Priority `json:"priority,omitempty"`
	Status      *Status   `json:"status,omitempty"`

	// ProcessKnowledge is only present when Type == NodeConcept and the node
	// represents a learned lesson (spec §3 "ProcessKnowledge node").
	ProcessKnowledge *ProcessKnowledge `json:"process_knowledge,omitempty"`
}

// Link is one directed edge in a triad's graph. Uniqueness key is
// (Source, Target, Key) per spec §3.
type Link struct {
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Key       string    `json:"key"`
	Rationale string    `json:"rationale,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Meta carries the denormalized counters and triad identity (spec §3 "_meta").
type Meta struct {
	TriadName string    `json:"triad_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
}

// Graph is one triad's persistent directed multigraph (spec §3, §6 file format).
type Graph struct {
	Directed bool   `json:"directed"`
	Nodes    []Node `json:"nodes"`
	Links    []Link `json:"links"`
	Meta     Meta   `json:"_meta"`
}

// NewGraph returns the default empty graph for a triad, never written until
// the first mutation (spec §3 Lifecycle).
func NewGraph(triad string, now time.Time) *Graph {
	return &Graph{
		Directed: true,
		Nodes:    []Node{},
		Links:    []Link{},
		Meta: Meta{
			TriadName: triad,
			CreatedAt: now,
			UpdatedAt: now,
			NodeCount: 0,
			EdgeCount: 0,
		},
	}
}

// NodeByID returns a pointer into g.Nodes for the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// LinkIndex returns the index of the link with the given (source,target,key)
// triple, or -1.
func (g *Graph) LinkIndex(source, target, key string) int {
	for i := range g.Links {
		if g.Links[i].Source == source && g.Links[i].Target == target && g.Links[i].Key == key {
			return i
		}
	}
	return -1
}

// syncMeta recomputes node_count/edge_count/updated_at to match the current
// contents (spec §3 invariant: node_count == len(nodes), edge_count == len(links)).
func (g *Graph) syncMeta(now time.Time) {
	g.Meta.NodeCount = len(g.Nodes)
	g.Meta.EdgeCount = len(g.Links)
	g.Meta.UpdatedAt = now
}
