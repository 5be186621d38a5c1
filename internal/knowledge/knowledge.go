// Package knowledge implements the Knowledge Handler (C5): applying parsed
// [GRAPH_UPDATE] blocks to the Graph Store under a quality gate, and
// extracting new ProcessKnowledge lessons from conversation text (spec
// §4.5). Grounded on the teacher's internal/learner package for the shape of
// confidence/outcome bookkeeping (outcomes.go, quality.go), generalized from
// dispatch outcomes to ProcessKnowledge outcome counters.
package knowledge

// defaultTriadFallback names the triad used when none of apply-updates'
// triad-resolution steps (explicit field, created_by lookup, node-id prefix)
// produce a match.
const defaultTriadFallback = "general"
