package knowledge

import (
	"time"

	"github.com/antigravity-dev/triads-runtime/internal/graphstore"
	"github.com/google/uuid"
)

// BuildNode materializes a detected LessonCandidate into a Concept node
// carrying ProcessKnowledge, ready to be appended to a triad's graph (spec
// §3 "ProcessKnowledge node", §4.5). targetTriad informs the
// deployment-context priority rule; createdBy attributes the node.
func BuildNode(c LessonCandidate, targetTriad, createdBy string, now time.Time) graphstore.Node {
	priority := AssignPriority(c, targetTriad)
	confidence := InitialConfidence(priority, c.Method, c.RepetitionCount)
	status := DeriveStatus(confidence)

	return graphstore.Node{
		ID:          "lesson-" + uuid.NewString(),
		Type:        graphstore.NodeConcept,
		Label:       c.Label,
		Evidence:    c.Evidence,
		Confidence:  &confidence,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedBy:   createdBy,
		UpdatedAt:   now,
		Priority:    &priority,
		Status:      &status,
		ProcessKnowledge: &graphstore.ProcessKnowledge{
			ProcessType:       c.ProcessType,
			TriggerConditions: c.TriggerConditions,
			Checklist:         c.Checklist,
			Outcome:           NewOutcomeTracking(),
		},
	}
}
