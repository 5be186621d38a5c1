package knowledge

import (
	"testing"
	"time"

	"github.com/antigravity-dev/triads-runtime/internal/graphstore"
)

func TestBuildNode_ProducesConceptWithProcessKnowledge(t *testing.T) {
	c := LessonCandidate{
		Method:      DetectionUserCorrection,
		Label:       "forgot to update the changelog",
		ProcessType: graphstore.ProcessWarning,
		Evidence:    "you forgot to update the changelog",
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	node := BuildNode(c, "implementation", "reviewer", now)
	if node.Type != graphstore.NodeConcept {
		t.Fatalf("expected Concept node, got %s", node.Type)
	}
	if node.ProcessKnowledge == nil || node.ProcessKnowledge.ProcessType != graphstore.ProcessWarning {
		t.Fatalf("expected ProcessKnowledge payload, got %+v", node.ProcessKnowledge)
	}
	if node.Priority == nil || *node.Priority != graphstore.PriorityCritical {
		t.Fatalf("expected CRITICAL priority for user correction, got %+v", node.Priority)
	}
	if node.Confidence == nil {
		t.Fatalf("expected confidence to be set")
	}
	if node.ID == "" {
		t.Fatalf("expected a generated node id")
	}
}
