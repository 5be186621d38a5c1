package router

import "testing"

func TestEmbed_Deterministic(t *testing.T) {
	a := Embed("implement OAuth2 refresh token flow")
	b := Embed("implement OAuth2 refresh token flow")
	if CosineSimilarity(a, b) < 0.999999 {
		t.Fatalf("expected identical embeddings for identical text, got similarity %v", CosineSimilarity(a, b))
	}
	if len(a) != EmbeddingDim {
		t.Fatalf("expected %d dims, got %d", EmbeddingDim, len(a))
	}
}

func TestSemanticRoute_RankingIsStableAcrossRuns(t *testing.T) {
	profiles := []TriadProfile{
		NewTriadProfile("implementation", "write code for a feature", []string{"implement the login endpoint", "add a new API handler"}),
		NewTriadProfile("design", "design system architecture", []string{"design the database schema", "sketch the component diagram"}),
	}

	prompt := "implement OAuth2 refresh token flow"
	first := SemanticRoute(prompt, profiles)
	second := SemanticRoute(prompt, profiles)

	if len(first) != len(second) {
		t.Fatalf("mismatched candidate counts")
	}
	for i := range first {
		if first[i].TriadID != second[i].TriadID || first[i].Score != second[i].Score {
			t.Fatalf("ranking not stable: %+v vs %+v", first, second)
		}
	}
	if first[0].TriadID != "implementation" {
		t.Fatalf("expected implementation to rank first, got %+v", first)
	}
}

func TestCheckThreshold_InclusiveBoundaries(t *testing.T) {
	candidates := []Candidate{{TriadID: "a", Score: 0.70}, {TriadID: "b", Score: 0.60}}
	td := CheckThreshold(candidates, 0.70, 0.10)
	if !td.Immediate {
		t.Fatalf("expected immediate route when top score exactly meets confidence threshold")
	}
}

func TestCheckThreshold_EscalatesBelowConfidence(t *testing.T) {
	candidates := []Candidate{{TriadID: "a", Score: 0.50}, {TriadID: "b", Score: 0.10}}
	td := CheckThreshold(candidates, 0.70, 0.10)
	if td.Immediate {
		t.Fatalf("expected escalation below confidence threshold")
	}
}

func TestCheckThreshold_EscalatesWhenAmbiguous(t *testing.T) {
	candidates := []Candidate{{TriadID: "a", Score: 0.80}, {TriadID: "b", Score: 0.78}}
	td := CheckThreshold(candidates, 0.70, 0.10)
	if td.Immediate {
		t.Fatalf("expected escalation when gap to runner-up is too small")
	}
}

func TestCheckThreshold_EmptyCandidates(t *testing.T) {
	td := CheckThreshold(nil, 0.70, 0.10)
	if td.Immediate {
		t.Fatalf("no candidates should never route immediately")
	}
}
