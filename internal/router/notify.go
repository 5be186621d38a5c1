package router

import "fmt"

// Decision is the Router's final output for one prompt (spec §4.3, the
// Router's pipeline result).
type Decision struct {
	TriadID    string
	Confidence float64
	Method     Method
	Reasoning  string
	Cancelled  bool
}

// ExplainDecision renders the human-readable "routed you to X because Y"
// message the original router emits (SPEC_FULL §4, supplemented from
// original_source/src/triads/router/_notifications.py), exposed as a pure
// function so callers can surface routing rationale without re-deriving it.
func ExplainDecision(d Decision) string {
	if d.Cancelled {
		return "Routing cancelled; ask again to pick a triad."
	}
	switch d.Method {
	case MethodGracePeriod:
		return fmt.Sprintf("Staying with %s (grace period).", d.TriadID)
	case MethodManual:
		return fmt.Sprintf("Routed you to %s (manual selection).", d.TriadID)
	case MethodSemantic:
		if d.Reasoning != "" {
			return fmt.Sprintf("Routed you to %s (%.0f%% match) because %s", d.TriadID, d.Confidence*100, d.Reasoning)
		}
		return fmt.Sprintf("Routed you to %s (%.0f%% match).", d.TriadID, d.Confidence*100)
	case MethodLLM:
		if d.Reasoning != "" {
			return fmt.Sprintf("Routed you to %s because %s", d.TriadID, d.Reasoning)
		}
		return fmt.Sprintf("Routed you to %s.", d.TriadID)
	default:
		return fmt.Sprintf("Routed you to %s.", d.TriadID)
	}
}
