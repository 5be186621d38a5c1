package handoff

import "github.com/antigravity-dev/triads-runtime/internal/blocks"

// HITLGate is the Handoff Pipeline's signal that the next agent must not
// run until a human approves (spec §4.6 "HITL detection").
type HITLGate struct {
	Halt   bool
	Prompt string
}

// DetectHITL inspects an agent's output for a [HITL_REQUIRED] block. Callers
// must surface Prompt to the human and wait for approval before invoking
// the next agent in the triad when Halt is true (spec §4.6 invariant).
func DetectHITL(output string) HITLGate {
	prompt, found := blocks.ExtractHITL(output)
	if !found {
		return HITLGate{}
	}
	return HITLGate{Halt: true, Prompt: prompt}
}
