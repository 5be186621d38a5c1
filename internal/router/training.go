package router

// Training mode (SPEC_FULL §4, supplemented from
// original_source/src/triads/router/training_mode.py): when enabled, an
// automatic (semantic or LLM) routing decision does not take effect
// immediately. It is held as the sole pending intent until the user
// confirms it, at which point it is recorded in
// State.TrainingModeConfirmations and applied as if routed normally. This
// lets an operator audit the Router's choices before trusting them.

// TrainingDecision is a routing decision awaiting confirmation under
// training mode.
type TrainingDecision struct {
	TriadID    string
	Confidence float64
	Method     Method
	Reasoning  string
}

// HoldForConfirmation records decision as the state's sole pending intent,
// to be confirmed or rejected by a later call to ConfirmPending /
// RejectPending, instead of activating the triad immediately.
func HoldForConfirmation(st *State, decision TrainingDecision) {
	st.PendingIntents = []PendingIntent{{
		TriadID:    decision.TriadID,
		Confidence: decision.Confidence,
		Reason:     decision.Reasoning,
	}}
}

// ConfirmPending accepts the held pending intent (if any), increments the
// confirmation counter, and clears the pending-intent queue. It returns the
// confirmed triad id, or "" if there was nothing pending.
func ConfirmPending(st *State) string {
	if len(st.PendingIntents) == 0 {
		return ""
	}
	triad := st.PendingIntents[0].TriadID
	st.TrainingModeConfirmations++
	st.PendingIntents = nil
	return triad
}

// RejectPending discards the held pending intent without applying it or
// counting a confirmation.
func RejectPending(st *State) {
	st.PendingIntents = nil
}
