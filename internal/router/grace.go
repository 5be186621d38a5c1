package router

import (
	"strings"
	"time"
)

// DefaultGraceTurns and DefaultGraceMinutes are the spec §4.3 defaults.
const (
	DefaultGraceTurns   = 5
	DefaultGraceMinutes = 8
)

// GraceConfig carries the two grace-period knobs, overridable via
// CLAUDE_ROUTER_GRACE_TURNS / CLAUDE_ROUTER_GRACE_MINUTES (spec §6).
type GraceConfig struct {
	Turns   int
	Minutes int
}

// bypassPhrases are strong transition phrases that exit the grace period
// even mid-window (spec §4.3 "Bypass detection").
var bypassPhrases = []string{
	"let's switch to",
	"lets switch to",
	"switch to",
	"now let's",
	"now lets",
}

// multiIntentConnectors signal a prompt addresses more than one triad in
// sequence, which also bypasses grace (spec §4.3).
var multiIntentConnectors = []string{
	" and then ",
	" then ",
}

// explicitSwitchPrefixes are commands a prompt may open with to force a
// fresh routing decision regardless of grace period.
var explicitSwitchPrefixes = []string{
	"/switch",
	"/route",
	"switch to",
}

// Bypasses reports whether prompt should skip the grace period and run the
// full routing pipeline even while a triad is still within its window
// (spec §4.3 "Bypass detection").
func Bypasses(prompt string) bool {
	lower := strings.ToLower(strings.TrimSpace(prompt))
	for _, prefix := range explicitSwitchPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	for _, phrase := range bypassPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	for _, connector := range multiIntentConnectors {
		if strings.Contains(lower, connector) {
			return true
		}
	}
	return false
}

// InGracePeriod reports whether the active triad in st is still within its
// grace window given now, per spec §4.3's state machine: turn_count < Turns
// OR elapsed time since activation < Minutes keeps the triad active, unless
// the prompt bypasses.
func InGracePeriod(st *State, cfg GraceConfig, now time.Time, prompt string) bool {
	if st == nil || st.ActiveTriad == "" {
		return false
	}
	if Bypasses(prompt) {
		return false
	}

	turns := cfg.Turns
	if turns <= 0 {
		turns = DefaultGraceTurns
	}
	minutes := cfg.Minutes
	if minutes <= 0 {
		minutes = DefaultGraceMinutes
	}

	if st.TurnCount < turns {
		return true
	}
	if st.ConversationStart != nil && now.Sub(*st.ConversationStart) < time.Duration(minutes)*time.Minute {
		return true
	}
	return false
}

// Activate transitions st into In-triad(triad, 1, now) — the state entered
// on every freshly routed decision (spec §4.3 state machine).
func Activate(st *State, triad string, now time.Time) {
	st.ActiveTriad = triad
	st.TurnCount = 1
	st.ConversationStart = &now
	st.LastActivity = &now
	st.PendingIntents = nil
}

// Continue advances st's turn counter while staying on the same active
// triad (spec §4.3 "stay (turn := k+1)").
func Continue(st *State, now time.Time) {
	st.TurnCount++
	st.LastActivity = &now
}

// Cancel clears the active triad, entering the Cancelled state; the next
// prompt re-enters No-active (spec §4.3 state machine).
func Cancel(st *State, now time.Time) {
	st.ActiveTriad = ""
	st.TurnCount = 0
	st.ConversationStart = nil
	st.LastActivity = &now
	st.PendingIntents = nil
}
