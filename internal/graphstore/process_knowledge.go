package graphstore

import (
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ProcessType enumerates the kinds of learned lessons (spec §3).
type ProcessType string

const (
	ProcessChecklist  ProcessType = "checklist"
	ProcessPattern    ProcessType = "pattern"
	ProcessWarning    ProcessType = "warning"
	ProcessRequirement ProcessType = "requirement"
)

// TriggerConditions gates when a ProcessKnowledge node is relevant to a
// pending tool call (spec §3, queried by C7). An empty list means
// wildcard-none: it never matches on that dimension.
type TriggerConditions struct {
	ToolNames       []string `json:"tool_names,omitempty"`
	FilePatterns    []string `json:"file_patterns,omitempty"`
	ActionKeywords  []string `json:"action_keywords,omitempty"`
	ContextKeywords []string `json:"context_keywords,omitempty"`
	TriadNames      []string `json:"triad_names,omitempty"`
}

// ChecklistItem is one line of a checklist-type ProcessKnowledge node.
type ChecklistItem struct {
	Item     string `json:"item"`
	Required bool   `json:"required"`
	File     string `json:"file,omitempty"`
}

// OutcomeTracking records how a ProcessKnowledge node has performed once
// applied (spec §3 "Outcome tracking").
type OutcomeTracking struct {
	SuccessCount       int        `json:"success_count"`
	FailureCount       int        `json:"failure_count"`
	ConfirmationCount  int        `json:"confirmation_count"`
	ContradictionCount int        `json:"contradiction_count"`
	InjectionCount     int        `json:"injection_count"`
	LastOutcome        string     `json:"last_outcome,omitempty"`
	OutcomeHistory     []string   `json:"outcome_history,omitempty"`
	DeprecatedAt       *time.Time `json:"deprecated_at,omitempty"`
	DeprecatedReason   string     `json:"deprecated_reason,omitempty"`
}

// ProcessKnowledge is the payload carried by a special Concept node (spec §3).
type ProcessKnowledge struct {
	ProcessType        ProcessType        `json:"process_type"`
	TriggerConditions  TriggerConditions  `json:"trigger_conditions"`
	Checklist          []ChecklistItem    `json:"checklist,omitempty"`
	Outcome            OutcomeTracking    `json:"outcome"`
}

// Matches reports whether the node's trigger conditions overlap the given
// call context: the tool name, the file path (glob), the action keywords,
// the context keywords, or the triad name. Any single overlap with the
// node's corresponding list is a match; empty lists do not match.
func (tc TriggerConditions) Matches(toolName, filePath string, actionKeywords, contextKeywords []string, triad string) bool {
	if overlapsString(tc.ToolNames, toolName) {
		return true
	}
	if filePath != "" && overlapsGlob(tc.FilePatterns, filePath) {
		return true
	}
	if overlapsAny(tc.ActionKeywords, actionKeywords) {
		return true
	}
	if overlapsAny(tc.ContextKeywords, contextKeywords) {
		return true
	}
	if overlapsString(tc.TriadNames, triad) {
		return true
	}
	return false
}

func overlapsGlob(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
	}
	return false
}

func overlapsString(list []string, value string) bool {
	if value == "" {
		return false
	}
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func overlapsAny(list, values []string) bool {
	if len(list) == 0 || len(values) == 0 {
		return false
	}
	set := make(map[string]bool, len(list))
	for _, v := range list {
		set[v] = true
	}
	for _, v := range values {
		if set[v] {
			return true
		}
	}
	return false
}
