package knowledge

import (
	"regexp"
	"strings"

	"github.com/antigravity-dev/triads-runtime/internal/blocks"
	"github.com/antigravity-dev/triads-runtime/internal/graphstore"
)

// DetectionMethod names which of the three extract-lessons subroutines
// produced a LessonCandidate (spec §4.5 "Extract-lessons").
type DetectionMethod string

const (
	DetectionExplicit        DetectionMethod = "explicit"
	DetectionUserCorrection  DetectionMethod = "user_correction"
	DetectionRepeatedMistake DetectionMethod = "repeated_mistake"
)

// LessonCandidate is a detected-but-not-yet-scored lesson; priority,
// confidence, and status are assigned afterward by AssignPriority and
// InitialConfidence/DeriveStatus (spec §4.5).
type LessonCandidate struct {
	Method            DetectionMethod
	Label             string
	ProcessType       graphstore.ProcessType
	ExplicitPriority  graphstore.Priority // set only for DetectionExplicit, may be empty
	TriggerConditions graphstore.TriggerConditions
	Checklist         []graphstore.ChecklistItem
	RepetitionCount   int // how many times this same correction/mistake text recurred
	Evidence          string
}

// userCorrectionPatterns matches phrasings like "you missed X" that signal
// the user correcting the agent (spec §4.5 "User corrections").
var userCorrectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\byou missed\b`),
	regexp.MustCompile(`(?i)\byou forgot\b`),
	regexp.MustCompile(`(?i)\byou should have\b`),
	regexp.MustCompile(`(?i)\bdon't forget to\b`),
	regexp.MustCompile(`(?i)\bdo not forget to\b`),
	regexp.MustCompile(`(?i)\bremember to\b`),
	regexp.MustCompile(`(?i)\bwhy didn't you\b`),
	regexp.MustCompile(`(?i)\bwhy did you not\b`),
}

// repeatedMistakePatterns matches phrasings like "X again" that signal a
// recurring, already-known mistake (spec §4.5 "Repeated mistakes").
var repeatedMistakePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bagain\b`),
	regexp.MustCompile(`(?i)\bis still missing\b`),
	regexp.MustCompile(`(?i)\banother\b.{0,40}\b(mistake|bug|issue|oversight)\b`),
}

// ExtractLessons runs all three detection methods over text and returns one
// LessonCandidate per detection (spec §4.5). Explicit [PROCESS_KNOWLEDGE]
// blocks are fully structured; the two regex-based methods each classify a
// matching sentence as a warning-type lesson.
func ExtractLessons(text string) []LessonCandidate {
	var out []LessonCandidate

	for _, block := range blocks.ExtractProcessKnowledge(text) {
		out = append(out, LessonCandidate{
			Method:      DetectionExplicit,
			Label:       block.Label,
			ProcessType: graphstore.ProcessType(block.ProcessType),
			ExplicitPriority: graphstore.Priority(strings.ToUpper(block.Priority)),
			TriggerConditions: graphstore.TriggerConditions{
				ToolNames:       block.ToolNames,
				FilePatterns:    block.FilePatterns,
				ActionKeywords:  block.ActionKeywords,
				ContextKeywords: block.ContextKeywords,
				TriadNames:      block.TriadNames,
			},
			Checklist: toChecklist(block.Checklist),
		})
	}

	for _, sentence := range splitSentences(text) {
		if matchesAny(userCorrectionPatterns, sentence) {
			out = append(out, LessonCandidate{
				Method:      DetectionUserCorrection,
				Label:       truncateLabel(sentence),
				ProcessType: graphstore.ProcessWarning,
				Evidence:    sentence,
			})
			continue
		}
		if matchesAny(repeatedMistakePatterns, sentence) {
			out = append(out, LessonCandidate{
				Method:      DetectionRepeatedMistake,
				Label:       truncateLabel(sentence),
				ProcessType: graphstore.ProcessWarning,
				Evidence:    sentence,
			})
		}
	}

	return out
}

func toChecklist(specs []blocks.ChecklistItemSpec) []graphstore.ChecklistItem {
	items := make([]graphstore.ChecklistItem, 0, len(specs))
	for _, s := range specs {
		items = append(items, graphstore.ChecklistItem{Item: s.Item, Required: s.Required, File: s.File})
	}
	return items
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

var sentenceSplit = regexp.MustCompile(`(?:[.!?]\s+|\n+)`)

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

const maxLessonLabelRunes = 120

func truncateLabel(s string) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= maxLessonLabelRunes {
		return string(runes)
	}
	return string(runes[:maxLessonLabelRunes])
}
