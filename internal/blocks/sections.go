package blocks

import (
	"regexp"
	"strings"
)

// Section names the four bullet sections the Block Extractor recognizes
// inside free-form markdown-ish agent output (spec §4.2).
type Section string

const (
	SectionKeyFindings     Section = "key_findings"
	SectionDecisions       Section = "decisions"
	SectionOpenQuestions   Section = "open_questions"
	SectionRecommendations Section = "recommendations"
)

var sectionHeaders = map[string]Section{
	"key findings":     SectionKeyFindings,
	"decisions":        SectionDecisions,
	"open questions":   SectionOpenQuestions,
	"recommendations":  SectionRecommendations,
}

var headingLine = regexp.MustCompile(`(?m)^\s*#{1,6}\s*(.+?)\s*$`)

// ExtractSections finds "## Key Findings" / "## Decisions" / "## Open
// Questions" / "## Recommendations" headings (any heading depth, case
// insensitive) and returns each one's bullet items, trimmed. List-item
// detection matches "-", "*", and "N." / "N)" prefixes; a non-bullet line
// immediately following an item is treated as a continuation and appended
// to it (spec §4.2).
func ExtractSections(text string) map[Section][]string {
	result := make(map[Section][]string)

	lines := strings.Split(text, "\n")
	var current Section
	var inSection bool
	var continuing bool

	flushContinuation := func(line string) bool {
		if !inSection || len(result[current]) == 0 {
			return false
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || listItemLine.MatchString(line) || headingLine.MatchString(line) {
			return false
		}
		items := result[current]
		items[len(items)-1] = strings.TrimSpace(items[len(items)-1] + " " + trimmed)
		result[current] = items
		return true
	}

	for _, line := range lines {
		if m := headingLine.FindStringSubmatch(line); m != nil {
			name := strings.ToLower(strings.TrimSpace(m[1]))
			if sec, ok := sectionHeaders[name]; ok {
				current = sec
				inSection = true
			} else {
				inSection = false
			}
			continuing = false
			continue
		}

		if !inSection {
			continue
		}

		if m := listItemLine.FindStringSubmatch(line); m != nil {
			item := strings.TrimSpace(m[1])
			if item != "" {
				result[current] = append(result[current], item)
				continuing = true
			}
			continue
		}

		if strings.TrimSpace(line) == "" {
			continuing = false
			continue
		}
		if continuing {
			flushContinuation(line)
		}
	}

	return result
}
