package interject

import (
	"fmt"
	"strings"
)

// formatBlock renders the natural-language interjection written to stderr
// when a call is blocked (spec §4.7 "write a natural-language interjection
// to stderr containing the checklist label, up to K items, and the files to
// check").
func formatBlock(matches []Match, maxItems int) string {
	var b strings.Builder
	b.WriteString("Hold on — let me remind you of the process knowledge for this change:\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "\n- %s\n", m.Label)
		items := m.Checklist
		if len(items) > maxItems {
			items = items[:maxItems]
		}
		for _, item := range items {
			mark := " "
			if item.Required {
				mark = "*"
			}
			fmt.Fprintf(&b, "  %s %s", mark, item.Item)
			if item.File != "" {
				fmt.Fprintf(&b, " (%s)", item.File)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// formatInject renders the additionalContext text surfaced when knowledge
// matched but nothing blocked (spec §4.7 "inject").
func formatInject(matches []Match, maxItems int) string {
	if len(matches) > maxItems {
		matches = matches[:maxItems]
	}
	var labels []string
	for _, m := range matches {
		labels = append(labels, m.Label)
	}
	return "Relevant process knowledge: " + strings.Join(labels, "; ")
}
