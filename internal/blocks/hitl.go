package blocks

import (
	"regexp"
	"strings"
)

const defaultHITLPrompt = "Human review is required before continuing."

var hitlOpenTag = regexp.MustCompile(`(?im)^[ \t]*\[HITL_REQUIRED\][ \t]*\r?\n`)

// ExtractHITL reports whether text contains a HITL_REQUIRED gate and, if so,
// the prompt to surface to the human (spec §4.2, §4.6). Per spec: the
// well-formed case takes the text between the tags; if there is no closing
// tag, the fallback is the text after the opening tag up to the first blank
// line. Absence of the tag means no gate at all.
func ExtractHITL(text string) (prompt string, found bool) {
	blocks := extractBlocks(text, "HITL_REQUIRED")
	if len(blocks) > 0 {
		prompt = strings.TrimSpace(blocks[0])
		if prompt == "" {
			prompt = defaultHITLPrompt
		}
		return prompt, true
	}

	loc := hitlOpenTag.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[1]:]
	if idx := strings.Index(rest, "\n\n"); idx >= 0 {
		rest = rest[:idx]
	}
	prompt = strings.TrimSpace(rest)
	if prompt == "" {
		prompt = defaultHITLPrompt
	}
	return prompt, true
}
