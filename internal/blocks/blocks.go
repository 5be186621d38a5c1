// Package blocks implements the Block Extractor: a family of pure, forgiving
// parsers that pull tagged structured data out of free-form agent output
// (spec §4.2). Parsing never raises: malformed blocks are skipped, and
// every Extract* function is a pure function of its input text.
package blocks

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// tagPatternMultiline builds a case-insensitive, non-greedy matcher for a
// tag pair, e.g. "[GRAPH_UPDATE]...[/GRAPH_UPDATE]". The block grammar
// (spec §6) requires tag lines to be exactly "[TAG]"/"[/TAG]" on their own
// line, so (?m) lets ^/$ anchor to line boundaries inside the (?s) dotall body.
func tagPatternMultiline(tag string) *regexp.Regexp {
	escaped := regexp.QuoteMeta(tag)
	return regexp.MustCompile(`(?ism)^[ \t]*\[` + escaped + `\][ \t]*\r?\n(.*?)^[ \t]*\[/` + escaped + `\][ \t]*$`)
}

// extractBlocks returns the raw inner text of every occurrence of the given
// tag in text, in document order. Unterminated tags are not matched here;
// callers needing a no-closing-tag fallback (HITL) handle that separately.
func extractBlocks(text, tag string) []string {
	re := tagPatternMultiline(tag)
	matches := re.FindAllStringSubmatch(text, -1)
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, strings.TrimRight(m[1], "\r\n"))
	}
	return blocks
}

// keyValueLine matches "key: value" lines, including dotted keys like
// "trigger_conditions.tool_names".
var keyValueLine = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_.]*)\s*:\s*(.*)$`)

// listItemLine matches "- text", "* text", "1. text", or "1) text" prefixes.
var listItemLine = regexp.MustCompile(`^\s*(?:[-*]|\d+[.)])\s+(.*)$`)

// parsedBlock is the common intermediate form for any "key: value" +
// "- list item" block body, shared by GRAPH_UPDATE, PRE_FLIGHT_CHECK, and
// PROCESS_KNOWLEDGE.
type parsedBlock struct {
	fields     map[string]string
	listFields map[string][]string
	items      []string // raw "- " lines not captured as a key: value pair
}

// parseBlockBody walks body line by line: "key: value" lines become fields
// (JSON-array-looking values are parsed into listFields instead); everything
// else that looks like a list item is collected into items for the caller to
// interpret (checklist entries, bullet points, etc).
func parseBlockBody(body string) parsedBlock {
	pb := parsedBlock{
		fields:     make(map[string]string),
		listFields: make(map[string][]string),
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimRight(line, "\r")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}

		if m := keyValueLine.FindStringSubmatch(trimmed); m != nil && !isIndented(trimmed) {
			key := strings.ToLower(m[1])
			value := strings.TrimSpace(m[2])
			if strings.HasPrefix(value, "[") {
				if list, ok := parseJSONStringArray(value); ok {
					pb.listFields[key] = list
					continue
				}
			}
			pb.fields[key] = value
			continue
		}

		if m := listItemLine.FindStringSubmatch(trimmed); m != nil {
			pb.items = append(pb.items, strings.TrimSpace(m[1]))
			continue
		}

		// Continuation of the previous item/field: ignored at this layer;
		// per-tag parsers that need multi-line values re-scan the raw body.
	}

	return pb
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "\t")
}

func parseJSONStringArray(value string) ([]string, bool) {
	var raw []interface{}
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		default:
			out = append(out, jsonSprint(t))
		}
	}
	return out, true
}

func jsonSprint(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// coerceFloat parses a confidence-like field, tolerating surrounding
// whitespace and a trailing "%". Returns ok=false rather than erroring, per
// the Block Extractor's forgiving-parse contract.
func coerceFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	pct := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if pct {
		v /= 100
	}
	return v, true
}

// passFail interprets a "✅"/"❌"-prefixed or PASS/FAIL/PASSED/FAILED value.
func passFail(s string) (passed bool, ok bool) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "✅"):
		return true, true
	case strings.HasPrefix(s, "❌"):
		return false, true
	}
	upper := strings.ToUpper(s)
	switch {
	case strings.Contains(upper, "PASS"):
		return true, true
	case strings.Contains(upper, "FAIL"):
		return false, true
	}
	return false, false
}
