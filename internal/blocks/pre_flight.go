package blocks

import (
	"regexp"
	"strings"
)

// ChecklistItemResult is one line of a PRE_FLIGHT_CHECK's checklist_items
// map: "- name: text ✅|❌" (spec §4.2).
type ChecklistItemResult struct {
	Name   string
	Passed bool
	Detail string
}

// PreFlightCheck is one parsed "[PRE_FLIGHT_CHECK]...[/PRE_FLIGHT_CHECK]" block.
type PreFlightCheck struct {
	NodeID             string
	VerificationStatus string
	ChecklistItems     []ChecklistItemResult
}

// checklistItemLine matches indented "- name: text ✅" lines, distinct from
// the generic list-item line because it also captures a "name:" sub-key.
var checklistItemLine = regexp.MustCompile(`^\s*[-*]\s*([^:]+):\s*(.*)$`)

// ExtractPreFlightChecks returns every PRE_FLIGHT_CHECK block found in text.
func ExtractPreFlightChecks(text string) []PreFlightCheck {
	var checks []PreFlightCheck
	for _, body := range extractBlocks(text, "PRE_FLIGHT_CHECK") {
		var check PreFlightCheck
		for _, line := range strings.Split(body, "\n") {
			trimmed := strings.TrimRight(line, "\r")
			if strings.TrimSpace(trimmed) == "" {
				continue
			}
			if m := keyValueLine.FindStringSubmatch(trimmed); m != nil && !isIndented(trimmed) {
				key := strings.ToLower(m[1])
				value := strings.TrimSpace(m[2])
				switch key {
				case "node_id":
					check.NodeID = value
				case "verification_status":
					check.VerificationStatus = value
				}
				continue
			}
			if m := checklistItemLine.FindStringSubmatch(trimmed); m != nil {
				name := strings.TrimSpace(m[1])
				rest := strings.TrimSpace(m[2])
				passed, _ := passFail(rest)
				detail := strings.TrimSpace(trimStatusMarkers(rest))
				check.ChecklistItems = append(check.ChecklistItems, ChecklistItemResult{
					Name:   name,
					Passed: passed,
					Detail: detail,
				})
			}
		}
		if check.NodeID == "" {
			continue
		}
		checks = append(checks, check)
	}
	return checks
}

func trimStatusMarkers(s string) string {
	s = strings.ReplaceAll(s, "✅", "")
	s = strings.ReplaceAll(s, "❌", "")
	return strings.TrimSpace(s)
}

// AllPassed reports whether verification_status claims PASSED and every
// checklist item also reports passed — used by the Knowledge Handler's
// quality gate to catch a claimed-but-contradicted pass (spec §4.5).
func (c PreFlightCheck) AllPassed() bool {
	if !strings.EqualFold(c.VerificationStatus, "PASSED") {
		return false
	}
	for _, item := range c.ChecklistItems {
		if !item.Passed {
			return false
		}
	}
	return true
}
