package blocks

import (
	"regexp"
	"strings"
)

// ChecklistItemSpec is one parsed checklist line from a PROCESS_KNOWLEDGE
// block: "- item text (required: true, file: path)" (spec §4.2).
type ChecklistItemSpec struct {
	Item     string
	Required bool
	File     string
}

// ProcessKnowledgeBlock is one parsed "[PROCESS_KNOWLEDGE]...[/PROCESS_KNOWLEDGE]"
// block — the explicit-detection path feeding the Knowledge Handler's
// extract-lessons routine (spec §4.5).
type ProcessKnowledgeBlock struct {
	Type              string
	Label             string
	Priority          string
	ProcessType       string
	ToolNames         []string
	FilePatterns      []string
	ActionKeywords    []string
	ContextKeywords   []string
	TriadNames        []string
	Checklist         []ChecklistItemSpec
}

var checklistHintPattern = regexp.MustCompile(`\(([^)]*)\)\s*$`)

// ExtractProcessKnowledge returns every PROCESS_KNOWLEDGE block found in text.
func ExtractProcessKnowledge(text string) []ProcessKnowledgeBlock {
	var blocks []ProcessKnowledgeBlock
	for _, body := range extractBlocks(text, "PROCESS_KNOWLEDGE") {
		pb := parseBlockBody(body)
		block := ProcessKnowledgeBlock{
			Type:            pb.fields["type"],
			Label:           pb.fields["label"],
			Priority:        strings.ToUpper(pb.fields["priority"]),
			ProcessType:     pb.fields["process_type"],
			ToolNames:       pb.listFields["trigger_conditions.tool_names"],
			FilePatterns:    pb.listFields["trigger_conditions.file_patterns"],
			ActionKeywords:  pb.listFields["trigger_conditions.action_keywords"],
			ContextKeywords: pb.listFields["trigger_conditions.context_keywords"],
			TriadNames:      pb.listFields["trigger_conditions.triad_names"],
		}
		block.Checklist = parseChecklistItems(pb.items)
		if block.Label == "" || block.ProcessType == "" {
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func parseChecklistItems(items []string) []ChecklistItemSpec {
	specs := make([]ChecklistItemSpec, 0, len(items))
	for _, raw := range items {
		spec := ChecklistItemSpec{Item: raw}
		if m := checklistHintPattern.FindStringSubmatch(raw); m != nil {
			spec.Item = strings.TrimSpace(strings.TrimSuffix(raw, m[0]))
			for _, hint := range strings.Split(m[1], ",") {
				hint = strings.TrimSpace(hint)
				kv := strings.SplitN(hint, ":", 2)
				if len(kv) != 2 {
					continue
				}
				key := strings.ToLower(strings.TrimSpace(kv[0]))
				value := strings.TrimSpace(kv[1])
				switch key {
				case "required":
					spec.Required = strings.EqualFold(value, "true")
				case "file":
					spec.File = value
				}
			}
		}
		specs = append(specs, spec)
	}
	return specs
}
